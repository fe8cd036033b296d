package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/postgres"
)

// Store persists performance reports in PostgreSQL for run-over-run
// comparison.
//
// It requires a `performance_reports` table:
//
//	CREATE TABLE performance_reports (
//	    id           BIGSERIAL PRIMARY KEY,
//	    data         JSONB NOT NULL,
//	    generated_at TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a report persistence store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: logger.WithComponent("report-store"),
	}
}

// Save persists one report.
func (s *Store) Save(ctx context.Context, report *Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO performance_reports (data, generated_at) VALUES ($1, $2)`,
		data, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	s.logger.Info("performance report saved", "queries", len(report.Results))
	return nil
}
