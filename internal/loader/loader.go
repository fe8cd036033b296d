// Package loader bulk-loads the movie metadata CSV into the primary record
// store. Each row becomes a JSON document stored under "movie:" + id; rows
// without an id or title are dropped, and empty columns are omitted from the
// document.
package loader

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/metrics"
	"github.com/MilaVelkova/NoSQLRiak/pkg/resilience"
)

// Stats is the outcome of one bulk load.
type Stats struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// Loader streams CSV rows into the primary store with a bounded worker pool.
type Loader struct {
	primary index.PrimaryStore
	cfg     config.LoaderConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Loader. metrics may be nil when no collector is registered.
func New(primary index.PrimaryStore, cfg config.LoaderConfig, m *metrics.Metrics) *Loader {
	if cfg.WriteWorkers <= 0 {
		cfg.WriteWorkers = 8
	}
	return &Loader{
		primary: primary,
		cfg:     cfg,
		metrics: m,
		logger:  logger.WithComponent("loader"),
	}
}

type row struct {
	key string
	doc []byte
}

// Run reads the configured CSV and writes up to RowLimit records. It returns
// load statistics; any store write that still fails after retries aborts the
// run. Loaded counts confirmed store writes, so a partial run reports what
// actually landed rather than what was dispatched.
func (l *Loader) Run(ctx context.Context) (Stats, error) {
	f, err := os.Open(l.cfg.CSVPath)
	if err != nil {
		return Stats{}, fmt.Errorf("opening dataset %s: %w", l.cfg.CSVPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return Stats{}, fmt.Errorf("reading CSV header: %w", err)
	}

	var loaded atomic.Int64
	rows := make(chan row, l.cfg.WriteWorkers*2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < l.cfg.WriteWorkers; i++ {
		g.Go(func() error {
			for r := range rows {
				err := resilience.Retry(gctx, "primary-store put", resilience.RetryConfig{}, func() error {
					return l.primary.Put(gctx, r.key, r.doc)
				})
				if err != nil {
					return err
				}
				loaded.Add(1)
				if l.metrics != nil {
					l.metrics.RecordsLoadedTotal.Inc()
				}
			}
			return nil
		})
	}

	skipped := 0
	readErr := func() error {
		defer close(rows)
		dispatched := 0
		for {
			if l.cfg.RowLimit > 0 && dispatched >= l.cfg.RowLimit {
				return nil
			}
			record, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// A single unparseable row is not fatal.
				skipped++
				if l.metrics != nil {
					l.metrics.LoadFailuresTotal.Inc()
				}
				l.logger.Warn("skipping unreadable CSV row", "error", err)
				continue
			}

			key, doc, ok := buildDocument(header, record)
			if !ok {
				skipped++
				if l.metrics != nil {
					l.metrics.LoadFailuresTotal.Inc()
				}
				continue
			}

			select {
			case rows <- row{key: key, doc: doc}:
				dispatched++
			case <-gctx.Done():
				return gctx.Err()
			}

			if dispatched%1000 == 0 {
				l.logger.Info("load progress", "dispatched", dispatched, "skipped", skipped)
			}
		}
	}()

	waitErr := g.Wait()
	stats := Stats{Loaded: int(loaded.Load()), Skipped: skipped}
	if waitErr != nil {
		return stats, fmt.Errorf("writing records: %w", waitErr)
	}
	if readErr != nil {
		return stats, fmt.Errorf("reading dataset: %w", readErr)
	}

	l.logger.Info("bulk load complete", "loaded", stats.Loaded, "skipped", stats.Skipped)
	return stats, nil
}

// buildDocument maps one CSV row onto a JSON document keyed by the header
// columns, dropping empty cells. Rows without an id or title are rejected.
func buildDocument(header, record []string) (string, []byte, bool) {
	doc := make(map[string]string, len(header))
	for i, col := range header {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		doc[col] = value
	}

	id := strings.TrimSpace(doc["id"])
	if id == "" || doc["title"] == "" {
		return "", nil, false
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", nil, false
	}
	return movie.KeyPrefix + id, data, true
}
