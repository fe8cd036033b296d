package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
)

// Handler serves aggregated query statistics over HTTP.
type Handler struct {
	agg    *Aggregator
	logger *slog.Logger
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{
		agg:    agg,
		logger: logger.WithComponent("analytics-handler"),
	}
}

// Stats handles GET /api/v1/analytics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.agg.Stats()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to write stats response", "error", err)
	}
}
