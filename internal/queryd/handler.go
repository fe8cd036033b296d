// Package queryd exposes the query engine over HTTP to the reporting layer.
package queryd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MilaVelkova/NoSQLRiak/internal/analytics"
	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
	"github.com/MilaVelkova/NoSQLRiak/internal/query"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	apperrors "github.com/MilaVelkova/NoSQLRiak/pkg/errors"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/metrics"
)

// Handler serves the query API.
type Handler struct {
	engine    *query.Engine
	collector *analytics.Collector
	metrics   *metrics.Metrics
	cfg       config.QueryConfig
	logger    *slog.Logger
}

// New creates a Handler. collector may be nil when event publishing is
// disabled, and m may be nil when no metric collectors are registered.
func New(engine *query.Engine, collector *analytics.Collector, m *metrics.Metrics, cfg config.QueryConfig) *Handler {
	return &Handler{
		engine:    engine,
		collector: collector,
		metrics:   m,
		cfg:       cfg,
		logger:    logger.WithComponent("query-handler"),
	}
}

// Movies handles GET /api/v1/movies?dim=<category>:<key>[&dim=...]. One dim
// is a point lookup, several intersect. With resolve=true the record keys
// are dereferenced into titles.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rawDims := r.URL.Query()["dim"]
	if len(rawDims) == 0 {
		h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "at least one dim parameter is required"))
		return
	}

	dims := make([]query.Dim, 0, len(rawDims))
	for _, raw := range rawDims {
		category, key, ok := strings.Cut(raw, ":")
		if !ok || category == "" || key == "" {
			h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "dim must be <category>:<key>"))
			return
		}
		if !movie.KnownCategory(category) {
			h.writeErr(w, apperrors.Newf(apperrors.ErrUnknownCategory, http.StatusBadRequest, "unknown category %q", category))
			return
		}
		dims = append(dims, query.Dim{Category: category, Key: key})
	}

	var keys []string
	var err error
	operation := "by_dimension"
	if len(dims) == 1 {
		keys, err = h.engine.ByDimension(r.Context(), dims[0].Category, dims[0].Key)
	} else {
		operation = "by_dimensions"
		keys, err = h.engine.ByDimensions(r.Context(), dims...)
	}
	if err != nil {
		h.fail(w, operation, start, err)
		return
	}

	limit := h.limit(r)
	total := len(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	response := map[string]any{"total": total, "keys": keys}
	if r.URL.Query().Get("resolve") == "true" {
		summaries, err := h.engine.Resolve(r.Context(), keys)
		if err != nil {
			h.fail(w, operation, start, err)
			return
		}
		response["movies"] = summaries
	}

	h.track(operation, dims[0].Category, dims[0].Key, total, start)
	h.writeJSON(w, http.StatusOK, response)
}

// Top handles GET /api/v1/top?genre=Drama&n=5[&year=2019], serving the
// bounded top-rated ranking with an optional year membership filter.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	genre := r.URL.Query().Get("genre")
	if genre == "" {
		h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'genre' is required"))
		return
	}
	n := h.cfg.DefaultLimit
	if rawN := r.URL.Query().Get("n"); rawN != "" {
		parsed, err := strconv.Atoi(rawN)
		if err != nil || parsed < 1 {
			h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "n must be a positive integer"))
			return
		}
		if parsed > h.cfg.MaxLimit {
			parsed = h.cfg.MaxLimit
		}
		n = parsed
	}

	var refs []index.ScoredRef
	var err error
	operation := "top_k"
	if year := r.URL.Query().Get("year"); year != "" {
		operation = "top_k_filtered"
		var yearKeys []string
		yearKeys, err = h.engine.ByDimension(r.Context(), movie.CategoryYear, year)
		if err == nil {
			refs, err = h.engine.TopKFiltered(r.Context(), movie.CategoryTopRated, genre, yearKeys, n)
		}
	} else {
		refs, err = h.engine.TopK(r.Context(), movie.CategoryTopRated, genre, n)
	}
	if err != nil {
		h.fail(w, operation, start, err)
		return
	}

	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ref.Key)
	}
	summaries, err := h.engine.Resolve(r.Context(), keys)
	if err != nil {
		h.fail(w, operation, start, err)
		return
	}
	type entry struct {
		Key   string  `json:"key"`
		Title string  `json:"title"`
		Score float64 `json:"score"`
	}
	results := make([]entry, 0, len(refs))
	for i, ref := range refs {
		results = append(results, entry{Key: ref.Key, Title: summaries[i].Title, Score: ref.Score})
	}

	h.track(operation, movie.CategoryTopRated, genre, len(results), start)
	h.writeJSON(w, http.StatusOK, map[string]any{"genre": genre, "results": results})
}

// Counts handles GET /api/v1/stats/counts?category=genre[&sort=key].
func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	category := r.URL.Query().Get("category")
	if category == "" {
		h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'category' is required"))
		return
	}
	if !movie.KnownCategory(category) {
		h.writeErr(w, apperrors.Newf(apperrors.ErrUnknownCategory, http.StatusBadRequest, "unknown category %q", category))
		return
	}
	counts, err := h.engine.CountPerKey(r.Context(), category)
	if err != nil {
		h.fail(w, "count_per_key", start, err)
		return
	}
	var sorted []query.KeyCount
	if r.URL.Query().Get("sort") == "key" {
		sorted = query.SortedByKey(counts)
	} else {
		sorted = query.SortedByCount(counts)
	}
	h.track("count_per_key", category, "", len(sorted), start)
	h.writeJSON(w, http.StatusOK, map[string]any{"category": category, "counts": sorted})
}

// metricExtractors names the record metrics the averages endpoint accepts.
var metricExtractors = map[string]query.Metric{
	"vote_average": func(rec movie.Record) float64 { return rec.VoteAverage },
	"popularity":   func(rec movie.Record) float64 { return rec.Popularity },
	"runtime":      func(rec movie.Record) float64 { return rec.Runtime },
	"budget":       func(rec movie.Record) float64 { return rec.Budget },
	"revenue":      func(rec movie.Record) float64 { return rec.Revenue },
	"profit":       func(rec movie.Record) float64 { return rec.Profit() },
}

// Averages handles GET /api/v1/stats/averages?category=year&metric=vote_average.
func (h *Handler) Averages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	category := r.URL.Query().Get("category")
	metricName := r.URL.Query().Get("metric")
	metric, ok := metricExtractors[metricName]
	if category == "" || !ok {
		h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "parameters 'category' and a known 'metric' are required"))
		return
	}
	if !movie.KnownCategory(category) {
		h.writeErr(w, apperrors.Newf(apperrors.ErrUnknownCategory, http.StatusBadRequest, "unknown category %q", category))
		return
	}
	averages, err := h.engine.AvgMetricPerKey(r.Context(), category, metric)
	if err != nil {
		h.fail(w, "avg_metric_per_key", start, err)
		return
	}
	sorted := query.SortedByAverage(averages)
	h.track("avg_metric_per_key", category, metricName, len(sorted), start)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"metric":   metricName,
		"averages": sorted,
	})
}

// Combinations handles GET /api/v1/stats/combinations?min_support=3.
func (h *Handler) Combinations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	minSupport := 2
	if raw := r.URL.Query().Get("min_support"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "min_support must be a positive integer"))
			return
		}
		minSupport = parsed
	}
	combos, err := h.engine.GenreCombinations(r.Context(), minSupport)
	if err != nil {
		h.fail(w, "genre_combinations", start, err)
		return
	}
	h.track("genre_combinations", movie.CategoryGenre, "", len(combos), start)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"min_support":  minSupport,
		"combinations": combos,
	})
}

// Profitable handles GET /api/v1/stats/profitable?multiplier=2&budget_floor=1000000.
func (h *Handler) Profitable(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	multiplier := 2.0
	budgetFloor := 1_000_000.0
	if raw := r.URL.Query().Get("multiplier"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "multiplier must be a positive number"))
			return
		}
		multiplier = parsed
	}
	if raw := r.URL.Query().Get("budget_floor"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			h.writeErr(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "budget_floor must be a non-negative number"))
			return
		}
		budgetFloor = parsed
	}
	movies, err := h.engine.ProfitableMovies(r.Context(), multiplier, budgetFloor)
	if err != nil {
		h.fail(w, "profitable_movies", start, err)
		return
	}
	limit := h.limit(r)
	total := len(movies)
	if len(movies) > limit {
		movies = movies[:limit]
	}
	h.track("profitable_movies", movie.CategoryBudget, "", total, start)
	h.writeJSON(w, http.StatusOK, map[string]any{"total": total, "movies": movies})
}

func (h *Handler) limit(r *http.Request) int {
	limit := h.cfg.MaxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}
	return limit
}

func (h *Handler) track(operation, category, key string, resultCount int, start time.Time) {
	elapsed := time.Since(start)
	resultType := "hit"
	if resultCount == 0 {
		resultType = "zero_result"
	}
	h.logger.Info("query served",
		"operation", operation,
		"category", category,
		"results", resultCount,
		"latency_ms", elapsed.Milliseconds(),
	)
	if h.metrics != nil {
		h.metrics.QueriesTotal.WithLabelValues(operation, resultType).Inc()
		h.metrics.QueryLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
		h.metrics.QueryResultsCount.Observe(float64(resultCount))
	}
	if h.collector == nil {
		return
	}
	h.collector.Track(analytics.QueryEvent{
		Type:        analytics.EventQuery,
		Operation:   operation,
		Category:    category,
		Key:         key,
		ResultCount: resultCount,
		LatencyMs:   elapsed.Milliseconds(),
		Timestamp:   time.Now().UTC(),
	})
}

// fail records a failed query and writes the mapped error response.
func (h *Handler) fail(w http.ResponseWriter, operation string, start time.Time, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
	}
	h.logger.Error("query failed", "operation", operation, "error", err)
	if h.metrics != nil {
		h.metrics.QueriesTotal.WithLabelValues(operation, "error").Inc()
		h.metrics.QueryLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	h.writeErr(w, err)
}

// writeErr maps err onto an HTTP status and a response body. Internal detail
// never reaches the client: unless the error carries an explicit message or
// matches a client-safe sentinel, the body is a generic internal error.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := apperrors.ErrInternal.Error()
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		message = appErr.Message
	case errors.Is(err, apperrors.ErrRecordNotFound):
		message = apperrors.ErrRecordNotFound.Error()
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		message = apperrors.ErrStoreUnavailable.Error()
	case errors.Is(err, apperrors.ErrTimeout):
		message = apperrors.ErrTimeout.Error()
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
