// Package report runs the benchmark query suite against the index and
// renders a performance report for offline comparison: every query's
// latency, result count, and a small result sample.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
	"github.com/MilaVelkova/NoSQLRiak/internal/query"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
)

// TimedResult is one suite query's outcome.
type TimedResult struct {
	Name        string            `json:"name"`
	Params      map[string]string `json:"params,omitempty"`
	DurationMs  float64           `json:"duration_ms"`
	ResultCount int               `json:"result_count"`
	Sample      any               `json:"sample,omitempty"`
}

// Report is the full suite outcome.
type Report struct {
	GeneratedAt     time.Time     `json:"generated_at"`
	Results         []TimedResult `json:"results"`
	TotalDurationMs float64       `json:"total_duration_ms"`
}

// Runner executes the fixed benchmark suite.
type Runner struct {
	engine *query.Engine
	cfg    config.ReportConfig
	logger *slog.Logger
}

// NewRunner creates a Runner over the given engine.
func NewRunner(engine *query.Engine, cfg config.ReportConfig) *Runner {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.MinSupport <= 0 {
		cfg.MinSupport = 3
	}
	return &Runner{
		engine: engine,
		cfg:    cfg,
		logger: logger.WithComponent("report-runner"),
	}
}

// Run executes the whole suite. Individual query failures abort the run;
// the suite exists to compare timings, so a partial report is worthless.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{GeneratedAt: time.Now().UTC()}
	suiteStart := time.Now()

	steps := []struct {
		name   string
		params map[string]string
		run    func(ctx context.Context) (int, any, error)
	}{
		{
			name:   "by_genre",
			params: map[string]string{"genre": "Action"},
			run: func(ctx context.Context) (int, any, error) {
				keys, err := r.engine.ByDimension(ctx, movie.CategoryGenre, "Action")
				if err != nil {
					return 0, nil, err
				}
				sample, err := r.resolveSample(ctx, keys)
				return len(keys), sample, err
			},
		},
		{
			name:   "by_actor",
			params: map[string]string{"actor": "Tom Hanks"},
			run: func(ctx context.Context) (int, any, error) {
				keys, err := r.engine.ByDimension(ctx, movie.CategoryActor, "Tom Hanks")
				if err != nil {
					return 0, nil, err
				}
				sample, err := r.resolveSample(ctx, keys)
				return len(keys), sample, err
			},
		},
		{
			name:   "by_year",
			params: map[string]string{"year": "2015"},
			run: func(ctx context.Context) (int, any, error) {
				keys, err := r.engine.ByDimension(ctx, movie.CategoryYear, "2015")
				return len(keys), nil, err
			},
		},
		{
			name:   "actor_and_genre",
			params: map[string]string{"actor": "Tom Hanks", "genre": "Drama"},
			run: func(ctx context.Context) (int, any, error) {
				keys, err := r.engine.ByDimensions(ctx,
					query.Dim{Category: movie.CategoryActor, Key: "Tom Hanks"},
					query.Dim{Category: movie.CategoryGenre, Key: "Drama"},
				)
				if err != nil {
					return 0, nil, err
				}
				sample, err := r.resolveSample(ctx, keys)
				return len(keys), sample, err
			},
		},
		{
			name:   "genre_and_year",
			params: map[string]string{"genre": "Action", "year": "2015"},
			run: func(ctx context.Context) (int, any, error) {
				keys, err := r.engine.ByDimensions(ctx,
					query.Dim{Category: movie.CategoryGenre, Key: "Action"},
					query.Dim{Category: movie.CategoryYear, Key: "2015"},
				)
				return len(keys), nil, err
			},
		},
		{
			name:   "top_rated_drama",
			params: map[string]string{"genre": "Drama", "n": fmt.Sprint(r.cfg.TopN)},
			run: func(ctx context.Context) (int, any, error) {
				refs, err := r.engine.TopK(ctx, movie.CategoryTopRated, "Drama", r.cfg.TopN)
				if err != nil {
					return 0, nil, err
				}
				sample, err := r.resolveRanked(ctx, refs)
				return len(refs), sample, err
			},
		},
		{
			name:   "top_rated_romance_2019",
			params: map[string]string{"genre": "Romance", "year": "2019", "n": "3"},
			run: func(ctx context.Context) (int, any, error) {
				yearKeys, err := r.engine.ByDimension(ctx, movie.CategoryYear, "2019")
				if err != nil {
					return 0, nil, err
				}
				refs, err := r.engine.TopKFiltered(ctx, movie.CategoryTopRated, "Romance", yearKeys, 3)
				if err != nil {
					return 0, nil, err
				}
				sample, err := r.resolveRanked(ctx, refs)
				return len(refs), sample, err
			},
		},
		{
			name:   "count_by_actor",
			params: map[string]string{"actor": "Leonardo DiCaprio"},
			run: func(ctx context.Context) (int, any, error) {
				keys, err := r.engine.ByDimension(ctx, movie.CategoryActor, "Leonardo DiCaprio")
				return len(keys), nil, err
			},
		},
		{
			name:   "high_rated_action",
			params: map[string]string{"genre": "Action", "min_rating": "8.0"},
			run: func(ctx context.Context) (int, any, error) {
				count, err := r.engine.CountAbove(ctx, movie.CategoryTopRated, "Action", 8.0)
				return count, nil, err
			},
		},
		{
			name: "genre_counts",
			run: func(ctx context.Context) (int, any, error) {
				counts, err := r.engine.CountPerKey(ctx, movie.CategoryGenre)
				if err != nil {
					return 0, nil, err
				}
				sorted := query.SortedByCount(counts)
				return len(sorted), truncate(sorted, 10), nil
			},
		},
		{
			name: "avg_rating_per_year",
			run: func(ctx context.Context) (int, any, error) {
				averages, err := r.engine.AvgMetricPerKey(ctx, movie.CategoryYear, func(rec movie.Record) float64 {
					return rec.VoteAverage
				})
				if err != nil {
					return 0, nil, err
				}
				sorted := query.SortedByAverage(averages)
				return len(sorted), truncate(sorted, 10), nil
			},
		},
		{
			name:   "genre_combinations",
			params: map[string]string{"min_support": fmt.Sprint(r.cfg.MinSupport)},
			run: func(ctx context.Context) (int, any, error) {
				combos, err := r.engine.GenreCombinations(ctx, r.cfg.MinSupport)
				if err != nil {
					return 0, nil, err
				}
				return len(combos), truncate(combos, 10), nil
			},
		},
		{
			name:   "profitable_movies",
			params: map[string]string{"multiplier": "2", "budget_floor": "1000000"},
			run: func(ctx context.Context) (int, any, error) {
				movies, err := r.engine.ProfitableMovies(ctx, 2, 1_000_000)
				if err != nil {
					return 0, nil, err
				}
				return len(movies), truncate(movies, 10), nil
			},
		},
	}

	for _, step := range steps {
		start := time.Now()
		count, sample, err := step.run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("suite query %s: %w", step.name, err)
		}
		r.logger.Info("suite query done",
			"name", step.name,
			"results", count,
			"duration", elapsed,
		)
		report.Results = append(report.Results, TimedResult{
			Name:        step.name,
			Params:      step.params,
			DurationMs:  float64(elapsed.Microseconds()) / 1000,
			ResultCount: count,
			Sample:      sample,
		})
	}

	report.TotalDurationMs = float64(time.Since(suiteStart).Microseconds()) / 1000
	return report, nil
}

// resolveSample dereferences up to TopN record keys into titles.
func (r *Runner) resolveSample(ctx context.Context, keys []string) (any, error) {
	if len(keys) > r.cfg.TopN {
		keys = keys[:r.cfg.TopN]
	}
	return r.engine.Resolve(ctx, keys)
}

// resolveRanked pairs resolved titles with their scores.
func (r *Runner) resolveRanked(ctx context.Context, refs []index.ScoredRef) (any, error) {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ref.Key)
	}
	summaries, err := r.engine.Resolve(ctx, keys)
	if err != nil {
		return nil, err
	}
	type rankedSample struct {
		Title string  `json:"title"`
		Score float64 `json:"score"`
	}
	out := make([]rankedSample, 0, len(refs))
	for i, ref := range refs {
		out = append(out, rankedSample{Title: summaries[i].Title, Score: ref.Score})
	}
	return out, nil
}

// WriteFile renders the report as indented JSON at path, creating parent
// directories as needed.
func WriteFile(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
