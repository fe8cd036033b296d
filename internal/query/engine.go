// Package query implements the read-only analytical operations over the
// index collections and the primary record store: point lookups, boolean
// intersections, bounded top-K ranking, grouped aggregates, combination
// mining, and two-stage threshold filters.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
)

// Dim names one (category, dimension value) pair of an intersection query.
type Dim struct {
	Category string
	Key      string
}

// Summary is a record reference resolved for presentation.
type Summary struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Engine answers queries against the index store, dereferencing record keys
// back into the primary store for display fields. It never mutates either
// store and leaks no store handles to callers.
type Engine struct {
	primary index.PrimaryStore
	indexes index.Store
	logger  *slog.Logger
}

// New creates an Engine over the given stores.
func New(primary index.PrimaryStore, indexes index.Store) *Engine {
	return &Engine{
		primary: primary,
		indexes: indexes,
		logger:  logger.WithComponent("query-engine"),
	}
}

// ByDimension returns the membership set for one (category, key) pair.
// Absent keys yield an empty result, never an error.
func (e *Engine) ByDimension(ctx context.Context, category, key string) ([]string, error) {
	members, err := e.indexes.GetMembers(ctx, category, key)
	if err != nil {
		return nil, fmt.Errorf("looking up %s=%q: %w", category, key, err)
	}
	return members, nil
}

// ByDimensions intersects the membership sets of every given pair. The
// result is empty as soon as any dimension's set is empty, and is
// independent of the order of pairs; it is returned sorted for determinism.
func (e *Engine) ByDimensions(ctx context.Context, dims ...Dim) ([]string, error) {
	if len(dims) == 0 {
		return nil, nil
	}

	sets := make([]index.MemberSet, 0, len(dims))
	for _, d := range dims {
		members, err := e.indexes.GetMembers(ctx, d.Category, d.Key)
		if err != nil {
			return nil, fmt.Errorf("looking up %s=%q: %w", d.Category, d.Key, err)
		}
		if len(members) == 0 {
			return nil, nil
		}
		sets = append(sets, members)
	}

	// Seed with the smallest set and filter it through the rest.
	smallest := 0
	for i, s := range sets {
		if len(s) < len(sets[smallest]) {
			smallest = i
		}
	}
	result := make(map[string]struct{}, len(sets[smallest]))
	for _, key := range sets[smallest] {
		result[key] = struct{}{}
	}
	for i, s := range sets {
		if i == smallest {
			continue
		}
		present := make(map[string]struct{}, len(s))
		for _, key := range s {
			present[key] = struct{}{}
		}
		for key := range result {
			if _, ok := present[key]; !ok {
				delete(result, key)
			}
		}
	}

	keys := make([]string, 0, len(result))
	for key := range result {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// TopK returns the first n entries of the ranked entry for (category, key).
// The stored entry is already sorted descending; fewer than n entries are
// returned when it is shorter.
func (e *Engine) TopK(ctx context.Context, category, key string, n int) ([]index.ScoredRef, error) {
	refs, err := e.indexes.GetRanked(ctx, category, key)
	if err != nil {
		return nil, fmt.Errorf("reading ranked %s=%q: %w", category, key, err)
	}
	if n > 0 && len(refs) > n {
		refs = refs[:n]
	}
	return refs, nil
}

// TopKFiltered retains only the ranked entries of (category, key) whose
// record key occurs in filterKeys, preserving descending score order, and
// returns the first n. Serves queries like "top rated in genre X among year
// Y", where filterKeys is the year's membership set.
func (e *Engine) TopKFiltered(ctx context.Context, category, key string, filterKeys []string, n int) ([]index.ScoredRef, error) {
	refs, err := e.indexes.GetRanked(ctx, category, key)
	if err != nil {
		return nil, fmt.Errorf("reading ranked %s=%q: %w", category, key, err)
	}
	filter := make(map[string]struct{}, len(filterKeys))
	for _, k := range filterKeys {
		filter[k] = struct{}{}
	}
	out := make([]index.ScoredRef, 0, n)
	for _, ref := range refs {
		if _, ok := filter[ref.Key]; !ok {
			continue
		}
		out = append(out, ref)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out, nil
}

// CountAbove counts ranked entries of (category, key) whose score is at
// least minScore.
func (e *Engine) CountAbove(ctx context.Context, category, key string, minScore float64) (int, error) {
	refs, err := e.indexes.GetRanked(ctx, category, key)
	if err != nil {
		return 0, fmt.Errorf("reading ranked %s=%q: %w", category, key, err)
	}
	count := 0
	for _, ref := range refs {
		if ref.Score >= minScore {
			count++
		}
	}
	return count, nil
}

// Resolve dereferences record keys into presentation summaries. Records that
// vanished or fail to decode resolve to a placeholder title rather than an
// error.
func (e *Engine) Resolve(ctx context.Context, recordKeys []string) ([]Summary, error) {
	out := make([]Summary, 0, len(recordKeys))
	for _, key := range recordKeys {
		rec, err := e.fetchRecord(ctx, key)
		if err != nil {
			e.logger.Debug("record did not resolve", "key", key, "error", err)
			out = append(out, Summary{Key: key, Title: "Not Found"})
			continue
		}
		title := rec.Title
		if title == "" {
			title = "Unknown Title"
		}
		out = append(out, Summary{Key: key, Title: title})
	}
	return out, nil
}

// fetchRecord fetches and decodes one primary record.
func (e *Engine) fetchRecord(ctx context.Context, recordKey string) (movie.Record, error) {
	doc, err := e.primary.Fetch(ctx, recordKey)
	if err != nil {
		return movie.Record{}, err
	}
	return movie.Decode(doc)
}
