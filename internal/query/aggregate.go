package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
)

// KeyCount pairs a dimension value with its membership count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// KeyAverage pairs a dimension value with a metric average over its members.
type KeyAverage struct {
	Key     string  `json:"key"`
	Average float64 `json:"average"`
}

// GenreCombo is one mined genre combination: the sorted genre tuple, how
// many movies carry exactly those genres together, and the average rating
// over the members that have a positive rating.
type GenreCombo struct {
	Genres    []string `json:"genres"`
	Count     int      `json:"count"`
	AvgRating float64  `json:"avg_rating"`
}

// ProfitableMovie is one result of the two-stage profitability filter.
type ProfitableMovie struct {
	Key     string  `json:"key"`
	Title   string  `json:"title"`
	Budget  float64 `json:"budget"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// Metric extracts a numeric field from a record for grouped averaging.
// Records for which it returns a non-positive value are excluded from both
// numerator and denominator.
type Metric func(movie.Record) float64

// CountPerKey returns the membership count of every dimension value in the
// category.
func (e *Engine) CountPerKey(ctx context.Context, category string) (map[string]int, error) {
	keys, err := e.indexes.Keys(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("listing category %s: %w", category, err)
	}
	counts := make(map[string]int, len(keys))
	for _, key := range keys {
		members, err := e.indexes.GetMembers(ctx, category, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s=%q: %w", category, key, err)
		}
		counts[key] = len(members)
	}
	return counts, nil
}

// AvgMetricPerKey averages the given metric over each dimension value's
// members. Members whose metric is zero or invalid count toward neither the
// sum nor the divisor; keys with no valid members are omitted.
func (e *Engine) AvgMetricPerKey(ctx context.Context, category string, metric Metric) (map[string]float64, error) {
	keys, err := e.indexes.Keys(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("listing category %s: %w", category, err)
	}
	averages := make(map[string]float64, len(keys))
	for _, key := range keys {
		members, err := e.indexes.GetMembers(ctx, category, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s=%q: %w", category, key, err)
		}
		var sum float64
		var n int
		for _, recordKey := range members {
			rec, err := e.fetchRecord(ctx, recordKey)
			if err != nil {
				e.logger.Debug("skipping unresolvable member", "key", recordKey, "error", err)
				continue
			}
			v := metric(rec)
			if v <= 0 {
				continue
			}
			sum += v
			n++
		}
		if n > 0 {
			averages[key] = sum / float64(n)
		}
	}
	return averages, nil
}

// GenreCombinations scans the whole primary store and mines genre
// co-occurrence: every record carrying at least two genres contributes its
// sorted genre tuple as one combination. Combinations observed fewer than
// minSupport times are dropped. Results are ordered by count descending,
// ties by the combination id.
func (e *Engine) GenreCombinations(ctx context.Context, minSupport int) ([]GenreCombo, error) {
	recordKeys, err := e.primary.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating primary records: %w", err)
	}

	type comboAcc struct {
		genres  []string
		count   int
		sum     float64
		rated   int
	}
	combos := make(map[string]*comboAcc)

	for _, recordKey := range recordKeys {
		rec, err := e.fetchRecord(ctx, recordKey)
		if err != nil {
			e.logger.Debug("skipping unreadable record", "key", recordKey, "error", err)
			continue
		}
		if len(rec.Genres) < 2 {
			continue
		}
		genres := uniqueSorted(rec.Genres)
		if len(genres) < 2 {
			continue
		}
		id := strings.Join(genres, "|")
		acc, ok := combos[id]
		if !ok {
			acc = &comboAcc{genres: genres}
			combos[id] = acc
		}
		acc.count++
		if rec.VoteAverage > 0 {
			acc.sum += rec.VoteAverage
			acc.rated++
		}
	}

	ids := make([]string, 0, len(combos))
	for id, acc := range combos {
		if acc.count >= minSupport {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := combos[ids[i]], combos[ids[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return ids[i] < ids[j]
	})

	out := make([]GenreCombo, 0, len(ids))
	for _, id := range ids {
		acc := combos[id]
		combo := GenreCombo{Genres: acc.genres, Count: acc.count}
		if acc.rated > 0 {
			combo.AvgRating = acc.sum / float64(acc.rated)
		}
		out = append(out, combo)
	}
	return out, nil
}

// ProfitableMovies finds movies with revenue >= budget*multiplier and
// budget >= budgetFloor. The budget bucket category is only a coarse
// pre-filter: qualifying buckets are scanned, the boundary bucket included,
// and every candidate record is re-checked against the exact predicate,
// since bucket keys are lossy. Results are ordered by profit descending.
func (e *Engine) ProfitableMovies(ctx context.Context, multiplier, budgetFloor float64) ([]ProfitableMovie, error) {
	keys, err := e.indexes.Keys(ctx, movie.CategoryBudget)
	if err != nil {
		return nil, fmt.Errorf("listing budget buckets: %w", err)
	}

	width, _ := movie.BucketWidth(movie.CategoryBudget)
	out := make([]ProfitableMovie, 0)
	seen := make(map[string]struct{})
	for _, key := range keys {
		lower, ok := movie.BucketLowerBound(movie.CategoryBudget, key)
		if !ok {
			continue
		}
		// The bucket can only contain qualifying budgets when its upper
		// bound exceeds the floor; the boundary bucket is re-checked exactly.
		if lower+width <= budgetFloor {
			continue
		}

		members, err := e.indexes.GetMembers(ctx, movie.CategoryBudget, key)
		if err != nil {
			return nil, fmt.Errorf("reading budget bucket %q: %w", key, err)
		}
		for _, recordKey := range members {
			if _, dup := seen[recordKey]; dup {
				continue
			}
			seen[recordKey] = struct{}{}
			rec, err := e.fetchRecord(ctx, recordKey)
			if err != nil {
				e.logger.Debug("skipping unresolvable member", "key", recordKey, "error", err)
				continue
			}
			if rec.Budget < budgetFloor || rec.Revenue < rec.Budget*multiplier {
				continue
			}
			out = append(out, ProfitableMovie{
				Key:     rec.Key(),
				Title:   rec.Title,
				Budget:  rec.Budget,
				Revenue: rec.Revenue,
				Profit:  rec.Revenue - rec.Budget,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Profit != out[j].Profit {
			return out[i].Profit > out[j].Profit
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// SortedByCount flattens a count mapping, ordered by count descending with
// key ascending as tie-break.
func SortedByCount(counts map[string]int) []KeyCount {
	out := make([]KeyCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, KeyCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SortedByKey flattens a count mapping ordered by key descending.
func SortedByKey(counts map[string]int) []KeyCount {
	out := make([]KeyCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, KeyCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key > out[j].Key
	})
	return out
}

// SortedByAverage flattens an average mapping, ordered by average descending
// with key ascending as tie-break.
func SortedByAverage(averages map[string]float64) []KeyAverage {
	out := make([]KeyAverage, 0, len(averages))
	for key, avg := range averages {
		out = append(out, KeyAverage{Key: key, Average: avg})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
