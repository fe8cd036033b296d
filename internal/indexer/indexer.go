// Package indexer rebuilds every secondary index from the primary record
// store: membership sets for the categorical and bucketed dimensions, and the
// bounded top-rated ranking per genre. A rebuild is a full
// clear-then-populate pass; nothing from a previous run survives.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
)

// Skip reasons reported in Stats.SkipReasons.
const (
	SkipMalformed = "malformed"
	SkipMissing   = "missing"
)

// Stats is the outcome of one rebuild run. Per-record failures are counted
// here rather than aborting the run.
type Stats struct {
	Processed   int            `json:"processed"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Writes      map[string]int `json:"writes"`
	Elapsed     time.Duration  `json:"elapsed"`
}

// Indexer scans the primary store and writes membership and ranking entries
// into the index store. It is a single-writer batch component; no concurrent
// rebuilds are supported.
type Indexer struct {
	primary          index.PrimaryStore
	indexes          index.Store
	rankingCap       int
	progressInterval int
	logger           *slog.Logger
}

// New creates an Indexer over the given stores.
func New(primary index.PrimaryStore, indexes index.Store, cfg config.IndexerConfig) *Indexer {
	cap := cfg.RankingCap
	if cap <= 0 {
		cap = index.DefaultRankingCap
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 100
	}
	return &Indexer{
		primary:          primary,
		indexes:          indexes,
		rankingCap:       cap,
		progressInterval: interval,
		logger:           logger.WithComponent("indexer"),
	}
}

// Rebuild clears every index category and repopulates them from a single
// scan of the primary store. Malformed records are skipped and counted; a
// store failure aborts the run. Returns the run's Stats.
func (ix *Indexer) Rebuild(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{
		SkipReasons: make(map[string]int),
		Writes:      make(map[string]int),
	}

	ix.logger.Info("clearing index categories", "categories", len(movie.Categories))
	for _, category := range movie.Categories {
		if err := ix.indexes.Clear(ctx, category); err != nil {
			return stats, fmt.Errorf("clearing category %s: %w", category, err)
		}
	}

	recordKeys, err := ix.primary.Keys(ctx)
	if err != nil {
		return stats, fmt.Errorf("enumerating primary records: %w", err)
	}
	ix.logger.Info("starting rebuild scan", "records", len(recordKeys))

	for _, recordKey := range recordKeys {
		doc, err := ix.primary.Fetch(ctx, recordKey)
		if err != nil {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("rebuild cancelled: %w", ctx.Err())
			}
			// A record deleted between enumeration and fetch is not fatal.
			stats.Skipped++
			stats.SkipReasons[SkipMissing]++
			ix.logger.Warn("record vanished during scan", "key", recordKey, "error", err)
			continue
		}

		rec, err := movie.Decode(doc)
		if err != nil {
			stats.Skipped++
			stats.SkipReasons[SkipMalformed]++
			ix.logger.Warn("skipping malformed record", "key", recordKey, "error", err)
			continue
		}

		if err := ix.indexRecord(ctx, rec, &stats); err != nil {
			return stats, fmt.Errorf("indexing %s: %w", recordKey, err)
		}

		stats.Processed++
		if stats.Processed%ix.progressInterval == 0 {
			ix.logger.Info("rebuild progress", "processed", stats.Processed, "skipped", stats.Skipped)
		}
	}

	stats.Elapsed = time.Since(start)
	ix.logger.Info("rebuild complete",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}

// indexRecord writes one record into every dimension it participates in.
// Only store failures propagate; a dimension whose value is absent simply
// contributes nothing.
func (ix *Indexer) indexRecord(ctx context.Context, rec movie.Record, stats *Stats) error {
	recordKey := rec.Key()

	seenGenres := make(map[string]struct{}, len(rec.Genres))
	for _, genre := range rec.Genres {
		if _, dup := seenGenres[genre]; dup {
			continue
		}
		seenGenres[genre] = struct{}{}
		if err := ix.addMember(ctx, movie.CategoryGenre, genre, recordKey, stats); err != nil {
			return err
		}
		if err := ix.addRanked(ctx, movie.CategoryTopRated, genre, recordKey, rec.VoteAverage, stats); err != nil {
			return err
		}
	}

	for _, actor := range rec.Cast {
		if err := ix.addMember(ctx, movie.CategoryActor, actor, recordKey, stats); err != nil {
			return err
		}
	}

	if rec.ReleaseYear > 0 {
		year := fmt.Sprintf("%d", rec.ReleaseYear)
		if err := ix.addMember(ctx, movie.CategoryYear, year, recordKey, stats); err != nil {
			return err
		}
	}

	if rec.OriginalLanguage != "" {
		if err := ix.addMember(ctx, movie.CategoryLanguage, rec.OriginalLanguage, recordKey, stats); err != nil {
			return err
		}
	}

	for _, country := range rec.Countries {
		if err := ix.addMember(ctx, movie.CategoryCountry, country, recordKey, stats); err != nil {
			return err
		}
	}

	buckets := []struct {
		category string
		value    float64
	}{
		{movie.CategoryBudget, rec.Budget},
		{movie.CategoryRevenue, rec.Revenue},
		{movie.CategoryProfit, rec.Profit()},
		{movie.CategoryRuntime, rec.Runtime},
		{movie.CategoryVoteAverage, rec.VoteAverage},
		{movie.CategoryPopularity, rec.Popularity},
	}
	for _, b := range buckets {
		key, ok := movie.BucketKey(b.category, b.value)
		if !ok {
			continue
		}
		if err := ix.addMember(ctx, b.category, key, recordKey, stats); err != nil {
			return err
		}
	}

	return nil
}

// addMember reads the membership set for (category, key), adds recordKey if
// absent, and writes the set back.
func (ix *Indexer) addMember(ctx context.Context, category, key, recordKey string, stats *Stats) error {
	members, err := ix.indexes.GetMembers(ctx, category, key)
	if err != nil {
		return err
	}
	members, changed := members.Add(recordKey)
	if !changed {
		return nil
	}
	if err := ix.indexes.PutMembers(ctx, category, key, members); err != nil {
		return err
	}
	stats.Writes[category]++
	return nil
}

// addRanked inserts (recordKey, score) into the bounded ranked entry for
// (category, key) and writes it back.
func (ix *Indexer) addRanked(ctx context.Context, category, key, recordKey string, score float64, stats *Stats) error {
	existing, err := ix.indexes.GetRanked(ctx, category, key)
	if err != nil {
		return err
	}
	buf := index.NewRankingBuffer(ix.rankingCap, existing)
	buf.Insert(recordKey, score)
	if err := ix.indexes.PutRanked(ctx, category, key, buf.Entries()); err != nil {
		return err
	}
	stats.Writes[category]++
	return nil
}
