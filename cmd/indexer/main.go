package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MilaVelkova/NoSQLRiak/internal/analytics"
	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/indexer"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/kafka"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/metrics"
	pkgredis "github.com/MilaVelkova/NoSQLRiak/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index rebuild",
		"ranking_cap", cfg.Indexer.RankingCap,
		"redis_addr", cfg.Redis.Addr,
	)

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	primary := index.NewRedisPrimaryStore(redisClient)
	indexes := index.NewRedisStore(redisClient)
	ix := indexer.New(primary, indexes, cfg.Indexer)

	stats, err := ix.Rebuild(ctx)
	if err != nil {
		slog.Error("rebuild failed", "error", err)
		os.Exit(1)
	}

	if m != nil {
		m.RebuildDuration.Observe(stats.Elapsed.Seconds())
		m.RecordsIndexedTotal.Add(float64(stats.Processed))
		for reason, count := range stats.SkipReasons {
			m.RecordsSkippedTotal.WithLabelValues(reason).Add(float64(count))
		}
		for category, writes := range stats.Writes {
			m.IndexWritesTotal.WithLabelValues(category).Add(float64(writes))
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RebuildComplete)
		defer producer.Close()
		event := analytics.RebuildEvent{
			Type:      analytics.EventRebuild,
			Processed: stats.Processed,
			Skipped:   stats.Skipped,
			Writes:    stats.Writes,
			ElapsedMs: stats.Elapsed.Milliseconds(),
			Timestamp: time.Now().UTC(),
		}
		if err := producer.Publish(ctx, kafka.Event{Key: "rebuild", Value: event}); err != nil {
			slog.Warn("failed to publish rebuild event", "error", err)
		}
	}

	slog.Info("rebuild complete",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"elapsed", stats.Elapsed,
	)
}
