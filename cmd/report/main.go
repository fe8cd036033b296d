package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/query"
	"github.com/MilaVelkova/NoSQLRiak/internal/report"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/postgres"
	pkgredis "github.com/MilaVelkova/NoSQLRiak/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	outputPath := flag.String("out", "", "override the report output path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputPath != "" {
		cfg.Report.OutputPath = *outputPath
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting benchmark report run", "output", cfg.Report.OutputPath)

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	primary := index.NewRedisPrimaryStore(redisClient)
	indexes := index.NewRedisStore(redisClient)
	engine := query.New(primary, indexes)
	runner := report.NewRunner(engine, cfg.Report)

	result, err := runner.Run(ctx)
	if err != nil {
		slog.Error("report run failed", "error", err)
		os.Exit(1)
	}

	if err := report.WriteFile(result, cfg.Report.OutputPath); err != nil {
		slog.Error("failed to write report", "path", cfg.Report.OutputPath, "error", err)
		os.Exit(1)
	}

	if cfg.Report.Persist {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := report.NewStore(db).Save(ctx, result); err != nil {
			slog.Error("failed to persist report", "error", err)
			os.Exit(1)
		}
		slog.Info("report persisted to postgres")
	}

	slog.Info("report complete",
		"queries", len(result.Results),
		"total_ms", result.TotalDurationMs,
		"path", cfg.Report.OutputPath,
	)
}
