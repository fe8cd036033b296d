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
	"github.com/MilaVelkova/NoSQLRiak/internal/loader"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/metrics"
	pkgredis "github.com/MilaVelkova/NoSQLRiak/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	csvPath := flag.String("csv", "", "override the CSV dataset path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *csvPath != "" {
		cfg.Loader.CSVPath = *csvPath
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting loader",
		"csv_path", cfg.Loader.CSVPath,
		"row_limit", cfg.Loader.RowLimit,
		"workers", cfg.Loader.WriteWorkers,
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
	l := loader.New(primary, cfg.Loader, m)

	stats, err := l.Run(ctx)
	if err != nil {
		slog.Error("load failed", "error", err)
		os.Exit(1)
	}

	slog.Info("load complete", "loaded", stats.Loaded, "skipped", stats.Skipped)
}
