package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MilaVelkova/NoSQLRiak/internal/analytics"
	"github.com/MilaVelkova/NoSQLRiak/internal/index"
	"github.com/MilaVelkova/NoSQLRiak/internal/query"
	"github.com/MilaVelkova/NoSQLRiak/internal/queryd"
	"github.com/MilaVelkova/NoSQLRiak/pkg/config"
	"github.com/MilaVelkova/NoSQLRiak/pkg/health"
	"github.com/MilaVelkova/NoSQLRiak/pkg/kafka"
	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
	"github.com/MilaVelkova/NoSQLRiak/pkg/metrics"
	"github.com/MilaVelkova/NoSQLRiak/pkg/middleware"
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
	slog.Info("starting query service", "port", cfg.Server.Port)

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		collector = analytics.NewCollector(producer, 100, 5*time.Second)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.QueryEvents)
	}

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
		slog.Info("metrics server started", "port", cfg.Metrics.Port)
	}

	checker := health.NewChecker()
	checker.Register("redis", health.PingCheck(redisClient.Ping))

	primary := index.NewRedisPrimaryStore(redisClient)
	indexes := index.NewRedisStore(redisClient)
	engine := query.New(primary, indexes)
	h := queryd.New(engine, collector, m, cfg.Query)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/movies", h.Movies)
	mux.HandleFunc("GET /api/v1/top", h.Top)
	mux.HandleFunc("GET /api/v1/stats/counts", h.Counts)
	mux.HandleFunc("GET /api/v1/stats/averages", h.Averages)
	mux.HandleFunc("GET /api/v1/stats/combinations", h.Combinations)
	mux.HandleFunc("GET /api/v1/stats/profitable", h.Profitable)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Query.Timeout)(chain)
	chain = middleware.Metrics(m)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("query service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("query service stopped")
}
