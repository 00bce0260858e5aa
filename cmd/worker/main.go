package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/XadielF/hipotrack/common/id"
	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/common/otel"
	"github.com/XadielF/hipotrack/core/config"
	"github.com/XadielF/hipotrack/core/db"
	"github.com/XadielF/hipotrack/internal/feed"
	"github.com/XadielF/hipotrack/internal/notify"
	"github.com/XadielF/hipotrack/internal/search"
	"github.com/XadielF/hipotrack/internal/store"
	"github.com/XadielF/hipotrack/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "hipotrack worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Feed.Group,
		"consumer_name", cfg.Feed.Consumer)

	// Different node id than the server so ids never collide
	if err := id.Init(3); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Feed.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Feed.Stream)

	consumer, err := feed.NewGroupConsumer(redisClient, feed.ConsumerConfig{
		Stream:    cfg.Feed.Stream,
		Group:     cfg.Feed.Group,
		Consumer:  cfg.Feed.Consumer,
		BatchSize: 10,
		Block:     5 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Pool())

	var index search.Index
	if cfg.Search.Enabled() {
		index = search.NewIndex(cfg.Search)
		if err := index.EnsureCollection(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ensure search collection", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "search indexing enabled", "collection", cfg.Search.Collection)
	} else {
		slog.InfoContext(ctx, "search indexing disabled (no typesense configured)")
	}

	var notifier notify.Notifier
	if cfg.Notify.Enabled() {
		notifier, err = notify.New(cfg.Notify.AMQPURL, cfg.Notify.Exchange, nil)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to amqp", "error", err)
			os.Exit(1)
		}
		defer notifier.Close()
		slog.InfoContext(ctx, "notifications enabled", "exchange", cfg.Notify.Exchange)
	} else {
		slog.InfoContext(ctx, "notifications disabled (no amqp configured)")
	}

	w := worker.New(consumer, stores, index, notifier)

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:    cfg.Feed.Stream,
		Group:     cfg.Feed.Group,
		Consumer:  cfg.Feed.Consumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, w)

	// Expose worker metrics on its own port
	metricsServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "metrics server error", "error", err)
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be processing)
	w.Stop()

	_ = metricsServer.Shutdown(shutdownCtx)

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}
