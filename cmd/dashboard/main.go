package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/mohamedkhairy/ict-dashboard/internal/api"
	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/internal/engine"
	"github.com/mohamedkhairy/ict-dashboard/internal/feed"
	"github.com/mohamedkhairy/ict-dashboard/internal/poller"
	"github.com/mohamedkhairy/ict-dashboard/internal/pubsub"
	"github.com/mohamedkhairy/ict-dashboard/internal/storage"
	"github.com/mohamedkhairy/ict-dashboard/internal/wsgateway"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ICT dashboard service",
		logger.Int("port", cfg.Server.Port),
		logger.Strings("symbols", cfg.Engine.Symbols()),
		logger.String("timezone", cfg.Engine.Timezone),
		logger.Duration("poll_interval", cfg.Poller.Interval),
		logger.String("cache_backend", cfg.Feed.CacheBackend),
	)

	// Redis is only needed for the shared cache or snapshot publishing
	var redisClient storage.RedisClient
	if cfg.Feed.CacheBackend == "redis" || cfg.Poller.PublishChannel != "" {
		redisClient, err = pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis client",
				logger.ErrorField(err),
			)
		}
		defer redisClient.Close()
	}

	// Initialize engine
	eng, err := engine.NewEngine(cfg.Engine)
	if err != nil {
		logger.Fatal("Failed to initialize engine",
			logger.ErrorField(err),
		)
	}

	// Initialize market data feed
	fetcher, err := feed.NewFetcher(cfg.Feed, cfg.Engine.Location)
	if err != nil {
		logger.Fatal("Failed to initialize fetcher",
			logger.ErrorField(err),
		)
	}
	var cache feed.Cache = feed.NewMemoryCache()
	if cfg.Feed.CacheBackend == "redis" {
		cache = feed.NewRedisCache(redisClient, cfg.Engine.Location)
	}
	marketFeed := feed.NewFeed(fetcher, cache, cfg.Feed, cfg.Engine.Symbols())

	// Initialize hub
	hub := wsgateway.NewHub(cfg.Server)
	if err := hub.Start(); err != nil {
		logger.Fatal("Failed to start WebSocket hub",
			logger.ErrorField(err),
		)
	}

	// Initialize poller
	opts := []poller.Option{poller.WithBroadcaster(hub)}
	if cfg.Poller.PublishChannel != "" {
		opts = append(opts, poller.WithPublisher(redisClient))
	}
	poll := poller.New(marketFeed, eng, cfg.Poller, cfg.Feed.FetchTimeout, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up HTTP server
	var pinger api.Pinger
	if redisClient != nil {
		pinger = redisClient
	}
	router := api.NewRouter(
		api.NewDashboardHandler(poll, cfg.Engine),
		api.NewHealthHandler(poll, hub, poll, pinger),
		hub,
	)

	// Apply middleware
	middlewares := api.ChainMiddleware(
		api.ErrorHandlingMiddleware(),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(),
		api.CORSMiddleware(),
		api.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middlewares(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Start polling after the server is up so /ready reflects the first run
	if err := poll.Start(ctx); err != nil {
		logger.Fatal("Failed to start poller",
			logger.ErrorField(err),
		)
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down ICT dashboard service")

	cancel()
	poll.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	hub.Stop()

	logger.Info("ICT dashboard service stopped")
}
