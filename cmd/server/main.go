package main

import (
	"context"   // context package is needed for shutdown and background loops
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"student_rideshare/internal/api"     // Custom package for API handlers
	"student_rideshare/internal/config"  // Custom package for configuration
	"student_rideshare/internal/db"      // Storage gateway
	"student_rideshare/internal/logger"  // Logging setup
	"student_rideshare/internal/metrics" // Prometheus collectors
	"student_rideshare/internal/service" // Core services
	"student_rideshare/internal/utils"   // Redis cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig()              // Load configuration
	logger.Setup(cfg.LogLevel, cfg.LogFile) // Setup logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New() // Prometheus collectors

	// Connect to the database through the retrying gateway
	gw, err := db.Connect(ctx, db.OptionsFromConfig(cfg))
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	defer gw.Close()
	gw.SetRetryHook(func(int, error) { m.StorageRetries.Inc() })
	if err := gw.Migrate(ctx); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	m.StorageUp.Set(1)

	// Setup Redis client when configured; listings are served uncached otherwise
	var cache service.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		defer redisClient.Close()
		// Test Redis connection
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		cache = utils.NewCache(redisClient, cfg.CacheTTL)
	} else {
		logrus.Warn("REDIS_ADDR not set, listing cache disabled")
	}

	sweeper := service.NewSweeper(gw, cache, m, cfg.RequestExpiry, cfg.SweepInterval)
	services := api.Services{
		Requests: service.NewRequestService(gw, cache, m),
		Votes:    service.NewVoteService(gw, cache, m),
		Queries:  service.NewQueryService(gw, cache),
		Users:    service.NewUserService(gw, cache),
		Sweeper:  sweeper,
		Health:   gw,
		Metrics:  m.Handler(),
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := api.NewRouter(services, api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		DevUserID:      cfg.DevUserID,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	// Background loops stop with ctx
	go sweeper.Run(ctx)
	go gw.WatchHealth(ctx, cfg.DBHealthInterval, func(up bool) {
		if up {
			m.StorageUp.Set(1)
		} else {
			m.StorageUp.Set(0)
		}
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.AppPort, "driver": gw.Driver()}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
