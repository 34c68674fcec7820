package main

import (
	"context" // Sweep context
	"fmt"     // Result output
	"time"    // Expiry window

	"student_rideshare/internal/config"  // Configuration
	"student_rideshare/internal/db"      // Storage gateway
	"student_rideshare/internal/logger"  // Logging setup
	"student_rideshare/internal/metrics" // Collectors required by the sweeper
	"student_rideshare/internal/service" // Sweeper
	"student_rideshare/internal/utils"   // Redis cache

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"github.com/spf13/pflag"       // Command line flags
)

// One-shot sweep for external schedulers
func main() {
	cfg := config.LoadConfig()
	expiryHours := pflag.Int("expiry-hours", int(cfg.RequestExpiry/time.Hour), "age in hours after which an active request expires")
	dryRun := pflag.Bool("dry-run", false, "only count the requests that would change")
	pflag.Parse()

	logger.Setup(cfg.LogLevel, cfg.LogFile)
	ctx := context.Background()

	gw, err := db.Connect(ctx, db.OptionsFromConfig(cfg))
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	defer gw.Close()

	// Invalidate cached listings when Redis is configured
	var cache service.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		defer rdb.Close()
		cache = utils.NewCache(rdb, cfg.CacheTTL)
	}

	sweeper := service.NewSweeper(gw, cache, metrics.New(), time.Duration(*expiryHours)*time.Hour, cfg.SweepInterval)
	now := time.Now()

	if *dryRun {
		res, err := sweeper.Preview(ctx, now)
		if err != nil {
			logrus.Fatalf("preview failed: %v", err)
		}
		fmt.Printf("would expire %d and complete %d requests\n", res.Expired, res.Completed)
		return
	}

	res, err := sweeper.Sweep(ctx, now)
	if err != nil {
		logrus.Fatalf("sweep failed: %v", err)
	}
	fmt.Printf("expired %d and completed %d requests\n", res.Expired, res.Completed)
}
