package db

import (
	"context"
	"fmt"
	"time"

	"student_rideshare/internal/config"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options configure a Gateway
type Options struct {
	Driver string // mysql, postgres or sqlite
	DSN    string
	Retry  RetryPolicy
	Debug  bool // log every SQL statement
}

// OptionsFromConfig builds gateway options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver: cfg.DBDriver,
		DSN:    DSN(cfg),
		Retry:  RetryPolicy{Attempts: cfg.DBRetryAttempts, Delay: cfg.DBRetryDelay},
		Debug:  !cfg.IsProd && cfg.LogLevel == "debug",
	}
}

// DSN returns the data source name for the configured driver.
// DB_DSN, when set, wins over the individual fields.
func DSN(cfg *config.Config) string {
	if cfg.DBDSN != "" {
		return cfg.DBDSN
	}
	switch cfg.DBDriver {
	case "postgres":
		port := cfg.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, port, cfg.DBSSLMode)
	case "sqlite":
		return "rideshare.db"
	default:
		port := cfg.DBPort
		if port == "" {
			port = "3306"
		}
		return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + port + ")/" + cfg.DBName + "?parseTime=true&loc=UTC"
	}
}

func dialector(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "mysql", "":
		return mysql.Open(opts.DSN), nil
	case "postgres":
		return postgres.Open(opts.DSN), nil
	case "sqlite":
		return sqlite.Open(opts.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
}

// Gateway is the storage client shared by the services. It owns the
// connection pool and runs every operation through the retry policy.
type Gateway struct {
	db    *gorm.DB
	opts  Options
	retry RetryPolicy
}

// Connect opens the database, retrying transient connection failures
func Connect(ctx context.Context, opts Options) (*Gateway, error) {
	dial, err := dialector(opts)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		TranslateError: true, // map unique violations to gorm.ErrDuplicatedKey
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	if opts.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var conn *gorm.DB
	err = opts.Retry.Do(ctx, func() error {
		var openErr error
		conn, openErr = gorm.Open(dial, gormCfg)
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", opts.Driver, err)
	}

	if opts.Driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps transactions
		// serialized and an in-memory database alive.
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	logrus.WithFields(logrus.Fields{"driver": opts.Driver}).Info("Database connected")
	return &Gateway{db: conn, opts: opts, retry: opts.Retry}, nil
}

// SetRetryHook registers a callback invoked before every retry
func (g *Gateway) SetRetryHook(hook func(attempt int, err error)) {
	g.retry.OnRetry = hook
}

// Driver returns the configured driver name
func (g *Gateway) Driver() string {
	return g.opts.Driver
}

// Transaction runs fn inside a database transaction. The whole transaction
// is retried on transient failures; errors returned by fn roll it back.
func (g *Gateway) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.retry.Do(ctx, func() error {
		return g.db.WithContext(ctx).Transaction(fn)
	})
}

// View runs a read-only fn outside of a transaction
func (g *Gateway) View(ctx context.Context, fn func(db *gorm.DB) error) error {
	return g.retry.Do(ctx, func() error {
		return fn(g.db.WithContext(ctx))
	})
}

// HealthCheck pings the database
func (g *Gateway) HealthCheck(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

const defaultHealthInterval = 30 * time.Second

// WatchHealth pings the database every interval until ctx is done and logs
// when the connection is lost or restored. report receives every result.
func (g *Gateway) WatchHealth(ctx context.Context, interval time.Duration, report func(up bool)) {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	up := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval/2)
			err := g.HealthCheck(pingCtx)
			cancel()

			switch {
			case err != nil && up:
				logrus.WithError(err).Error("Database connection lost")
			case err == nil && !up:
				logrus.Info("Database connection restored")
			}
			up = err == nil
			if report != nil {
				report(up)
			}
		}
	}
}

// Close releases the connection pool
func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	logrus.Info("Database disconnected")
	return nil
}
