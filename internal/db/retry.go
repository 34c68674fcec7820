package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"student_rideshare/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// RetryPolicy retries transient storage failures with exponential backoff.
// The first retry waits Delay, every following one doubles it.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	OnRetry  func(attempt int, err error) // optional hook, called before each wait
}

// DefaultRetryPolicy is three attempts spaced 1s then 2s apart
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempts run out. Exhausted retries are reported as domain.ErrStorageUnavailable.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt >= attempts {
			break
		}

		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"of":      attempts,
			"backoff": delay.String(),
			"error":   err.Error(),
		}).Warn("Storage operation failed, retrying")
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	logrus.WithFields(logrus.Fields{
		"attempts": attempts,
		"error":    err.Error(),
	}).Error("Storage operation failed after retries")
	return fmt.Errorf("%w after %d attempts: %w", domain.ErrStorageUnavailable, attempts, err)
}

// MySQL server error numbers worth retrying
var mysqlTransient = map[uint16]bool{
	1040: true, // too many connections
	1205: true, // lock wait timeout
	1213: true, // deadlock
}

// IsTransient reports whether err is an infrastructure failure that may
// succeed when tried again.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlTransient[myErr.Number]
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "53300", "57P01", "08000", "08003", "08006":
			return true
		}
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
