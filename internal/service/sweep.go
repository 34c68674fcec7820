package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"student_rideshare/internal/domain"
	"student_rideshare/internal/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sweeper moves stale active requests to expired and catches up full
// requests that are still active.
type Sweeper struct {
	store    Store
	cache    Cache
	metrics  *metrics.Metrics
	expiry   time.Duration // Age after which an active request expires
	interval time.Duration // Pause between passes in Run
}

func NewSweeper(store Store, cache Cache, m *metrics.Metrics, expiry, interval time.Duration) *Sweeper {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, cache: cache, metrics: m, expiry: expiry, interval: interval}
}

// SweepResult counts the requests moved by one pass
type SweepResult struct {
	Expired   int64 `json:"expired"`
	Completed int64 `json:"completed"`
}

// staleScope selects active requests whose date is before now's calendar
// day or that were created more than the expiry window ago.
func (s *Sweeper) staleScope(now time.Time) func(*gorm.DB) *gorm.DB {
	today := now.Format(domain.DateLayout)
	cutoff := now.Add(-s.expiry).UTC()
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND (date < ? OR created_at < ?)", domain.RequestActive, today, cutoff)
	}
}

func fullScope(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND current_occupancy >= max_persons", domain.RequestActive)
}

// Sweep runs both bulk transitions. Each one commits on its own; a failure
// in the first does not stop the second, and both errors are returned.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	start := time.Now()
	defer func() { s.metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	var result SweepResult
	var errs []error

	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&domain.Request{}).Scopes(s.staleScope(now)).Update("status", domain.RequestExpired)
		result.Expired = res.RowsAffected
		return res.Error
	})
	if err != nil {
		result.Expired = 0
		errs = append(errs, fmt.Errorf("expire stale requests: %w", err))
	}

	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&domain.Request{}).Scopes(fullScope).Update("status", domain.RequestCompleted)
		result.Completed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		result.Completed = 0
		errs = append(errs, fmt.Errorf("complete full requests: %w", err))
	}

	s.metrics.SweepTransitions.WithLabelValues(string(domain.RequestExpired)).Add(float64(result.Expired))
	s.metrics.SweepTransitions.WithLabelValues(string(domain.RequestCompleted)).Add(float64(result.Completed))
	if result.Expired > 0 || result.Completed > 0 {
		invalidateListings(ctx, s.cache)
	}

	fields := logrus.Fields{"expired": result.Expired, "completed": result.Completed}
	if err := errors.Join(errs...); err != nil {
		s.metrics.SweepErrors.Inc()
		logrus.WithFields(fields).WithError(err).Error("Request sweep failed")
		return result, err
	}
	logrus.WithFields(fields).Info("Request sweep finished")
	return result, nil
}

// Preview counts what Sweep would move at now without writing anything
func (s *Sweeper) Preview(ctx context.Context, now time.Time) (SweepResult, error) {
	today := now.Format(domain.DateLayout)
	cutoff := now.Add(-s.expiry).UTC()

	var result SweepResult
	err := s.store.View(ctx, func(db *gorm.DB) error {
		if err := db.Model(&domain.Request{}).Scopes(s.staleScope(now)).Count(&result.Expired).Error; err != nil {
			return err
		}
		// Requests about to expire are not also counted as completions.
		return db.Model(&domain.Request{}).Scopes(fullScope).
			Where("NOT (date < ? OR created_at < ?)", today, cutoff).
			Count(&result.Completed).Error
	})
	return result, err
}

// Run sweeps once immediately and then every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{"interval": s.interval, "expiry": s.expiry}).Info("Request sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		// Errors are logged and counted by Sweep; the next tick tries again.
		_, _ = s.Sweep(ctx, time.Now())
		select {
		case <-ctx.Done():
			logrus.Info("Request sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Stats counts requests per status
func (s *Sweeper) Stats(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	var rows []struct {
		Status domain.RequestStatus
		Count  int64
	}
	err := s.store.View(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.Request{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	stats := map[domain.RequestStatus]int64{
		domain.RequestActive:    0,
		domain.RequestCompleted: 0,
		domain.RequestCancelled: 0,
		domain.RequestExpired:   0,
	}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}
