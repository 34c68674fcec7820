// Package service holds the ride request state machine: the request
// lifecycle, the vote engine, the expiry sweeper and the read side.
//
// Occupancy and status of a request are only written here, always inside a
// transaction that first locks the request row, and always through updates
// guarded on status = 'active'.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"student_rideshare/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the storage gateway the services run against
type Store interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	View(ctx context.Context, fn func(db *gorm.DB) error) error
}

// Cache holds listing pages. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Generation(ctx context.Context, scope string) (int64, error)
	Bump(ctx context.Context, scope string) error
}

// requestsScope is the cache generation shared by every request listing
const requestsScope = "requests"

// invalidateListings drops every cached listing page. Failures only cost freshness.
func invalidateListings(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	if err := cache.Bump(ctx, requestsScope); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate request listings cache")
	}
}

// lockRequest loads a request and locks its row until the transaction ends.
// SQLite ignores the locking clause; its single connection already serializes.
func lockRequest(tx *gorm.DB, id string) (*domain.Request, error) {
	var req domain.Request
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("Request not found")
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// completeIfFull flips an active request to completed once it has no seat
// left. The transition is one-way: nothing moves a request back to active.
func completeIfFull(tx *gorm.DB, id string) (bool, error) {
	res := tx.Model(&domain.Request{}).
		Where("id = ? AND status = ? AND current_occupancy >= max_persons", id, domain.RequestActive).
		Update("status", domain.RequestCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// contactColumns limits preloaded users to what the other party may see
func contactColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "phone")
}

// errorKind labels an error for metrics
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage_unavailable"
	}
	return "internal"
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date in YYYY-MM-DD form.
func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(domain.DateLayout, s); err == nil {
		return d.Format(domain.DateLayout), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.Format(domain.DateLayout), nil
	}
	return "", domain.Validation("Date must be a valid calendar date (YYYY-MM-DD)")
}

var timeLayouts = []string{domain.TimeLayout, "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// parseClock normalizes a wall-clock time to HH:MM
func parseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.TimeLayout), nil
		}
	}
	return "", domain.Validation("Time must be a valid time of day (HH:MM)")
}
