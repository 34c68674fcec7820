package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"student_rideshare/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// QueryService is the read side over ride requests
type QueryService struct {
	store Store
	cache Cache
	now   func() time.Time
}

func NewQueryService(store Store, cache Cache) *QueryService {
	return &QueryService{store: store, cache: cache, now: time.Now}
}

// SetClock replaces the clock used to decide what "today" is
func (s *QueryService) SetClock(now func() time.Time) {
	s.now = now
}

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits in the full result
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// RequestPage is one page of requests
type RequestPage struct {
	Requests   []domain.Request `json:"requests"`
	Pagination Pagination       `json:"pagination"`
	Cached     bool             `json:"cached"`
}

// SearchCriteria filters a search. Empty fields do not filter.
type SearchCriteria struct {
	From       string
	To         string
	Date       string
	CarType    string
	MinPersons int
}

// likeEscaper escapes LIKE wildcards with '!', which reads the same on
// MySQL, Postgres and SQLite where a backslash does not.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a case-insensitive substring pattern for s
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// orderRequests sorts by departure, newest-created first on ties
func orderRequests(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC").Order("time ASC").Order("created_at DESC")
}

// Search returns open requests of other users matching c. Requests owned by
// userID and full requests are never returned, whatever their status says.
// Each result carries the caller's own vote, if any, in Votes.
func (s *QueryService) Search(ctx context.Context, userID string, c SearchCriteria, p Page) (*RequestPage, error) {
	p = p.normalize()

	var date string
	if strings.TrimSpace(c.Date) != "" {
		d, err := parseDate(c.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}
	var carType domain.CarType
	if ct := strings.TrimSpace(c.CarType); ct != "" && !strings.EqualFold(ct, string(domain.CarAny)) {
		parsed, ok := domain.ParseCarType(ct)
		if !ok {
			return nil, domain.Validation("Car type must be one of Auto, Sedan, SUV, Traveller or Any")
		}
		carType = parsed
	}
	if c.MinPersons < 0 {
		return nil, domain.Validation("Minimum persons cannot be negative")
	}

	key := fmt.Sprintf("search:%s:%s:%s:%s:%s:%d:%d:%d",
		userID, strings.ToLower(strings.TrimSpace(c.From)), strings.ToLower(strings.TrimSpace(c.To)),
		date, carType, c.MinPersons, p.Page, p.Limit)

	return s.cachedPage(ctx, key, p, func(db *gorm.DB) *gorm.DB {
		q := db.Model(&domain.Request{}).
			Where("status = ?", domain.RequestActive).
			Where("user_id <> ?", userID).
			Where("current_occupancy < max_persons")
		if from := strings.TrimSpace(c.From); from != "" {
			q = q.Where("LOWER(from_location) LIKE ? ESCAPE '!'", containsPattern(from))
		}
		if to := strings.TrimSpace(c.To); to != "" {
			q = q.Where("LOWER(to_location) LIKE ? ESCAPE '!'", containsPattern(to))
		}
		if date != "" {
			q = q.Where("date = ?", date)
		}
		if carType != "" {
			q = q.Where("car_type = ?", carType)
		}
		if c.MinPersons > 0 {
			q = q.Where("max_persons >= ?", c.MinPersons)
		}
		return q
	}, func(db *gorm.DB) *gorm.DB {
		return db.Preload("User", contactColumns).Preload("Votes", "user_id = ?", userID)
	})
}

// All lists requests departing today or later in the given status, active
// when empty.
func (s *QueryService) All(ctx context.Context, status domain.RequestStatus, p Page) (*RequestPage, error) {
	p = p.normalize()
	if status == "" {
		status = domain.RequestActive
	}
	if !status.Valid() {
		return nil, domain.Validation("Unknown request status")
	}
	today := s.now().Format(domain.DateLayout)

	key := fmt.Sprintf("all:%s:%s:%d:%d", status, today, p.Page, p.Limit)
	return s.cachedPage(ctx, key, p, func(db *gorm.DB) *gorm.DB {
		return db.Model(&domain.Request{}).Where("status = ? AND date >= ?", status, today)
	}, func(db *gorm.DB) *gorm.DB {
		return db.Preload("User", contactColumns)
	})
}

// Mine lists the caller's own requests, newest first, with their votes and
// the voters' contact details.
func (s *QueryService) Mine(ctx context.Context, userID string, status domain.RequestStatus) ([]domain.Request, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Validation("Unknown request status")
	}
	var requests []domain.Request
	err := s.store.View(ctx, func(db *gorm.DB) error {
		q := db.Preload("Votes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).Preload("Votes.User", contactColumns).Where("user_id = ?", userID)
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q.Order("created_at DESC").Find(&requests).Error
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Get returns a request with its owner and votes
func (s *QueryService) Get(ctx context.Context, requestID string) (*domain.Request, error) {
	var req domain.Request
	err := s.store.View(ctx, func(db *gorm.DB) error {
		err := db.Preload("User", contactColumns).
			Preload("Votes").
			Preload("Votes.User", contactColumns).
			First(&req, "id = ?", requestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFound("Request not found")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// cachedPage serves a page from the cache when present, otherwise counts
// and loads it from filter and stores it. Cache failures fall through to
// the database.
func (s *QueryService) cachedPage(ctx context.Context, key string, p Page, filter, preload func(*gorm.DB) *gorm.DB) (*RequestPage, error) {
	if s.cache != nil {
		if gen, err := s.cache.Generation(ctx, requestsScope); err != nil {
			logrus.WithError(err).Warn("Failed to read listings cache generation")
			key = ""
		} else {
			key = fmt.Sprintf("%s:%d:%s", requestsScope, gen, key)
			var page RequestPage
			found, err := s.cache.Get(ctx, key, &page)
			if err != nil {
				logrus.WithError(err).WithField("key", key).Warn("Failed to read listings cache")
			} else if found {
				page.Cached = true
				return &page, nil
			}
		}
	}

	page := RequestPage{Requests: []domain.Request{}}
	err := s.store.View(ctx, func(db *gorm.DB) error {
		var total int64
		if err := filter(db).Count(&total).Error; err != nil {
			return err
		}
		page.Pagination = Pagination{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: (total + int64(p.Limit) - 1) / int64(p.Limit),
		}
		q := preload(filter(db))
		return orderRequests(q).Offset(p.offset()).Limit(p.Limit).Find(&page.Requests).Error
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && key != "" {
		if err := s.cache.Set(ctx, key, page); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to write listings cache")
		}
	}
	return &page, nil
}
