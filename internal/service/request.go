package service

import (
	"context"
	"errors"
	"strings"

	"student_rideshare/internal/domain"
	"student_rideshare/internal/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RequestService creates, updates and cancels ride requests
type RequestService struct {
	store   Store
	cache   Cache
	metrics *metrics.Metrics
}

func NewRequestService(store Store, cache Cache, m *metrics.Metrics) *RequestService {
	return &RequestService{store: store, cache: cache, metrics: m}
}

// CreateRequestInput is a new ride offer as submitted by its owner
type CreateRequestInput struct {
	From       string `json:"from" binding:"required"`
	To         string `json:"to" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Time       string `json:"time" binding:"required"`
	CarType    string `json:"carType" binding:"required"`
	MaxPersons int    `json:"maxPersons" binding:"required"`
}

// UpdateRequestInput carries the fields an owner may change. Nil means unchanged.
type UpdateRequestInput struct {
	From       *string `json:"from"`
	To         *string `json:"to"`
	Date       *string `json:"date"`
	Time       *string `json:"time"`
	CarType    *string `json:"carType"`
	MaxPersons *int    `json:"maxPersons"`
	Status     *string `json:"status"`
}

// Create stores a new active request with the owner occupying the first
// seat. A single-seat request is full from the start and is stored completed.
func (s *RequestService) Create(ctx context.Context, ownerID string, in CreateRequestInput) (*domain.Request, error) {
	from, to := strings.TrimSpace(in.From), strings.TrimSpace(in.To)
	if from == "" || to == "" {
		return nil, domain.Validation("From and to locations are required")
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	clock, err := parseClock(in.Time)
	if err != nil {
		return nil, err
	}
	carType, ok := domain.ParseCarType(in.CarType)
	if !ok {
		return nil, domain.Validation("Car type must be one of Auto, Sedan, SUV, Traveller or Any")
	}
	if in.MaxPersons < 1 {
		return nil, domain.Validation("Max persons must be at least 1")
	}

	req := domain.Request{
		UserID:           ownerID,
		From:             from,
		To:               to,
		Date:             date,
		Time:             clock,
		CarType:          carType,
		MaxPersons:       in.MaxPersons,
		CurrentOccupancy: 1,
		Status:           domain.RequestActive,
	}
	if req.IsFull() {
		req.Status = domain.RequestCompleted
	}

	err = s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var owner domain.User
		if err := tx.Select("id").First(&owner, "id = ?", ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("User not found")
			}
			return err
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		return tx.Preload("User", contactColumns).First(&req, "id = ?", req.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestsCreated.Inc()
	invalidateListings(ctx, s.cache)
	logrus.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"user_id":     ownerID,
		"from":        req.From,
		"to":          req.To,
		"date":        req.Date,
		"max_persons": req.MaxPersons,
	}).Info("Ride request created")
	return &req, nil
}

// Cancel marks the owner's request cancelled. Cancelling twice is a no-op;
// completed and expired requests cannot be cancelled. Accepted voters keep
// their votes and are not notified.
func (s *RequestService) Cancel(ctx context.Context, requestID, userID string) (*domain.Request, error) {
	var req *domain.Request
	var changed bool
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		req, err = lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != userID {
			return domain.Forbidden("You do not have permission to cancel this request")
		}
		changed, err = cancelLocked(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.RequestsCancelled.Inc()
		invalidateListings(ctx, s.cache)
		logrus.WithFields(logrus.Fields{"request_id": requestID, "user_id": userID}).Info("Ride request cancelled")
	}
	return req, nil
}

// cancelLocked cancels a request whose row the caller has locked
func cancelLocked(tx *gorm.DB, req *domain.Request) (bool, error) {
	switch req.Status {
	case domain.RequestCancelled:
		return false, nil
	case domain.RequestCompleted:
		return false, domain.InvalidState("Cannot cancel a completed request")
	case domain.RequestExpired:
		return false, domain.InvalidState("Cannot cancel an expired request")
	}

	res := tx.Model(&domain.Request{}).
		Where("id = ? AND status = ?", req.ID, domain.RequestActive).
		Update("status", domain.RequestCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, domain.InvalidState("Request is no longer active")
	}
	req.Status = domain.RequestCancelled
	return true, nil
}

// Update applies the owner's changes to an active request. Status may only
// be set to cancelled: completion and expiry are never set by hand.
// Shrinking maxPersons below the current occupancy is refused; shrinking it
// to exactly the occupancy completes the request.
func (s *RequestService) Update(ctx context.Context, requestID, ownerID string, in UpdateRequestInput) (*domain.Request, error) {
	updates := map[string]any{}
	if in.From != nil {
		if strings.TrimSpace(*in.From) == "" {
			return nil, domain.Validation("From location cannot be empty")
		}
		updates["from_location"] = strings.TrimSpace(*in.From)
	}
	if in.To != nil {
		if strings.TrimSpace(*in.To) == "" {
			return nil, domain.Validation("To location cannot be empty")
		}
		updates["to_location"] = strings.TrimSpace(*in.To)
	}
	if in.Date != nil {
		date, err := parseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		updates["date"] = date
	}
	if in.Time != nil {
		clock, err := parseClock(*in.Time)
		if err != nil {
			return nil, err
		}
		updates["time"] = clock
	}
	if in.CarType != nil {
		carType, ok := domain.ParseCarType(*in.CarType)
		if !ok {
			return nil, domain.Validation("Car type must be one of Auto, Sedan, SUV, Traveller or Any")
		}
		updates["car_type"] = carType
	}
	if in.MaxPersons != nil {
		if *in.MaxPersons < 1 {
			return nil, domain.Validation("Max persons must be at least 1")
		}
		updates["max_persons"] = *in.MaxPersons
	}
	cancel := false
	if in.Status != nil {
		if domain.RequestStatus(*in.Status) != domain.RequestCancelled {
			return nil, domain.InvalidOperation("Status can only be changed to cancelled")
		}
		if len(updates) > 0 {
			return nil, domain.InvalidOperation("Cancel a request without changing its other fields")
		}
		cancel = true
	}

	var req *domain.Request
	var completed, cancelled bool
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		req, err = lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if req.UserID != ownerID {
			return domain.Forbidden("You do not have permission to update this request")
		}
		if cancel {
			if cancelled, err = cancelLocked(tx, req); err != nil {
				return err
			}
		} else {
			if req.Status != domain.RequestActive {
				return domain.InvalidState("Only active requests can be updated")
			}
			if in.MaxPersons != nil && *in.MaxPersons < req.CurrentOccupancy {
				return domain.Conflict("Max persons cannot be lower than the current occupancy")
			}
			if len(updates) > 0 {
				err := tx.Model(&domain.Request{}).
					Where("id = ? AND status = ?", req.ID, domain.RequestActive).
					Updates(updates).Error
				if err != nil {
					return err
				}
				if completed, err = completeIfFull(tx, req.ID); err != nil {
					return err
				}
			}
		}
		return tx.Preload("User", contactColumns).Preload("Votes").First(req, "id = ?", req.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.metrics.Completions.Inc()
	}
	if cancelled {
		s.metrics.RequestsCancelled.Inc()
	}
	invalidateListings(ctx, s.cache)
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    ownerID,
		"fields":     len(updates),
		"status":     req.Status,
	}).Info("Ride request updated")
	return req, nil
}
