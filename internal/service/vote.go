package service

import (
	"context"
	"errors"

	"student_rideshare/internal/domain"
	"student_rideshare/internal/metrics"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VoteService is the vote engine: it applies, changes and withdraws votes
// and keeps each request's occupancy in step with its accepted votes.
type VoteService struct {
	store   Store
	cache   Cache
	metrics *metrics.Metrics
}

func NewVoteService(store Store, cache Cache, m *metrics.Metrics) *VoteService {
	return &VoteService{store: store, cache: cache, metrics: m}
}

// VoteResult is the outcome of a cast. Contacts are only filled in when the
// vote ends up accepted.
type VoteResult struct {
	Vote                *domain.Vote    `json:"vote"`
	Request             *domain.Request `json:"request"`
	RequestOwnerContact *domain.Contact `json:"requestOwnerContact,omitempty"`
	VoterContact        *domain.Contact `json:"voterContact,omitempty"`
}

// CastVote records voterID's answer to a request, creating the vote or
// updating the existing one. Accepting takes a seat, moving away from
// accepted frees it, and a request whose last seat is taken is completed.
func (s *VoteService) CastVote(ctx context.Context, requestID, voterID string, status domain.VoteStatus, note *string) (*VoteResult, error) {
	result, delta, completed, err := s.castVote(ctx, requestID, voterID, status, note)
	if err != nil {
		s.metrics.VoteRejections.WithLabelValues(errorKind(err)).Inc()
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"voter_id":   voterID,
			"status":     status,
		}).WithError(err).Debug("Vote refused")
		return nil, err
	}

	s.metrics.VotesTotal.WithLabelValues(string(status)).Inc()
	if completed {
		s.metrics.Completions.Inc()
	}
	invalidateListings(ctx, s.cache)
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"voter_id":   voterID,
		"status":     status,
		"delta":      delta,
		"occupancy":  result.Request.CurrentOccupancy,
		"completed":  completed,
	}).Info("Vote cast")
	return result, nil
}

func (s *VoteService) castVote(ctx context.Context, requestID, voterID string, status domain.VoteStatus, note *string) (*VoteResult, int, bool, error) {
	var (
		result    VoteResult
		delta     int
		completed bool
	)
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		req, err := lockRequest(tx, requestID)
		if err != nil {
			return err
		}
		if !status.Valid() {
			return domain.Validation("Status must be accepted or rejected")
		}

		var existing domain.Vote
		found := true
		if err := tx.First(&existing, "request_id = ? AND user_id = ?", requestID, voterID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}
		var from domain.VoteStatus
		if found {
			from = existing.Status
		}
		delta = domain.OccupancyDelta(from, status)

		switch {
		case req.Status == domain.RequestCompleted && delta > 0 && req.UserID != voterID:
			return domain.Conflict("Request is already full")
		case req.Status != domain.RequestActive:
			return domain.InvalidState("Cannot vote on inactive request")
		case req.UserID == voterID:
			return domain.InvalidOperation("Cannot vote on your own request")
		case delta > 0 && req.IsFull():
			return domain.Conflict("Request is already full")
		}

		var voter domain.User
		if err := tx.Select("id").First(&voter, "id = ?", voterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("User not found")
			}
			return err
		}

		if found {
			err = tx.Model(&existing).Updates(map[string]any{"status": status, "note": note}).Error
		} else {
			existing = domain.Vote{RequestID: requestID, UserID: voterID, Status: status, Note: note}
			err = tx.Create(&existing).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.Conflict("You have already voted on this request")
			}
		}
		if err != nil {
			return err
		}

		if err := adjustOccupancy(tx, req.ID, delta); err != nil {
			return err
		}
		if completed, err = completeIfFull(tx, req.ID); err != nil {
			return err
		}

		if err := tx.Preload("User", contactColumns).First(req, "id = ?", req.ID).Error; err != nil {
			return err
		}
		if err := tx.Preload("User", contactColumns).First(&existing, "id = ?", existing.ID).Error; err != nil {
			return err
		}
		result.Request = req
		result.Vote = &existing
		return nil
	})
	if err != nil {
		return nil, 0, false, err
	}

	if result.Vote.Status == domain.VoteAccepted {
		if result.Request.User != nil {
			owner := result.Request.User.Contact()
			result.RequestOwnerContact = &owner
		}
		if result.Vote.User != nil {
			voter := result.Vote.User.Contact()
			result.VoterContact = &voter
		}
	}
	return &result, delta, completed, nil
}

// adjustOccupancy moves current_occupancy by delta under guards that keep it
// within 1..max_persons on an active request. A zero delta writes nothing.
func adjustOccupancy(tx *gorm.DB, requestID string, delta int) error {
	q := tx.Model(&domain.Request{}).Where("id = ? AND status = ?", requestID, domain.RequestActive)
	switch {
	case delta > 0:
		q = q.Where("current_occupancy < max_persons").Update("current_occupancy", gorm.Expr("current_occupancy + 1"))
	case delta < 0:
		q = q.Where("current_occupancy > 1").Update("current_occupancy", gorm.Expr("current_occupancy - 1"))
	default:
		return nil
	}
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected > 0 {
		return nil
	}

	var req domain.Request
	if err := tx.Select("status").First(&req, "id = ?", requestID).Error; err != nil {
		return err
	}
	if req.Status != domain.RequestActive {
		return domain.InvalidState("Request is no longer active")
	}
	return domain.Conflict("Request occupancy is out of range")
}

// WithdrawVote deletes voterID's vote. An accepted vote gives its seat back
// whatever the request status. A completed request stays completed even
// when the withdrawal leaves it below capacity.
func (s *VoteService) WithdrawVote(ctx context.Context, requestID, voterID string) error {
	var withdrawn domain.Vote
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		req, err := lockRequest(tx, requestID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Vote not found")
			}
			return err
		}
		if err := tx.First(&withdrawn, "request_id = ? AND user_id = ?", requestID, voterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("Vote not found")
			}
			return err
		}
		accepted := withdrawn.Status == domain.VoteAccepted

		if err := tx.Delete(&withdrawn).Error; err != nil {
			return err
		}
		if !accepted {
			return nil
		}
		// Status is left alone: completion is never undone.
		res := tx.Model(&domain.Request{}).
			Where("id = ? AND current_occupancy > 1", req.ID).
			Update("current_occupancy", gorm.Expr("current_occupancy - 1"))
		return res.Error
	})
	if err != nil {
		s.metrics.VoteRejections.WithLabelValues(errorKind(err)).Inc()
		return err
	}

	s.metrics.Withdrawals.Inc()
	invalidateListings(ctx, s.cache)
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"voter_id":   voterID,
		"status":     withdrawn.Status,
	}).Info("Vote withdrawn")
	return nil
}

// RequestVotes lists the votes on a request with each voter's contact
// details. Only the request owner may see them.
func (s *VoteService) RequestVotes(ctx context.Context, requestID, userID string) ([]domain.Vote, error) {
	var votes []domain.Vote
	err := s.store.View(ctx, func(db *gorm.DB) error {
		var req domain.Request
		if err := db.Select("id", "user_id").First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound("Request not found")
			}
			return err
		}
		if req.UserID != userID {
			return domain.Forbidden("You do not have permission to view votes for this request")
		}
		return db.Preload("User", contactColumns).
			Where("request_id = ?", requestID).
			Order("created_at DESC").
			Find(&votes).Error
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// MyVotes lists the caller's votes, newest first, each with its request and
// the request owner. status filters by vote status when not empty.
func (s *VoteService) MyVotes(ctx context.Context, userID string, status domain.VoteStatus) ([]domain.Vote, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Validation("Status must be accepted or rejected")
	}
	var votes []domain.Vote
	err := s.store.View(ctx, func(db *gorm.DB) error {
		q := db.Preload("Request").Preload("Request.User", contactColumns).Where("user_id = ?", userID)
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q.Order("created_at DESC").Find(&votes).Error
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}
