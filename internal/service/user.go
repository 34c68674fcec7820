package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"student_rideshare/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// profileGrace is how long a new account may stay without year, course or gender
const profileGrace = 7 * 24 * time.Hour

// UserService manages profiles and account removal
type UserService struct {
	store Store
	cache Cache
	now   func() time.Time
}

func NewUserService(store Store, cache Cache) *UserService {
	return &UserService{store: store, cache: cache, now: time.Now}
}

// ProfileInput carries profile changes. Nil means unchanged.
type ProfileInput struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Year         *int    `json:"year"`
	Course       *string `json:"course"`
	Gender       *string `json:"gender"`
	ProfileImage *string `json:"profileImage"`
}

// UserStats summarizes a user's activity
type UserStats struct {
	Requests struct {
		Total     int64 `json:"total"`
		Active    int64 `json:"active"`
		Completed int64 `json:"completed"`
	} `json:"requests"`
	Votes struct {
		Total    int64 `json:"total"`
		Accepted int64 `json:"accepted"`
		Rejected int64 `json:"rejected"`
	} `json:"votes"`
}

// Get loads a user by id
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.store.View(ctx, func(db *gorm.DB) error {
		return findUser(db, userID, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func findUser(db *gorm.DB, id string, user *domain.User) error {
	err := db.First(user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("User not found")
	}
	return err
}

// RequireAdmin fails with Forbidden unless userID belongs to an admin
func (s *UserService) RequireAdmin(ctx context.Context, userID string) error {
	user, err := s.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Forbidden("Admin access required")
	}
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return domain.Forbidden("Admin access required")
	}
	return nil
}

// UpdateProfile applies in to the user's profile
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validation("Name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Year != nil {
		if *in.Year < 1 || *in.Year > 10 {
			return nil, domain.Validation("Year must be between 1 and 10")
		}
		updates["year"] = *in.Year
	}
	if in.Course != nil {
		updates["course"] = strings.TrimSpace(*in.Course)
	}
	if in.Gender != nil {
		updates["gender"] = strings.TrimSpace(*in.Gender)
	}
	if in.ProfileImage != nil {
		updates["profile_image"] = *in.ProfileImage
	}

	var user domain.User
	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := findUser(tx, userID, &user); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		// Listings embed owner contact details.
		invalidateListings(ctx, s.cache)
		logrus.WithFields(logrus.Fields{"user_id": userID, "fields": len(updates)}).Info("Profile updated")
	}
	return &user, nil
}

// Stats counts the user's requests and votes
func (s *UserService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	var stats UserStats
	err := s.store.View(ctx, func(db *gorm.DB) error {
		var user domain.User
		if err := findUser(db.Select("id"), userID, &user); err != nil {
			return err
		}
		reqs := func() *gorm.DB { return db.Model(&domain.Request{}).Where("user_id = ?", userID) }
		votes := func() *gorm.DB { return db.Model(&domain.Vote{}).Where("user_id = ?", userID) }
		for _, c := range []struct {
			q   *gorm.DB
			dst *int64
		}{
			{reqs(), &stats.Requests.Total},
			{reqs().Where("status = ?", domain.RequestActive), &stats.Requests.Active},
			{reqs().Where("status = ?", domain.RequestCompleted), &stats.Requests.Completed},
			{votes(), &stats.Votes.Total},
			{votes().Where("status = ?", domain.VoteAccepted), &stats.Votes.Accepted},
			{votes().Where("status = ?", domain.VoteRejected), &stats.Votes.Rejected},
		} {
			if err := c.q.Count(c.dst).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Delete removes targetID on behalf of adminID. A user still committed to a
// ride cannot be removed: owning an active request or holding an accepted
// vote on an active request is a Conflict. Otherwise the user's
// votes, requests and the votes on those requests go with the account.
func (s *UserService) Delete(ctx context.Context, adminID, targetID string) error {
	if err := s.RequireAdmin(ctx, adminID); err != nil {
		return err
	}
	if adminID == targetID {
		return domain.InvalidOperation("You cannot delete your own account")
	}

	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		var target domain.User
		if err := findUser(tx, targetID, &target); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&domain.Request{}).
			Where("user_id = ? AND status = ?", targetID, domain.RequestActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return domain.Conflict("User still owns active ride requests")
		}

		var committed int64
		if err := tx.Model(&domain.Vote{}).
			Joins("JOIN requests ON requests.id = votes.request_id").
			Where("votes.user_id = ? AND votes.status = ?", targetID, domain.VoteAccepted).
			Where("requests.status = ?", domain.RequestActive).
			Count(&committed).Error; err != nil {
			return err
		}
		if committed > 0 {
			return domain.Conflict("User holds accepted seats on open rides")
		}

		// Release the seats the user still holds on finished rides, as a
		// withdrawal would. Completed rides stay completed.
		seats := tx.Model(&domain.Vote{}).Select("request_id").
			Where("user_id = ? AND status = ?", targetID, domain.VoteAccepted)
		if err := tx.Model(&domain.Request{}).
			Where("id IN (?) AND current_occupancy > 1", seats).
			Update("current_occupancy", gorm.Expr("current_occupancy - 1")).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", targetID).Delete(&domain.Vote{}).Error; err != nil {
			return err
		}
		owned := tx.Model(&domain.Request{}).Select("id").Where("user_id = ?", targetID)
		if err := tx.Where("request_id IN (?)", owned).Delete(&domain.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&domain.Request{}).Error; err != nil {
			return err
		}
		return tx.Delete(&target).Error
	})
	if err != nil {
		return err
	}

	invalidateListings(ctx, s.cache)
	logrus.WithFields(logrus.Fields{"user_id": targetID, "admin_id": adminID}).Warn("User deleted")
	return nil
}

// IncompleteProfiles lists accounts older than a week that still lack year,
// course or gender.
func (s *UserService) IncompleteProfiles(ctx context.Context) ([]domain.User, error) {
	cutoff := s.now().Add(-profileGrace).UTC()
	var users []domain.User
	err := s.store.View(ctx, func(db *gorm.DB) error {
		return db.Where("created_at < ?", cutoff).
			Where("year IS NULL OR course IS NULL OR course = '' OR gender IS NULL OR gender = ''").
			Order("created_at ASC").
			Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
