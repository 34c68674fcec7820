package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteStatus is a rider's answer to a request
type VoteStatus string

const (
	VoteAccepted VoteStatus = "accepted"
	VoteRejected VoteStatus = "rejected"
)

// Valid reports whether s is accepted or rejected
func (s VoteStatus) Valid() bool {
	return s == VoteAccepted || s == VoteRejected
}

// Vote Model. One row per (request, voter); re-voting updates it.
type Vote struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RequestID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_request_user" json:"requestId"`
	UserID    string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_request_user;index" json:"userId"`
	Status    VoteStatus `gorm:"type:varchar(16);not null" json:"status"`
	Note      *string    `gorm:"type:text" json:"note"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"user,omitempty"`
	Request   *Request   `gorm:"foreignKey:RequestID" json:"request,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none was provided
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// OccupancyDelta is the seat change caused by moving a vote from one status to another.
// from is empty when no vote exists yet.
func OccupancyDelta(from, to VoteStatus) int {
	switch {
	case from != VoteAccepted && to == VoteAccepted:
		return 1
	case from == VoteAccepted && to != VoteAccepted:
		return -1
	}
	return 0
}
