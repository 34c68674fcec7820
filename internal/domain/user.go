package domain

import (
	"time"

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// Role of a user account
type Role string

const (
	RoleStudent Role = "student" // Regular student account
	RoleAdmin   Role = "admin"   // Administrator account
)

// User Model
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                 // Primary key (uuid)
	Name         string    `gorm:"not null" json:"name"`                                  // Display name
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`   // Unique email
	Phone        string    `json:"phone"`                                                 // Contact phone
	Year         *int      `json:"year,omitempty"`                                        // Academic year (1-10)
	Course       *string   `json:"course,omitempty"`                                      // Course of study
	Gender       *string   `json:"gender,omitempty"`                                      // Gender
	ProfileImage *string   `gorm:"type:text" json:"profileImage,omitempty"`               // Image stored as text
	Role         Role      `gorm:"type:varchar(16);not null;default:student" json:"role"` // Role: student or admin
	CreatedAt    time.Time `json:"createdAt"`                                             // Creation timestamp
	UpdatedAt    time.Time `json:"updatedAt"`                                             // Last update timestamp
}

// BeforeCreate assigns a UUID when none was provided
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Contact returns the details revealed to the other party once a vote is accepted
func (u *User) Contact() Contact {
	return Contact{Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// Contact is the subset of a user shared on a match
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
