package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of a ride request
type RequestStatus string

const (
	RequestActive    RequestStatus = "active"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
	RequestExpired   RequestStatus = "expired"
)

// Valid reports whether s is a known request status
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestActive, RequestCompleted, RequestCancelled, RequestExpired:
		return true
	}
	return false
}

// CarType is the kind of vehicle offered
type CarType string

const (
	CarAuto      CarType = "Auto"
	CarSedan     CarType = "Sedan"
	CarSUV       CarType = "SUV"
	CarTraveller CarType = "Traveller"
	CarAny       CarType = "Any"
)

var carTypes = []CarType{CarAuto, CarSedan, CarSUV, CarTraveller, CarAny}

// ParseCarType matches a car type case-insensitively and returns its canonical spelling
func ParseCarType(s string) (CarType, bool) {
	for _, ct := range carTypes {
		if strings.EqualFold(string(ct), strings.TrimSpace(s)) {
			return ct, true
		}
	}
	return "", false
}

// Layouts for the calendar date and wall-clock columns
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Request Model (a posted ride offer)
type Request struct {
	ID               string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string        `gorm:"type:varchar(36);not null;index" json:"userId"`
	User             *User         `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"user,omitempty"`
	From             string        `gorm:"column:from_location;not null" json:"from"`
	To               string        `gorm:"column:to_location;not null" json:"to"`
	Date             string        `gorm:"type:varchar(10);not null;index" json:"date"` // YYYY-MM-DD
	Time             string        `gorm:"type:varchar(5);not null" json:"time"`        // HH:MM
	CarType          CarType       `gorm:"type:varchar(16);not null" json:"carType"`
	MaxPersons       int           `gorm:"not null" json:"maxPersons"`
	CurrentOccupancy int           `gorm:"not null" json:"currentOccupancy"` // owner + accepted voters
	Status           RequestStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Votes            []Vote        `gorm:"foreignKey:RequestID" json:"votes,omitempty"`
	CreatedAt        time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none was provided
func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsFull reports whether every seat is taken
func (r *Request) IsFull() bool {
	return r.CurrentOccupancy >= r.MaxPersons
}

// SeatsLeft returns the number of seats still open
func (r *Request) SeatsLeft() int {
	if r.IsFull() {
		return 0
	}
	return r.MaxPersons - r.CurrentOccupancy
}
