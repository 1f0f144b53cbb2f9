package model

import (
	"fmt"
	"time"
)

// LockerStatus is the physical state of a locker
type LockerStatus string

const (
	LockerAvailable   LockerStatus = "Available"
	LockerOccupied    LockerStatus = "Occupied"
	LockerMaintenance LockerStatus = "Maintenance"
)

// Valid reports whether s is one of the known statuses
func (s LockerStatus) Valid() bool {
	switch s {
	case LockerAvailable, LockerOccupied, LockerMaintenance:
		return true
	}
	return false
}

// Locker is a single compartment of the facility
type Locker struct {
	ID            string       `json:"id" validate:"required"`
	Number        int          `json:"number" validate:"gt=0"`
	Status        LockerStatus `json:"status"`
	CurrentUserID string       `json:"currentUserId,omitempty"`
	LastUpdated   time.Time    `json:"lastUpdated"`
}

// CanForceOpen reports whether an override command makes sense for the locker
func (l Locker) CanForceOpen() bool {
	return l.Status == LockerOccupied
}

// CheckOccupancy verifies that an occupant is recorded exactly when the locker is occupied
func (l Locker) CheckOccupancy() error {
	switch {
	case l.Status == LockerOccupied && l.CurrentUserID == "":
		return &ValidationError{
			Entity: "locker",
			ID:     l.ID,
			Field:  "currentUserId",
			Reason: "occupied locker without occupant",
		}
	case l.Status != LockerOccupied && l.CurrentUserID != "":
		return &ValidationError{
			Entity: "locker",
			ID:     l.ID,
			Field:  "currentUserId",
			Reason: fmt.Sprintf("%s locker references user %s", l.Status, l.CurrentUserID),
		}
	}
	return nil
}
