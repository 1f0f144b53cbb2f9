package model

import (
	"time"
)

// UserStatus represents the lifecycle status of a locker user
type UserStatus string

const (
	// UserActive can store and retrieve items
	UserActive UserStatus = "Active"

	// UserInactive has not used the facility recently
	UserInactive UserStatus = "Inactive"

	// UserSuspended is barred from using lockers
	UserSuspended UserStatus = "Suspended"
)

// Valid reports whether s is one of the known statuses
func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserInactive, UserSuspended:
		return true
	}
	return false
}

// User is a registered locker user identified by an RFID credential
type User struct {
	ID              string     `json:"id" validate:"required"`
	UID             string     `json:"uid" validate:"required"` // RFID UID
	Name            string     `json:"name" validate:"required"`
	NIM             string     `json:"nim"`
	Email           string     `json:"email" validate:"omitempty,email"`
	Status          UserStatus `json:"status"`
	LastActive      time.Time  `json:"lastActive"`
	CurrentLockerID string     `json:"currentLockerId,omitempty"`
}

// HasLocker reports whether the user claims a locker
func (u User) HasLocker() bool {
	return u.CurrentLockerID != ""
}
