package model

import (
	"time"
)

// LogType classifies an activity log entry
type LogType string

const (
	LogStore    LogType = "Store"
	LogRetrieve LogType = "Retrieve"
	LogRegister LogType = "Register"
	LogError    LogType = "Error"
)

// TimestampLayout is the textual timestamp format used by fixture files
const TimestampLayout = "2006-01-02 15:04:05"

// ActivityLog is an immutable, append-only record produced by the backend.
// Locker fields are only populated for Store and Retrieve entries.
type ActivityLog struct {
	ID           string    `json:"id" validate:"required"`
	Type         LogType   `json:"type" validate:"required"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	LockerID     string    `json:"lockerId,omitempty"`
	LockerNumber int       `json:"lockerNumber,omitempty"`
	Details      string    `json:"details,omitempty"`
}

// HasLocker reports whether the entry references a locker
func (a ActivityLog) HasLocker() bool {
	return a.LockerNumber > 0
}

// OrderViolations returns the indexes i for which logs[i] is more recent than logs[i-1].
// An empty result means the sequence is non-increasing by timestamp.
func OrderViolations(logs []ActivityLog) []int {
	var out []int
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			out = append(out, i)
		}
	}
	return out
}
