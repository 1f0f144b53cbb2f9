package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajkula/GoLockers/domain/model"
)

// Placeholder is displayed for missing or dangling references
const Placeholder = "-"

// StatusStyle is the presentation tone of a status badge
type StatusStyle struct {
	Tone  string `json:"tone"`
	Label string `json:"label"`
}

// LockerStyle maps a locker status to its badge
func LockerStyle(status model.LockerStatus) StatusStyle {
	switch status {
	case model.LockerOccupied:
		return StatusStyle{Tone: "rose", Label: string(status)}
	case model.LockerAvailable:
		return StatusStyle{Tone: "emerald", Label: string(status)}
	case model.LockerMaintenance:
		return StatusStyle{Tone: "slate", Label: string(status)}
	default:
		return StatusStyle{Tone: "neutral", Label: string(status)}
	}
}

// UserStyle maps a user status to its badge
func UserStyle(status model.UserStatus) StatusStyle {
	switch status {
	case model.UserActive:
		return StatusStyle{Tone: "green", Label: string(status)}
	case model.UserSuspended:
		return StatusStyle{Tone: "red", Label: string(status)}
	default:
		return StatusStyle{Tone: "slate", Label: string(status)}
	}
}

// LogStyle maps an activity type to its badge
func LogStyle(t model.LogType) StatusStyle {
	switch t {
	case model.LogStore:
		return StatusStyle{Tone: "blue", Label: string(t)}
	case model.LogRetrieve:
		return StatusStyle{Tone: "green", Label: string(t)}
	case model.LogError:
		return StatusStyle{Tone: "red", Label: string(t)}
	default:
		return StatusStyle{Tone: "indigo", Label: string(t)}
	}
}

// FilterUsers keeps the users whose name, NIM or UID contains term, ignoring case.
// The input order is preserved and an empty term keeps every user.
func FilterUsers(users []model.User, term string) []model.User {
	out := make([]model.User, 0, len(users))
	if term == "" {
		return append(out, users...)
	}

	needle := strings.ToLower(term)
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.NIM), needle) ||
			strings.Contains(strings.ToLower(u.UID), needle) {
			out = append(out, u)
		}
	}
	return out
}

func indexUsers(users []model.User) map[string]model.User {
	idx := make(map[string]model.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

func indexLockers(lockers []model.Locker) map[string]model.Locker {
	idx := make(map[string]model.Locker, len(lockers))
	for _, l := range lockers {
		idx[l.ID] = l
	}
	return idx
}

// Occupant is the resolved occupant of a locker
type Occupant struct {
	Name string `json:"name"`
	NIM  string `json:"nim"`
	UID  string `json:"uid"`
	// Consistent is false when the user does not point back at the locker
	Consistent bool `json:"consistent"`
}

// ResolveOccupant looks up the locker's occupant.
// A missing or dangling reference yields placeholders instead of an error.
func ResolveOccupant(locker model.Locker, users map[string]model.User) (Occupant, bool) {
	if locker.CurrentUserID == "" {
		return Occupant{Name: Placeholder, NIM: Placeholder, UID: Placeholder, Consistent: true}, false
	}

	u, ok := users[locker.CurrentUserID]
	if !ok {
		return Occupant{Name: Placeholder, NIM: Placeholder, UID: Placeholder}, false
	}

	return Occupant{
		Name:       u.Name,
		NIM:        u.NIM,
		UID:        u.UID,
		Consistent: u.CurrentLockerID == locker.ID,
	}, true
}

// LockerLabel renders the user's locker as "#N", or the placeholder
func LockerLabel(u model.User, lockers map[string]model.Locker) string {
	if !u.HasLocker() {
		return Placeholder
	}
	l, ok := lockers[u.CurrentLockerID]
	if !ok {
		return Placeholder
	}
	return fmt.Sprintf("#%d", l.Number)
}

// DescribeActivity renders a one-line description of an activity entry.
// Locker fields are only trusted for Store and Retrieve entries.
func DescribeActivity(a model.ActivityLog) string {
	switch a.Type {
	case model.LogStore:
		return "Stored item in locker " + activityLocker(a)
	case model.LogRetrieve:
		return "Retrieved item from locker " + activityLocker(a)
	default:
		if a.Details == "" {
			return Placeholder
		}
		return a.Details
	}
}

func activityLocker(a model.ActivityLog) string {
	if !a.HasLocker() {
		return Placeholder
	}
	return fmt.Sprintf("#%d", a.LockerNumber)
}

// RecentActivity returns a copy of the first n entries
func RecentActivity(logs []model.ActivityLog, n int) []model.ActivityLog {
	if n < 0 || n > len(logs) {
		n = len(logs)
	}
	out := make([]model.ActivityLog, n)
	copy(out, logs[:n])
	return out
}

// OrderWarnings describes each place where the log is not most-recent-first
func OrderWarnings(logs []model.ActivityLog) []string {
	idx := model.OrderViolations(logs)
	if len(idx) == 0 {
		return nil
	}

	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, fmt.Sprintf("%s (%s) is newer than preceding %s (%s)",
			logs[i].ID, logs[i].Timestamp.Format(model.TimestampLayout),
			logs[i-1].ID, logs[i-1].Timestamp.Format(model.TimestampLayout)))
	}
	return out
}

// ViewHeader is the lifecycle part shared by every presentation model
type ViewHeader struct {
	View      string      `json:"view"`
	Phase     model.Phase `json:"phase"`
	Stale     bool        `json:"stale"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

func headerOf[T any](view string, s model.ViewSnapshot[T]) ViewHeader {
	h := ViewHeader{
		View:  view,
		Phase: s.Phase,
		Stale: s.Stale(),
	}
	if s.Err != nil {
		h.Error = s.Err.Error()
		h.Retryable = true
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		h.UpdatedAt = &t
	}
	return h
}
