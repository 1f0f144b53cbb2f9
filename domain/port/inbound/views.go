package inbound

import (
	"context"
)

// View names accepted by ViewFactory.Open
const (
	ViewDashboard = "dashboard"
	ViewLockers   = "lockers"
	ViewUsers     = "users"
	ViewActivity  = "activity"
	ViewProfile   = "profile"
)

// View is a per-page controller owning the lifecycle of its remote data.
// Instances are independent and must be retired when the page goes away.
type View interface {
	// Name returns the view name
	Name() string

	// Refresh loads the view data, joining a request already in flight
	Refresh(ctx context.Context) error

	// Render returns the presentation model of the current state
	Render() any

	// Updates signals every state change; signals are coalesced
	Updates() <-chan struct{}

	// Retire discards pending and future responses
	Retire()
}

// LockersView adds locker selection and the force-open command
type LockersView interface {
	View
	Select(lockerID string)
	ClearSelection()
	ForceOpen(ctx context.Context) error
}

// UsersView adds the local search filter
type UsersView interface {
	View
	Search(term string)
}

// ViewFactory creates fresh view instances
type ViewFactory interface {
	Open(name string) (View, error)
	Names() []string
}
