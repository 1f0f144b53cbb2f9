package outbound

import (
	"context"

	"github.com/ajkula/GoLockers/domain/model"
)

// DataGateway is the only boundary between the views and the locker backend.
// Implementations hold no session or cache state and every call may be repeated.
type DataGateway interface {
	// FetchStats returns occupancy counters and the user count
	FetchStats(ctx context.Context) (model.DashboardStats, error)

	// FetchLockers returns all lockers in ascending number order
	FetchLockers(ctx context.Context) ([]model.Locker, error)

	// FetchUsers returns all registered users in a stable, implementation-defined order
	FetchUsers(ctx context.Context) ([]model.User, error)

	// FetchActivityLogs returns the activity log, most recent first
	FetchActivityLogs(ctx context.Context) ([]model.ActivityLog, error)

	// FetchAdminProfile returns the signed-in operator
	FetchAdminProfile(ctx context.Context) (model.AdminProfile, error)

	// ForceOpenLocker sends the override command for an occupied locker.
	// A rejection is reported as a *model.CommandError.
	ForceOpenLocker(ctx context.Context, lockerID string) (bool, error)
}
