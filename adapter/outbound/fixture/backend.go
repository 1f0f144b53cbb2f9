package fixture

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// Operation names, used for latency and fault injection
const (
	OpFetchStats   = "fetch stats"
	OpFetchLockers = "fetch lockers"
	OpFetchUsers   = "fetch users"
	OpFetchLogs    = "fetch activity logs"
	OpFetchProfile = "fetch admin profile"
	OpForceOpen    = "force open"
)

// Latency is the artificial delay applied to each operation
type Latency struct {
	Stats   time.Duration
	Lockers time.Duration
	Users   time.Duration
	Logs    time.Duration
	Profile time.Duration
	Command time.Duration
}

// DefaultLatency is the delay profile of the demo backend
func DefaultLatency() Latency {
	return Latency{
		Stats:   800 * time.Millisecond,
		Lockers: 600 * time.Millisecond,
		Users:   700 * time.Millisecond,
		Logs:    500 * time.Millisecond,
		Command: 1000 * time.Millisecond,
	}
}

// Backend is an in-memory stand-in for the locker backend.
// It owns the dataset; callers only ever receive copies.
type Backend struct {
	mu      sync.RWMutex
	data    Dataset
	latency Latency
	faults  map[string]error
	logger  outbound.Logger
	now     func() time.Time
}

var (
	_ outbound.DataGateway   = (*Backend)(nil)
	_ outbound.FixtureSource = (*Backend)(nil)
)

func NewBackend(data Dataset, latency Latency, logger outbound.Logger) *Backend {
	return &Backend{
		data:    data.Clone(),
		latency: latency,
		faults:  make(map[string]error),
		logger:  logger,
		now:     time.Now,
	}
}

// InjectFault makes every call of op fail with err until ClearFaults
func (b *Backend) InjectFault(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[op] = err
}

func (b *Backend) ClearFaults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = make(map[string]error)
}

// Replace swaps the dataset after validating it
func (b *Backend) Replace(d Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	b.data = d.Clone()
	b.mu.Unlock()

	b.logger.Info("Fixture dataset replaced",
		"users", len(d.Users), "lockers", len(d.Lockers), "logs", len(d.Logs))
	return nil
}

func (b *Backend) ReloadFrom(ctx context.Context, path string) error {
	d, err := LoadDataset(path)
	if err != nil {
		return err
	}
	return b.Replace(d)
}

// Dataset returns a copy of the current state
func (b *Backend) Dataset() Dataset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.Clone()
}

// wait applies the artificial latency and any injected fault for a read
func (b *Backend) wait(ctx context.Context, op string, d time.Duration) error {
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return model.NewTransientError(op, ctx.Err())
		}
	}

	b.mu.RLock()
	err := b.faults[op]
	b.mu.RUnlock()

	if err != nil {
		b.logger.Debug("Injected fault", "op", op, "error", err)
		return model.NewTransientError(op, err)
	}
	return nil
}

func (b *Backend) FetchStats(ctx context.Context) (model.DashboardStats, error) {
	if err := b.wait(ctx, OpFetchStats, b.latency.Stats); err != nil {
		return model.DashboardStats{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return model.StatsFromLockers(b.data.Lockers, len(b.data.Users)), nil
}

func (b *Backend) FetchLockers(ctx context.Context) ([]model.Locker, error) {
	if err := b.wait(ctx, OpFetchLockers, b.latency.Lockers); err != nil {
		return nil, err
	}

	b.mu.RLock()
	lockers := append([]model.Locker(nil), b.data.Lockers...)
	b.mu.RUnlock()

	sort.SliceStable(lockers, func(i, j int) bool {
		return lockers[i].Number < lockers[j].Number
	})
	return lockers, nil
}

func (b *Backend) FetchUsers(ctx context.Context) ([]model.User, error) {
	if err := b.wait(ctx, OpFetchUsers, b.latency.Users); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.User(nil), b.data.Users...), nil
}

func (b *Backend) FetchActivityLogs(ctx context.Context) ([]model.ActivityLog, error) {
	if err := b.wait(ctx, OpFetchLogs, b.latency.Logs); err != nil {
		return nil, err
	}

	b.mu.RLock()
	logs := append([]model.ActivityLog(nil), b.data.Logs...)
	b.mu.RUnlock()

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs, nil
}

func (b *Backend) FetchAdminProfile(ctx context.Context) (model.AdminProfile, error) {
	if err := b.wait(ctx, OpFetchProfile, b.latency.Profile); err != nil {
		return model.AdminProfile{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data.Admin, nil
}

// ForceOpenLocker frees an occupied locker, clears the occupant's locker
// reference and appends a Retrieve entry to the activity log.
func (b *Backend) ForceOpenLocker(ctx context.Context, lockerID string) (bool, error) {
	if b.latency.Command > 0 {
		timer := time.NewTimer(b.latency.Command)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return false, &model.CommandError{Op: OpForceOpen, LockerID: lockerID, Err: model.NewTransientError(OpForceOpen, ctx.Err())}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.faults[OpForceOpen]; err != nil {
		b.logger.Debug("Injected fault", "op", OpForceOpen, "error", err)
		return false, &model.CommandError{Op: OpForceOpen, LockerID: lockerID, Err: err}
	}

	idx := -1
	for i, l := range b.data.Lockers {
		if l.ID == lockerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, &model.CommandError{Op: OpForceOpen, LockerID: lockerID, Err: model.ErrLockerNotFound}
	}

	locker := b.data.Lockers[idx]
	if locker.Status != model.LockerOccupied {
		return false, &model.CommandError{
			Op:       OpForceOpen,
			LockerID: lockerID,
			Err:      fmt.Errorf("%w: status is %s", model.ErrLockerNotOccupied, locker.Status),
		}
	}

	now := b.now()
	occupantID := locker.CurrentUserID
	occupantName := ""

	for i, u := range b.data.Users {
		if u.ID == occupantID {
			occupantName = u.Name
			if u.CurrentLockerID == lockerID {
				b.data.Users[i].CurrentLockerID = ""
			}
			break
		}
	}

	b.data.Lockers[idx].Status = model.LockerAvailable
	b.data.Lockers[idx].CurrentUserID = ""
	b.data.Lockers[idx].LastUpdated = now

	b.data.Logs = append(b.data.Logs, model.ActivityLog{
		ID:           uuid.NewString(),
		Type:         model.LogRetrieve,
		Timestamp:    now,
		UserID:       occupantID,
		UserName:     occupantName,
		LockerID:     lockerID,
		LockerNumber: locker.Number,
		Details:      "Force opened by administrator",
	})

	b.logger.Info("Locker force opened", "locker", lockerID, "number", locker.Number, "occupant", occupantID)
	return true, nil
}
