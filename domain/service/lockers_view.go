package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

const opForceOpen = "force open"

// LockersData is the payload of the lockers view.
// Users are loaded alongside to resolve occupant names.
type LockersData struct {
	Lockers []model.Locker
	Users   []model.User
}

// LockerTile is one cell of the locker grid
type LockerTile struct {
	ID       string      `json:"id"`
	Number   int         `json:"number"`
	Style    StatusStyle `json:"style"`
	Occupied bool        `json:"occupied"`
}

// LockerDetail is bound to the selected locker id and follows refreshes
type LockerDetail struct {
	Locker       model.Locker `json:"locker"`
	Style        StatusStyle  `json:"style"`
	HasOccupant  bool         `json:"hasOccupant"`
	Occupant     Occupant     `json:"occupant"`
	CanForceOpen bool         `json:"canForceOpen"`
}

// CommandModel exposes the force-open sub-state
type CommandModel struct {
	Phase    model.CommandPhase `json:"phase"`
	LockerID string             `json:"lockerId,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// LockersModel is the presentation model of the lockers view
type LockersModel struct {
	ViewHeader
	Lockers  []LockerTile  `json:"lockers"`
	Selected *LockerDetail `json:"selected,omitempty"`
	Command  CommandModel  `json:"command"`
}

type lockersView struct {
	state   *ViewState[LockersData]
	gateway outbound.DataGateway
	logger  outbound.Logger

	mu         sync.Mutex
	selectedID string
	command    model.CommandState
}

func NewLockersView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) inbound.LockersView {
	return newLockersView(rootCtx, gateway, logger, opts)
}

func newLockersView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) *lockersView {
	v := &lockersView{gateway: gateway, logger: logger}
	v.state = NewViewState[LockersData](rootCtx, inbound.ViewLockers, v.load, logger, opts.RequestTimeout)
	return v
}

func (v *lockersView) load(ctx context.Context) (LockersData, error) {
	var data LockersData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lockers, err := v.gateway.FetchLockers(gctx)
		if err != nil {
			return err
		}
		data.Lockers = lockers
		return nil
	})
	g.Go(func() error {
		users, err := v.gateway.FetchUsers(gctx)
		if err != nil {
			return err
		}
		data.Users = users
		return nil
	})

	if err := g.Wait(); err != nil {
		return LockersData{}, err
	}

	for _, l := range data.Lockers {
		if err := l.CheckOccupancy(); err != nil {
			v.logger.Warn("Inconsistent locker from backend", "error", err)
		}
	}
	return data, nil
}

func (v *lockersView) Name() string                      { return inbound.ViewLockers }
func (v *lockersView) Refresh(ctx context.Context) error { return v.state.Refresh(ctx) }
func (v *lockersView) Updates() <-chan struct{}          { return v.state.Updates() }
func (v *lockersView) Retire()                           { v.state.Retire() }
func (v *lockersView) Render() any                       { return v.Model() }

// Select binds the detail panel to a locker id.
// Selecting another locker resets the command sub-state.
func (v *lockersView) Select(lockerID string) {
	v.mu.Lock()
	if v.selectedID != lockerID && v.command.Phase != model.CommandPending {
		v.command = model.CommandState{}
	}
	v.selectedID = lockerID
	v.mu.Unlock()

	v.state.Touch()
}

func (v *lockersView) ClearSelection() {
	v.Select("")
}

// ForceOpen sends the override for the selected locker.
// The locker is never assumed open: the view waits for the backend answer and
// then reloads the lockers whatever the outcome.
func (v *lockersView) ForceOpen(ctx context.Context) error {
	v.mu.Lock()
	id := v.selectedID
	if id == "" {
		v.mu.Unlock()
		return model.ErrNoSelection
	}
	if v.command.Phase == model.CommandPending {
		v.mu.Unlock()
		return &model.CommandError{Op: opForceOpen, LockerID: id, Err: model.ErrCommandPending}
	}

	locker, found := findLocker(v.state.Snapshot(), id)
	var precheck error
	switch {
	case !found:
		precheck = model.ErrLockerNotFound
	case !locker.CanForceOpen():
		precheck = model.ErrLockerNotOccupied
	}
	if precheck != nil {
		err := &model.CommandError{Op: opForceOpen, LockerID: id, Err: precheck}
		v.command = model.CommandState{Phase: model.CommandRejected, LockerID: id, Err: err}
		v.mu.Unlock()
		v.state.Touch()
		return err
	}

	v.command = model.CommandState{Phase: model.CommandPending, LockerID: id}
	v.mu.Unlock()
	v.state.Touch()

	v.logger.Info("Sending force open", "locker", id, "number", locker.Number)

	ok, err := v.gateway.ForceOpenLocker(ctx, id)
	if err == nil && !ok {
		err = model.ErrCommandRejected
	}
	if err != nil && !model.IsCommandError(err) {
		err = &model.CommandError{Op: opForceOpen, LockerID: id, Err: err}
	}

	v.mu.Lock()
	if err != nil {
		v.command = model.CommandState{Phase: model.CommandRejected, LockerID: id, Err: err}
	} else {
		v.command = model.CommandState{Phase: model.CommandConfirmed, LockerID: id}
	}
	v.mu.Unlock()
	v.state.Touch()

	if err != nil {
		v.logger.Warn("Force open rejected", "locker", id, "error", err)
	} else {
		v.logger.Info("Force open confirmed", "locker", id)
	}

	if rerr := v.state.Reload(ctx); rerr != nil {
		v.logger.Warn("Locker reconciliation failed", "locker", id, "error", rerr)
	}

	return err
}

// Command returns the force-open sub-state
func (v *lockersView) Command() model.CommandState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.command
}

func (v *lockersView) Model() LockersModel {
	v.mu.Lock()
	selectedID := v.selectedID
	command := v.command
	v.mu.Unlock()

	snap := v.state.Snapshot()
	m := LockersModel{
		ViewHeader: headerOf(inbound.ViewLockers, snap),
		Lockers:    []LockerTile{},
		Command: CommandModel{
			Phase:    command.Phase,
			LockerID: command.LockerID,
		},
	}
	if command.Err != nil {
		m.Command.Error = command.Err.Error()
	}
	if !snap.HasData {
		return m
	}

	for _, l := range snap.Data.Lockers {
		m.Lockers = append(m.Lockers, LockerTile{
			ID:       l.ID,
			Number:   l.Number,
			Style:    LockerStyle(l.Status),
			Occupied: l.Status == model.LockerOccupied,
		})
	}

	if locker, ok := findLocker(snap, selectedID); ok {
		occupant, has := ResolveOccupant(locker, indexUsers(snap.Data.Users))
		m.Selected = &LockerDetail{
			Locker:       locker,
			Style:        LockerStyle(locker.Status),
			HasOccupant:  has,
			Occupant:     occupant,
			CanForceOpen: locker.CanForceOpen(),
		}
	}
	return m
}

func findLocker(snap model.ViewSnapshot[LockersData], id string) (model.Locker, bool) {
	if id == "" || !snap.HasData {
		return model.Locker{}, false
	}
	for _, l := range snap.Data.Lockers {
		if l.ID == id {
			return l, true
		}
	}
	return model.Locker{}, false
}
