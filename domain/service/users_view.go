package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// UsersData is the payload of the users view.
// Lockers are loaded alongside to label each user's locker.
type UsersData struct {
	Users   []model.User
	Lockers []model.Locker
}

// UserRow is one line of the users table
type UserRow struct {
	ID         string      `json:"id"`
	UID        string      `json:"uid"`
	Name       string      `json:"name"`
	NIM        string      `json:"nim"`
	Email      string      `json:"email"`
	Status     StatusStyle `json:"status"`
	Locker     string      `json:"locker"`
	LastActive *time.Time  `json:"lastActive,omitempty"`
}

// UsersModel is the presentation model of the users view
type UsersModel struct {
	ViewHeader
	Search  string    `json:"search"`
	Total   int       `json:"total"`
	Rows    []UserRow `json:"rows"`
	NoMatch bool      `json:"noMatch"`
}

type usersView struct {
	state   *ViewState[UsersData]
	gateway outbound.DataGateway

	mu   sync.Mutex
	term string
}

func NewUsersView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) inbound.UsersView {
	return newUsersView(rootCtx, gateway, logger, opts)
}

func newUsersView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) *usersView {
	v := &usersView{gateway: gateway}
	v.state = NewViewState[UsersData](rootCtx, inbound.ViewUsers, v.load, logger, opts.RequestTimeout)
	return v
}

func (v *usersView) load(ctx context.Context) (UsersData, error) {
	var data UsersData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := v.gateway.FetchUsers(gctx)
		if err != nil {
			return err
		}
		data.Users = users
		return nil
	})
	g.Go(func() error {
		lockers, err := v.gateway.FetchLockers(gctx)
		if err != nil {
			return err
		}
		data.Lockers = lockers
		return nil
	})

	if err := g.Wait(); err != nil {
		return UsersData{}, err
	}
	return data, nil
}

func (v *usersView) Name() string                      { return inbound.ViewUsers }
func (v *usersView) Refresh(ctx context.Context) error { return v.state.Refresh(ctx) }
func (v *usersView) Updates() <-chan struct{}          { return v.state.Updates() }
func (v *usersView) Retire()                           { v.state.Retire() }
func (v *usersView) Render() any                       { return v.Model() }

// Search updates the filter term; the model recomputes on the next render
func (v *usersView) Search(term string) {
	v.mu.Lock()
	v.term = term
	v.mu.Unlock()

	v.state.Touch()
}

func (v *usersView) Model() UsersModel {
	v.mu.Lock()
	term := v.term
	v.mu.Unlock()

	snap := v.state.Snapshot()
	m := UsersModel{
		ViewHeader: headerOf(inbound.ViewUsers, snap),
		Search:     term,
		Rows:       []UserRow{},
	}
	if !snap.HasData {
		return m
	}

	lockers := indexLockers(snap.Data.Lockers)
	m.Total = len(snap.Data.Users)
	for _, u := range FilterUsers(snap.Data.Users, term) {
		row := UserRow{
			ID:     u.ID,
			UID:    u.UID,
			Name:   u.Name,
			NIM:    u.NIM,
			Email:  u.Email,
			Status: UserStyle(u.Status),
			Locker: LockerLabel(u, lockers),
		}
		if !u.LastActive.IsZero() {
			t := u.LastActive
			row.LastActive = &t
		}
		m.Rows = append(m.Rows, row)
	}
	m.NoMatch = len(m.Rows) == 0
	return m
}
