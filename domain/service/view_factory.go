package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// ViewOptions tunes every view created by the factory
type ViewOptions struct {
	// RequestTimeout bounds a single view load, zero disables it
	RequestTimeout time.Duration

	// RecentLogLimit is the size of the dashboard activity preview
	RecentLogLimit int
}

// DefaultViewOptions mirrors the dashboard defaults
func DefaultViewOptions() ViewOptions {
	return ViewOptions{
		RequestTimeout: 10 * time.Second,
		RecentLogLimit: 3,
	}
}

type viewFactory struct {
	rootCtx context.Context
	gateway outbound.DataGateway
	logger  outbound.Logger
	opts    ViewOptions
}

// NewViewFactory creates views bound to the gateway. Views never share state.
func NewViewFactory(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) inbound.ViewFactory {
	return &viewFactory{
		rootCtx: rootCtx,
		gateway: gateway,
		logger:  logger,
		opts:    opts,
	}
}

func (f *viewFactory) Open(name string) (inbound.View, error) {
	switch name {
	case inbound.ViewDashboard:
		return NewDashboardView(f.rootCtx, f.gateway, f.logger, f.opts), nil
	case inbound.ViewLockers:
		return NewLockersView(f.rootCtx, f.gateway, f.logger, f.opts), nil
	case inbound.ViewUsers:
		return NewUsersView(f.rootCtx, f.gateway, f.logger, f.opts), nil
	case inbound.ViewActivity:
		return NewActivityView(f.rootCtx, f.gateway, f.logger, f.opts), nil
	case inbound.ViewProfile:
		return NewProfileView(f.rootCtx, f.gateway, f.logger, f.opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownView, name)
	}
}

func (f *viewFactory) Names() []string {
	return []string{
		inbound.ViewDashboard,
		inbound.ViewLockers,
		inbound.ViewUsers,
		inbound.ViewActivity,
		inbound.ViewProfile,
	}
}
