package service

import (
	"context"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// ProfileModel is the presentation model of the admin profile
type ProfileModel struct {
	ViewHeader
	Profile *model.AdminProfile `json:"profile,omitempty"`
}

// profileView loads the operator profile once per session
type profileView struct {
	state   *ViewState[model.AdminProfile]
	gateway outbound.DataGateway
}

func NewProfileView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) inbound.View {
	return newProfileView(rootCtx, gateway, logger, opts)
}

func newProfileView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) *profileView {
	v := &profileView{gateway: gateway}
	v.state = NewViewState[model.AdminProfile](rootCtx, inbound.ViewProfile, gateway.FetchAdminProfile, logger, opts.RequestTimeout)
	return v
}

func (v *profileView) Name() string             { return inbound.ViewProfile }
func (v *profileView) Updates() <-chan struct{} { return v.state.Updates() }
func (v *profileView) Retire()                  { v.state.Retire() }
func (v *profileView) Render() any              { return v.Model() }

// Refresh is a no-op once the profile has been loaded
func (v *profileView) Refresh(ctx context.Context) error {
	if v.state.Snapshot().Phase == model.PhaseReady {
		return nil
	}
	return v.state.Refresh(ctx)
}

func (v *profileView) Model() ProfileModel {
	snap := v.state.Snapshot()
	m := ProfileModel{ViewHeader: headerOf(inbound.ViewProfile, snap)}
	if snap.HasData {
		p := snap.Data
		m.Profile = &p
	}
	return m
}
