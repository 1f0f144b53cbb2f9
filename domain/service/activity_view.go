package service

import (
	"context"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// ActivityModel is the presentation model of the activity log.
// Entries keep the backend order; OrderWarnings lists contract violations.
type ActivityModel struct {
	ViewHeader
	Entries       []ActivityRow `json:"entries"`
	OrderWarnings []string      `json:"orderWarnings,omitempty"`
}

type activityView struct {
	state   *ViewState[[]model.ActivityLog]
	gateway outbound.DataGateway
	logger  outbound.Logger
}

func NewActivityView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) inbound.View {
	return newActivityView(rootCtx, gateway, logger, opts)
}

func newActivityView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) *activityView {
	v := &activityView{gateway: gateway, logger: logger}
	v.state = NewViewState[[]model.ActivityLog](rootCtx, inbound.ViewActivity, v.load, logger, opts.RequestTimeout)
	return v
}

func (v *activityView) load(ctx context.Context) ([]model.ActivityLog, error) {
	logs, err := v.gateway.FetchActivityLogs(ctx)
	if err != nil {
		return nil, err
	}
	if idx := model.OrderViolations(logs); len(idx) > 0 {
		v.logger.Warn("Activity log is not most-recent-first", "violations", len(idx), "first", logs[idx[0]].ID)
	}
	return logs, nil
}

func (v *activityView) Name() string                      { return inbound.ViewActivity }
func (v *activityView) Refresh(ctx context.Context) error { return v.state.Refresh(ctx) }
func (v *activityView) Updates() <-chan struct{}          { return v.state.Updates() }
func (v *activityView) Retire()                           { v.state.Retire() }
func (v *activityView) Render() any                       { return v.Model() }

func (v *activityView) Model() ActivityModel {
	snap := v.state.Snapshot()
	m := ActivityModel{
		ViewHeader: headerOf(inbound.ViewActivity, snap),
		Entries:    []ActivityRow{},
	}
	if !snap.HasData {
		return m
	}

	for _, a := range snap.Data {
		m.Entries = append(m.Entries, activityRow(a, model.TimestampLayout))
	}
	m.OrderWarnings = OrderWarnings(snap.Data)
	return m
}
