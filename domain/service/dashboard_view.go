package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/inbound"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// DashboardData is the payload of the dashboard view
type DashboardData struct {
	Stats  model.DashboardStats
	Recent []model.ActivityLog
}

// OccupancySlice is one segment of the occupancy breakdown
type OccupancySlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ActivityRow is a display-ready activity entry
type ActivityRow struct {
	ID          string      `json:"id"`
	Type        StatusStyle `json:"type"`
	Time        string      `json:"time"`
	UserID      string      `json:"userId"`
	UserName    string      `json:"userName"`
	Locker      string      `json:"locker"`
	Description string      `json:"description"`
}

// DashboardModel is the presentation model of the dashboard
type DashboardModel struct {
	ViewHeader
	Stats            *model.DashboardStats `json:"stats,omitempty"`
	TotalLockers     int                   `json:"totalLockers"`
	OccupancyPercent int                   `json:"occupancyPercent"`
	Breakdown        []OccupancySlice      `json:"breakdown"`
	Recent           []ActivityRow         `json:"recent"`
}

type dashboardView struct {
	state   *ViewState[DashboardData]
	gateway outbound.DataGateway
	limit   int
}

func NewDashboardView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) inbound.View {
	return newDashboardView(rootCtx, gateway, logger, opts)
}

func newDashboardView(
	rootCtx context.Context,
	gateway outbound.DataGateway,
	logger outbound.Logger,
	opts ViewOptions,
) *dashboardView {
	v := &dashboardView{gateway: gateway, limit: opts.RecentLogLimit}
	v.state = NewViewState[DashboardData](rootCtx, inbound.ViewDashboard, v.load, logger, opts.RequestTimeout)
	return v
}

// load fetches the stats and the activity preview concurrently
func (v *dashboardView) load(ctx context.Context) (DashboardData, error) {
	var data DashboardData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := v.gateway.FetchStats(gctx)
		if err != nil {
			return err
		}
		data.Stats = stats
		return nil
	})
	g.Go(func() error {
		logs, err := v.gateway.FetchActivityLogs(gctx)
		if err != nil {
			return err
		}
		data.Recent = RecentActivity(logs, v.limit)
		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}
	return data, nil
}

func (v *dashboardView) Name() string                      { return inbound.ViewDashboard }
func (v *dashboardView) Refresh(ctx context.Context) error { return v.state.Refresh(ctx) }
func (v *dashboardView) Updates() <-chan struct{}          { return v.state.Updates() }
func (v *dashboardView) Retire()                           { v.state.Retire() }
func (v *dashboardView) Render() any                       { return v.Model() }

// Model projects the last loaded data; projections stay empty until a load succeeded
func (v *dashboardView) Model() DashboardModel {
	snap := v.state.Snapshot()
	m := DashboardModel{
		ViewHeader: headerOf(inbound.ViewDashboard, snap),
		Breakdown:  []OccupancySlice{},
		Recent:     []ActivityRow{},
	}
	if !snap.HasData {
		return m
	}

	stats := snap.Data.Stats
	m.Stats = &stats
	m.TotalLockers = stats.TotalLockers()
	m.OccupancyPercent = stats.OccupancyPercent()
	m.Breakdown = []OccupancySlice{
		{Name: string(model.LockerOccupied), Value: stats.Occupied},
		{Name: string(model.LockerAvailable), Value: stats.Available},
		{Name: string(model.LockerMaintenance), Value: stats.Maintenance},
	}
	for _, a := range snap.Data.Recent {
		m.Recent = append(m.Recent, activityRow(a, "15:04:05"))
	}
	return m
}

func activityRow(a model.ActivityLog, layout string) ActivityRow {
	return ActivityRow{
		ID:          a.ID,
		Type:        LogStyle(a.Type),
		Time:        a.Timestamp.Format(layout),
		UserID:      a.UserID,
		UserName:    a.UserName,
		Locker:      activityLocker(a),
		Description: DescribeActivity(a),
	}
}
