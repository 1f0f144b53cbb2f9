package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/GoLockers/domain/model"
)

func sampleUsers() []model.User {
	return []model.User{
		{ID: "u1", UID: "RFID-99283", Name: "Ahmad Dani", NIM: "2021001", Status: model.UserActive, CurrentLockerID: "l1"},
		{ID: "u2", UID: "RFID-11234", Name: "Siti Aminah", NIM: "2021002", Status: model.UserActive},
		{ID: "u3", UID: "RFID-55667", Name: "Rudi Hartono", NIM: "2021003", Status: model.UserInactive},
		{ID: "u4", UID: "RFID-88990", Name: "Dewi Sartika", NIM: "2021004", Status: model.UserActive, CurrentLockerID: "l5"},
		{ID: "u5", UID: "RFID-33441", Name: "Bambang P", NIM: "2021005", Status: model.UserSuspended},
	}
}

func ids(users []model.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestFilterUsers(t *testing.T) {
	users := sampleUsers()

	tests := []struct {
		name string
		term string
		want []string
	}{
		{"empty term keeps fetch order", "", []string{"u1", "u2", "u3", "u4", "u5"}},
		{"name ignores case", "AHMAD", []string{"u1"}},
		{"nim substring", "2021003", []string{"u3"}},
		{"nim prefix matches all fixture users", "2021", []string{"u1", "u2", "u3", "u4", "u5"}},
		{"siti matches one nim", "siti", []string{"u2"}},
		{"uid substring", "rfid-889", []string{"u4"}},
		{"several matches keep order", "ti", []string{"u2", "u4"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterUsers(users, tt.term)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterUsers_DoesNotAliasInput(t *testing.T) {
	users := sampleUsers()
	got := FilterUsers(users, "")
	got[0].Name = "changed"
	assert.Equal(t, "Ahmad Dani", users[0].Name)
}

func TestStatusStyles(t *testing.T) {
	assert.Equal(t, StatusStyle{Tone: "rose", Label: "Occupied"}, LockerStyle(model.LockerOccupied))
	assert.Equal(t, "emerald", LockerStyle(model.LockerAvailable).Tone)
	assert.Equal(t, "slate", LockerStyle(model.LockerMaintenance).Tone)
	assert.Equal(t, StatusStyle{Tone: "neutral", Label: "Broken"}, LockerStyle(model.LockerStatus("Broken")))

	assert.Equal(t, "green", UserStyle(model.UserActive).Tone)
	assert.Equal(t, "red", UserStyle(model.UserSuspended).Tone)
	assert.Equal(t, "slate", UserStyle(model.UserInactive).Tone)

	assert.Equal(t, "blue", LogStyle(model.LogStore).Tone)
	assert.Equal(t, "green", LogStyle(model.LogRetrieve).Tone)
	assert.Equal(t, "red", LogStyle(model.LogError).Tone)
	assert.Equal(t, StatusStyle{Tone: "indigo", Label: "Register"}, LogStyle(model.LogRegister))
}

func TestResolveOccupant(t *testing.T) {
	users := indexUsers(sampleUsers())
	dash := Occupant{Name: Placeholder, NIM: Placeholder, UID: Placeholder}

	t.Run("free locker", func(t *testing.T) {
		occ, ok := ResolveOccupant(model.Locker{ID: "l2", Status: model.LockerAvailable}, users)
		assert.False(t, ok)
		assert.Equal(t, Placeholder, occ.Name)
		assert.True(t, occ.Consistent)
	})

	t.Run("dangling reference", func(t *testing.T) {
		occ, ok := ResolveOccupant(model.Locker{ID: "l3", Status: model.LockerOccupied, CurrentUserID: "ghost"}, users)
		assert.False(t, ok)
		assert.Equal(t, dash, occ)
	})

	t.Run("consistent occupant", func(t *testing.T) {
		occ, ok := ResolveOccupant(model.Locker{ID: "l1", Status: model.LockerOccupied, CurrentUserID: "u1"}, users)
		require.True(t, ok)
		assert.Equal(t, Occupant{Name: "Ahmad Dani", NIM: "2021001", UID: "RFID-99283", Consistent: true}, occ)
	})

	t.Run("user points elsewhere", func(t *testing.T) {
		occ, ok := ResolveOccupant(model.Locker{ID: "l9", Status: model.LockerOccupied, CurrentUserID: "u4"}, users)
		require.True(t, ok)
		assert.Equal(t, "Dewi Sartika", occ.Name)
		assert.False(t, occ.Consistent)
	})
}

func TestLockerLabel(t *testing.T) {
	lockers := indexLockers([]model.Locker{
		{ID: "l1", Number: 1, Status: model.LockerOccupied, CurrentUserID: "u1"},
	})

	assert.Equal(t, "#1", LockerLabel(model.User{ID: "u1", CurrentLockerID: "l1"}, lockers))
	assert.Equal(t, Placeholder, LockerLabel(model.User{ID: "u2"}, lockers))
	assert.Equal(t, Placeholder, LockerLabel(model.User{ID: "u4", CurrentLockerID: "l5"}, lockers))
}

func TestDescribeActivity(t *testing.T) {
	tests := []struct {
		name string
		log  model.ActivityLog
		want string
	}{
		{"store", model.ActivityLog{Type: model.LogStore, LockerID: "l1", LockerNumber: 1}, "Stored item in locker #1"},
		{"retrieve", model.ActivityLog{Type: model.LogRetrieve, LockerID: "l2", LockerNumber: 2}, "Retrieved item from locker #2"},
		{"retrieve without locker", model.ActivityLog{Type: model.LogRetrieve}, "Retrieved item from locker -"},
		{"register uses details", model.ActivityLog{Type: model.LogRegister, Details: "New user registration via RFID Kiosk"}, "New user registration via RFID Kiosk"},
		{"error ignores locker", model.ActivityLog{Type: model.LogError, LockerNumber: 3, Details: "Failed authentication attempt"}, "Failed authentication attempt"},
		{"missing details", model.ActivityLog{Type: model.LogError}, Placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeActivity(tt.log))
		})
	}
}

func logsAt(stamps ...string) []model.ActivityLog {
	out := make([]model.ActivityLog, 0, len(stamps))
	for i, s := range stamps {
		ts, err := time.Parse(model.TimestampLayout, s)
		if err != nil {
			panic(err)
		}
		out = append(out, model.ActivityLog{ID: string(rune('a' + i)), Type: model.LogStore, Timestamp: ts})
	}
	return out
}

func TestRecentActivity(t *testing.T) {
	logs := logsAt("2023-10-27 10:00:00", "2023-10-27 09:45:00", "2023-10-27 08:30:00", "2023-10-26 14:20:00")

	recent := RecentActivity(logs, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "a", recent[0].ID)
	assert.Equal(t, "c", recent[2].ID)

	recent[0].ID = "changed"
	assert.Equal(t, "a", logs[0].ID)

	assert.Len(t, RecentActivity(logs, 10), 4)
	assert.Len(t, RecentActivity(logs, -1), 4)
	assert.Empty(t, RecentActivity(nil, 3))
}

func TestOrderWarnings(t *testing.T) {
	assert.Nil(t, OrderWarnings(logsAt("2023-10-27 10:00:00", "2023-10-27 09:45:00")))

	warnings := OrderWarnings(logsAt("2023-10-27 09:00:00", "2023-10-27 10:00:00", "2023-10-27 08:00:00"))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "b (2023-10-27 10:00:00)")
	assert.Contains(t, warnings[0], "preceding a")
}

func TestHeaderOf(t *testing.T) {
	h := headerOf("users", model.ViewSnapshot[int]{Phase: model.PhaseIdle})
	assert.Equal(t, ViewHeader{View: "users", Phase: model.PhaseIdle}, h)

	now := time.Now()
	h = headerOf("users", model.ViewSnapshot[int]{
		Phase:     model.PhaseFailed,
		HasData:   true,
		Err:       model.NewTransientError("fetch users", assert.AnError),
		UpdatedAt: now,
	})
	assert.True(t, h.Stale)
	assert.True(t, h.Retryable)
	assert.Contains(t, h.Error, "temporarily unavailable")
	require.NotNil(t, h.UpdatedAt)
	assert.Equal(t, now, *h.UpdatedAt)
}
