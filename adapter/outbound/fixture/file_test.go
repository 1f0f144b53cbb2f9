package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/GoLockers/domain/model"
)

func TestSaveAndLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures", "lockers.yaml")

	require.NoError(t, SaveDataset(path, DefaultDataset()))

	loaded, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDataset(), loaded)
}

func TestLoadDataset_Content(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockers.yaml")
	content := `
admin:
  name: Ops
  role: Admin
users:
  - id: u1
    uid: RFID-1
    name: Ani
    status: Active
    currentLockerId: l7
lockers:
  - id: l7
    number: 7
    status: Occupied
    currentUserId: u1
    lastUpdated: "2024-01-02 09:30:00"
logs:
  - id: a1
    type: Store
    timestamp: "2024-01-02 09:30:00"
    userId: u1
    userName: Ani
    lockerId: l7
    lockerNumber: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	d, err := LoadDataset(path)
	require.NoError(t, err)

	require.Len(t, d.Lockers, 1)
	assert.Equal(t, model.LockerOccupied, d.Lockers[0].Status)
	assert.Equal(t, 9, d.Lockers[0].LastUpdated.Hour())
	assert.Equal(t, 30, d.Logs[0].Timestamp.Minute())
	assert.True(t, d.Users[0].LastActive.IsZero())
}

func TestLoadDataset_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "users: [", "failed to parse fixture file"},
		{"bad timestamp", "logs:\n  - id: a1\n    type: Store\n    timestamp: yesterday\n", "timestamp"},
		{"unknown status", "lockers:\n  - id: l1\n    number: 1\n    status: Broken\n", "unknown status"},
		{"missing identity", "users:\n  - name: Nobody\n    status: Active\n", "failed required"},
		{"duplicate number", "lockers:\n  - id: l1\n    number: 1\n    status: Available\n  - id: l2\n    number: 1\n    status: Available\n", "duplicate number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lockers.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadDataset(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read fixture file")
}

func TestBackend_ReloadFrom(t *testing.T) {
	b := newTestBackend()
	path := filepath.Join(t.TempDir(), "lockers.yaml")

	d := DefaultDataset()
	d.Lockers = d.Lockers[:6]
	require.NoError(t, SaveDataset(path, d))

	require.NoError(t, b.ReloadFrom(context.Background(), path))

	lockers, err := b.FetchLockers(context.Background())
	require.NoError(t, err)
	assert.Len(t, lockers, 6)

	// an invalid file keeps the current dataset
	require.NoError(t, os.WriteFile(path, []byte("lockers: ["), 0644))
	assert.Error(t, b.ReloadFrom(context.Background(), path))

	lockers, err = b.FetchLockers(context.Background())
	require.NoError(t, err)
	assert.Len(t, lockers, 6)
}
