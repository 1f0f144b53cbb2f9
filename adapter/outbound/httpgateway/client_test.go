package httpgateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/GoLockers/adapter/inbound/rest"
	"github.com/ajkula/GoLockers/adapter/outbound/fixture"
	"github.com/ajkula/GoLockers/domain/model"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Info(msg string, args ...any)  {}
func (l *recordingLogger) Error(msg string, args ...any) {}
func (l *recordingLogger) Debug(msg string, args ...any) {}
func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func testOptions() Options {
	return Options{
		Timeout:        time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		Breaker:        BreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Hour},
	}
}

// newBackendServer serves the fixture backend through the REST adapter
func newBackendServer(t *testing.T) (*fixture.Backend, *Client) {
	t.Helper()

	backend := fixture.NewBackend(fixture.DefaultDataset(), fixture.Latency{}, &recordingLogger{})
	router := mux.NewRouter()
	rest.NewHandler(backend, &recordingLogger{}, nil).SetupRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, server.Client(), testOptions(), &recordingLogger{})
	require.NoError(t, err)
	return backend, client
}

func newScriptedServer(t *testing.T, handler http.HandlerFunc) (*Client, *recordingLogger) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := &recordingLogger{}
	client, err := NewClient(server.URL, server.Client(), testOptions(), logger)
	require.NoError(t, err)
	return client, logger
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://lockers", nil, DefaultOptions(), &recordingLogger{})
	assert.Error(t, err)

	_, err = NewClient("://", nil, DefaultOptions(), &recordingLogger{})
	assert.Error(t, err)
}

func TestClient_ReadsFromBackend(t *testing.T) {
	_, client := newBackendServer(t)
	ctx := context.Background()

	stats, err := client.FetchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Occupied)
	assert.Equal(t, 12, stats.TotalLockers())

	lockers, err := client.FetchLockers(ctx)
	require.NoError(t, err)
	require.Len(t, lockers, 12)
	assert.Equal(t, "u1", lockers[0].CurrentUserID)

	users, err := client.FetchUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	logs, err := client.FetchActivityLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 5)
	assert.Empty(t, model.OrderViolations(logs))

	profile, err := client.FetchAdminProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", profile.Name)
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestClient_ForceOpen(t *testing.T) {
	backend, client := newBackendServer(t)
	ctx := context.Background()

	ok, err := client.ForceOpenLocker(ctx, "l5")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.LockerAvailable, backend.Dataset().Lockers[4].Status)

	tests := []struct {
		name   string
		locker string
		want   error
	}{
		{"already freed", "l5", model.ErrLockerNotOccupied},
		{"unknown", "l77", model.ErrLockerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := client.ForceOpenLocker(ctx, tt.locker)
			assert.False(t, ok)
			assert.True(t, model.IsCommandError(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_ForceOpenIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ok, err := client.ForceOpenLocker(context.Background(), "l1")
	assert.False(t, ok)
	assert.True(t, model.IsCommandError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ForceOpenSuccessFalse(t *testing.T) {
	client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/lockers/l1/force-open", r.URL.Path)
		w.Write([]byte(`{"success":false}`))
	})

	ok, err := client.ForceOpenLocker(context.Background(), "l1")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		status    int
		wantErr   bool
		wantCalls int32
	}{
		{"recovers after 5xx", 2, http.StatusBadGateway, false, 3},
		{"recovers after 429", 1, http.StatusTooManyRequests, false, 2},
		{"gives up after max retries", 10, http.StatusInternalServerError, true, 3},
		{"4xx is not retried", 10, http.StatusNotFound, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(tt.status)
					return
				}
				w.Write([]byte(`{"users":5,"occupied":1,"available":3,"maintenance":0}`))
			})

			stats, err := client.FetchStats(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, model.IsTransient(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, stats.Occupied)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_TimeoutIsTransient(t *testing.T) {
	client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.opts.Timeout = 20 * time.Millisecond
	client.opts.MaxRetries = 0

	_, err := client.FetchLockers(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsTransient(err))
}

func TestClient_BreakerFailsFast(t *testing.T) {
	var calls atomic.Int32
	client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client.opts.MaxRetries = 0

	for i := 0; i < 3; i++ {
		_, err := client.FetchUsers(context.Background())
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, client.BreakerState())

	_, err := client.FetchUsers(context.Background())
	assert.True(t, model.IsTransient(err))
	assert.ErrorIs(t, err, model.ErrBackendUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load(), "open breaker does not reach the backend")
}

func TestClient_DropsInvalidEntities(t *testing.T) {
	client, logger := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/lockers":
			w.Write([]byte(`[
				{"id":"l3","number":3,"status":"Available"},
				{"id":"","number":4,"status":"Available"},
				{"id":"l1","number":1,"status":"Occupied","currentUserId":"u1"},
				{"id":"l9","number":0,"status":"Available"}
			]`))
		case "/api/logs":
			w.Write([]byte(`[
				{"id":"a1","type":"Store","timestamp":"2023-10-27T09:00:00Z"},
				{"id":"a2","type":"Store","timestamp":"2023-10-27T10:00:00Z"},
				{"type":"Error","timestamp":"2023-10-27T08:00:00Z"}
			]`))
		}
	})

	lockers, err := client.FetchLockers(context.Background())
	require.NoError(t, err)
	require.Len(t, lockers, 2)
	assert.Equal(t, "l1", lockers[0].ID, "re-sorted by number")
	assert.Equal(t, "l3", lockers[1].ID)

	// backend order is kept so the violation stays visible
	logs, err := client.FetchActivityLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, []int{1}, model.OrderViolations(logs))

	assert.Len(t, logger.warnings(), 3)
}

func TestClient_CallerCancellation(t *testing.T) {
	client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.FetchStats(ctx)
	require.Error(t, err)
	assert.True(t, model.IsTransient(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_CancelledReadsKeepBreakerClosed(t *testing.T) {
	_, client := newBackendServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := client.FetchStats(ctx)
		require.Error(t, err)
		assert.True(t, model.IsTransient(err))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())

	stats, err := client.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Occupied)
}

func TestClient_ReadsAbortedInFlightKeepBreakerClosed(t *testing.T) {
	var hang atomic.Bool
	hang.Store(true)
	client, _ := newScriptedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if hang.Load() {
			<-r.Context().Done()
			return
		}
		w.Write([]byte(`{"users":5,"occupied":2,"available":9,"maintenance":1}`))
	})

	// superseded or retired views cancel their fetch mid-flight
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := client.FetchStats(ctx)
		cancel()
		require.Error(t, err)
		assert.False(t, errors.Is(err, model.ErrBackendUnavailable))
	}
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())

	hang.Store(false)
	stats, err := client.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Available)
}
