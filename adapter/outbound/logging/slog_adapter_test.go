package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/GoLockers/config"
)

// syncBuffer is a bytes.Buffer safe for the logger goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Helper to create test config
func createTestConfig(level string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.General.LogLevel = level
	cfg.Logging.ChannelSize = 100
	cfg.Logging.Format = "json"
	cfg.Logging.Output = "stdout"
	return cfg
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		expectError bool
		expectWarn  bool
		expectInfo  bool
		expectDebug bool
	}{
		{"ERROR level - only errors", "ERROR", true, false, false, false},
		{"WARN level - error and warn", "WARN", true, true, false, false},
		{"INFO level - error, warn, info", "INFO", true, true, true, false},
		{"DEBUG level - all messages", "DEBUG", true, true, true, true},
		{"unknown level falls back to INFO", "TRACE", true, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewSlogAdapterWithWriter(createTestConfig(tt.level), &syncBuffer{})
			defer adapter.Shutdown()

			assert.Equal(t, tt.expectError, adapter.shouldLog(LevelError))
			assert.Equal(t, tt.expectWarn, adapter.shouldLog(LevelWarn))
			assert.Equal(t, tt.expectInfo, adapter.shouldLog(LevelInfo))
			assert.Equal(t, tt.expectDebug, adapter.shouldLog(LevelDebug))
		})
	}
}

func TestLogger_WritesStructuredJSON(t *testing.T) {
	out := &syncBuffer{}
	adapter := NewSlogAdapterWithWriter(createTestConfig("INFO"), out)

	adapter.Info("View load failed", "view", "lockers", "seq", 3)
	adapter.Debug("filtered out")
	adapter.Shutdown()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "View load failed", entry["msg"])
	assert.Equal(t, "lockers", entry["view"])
	assert.Equal(t, float64(3), entry["seq"])
}

func TestLogger_TextFormat(t *testing.T) {
	cfg := createTestConfig("DEBUG")
	cfg.Logging.Format = "text"

	out := &syncBuffer{}
	adapter := NewSlogAdapterWithWriter(cfg, out)
	adapter.Warn("Locker occupancy mismatch", "locker", "l3")
	adapter.Shutdown()

	assert.Contains(t, out.String(), "level=WARN")
	assert.Contains(t, out.String(), `msg="Locker occupancy mismatch"`)
	assert.Contains(t, out.String(), "locker=l3")
}

func TestLogger_DynamicLevelChange(t *testing.T) {
	out := &syncBuffer{}
	adapter := NewSlogAdapterWithWriter(createTestConfig("DEBUG"), out)

	adapter.UpdateLevel("ERROR")
	assert.True(t, adapter.shouldLog(LevelError))
	assert.False(t, adapter.shouldLog(LevelWarn))

	adapter.Warn("warn message - should be filtered")
	adapter.Error("error message - should pass")

	adapter.UpdateLevel("Info")
	assert.True(t, adapter.shouldLog(LevelInfo))
	assert.False(t, adapter.shouldLog(LevelDebug))

	adapter.Shutdown()

	assert.NotContains(t, out.String(), "should be filtered")
	assert.Contains(t, out.String(), "should pass")
	assert.Contains(t, out.String(), "Logger level updated dynamically")
}

func TestLogger_ChannelOverflow(t *testing.T) {
	cfg := createTestConfig("DEBUG")
	cfg.Logging.ChannelSize = 1

	adapter := NewSlogAdapterWithWriter(cfg, &syncBuffer{})
	defer adapter.Shutdown()

	// a full queue drops entries instead of blocking
	start := time.Now()
	for i := 0; i < 1000; i++ {
		adapter.Debug("overflow test", "iteration", i)
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestLogger_Shutdown(t *testing.T) {
	out := &syncBuffer{}
	adapter := NewSlogAdapterWithWriter(createTestConfig("DEBUG"), out)

	adapter.Debug("message 1")
	adapter.Info("message 2")

	adapter.Shutdown()
	assert.Contains(t, out.String(), "message 1")
	assert.Contains(t, out.String(), "message 2")

	assert.NotPanics(t, func() {
		adapter.Debug("message after shutdown")
		adapter.Shutdown()
	})
	assert.NotContains(t, out.String(), "message after shutdown")
}

func TestNewSlogAdapter_FileOutput(t *testing.T) {
	cfg := createTestConfig("INFO")
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "golockers.log")

	adapter, err := NewSlogAdapter(cfg)
	require.NoError(t, err)

	adapter.Info("written to file")
	adapter.Shutdown()

	data, err := os.ReadFile(cfg.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewSlogAdapter_BadFilePath(t *testing.T) {
	cfg := createTestConfig("INFO")
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "missing", "dir", "golockers.log")

	_, err := NewSlogAdapter(cfg)
	assert.Error(t, err)
}

func TestLogger_Concurrency(t *testing.T) {
	adapter := NewSlogAdapterWithWriter(createTestConfig("INFO"), &syncBuffer{})
	defer adapter.Shutdown()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		levels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
		for i := 0; i < 20; i++ {
			adapter.UpdateLevel(levels[i%len(levels)])
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			adapter.Info("concurrent message", "iteration", i)
		}
	}()

	wg.Wait()
}

func BenchmarkLogger_Debug(b *testing.B) {
	cfg := createTestConfig("ERROR")
	cfg.Logging.ChannelSize = 1000

	adapter := NewSlogAdapterWithWriter(cfg, &syncBuffer{})
	defer adapter.Shutdown()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			adapter.Debug("benchmark message", "iteration", 1, "key", "value")
		}
	})
}
