package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajkula/GoLockers/config"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// represents a single log entry to be processed asynchronously
type LogMessage struct {
	Level LogLevel
	Msg   string
	Args  []any
	Time  time.Time
}

// SlogAdapter implements the Logger port on top of log/slog.
// Entries go through a buffered channel so view goroutines never block on I/O.
type SlogAdapter struct {
	logger    *slog.Logger
	logChan   chan LogMessage
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	slogLevel *slog.LevelVar
	closer    io.Closer
	dropped   atomic.Uint64
	once      sync.Once
}

var _ outbound.Logger = (*SlogAdapter)(nil)

// NewSlogAdapter builds a logger writing to the output named in the configuration
func NewSlogAdapter(cfg *config.Config) (*SlogAdapter, error) {
	var (
		w      io.Writer
		closer io.Closer
	)

	switch cfg.Logging.Output {
	case "stderr":
		w = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.Logging.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	default:
		w = os.Stdout
	}

	adapter := NewSlogAdapterWithWriter(cfg, w)
	adapter.closer = closer
	return adapter, nil
}

// NewSlogAdapterWithWriter builds a logger writing to w
func NewSlogAdapterWithWriter(cfg *config.Config, w io.Writer) *SlogAdapter {
	ctx, cancel := context.WithCancel(context.Background())

	// LevelVar allows level changes without rebuilding the handler
	levelVar := &slog.LevelVar{}
	levelVar.Set(parseSlogLevel(cfg.General.LogLevel))

	handlerOpts := &slog.HandlerOptions{
		Level: levelVar,
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	size := cfg.Logging.ChannelSize
	if size <= 0 {
		size = 1
	}

	adapter := &SlogAdapter{
		logger:    slog.New(handler),
		logChan:   make(chan LogMessage, size),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		slogLevel: levelVar,
	}

	go adapter.processLogs()

	return adapter
}

// UpdateLevel changes the minimum level at runtime
func (s *SlogAdapter) UpdateLevel(logLvl string) {
	normalizedLevel := strings.ToLower(logLvl)
	s.slogLevel.Set(parseSlogLevel(normalizedLevel))

	s.Info("Logger level updated dynamically", "new_level", normalizedLevel)
}

// Dropped returns the number of entries lost because the queue was full
func (s *SlogAdapter) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *SlogAdapter) processLogs() {
	defer close(s.done)

	for {
		select {
		case msg := <-s.logChan:
			s.writeLog(msg)
		case <-s.ctx.Done():
			for {
				select {
				case msg := <-s.logChan:
					s.writeLog(msg)
				default:
					return
				}
			}
		}
	}
}

// converts string level to slog.Level, unknown levels map to info
func parseSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *SlogAdapter) writeLog(msg LogMessage) {
	var level slog.Level
	switch msg.Level {
	case LevelError:
		level = slog.LevelError
	case LevelWarn:
		level = slog.LevelWarn
	case LevelInfo:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}

	// keep the time of the call, not the time of the write
	r := slog.NewRecord(msg.Time, level, msg.Msg, 0)
	r.Add(msg.Args...)
	_ = s.logger.Handler().Handle(context.Background(), r)
}

func (s *SlogAdapter) sendLog(level LogLevel, msg string, args ...any) {
	if s.ctx.Err() != nil {
		return
	}

	select {
	case s.logChan <- LogMessage{
		Level: level,
		Msg:   msg,
		Args:  args,
		Time:  time.Now(),
	}:
	default:
		s.dropped.Add(1)
	}
}

func (s *SlogAdapter) shouldLog(level LogLevel) bool {
	current := s.slogLevel.Level()

	switch level {
	case LevelError:
		return current <= slog.LevelError
	case LevelWarn:
		return current <= slog.LevelWarn
	case LevelInfo:
		return current <= slog.LevelInfo
	default:
		return current <= slog.LevelDebug
	}
}

func (s *SlogAdapter) Error(msg string, args ...any) {
	if !s.shouldLog(LevelError) {
		return
	}
	s.sendLog(LevelError, msg, args...)
}

func (s *SlogAdapter) Warn(msg string, args ...any) {
	if !s.shouldLog(LevelWarn) {
		return
	}
	s.sendLog(LevelWarn, msg, args...)
}

func (s *SlogAdapter) Info(msg string, args ...any) {
	if !s.shouldLog(LevelInfo) {
		return
	}
	s.sendLog(LevelInfo, msg, args...)
}

func (s *SlogAdapter) Debug(msg string, args ...any) {
	if !s.shouldLog(LevelDebug) {
		return
	}
	s.sendLog(LevelDebug, msg, args...)
}

// Shutdown drains the queue and closes the log file, if any
func (s *SlogAdapter) Shutdown() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		if s.closer != nil {
			_ = s.closer.Close()
		}
	})
}
