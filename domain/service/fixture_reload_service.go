package service

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// FixtureReloadService reloads the development dataset whenever its file changes
type FixtureReloadService struct {
	watcher     outbound.FileWatcher
	source      outbound.FixtureSource
	logger      outbound.Logger
	minInterval time.Duration

	mu          sync.RWMutex
	watchedFile string
	ctx         context.Context
	cancel      context.CancelFunc
	running     bool
	done        chan struct{}
}

func NewFixtureReloadService(
	watcher outbound.FileWatcher,
	source outbound.FixtureSource,
	logger outbound.Logger,
) *FixtureReloadService {
	ctx, cancel := context.WithCancel(context.Background())

	return &FixtureReloadService{
		watcher:     watcher,
		source:      source,
		logger:      logger,
		minInterval: time.Second,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start watches path and processes events until Stop
func (s *FixtureReloadService) Start(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("Fixture reload service already running")
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		s.logger.Error("Failed to get absolute path", "path", path, "error", err)
		return err
	}

	if err := s.watcher.Watch(ctx, absPath); err != nil {
		s.logger.Error("Failed to watch fixture file", "path", absPath, "error", err)
		return err
	}

	s.watchedFile = absPath
	s.running = true
	go s.processEvents()

	s.logger.Info("Watching fixture file", "path", absPath)
	return nil
}

// Stop ends event processing and releases the watcher
func (s *FixtureReloadService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	<-s.done

	if err := s.watcher.Stop(); err != nil {
		s.logger.Error("Error stopping file watcher", "error", err)
		return err
	}

	s.logger.Info("Fixture reload service stopped")
	return nil
}

// IsWatching returns true while the service processes events
func (s *FixtureReloadService) IsWatching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running && s.watcher.IsWatching()
}

func (s *FixtureReloadService) processEvents() {
	defer close(s.done)

	var lastReload time.Time

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			if !s.isFixtureFile(event.FilePath) {
				continue
			}

			// editors often write a file several times in a row
			if time.Since(lastReload) < s.minInterval {
				s.logger.Debug("Skipping fixture event due to rate limiting", "path", event.FilePath)
				continue
			}
			lastReload = time.Now()

			s.reload(event)

		case err, ok := <-s.watcher.Errors():
			if !ok {
				return
			}
			s.logger.Error("File watcher error", "error", err)
		}
	}
}

func (s *FixtureReloadService) isFixtureFile(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return absPath == s.watchedFile
}

func (s *FixtureReloadService) reload(event outbound.FileChangeEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	s.logger.Info("Reloading fixtures", "path", event.FilePath, "type", event.EventType)

	if err := s.source.ReloadFrom(ctx, event.FilePath); err != nil {
		s.logger.Error("Fixture reload failed, keeping current dataset",
			"error", err, "path", event.FilePath)
		return
	}
	s.logger.Info("Fixtures reloaded", "path", event.FilePath)
}
