package filewatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// DefaultDebounce groups the burst of writes an editor emits on save
const DefaultDebounce = 500 * time.Millisecond

// FsWatcher watches fixture files through their parent directory and reports
// debounced create/modify events for the watched files only.
type FsWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	events  chan outbound.FileChangeEvent
	errors  chan error
	pending chan fsnotify.Event

	mu      sync.RWMutex
	timers  map[string]*time.Timer
	dirs    map[string]bool
	files   map[string]bool
	running bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ outbound.FileWatcher = (*FsWatcher)(nil)

func NewFSWatcher(debounce time.Duration) (*FsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FsWatcher{
		watcher:  w,
		debounce: debounce,
		events:   make(chan outbound.FileChangeEvent, 64),
		errors:   make(chan error, 16),
		pending:  make(chan fsnotify.Event, 64),
		timers:   make(map[string]*time.Timer),
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}

	fw.wg.Add(2)
	go fw.filterEvents()
	go fw.forwardEvents()

	return fw, nil
}

// Watch starts reporting changes of the file at path
func (fw *FsWatcher) Watch(ctx context.Context, path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return fmt.Errorf("watcher already stopped")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	// editors replace files on save, so the directory is watched instead
	dir := filepath.Dir(absPath)
	if !fw.dirs[dir] {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.dirs[dir] = true
	}

	fw.files[absPath] = true
	fw.running = true
	return nil
}

// Stop releases the watcher and closes the event channels. Later calls are no-ops.
func (fw *FsWatcher) Stop() error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.stopped = true
	fw.running = false
	fw.cancel()
	fw.stopTimersLocked()
	fw.mu.Unlock()

	err := fw.watcher.Close()

	fw.wg.Wait()
	close(fw.events)
	close(fw.errors)

	if err != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}
	return nil
}

func (fw *FsWatcher) Events() <-chan outbound.FileChangeEvent {
	return fw.events
}

func (fw *FsWatcher) Errors() <-chan error {
	return fw.errors
}

func (fw *FsWatcher) IsWatching() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

// GetWatchedPaths returns the watched directories
func (fw *FsWatcher) GetWatchedPaths() []string {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	paths := make([]string, 0, len(fw.dirs))
	for path := range fw.dirs {
		paths = append(paths, path)
	}
	return paths
}

// filterEvents keeps Write/Create events of watched files and debounces them
func (fw *FsWatcher) filterEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if fw.isWatchedFile(event.Name) {
				fw.debounceEvent(event)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			case <-fw.ctx.Done():
				return
			}
		}
	}
}

func (fw *FsWatcher) forwardEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event := <-fw.pending:
			select {
			case fw.events <- convertEvent(event):
			case <-fw.ctx.Done():
				return
			}
		}
	}
}

func (fw *FsWatcher) isWatchedFile(name string) bool {
	absPath, err := filepath.Abs(name)
	if err != nil {
		return false
	}

	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.files[absPath]
}

// debounceEvent restarts the per-file timer, only the last event of a burst is kept
func (fw *FsWatcher) debounceEvent(event fsnotify.Event) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return
	}

	if timer, exists := fw.timers[event.Name]; exists {
		timer.Stop()
	}

	fw.timers[event.Name] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, event.Name)
		fw.mu.Unlock()

		select {
		case fw.pending <- event:
		case <-fw.ctx.Done():
		}
	})
}

func (fw *FsWatcher) stopTimersLocked() {
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.timers = make(map[string]*time.Timer)
}

func convertEvent(event fsnotify.Event) outbound.FileChangeEvent {
	eventType := "modify"
	if event.Has(fsnotify.Create) {
		eventType = "create"
	}

	return outbound.FileChangeEvent{
		FilePath:  event.Name,
		EventType: eventType,
	}
}
