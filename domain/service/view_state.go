package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// FetchFunc loads the remote payload of a view
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ViewState drives the Idle -> Loading -> Ready|Failed lifecycle of one view.
//
// At most one fetch runs at a time. Refresh joins a fetch already in flight,
// Reload supersedes it, and a response is only applied if its request is still
// the latest one issued and the view has not been retired.
type ViewState[T any] struct {
	name    string
	fetch   FetchFunc[T]
	logger  outbound.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	snap     model.ViewSnapshot[T]
	seq      uint64
	inflight *pendingFetch
	retired  bool
	updates  chan struct{}
}

type pendingFetch struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewViewState creates an idle view state. A zero timeout disables the per-request deadline.
func NewViewState[T any](
	rootCtx context.Context,
	name string,
	fetch FetchFunc[T],
	logger outbound.Logger,
	timeout time.Duration,
) *ViewState[T] {
	ctx, cancel := context.WithCancel(rootCtx)

	return &ViewState[T]{
		name:    name,
		fetch:   fetch,
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan struct{}, 1),
	}
}

// Refresh starts a fetch unless one is already running, then waits for the
// latest request to settle. The returned error is the load error, if any.
func (v *ViewState[T]) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.retired {
		v.mu.Unlock()
		return model.ErrViewRetired
	}

	p := v.inflight
	if p == nil {
		p = v.startLocked()
	} else {
		v.logger.Debug("Joining in-flight request", "view", v.name, "seq", p.seq)
	}
	v.mu.Unlock()

	return v.await(ctx, p)
}

// Reload cancels any in-flight fetch and issues a new one.
// The superseded response is discarded whenever it arrives.
func (v *ViewState[T]) Reload(ctx context.Context) error {
	v.mu.Lock()
	if v.retired {
		v.mu.Unlock()
		return model.ErrViewRetired
	}

	if v.inflight != nil {
		v.logger.Debug("Superseding in-flight request", "view", v.name, "seq", v.inflight.seq)
		v.inflight.cancel()
	}
	p := v.startLocked()
	v.mu.Unlock()

	return v.await(ctx, p)
}

// Retire cancels the current fetch and drops every later response.
// The updates channel is closed. Calling Retire twice is a no-op.
func (v *ViewState[T]) Retire() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.retired {
		return
	}

	v.retired = true
	v.seq++
	v.inflight = nil
	v.cancel()
	close(v.updates)

	v.logger.Debug("View retired", "view", v.name)
}

// Snapshot returns a copy of the current state
func (v *ViewState[T]) Snapshot() model.ViewSnapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Updates returns a channel signalled after each state change.
// Signals are coalesced: a slow reader sees at least one signal per burst.
func (v *ViewState[T]) Updates() <-chan struct{} {
	return v.updates
}

// Touch signals a change of view-local state (search term, selection)
func (v *ViewState[T]) Touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifyLocked()
}

// Retired reports whether Retire was called
func (v *ViewState[T]) Retired() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.retired
}

func (v *ViewState[T]) startLocked() *pendingFetch {
	v.seq++

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if v.timeout > 0 {
		ctx, cancel = context.WithTimeout(v.ctx, v.timeout)
	} else {
		ctx, cancel = context.WithCancel(v.ctx)
	}

	p := &pendingFetch{
		seq:    v.seq,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	v.inflight = p

	v.snap.Phase = model.PhaseLoading
	v.snap.Err = nil
	v.notifyLocked()

	v.logger.Debug("Request issued", "view", v.name, "seq", p.seq)

	go v.run(ctx, p)

	return p
}

func (v *ViewState[T]) run(ctx context.Context, p *pendingFetch) {
	defer close(p.done)
	defer p.cancel()

	data, err := v.fetch(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = model.NewTransientError(v.name, fmt.Errorf("request timed out after %s: %w", v.timeout, err))
	}

	v.settle(p, data, err)
}

func (v *ViewState[T]) settle(p *pendingFetch, data T, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.retired || v.inflight != p {
		v.logger.Debug("Discarding stale response", "view", v.name, "seq", p.seq, "latest", v.seq)
		return
	}

	v.inflight = nil
	v.snap.Seq = p.seq
	v.snap.UpdatedAt = time.Now()

	if err != nil {
		v.snap.Phase = model.PhaseFailed
		v.snap.Err = err
		v.logger.Warn("View load failed",
			"view", v.name, "seq", p.seq, "error", err, "keepsData", v.snap.HasData)
	} else {
		v.snap.Phase = model.PhaseReady
		v.snap.Data = data
		v.snap.HasData = true
		v.snap.Err = nil
	}

	v.notifyLocked()
}

// await blocks until the latest request settles, following supersessions
func (v *ViewState[T]) await(ctx context.Context, p *pendingFetch) error {
	for {
		select {
		case <-p.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		v.mu.Lock()
		if v.retired {
			v.mu.Unlock()
			return model.ErrViewRetired
		}
		next := v.inflight
		err := v.snap.Err
		v.mu.Unlock()

		if next == nil {
			return err
		}
		p = next
	}
}

func (v *ViewState[T]) notifyLocked() {
	if v.retired {
		return
	}
	select {
	case v.updates <- struct{}{}:
	default:
	}
}
