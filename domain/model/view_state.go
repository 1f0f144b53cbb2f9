package model

import (
	"fmt"
	"time"
)

// Phase is the lifecycle stage of a view's remote data
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseLoading, PhaseReady, PhaseFailed} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// ViewSnapshot is a point-in-time copy of a view's state.
// Data holds the last successfully loaded payload whenever HasData is true,
// including while a refresh is loading or after it failed.
type ViewSnapshot[T any] struct {
	Phase     Phase
	Data      T
	HasData   bool
	Err       error
	Seq       uint64
	UpdatedAt time.Time
}

// Stale reports whether the snapshot shows data from an earlier successful load
func (s ViewSnapshot[T]) Stale() bool {
	return s.HasData && s.Phase != PhaseReady
}

// CommandPhase tracks an administrative command from submission to outcome
type CommandPhase int

const (
	CommandIdle CommandPhase = iota
	CommandPending
	CommandConfirmed
	CommandRejected
)

func (p CommandPhase) String() string {
	switch p {
	case CommandIdle:
		return "idle"
	case CommandPending:
		return "pending"
	case CommandConfirmed:
		return "confirmed"
	case CommandRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (p CommandPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *CommandPhase) UnmarshalText(text []byte) error {
	for _, candidate := range []CommandPhase{CommandIdle, CommandPending, CommandConfirmed, CommandRejected} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown command phase %q", text)
}

// CommandState is the force-open sub-state of the lockers view
type CommandState struct {
	Phase    CommandPhase `json:"phase"`
	LockerID string       `json:"lockerId,omitempty"`
	Err      error        `json:"-"`
}
