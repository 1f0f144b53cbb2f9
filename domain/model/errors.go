package model

import (
	"errors"
	"fmt"
)

var (
	ErrLockerNotFound     = errors.New("locker not found")
	ErrLockerNotOccupied  = errors.New("locker is not occupied")
	ErrCommandRejected    = errors.New("command rejected by backend")
	ErrCommandPending     = errors.New("a command is already pending")
	ErrNoSelection        = errors.New("no locker selected")
	ErrViewRetired        = errors.New("view retired")
	ErrUnknownView        = errors.New("unknown view")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// TransientError is a read failure that may succeed on retry
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// CommandError reports a rejected or failed administrative command
type CommandError struct {
	Op       string
	LockerID string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.LockerID, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ValidationError reports a malformed or inconsistent entity
type ValidationError struct {
	Entity string
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %s: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %s: %s: %s", e.Entity, e.ID, e.Field, e.Reason)
}

// NewTransientError wraps err unless it is already transient
func NewTransientError(op string, err error) error {
	if err == nil {
		return nil
	}
	var t *TransientError
	if errors.As(err, &t) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func IsCommandError(err error) bool {
	var c *CommandError
	return errors.As(err, &c)
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
