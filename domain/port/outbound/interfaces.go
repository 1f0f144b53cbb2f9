package outbound

import (
	"context"
)

// Logger defines the interface for structured logging operations.
// Methods are designed to be asynchronous to avoid hot path pollution.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// FixtureSource is a development backend whose dataset can be reloaded from disk
type FixtureSource interface {
	// ReloadFrom replaces the served dataset with the content of path.
	// The current dataset is kept when the file is invalid.
	ReloadFrom(ctx context.Context, path string) error
}
