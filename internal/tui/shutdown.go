package tui

import (
	"context"
	"log/slog"
	"time"
)

// ShutdownManager stops keyprint's background parts in order: the key
// source first, then the history store, then anything else.
type ShutdownManager struct {
	// DrainTimeout bounds how long CloseHistory may take to flush.
	DrainTimeout time.Duration

	// StopSource stops a background key source.
	StopSource func()

	// CloseHistory flushes and closes the attempt history.
	CloseHistory func() error

	// Cleanup closes log files and similar resources.
	Cleanup func()
}

// NewShutdownManager creates a ShutdownManager with a 5-second drain timeout.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		DrainTimeout: 5 * time.Second,
	}
}

// Shutdown runs the configured steps. A history store that does not finish
// flushing within DrainTimeout is abandoned and reported.
func (sm *ShutdownManager) Shutdown() error {
	if sm.StopSource != nil {
		sm.StopSource()
	}

	var err error
	if sm.CloseHistory != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sm.DrainTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- sm.CloseHistory() }()

		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
			slog.Warn("history did not flush before shutdown", "timeout", sm.DrainTimeout)
		}
	}

	if sm.Cleanup != nil {
		sm.Cleanup()
	}

	return err
}
