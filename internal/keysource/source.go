// Package keysource produces key transitions for a capture session.
//
// Sources run outside the UI loop. They hand every transition to an emit
// callback, which is expected to forward it to the goroutine that owns the
// capture session.
package keysource

import (
	"context"
	"errors"

	"github.com/nixlim/keyprint/internal/capture"
)

// ErrUnsupported is returned by sources that cannot run on this platform.
var ErrUnsupported = errors.New("key source not supported on this platform")

// Transition is a key press or release, named the way browsers name keys
// ("a", "A", " ", "Shift", "Backspace", "ArrowLeft", ...).
type Transition struct {
	Key  string
	Type capture.EventType
}

// Source emits transitions until the context ends or the input is exhausted.
type Source interface {
	Stream(ctx context.Context, emit func(Transition) error) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(Transition) error) error

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(Transition) error) error {
	return f(ctx, emit)
}
