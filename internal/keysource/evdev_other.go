//go:build !linux

package keysource

import "context"

// Evdev reads key transitions from a Linux input device. It is unavailable
// on this platform.
type Evdev struct {
	Device string
}

// Stream always returns ErrUnsupported.
func (e Evdev) Stream(context.Context, func(Transition) error) error {
	return ErrUnsupported
}
