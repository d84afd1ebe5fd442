package keysource

import (
	"context"
	"fmt"
	"os"
)

// Evdev reads key transitions from a Linux input device such as
// /dev/input/event3. The process needs read access to the device, which
// usually means membership of the "input" group.
type Evdev struct {
	Device string
}

// Stream reads the device until ctx ends. Closing the device is what
// unblocks a pending read, so cancellation is prompt.
func (e Evdev) Stream(ctx context.Context, emit func(Transition) error) error {
	f, err := os.Open(e.Device)
	if err != nil {
		return fmt.Errorf("opening input device %q: %w", e.Device, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = f.Close()
		case <-done:
		}
	}()
	defer f.Close()

	return readInputEvents(ctx, f, emit)
}
