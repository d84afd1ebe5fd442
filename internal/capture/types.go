package capture

import "fmt"

// EventType distinguishes key presses from key releases.
type EventType string

const (
	Down EventType = "down"
	Up   EventType = "up"
)

// ParseEventType converts a wire value into an EventType.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case Down, Up:
		return EventType(s), nil
	default:
		return "", fmt.Errorf("unknown key event type %q", s)
	}
}

// KeyEvent is one recorded key transition. T is the elapsed time in
// milliseconds since the first event of the capture session.
type KeyEvent struct {
	Key  string    `json:"key" yaml:"key"`
	T    float64   `json:"t" yaml:"t"`
	Type EventType `json:"type" yaml:"type"`
}
