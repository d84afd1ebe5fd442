package history

import "time"

// Attempt is one submission as seen by the user: who typed, how many key
// transitions were sent, and what the result display showed.
type Attempt struct {
	ID          int64     `json:"id,omitempty" yaml:"id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	EventCount  int       `json:"event_count" yaml:"event_count"`
	Outcome     string    `json:"outcome" yaml:"outcome"`
	Predicted   string    `json:"predicted,omitempty" yaml:"predicted,omitempty"`
	Message     string    `json:"message" yaml:"message"`
}

// Store records attempts and lists the most recent ones.
type Store interface {
	Record(a Attempt)
	Recent(limit int) []Attempt
	DroppedWrites() int64
	Close() error
}
