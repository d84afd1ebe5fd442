package submit

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Logger provides structured debug logging of submissions.
// Implementations must be safe for concurrent use.
type Logger interface {
	// LogPayload logs a payload as it is sent.
	LogPayload(p Payload)

	// LogOutcome logs how a submission ended.
	LogOutcome(p Payload, o Outcome, err error)
}

// NopLogger discards all log output. This is the default when debug logging
// is not enabled.
type NopLogger struct{}

// LogPayload is a no-op.
func (NopLogger) LogPayload(Payload) {}

// LogOutcome is a no-op.
func (NopLogger) LogOutcome(Payload, Outcome, error) {}

// logEntry is the JSON structure written by FileLogger.
type logEntry struct {
	Timestamp string   `json:"ts"`
	Type      string   `json:"type"`
	UserID    string   `json:"user_id"`
	Submitted int64    `json:"submitted"`
	Events    int      `json:"events"`
	Payload   *Payload `json:"payload,omitempty"`
	Status    Status   `json:"status,omitempty"`
	Message   string   `json:"message,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// FileLogger writes JSONL debug output to an io.Writer. Each line is a
// complete JSON object.
type FileLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewFileLogger creates a FileLogger that writes to the given writer.
func NewFileLogger(w io.Writer) *FileLogger {
	return &FileLogger{w: w, now: time.Now}
}

// LogPayload writes the full payload, events included.
func (l *FileLogger) LogPayload(p Payload) {
	l.write(logEntry{
		Type:      "payload",
		UserID:    p.UserID,
		Submitted: p.Timestamp,
		Events:    len(p.Events),
		Payload:   &p,
	})
}

// LogOutcome writes the displayed outcome and any transport error.
func (l *FileLogger) LogOutcome(p Payload, o Outcome, err error) {
	entry := logEntry{
		Type:      "outcome",
		UserID:    p.UserID,
		Submitted: p.Timestamp,
		Events:    len(p.Events),
		Status:    o.Status,
		Message:   o.Message,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// write serialises a logEntry as a single line. Serialisation errors are
// dropped so that debug logging never disturbs a submission.
func (l *FileLogger) write(entry logEntry) {
	entry.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s\n", data)
}
