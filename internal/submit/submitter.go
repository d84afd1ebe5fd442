package submit

import (
	"context"
	"log/slog"
	"time"

	"github.com/nixlim/keyprint/internal/capture"
	"github.com/nixlim/keyprint/internal/history"
)

// Sender delivers a payload to the remote service.
type Sender interface {
	Send(ctx context.Context, p Payload) (Prediction, error)
}

// AttemptRecorder receives one record per delivered or failed submission.
type AttemptRecorder interface {
	Record(a history.Attempt)
}

// Form is the user's input at the moment of submission.
type Form struct {
	UserID   string
	Sentence string
}

// Submitter validates input, builds payloads, delivers them and turns the
// response into display text. It never touches the capture session; the
// owner of the session applies the reset rules using Outcome.Delivered.
type Submitter struct {
	sender  Sender
	logger  Logger
	history AttemptRecorder
	now     func() time.Time
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(s *Submitter) { s.logger = l }
}

// WithHistory records every delivery attempt.
func WithHistory(h AttemptRecorder) Option {
	return func(s *Submitter) { s.history = h }
}

// WithNow overrides the submission clock.
func WithNow(now func() time.Time) Option {
	return func(s *Submitter) { s.now = now }
}

// New creates a Submitter that delivers through sender.
func New(sender Sender, opts ...Option) *Submitter {
	s := &Submitter{
		sender: sender,
		logger: NopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare validates the form and snapshots events into a payload. A blank
// sentence returns ErrEmptySentence and no payload.
func (s *Submitter) Prepare(form Form, events []capture.KeyEvent) (Payload, error) {
	if err := Validate(form.Sentence); err != nil {
		return Payload{}, err
	}
	snapshot := make([]capture.KeyEvent, len(events))
	copy(snapshot, events)
	return NewPayload(ResolveUserID(form.UserID), snapshot, s.now()), nil
}

// Deliver sends a prepared payload and interprets the response. A transport
// failure yields the generic failure outcome along with the error.
func (s *Submitter) Deliver(ctx context.Context, p Payload) (Outcome, error) {
	s.logger.LogPayload(p)

	pred, err := s.sender.Send(ctx, p)

	var outcome Outcome
	if err != nil {
		outcome = TransportFailure()
		slog.Warn("submission failed", "user_id", p.UserID, "events", len(p.Events), "err", err)
	} else {
		outcome = Interpret(pred)
		slog.Info("submission delivered", "user_id", p.UserID, "events", len(p.Events), "status", outcome.Status)
	}

	s.logger.LogOutcome(p, outcome, err)
	if s.history != nil {
		s.history.Record(history.Attempt{
			SubmittedAt: time.UnixMilli(p.Timestamp).UTC(),
			UserID:      p.UserID,
			EventCount:  len(p.Events),
			Outcome:     string(outcome.Status),
			Predicted:   outcome.Predicted,
			Message:     outcome.Message,
		})
	}

	return outcome, err
}

// Submit runs Prepare and Deliver.
func (s *Submitter) Submit(ctx context.Context, form Form, events []capture.KeyEvent) (Outcome, error) {
	p, err := s.Prepare(form, events)
	if err != nil {
		return Outcome{}, err
	}
	return s.Deliver(ctx, p)
}
