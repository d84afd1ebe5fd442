package submit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nixlim/keyprint/internal/capture"
)

// UnknownUser is sent when the user leaves the identifier blank.
const UnknownUser = "unknown"

const (
	// GenericFailure is displayed when either request fails in transport.
	GenericFailure = "Something went wrong."
	// PredictionFailed is displayed when the service returns neither a
	// label nor an error message.
	PredictionFailed = "Prediction failed."
	// EmptySentencePrompt is the validation alert text.
	EmptySentencePrompt = "Please type the sentence before submitting!"
)

var (
	// ErrEmptySentence reports a blank sentence. No request is made.
	ErrEmptySentence = errors.New("sentence is empty")
	// ErrTransport wraps any network or response decoding failure.
	ErrTransport = errors.New("transport failure")
)

// Payload is the body sent, unmodified, to both endpoints.
type Payload struct {
	UserID    string             `json:"user_id"`
	Events    []capture.KeyEvent `json:"events"`
	Timestamp int64              `json:"timestamp"`
}

// NewPayload builds the submission body. Timestamp is epoch milliseconds.
func NewPayload(userID string, events []capture.KeyEvent, now time.Time) Payload {
	if events == nil {
		events = []capture.KeyEvent{}
	}
	return Payload{
		UserID:    userID,
		Events:    events,
		Timestamp: now.UnixMilli(),
	}
}

// ResolveUserID substitutes UnknownUser for a blank identifier.
func ResolveUserID(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return UnknownUser
	}
	return raw
}

// Validate rejects a sentence that is empty after trimming.
func Validate(sentence string) error {
	if strings.TrimSpace(sentence) == "" {
		return ErrEmptySentence
	}
	return nil
}

// Label is a predicted user. The service may answer with a string or with a
// numeric class id; both are kept as their literal text.
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
	case '{', '[':
		return fmt.Errorf("predicted_user must be a string or number, got %s", data)
	default:
		if string(data) == "null" {
			return nil
		}
		*l = Label(data)
	}
	return nil
}

// Prediction is the prediction endpoint's response.
type Prediction struct {
	PredictedUser *Label `json:"predicted_user,omitempty"`
	Error         string `json:"error,omitempty"`
}

// HasUser reports whether the response names a typist.
func (p Prediction) HasUser() bool {
	return p.PredictedUser != nil && *p.PredictedUser != ""
}

// Status classifies how a submission ended.
type Status string

const (
	StatusPredicted       Status = "predicted"
	StatusPredictionError Status = "prediction_error"
	StatusTransportError  Status = "transport_error"
)

// Outcome is what the result display shows after a submission.
type Outcome struct {
	Status    Status
	Message   string
	Predicted string
}

// Delivered reports whether both requests completed. Only delivered
// submissions reset the capture session.
func (o Outcome) Delivered() bool {
	return o.Status != StatusTransportError
}

// Interpret turns a prediction response into display text.
func Interpret(p Prediction) Outcome {
	if p.HasUser() {
		u := string(*p.PredictedUser)
		return Outcome{
			Status:    StatusPredicted,
			Message:   "Predicted User: " + u,
			Predicted: u,
		}
	}
	msg := p.Error
	if msg == "" {
		msg = PredictionFailed
	}
	return Outcome{Status: StatusPredictionError, Message: msg}
}

// TransportFailure is the outcome shown for any transport error.
func TransportFailure() Outcome {
	return Outcome{Status: StatusTransportError, Message: GenericFailure}
}
