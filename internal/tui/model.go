package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/keyprint/internal/capture"
	"github.com/nixlim/keyprint/internal/config"
	"github.com/nixlim/keyprint/internal/history"
	"github.com/nixlim/keyprint/internal/keysource"
	"github.com/nixlim/keyprint/internal/submit"
)

//go:generate mockgen -destination=sender_mock_test.go -package=tui github.com/nixlim/keyprint/internal/tui Sender

type ViewState int

const (
	ViewCapture ViewState = iota
	ViewHistory
)

type Focus int

const (
	FocusUserID Focus = iota
	FocusSentence
)

// Sender prepares and delivers submissions. *submit.Submitter implements it.
type Sender interface {
	Prepare(form submit.Form, events []capture.KeyEvent) (submit.Payload, error)
	Deliver(ctx context.Context, p submit.Payload) (submit.Outcome, error)
}

type HistoryProvider interface {
	Recent(limit int) []history.Attempt
	DroppedWrites() int64
}

// TransitionMsg carries a key transition from a background source into the
// update loop, which is the only place the session is touched.
type TransitionMsg keysource.Transition

// SourceErrMsg reports that a background key source stopped.
type SourceErrMsg struct {
	Err error
}

type submitResultMsg struct {
	outcome submit.Outcome
	err     error
}

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg config.Config

	session *capture.Session
	sender  Sender
	history HistoryProvider

	// recordTerminal is false when an external source (evdev) feeds the
	// session, so terminal keys only edit the fields.
	recordTerminal bool
	isPersistent   bool

	userID   textinput.Model
	sentence textinput.Model
	focus    Focus

	result       string
	resultStatus submit.Status
	alert        string
	inFlight     int
	sourceStatus string

	historyScrollPos int

	onShutdown func()
}

type ModelOption func(*Model)

func WithSession(s *capture.Session) ModelOption {
	return func(m *Model) { m.session = s }
}

func WithHistoryProvider(h HistoryProvider) ModelOption {
	return func(m *Model) { m.history = h }
}

func WithStartView(v ViewState) ModelOption {
	return func(m *Model) { m.view = v }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func WithPersistenceFlag(isPersistent bool) ModelOption {
	return func(m *Model) { m.isPersistent = isPersistent }
}

func NewModel(cfg config.Config, sender Sender, opts ...ModelOption) Model {
	userID := textinput.New()
	userID.Placeholder = "your name (optional)"
	userID.Prompt = ""
	userID.CharLimit = 64

	sentence := textinput.New()
	sentence.Placeholder = "type the sentence here"
	sentence.Prompt = ""

	m := Model{
		view:           ViewCapture,
		keys:           DefaultKeyMap(),
		cfg:            cfg,
		sender:         sender,
		recordTerminal: cfg.Capture.Source != config.SourceEvdev,
		userID:         userID,
		sentence:       sentence,
		focus:          FocusSentence,
	}

	for _, opt := range opts {
		opt(&m)
	}
	if m.session == nil {
		m.session = capture.NewSession()
	}
	m.applyFocus()

	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Events returns a snapshot of the recorded transitions.
func (m Model) Events() []capture.KeyEvent {
	return m.session.Events()
}

// Result returns the text of the result line.
func (m Model) Result() string {
	return m.result
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		fieldW := msg.Width - 14
		if fieldW < 10 {
			fieldW = 10
		}
		m.userID.Width = fieldW
		m.sentence.Width = fieldW
		return m, nil

	case TransitionMsg:
		m.session.Record(msg.Type, msg.Key)
		return m, nil

	case SourceErrMsg:
		if msg.Err != nil {
			m.sourceStatus = "key source stopped: " + msg.Err.Error()
		}
		return m, nil

	case submitResultMsg:
		return m.applyResult(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m, cmd = m.updateFocused(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit
	}

	if m.alert != "" {
		if key.Matches(msg, m.keys.Dismiss) {
			m.alert = ""
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.ToggleView) {
		if m.view == ViewCapture {
			m.view = ViewHistory
			m.historyScrollPos = 0
		} else {
			m.view = ViewCapture
		}
		return m, nil
	}

	if m.view == ViewHistory {
		return m.handleHistoryKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		if m.focus == FocusUserID {
			m.focus = FocusSentence
		} else {
			m.focus = FocusUserID
		}
		return m, m.applyFocus()
	}

	if m.recordTerminal {
		for _, tr := range keysource.TerminalTransitions(msg) {
			m.session.Record(tr.Type, tr.Key)
		}
	}

	var cmd tea.Cmd
	m, cmd = m.updateFocused(msg)
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.historyScrollPos > 0 {
			m.historyScrollPos--
		}
	case key.Matches(msg, m.keys.Down):
		m.historyScrollPos++
	}
	return m, nil
}

func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == FocusUserID {
		m.userID, cmd = m.userID.Update(msg)
	} else {
		m.sentence, cmd = m.sentence.Update(msg)
	}
	return m, cmd
}

func (m *Model) applyFocus() tea.Cmd {
	if m.focus == FocusUserID {
		m.sentence.Blur()
		return m.userID.Focus()
	}
	m.userID.Blur()
	return m.sentence.Focus()
}

// submit validates synchronously and delivers in a command. The payload is
// built before the command runs, so keys typed while it is in flight are not
// part of it.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.sender == nil {
		m.result = submit.GenericFailure
		m.resultStatus = submit.StatusTransportError
		return m, nil
	}

	form := submit.Form{UserID: m.userID.Value(), Sentence: m.sentence.Value()}
	p, err := m.sender.Prepare(form, m.session.Events())
	if err != nil {
		if errors.Is(err, submit.ErrEmptySentence) {
			m.alert = submit.EmptySentencePrompt
			return m, nil
		}
		m.result = err.Error()
		m.resultStatus = submit.StatusPredictionError
		return m, nil
	}

	m.inFlight++
	sender := m.sender
	return m, func() tea.Msg {
		out, err := sender.Deliver(context.Background(), p)
		return submitResultMsg{outcome: out, err: err}
	}
}

// applyResult shows the outcome. Only a delivered submission clears the
// capture buffer and the sentence field; after a transport failure both are
// kept so the user can resubmit.
func (m Model) applyResult(msg submitResultMsg) Model {
	if m.inFlight > 0 {
		m.inFlight--
	}

	if msg.err != nil || !msg.outcome.Delivered() {
		m.result = submit.GenericFailure
		m.resultStatus = submit.StatusTransportError
		return m
	}

	m.result = msg.outcome.Message
	m.resultStatus = msg.outcome.Status
	m.session.Reset()
	m.sentence.SetValue("")
	return m
}

func (m Model) headerIndicators() string {
	var parts []string
	if !m.isPersistent {
		parts = append(parts, "[No persistence]")
	}
	if m.history != nil && m.history.DroppedWrites() > 0 {
		parts = append(parts, "[!] Writes dropped")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + dimStyle.Render(strings.Join(parts, " "))
}

func (m Model) View() string {
	if m.quitting {
		return "Bye.\n"
	}

	var output string
	switch m.view {
	case ViewCapture:
		output = m.renderCapture()
	case ViewHistory:
		output = m.renderHistory()
	}

	if m.alert != "" {
		output = m.overlayAlert(output)
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
