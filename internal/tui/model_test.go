package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/mock/gomock"

	"github.com/nixlim/keyprint/internal/capture"
	"github.com/nixlim/keyprint/internal/config"
	"github.com/nixlim/keyprint/internal/history"
	"github.com/nixlim/keyprint/internal/submit"
)

func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newTestModel(t *testing.T, cfg config.Config, sender Sender, opts ...ModelOption) Model {
	t.Helper()
	opts = append([]ModelOption{WithSession(capture.NewSession(capture.WithClock(steppingClock(10 * time.Millisecond))))}, opts...)
	m := NewModel(cfg, sender, opts...)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

var (
	ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	ctrlR = tea.KeyMsg{Type: tea.KeyCtrlR}
)

func TestModel_TypingRecordsPressAndRelease(t *testing.T) {
	m := newTestModel(t, config.DefaultConfig(), nil)
	m = typeText(m, "hi")

	events := m.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	want := []struct {
		key string
		typ capture.EventType
	}{{"h", capture.Down}, {"h", capture.Up}, {"i", capture.Down}, {"i", capture.Up}}
	for i, w := range want {
		if events[i].Key != w.key || events[i].Type != w.typ {
			t.Errorf("event %d: got %s/%s, want %s/%s", i, events[i].Key, events[i].Type, w.key, w.typ)
		}
	}
	if events[0].T != 0 {
		t.Errorf("first event should be at t=0, got %v", events[0].T)
	}
	if m.sentence.Value() != "hi" {
		t.Errorf("sentence field = %q, want %q", m.sentence.Value(), "hi")
	}
}

func TestModel_TabMovesFocusWithoutRecording(t *testing.T) {
	m := newTestModel(t, config.DefaultConfig(), nil)
	m, _ = press(m, tab)
	m = typeText(m, "bo")

	if m.userID.Value() != "bo" {
		t.Errorf("user id field = %q, want %q", m.userID.Value(), "bo")
	}
	if m.sentence.Value() != "" {
		t.Errorf("sentence should be untouched, got %q", m.sentence.Value())
	}
	if got := len(m.Events()); got != 4 {
		t.Errorf("expected only the typed keys to be recorded, got %d events", got)
	}
}

func TestModel_EmptySentenceShowsAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	sender.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(submit.Payload{}, submit.ErrEmptySentence)

	m := newTestModel(t, config.DefaultConfig(), sender)
	m, cmd := press(m, ctrlS)

	if cmd != nil {
		t.Error("a failed validation must not start a submission")
	}
	if m.alert != submit.EmptySentencePrompt {
		t.Fatalf("alert = %q, want %q", m.alert, submit.EmptySentencePrompt)
	}
	if !strings.Contains(m.View(), submit.EmptySentencePrompt) {
		t.Error("view should show the alert")
	}

	m = typeText(m, "x")
	if len(m.Events()) != 0 {
		t.Error("keys pressed while the alert is open must not be recorded")
	}

	m, _ = press(m, enter)
	if m.alert != "" {
		t.Error("enter should dismiss the alert")
	}
	if len(m.Events()) != 0 {
		t.Error("the dismissing key must not be recorded")
	}
}

func TestModel_SuccessfulSubmitResetsCapture(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)

	m := newTestModel(t, config.DefaultConfig(), sender)
	m, _ = press(m, tab)
	m = typeText(m, "al")
	m, _ = press(m, tab)
	m = typeText(m, "ok")

	recorded := m.Events()
	payload := submit.Payload{UserID: "al", Events: recorded, Timestamp: 1}

	gomock.InOrder(
		sender.EXPECT().
			Prepare(submit.Form{UserID: "al", Sentence: "ok"}, recorded).
			Return(payload, nil),
		sender.EXPECT().
			Deliver(gomock.Any(), payload).
			Return(submit.Outcome{Status: submit.StatusPredicted, Message: "Predicted User: al", Predicted: "al"}, nil),
	)

	m, cmd := press(m, ctrlS)
	if cmd == nil {
		t.Fatal("expected a submission command")
	}
	if m.inFlight != 1 {
		t.Errorf("inFlight = %d, want 1", m.inFlight)
	}

	next, _ := m.Update(cmd())
	m = next.(Model)

	if m.Result() != "Predicted User: al" {
		t.Errorf("result = %q", m.Result())
	}
	if len(m.Events()) != 0 {
		t.Errorf("buffer should be empty after a delivered submission, got %d", len(m.Events()))
	}
	if m.sentence.Value() != "" {
		t.Errorf("sentence should be cleared, got %q", m.sentence.Value())
	}
	if m.userID.Value() != "al" {
		t.Errorf("user id should be kept, got %q", m.userID.Value())
	}
	if m.inFlight != 0 {
		t.Errorf("inFlight = %d, want 0", m.inFlight)
	}
}

func TestModel_PredictionErrorStillResets(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	sender.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(submit.Payload{}, nil)
	sender.EXPECT().Deliver(gomock.Any(), gomock.Any()).
		Return(submit.Outcome{Status: submit.StatusPredictionError, Message: "low confidence"}, nil)

	m := newTestModel(t, config.DefaultConfig(), sender)
	m = typeText(m, "abc")
	m, cmd := press(m, ctrlS)
	next, _ := m.Update(cmd())
	m = next.(Model)

	if m.Result() != "low confidence" {
		t.Errorf("result = %q", m.Result())
	}
	if len(m.Events()) != 0 {
		t.Error("a delivered prediction error should reset the buffer")
	}
}

func TestModel_TransportFailureKeepsCapture(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	sender.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(submit.Payload{}, nil)
	sender.EXPECT().Deliver(gomock.Any(), gomock.Any()).
		Return(submit.TransportFailure(), errors.New("connection refused"))

	m := newTestModel(t, config.DefaultConfig(), sender)
	m = typeText(m, "abc")
	m, cmd := press(m, ctrlS)
	next, _ := m.Update(cmd())
	m = next.(Model)

	if m.Result() != submit.GenericFailure {
		t.Errorf("result = %q, want %q", m.Result(), submit.GenericFailure)
	}
	if len(m.Events()) != 6 {
		t.Errorf("buffer should be preserved, got %d events", len(m.Events()))
	}
	if m.sentence.Value() != "abc" {
		t.Errorf("sentence should be preserved, got %q", m.sentence.Value())
	}
}

func TestModel_KeysDuringFlightAreClearedOnSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)

	var prepared []capture.KeyEvent
	sender.EXPECT().Prepare(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ submit.Form, events []capture.KeyEvent) (submit.Payload, error) {
			prepared = events
			return submit.Payload{Events: events}, nil
		})
	sender.EXPECT().Deliver(gomock.Any(), gomock.Any()).
		Return(submit.Outcome{Status: submit.StatusPredicted, Message: "Predicted User: x"}, nil)

	m := newTestModel(t, config.DefaultConfig(), sender)
	m = typeText(m, "a")
	m, cmd := press(m, ctrlS)
	m = typeText(m, "b")

	if len(prepared) != 2 {
		t.Errorf("payload should hold only keys typed before submit, got %d", len(prepared))
	}

	next, _ := m.Update(cmd())
	m = next.(Model)
	if len(m.Events()) != 0 {
		t.Errorf("keys typed during the request are cleared by the reset, got %d", len(m.Events()))
	}
}

func TestModel_EvdevSourceIgnoresTerminalKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Capture.Source = config.SourceEvdev

	m := newTestModel(t, cfg, nil)
	m = typeText(m, "ab")
	if len(m.Events()) != 0 {
		t.Errorf("terminal keys must not be recorded with the evdev source, got %d", len(m.Events()))
	}
	if m.sentence.Value() != "ab" {
		t.Errorf("terminal keys should still edit the field, got %q", m.sentence.Value())
	}

	next, _ := m.Update(TransitionMsg{Key: "Shift", Type: capture.Down})
	m = next.(Model)
	next, _ = m.Update(TransitionMsg{Key: "Shift", Type: capture.Up})
	m = next.(Model)

	events := m.Events()
	if len(events) != 2 || events[0].Type != capture.Down || events[1].Type != capture.Up {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[1].T <= events[0].T {
		t.Errorf("release should follow press: %v then %v", events[0].T, events[1].T)
	}
}

func TestModel_SourceErrorShownInStatusBar(t *testing.T) {
	m := newTestModel(t, config.DefaultConfig(), nil)
	next, _ := m.Update(SourceErrMsg{Err: errors.New("permission denied")})
	m = next.(Model)

	if !strings.Contains(m.View(), "permission denied") {
		t.Error("status bar should report the stopped source")
	}
}

func TestModel_NoSenderIsGenericFailure(t *testing.T) {
	m := newTestModel(t, config.DefaultConfig(), nil)
	m = typeText(m, "x")
	m, cmd := press(m, ctrlS)
	if cmd != nil {
		t.Error("no command expected without a sender")
	}
	if m.Result() != submit.GenericFailure {
		t.Errorf("result = %q", m.Result())
	}
}

func TestModel_HistoryView(t *testing.T) {
	store := history.NewMemoryStore(10)
	store.Record(history.Attempt{
		SubmittedAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		UserID:      "alice",
		EventCount:  42,
		Outcome:     string(submit.StatusPredicted),
		Predicted:   "alice",
		Message:     "Predicted User: alice",
	})
	store.Record(history.Attempt{
		SubmittedAt: time.Date(2026, 10, 15, 12, 5, 0, 0, time.UTC),
		UserID:      "unknown",
		EventCount:  3,
		Outcome:     string(submit.StatusTransportError),
		Message:     submit.GenericFailure,
	})

	m := newTestModel(t, config.DefaultConfig(), nil, WithHistoryProvider(store), WithPersistenceFlag(true))
	m, _ = press(m, ctrlR)
	if m.view != ViewHistory {
		t.Fatal("ctrl+r should switch to the history view")
	}

	m = typeText(m, "zz")
	if len(m.Events()) != 0 {
		t.Error("keys in the history view must not be recorded")
	}

	view := m.View()
	for _, want := range []string{"History", "alice", "Predicted User: alice", submit.GenericFailure, "42"} {
		if !strings.Contains(view, want) {
			t.Errorf("history view missing %q:\n%s", want, view)
		}
	}

	m, _ = press(m, ctrlR)
	if m.view != ViewCapture {
		t.Error("ctrl+r should switch back")
	}
}

func TestModel_HistoryViewEmpty(t *testing.T) {
	m := newTestModel(t, config.DefaultConfig(), nil, WithStartView(ViewHistory))
	view := m.View()
	if !strings.Contains(view, "No submissions yet") {
		t.Errorf("expected empty-state text, got:\n%s", view)
	}
	if !strings.Contains(view, "[No persistence]") {
		t.Error("header should flag missing persistence")
	}
}

func TestAggregateDaily(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2026, 10, d, h, 0, 0, 0, time.Local) }
	rows := aggregateDaily([]history.Attempt{
		{SubmittedAt: day(16, 10), Outcome: string(submit.StatusPredicted)},
		{SubmittedAt: day(16, 9), Outcome: string(submit.StatusPredictionError)},
		{SubmittedAt: day(15, 20), Outcome: string(submit.StatusTransportError)},
	})

	if len(rows) != 2 {
		t.Fatalf("expected 2 days, got %d", len(rows))
	}
	if rows[0].label != "2026-10-16" || rows[0].attempts != 2 || rows[0].predicted != 1 || rows[0].errors != 1 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].failures != 1 {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
}

func TestModel_CaptureViewShowsTimelineAndStats(t *testing.T) {
	m := newTestModel(t, config.DefaultConfig(), nil)
	m = typeText(m, "q")

	view := m.View()
	for _, want := range []string{"Key Timeline", "Timing", "down", "events: 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("capture view missing %q", want)
		}
	}
}

func TestModel_QuitRunsShutdown(t *testing.T) {
	called := false
	m := newTestModel(t, config.DefaultConfig(), nil, WithOnShutdown(func() { called = true }))
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !called {
		t.Error("shutdown hook not called")
	}
	if cmd == nil {
		t.Error("expected tea.Quit")
	}
	if !m.quitting {
		t.Error("model should be quitting")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		w    int
		want string
	}{
		{"alice", 16, "alice"},
		{"a-very-long-user-identifier", 10, "a-very-lo…"},
		{"田中太郎さん", 6, "田中…"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.w); got != c.want {
			t.Errorf("truncate(%q, %d): want %q, got %q", c.in, c.w, c.want, got)
		}
	}
}
