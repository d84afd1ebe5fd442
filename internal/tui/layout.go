package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/keyprint/internal/capture"
	"github.com/nixlim/keyprint/internal/features"
	"github.com/nixlim/keyprint/internal/submit"
)

const (
	minWidth = 40

	labelWidth = 10
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusBorderStyle = panelBorderStyle.
				BorderForeground(lipgloss.Color("63"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	labelStyle = lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(lipgloss.Color("245"))

	promptStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("226"))

	predictedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	predictionErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("226"))

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	alertDialogStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(1, 3).
				Bold(true)
)

func (m Model) renderHeader(viewLabel, help string) string {
	title := " keyprint"
	indicators := m.headerIndicators()

	padding := m.width - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}
	return headerStyle.Width(m.width).Render(title + viewLabel + indicators + strings.Repeat(" ", padding) + help)
}

func (m Model) renderCapture() string {
	w := m.width
	if w < minWidth {
		w = minWidth
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader(" [Capture]", "ctrl+s:Submit  tab:Field  ctrl+r:History  ctrl+c:Quit "))
	sb.WriteByte('\n')

	if m.cfg.Capture.Sentence != "" {
		sb.WriteString(labelStyle.Render("Type:"))
		sb.WriteString(promptStyle.Render(m.cfg.Capture.Sentence))
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.renderField("User ID:", m.userID.View(), m.focus == FocusUserID, w))
	sb.WriteByte('\n')
	sb.WriteString(m.renderField("Sentence:", m.sentence.View(), m.focus == FocusSentence, w))
	sb.WriteByte('\n')

	sb.WriteString(labelStyle.Render("Result:"))
	sb.WriteString(m.renderResult())
	sb.WriteString("\n\n")

	events := m.session.Events()
	timeline := m.renderTimeline(events)
	if m.cfg.Display.ShowStats {
		half := w / 2
		left := panelBorderStyle.Width(half - 2).Render(timeline)
		right := panelBorderStyle.Width(w - half - 2).Render(renderStats(features.Extract(events)))
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		sb.WriteString(panelBorderStyle.Width(w - 2).Render(timeline))
	}
	sb.WriteByte('\n')

	sb.WriteString(m.renderStatusBar(len(events)))
	return sb.String()
}

func (m Model) renderField(label, input string, focused bool, w int) string {
	style := panelBorderStyle
	if focused {
		style = focusBorderStyle
	}
	box := style.Width(w - labelWidth - 2).Render(input)
	return lipgloss.JoinHorizontal(lipgloss.Center, labelStyle.Render(label), box)
}

func (m Model) renderResult() string {
	if m.result == "" {
		return dimStyle.Render("-")
	}
	switch m.resultStatus {
	case submit.StatusPredicted:
		return predictedStyle.Render(m.result)
	case submit.StatusTransportError:
		return failureStyle.Render(m.result)
	default:
		return predictionErrorStyle.Render(m.result)
	}
}

func (m Model) renderTimeline(events []capture.KeyEvent) string {
	rows := m.cfg.Display.TimelineRows
	if rows < 1 {
		rows = 1
	}

	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Key Timeline"))
	sb.WriteByte('\n')

	if len(events) == 0 {
		sb.WriteString(dimStyle.Render("  start typing..."))
		return sb.String()
	}

	start := len(events) - rows
	if start < 0 {
		start = 0
	}
	for i, e := range events[start:] {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(formatEvent(e))
	}
	return sb.String()
}

func formatEvent(e capture.KeyEvent) string {
	typ := downStyle.Render("down")
	if e.Type == capture.Up {
		typ = upStyle.Render("up  ")
	}
	return fmt.Sprintf("%10.1f ms  %s  %s", e.T, typ, displayKey(e.Key))
}

func displayKey(k string) string {
	if k == " " {
		return "Space"
	}
	return k
}

func renderStats(f features.Features) string {
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Timing"))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "keys      %d\n", f.NKeys)
	fmt.Fprintf(&sb, "dwell     %.1f ± %.1f ms\n", f.Dwell.Mean, f.Dwell.Std)
	fmt.Fprintf(&sb, "          [%.1f, %.1f]\n", f.Dwell.Min, f.Dwell.Max)
	fmt.Fprintf(&sb, "flight    %.1f ± %.1f ms\n", f.Flight.Mean, f.Flight.Std)
	fmt.Fprintf(&sb, "          [%.1f, %.1f]", f.Flight.Min, f.Flight.Max)
	return sb.String()
}

func (m Model) renderStatusBar(eventCount int) string {
	parts := []string{
		fmt.Sprintf("source: %s", m.cfg.Capture.Source),
		fmt.Sprintf("events: %d", eventCount),
	}
	if m.inFlight > 0 {
		parts = append(parts, "submitting...")
	}
	if m.sourceStatus != "" {
		parts = append(parts, m.sourceStatus)
	}
	return statusBarStyle.Render(" " + strings.Join(parts, "  |  "))
}

func (m Model) overlayAlert(base string) string {
	dialog := alertDialogStyle.Render(m.alert + "\n\n[Enter] OK")
	return placeOverlay(dialog, base)
}

// placeOverlay centres fg over the area occupied by bg.
func placeOverlay(fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
