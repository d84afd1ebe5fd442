package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nixlim/keyprint/internal/history"
	"github.com/nixlim/keyprint/internal/submit"
)

type dayRow struct {
	label     string
	attempts  int
	predicted int
	errors    int
	failures  int
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader(" [History]", "ctrl+r:Capture  j/k:Scroll  ctrl+c:Quit "))
	sb.WriteByte('\n')

	var attempts []history.Attempt
	if m.history != nil {
		attempts = m.history.Recent(m.cfg.History.RecentLimit)
	}

	if len(attempts) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  No submissions yet"))
		sb.WriteByte('\n')
		if !m.isPersistent {
			sb.WriteString(dimStyle.Render("  history is in memory only; set [history] db_path to keep it across runs"))
			sb.WriteByte('\n')
		}
		return sb.String()
	}

	days := aggregateDaily(attempts)
	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("  %-12s %9s %10s %8s %9s", "Date", "Attempts", "Predicted", "Errors", "Failures"))
	sb.WriteByte('\n')
	for _, d := range days {
		sb.WriteString(fmt.Sprintf("  %-12s %9d %10d %8d %9d", d.label, d.attempts, d.predicted, d.errors, d.failures))
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("  %-19s %-16s %6s  %s", "Submitted", "User", "Events", "Result"))
	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 68)))
	sb.WriteByte('\n')

	visibleH := m.height - len(days) - 7
	if visibleH < 1 {
		visibleH = 1
	}
	startIdx := m.historyScrollPos
	if startIdx > len(attempts)-visibleH {
		startIdx = len(attempts) - visibleH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + visibleH
	if endIdx > len(attempts) {
		endIdx = len(attempts)
	}

	for i := startIdx; i < endIdx; i++ {
		a := attempts[i]
		user := truncate(a.UserID, 16)
		user += strings.Repeat(" ", 16-runewidth.StringWidth(user))
		sb.WriteString(fmt.Sprintf("  %-19s %s %6d  %s",
			a.SubmittedAt.Local().Format("2006-01-02 15:04:05"),
			user, a.EventCount, styleOutcome(a)))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func styleOutcome(a history.Attempt) string {
	switch submit.Status(a.Outcome) {
	case submit.StatusPredicted:
		return predictedStyle.Render(a.Message)
	case submit.StatusTransportError:
		return failureStyle.Render(a.Message)
	default:
		return predictionErrorStyle.Render(a.Message)
	}
}

// aggregateDaily groups attempts by local calendar day, keeping the order in
// which days first appear (newest first for Recent output).
func aggregateDaily(attempts []history.Attempt) []dayRow {
	dayMap := make(map[string]*dayRow)
	var dayOrder []string

	for _, a := range attempts {
		label := a.SubmittedAt.Local().Format("2006-01-02")
		if _, exists := dayMap[label]; !exists {
			dayMap[label] = &dayRow{label: label}
			dayOrder = append(dayOrder, label)
		}
		r := dayMap[label]
		r.attempts++
		switch submit.Status(a.Outcome) {
		case submit.StatusPredicted:
			r.predicted++
		case submit.StatusTransportError:
			r.failures++
		default:
			r.errors++
		}
	}

	result := make([]dayRow, 0, len(dayOrder))
	for _, label := range dayOrder {
		result = append(result, *dayMap[label])
	}
	return result
}

// truncate shortens s to at most w terminal cells.
func truncate(s string, w int) string {
	return runewidth.Truncate(s, w, "…")
}
