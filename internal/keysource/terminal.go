package keysource

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/keyprint/internal/capture"
)

var terminalNames = map[tea.KeyType]string{
	tea.KeySpace:     " ",
	tea.KeyEnter:     "Enter",
	tea.KeyBackspace: "Backspace",
	tea.KeyDelete:    "Delete",
	tea.KeyTab:       "Tab",
	tea.KeyShiftTab:  "Tab",
	tea.KeyEsc:       "Escape",
	tea.KeyUp:        "ArrowUp",
	tea.KeyDown:      "ArrowDown",
	tea.KeyLeft:      "ArrowLeft",
	tea.KeyRight:     "ArrowRight",
	tea.KeyHome:      "Home",
	tea.KeyEnd:       "End",
	tea.KeyPgUp:      "PageUp",
	tea.KeyPgDown:    "PageDown",
	tea.KeyInsert:    "Insert",
	tea.KeyF1:        "F1",
	tea.KeyF2:        "F2",
	tea.KeyF3:        "F3",
	tea.KeyF4:        "F4",
	tea.KeyF5:        "F5",
	tea.KeyF6:        "F6",
	tea.KeyF7:        "F7",
	tea.KeyF8:        "F8",
	tea.KeyF9:        "F9",
	tea.KeyF10:       "F10",
	tea.KeyF11:       "F11",
	tea.KeyF12:       "F12",
}

// TerminalKey names a terminal key message. Control chords without a
// browser equivalent keep bubbletea's name (e.g. "ctrl+w").
func TerminalKey(msg tea.KeyMsg) string {
	if msg.Type == tea.KeyRunes {
		return string(msg.Runes)
	}
	if name, ok := terminalNames[msg.Type]; ok {
		return name
	}
	return msg.String()
}

// TerminalTransitions converts one terminal keystroke into transitions.
// Terminals report a keystroke once and never report the release, so a
// press is followed immediately by its release. Pasted text yields one pair
// per rune.
func TerminalTransitions(msg tea.KeyMsg) []Transition {
	if msg.Type == tea.KeyRunes && len(msg.Runes) > 1 {
		out := make([]Transition, 0, 2*len(msg.Runes))
		for _, r := range msg.Runes {
			k := string(r)
			out = append(out, Transition{Key: k, Type: capture.Down}, Transition{Key: k, Type: capture.Up})
		}
		return out
	}
	k := TerminalKey(msg)
	return []Transition{{Key: k, Type: capture.Down}, {Key: k, Type: capture.Up}}
}
