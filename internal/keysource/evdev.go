package keysource

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"

	"github.com/nixlim/keyprint/internal/capture"
)

const (
	evKey = 0x01

	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2

	codeLeftShift  = 42
	codeRightShift = 54
)

// inputEventSize is sizeof(struct input_event): a struct timeval (two
// native longs) followed by type, code and value.
const inputEventSize = 2*bits.UintSize/8 + 8

// inputEvent is the portion of struct input_event keyprint uses.
type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func decodeInputEvent(buf []byte) inputEvent {
	off := inputEventSize - 8
	return inputEvent{
		Type:  binary.NativeEndian.Uint16(buf[off:]),
		Code:  binary.NativeEndian.Uint16(buf[off+2:]),
		Value: int32(binary.NativeEndian.Uint32(buf[off+4:])),
	}
}

// evdevDecoder turns raw key codes into named transitions and tracks shift
// so that letters and symbols carry their shifted names.
type evdevDecoder struct {
	shiftDown map[uint16]bool
}

func newEvdevDecoder() *evdevDecoder {
	return &evdevDecoder{shiftDown: make(map[uint16]bool)}
}

func (d *evdevDecoder) shifted() bool {
	return d.shiftDown[codeLeftShift] || d.shiftDown[codeRightShift]
}

// transition converts one input event. Non-key events report ok=false.
// Autorepeat is a press, matching browsers that fire keydown on repeat.
func (d *evdevDecoder) transition(ev inputEvent) (Transition, bool) {
	if ev.Type != evKey {
		return Transition{}, false
	}

	var typ capture.EventType
	switch ev.Value {
	case keyPressed, keyRepeated:
		typ = capture.Down
	case keyReleased:
		typ = capture.Up
	default:
		return Transition{}, false
	}

	name := evdevKeyName(ev.Code, d.shifted())

	if ev.Code == codeLeftShift || ev.Code == codeRightShift {
		d.shiftDown[ev.Code] = typ == capture.Down
	}

	return Transition{Key: name, Type: typ}, true
}

// readInputEvents decodes input events from r until EOF, a read error, the
// context ending, or emit failing.
func readInputEvents(ctx context.Context, r io.Reader, emit func(Transition) error) error {
	dec := newEvdevDecoder()
	buf := make([]byte, inputEventSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input event: %w", err)
		}

		t, ok := dec.transition(decodeInputEvent(buf))
		if !ok {
			continue
		}
		if err := emit(t); err != nil {
			return err
		}
	}
}

var evdevNames = map[uint16]string{
	1: "Escape", 14: "Backspace", 15: "Tab", 28: "Enter", 29: "Control",
	42: "Shift", 54: "Shift", 56: "Alt", 57: " ", 58: "CapsLock",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6",
	65: "F7", 66: "F8", 67: "F9", 68: "F10", 87: "F11", 88: "F12",
	96: "Enter", 97: "Control", 100: "AltGraph",
	102: "Home", 103: "ArrowUp", 104: "PageUp", 105: "ArrowLeft",
	106: "ArrowRight", 107: "End", 108: "ArrowDown", 109: "PageDown",
	110: "Insert", 111: "Delete", 125: "Meta", 126: "Meta",
}

// evdevChars maps printable key codes to their unshifted and shifted
// characters on a US layout.
var evdevChars = map[uint16][2]string{
	2: {"1", "!"}, 3: {"2", "@"}, 4: {"3", "#"}, 5: {"4", "$"}, 6: {"5", "%"},
	7: {"6", "^"}, 8: {"7", "&"}, 9: {"8", "*"}, 10: {"9", "("}, 11: {"0", ")"},
	12: {"-", "_"}, 13: {"=", "+"},
	16: {"q", "Q"}, 17: {"w", "W"}, 18: {"e", "E"}, 19: {"r", "R"}, 20: {"t", "T"},
	21: {"y", "Y"}, 22: {"u", "U"}, 23: {"i", "I"}, 24: {"o", "O"}, 25: {"p", "P"},
	26: {"[", "{"}, 27: {"]", "}"},
	30: {"a", "A"}, 31: {"s", "S"}, 32: {"d", "D"}, 33: {"f", "F"}, 34: {"g", "G"},
	35: {"h", "H"}, 36: {"j", "J"}, 37: {"k", "K"}, 38: {"l", "L"},
	39: {";", ":"}, 40: {"'", "\""}, 41: {"`", "~"}, 43: {"\\", "|"},
	44: {"z", "Z"}, 45: {"x", "X"}, 46: {"c", "C"}, 47: {"v", "V"}, 48: {"b", "B"},
	49: {"n", "N"}, 50: {"m", "M"},
	51: {",", "<"}, 52: {".", ">"}, 53: {"/", "?"},
}

func evdevKeyName(code uint16, shifted bool) string {
	if chars, ok := evdevChars[code]; ok {
		if shifted {
			return chars[1]
		}
		return chars[0]
	}
	if name, ok := evdevNames[code]; ok {
		return name
	}
	return "Unidentified"
}
