package keysource

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixlim/keyprint/internal/capture"
)

func encodeInputEvent(typ, code uint16, value int32) []byte {
	buf := make([]byte, inputEventSize)
	off := inputEventSize - 8
	binary.NativeEndian.PutUint16(buf[off:], typ)
	binary.NativeEndian.PutUint16(buf[off+2:], code)
	binary.NativeEndian.PutUint32(buf[off+4:], uint32(value))
	return buf
}

func deviceStream(events ...[]byte) []byte {
	var b bytes.Buffer
	for _, e := range events {
		b.Write(e)
	}
	return b.Bytes()
}

func collect(t *testing.T, data []byte) []Transition {
	t.Helper()
	var got []Transition
	err := readInputEvents(context.Background(), bytes.NewReader(data), func(tr Transition) error {
		got = append(got, tr)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestReadInputEvents_PressReleaseAndShift(t *testing.T) {
	const synReport = 0x00
	data := deviceStream(
		encodeInputEvent(evKey, 42, keyPressed),  // Shift down
		encodeInputEvent(evKey, 35, keyPressed),  // h down (shifted)
		encodeInputEvent(synReport, 0, 0),        // ignored
		encodeInputEvent(evKey, 35, keyReleased), // H up
		encodeInputEvent(evKey, 42, keyReleased), // Shift up
		encodeInputEvent(evKey, 23, keyPressed),  // i down
		encodeInputEvent(evKey, 23, keyRepeated), // autorepeat
		encodeInputEvent(evKey, 23, keyReleased),
	)

	got := collect(t, data)
	want := []Transition{
		{Key: "Shift", Type: capture.Down},
		{Key: "H", Type: capture.Down},
		{Key: "H", Type: capture.Up},
		{Key: "Shift", Type: capture.Up},
		{Key: "i", Type: capture.Down},
		{Key: "i", Type: capture.Down},
		{Key: "i", Type: capture.Up},
	}
	assert.Equal(t, want, got)
}

func TestReadInputEvents_TruncatedTailIsError(t *testing.T) {
	data := append(encodeInputEvent(evKey, 30, keyPressed), 0x01, 0x02)
	err := readInputEvents(context.Background(), bytes.NewReader(data), func(Transition) error { return nil })
	require.Error(t, err)
}

func TestReadInputEvents_EmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	data := deviceStream(
		encodeInputEvent(evKey, 30, keyPressed),
		encodeInputEvent(evKey, 30, keyReleased),
	)
	calls := 0
	err := readInputEvents(context.Background(), bytes.NewReader(data), func(Transition) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReadInputEvents_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := readInputEvents(ctx, bytes.NewReader(encodeInputEvent(evKey, 30, keyPressed)), func(Transition) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvdevKeyName(t *testing.T) {
	assert.Equal(t, " ", evdevKeyName(57, false))
	assert.Equal(t, "!", evdevKeyName(2, true))
	assert.Equal(t, "Backspace", evdevKeyName(14, true))
	assert.Equal(t, "Unidentified", evdevKeyName(999, false))
}

func TestEvdev_StreamFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event0")
	require.NoError(t, os.WriteFile(path, deviceStream(
		encodeInputEvent(evKey, 30, keyPressed),
		encodeInputEvent(evKey, 30, keyReleased),
	), 0600))

	var got []Transition
	err := Evdev{Device: path}.Stream(context.Background(), func(tr Transition) error {
		got = append(got, tr)
		return nil
	})

	if runtime.GOOS != "linux" {
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, []Transition{{Key: "a", Type: capture.Down}, {Key: "a", Type: capture.Up}}, got)
}

func TestTerminalTransitions(t *testing.T) {
	cases := []struct {
		name string
		msg  tea.KeyMsg
		want []string
	}{
		{"rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, []string{"q"}},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, []string{" "}},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, []string{"Backspace"}},
		{"arrow", tea.KeyMsg{Type: tea.KeyLeft}, []string{"ArrowLeft"}},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ok"), Paste: true}, []string{"o", "k"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TerminalTransitions(tc.msg)
			require.Len(t, got, 2*len(tc.want))
			for i, k := range tc.want {
				assert.Equal(t, Transition{Key: k, Type: capture.Down}, got[2*i])
				assert.Equal(t, Transition{Key: k, Type: capture.Up}, got[2*i+1])
			}
		})
	}
}

func TestSourceFunc(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, emit func(Transition) error) error {
		return emit(Transition{Key: "x", Type: capture.Down})
	})
	var got Transition
	require.NoError(t, src.Stream(context.Background(), func(tr Transition) error {
		got = tr
		return nil
	}))
	assert.Equal(t, "x", got.Key)
}
