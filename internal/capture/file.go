package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// rawEvent mirrors KeyEvent with a loosely typed Type so that unknown
// values are reported instead of silently accepted.
type rawEvent struct {
	Key  string  `json:"key"`
	T    float64 `json:"t"`
	Type string  `json:"type"`
}

// Decode reads a saved capture. It accepts either a bare JSON array of key
// events or a submission object carrying them under "events", which is the
// shape the logging endpoint stores.
func Decode(r io.Reader) ([]KeyEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("capture is empty")
	}

	var raws []rawEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("decoding capture array: %w", err)
		}
	} else {
		var wrapper struct {
			Events []rawEvent `json:"events"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decoding capture object: %w", err)
		}
		raws = wrapper.Events
	}

	events := make([]KeyEvent, 0, len(raws))
	for i, r := range raws {
		typ, err := ParseEventType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if r.T < 0 {
			return nil, fmt.Errorf("event %d: negative timestamp %v", i, r.T)
		}
		events = append(events, KeyEvent{Key: r.Key, T: r.T, Type: typ})
	}
	return events, nil
}

// LoadFile reads a saved capture from disk. Files ending in ".gz" are
// decompressed first.
func LoadFile(path string) ([]KeyEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".gz") {
		return Decode(f)
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening compressed capture: %w", err)
	}
	defer zr.Close()
	return Decode(zr)
}
