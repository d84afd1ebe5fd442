// Package features summarises a capture as dwell and flight time statistics.
//
// Dwell is how long a key is held (release minus press). Flight is the gap
// between releasing one key and pressing the next. Both are reported in
// milliseconds.
package features

import (
	"math"
	"sort"

	"github.com/nixlim/keyprint/internal/capture"
)

// Stats holds the summary of one series.
type Stats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// Features is the timing profile of one capture.
type Features struct {
	Dwell  Stats `json:"dwell" yaml:"dwell"`
	Flight Stats `json:"flight" yaml:"flight"`
	NKeys  int   `json:"n_keys" yaml:"n_keys"`
}

// Vector returns the features in the column order the prediction service
// was trained on.
func (f Features) Vector() [9]float64 {
	return [9]float64{
		f.Dwell.Mean, f.Dwell.Std, f.Dwell.Min, f.Dwell.Max,
		f.Flight.Mean, f.Flight.Std, f.Flight.Min, f.Flight.Max,
		float64(f.NKeys),
	}
}

// Pair is one matched press/release of a key.
type Pair struct {
	Key  string
	Down float64
	Up   float64
}

// Pairs matches each release with the earliest outstanding press of the same
// key. Unmatched presses and releases are ignored. The result is ordered by
// press time.
func Pairs(events []capture.KeyEvent) []Pair {
	pending := make(map[string][]float64)
	var pairs []Pair

	for _, e := range events {
		switch e.Type {
		case capture.Down:
			pending[e.Key] = append(pending[e.Key], e.T)
		case capture.Up:
			downs := pending[e.Key]
			if len(downs) == 0 {
				continue
			}
			pairs = append(pairs, Pair{Key: e.Key, Down: downs[0], Up: e.T})
			pending[e.Key] = downs[1:]
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Down < pairs[j].Down
	})
	return pairs
}

// Extract computes the timing profile of a capture.
func Extract(events []capture.KeyEvent) Features {
	pairs := Pairs(events)

	var dwell []float64
	for _, p := range pairs {
		if p.Up > p.Down {
			dwell = append(dwell, p.Up-p.Down)
		}
	}

	var flight []float64
	for i := 0; i+1 < len(pairs); i++ {
		flight = append(flight, pairs[i+1].Down-pairs[i].Up)
	}

	return Features{
		Dwell:  summarize(dwell),
		Flight: summarize(flight),
		NKeys:  len(pairs),
	}
}

// summarize returns population statistics; an empty series is all zeros.
func summarize(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}

	s := Stats{Min: xs[0], Max: xs[0]}
	var sum float64
	for _, x := range xs {
		sum += x
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
	}
	s.Mean = sum / float64(len(xs))

	if len(xs) > 1 {
		var sq float64
		for _, x := range xs {
			d := x - s.Mean
			sq += d * d
		}
		s.Std = math.Sqrt(sq / float64(len(xs)))
	}
	return s
}
