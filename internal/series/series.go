// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package series holds the rolling sample windows that the display
// renderers read from.
package series

import (
	"math"
	"strings"
)

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// Contains reports whether v lies inside r.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Degenerate reports whether r has zero width.
func (r Range) Degenerate() bool {
	return r.Max == r.Min
}

// Limits are up to four ascending breakpoints. A nil entry means the
// breakpoint is not set.
type Limits []*float64

// NewLimits builds a complete set of limits from vals.
func NewLimits(vals ...float64) Limits {
	l := make(Limits, len(vals))
	for i := range vals {
		v := vals[i]
		l[i] = &v
	}
	return l
}

// Complete returns the breakpoints when every entry is set. An empty or
// partially set list is reported as incomplete.
func (l Limits) Complete() ([]float64, bool) {
	if len(l) == 0 {
		return nil, false
	}
	out := make([]float64, len(l))
	for i, v := range l {
		if v == nil {
			return nil, false
		}
		out[i] = *v
	}
	return out, true
}

// Series is a bounded FIFO window of samples. Appending to a full series
// evicts the oldest sample. Missing samples are stored as NaN.
//
// A Series is owned by the polling loop; it is not safe for concurrent use.
type Series struct {
	Label      string
	Unit       string
	ValidRange *Range
	Limits     Limits

	buf   []float64
	start int
	n     int
}

// New returns an empty series holding at most capacity samples.
func New(label, unit string, capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{
		Label: label,
		Unit:  unit,
		buf:   make([]float64, capacity),
	}
}

// WithRange sets the valid range and returns s.
func (s *Series) WithRange(min, max float64) *Series {
	s.ValidRange = &Range{Min: min, Max: max}
	return s
}

// WithLimits sets the limits and returns s.
func (s *Series) WithLimits(l Limits) *Series {
	s.Limits = l
	return s
}

// Prefill fills the series to capacity with v.
func (s *Series) Prefill(v float64) *Series {
	for s.n < len(s.buf) {
		s.Append(v)
	}
	return s
}

// Append adds v at the newest end.
func (s *Series) Append(v float64) {
	if s.n < len(s.buf) {
		s.buf[(s.start+s.n)%len(s.buf)] = v
		s.n++
		return
	}
	s.buf[s.start] = v
	s.start = (s.start + 1) % len(s.buf)
}

// AppendMissing records a sample that could not be read.
func (s *Series) AppendMissing() {
	s.Append(math.NaN())
}

// Len returns the number of samples held.
func (s *Series) Len() int { return s.n }

// Cap returns the capacity.
func (s *Series) Cap() int { return len(s.buf) }

// Values returns the samples oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, s.n)
	for i := 0; i < s.n; i++ {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// Last returns the newest sample.
func (s *Series) Last() (float64, bool) {
	if s.n == 0 {
		return 0, false
	}
	v := s.buf[(s.start+s.n-1)%len(s.buf)]
	return v, !math.IsNaN(v)
}

// MinMax returns the smallest and largest valid samples in the whole window.
// ok is false when there are none.
func (s *Series) MinMax() (r Range, ok bool) {
	for _, v := range s.Values() {
		if math.IsNaN(v) || (s.ValidRange != nil && !s.ValidRange.Contains(v)) {
			continue
		}
		if !ok {
			r = Range{Min: v, Max: v}
			ok = true
			continue
		}
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	return r, ok
}

// Map returns a copy of s with fn applied to every sample.
func (s *Series) Map(fn func(float64) float64) *Series {
	c := *s
	c.buf = make([]float64, len(s.buf))
	for i, v := range s.buf {
		if math.IsNaN(v) {
			c.buf[i] = v
			continue
		}
		c.buf[i] = fn(v)
	}
	return &c
}

// Snapshot is a JSON-ready copy of a series. Missing samples are null.
type Snapshot struct {
	Label      string     `json:"label"`
	Unit       string     `json:"unit"`
	Data       []*float64 `json:"data"`
	Limits     []*float64 `json:"limits"`
	ValidRange *Range     `json:"valid_range,omitempty"`
}

// Snapshot copies s.
func (s *Series) Snapshot() Snapshot {
	vals := s.Values()
	data := make([]*float64, len(vals))
	for i := range vals {
		if math.IsNaN(vals[i]) {
			continue
		}
		v := vals[i]
		data[i] = &v
	}
	return Snapshot{
		Label:      capitalize(s.Label),
		Unit:       s.Unit,
		Data:       data,
		Limits:     s.Limits,
		ValidRange: s.ValidRange,
	}
}

// Latest returns the newest sample, or nil.
func (sn Snapshot) Latest() *float64 {
	if len(sn.Data) == 0 {
		return nil
	}
	return sn.Data[len(sn.Data)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
