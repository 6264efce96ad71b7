// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render turns rolling sample windows into pixel frames for the
// Sense HAT LED matrix and the Enviro+ LCD.
//
// Every function here is pure: no I/O, no package state. Callers own the
// series and any frame that is carried between calls.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/sensor_hats/internal/series"
)

var (
	// ErrInvalidSize is returned for non-positive display dimensions.
	ErrInvalidSize = errors.New("render: invalid display size")
	// ErrLimitArity is returned when a series has limits that are neither
	// empty nor exactly four entries.
	ErrLimitArity = errors.New("render: limits must have 0 or 4 entries")
	// ErrFrameSize is returned when a carried frame does not match the display.
	ErrFrameSize = errors.New("render: frame does not match display size")
)

// GraphOptions controls Graph.
type GraphOptions struct {
	Width  int
	Height int

	// ReserveProgressRow keeps the bottom row free for a progress bar.
	ReserveProgressRow bool

	// Palette colours lit pixels by severity bucket when the series has a
	// complete set of limits. Nil means DefaultPalette.
	Palette *Palette

	// Domain fixes the scaling bounds. Nil or degenerate domains fall back
	// to the min/max of the rendered window.
	Domain *series.Range

	// FillValue pads short windows and replaces invalid samples.
	FillValue float64

	Background RGB
}

// EffectiveHeight is the number of rows available to graph content.
func EffectiveHeight(height int, reserveProgressRow bool) (int, error) {
	h := height
	if reserveProgressRow {
		h--
	}
	if height <= 0 || h <= 0 {
		return 0, fmt.Errorf("%w: height %d (progress row reserved: %t)", ErrInvalidSize, height, reserveProgressRow)
	}
	return h, nil
}

// Window returns exactly width samples from the newest end of s. Samples
// that are NaN or outside the valid range are replaced with fill, and short
// windows are left-padded with fill so new data scrolls in from the right.
func Window(s *series.Series, width int, fill float64) []float64 {
	out := make([]float64, width)
	for i := range out {
		out[i] = fill
	}
	if s == nil || width <= 0 {
		return out
	}
	vals := s.Values()
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}
	offset := width - len(vals)
	for i, v := range vals {
		if math.IsNaN(v) || (s.ValidRange != nil && !s.ValidRange.Contains(v)) {
			continue
		}
		out[offset+i] = v
	}
	return out
}

// Bucket returns the severity bucket (0..4) of v against ascending limits:
// the index after the last limit that v strictly exceeds. A value equal to
// a limit stays in the lower bucket.
func Bucket(v float64, limits []float64) int {
	b := 0
	for i, l := range limits {
		if v > l {
			b = i + 1
		}
	}
	return b
}

// Graph renders the newest opts.Width samples of s as a column graph.
//
// With a complete set of four limits each column is coloured by the
// severity bucket of its value and scaled linearly into the graph height.
// Otherwise columns use a red to blue hue sweep with values normalised as
// (v-min+1)/(max-min+1). A degenerate min/max renders every column empty.
//
// The returned frame is opts.Width x opts.Height; when a progress row is
// reserved the bottom row is left as background for ProgressBar.
func Graph(s *series.Series, opts GraphOptions) (Frame, error) {
	if opts.Width <= 0 {
		return Frame{}, fmt.Errorf("%w: width %d", ErrInvalidSize, opts.Width)
	}
	effH, err := EffectiveHeight(opts.Height, opts.ReserveProgressRow)
	if err != nil {
		return Frame{}, err
	}
	var limits series.Limits
	if s != nil {
		limits = s.Limits
	}
	if n := len(limits); n != 0 && n != 4 {
		return Frame{}, fmt.Errorf("%w: got %d", ErrLimitArity, n)
	}

	values := Window(s, opts.Width, opts.FillValue)
	lo, hi := bounds(values, opts.Domain)
	degenerate := hi == lo

	palette := DefaultPalette
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	breakpoints, bucketed := limits.Complete()

	frame := NewFrame(opts.Width, opts.Height, opts.Background)
	for col, v := range values {
		var height int
		var c RGB
		if bucketed {
			scaled := 0.0
			if !degenerate {
				scaled = clamp((v-lo)/(hi-lo)*float64(effH), 0, float64(effH))
			}
			height = int(scaled)
			c = palette[Bucket(v, breakpoints)]
		} else {
			norm := 0.0
			if !degenerate {
				norm = clamp((v-lo+1)/(hi-lo+1), 0, 1)
			}
			height = int(norm * float64(effH))
			c = HueColor(norm)
		}
		for row := effH - height; row < effH; row++ {
			frame.Set(col, row, c)
		}
	}
	return frame, nil
}

// bounds picks the scaling interval: a non-degenerate domain wins,
// otherwise the window's own min and max.
func bounds(values []float64, domain *series.Range) (float64, float64) {
	if domain != nil && !domain.Degenerate() {
		return domain.Min, domain.Max
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(values) == 0 {
		return 0, 0
	}
	return lo, hi
}
