// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"image/color"
	"math"
)

// RGB is a single 24-bit pixel colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Named colours shared by both boards.
var (
	Black  = RGB{0, 0, 0}
	White  = RGB{255, 255, 255}
	Blue   = RGB{0, 0, 255}
	Cyan   = RGB{0, 255, 255}
	Green  = RGB{0, 255, 0}
	Yellow = RGB{255, 255, 0}
	Red    = RGB{255, 0, 0}
	Chrome = RGB{219, 226, 233}
	Grey   = RGB{67, 70, 75}
	Purple = RGB{127, 0, 255}

	Background = Black
	Text       = Chrome
	ProgressFG = Cyan
)

// Buckets is the number of severity classes produced by four limits.
const Buckets = 5

// Palette maps a severity bucket to a colour:
// dangerously low, low, normal, high, dangerously high.
type Palette [Buckets]RGB

// DefaultPalette is blue, cyan, green, yellow, red.
var DefaultPalette = Palette{Blue, Cyan, Green, Yellow, Red}

// HueColor maps a normalised value in [0,1] onto a red (0) to blue (1) hue
// sweep at full saturation and brightness. Out-of-range input is clamped.
func HueColor(v float64) RGB {
	v = clamp(v, 0, 1)
	r, g, b := hsvToRGB(v*0.6, 1, 1)
	return RGB{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255)}
}

// hsvToRGB converts h, s, v in [0,1] to r, g, b in [0,1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	if s == 0 {
		return v, v, v
	}
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}
