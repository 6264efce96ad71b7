package render

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// SparkleOptions controls Sparkle.
type SparkleOptions struct {
	Width              int
	Height             int
	ReserveProgressRow bool

	// Density scales how many draws out of width*height light a pixel
	// before the frame is wiped. 0.1 is the usual setting.
	Density float64

	Background RGB
}

// Sparkle advances a random sparkle animation by one step.
//
// A draw in [0, floor(width*effHeight*density)] decides the step: any
// non-zero draw returns a copy of existing with one random cell set to a
// random colour, a zero draw returns a blank frame. The reserved progress
// row is carried over from existing either way and is never sparkled.
//
// A zero-value existing frame is treated as blank. rng may be nil to use the
// global source.
func Sparkle(rng *rand.Rand, opts SparkleOptions, existing Frame) (Frame, error) {
	if opts.Width <= 0 {
		return Frame{}, fmt.Errorf("%w: width %d", ErrInvalidSize, opts.Width)
	}
	effH, err := EffectiveHeight(opts.Height, opts.ReserveProgressRow)
	if err != nil {
		return Frame{}, err
	}
	if existing.Pix == nil {
		existing = NewFrame(opts.Width, opts.Height, opts.Background)
	}
	if existing.Width != opts.Width || existing.Height != opts.Height || len(existing.Pix) != opts.Width*opts.Height {
		return Frame{}, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize,
			existing.Width, existing.Height, opts.Width, opts.Height)
	}

	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}

	limit := int(math.Floor(float64(opts.Width*effH) * clamp(opts.Density, 0, 1)))
	if limit < 0 {
		limit = 0
	}
	if intn(limit+1) == 0 {
		blank := NewFrame(opts.Width, opts.Height, opts.Background)
		if opts.ReserveProgressRow {
			last := opts.Height - 1
			blank.SetRow(last, existing.Row(last))
		}
		return blank, nil
	}

	out := existing.Clone()
	x, y := intn(opts.Width), intn(effH)
	out.Set(x, y, RGB{R: uint8(intn(256)), G: uint8(intn(256)), B: uint8(intn(256))})
	return out, nil
}
