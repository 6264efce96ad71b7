package render

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_hats/internal/series"
)

func seriesOf(vals ...float64) *series.Series {
	s := series.New("test", "", 64)
	for _, v := range vals {
		s.Append(v)
	}
	return s
}

func litCounts(f Frame) []int {
	out := make([]int, f.Width)
	for x := range out {
		out[x] = f.Lit(x, Background)
	}
	return out
}

func TestGraphStaircase(t *testing.T) {
	s := seriesOf(10, 20, 30, 40, 50, 60, 70, 80)

	f, err := Graph(s, GraphOptions{Width: 8, Height: 8})
	require.NoError(t, err)
	require.Equal(t, 8, f.Width)
	require.Equal(t, 8, f.Height)

	// (v-10+1)/(80-10+1) * 8, truncated
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 8}, litCounts(f))

	// columns grow from the bottom
	require.Equal(t, Background, f.RGBAt(1, 6))
	require.NotEqual(t, Background, f.RGBAt(1, 7))

	// red at the low end, blue at the top
	low := f.RGBAt(1, 7)
	require.Equal(t, uint8(255), low.R)
	require.Zero(t, low.B)
	high := f.RGBAt(7, 0)
	require.Zero(t, high.R)
	require.Equal(t, uint8(255), high.B)
}

func TestGraphPadsShortWindows(t *testing.T) {
	s := seriesOf(50, 100)

	f, err := Graph(s, GraphOptions{Width: 8, Height: 8, Domain: &series.Range{Min: 0, Max: 100}})
	require.NoError(t, err)
	lit := litCounts(f)
	require.Len(t, lit, 8)
	for x := 0; x < 6; x++ {
		// fill 0 maps to 1/101 of the height
		require.Equal(t, 0, lit[x], "column %d", x)
	}
	require.Equal(t, 4, lit[6])
	require.Equal(t, 8, lit[7])
}

func TestGraphDegenerateDomain(t *testing.T) {
	s := seriesOf(42, 42, 42, 42, 42, 42, 42, 42)
	f, err := Graph(s, GraphOptions{Width: 8, Height: 8, FillValue: 42})
	require.NoError(t, err)
	require.Equal(t, make([]int, 8), litCounts(f))

	s.Limits = series.NewLimits(4, 18, 25, 35)
	f, err = Graph(s, GraphOptions{Width: 8, Height: 8, FillValue: 42})
	require.NoError(t, err)
	require.Equal(t, make([]int, 8), litCounts(f))

	// a degenerate domain falls back to the window
	f, err = Graph(seriesOf(0, 10), GraphOptions{Width: 2, Height: 4, Domain: &series.Range{Min: 5, Max: 5}})
	require.NoError(t, err)
	require.Equal(t, []int{0, 4}, litCounts(f))
}

func TestBucket(t *testing.T) {
	limits := []float64{4, 18, 25, 35}
	require.Equal(t, 0, Bucket(-10, limits))
	require.Equal(t, 0, Bucket(4, limits))
	require.Equal(t, 1, Bucket(4.5, limits))
	require.Equal(t, 1, Bucket(18, limits))
	require.Equal(t, 2, Bucket(18.01, limits))
	require.Equal(t, 3, Bucket(30, limits))
	require.Equal(t, 4, Bucket(35.1, limits))

	prev := 0
	for v := -5.0; v < 50; v += 0.25 {
		b := Bucket(v, limits)
		require.GreaterOrEqual(t, b, prev)
		prev = b
	}
}

func TestGraphThresholdColours(t *testing.T) {
	s := seriesOf(0, 10, 20, 30, 40)
	s.Limits = series.NewLimits(4, 18, 25, 35)

	f, err := Graph(s, GraphOptions{Width: 5, Height: 4})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, litCounts(f))
	require.Equal(t, DefaultPalette[1], f.RGBAt(1, 3))
	require.Equal(t, DefaultPalette[2], f.RGBAt(2, 3))
	require.Equal(t, DefaultPalette[3], f.RGBAt(3, 1))
	require.Equal(t, DefaultPalette[4], f.RGBAt(4, 0))

	custom := Palette{White, White, White, White, Purple}
	f, err = Graph(s, GraphOptions{Width: 5, Height: 4, Palette: &custom})
	require.NoError(t, err)
	require.Equal(t, Purple, f.RGBAt(4, 0))
}

func TestGraphPartialLimitsUseHue(t *testing.T) {
	s := seriesOf(0, 100)
	s.Limits = series.NewLimits(1, 2, 3, 4)
	s.Limits[1] = nil

	f, err := Graph(s, GraphOptions{Width: 2, Height: 4})
	require.NoError(t, err)
	require.Equal(t, HueColor(1), f.RGBAt(1, 0))
}

func TestGraphScrubsInvalidSamples(t *testing.T) {
	scrubbed := seriesOf(5, 150, 50).WithRange(0, 100)
	clean := seriesOf(5, 0, 50)

	require.Equal(t, []float64{5, 0, 50}, Window(scrubbed, 3, 0))

	a, err := Graph(scrubbed, GraphOptions{Width: 3, Height: 8})
	require.NoError(t, err)
	b, err := Graph(clean, GraphOptions{Width: 3, Height: 8})
	require.NoError(t, err)
	require.Equal(t, b, a)

	withGap := seriesOf(5, math.NaN(), 50)
	require.Equal(t, []float64{5, -1, 50}, Window(withGap, 3, -1))
}

func TestGraphReservesBottomRow(t *testing.T) {
	s := seriesOf(0, 100)
	f, err := Graph(s, GraphOptions{Width: 2, Height: 8, ReserveProgressRow: true})
	require.NoError(t, err)
	require.Equal(t, []int{0, 7}, litCounts(f))
	for _, c := range f.Row(7) {
		require.Equal(t, Background, c)
	}

	f.SetRow(7, ProgressBar(1, 2, ProgressFG, Background))
	require.Equal(t, ProgressFG, f.RGBAt(0, 7))
}

func TestGraphErrors(t *testing.T) {
	s := seriesOf(1, 2, 3)

	_, err := Graph(s, GraphOptions{Width: 0, Height: 8})
	require.ErrorIs(t, err, ErrInvalidSize)
	_, err = Graph(s, GraphOptions{Width: 8, Height: 0})
	require.ErrorIs(t, err, ErrInvalidSize)
	_, err = Graph(s, GraphOptions{Width: 8, Height: 1, ReserveProgressRow: true})
	require.ErrorIs(t, err, ErrInvalidSize)

	s.Limits = series.NewLimits(1, 2, 3)
	_, err = Graph(s, GraphOptions{Width: 8, Height: 8})
	require.ErrorIs(t, err, ErrLimitArity)
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(0.3, 10, ProgressFG, Background)
	require.Len(t, bar, 10)
	for i, c := range bar {
		if i < 3 {
			require.Equal(t, ProgressFG, c)
		} else {
			require.Equal(t, Background, c)
		}
	}

	require.Equal(t, ProgressBar(0, 10, ProgressFG, Background), ProgressBar(-0.5, 10, ProgressFG, Background))
	require.Equal(t, ProgressBar(1, 10, ProgressFG, Background), ProgressBar(1.5, 10, ProgressFG, Background))
	require.Equal(t, ProgressBar(0, 10, ProgressFG, Background), ProgressBar(math.NaN(), 10, ProgressFG, Background))
	for _, c := range ProgressBar(1, 10, ProgressFG, Background) {
		require.Equal(t, ProgressFG, c)
	}
	require.Nil(t, ProgressBar(0.5, 0, ProgressFG, Background))
}

func TestSparkleZeroDensityClears(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	opts := SparkleOptions{Width: 8, Height: 8, ReserveProgressRow: true}

	prev := NewFrame(8, 8, Red)
	prev.SetRow(7, ProgressBar(0.5, 8, ProgressFG, Background))
	want := NewFrame(8, 8, Background)
	want.SetRow(7, prev.Row(7))

	for i := 0; i < 20; i++ {
		f, err := Sparkle(rng, opts, prev)
		require.NoError(t, err)
		require.Equal(t, want, f)
		prev = f
	}
}

func TestSparkleChangesAtMostOneCell(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	opts := SparkleOptions{Width: 8, Height: 8, ReserveProgressRow: true, Density: 0.5}

	frame := NewFrame(8, 8, Background)
	bar := ProgressBar(0.25, 8, ProgressFG, Background)
	frame.SetRow(7, bar)

	sparkled := 0
	for i := 0; i < 200; i++ {
		next, err := Sparkle(rng, opts, frame)
		require.NoError(t, err)
		require.Equal(t, bar, next.Row(7))

		diff := 0
		for j := range next.Pix {
			if next.Pix[j] != frame.Pix[j] {
				diff++
			}
		}
		cleared := true
		for y := 0; y < 7; y++ {
			for x := 0; x < 8; x++ {
				if next.RGBAt(x, y) != Background {
					cleared = false
				}
			}
		}
		require.True(t, diff <= 1 || cleared, "step %d changed %d cells", i, diff)
		if diff == 1 {
			sparkled++
		}
		frame = next
	}
	require.Greater(t, sparkled, 0)
}

func TestSparkleErrors(t *testing.T) {
	_, err := Sparkle(nil, SparkleOptions{Width: 8, Height: 8}, NewFrame(4, 4, Background))
	require.ErrorIs(t, err, ErrFrameSize)

	_, err = Sparkle(nil, SparkleOptions{Width: 8, Height: 1, ReserveProgressRow: true}, Frame{})
	require.ErrorIs(t, err, ErrInvalidSize)

	f, err := Sparkle(nil, SparkleOptions{Width: 4, Height: 4}, Frame{})
	require.NoError(t, err)
	require.Len(t, f.Pix, 16)
}

func TestFrameImage(t *testing.T) {
	f := NewFrame(3, 2, Background)
	f.Set(2, 1, Yellow)
	f.Set(5, 5, Red)

	g := FromImage(f)
	require.Equal(t, f, g)
	require.Equal(t, 1, f.Lit(2, Background))
}
