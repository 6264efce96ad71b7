package hat

import (
	"context"
	"image"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_hats/internal/display"
	"github.com/relabs-tech/sensor_hats/internal/render"
	"github.com/relabs-tech/sensor_hats/internal/sensors"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

func newSenseHat(t *testing.T, progress bool) (*SenseHat, *display.Memory) {
	mem := display.NewMemory(8, 8)
	h, err := NewSenseHat(mem, Settings{ModeMin: 0, ModeMax: 2, Progress: progress})
	require.NoError(t, err)
	return h, mem
}

func staircase(n int) *series.Series {
	s := series.New("Stairs", "", n)
	for i := 1; i <= n; i++ {
		s.Append(float64(i))
	}
	return s
}

func TestDisplayModeWraps(t *testing.T) {
	h, _ := newSenseHat(t, false)
	require.Equal(t, 0, h.Mode())
	require.Equal(t, 1, h.UpdateDisplayMode(1))
	require.Equal(t, 2, h.UpdateDisplayMode(1))
	require.Equal(t, 0, h.UpdateDisplayMode(1))
	require.Equal(t, 2, h.UpdateDisplayMode(-1))
}

func TestInvalidModeRange(t *testing.T) {
	_, err := NewSenseHat(display.NewMemory(8, 8), Settings{ModeMin: 3, ModeMax: 1})
	require.Error(t, err)
}

func TestRotateWraps(t *testing.T) {
	h, mem := newSenseHat(t, false)
	require.NoError(t, h.Rotate(-1))
	rot, _, _ := mem.State()
	require.Equal(t, 270, rot)
	require.NoError(t, h.Rotate(1))
	require.NoError(t, h.Rotate(1))
	require.Equal(t, 90, h.Rotation())

	// rotating wakes a display that is off but not asleep
	require.NoError(t, h.DisplayOff())
	_, on, _ := mem.State()
	require.False(t, on)
	require.NoError(t, h.Rotate(1))
	_, on, _ = mem.State()
	require.True(t, on)

	require.NoError(t, h.UpdateSleepMode(true))
	require.NoError(t, h.Rotate(1))
	_, on, _ = mem.State()
	require.False(t, on)
	require.Equal(t, 270, h.Rotation())
}

func TestSleepMode(t *testing.T) {
	h, mem := newSenseHat(t, false)
	require.NoError(t, h.UpdateSleepMode(false, true))
	require.True(t, h.Sleeping())
	_, on, _ := mem.State()
	require.False(t, on)

	n := mem.Shows()
	require.NoError(t, h.DisplaySparkle())
	require.NoError(t, h.DisplayAsGraph(staircase(8), nil))
	require.Equal(t, n, mem.Shows())

	require.NoError(t, h.UpdateSleepMode(false, false))
	require.False(t, h.Sleeping())
	_, on, _ = mem.State()
	require.True(t, on)

	require.NoError(t, h.ToggleSleep())
	require.True(t, h.Sleeping())
}

func TestIdle(t *testing.T) {
	h, _ := newSenseHat(t, false)
	now := time.Unix(1000, 0)
	h.now = func() time.Time { return now }
	h.Touch()
	now = now.Add(30 * time.Second)
	require.Equal(t, 30*time.Second, h.Idle())
	h.UpdateDisplayMode(1)
	require.Zero(t, h.Idle())
}

func TestSenseHatGraphAndProgress(t *testing.T) {
	h, mem := newSenseHat(t, true)
	require.NoError(t, h.DisplayAsGraph(staircase(8), nil))
	f := mem.Frame()
	require.Equal(t, make([]render.RGB, 8), f.Row(7))
	require.Equal(t, 0, f.Lit(0, render.Background))
	require.Equal(t, 7, f.Lit(7, render.Background))
	for x := 1; x < 8; x++ {
		require.GreaterOrEqual(t, f.Lit(x, render.Background), f.Lit(x-1, render.Background))
	}

	require.NoError(t, h.DisplayProgress(0.5))
	f = mem.Frame()
	bar := f.Row(7)
	for x := 0; x < 8; x++ {
		want := render.Background
		if x < 4 {
			want = render.ProgressFG
		}
		require.Equal(t, want, bar[x], "x=%d", x)
	}
	require.Equal(t, 7, f.Lit(7, render.Background))

	// sparkle never touches the progress row
	for i := 0; i < 50; i++ {
		require.NoError(t, h.DisplaySparkle())
		require.Equal(t, bar, mem.Frame().Row(7))
	}
}

func TestSenseHatProgressDisabled(t *testing.T) {
	h, mem := newSenseHat(t, false)
	require.NoError(t, h.DisplayAsGraph(staircase(8), nil))
	n := mem.Shows()
	require.NoError(t, h.DisplayProgress(1))
	require.Equal(t, n, mem.Shows())
	require.Equal(t, 8, mem.Frame().Lit(7, render.Background))
}

func TestJoystick(t *testing.T) {
	h, _ := newSenseHat(t, false)
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Right, Action: sensors.Pressed}))
	require.Equal(t, 1, h.Mode())
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Right, Action: sensors.Released}))
	require.Equal(t, 1, h.Mode())
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Left, Action: sensors.Held}))
	require.Equal(t, 0, h.Mode())
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Up, Action: sensors.Pressed}))
	require.Equal(t, 270, h.Rotation())
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Down, Action: sensors.Pressed}))
	require.Equal(t, 0, h.Rotation())
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Middle, Action: sensors.Pressed}))
	require.True(t, h.Sleeping())
}

func TestListen(t *testing.T) {
	h, _ := newSenseHat(t, false)
	events := make(chan sensors.JoystickEvent, 2)
	events <- sensors.JoystickEvent{Direction: sensors.Right, Action: sensors.Pressed}
	events <- sensors.JoystickEvent{Direction: sensors.Right, Action: sensors.Pressed}
	close(events)
	h.Listen(context.Background(), events)
	require.Equal(t, 2, h.Mode())
}

func newEnviro(t *testing.T) (*Enviro, *display.Memory) {
	mem := display.NewMemory(160, 80)
	e, err := NewEnviro(mem, Settings{ModeMax: 5, Progress: true}, DefaultLayout)
	require.NoError(t, err)
	return e, mem
}

func temperature(v float64) *series.Series {
	s := series.New("Temperature", "C", 20).WithLimits(series.NewLimits(4, 18, 25, 35))
	for i := 0; i < 20; i++ {
		s.Append(v)
	}
	return s
}

func hasColor(f render.Frame, r0, r1, x0, x1 int, c render.RGB) bool {
	for y := r0; y < r1; y++ {
		for x := x0; x < x1; x++ {
			if f.RGBAt(x, y) == c {
				return true
			}
		}
	}
	return false
}

func TestEnviroGraph(t *testing.T) {
	e, mem := newEnviro(t)
	require.NoError(t, e.DisplayAsGraph(temperature(20), &series.Range{Min: 0, Max: 40}))
	f := mem.Frame()

	require.True(t, hasColor(f, 0, DefaultLayout.TopBar, 0, 160, render.Green), "header in the bucket colour")
	// 20 of 40 over a 59 row graph lights 29 rows
	require.Equal(t, render.Green, f.RGBAt(150, 79))
	require.Equal(t, render.Green, f.RGBAt(150, 51))
	require.Equal(t, render.Background, f.RGBAt(150, 50))
	require.Equal(t, render.Background, f.RGBAt(10, 79), "padding is not drawn")

	require.NoError(t, e.DisplayProgress(0.25))
	f = mem.Frame()
	require.Equal(t, render.ProgressFG, f.RGBAt(39, 0))
	require.Equal(t, render.Background, f.RGBAt(40, 0))
	require.Equal(t, render.Green, f.RGBAt(150, 79))
}

func TestEnviroText(t *testing.T) {
	e, mem := newEnviro(t)
	plain := func(label string) *series.Series {
		s := series.New(label, "x", 4)
		s.Append(1)
		return s
	}
	ss := []*series.Series{plain("A"), plain("B"), plain("C"), temperature(40)}
	require.NoError(t, e.DisplayAsText(ss))
	f := mem.Frame()
	require.True(t, hasColor(f, 41, 80, 81, 160, render.Red))
	require.False(t, hasColor(f, 0, 80, 0, 80, render.Red))
	require.True(t, hasColor(f, 0, 40, 0, 80, render.Text))
}

func TestEnviroMessageAndSparkle(t *testing.T) {
	e, mem := newEnviro(t)
	require.NoError(t, e.DisplayMessage("hello"))
	require.Equal(t, render.Grey, mem.Frame().RGBAt(0, 0))

	for i := 0; i < 10; i++ {
		require.NoError(t, e.DisplaySparkle())
	}
	f := mem.Frame()
	require.Equal(t, 160, f.Width)
	require.Equal(t, 80, f.Height)
}

func TestEnviroLayout(t *testing.T) {
	_, err := NewEnviro(display.NewMemory(160, 80), Settings{}, Layout{TopBar: 80})
	require.ErrorIs(t, err, render.ErrInvalidSize)
}

func TestHeadline(t *testing.T) {
	require.Equal(t, "Temp: 20.0 C", headline(temperature(20)))
	pm := series.New("PM2.5", "ug/m3", 2)
	require.Equal(t, "PM2.: -- ug/m3", headline(pm))
	pm.Append(math.NaN())
	require.Equal(t, "PM2.: -- ug/m3", headline(pm))
	pm.Append(3.14)
	require.Equal(t, "PM2.: 3.1 ug/m3", headline(pm))
}

// portraitPanel is a 160x80 panel that turns to 80x160 at 90 and 270
// degrees, like the ST7735.
type portraitPanel struct {
	*display.Memory
	rot   int
	shown render.Frame
}

func (p *portraitPanel) SetRotation(deg int) error {
	p.rot = deg
	return p.Memory.SetRotation(deg)
}

func (p *portraitPanel) Bounds() image.Rectangle {
	if p.rot == 90 || p.rot == 270 {
		return image.Rect(0, 0, 80, 160)
	}
	return image.Rect(0, 0, 160, 80)
}

func (p *portraitPanel) Show(f render.Frame) error {
	if f.Bounds() != p.Bounds() {
		return render.ErrFrameSize
	}
	p.shown = f
	return nil
}

func TestEnviroProgressAfterQuarterTurn(t *testing.T) {
	p := &portraitPanel{Memory: display.NewMemory(160, 80)}
	e, err := NewEnviro(p, Settings{ModeMax: 5, Progress: true}, DefaultLayout)
	require.NoError(t, err)

	require.NoError(t, e.Rotate(1))
	require.Equal(t, 80, e.Frame().Width)
	require.NoError(t, e.DisplayProgress(0.5))
	require.Equal(t, 80, p.shown.Width)
	require.Equal(t, 160, p.shown.Height)

	require.NoError(t, e.Rotate(-1))
	require.NoError(t, e.DisplayProgress(0.5))
	require.Equal(t, 160, p.shown.Width)
}

func TestJoystickOnlyMiddleWakes(t *testing.T) {
	h, _ := newSenseHat(t, false)
	require.NoError(t, h.UpdateSleepMode(true))
	for _, d := range []sensors.Direction{sensors.Up, sensors.Down, sensors.Left, sensors.Right} {
		require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: d, Action: sensors.Pressed}))
		require.True(t, h.Sleeping(), "direction %v", d)
	}
	require.NoError(t, h.HandleJoystick(sensors.JoystickEvent{Direction: sensors.Middle, Action: sensors.Pressed}))
	require.False(t, h.Sleeping())
}
