package hat

import (
	"context"

	"github.com/relabs-tech/sensor_hats/internal/display"
	"github.com/relabs-tech/sensor_hats/internal/render"
	"github.com/relabs-tech/sensor_hats/internal/sensors"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

const senseHatDensity = 0.1

// SenseHat renders onto the 8x8 LED matrix. With the progress bar enabled
// the bottom row is reserved for it.
type SenseHat struct {
	*state
	palette render.Palette
}

// NewSenseHat wraps an 8x8 panel.
func NewSenseHat(p display.Panel, s Settings) (*SenseHat, error) {
	if s.Density == 0 {
		s.Density = senseHatDensity
	}
	st, err := newState(p, s, "sensehat")
	if err != nil {
		return nil, err
	}
	return &SenseHat{state: st, palette: render.DefaultPalette}, nil
}

// DisplayAsGraph draws the last 8 samples of s as columns.
func (h *SenseHat) DisplayAsGraph(s *series.Series, domain *series.Range) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ht := h.size()
	f, err := render.Graph(s, render.GraphOptions{
		Width:              w,
		Height:             ht,
		ReserveProgressRow: h.progress,
		Palette:            &h.palette,
		Domain:             domain,
		Background:         render.Background,
	})
	if err != nil {
		return err
	}
	return h.show(f)
}

// DisplayAsText has no room on an 8x8 matrix; the newest value of the first
// series is logged instead.
func (h *SenseHat) DisplayAsText(ss []*series.Series) error {
	if len(ss) > 0 {
		v, _ := ss[0].Last()
		h.log.Debug("text display", "label", ss[0].Label, "value", v)
	}
	return nil
}

// DisplayProgress overlays the progress bar on the bottom row of the frame
// last shown. It does nothing when the progress bar is disabled.
func (h *SenseHat) DisplayProgress(fraction float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.progress {
		return nil
	}
	f := h.last.Clone()
	f.SetRow(f.Height-1, render.ProgressBar(fraction, f.Width, render.ProgressFG, render.Background))
	return h.show(f)
}

// DisplaySparkle adds one random pixel to the frame last shown, or clears
// it now and then.
func (h *SenseHat) DisplaySparkle() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ht := h.size()
	existing := h.last
	if existing.Width != w || existing.Height != ht {
		existing = render.Frame{}
	}
	f, err := render.Sparkle(h.rng, render.SparkleOptions{
		Width:              w,
		Height:             ht,
		ReserveProgressRow: h.progress,
		Density:            h.density,
		Background:         render.Background,
	}, existing)
	if err != nil {
		return err
	}
	return h.show(f)
}

// DisplayMessage does not scroll text on the matrix; it is kept so both
// boards share one interface.
func (h *SenseHat) DisplayMessage(msg string) error {
	h.log.Debug("message", "msg", msg)
	return nil
}

// HandleJoystick maps stick presses to display controls: up and down
// rotate, left and right change the display mode, middle toggles sleep.
// Releases are ignored.
func (h *SenseHat) HandleJoystick(ev sensors.JoystickEvent) error {
	if ev.Action == sensors.Released {
		return nil
	}
	h.Touch()
	switch ev.Direction {
	case sensors.Up:
		return h.Rotate(-1)
	case sensors.Down:
		return h.Rotate(1)
	case sensors.Left:
		h.UpdateDisplayMode(-1)
	case sensors.Right:
		h.UpdateDisplayMode(1)
	case sensors.Middle:
		return h.ToggleSleep()
	}
	return nil
}

// Listen handles joystick events until events is closed or ctx is done.
func (h *SenseHat) Listen(ctx context.Context, events <-chan sensors.JoystickEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.log.Debug("joystick", "direction", ev.Direction, "action", ev.Action)
			if err := h.HandleJoystick(ev); err != nil {
				h.log.Warn("joystick", "err", err)
			}
		}
	}
}
