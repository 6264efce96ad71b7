package hat

import (
	"fmt"
	"image"
	"math"

	"github.com/relabs-tech/sensor_hats/internal/display"
	"github.com/relabs-tech/sensor_hats/internal/render"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

// Layout places the text header above Enviro+ graphs.
type Layout struct {
	TopBar int // header height in pixels
	TopX   int
	TopY   int
}

// DefaultLayout suits the 160x80 LCD.
var DefaultLayout = Layout{TopBar: 21, TopX: 2, TopY: 2}

const enviroDensity = 0.1

// Enviro renders text and graphs onto the Enviro+ LCD. The progress bar is
// a one pixel line along the top edge.
type Enviro struct {
	*state
	palette render.Palette
	layout  Layout
}

// NewEnviro wraps a panel that is large enough for text.
func NewEnviro(p display.Panel, s Settings, l Layout) (*Enviro, error) {
	if s.Density == 0 {
		s.Density = enviroDensity
	}
	st, err := newState(p, s, "enviro")
	if err != nil {
		return nil, err
	}
	w, h := st.size()
	if l.TopBar < 0 || l.TopBar >= h-1 {
		return nil, fmt.Errorf("%w: top bar %d on a %dx%d panel", render.ErrInvalidSize, l.TopBar, w, h)
	}
	return &Enviro{state: st, palette: render.DefaultPalette, layout: l}, nil
}

// DisplayAsGraph draws a header with the newest value of s and a full-width
// graph of s under it.
func (e *Enviro) DisplayAsGraph(s *series.Series, domain *series.Range) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, h := e.size()
	g, err := render.Graph(s, render.GraphOptions{
		Width:      w,
		Height:     h - e.layout.TopBar,
		Palette:    &e.palette,
		Domain:     domain,
		Background: render.Background,
	})
	if err != nil {
		return err
	}
	c := display.NewCanvas(w, h, render.Background)
	c.Text(e.layout.TopX, e.layout.TopY, headline(s), e.colorOf(s))
	c.Blit(0, e.layout.TopBar, g)
	return e.show(c.Frame())
}

// DisplayAsText lays the newest value of each series out in two columns.
func (e *Enviro) DisplayAsText(ss []*series.Series) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, h := e.size()
	c := display.NewCanvas(w, h, render.Background)
	rows := (len(ss) + 1) / 2
	for i, s := range ss {
		x := 1 + (w/2)*(i/rows)
		y := 1 + (h/rows)*(i%rows)
		c.Text(x, y, headline(s), e.colorOf(s))
	}
	return e.show(c.Frame())
}

// DisplayProgress draws the progress bar over the top row of the frame last
// shown. It does nothing when the progress bar is disabled.
func (e *Enviro) DisplayProgress(fraction float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.progress {
		return nil
	}
	f := e.last.Clone()
	f.SetRow(0, render.ProgressBar(fraction, f.Width, render.ProgressFG, render.Background))
	return e.show(f)
}

// DisplaySparkle advances the sparkle animation over the whole screen.
func (e *Enviro) DisplaySparkle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, h := e.size()
	existing := e.last
	if existing.Width != w || existing.Height != h {
		existing = render.Frame{}
	}
	f, err := render.Sparkle(e.rng, render.SparkleOptions{
		Width:      w,
		Height:     h,
		Density:    e.density,
		Background: render.Background,
	}, existing)
	if err != nil {
		return err
	}
	return e.show(f)
}

// DisplayMessage shows msg on an otherwise blank screen.
func (e *Enviro) DisplayMessage(msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, h := e.size()
	c := display.NewCanvas(w, h, render.Background)
	c.FillRect(image.Rect(0, 0, w, e.layout.TopBar), render.Grey)
	c.Text(e.layout.TopX, e.layout.TopY, msg, render.Text)
	return e.show(c.Frame())
}

// colorOf is the bucket colour of the newest value of s, or the text colour
// when s has no complete limits or no value yet.
func (e *Enviro) colorOf(s *series.Series) render.RGB {
	limits, ok := s.Limits.Complete()
	v, have := s.Last()
	if !ok || !have || math.IsNaN(v) {
		return render.Text
	}
	return e.palette[render.Bucket(v, limits)]
}

// headline is "<label>: <value> <unit>" with the label cut to four letters.
func headline(s *series.Series) string {
	label := s.Label
	if len(label) > 4 {
		label = label[:4]
	}
	v, ok := s.Last()
	if !ok || math.IsNaN(v) {
		return fmt.Sprintf("%s: -- %s", label, s.Unit)
	}
	return fmt.Sprintf("%s: %.1f %s", label, v, s.Unit)
}
