package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/relabs-tech/sensor_hats/internal/render"
)

// Memory is a Panel that keeps its contents in memory. The simulator and
// the web viewer read frames back from it.
type Memory struct {
	mu       sync.Mutex
	w, h     int
	frame    render.Frame
	rotation int
	on       bool
	lowLight bool
	shows    int
}

// NewMemory returns a blank, powered-on w x h panel.
func NewMemory(w, h int) *Memory {
	return &Memory{w: w, h: h, frame: render.NewFrame(w, h, render.Background), on: true}
}

func (m *Memory) String() string { return fmt.Sprintf("memory(%dx%d)", m.w, m.h) }

// Halt blanks the panel.
func (m *Memory) Halt() error { return m.Clear() }

func (m *Memory) ColorModel() color.Model { return color.RGBAModel }

func (m *Memory) Bounds() image.Rectangle { return image.Rect(0, 0, m.w, m.h) }

func (m *Memory) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = drawOnto(m.frame, dst, src, sp)
	m.shows++
	return nil
}

func (m *Memory) Show(f render.Frame) error {
	if err := checkFrame(f, m.Bounds()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = f.Clone()
	m.shows++
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = render.NewFrame(m.w, m.h, render.Background)
	return nil
}

func (m *Memory) SetRotation(deg int) error {
	if err := checkRotation(deg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = deg
	return nil
}

func (m *Memory) SetPower(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	return nil
}

func (m *Memory) SetLowLight(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowLight = on
	return nil
}

func (m *Memory) Close() error { return nil }

// Frame returns a copy of the current contents.
func (m *Memory) Frame() render.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame.Clone()
}

// Shows counts Show and Draw calls.
func (m *Memory) Shows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows
}

// State reports rotation, power and low-light.
func (m *Memory) State() (rotation int, on, lowLight bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation, m.on, m.lowLight
}
