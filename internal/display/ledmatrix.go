package display

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/relabs-tech/sensor_hats/internal/render"
)

// Sense HAT LED matrix through the rpi-sense-fb framebuffer.

const (
	ledSize   = 8
	fbName    = "RPi-Sense FB"
	fbBytesPP = 2
)

// framebuffer is the part of *os.File the matrix writes through.
type framebuffer interface {
	io.WriterAt
	io.Closer
}

// LEDMatrix is the 8x8 RGB LED matrix. Frames are given in the logical
// orientation and rotated in software before they are written.
type LEDMatrix struct {
	mu       sync.Mutex
	fb       framebuffer
	rotation int
	on       bool
	lowLight bool
	last     render.Frame
}

// OpenLEDMatrix finds the Sense HAT framebuffer device and opens it.
func OpenLEDMatrix() (*LEDMatrix, error) {
	names, _ := filepath.Glob("/sys/class/graphics/fb*/name")
	for _, n := range names {
		b, err := os.ReadFile(n)
		if err != nil || strings.TrimSpace(string(b)) != fbName {
			continue
		}
		dev := filepath.Join("/dev", filepath.Base(filepath.Dir(n)))
		f, err := os.OpenFile(dev, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("led matrix: open %s: %w", dev, err)
		}
		return NewLEDMatrix(f), nil
	}
	return nil, fmt.Errorf("led matrix: framebuffer %q not found", fbName)
}

// NewLEDMatrix writes frames to fb.
func NewLEDMatrix(fb framebuffer) *LEDMatrix {
	return &LEDMatrix{fb: fb, on: true, last: render.NewFrame(ledSize, ledSize, render.Background)}
}

func (m *LEDMatrix) String() string { return "sensehat-led" }

func (m *LEDMatrix) Halt() error { return m.Clear() }

func (m *LEDMatrix) ColorModel() color.Model { return color.RGBAModel }

func (m *LEDMatrix) Bounds() image.Rectangle { return image.Rect(0, 0, ledSize, ledSize) }

func (m *LEDMatrix) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(drawOnto(m.last, dst, src, sp))
}

func (m *LEDMatrix) Show(f render.Frame) error {
	if err := checkFrame(f, m.Bounds()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(f)
}

func (m *LEDMatrix) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(render.NewFrame(ledSize, ledSize, render.Background))
}

// SetRotation rotates subsequent frames and redraws the current one.
func (m *LEDMatrix) SetRotation(deg int) error {
	if err := checkRotation(deg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = deg
	return m.write(m.last)
}

// SetPower blanks the matrix when off. Frames shown while off are kept and
// appear when the matrix is switched back on.
func (m *LEDMatrix) SetPower(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	return m.write(m.last)
}

func (m *LEDMatrix) SetLowLight(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowLight = on
	return m.write(m.last)
}

func (m *LEDMatrix) Close() error {
	if err := m.Clear(); err != nil {
		_ = m.fb.Close()
		return err
	}
	return m.fb.Close()
}

// write encodes f as little-endian RGB565. Callers hold m.mu.
func (m *LEDMatrix) write(f render.Frame) error {
	m.last = f.Clone()
	out := Rotate(f, m.rotation)
	buf := make([]byte, ledSize*ledSize*fbBytesPP)
	if m.on {
		for i, c := range out.Pix {
			if m.lowLight {
				c = dim(c)
			}
			binary.LittleEndian.PutUint16(buf[i*fbBytesPP:], RGB565(c))
		}
	}
	if _, err := m.fb.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("led matrix: write: %w", err)
	}
	return nil
}

// RGB565 packs c into 5-6-5 bits.
func RGB565(c render.RGB) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}
