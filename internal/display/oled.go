package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/sensor_hats/internal/render"
)

// OLED is a 128x64 SSD1306 on I²C, usable as a monochrome stand-in for the
// Enviro+ LCD. Pixels brighter than a threshold are lit.
type OLED struct {
	mu       sync.Mutex
	dev      *ssd1306.Dev
	rotation int
	on       bool
	last     render.Frame
}

const oledContrastLow, oledContrastHigh = 0x10, 0xff

// NewOLED initializes the SSD1306 on bus.
func NewOLED(bus i2c.Bus) (*OLED, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("oled: init: %w", err)
	}
	b := dev.Bounds()
	return &OLED{dev: dev, on: true, last: render.NewFrame(b.Dx(), b.Dy(), render.Background)}, nil
}

func (o *OLED) String() string { return "ssd1306" }

func (o *OLED) Halt() error { return o.SetPower(false) }

func (o *OLED) ColorModel() color.Model { return image1bit.BitModel }

func (o *OLED) Bounds() image.Rectangle { return o.dev.Bounds() }

func (o *OLED) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.write(drawOnto(o.last, dst, src, sp))
}

func (o *OLED) Show(f render.Frame) error {
	if err := checkFrame(f, o.Bounds()); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.write(f)
}

func (o *OLED) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	b := o.Bounds()
	return o.write(render.NewFrame(b.Dx(), b.Dy(), render.Background))
}

// SetRotation supports 0 and 180 only; the panel is not square.
func (o *OLED) SetRotation(deg int) error {
	if deg != 0 && deg != 180 {
		return fmt.Errorf("%w: oled supports 0 or 180, got %d", ErrRotation, deg)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rotation = deg
	return o.write(o.last)
}

// SetPower halts the controller when off; the next write wakes it.
func (o *OLED) SetPower(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.on = on
	if !on {
		return o.dev.Halt()
	}
	return o.write(o.last)
}

func (o *OLED) SetLowLight(on bool) error {
	level := byte(oledContrastHigh)
	if on {
		level = oledContrastLow
	}
	return o.dev.SetContrast(level)
}

func (o *OLED) Close() error { return o.dev.Halt() }

// write converts f to 1 bit and draws it. Callers hold o.mu.
func (o *OLED) write(f render.Frame) error {
	o.last = f.Clone()
	if !o.on {
		return nil
	}
	img := image1bit.NewVerticalLSB(o.dev.Bounds())
	src := Rotate(f, o.rotation)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			img.SetBit(x, y, luminance(src.RGBAt(x, y)) > 0x20)
		}
	}
	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}

func luminance(c render.RGB) uint8 {
	return uint8((299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000)
}
