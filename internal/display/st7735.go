// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/relabs-tech/sensor_hats/internal/render"
)

// Sitronix ST7735 0.96" LCD on the Enviro+. The panel is 80x160 portrait;
// rotation 0 here is landscape (160x80) with the header at the top.

const (
	st7735NativeW   = 80
	st7735NativeH   = 160
	st7735OffsetX   = 26
	st7735OffsetY   = 1
	st7735Speed     = 10 * physic.MegaHertz
	st7735MaxTx     = 4096
	st7735LowLight  = gpio.DutyMax / 4
	st7735PWMFreq   = 1 * physic.KiloHertz
	st7735DCPin     = "GPIO9"
	st7735BLPin     = "GPIO12"
	st7735SPIDevice = "SPI0.1"
)

const (
	st7735SWRESET = 0x01
	st7735SLPOUT  = 0x11
	st7735NORON   = 0x13
	st7735INVON   = 0x21
	st7735DISPOFF = 0x28
	st7735DISPON  = 0x29
	st7735CASET   = 0x2a
	st7735RASET   = 0x2b
	st7735RAMWR   = 0x2c
	st7735MADCTL  = 0x36
	st7735COLMOD  = 0x3a
	st7735FRMCTR1 = 0xb1
	st7735FRMCTR2 = 0xb2
	st7735FRMCTR3 = 0xb3
	st7735INVCTR  = 0xb4
	st7735PWCTR1  = 0xc0
	st7735PWCTR2  = 0xc1
	st7735PWCTR4  = 0xc3
	st7735PWCTR5  = 0xc4
	st7735VMCTR1  = 0xc5
	st7735GMCTRP1 = 0xe0
	st7735GMCTRN1 = 0xe1
)

type st7735Cmd struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

var st7735Init = []st7735Cmd{
	{cmd: st7735SWRESET, delay: 150 * time.Millisecond},
	{cmd: st7735SLPOUT, delay: 500 * time.Millisecond},
	{cmd: st7735FRMCTR1, data: []byte{0x01, 0x2c, 0x2d}},
	{cmd: st7735FRMCTR2, data: []byte{0x01, 0x2c, 0x2d}},
	{cmd: st7735FRMCTR3, data: []byte{0x01, 0x2c, 0x2d, 0x01, 0x2c, 0x2d}},
	{cmd: st7735INVCTR, data: []byte{0x07}},
	{cmd: st7735PWCTR1, data: []byte{0xa2, 0x02, 0x84}},
	{cmd: st7735PWCTR2, data: []byte{0x0a, 0x00}},
	{cmd: st7735PWCTR4, data: []byte{0x8a, 0x2a}},
	{cmd: st7735PWCTR5, data: []byte{0x8a, 0xee}},
	{cmd: st7735VMCTR1, data: []byte{0x0e}},
	{cmd: st7735INVON},
	{cmd: st7735MADCTL, data: []byte{0xc8}},
	{cmd: st7735COLMOD, data: []byte{0x05}}, // 16 bit
	{cmd: st7735GMCTRP1, data: []byte{0x02, 0x1c, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2d, 0x29, 0x25, 0x2b, 0x39, 0x00, 0x01, 0x03, 0x10}},
	{cmd: st7735GMCTRN1, data: []byte{0x03, 0x1d, 0x07, 0x06, 0x2e, 0x2c, 0x29, 0x2d, 0x2e, 0x2e, 0x37, 0x3f, 0x00, 0x00, 0x02, 0x10}},
	{cmd: st7735NORON, delay: 10 * time.Millisecond},
	{cmd: st7735DISPON, delay: 100 * time.Millisecond},
}

// ST7735 drives the Enviro+ LCD over SPI with a data/command GPIO and a
// backlight GPIO.
type ST7735 struct {
	mu        sync.Mutex
	conn      spi.Conn
	port      spi.PortCloser
	dc        gpio.PinOut
	backlight gpio.PinOut
	sleep     func(time.Duration)

	rotation int
	on       bool
	lowLight bool
	last     render.Frame
}

// ST7735Opts selects the SPI device and control pins.
type ST7735Opts struct {
	SPIDevice string // default "SPI0.1"
	DCPin     string // default "GPIO9"
	Backlight string // default "GPIO12"
	Rotation  int
}

// OpenST7735 opens the SPI port and pins by name and initializes the panel.
// The periph host must already be initialized.
func OpenST7735(o ST7735Opts) (*ST7735, error) {
	if o.SPIDevice == "" {
		o.SPIDevice = st7735SPIDevice
	}
	if o.DCPin == "" {
		o.DCPin = st7735DCPin
	}
	if o.Backlight == "" {
		o.Backlight = st7735BLPin
	}
	port, err := spireg.Open(o.SPIDevice)
	if err != nil {
		return nil, fmt.Errorf("st7735: spi open %s: %w", o.SPIDevice, err)
	}
	dc := gpioreg.ByName(o.DCPin)
	if dc == nil {
		port.Close()
		return nil, fmt.Errorf("st7735: dc pin %q not found", o.DCPin)
	}
	bl := gpioreg.ByName(o.Backlight)
	if bl == nil {
		port.Close()
		return nil, fmt.Errorf("st7735: backlight pin %q not found", o.Backlight)
	}
	d, err := NewST7735(port, dc, bl, o.Rotation)
	if err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

// NewST7735 connects to port and runs the init sequence.
func NewST7735(port spi.PortCloser, dc, backlight gpio.PinOut, rotation int) (*ST7735, error) {
	return newST7735(port, dc, backlight, rotation, time.Sleep)
}

func newST7735(port spi.PortCloser, dc, backlight gpio.PinOut, rotation int, sleep func(time.Duration)) (*ST7735, error) {
	if err := checkRotation(rotation); err != nil {
		return nil, err
	}
	c, err := port.Connect(st7735Speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: spi connect: %w", err)
	}
	d := &ST7735{conn: c, port: port, dc: dc, backlight: backlight, sleep: sleep, rotation: rotation, on: true}
	d.last = render.NewFrame(d.Bounds().Dx(), d.Bounds().Dy(), render.Background)

	if err := backlight.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("st7735: backlight: %w", err)
	}
	for _, step := range st7735Init {
		if err := d.command(step.cmd, step.data...); err != nil {
			return nil, fmt.Errorf("st7735: init 0x%02x: %w", step.cmd, err)
		}
		if step.delay > 0 {
			d.sleep(step.delay)
		}
	}
	if err := backlight.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("st7735: backlight: %w", err)
	}
	return d, nil
}

func (d *ST7735) String() string { return "st7735" }

func (d *ST7735) Halt() error { return d.SetPower(false) }

func (d *ST7735) ColorModel() color.Model { return color.RGBAModel }

// Bounds is 160x80 at rotation 0 and 180, 80x160 otherwise.
func (d *ST7735) Bounds() image.Rectangle {
	if d.rotation == 90 || d.rotation == 270 {
		return image.Rect(0, 0, st7735NativeW, st7735NativeH)
	}
	return image.Rect(0, 0, st7735NativeH, st7735NativeW)
}

func (d *ST7735) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(drawOnto(d.last, dst, src, sp))
}

func (d *ST7735) Show(f render.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkFrame(f, d.Bounds()); err != nil {
		return err
	}
	return d.write(f)
}

func (d *ST7735) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.Bounds()
	return d.write(render.NewFrame(b.Dx(), b.Dy(), render.Background))
}

// SetRotation changes the orientation. Switching between landscape and
// portrait clears the panel.
func (d *ST7735) SetRotation(deg int) error {
	if err := checkRotation(deg); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	before := d.Bounds()
	d.rotation = deg
	if d.Bounds() != before {
		d.last = render.NewFrame(d.Bounds().Dx(), d.Bounds().Dy(), render.Background)
	}
	return d.write(d.last)
}

func (d *ST7735) SetPower(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.on = on
	cmd, level := byte(st7735DISPON), gpio.High
	if !on {
		cmd, level = st7735DISPOFF, gpio.Low
	}
	if err := d.command(cmd); err != nil {
		return fmt.Errorf("st7735: power: %w", err)
	}
	return d.setBacklight(level)
}

// SetLowLight dims the backlight with PWM.
func (d *ST7735) SetLowLight(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lowLight = on
	if !d.on {
		return nil
	}
	return d.setBacklight(gpio.High)
}

func (d *ST7735) Close() error {
	err := d.SetPower(false)
	if cerr := d.port.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *ST7735) setBacklight(level gpio.Level) error {
	var err error
	if level == gpio.High && d.lowLight {
		err = d.backlight.PWM(st7735LowLight, st7735PWMFreq)
	} else {
		err = d.backlight.Out(level)
	}
	if err != nil {
		return fmt.Errorf("st7735: backlight: %w", err)
	}
	return nil
}

// command sends cmd with DC low, then data with DC high.
func (d *ST7735) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

func (d *ST7735) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(b) > 0 {
		n := min(len(b), st7735MaxTx)
		if err := d.conn.Tx(b[:n], nil); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// write sends f as big-endian RGB565 to the whole panel. Callers hold d.mu.
func (d *ST7735) write(f render.Frame) error {
	d.last = f.Clone()
	// map the logical frame onto the portrait panel
	native := Rotate(f, (d.rotation+270)%360)

	x1 := st7735OffsetX + st7735NativeW - 1
	y1 := st7735OffsetY + st7735NativeH - 1
	if err := d.command(st7735CASET, 0, st7735OffsetX, byte(x1>>8), byte(x1)); err != nil {
		return fmt.Errorf("st7735: caset: %w", err)
	}
	if err := d.command(st7735RASET, 0, st7735OffsetY, byte(y1>>8), byte(y1)); err != nil {
		return fmt.Errorf("st7735: raset: %w", err)
	}
	buf := make([]byte, 0, len(native.Pix)*2)
	for _, c := range native.Pix {
		v := RGB565(c)
		buf = append(buf, byte(v>>8), byte(v))
	}
	if err := d.command(st7735RAMWR, buf...); err != nil {
		return fmt.Errorf("st7735: ramwr: %w", err)
	}
	return nil
}
