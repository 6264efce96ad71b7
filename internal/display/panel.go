// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display drives the board displays: the Sense HAT 8x8 LED matrix,
// the Enviro+ ST7735 LCD, an optional SSD1306 OLED and an in-memory panel
// for simulation.
package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"

	"github.com/relabs-tech/sensor_hats/internal/render"
)

// ErrRotation is returned for rotations other than 0, 90, 180 and 270.
var ErrRotation = errors.New("display: rotation must be 0, 90, 180 or 270")

// Panel is a pixel display that shows whole frames.
//
// Panels also implement periph's display.Drawer so partial updates and
// arbitrary images can be drawn onto the frame last shown.
type Panel interface {
	display.Drawer

	// Show replaces the panel contents with f. f must match Bounds.
	Show(f render.Frame) error
	Clear() error
	SetRotation(deg int) error
	SetPower(on bool) error
	SetLowLight(on bool) error
	Close() error
}

func checkRotation(deg int) error {
	switch deg {
	case 0, 90, 180, 270:
		return nil
	}
	return fmt.Errorf("%w: got %d", ErrRotation, deg)
}

// Rotate returns f turned clockwise by deg degrees. Turning by 90 or 270
// swaps width and height.
func Rotate(f render.Frame, deg int) render.Frame {
	w, h := f.Width, f.Height
	switch deg {
	case 90:
		out := render.NewFrame(h, w, render.Background)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(h-1-y, x, f.RGBAt(x, y))
			}
		}
		return out
	case 180:
		out := render.NewFrame(w, h, render.Background)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(w-1-x, h-1-y, f.RGBAt(x, y))
			}
		}
		return out
	case 270:
		out := render.NewFrame(h, w, render.Background)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(y, w-1-x, f.RGBAt(x, y))
			}
		}
		return out
	}
	return f.Clone()
}

// drawOnto copies src into cur the way display.Drawer.Draw specifies:
// dst is clipped to cur, and src is read starting at sp.
func drawOnto(cur render.Frame, dst image.Rectangle, src image.Image, sp image.Point) render.Frame {
	out := cur.Clone()
	dst = dst.Intersect(out.Bounds())
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(sp.X+x-dst.Min.X, sp.Y+y-dst.Min.Y)).(color.RGBA)
			out.Set(x, y, render.RGB{R: c.R, G: c.G, B: c.B})
		}
	}
	return out
}

func checkFrame(f render.Frame, b image.Rectangle) error {
	if f.Width != b.Dx() || f.Height != b.Dy() || len(f.Pix) != f.Width*f.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", render.ErrFrameSize, f.Width, f.Height, b.Dx(), b.Dy())
	}
	return nil
}

// dim scales a colour down for low-light mode.
func dim(c render.RGB) render.RGB {
	return render.RGB{R: c.R / 4, G: c.G / 4, B: c.B / 4}
}
