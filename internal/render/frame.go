package render

import (
	"image"
	"image/color"
)

// Frame is one fully computed pixel buffer for a single display refresh.
// Pix is row-major: the pixel at (x, y) is Pix[y*Width+x].
type Frame struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Pix    []RGB `json:"pix"`
}

// NewFrame returns a width x height frame filled with bg.
func NewFrame(width, height int, bg RGB) Frame {
	f := Frame{Width: width, Height: height, Pix: make([]RGB, width*height)}
	if bg != (RGB{}) {
		for i := range f.Pix {
			f.Pix[i] = bg
		}
	}
	return f
}

// Clone returns a deep copy of f.
func (f Frame) Clone() Frame {
	c := f
	c.Pix = append([]RGB(nil), f.Pix...)
	return c
}

// RGBAt returns the pixel at (x, y), or Background when out of bounds.
func (f Frame) RGBAt(x, y int) RGB {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return Background
	}
	return f.Pix[y*f.Width+x]
}

// Set writes c at (x, y); out-of-bounds writes are ignored.
func (f Frame) Set(x, y int, c RGB) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Pix[y*f.Width+x] = c
}

// Row returns a copy of row y.
func (f Frame) Row(y int) []RGB {
	if y < 0 || y >= f.Height {
		return nil
	}
	return append([]RGB(nil), f.Pix[y*f.Width:(y+1)*f.Width]...)
}

// SetRow overwrites row y with row, truncated to the frame width.
func (f Frame) SetRow(y int, row []RGB) {
	if y < 0 || y >= f.Height {
		return
	}
	copy(f.Pix[y*f.Width:(y+1)*f.Width], row)
}

// Lit reports the number of pixels in column x that differ from bg.
func (f Frame) Lit(x int, bg RGB) int {
	n := 0
	for y := 0; y < f.Height; y++ {
		if f.RGBAt(x, y) != bg {
			n++
		}
	}
	return n
}

// ColorModel implements image.Image.
func (f Frame) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (f Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

// At implements image.Image.
func (f Frame) At(x, y int) color.Color { return f.RGBAt(x, y) }

// FromImage samples img into a frame of the same bounds.
func FromImage(img image.Image) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy(), Background)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			f.Pix[y*f.Width+x] = RGB{R: c.R, G: c.G, B: c.B}
		}
	}
	return f
}
