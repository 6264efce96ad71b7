package display

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/sensor_hats/internal/render"
)

// Canvas composes text and rendered frames into one frame for panels large
// enough to show text.
type Canvas struct {
	img *image.RGBA
	bg  render.RGB
}

// LineHeight is the pixel height of one line of canvas text.
const LineHeight = 13

// NewCanvas returns a w x h canvas filled with bg.
func NewCanvas(w, h int, bg render.RGB) *Canvas {
	c := &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h)), bg: bg}
	c.FillRect(c.img.Bounds(), bg)
	return c
}

// Text draws s with its top-left corner at (x, y).
func (c *Canvas) Text(x, y int, s string, col render.RGB) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)
}

// TextWidth is the rendered width of s in pixels.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// Blit copies f onto the canvas with its top-left corner at (x, y).
func (c *Canvas) Blit(x, y int, f render.Frame) {
	r := image.Rect(x, y, x+f.Width, y+f.Height)
	draw.Draw(c.img, r, f, image.Point{}, draw.Src)
}

// FillRect fills r with col.
func (c *Canvas) FillRect(r image.Rectangle, col render.RGB) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// Frame returns the canvas contents.
func (c *Canvas) Frame() render.Frame {
	return render.FromImage(c.img)
}
