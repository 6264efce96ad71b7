package render

import "math"

// ProgressBar returns width colours: the first floor(fraction*width) are fg,
// the rest bg. fraction is clamped to [0,1]; NaN counts as 0.
func ProgressBar(fraction float64, width int, fg, bg RGB) []RGB {
	if width <= 0 {
		return nil
	}
	lit := int(math.Floor(clamp(fraction, 0, 1) * float64(width)))
	bar := make([]RGB, width)
	for i := range bar {
		if i < lit {
			bar[i] = fg
		} else {
			bar[i] = bg
		}
	}
	return bar
}
