package render

import (
	"image"
	"image/color"
)

// Indicator is a one-glyph staleness marker. It draws only on transitions.
type Indicator struct {
	d      TextDrawer
	at     image.Point
	mark   string
	fg, bg color.RGBA
	shown  bool
}

func NewIndicator(d TextDrawer, at image.Point, mark string, fg, bg color.RGBA) *Indicator {
	return &Indicator{d: d, at: at, mark: mark, fg: fg, bg: bg}
}

// Set shows or hides the marker and reports whether anything was drawn.
func (i *Indicator) Set(stale bool) bool {
	if stale == i.shown {
		return false
	}
	c := i.bg
	if stale {
		c = i.fg
	}
	i.d.DrawText(i.mark, i.at, c)
	i.shown = stale
	return true
}

func (i *Indicator) Shown() bool { return i.shown }
