// Package display draws text on a pixel panel with tinyfont.
package display

import (
	"image"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.RGBA{A: 255}
)

// Panel is a pixel display that can also be filled in one call, such as
// *st7789.Device or *Framebuffer.
type Panel interface {
	drivers.Displayer
	FillScreen(c color.RGBA)
}

// Font pairs a tinyfont face with the metrics the layout needs.
type Font struct {
	Face        tinyfont.Fonter
	GlyphWidth  int16
	GlyphHeight int16
	Ascent      int16
}

// DefaultFont is FreeMono 9pt: 11 px advance, 18 px lines.
func DefaultFont() Font {
	return Font{Face: &freemono.Regular9pt7b, GlyphWidth: 11, GlyphHeight: 18, Ascent: 14}
}

// Screen draws text on a Panel.
type Screen struct {
	panel Panel
	font  Font
	bg    color.RGBA
}

func NewScreen(p Panel, f Font, bg color.RGBA) *Screen {
	return &Screen{panel: p, font: f, bg: bg}
}

func (s *Screen) Font() Font { return s.font }

// Clear fills the panel with the background colour.
func (s *Screen) Clear() { s.panel.FillScreen(s.bg) }

// DrawText writes text with its baseline starting at at and returns the box
// it occupies. Box.Max.X is the trailing x of the last glyph advance.
func (s *Screen) DrawText(text string, at image.Point, c color.RGBA) image.Rectangle {
	tinyfont.WriteLine(s.panel, s.font.Face, int16(at.X), int16(at.Y), text, c)
	_, w := tinyfont.LineWidth(s.font.Face, text)
	top := at.Y - int(s.font.Ascent)
	return image.Rect(at.X, top, at.X+int(w), top+int(s.font.GlyphHeight))
}

// Flush pushes buffered pixels, for panels that buffer.
func (s *Screen) Flush() error { return s.panel.Display() }
