// Package layout places the title and the four label/value rows on a
// rotated text panel. It is pure: no drawing, no state.
//
// The usable vertical span runs from TopMargin to span-BottomMargin and is cut
// into Lines equal bands with integer truncation. The remainder is dropped,
// never redistributed, so positions are reproducible to the pixel. The title
// sits on the top edge; the field labels stack upwards from the bottom edge,
// one band apart.
package layout

import (
	"image"

	"tinygo.org/x/drivers"

	"envmon-go/errcode"
	"envmon-go/types"
)

// ValueMargin is how far a value starts before the measured end of its
// label, compensating for the trailing advance of the label's last glyph.
const ValueMargin = 5

// Geometry describes the panel and the font metrics used on it.
type Geometry struct {
	Width, Height int16 // native panel pixels
	Rotation      drivers.Rotation
	Lines         int

	GlyphWidth  int16
	GlyphHeight int16 // line advance
	Ascent      int16 // baseline to top of the tallest glyph

	TopMargin    int16 // title baseline
	BottomMargin int16 // distance of the last baseline from the bottom edge
}

func (g Geometry) rotated() bool {
	return g.Rotation == drivers.Rotation90 || g.Rotation == drivers.Rotation270
}

// VerticalSpan is the panel extent along text lines after rotation.
func (g Geometry) VerticalSpan() int16 {
	if g.rotated() {
		return g.Width
	}
	return g.Height
}

// HorizontalSpan is the panel extent along a line of text after rotation.
func (g Geometry) HorizontalSpan() int16 {
	if g.rotated() {
		return g.Height
	}
	return g.Width
}

// Band is one line of text: its baseline and the rows [Top, Bottom) its
// glyphs may cover.
type Band struct {
	Baseline int16
	Top      int16
	Bottom   int16
}

func (b Band) overlaps(o Band) bool { return b.Top < o.Bottom && o.Top < b.Bottom }

// Layout is the result of Compute.
type Layout struct {
	Geometry Geometry
	BandSize int16
	Title    Band
	Labels   [types.NumFields]Band
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidGeometry, Op: "layout.compute", Msg: msg}
}

func (g Geometry) band(baseline int16) Band {
	top := baseline - g.Ascent
	return Band{Baseline: baseline, Top: top, Bottom: top + g.GlyphHeight}
}

// Compute derives the title and label bands. It fails with
// errcode.InvalidGeometry when the bands cannot fit without overlapping and
// with errcode.Clipped when a band would leave the panel.
func Compute(g Geometry) (Layout, error) {
	switch {
	case g.Width <= 0 || g.Height <= 0:
		return Layout{}, invalid("panel size must be positive")
	case g.Lines < types.NumFields+1:
		return Layout{}, invalid("need a line for the title and one per field")
	case g.GlyphWidth <= 0 || g.GlyphHeight <= 0:
		return Layout{}, invalid("glyph size must be positive")
	case g.Ascent <= 0 || g.Ascent > g.GlyphHeight:
		return Layout{}, invalid("ascent must be within the glyph height")
	}

	span := g.VerticalSpan()
	if int(g.Lines)*int(g.GlyphHeight) > int(span) {
		return Layout{}, invalid("lines do not fit the vertical span")
	}
	top := g.TopMargin
	bottom := span - g.BottomMargin
	if bottom <= top {
		return Layout{}, invalid("margins leave no room")
	}
	size := (bottom - top) / int16(g.Lines)
	if size < g.GlyphHeight {
		return Layout{}, invalid("bands are shorter than a glyph")
	}

	l := Layout{Geometry: g, BandSize: size, Title: g.band(top)}
	for i := range l.Labels {
		l.Labels[i] = g.band(bottom - size*int16(types.NumFields-1-i))
	}

	all := l.bands()
	for i, b := range all {
		if b.Top < 0 || b.Bottom > span {
			return Layout{}, &errcode.E{C: errcode.Clipped, Op: "layout.compute", Msg: "band outside panel"}
		}
		for _, o := range all[i+1:] {
			if b.overlaps(o) {
				return Layout{}, invalid("bands overlap")
			}
		}
	}
	return l, nil
}

func (l Layout) bands() [types.NumFields + 1]Band {
	var out [types.NumFields + 1]Band
	out[0] = l.Title
	copy(out[1:], l.Labels[:])
	return out
}

// TitleOrigin is where the title text starts.
func (l Layout) TitleOrigin() image.Point { return image.Pt(0, int(l.Title.Baseline)) }

// LabelOrigin is where a field's static label starts.
func (l Layout) LabelOrigin(f types.Field) image.Point {
	return image.Pt(0, int(l.Labels[f].Baseline))
}

// ValueAnchor places a value on its label's baseline, ValueMargin pixels
// before the label's trailing edge.
func (l Layout) ValueAnchor(f types.Field, labelBox image.Rectangle) image.Point {
	return image.Pt(labelBox.Max.X-ValueMargin, int(l.Labels[f].Baseline))
}

// Anchors computes every value anchor from the drawn label boxes, rejecting
// any that falls outside the horizontal span.
func (l Layout) Anchors(boxes [types.NumFields]image.Rectangle) ([types.NumFields]image.Point, error) {
	var out [types.NumFields]image.Point
	w := int(l.Geometry.HorizontalSpan())
	for _, f := range types.Fields() {
		p := l.ValueAnchor(f, boxes[f])
		if p.X < 0 || p.X >= w {
			return out, &errcode.E{C: errcode.Clipped, Op: "layout.anchors", Msg: f.String() + " anchor outside panel"}
		}
		out[f] = p
	}
	return out, nil
}
