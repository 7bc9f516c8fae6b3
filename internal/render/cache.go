// Package render keeps the on-screen value text in step with the latest
// reading while touching only the fields that changed.
package render

import (
	"image"
	"image/color"

	"envmon-go/types"
)

// TextDrawer draws a string with its baseline origin at at.
type TextDrawer interface {
	DrawText(text string, at image.Point, c color.RGBA) image.Rectangle
}

// Values is a reading as seen by the cache.
type Values interface {
	Fresh() bool
	Text(types.Field) string
}

// Slot is one field's value position and the text currently visible there.
type Slot struct {
	Field  types.Field
	Anchor image.Point
	Last   string
}

// Stats counts draw calls issued by one Apply.
type Stats struct {
	Draws   int
	Erases  int
	Changed int
}

// Cache is the differential renderer. Not safe for concurrent use.
type Cache struct {
	d      TextDrawer
	fg, bg color.RGBA
	slots  [types.NumFields]Slot
}

func New(d TextDrawer, anchors [types.NumFields]image.Point, fg, bg color.RGBA) *Cache {
	c := &Cache{d: d, fg: fg, bg: bg}
	for _, f := range types.Fields() {
		c.slots[f] = Slot{Field: f, Anchor: anchors[f]}
	}
	return c
}

// Slot returns a copy of a field's slot.
func (c *Cache) Slot(f types.Field) Slot { return c.slots[f] }

// Apply redraws the fields whose text differs from what is on screen. The
// old text is overpainted in the background colour, then the new text is
// drawn in the foreground colour at the same anchor. Stale values draw
// nothing.
func (c *Cache) Apply(v Values) Stats {
	var st Stats
	if !v.Fresh() {
		return st
	}
	for _, f := range types.Fields() {
		s := &c.slots[f]
		next := v.Text(f)
		if next == s.Last {
			continue
		}
		if s.Last != "" {
			c.d.DrawText(s.Last, s.Anchor, c.bg)
			st.Draws++
			st.Erases++
		}
		c.d.DrawText(next, s.Anchor, c.fg)
		st.Draws++
		st.Changed++
		s.Last = next
	}
	return st
}
