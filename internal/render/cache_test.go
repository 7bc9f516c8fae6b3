package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envmon-go/types"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

type call struct {
	text string
	at   image.Point
	c    color.RGBA
}

type recorder struct{ calls []call }

func (r *recorder) DrawText(text string, at image.Point, c color.RGBA) image.Rectangle {
	r.calls = append(r.calls, call{text, at, c})
	return image.Rect(at.X, at.Y-14, at.X+11*len(text), at.Y+4)
}

func (r *recorder) take() []call {
	out := r.calls
	r.calls = nil
	return out
}

type reading struct {
	fresh bool
	text  [types.NumFields]string
}

func (v reading) Fresh() bool               { return v.fresh }
func (v reading) Text(f types.Field) string { return v.text[f] }

func fresh(t, p, h, g string) reading {
	return reading{fresh: true, text: [types.NumFields]string{t, p, h, g}}
}

var anchors = [types.NumFields]image.Point{{138, 61}, {105, 83}, {105, 105}, {138, 127}}

func TestFourCycleScenario(t *testing.T) {
	r := &recorder{}
	c := New(r, anchors, white, black)

	// Cycle 1: first draw, no erase.
	st := c.Apply(fresh("22.5", "1000.4", "57.6", "499500"))
	calls := r.take()
	require.Len(t, calls, 4)
	assert.Equal(t, call{"22.5", image.Pt(138, 61), white}, calls[0])
	assert.Equal(t, Stats{Draws: 4, Changed: 4}, st)

	// Cycle 2: identical.
	st = c.Apply(fresh("22.5", "1000.4", "57.6", "499500"))
	assert.Empty(t, r.take())
	assert.Zero(t, st.Draws)

	// Cycle 3: temperature only.
	st = c.Apply(fresh("23.1", "1000.4", "57.6", "499500"))
	assert.Equal(t, []call{
		{"22.5", image.Pt(138, 61), black},
		{"23.1", image.Pt(138, 61), white},
	}, r.take())
	assert.Equal(t, Stats{Draws: 2, Erases: 1, Changed: 1}, st)

	// Cycle 4: stale.
	st = c.Apply(reading{fresh: false, text: [types.NumFields]string{"99", "99", "99", "99"}})
	assert.Empty(t, r.take())
	assert.Zero(t, st.Draws)
	assert.Equal(t, "23.1", c.Slot(types.Temperature).Last)
}

func TestNoOpRedrawOverManyCycles(t *testing.T) {
	r := &recorder{}
	c := New(r, anchors, white, black)
	v := fresh("20", "990", "40", "12000")
	c.Apply(v)
	r.take()
	for i := 0; i < 50; i++ {
		assert.Zero(t, c.Apply(v).Draws)
	}
	assert.Empty(t, r.calls)
}

func TestFixedFieldOrder(t *testing.T) {
	r := &recorder{}
	c := New(r, anchors, white, black)
	c.Apply(fresh("1", "2", "3", "4"))
	c.Apply(fresh("5", "6", "7", "8"))
	calls := r.take()
	require.Len(t, calls, 12)
	var got []string
	for _, cl := range calls[4:] {
		got = append(got, cl.text)
	}
	assert.Equal(t, []string{"1", "5", "2", "6", "3", "7", "4", "8"}, got)
	for i, cl := range calls[4:] {
		assert.Equal(t, anchors[i/2], cl.at)
	}
}

func TestStaleLeavesSlotsUntouched(t *testing.T) {
	r := &recorder{}
	c := New(r, anchors, white, black)
	c.Apply(reading{fresh: false, text: [types.NumFields]string{"1", "2", "3", "4"}})
	assert.Empty(t, r.calls)
	for _, f := range types.Fields() {
		assert.Equal(t, "", c.Slot(f).Last)
		assert.Equal(t, anchors[f], c.Slot(f).Anchor)
	}
}

func TestIndicatorTransitions(t *testing.T) {
	r := &recorder{}
	i := NewIndicator(r, image.Pt(213, 15), "*", white, black)
	assert.False(t, i.Set(false))
	assert.True(t, i.Set(true))
	assert.False(t, i.Set(true))
	assert.True(t, i.Shown())
	assert.True(t, i.Set(false))
	assert.Equal(t, []call{
		{"*", image.Pt(213, 15), white},
		{"*", image.Pt(213, 15), black},
	}, r.take())
}
