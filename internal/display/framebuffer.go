package display

import (
	"image"
	"image/color"
)

// Framebuffer is an in-memory Panel for host builds and tests.
type Framebuffer struct {
	img     *image.RGBA
	flushes int
}

func NewFramebuffer(w, h int16) *Framebuffer {
	return &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, int(w), int(h)))}
}

func (f *Framebuffer) Size() (x, y int16) {
	b := f.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

// SetPixel ignores coordinates outside the buffer.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if !(image.Point{int(x), int(y)}).In(f.img.Bounds()) {
		return
	}
	f.img.SetRGBA(int(x), int(y), c)
}

func (f *Framebuffer) Display() error {
	f.flushes++
	return nil
}

func (f *Framebuffer) FillScreen(c color.RGBA) {
	b := f.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			f.img.SetRGBA(x, y, c)
		}
	}
}

// Image exposes the pixels.
func (f *Framebuffer) Image() *image.RGBA { return f.img }

func (f *Framebuffer) Flushes() int { return f.flushes }

// Count returns how many pixels inside r have colour c.
func (f *Framebuffer) Count(r image.Rectangle, c color.RGBA) int {
	n := 0
	r = r.Intersect(f.img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if f.img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}
