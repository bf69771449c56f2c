package render

import (
	"image"

	"github.com/stuarthighley/wadrender/wad"
)

const (
	origWidth  = 320
	origHeight = 200
	sbarHeight = 32
)

// Screen is an 8-bit paletted frame buffer, one byte per pixel, rows
// top to bottom.
type Screen struct {
	Width, Height int
	Pix           []byte
}

func NewScreen(width, height int) *Screen {
	return &Screen{Width: width, Height: height, Pix: make([]byte, width*height)}
}

// DrawPatch draws a patch with its origin at x, y in 320x200 coordinates,
// each pixel scaled to a scale by scale block. Pixels off the screen are
// dropped.
func (s *Screen) DrawPatch(x, y, scale int, patch wad.Patch) {
	x -= patch.LeftOffset()
	y -= patch.TopOffset()
	for col := 0; col < patch.Width(); col++ {
		posts := patch.Posts(col)
		for post, ok := posts.Next(); ok; post, ok = posts.Next() {
			for i, p := range post.Pixels {
				s.fill((x+col)*scale, (y+post.TopDelta+i)*scale, scale, scale, p)
			}
		}
	}
}

func (s *Screen) fill(x, y, w, h int, c byte) {
	for row := max(y, 0); row < min(y+h, s.Height); row++ {
		for col := max(x, 0); col < min(x+w, s.Width); col++ {
			s.Pix[row*s.Width+col] = c
		}
	}
}

// Paletted returns the screen as an image sharing its pixels.
func (s *Screen) Paletted(pal *wad.Palette) *image.Paletted {
	return &image.Paletted{
		Pix:     s.Pix,
		Stride:  s.Width,
		Rect:    image.Rect(0, 0, s.Width, s.Height),
		Palette: pal.Color(),
	}
}
