package scene

import (
	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/render"
	"github.com/stuarthighley/wadrender/wad"
)

// Overview colors, in the usual palette
const (
	wallColor   = 176 // red
	stepColor   = 64  // brown
	secretColor = 251 // yellow
	playerColor = 112 // green
)

const overviewMargin = 8

// DrawOverview draws the level's lines top down onto scr, scaled to fit, with
// the player as a short line in the direction it faces.
func (s *Scene) DrawOverview(scr *render.Screen) {
	clear(scr.Pix)
	if len(s.Level.Vertexes) == 0 {
		return
	}
	minX, minY := s.Level.Vertexes[0].X, s.Level.Vertexes[0].Y
	maxX, maxY := minX, minY
	for _, v := range s.Level.Vertexes {
		minX, maxX = min(minX, v.X), max(maxX, v.X)
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
	}

	// Fit the larger dimension, keeping the aspect ratio
	w := fixed.FromInt(scr.Width - 2*overviewMargin)
	h := fixed.FromInt(scr.Height - 2*overviewMargin)
	mtof := fixed.Div(w, max(maxX-minX, fixed.FracUnit))
	mtof = min(mtof, fixed.Div(h, max(maxY-minY, fixed.FracUnit)))
	z := fixed.NewZoom(mtof)

	toFrame := func(x, y fixed.Fixed) (int, int) {
		return overviewMargin + z.MapToFrame(x-minX), scr.Height - 1 - overviewMargin - z.MapToFrame(y-minY)
	}

	for i := range s.Level.Lines {
		l := &s.Level.Lines[i]
		c := byte(wallColor)
		switch {
		case l.Flags&wad.LineSecret != 0:
			c = secretColor
		case l.Back != nil:
			c = stepColor
		}
		x1, y1 := toFrame(l.V1.X, l.V1.Y)
		x2, y2 := toFrame(l.V2.X, l.V2.Y)
		drawLine(scr, x1, y1, x2, y2, c)
	}

	mo := s.Player.Mo
	x1, y1 := toFrame(mo.X, mo.Y)
	length := z.FrameToMap(6)
	x2, y2 := toFrame(mo.X+fixed.Mul(length, fixed.Cos(mo.Angle)), mo.Y+fixed.Mul(length, fixed.Sin(mo.Angle)))
	drawLine(scr, x1, y1, x2, y2, playerColor)
}

// drawLine draws with Bresenham's algorithm, dropping pixels off the screen.
func drawLine(scr *render.Screen, x1, y1, x2, y2 int, c byte) {
	dx, dy := fixed.Abs(x2-x1), -fixed.Abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	for {
		if uint(x1) < uint(scr.Width) && uint(y1) < uint(scr.Height) {
			scr.Pix[y1*scr.Width+x1] = c
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}
