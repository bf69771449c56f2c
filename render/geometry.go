package render

import (
	"github.com/stuarthighley/wadrender/fixed"
)

// PointOnSide returns 0 if x, y is in front of the node's partition line
// and 1 if behind it.
func PointOnSide(x, y fixed.Fixed, node *Node) int {
	return pointOnLine(x, y, node.X, node.Y, node.DX, node.DY)
}

// PointOnSegSide is PointOnSide for the line through a seg.
func PointOnSegSide(x, y fixed.Fixed, seg *Seg) int {
	return pointOnLine(x, y, seg.V1.X, seg.V1.Y, seg.V2.X-seg.V1.X, seg.V2.Y-seg.V1.Y)
}

func pointOnLine(x, y, lx, ly, ldx, ldy fixed.Fixed) int {
	if ldx == 0 {
		if x <= lx {
			return b2i(ldy > 0)
		}
		return b2i(ldy < 0)
	}
	if ldy == 0 {
		if y <= ly {
			return b2i(ldx < 0)
		}
		return b2i(ldx > 0)
	}
	dx, dy := x-lx, y-ly

	// Try to quickly decide by looking at sign bits
	if (ldy^ldx^dx^dy)&-0x80000000 != 0 {
		if (ldy^dx)&-0x80000000 != 0 {
			// Left is negative
			return 1
		}
		return 0
	}
	left := fixed.Mul(ldy>>fixed.FracBits, dx)
	right := fixed.Mul(dy, ldx>>fixed.FracBits)
	if right < left {
		// Front side
		return 0
	}
	return 1
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PointToAngle2 returns the angle of the vector from x1, y1 to x2, y2,
// looking the octant up in the arctangent table.
func PointToAngle2(x1, y1, x2, y2 fixed.Fixed) fixed.Angle {
	x, y := x2-x1, y2-y1
	if x == 0 && y == 0 {
		return 0
	}
	tan := func(num, den fixed.Fixed) fixed.Angle {
		return fixed.TanToAngle[fixed.SlopeDiv(uint32(num), uint32(den))]
	}
	if x >= 0 {
		if y >= 0 {
			if x > y {
				return tan(y, x) // octant 0
			}
			return fixed.Ang90 - 1 - tan(x, y) // octant 1
		}
		y = -y
		if x > y {
			return -tan(y, x) // octant 8
		}
		return fixed.Ang270 + tan(x, y) // octant 7
	}
	x = -x
	if y >= 0 {
		if x > y {
			return fixed.Ang180 - 1 - tan(y, x) // octant 3
		}
		return fixed.Ang90 + tan(x, y) // octant 2
	}
	y = -y
	if x > y {
		return fixed.Ang180 + tan(y, x) // octant 4
	}
	return fixed.Ang270 - 1 - tan(x, y) // octant 5
}

// pointToAngle returns the angle from the view point to x, y.
func (r *Renderer) pointToAngle(x, y fixed.Fixed) fixed.Angle {
	return PointToAngle2(r.view.x, r.view.y, x, y)
}

// pointToDist returns the distance from the view point to x, y.
func (r *Renderer) pointToDist(x, y fixed.Fixed) fixed.Fixed {
	dx := fixed.Abs(x - r.view.x)
	dy := fixed.Abs(y - r.view.y)
	if dy > dx {
		dx, dy = dy, dx
	}
	var angle int
	if dx != 0 {
		angle = int((fixed.TanToAngle[fixed.Div(dy, dx)>>fixed.DBits] + fixed.Ang90) >> fixed.AngleToFineShift)
	}
	// Use as cosine
	return fixed.Div(dx, fixed.FineSine[angle])
}

// scaleFromGlobalAngle returns the texture mapping scale for the current
// wall at the view angle visAngle.
func (r *Renderer) scaleFromGlobalAngle(visAngle fixed.Angle) fixed.Fixed {
	anglea := fixed.Ang90 + (visAngle - r.view.angle)
	angleb := fixed.Ang90 + (visAngle - r.segs.normalAngle)
	sinea := fixed.FineSine[anglea>>fixed.AngleToFineShift]
	sineb := fixed.FineSine[angleb>>fixed.AngleToFineShift]
	num := fixed.Mul(r.view.projection, sineb) << r.view.detailShift
	den := fixed.Mul(r.segs.distance, sinea)
	if den > num>>fixed.FracBits {
		return fixed.Clamp(fixed.Div(num, den), 256, 64*fixed.FracUnit)
	}
	return 64 * fixed.FracUnit
}

// absAngle treats a as signed and returns its magnitude.
func absAngle(a fixed.Angle) fixed.Angle {
	if int32(a) < 0 {
		return -a
	}
	return a
}
