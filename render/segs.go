package render

import (
	"math"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
)

// Silhouette bits of a DrawSeg.
const (
	silNone   = 0
	silBottom = 1
	silTop    = 2
	silBoth   = 3
)

const (
	minDrawSegs = 256
	heightBits  = 12
	heightUnit  = 1 << heightBits
)

// DrawSeg records a drawn wall range for clipping sprites and drawing
// masked mid textures afterwards. The clip and column slices are indexed by
// x-X1.
type DrawSeg struct {
	CurLine                   *Seg
	X1, X2                    int
	Scale1, Scale2, ScaleStep fixed.Fixed
	Silhouette                int
	BSilHeight                fixed.Fixed // do not clip sprites above this
	TSilHeight                fixed.Fixed // do not clip sprites below this
	SprTopClip                []int16
	SprBottomClip             []int16
	MaskedTextureCol          []int16 // math.MaxInt16 once drawn
}

// segState is the wall being stored and drawn.
type segState struct {
	curLine                 *Seg
	frontSector, backSector *Sector

	angle1      fixed.Angle // global angle to the seg start
	normalAngle fixed.Angle
	centerAngle fixed.Angle
	distance    fixed.Fixed
	offset      fixed.Fixed
	x, stopX    int
	scale       fixed.Fixed
	scaleStep   fixed.Fixed
	wallLight   int

	midTexture, topTexture, bottomTexture int
	maskedTexture                         bool
	segTextured                           bool
	markFloor, markCeiling                bool
	midTextureMid                         fixed.Fixed
	topTextureMid, bottomTextureMid       fixed.Fixed

	topFrac, topStep       fixed.Fixed
	bottomFrac, bottomStep fixed.Fixed
	pixHigh, pixHighStep   fixed.Fixed
	pixLow, pixLowStep     fixed.Fixed

	maskedTextureCol []int16
	drawSegs         []DrawSeg
	max              int
}

func (s *segState) clearDrawSegs() {
	s.drawSegs = s.drawSegs[:0]
}

// newDrawSeg returns the next drawseg, growing storage geometrically up to
// the cap. It returns nil when the cap is reached.
func (s *segState) newDrawSeg() *DrawSeg {
	n := len(s.drawSegs)
	if n == cap(s.drawSegs) {
		if n >= s.max {
			return nil
		}
		grown := make([]DrawSeg, n, min(max(2*n, minDrawSegs), s.max))
		copy(grown, s.drawSegs)
		s.drawSegs = grown
		if n > 0 {
			logger.Printf("newDrawSeg: hit drawseg limit at %d, raised to %d", n, cap(grown))
		}
	}
	s.drawSegs = s.drawSegs[:n+1]
	ds := &s.drawSegs[n]
	*ds = DrawSeg{}
	return ds
}

// wallColormaps returns the lit and fullbright colormaps for a wall at
// scale.
func (r *Renderer) wallColormaps(level int, scale fixed.Fixed) [2][]byte {
	if cm := r.view.fixedColormap; cm != nil {
		return [2][]byte{cm, cm}
	}
	return [2][]byte{r.data.colormap(r.light.scaleMap(level, scale)), r.data.colormap(0)}
}

// storeWallRange draws the visible columns start..stop of the current seg
// and records them as a drawseg.
func (r *Renderer) storeWallRange(start, stop int) {
	v, s := &r.view, &r.segs
	if start >= v.width || start > stop {
		if r.cfg.RangeCheck {
			fatalf("storeWallRange: bad range %d to %d", start, stop)
		}
		return
	}
	ds := s.newDrawSeg()
	if ds == nil {
		return
	}
	line := s.curLine
	side, linedef := line.Side, line.Line
	front, back := s.frontSector, s.backSector

	// Mark the segment as visible for auto map
	linedef.Mapped = true

	// Calculate distance for scale calculation
	s.normalAngle = line.Angle + fixed.Ang90
	offsetAngle := min(absAngle(s.normalAngle-s.angle1), fixed.Ang90)
	distAngle := fixed.Ang90 - offsetAngle
	hyp := r.pointToDist(line.V1.X, line.V1.Y)
	s.distance = fixed.Mul(hyp, fixed.Sin(distAngle))

	ds.X1, ds.X2, ds.CurLine = start, stop, line
	s.x, s.stopX = start, stop+1

	// Calculate scale at both ends and step
	s.scale = r.scaleFromGlobalAngle(v.angle + v.xToViewAngle[start])
	s.scaleStep = 0
	ds.Scale1, ds.Scale2 = s.scale, s.scale
	if stop > start {
		ds.Scale2 = r.scaleFromGlobalAngle(v.angle + v.xToViewAngle[stop])
		s.scaleStep = (ds.Scale2 - s.scale) / fixed.Fixed(stop-start)
	}
	ds.ScaleStep = s.scaleStep

	// Calculate texture boundaries and decide if floor / ceiling marks are
	// needed
	worldTop := front.CeilingHeight - v.z
	worldBottom := front.FloorHeight - v.z
	var worldHigh, worldLow fixed.Fixed
	s.midTexture, s.topTexture, s.bottomTexture = 0, 0, 0
	s.maskedTexture = false
	s.maskedTextureCol = nil

	if back == nil {
		// Single sided line
		s.midTexture = side.MidTexture

		// A single sided line is terminal, so it must mark ends
		s.markFloor, s.markCeiling = true, true
		if linedef.Flags&wad.LineLowerUnpegged != 0 {
			// Bottom of texture at bottom
			vtop := front.FloorHeight + r.data.textureHeight(side.MidTexture)
			s.midTextureMid = vtop - v.z
		} else {
			// Top of texture at top
			s.midTextureMid = worldTop
		}
		s.midTextureMid += side.RowOffset

		ds.Silhouette = silBoth
		ds.SprTopClip = v.screenHeightArray[start : stop+1]
		ds.SprBottomClip = v.negOneArray[start : stop+1]
		ds.BSilHeight = fixed.MaxInt
		ds.TSilHeight = fixed.MinInt
	} else {
		// Two sided line
		if front.FloorHeight > back.FloorHeight {
			ds.Silhouette = silBottom
			ds.BSilHeight = front.FloorHeight
		} else if back.FloorHeight > v.z {
			ds.Silhouette = silBottom
			ds.BSilHeight = fixed.MaxInt
		}
		if front.CeilingHeight < back.CeilingHeight {
			ds.Silhouette |= silTop
			ds.TSilHeight = front.CeilingHeight
		} else if back.CeilingHeight < v.z {
			ds.Silhouette |= silTop
			ds.TSilHeight = fixed.MinInt
		}
		if back.CeilingHeight <= front.FloorHeight {
			ds.SprBottomClip = v.negOneArray[start : stop+1]
			ds.BSilHeight = fixed.MaxInt
			ds.Silhouette |= silBottom
		}
		if back.FloorHeight >= front.CeilingHeight {
			ds.SprTopClip = v.screenHeightArray[start : stop+1]
			ds.TSilHeight = fixed.MinInt
			ds.Silhouette |= silTop
		}

		worldHigh = back.CeilingHeight - v.z
		worldLow = back.FloorHeight - v.z

		// Hack to allow height changes in outdoor areas
		if front.CeilingPic == r.data.skyFlat && back.CeilingPic == r.data.skyFlat {
			worldTop = worldHigh
		}

		// Same plane on both sides needs no marks
		s.markFloor = worldLow != worldBottom || back.FloorPic != front.FloorPic || back.LightLevel != front.LightLevel
		s.markCeiling = worldHigh != worldTop || back.CeilingPic != front.CeilingPic || back.LightLevel != front.LightLevel

		if back.CeilingHeight <= front.FloorHeight || back.FloorHeight >= front.CeilingHeight {
			// Closed door
			s.markCeiling, s.markFloor = true, true
		}

		if worldHigh < worldTop {
			// Top texture
			s.topTexture = side.TopTexture
			if linedef.Flags&wad.LineUpperUnpegged != 0 {
				// Top of texture at top
				s.topTextureMid = worldTop
			} else {
				// Bottom of texture
				vtop := back.CeilingHeight + r.data.textureHeight(side.TopTexture)
				s.topTextureMid = vtop - v.z
			}
		}
		if worldLow > worldBottom {
			// Bottom texture
			s.bottomTexture = side.BottomTexture
			if linedef.Flags&wad.LineLowerUnpegged != 0 {
				// Bottom of texture at bottom, top of texture at top
				s.bottomTextureMid = worldTop
			} else {
				// Top of texture at top
				s.bottomTextureMid = worldLow
			}
		}
		s.topTextureMid += side.RowOffset
		s.bottomTextureMid += side.RowOffset

		// Allocate space for masked texture tables
		if side.MidTexture != 0 {
			s.maskedTexture = true
			s.maskedTextureCol = r.planes.openings(s.stopX - start)
			ds.MaskedTextureCol = s.maskedTextureCol
		}
	}

	// Calculate the texture offset, only needed for textured lines
	s.segTextured = s.midTexture != 0 || s.topTexture != 0 || s.bottomTexture != 0 || s.maskedTexture
	if s.segTextured {
		offsetAngle := s.normalAngle - s.angle1
		if offsetAngle > fixed.Ang180 {
			offsetAngle = -offsetAngle
		}
		offsetAngle = min(offsetAngle, fixed.Ang90)
		s.offset = fixed.Mul(hyp, fixed.Sin(offsetAngle))
		if s.normalAngle-s.angle1 < fixed.Ang180 {
			s.offset = -s.offset
		}
		s.offset += side.TextureOffset + line.Offset
		s.centerAngle = fixed.Ang90 + v.angle - s.normalAngle

		// Use different light tables for horizontal / vertical / diagonal
		s.wallLight = r.light.wallLevel(front.LightLevel, v.extraLight, line)
	}

	// If a floor / ceiling plane is on the wrong side of the view plane, it
	// is definitely invisible and doesn't need to be marked
	if front.FloorHeight >= v.z {
		// Above view plane
		s.markFloor = false
	}
	if front.CeilingHeight <= v.z && front.CeilingPic != r.data.skyFlat {
		// Below view plane
		s.markCeiling = false
	}

	// Calculate incremental stepping values for texture edges
	worldTop >>= 4
	worldBottom >>= 4
	s.topStep = -fixed.Mul(s.scaleStep, worldTop)
	s.topFrac = v.centerYFrac>>4 - fixed.Mul(worldTop, s.scale)
	s.bottomStep = -fixed.Mul(s.scaleStep, worldBottom)
	s.bottomFrac = v.centerYFrac>>4 - fixed.Mul(worldBottom, s.scale)
	if back != nil {
		worldHigh >>= 4
		worldLow >>= 4
		if worldHigh < worldTop {
			s.pixHigh = v.centerYFrac>>4 - fixed.Mul(worldHigh, s.scale)
			s.pixHighStep = -fixed.Mul(s.scaleStep, worldHigh)
		}
		if worldLow > worldBottom {
			s.pixLow = v.centerYFrac>>4 - fixed.Mul(worldLow, s.scale)
			s.pixLowStep = -fixed.Mul(s.scaleStep, worldLow)
		}
	}

	// Render it
	p := &r.planes
	if s.markCeiling {
		p.ceilingPlane = p.checkPlane(p.ceilingPlane, s.x, s.stopX-1)
	}
	if s.markFloor {
		p.floorPlane = p.checkPlane(p.floorPlane, s.x, s.stopX-1)
	}
	r.renderSegLoop()

	// Save sprite clipping info
	if (ds.Silhouette&silTop != 0 || s.maskedTexture) && ds.SprTopClip == nil {
		ds.SprTopClip = p.openings(s.stopX - start)
		copy(ds.SprTopClip, p.ceilingClip[start:s.stopX])
	}
	if (ds.Silhouette&silBottom != 0 || s.maskedTexture) && ds.SprBottomClip == nil {
		ds.SprBottomClip = p.openings(s.stopX - start)
		copy(ds.SprBottomClip, p.floorClip[start:s.stopX])
	}
	if s.maskedTexture && ds.Silhouette&silTop == 0 {
		ds.Silhouette |= silTop
		ds.TSilHeight = fixed.MinInt
	}
	if s.maskedTexture && ds.Silhouette&silBottom == 0 {
		ds.Silhouette |= silBottom
		ds.BSilHeight = fixed.MaxInt
	}
}

// renderSegLoop draws the wall tiers of the current seg column by column,
// marking the floor and ceiling planes around them and narrowing the clip
// arrays.
func (r *Renderer) renderSegLoop() {
	v, s, p, d := &r.view, &r.segs, &r.planes, &r.draw
	for ; s.x < s.stopX; s.x++ {
		x := s.x
		ceilingClip, floorClip := int(p.ceilingClip[x]), int(p.floorClip[x])

		// Mark floor / ceiling areas
		yl := int((s.topFrac + heightUnit - 1) >> heightBits)

		// No space above wall?
		yl = max(yl, ceilingClip+1)
		if s.markCeiling {
			top, bottom := ceilingClip+1, min(yl-1, floorClip-1)
			if top <= bottom {
				p.ceilingPlane.top[x+1] = uint16(top)
				p.ceilingPlane.bottom[x+1] = uint16(bottom)
			}
		}

		yh := min(int(s.bottomFrac>>heightBits), floorClip-1)
		if s.markFloor {
			top, bottom := max(yh+1, ceilingClip+1), floorClip-1
			if top <= bottom {
				p.floorPlane.top[x+1] = uint16(top)
				p.floorPlane.bottom[x+1] = uint16(bottom)
			}
		}

		// Texture column and lighting are independent of wall tiers
		var textureColumn int
		if s.segTextured {
			angle := (s.centerAngle + v.xToViewAngle[x]) >> fixed.AngleToFineShift
			angle &= fixed.FineAngles/2 - 1
			textureColumn = int((s.offset - fixed.Mul(fixed.FineTangent[angle], s.distance)) >> fixed.FracBits)
			d.Col.Colormap = r.wallColormaps(s.wallLight, s.scale)
			d.Col.X = x
			d.Col.IScale = fixed.Fixed(0xffffffff / uint32(s.scale))
		}

		if s.midTexture != 0 {
			// Single sided line
			r.drawWallColumn(s.midTexture, textureColumn, yl, yh, s.midTextureMid)
			p.ceilingClip[x] = int16(v.height)
			p.floorClip[x] = -1
		} else {
			// Two sided line
			if s.topTexture != 0 {
				// Top wall
				mid := min(int(s.pixHigh>>heightBits), floorClip-1)
				s.pixHigh += s.pixHighStep
				if mid >= yl {
					r.drawWallColumn(s.topTexture, textureColumn, yl, mid, s.topTextureMid)
					p.ceilingClip[x] = int16(mid)
				} else {
					p.ceilingClip[x] = int16(yl - 1)
				}
			} else if s.markCeiling {
				// No top wall
				p.ceilingClip[x] = int16(yl - 1)
			}

			if s.bottomTexture != 0 {
				// Bottom wall
				mid := int((s.pixLow + heightUnit - 1) >> heightBits)
				s.pixLow += s.pixLowStep

				// No space above wall?
				mid = max(mid, int(p.ceilingClip[x])+1)
				if mid <= yh {
					r.drawWallColumn(s.bottomTexture, textureColumn, mid, yh, s.bottomTextureMid)
					p.floorClip[x] = int16(mid)
				} else {
					p.floorClip[x] = int16(yh + 1)
				}
			} else if s.markFloor {
				// No bottom wall
				p.floorClip[x] = int16(yh + 1)
			}

			if s.maskedTexture {
				// Save texture column for backdrawing of masked mid texture
				s.maskedTextureCol[x-r.currentDrawSeg().X1] = int16(textureColumn)
			}
		}

		s.scale += s.scaleStep
		s.topFrac += s.topStep
		s.bottomFrac += s.bottomStep
	}
}

func (r *Renderer) currentDrawSeg() *DrawSeg {
	return &r.segs.drawSegs[len(r.segs.drawSegs)-1]
}

func (r *Renderer) drawWallColumn(tex, col, yl, yh int, mid fixed.Fixed) {
	d := &r.draw
	t := &r.data.textures[tex]
	d.Col.YL, d.Col.YH = yl, yh
	d.Col.TextureMid = mid
	d.Col.Source = r.data.getColumn(tex, col)
	d.Col.TexHeight = t.height
	d.Col.Brightmap = t.brightmap
	d.DrawColumn(ColumnSolid)
}

// renderMaskedSegRange draws the masked mid texture of ds over x1..x2,
// skipping columns already drawn.
func (r *Renderer) renderMaskedSegRange(ds *DrawSeg, x1, x2 int) {
	v, d, m := &r.view, &r.draw, &r.things
	line := ds.CurLine
	front, back := line.Front, line.Back
	tex := line.Side.MidTexture
	t := &r.data.textures[tex]
	level := r.light.wallLevel(front.LightLevel, v.extraLight, line)

	m.sprYScale = ds.Scale1 + fixed.Fixed(x1-ds.X1)*ds.ScaleStep

	// Find positioning
	if line.Line.Flags&wad.LineLowerUnpegged != 0 {
		d.Col.TextureMid = max(front.FloorHeight, back.FloorHeight) + r.data.textureHeight(tex) - v.z
	} else {
		d.Col.TextureMid = min(front.CeilingHeight, back.CeilingHeight) - v.z
	}
	d.Col.TextureMid += line.Side.RowOffset
	d.Col.Brightmap = t.brightmap

	for x := x1; x <= x2; x++ {
		i := x - ds.X1
		if ds.MaskedTextureCol[i] != math.MaxInt16 {
			d.Col.Colormap = r.wallColormaps(level, m.sprYScale)
			m.sprTopScreen = v.centerYFrac - fixed.Mul(d.Col.TextureMid, m.sprYScale)
			d.Col.IScale = fixed.Fixed(0xffffffff / uint32(m.sprYScale))
			d.Col.X = x
			column := r.data.getMaskedColumn(tex, int(ds.MaskedTextureCol[i]))
			r.drawMaskedColumn(column, int(ds.SprTopClip[i]), int(ds.SprBottomClip[i]), ColumnSolid)
			ds.MaskedTextureCol[i] = math.MaxInt16
		}
		m.sprYScale += ds.ScaleStep
	}
}
