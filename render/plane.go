package render

import (
	"github.com/stuarthighley/wadrender/fixed"
)

const (
	angleToSkyShift = 22
	skyTextureMid   = 100 * fixed.FracUnit
	noTop           = 0xffff // visplane column with nothing marked
	minVisPlanes    = 128
)

// visplane is a run of floor or ceiling columns sharing height, flat and
// light. top and bottom are indexed by x+1 to leave a pad column on each
// side.
type visplane struct {
	height     fixed.Fixed
	picnum     int
	lightLevel int
	minX, maxX int
	top        []uint16
	bottom     []uint16
}

type planeState struct {
	width, height int

	planes []*visplane // reused between frames, planes[:used] are live
	used   int

	floorPlane, ceilingPlane *visplane

	// Screen rows still open in each column
	floorClip, ceilingClip []int16

	spanStart      []int
	cachedHeight   []fixed.Fixed
	cachedDistance []fixed.Fixed
	cachedXStep    []fixed.Fixed
	cachedYStep    []fixed.Fixed

	baseXScale, baseYScale fixed.Fixed
	planeHeight            fixed.Fixed
	planeLevel             int

	openingPool []int16
	openingUsed int
}

// resize reallocates everything sized by the view.
func (p *planeState) resize(width, height int) {
	p.width, p.height = width, height
	p.planes, p.used = nil, 0
	p.floorClip = make([]int16, width)
	p.ceilingClip = make([]int16, width)
	p.spanStart = make([]int, height)
	p.cachedHeight = make([]fixed.Fixed, height)
	p.cachedDistance = make([]fixed.Fixed, height)
	p.cachedXStep = make([]fixed.Fixed, height)
	p.cachedYStep = make([]fixed.Fixed, height)
	p.openingPool, p.openingUsed = nil, 0
}

// openings hands out n clip entries valid until the next frame. Earlier
// slices stay valid when the pool grows.
func (p *planeState) openings(n int) []int16 {
	if p.openingUsed+n > len(p.openingPool) {
		p.openingPool = make([]int16, max(2*len(p.openingPool), n, 64*p.width))
		p.openingUsed = 0
	}
	o := p.openingPool[p.openingUsed : p.openingUsed+n : p.openingUsed+n]
	p.openingUsed += n
	return o
}

func (r *Renderer) clearPlanes() {
	p, v := &r.planes, &r.view

	// Opening / clipping determination
	for i := 0; i < p.width; i++ {
		p.floorClip[i] = int16(v.height)
		p.ceilingClip[i] = -1
	}
	p.used = 0
	p.openingUsed = 0

	// Texture calculation
	clear(p.cachedHeight)

	// Left to right mapping
	angle := v.angle - fixed.Ang90

	// Scale will be unit scale at SCREENWIDTH/2 distance
	p.baseXScale = fixed.Div(fixed.Cos(angle), v.centerXFrac)
	p.baseYScale = -fixed.Div(fixed.Sin(angle), v.centerXFrac)
}

// findPlane returns the live visplane for a height, flat and light, or a
// new empty one. All sky planes merge into one.
func (p *planeState) findPlane(height fixed.Fixed, picnum, lightLevel, skyFlat int) *visplane {
	if picnum == skyFlat {
		height, lightLevel = 0, 0
	}
	for _, pl := range p.planes[:p.used] {
		if pl.height == height && pl.picnum == picnum && pl.lightLevel == lightLevel {
			return pl
		}
	}
	return p.newPlane(height, picnum, lightLevel, p.width, -1)
}

func (p *planeState) newPlane(height fixed.Fixed, picnum, lightLevel, minX, maxX int) *visplane {
	if p.used == minVisPlanes {
		logger.Printf("newPlane: more than %d visplanes", minVisPlanes)
	}
	if p.used == len(p.planes) {
		p.planes = append(p.planes, &visplane{
			top:    make([]uint16, p.width+2),
			bottom: make([]uint16, p.width+2),
		})
	}
	pl := p.planes[p.used]
	p.used++
	pl.height, pl.picnum, pl.lightLevel = height, picnum, lightLevel
	pl.minX, pl.maxX = minX, maxX
	for i := range pl.top {
		pl.top[i] = noTop
	}
	return pl
}

// checkPlane extends pl to cover start..stop, or returns a copy of it
// starting fresh there when any of those columns are already marked.
func (p *planeState) checkPlane(pl *visplane, start, stop int) *visplane {
	var intrl, intrh, unionl, unionh int
	if start < pl.minX {
		intrl, unionl = pl.minX, start
	} else {
		unionl, intrl = pl.minX, start
	}
	if stop > pl.maxX {
		intrh, unionh = pl.maxX, stop
	} else {
		unionh, intrh = pl.maxX, stop
	}

	x := intrl
	for ; x <= intrh; x++ {
		if pl.top[x+1] != noTop {
			break
		}
	}
	if x > intrh {
		pl.minX, pl.maxX = unionl, unionh
		// Use the same one
		return pl
	}

	// Make a new visplane
	return p.newPlane(pl.height, pl.picnum, pl.lightLevel, start, stop)
}

// mapPlane draws one span of the current flat on row y.
func (r *Renderer) mapPlane(y, x1, x2 int) {
	p, v, d := &r.planes, &r.view, &r.draw
	if x2 < x1 || x1 < 0 || x2 >= v.width || uint(y) >= uint(v.height) {
		if r.cfg.RangeCheck {
			fatalf("mapPlane: %d, %d at %d", x1, x2, y)
		}
		return
	}

	var distance fixed.Fixed
	if p.planeHeight != p.cachedHeight[y] {
		p.cachedHeight[y] = p.planeHeight
		distance = fixed.Mul(p.planeHeight, v.yslope[y])
		p.cachedDistance[y] = distance
		p.cachedXStep[y] = fixed.Mul(distance, p.baseXScale)
		p.cachedYStep[y] = fixed.Mul(distance, p.baseYScale)
	} else {
		distance = p.cachedDistance[y]
	}
	d.Span.XStep, d.Span.YStep = p.cachedXStep[y], p.cachedYStep[y]

	length := fixed.Mul(distance, v.distScale[x1])
	angle := v.angle + v.xToViewAngle[x1]
	d.Span.XFrac = v.x + fixed.Mul(fixed.Cos(angle), length)
	d.Span.YFrac = -v.y - fixed.Mul(fixed.Sin(angle), length)

	if cm := v.fixedColormap; cm != nil {
		d.Span.Colormap = [2][]byte{cm, cm}
	} else {
		d.Span.Colormap = [2][]byte{r.data.colormap(r.light.zMap(p.planeLevel, distance)), r.data.colormap(0)}
	}
	d.Span.Y, d.Span.X1, d.Span.X2 = y, x1, x2
	d.DrawSpan()
}

// makeSpans closes the spans that end at column x-1 and opens the ones
// that start at x, given the marked rows of both columns.
func (r *Renderer) makeSpans(x, t1, b1, t2, b2 int) {
	p := &r.planes
	for t1 < t2 && t1 <= b1 {
		r.mapPlane(t1, p.spanStart[t1], x-1)
		t1++
	}
	for b1 > b2 && b1 >= t1 {
		r.mapPlane(b1, p.spanStart[b1], x-1)
		b1--
	}
	for t2 < t1 && t2 <= b2 {
		p.spanStart[t2] = x
		t2++
	}
	for b2 > b1 && b2 >= t2 {
		p.spanStart[b2] = x
		b2--
	}
}

// drawPlanes draws every visplane marked this frame.
func (r *Renderer) drawPlanes() {
	p, v, d := &r.planes, &r.view, &r.draw
	for _, pl := range p.planes[:p.used] {
		if pl.minX > pl.maxX {
			continue
		}
		if pl.picnum == r.data.skyFlat {
			r.drawSky(pl)
			continue
		}

		// Regular flat
		d.Span.Source = r.data.flat(pl.picnum)
		d.Span.Brightmap = r.data.flatBright[pl.picnum]
		p.planeHeight = fixed.Abs(pl.height - v.z)
		p.planeLevel = r.light.level(pl.lightLevel, v.extraLight)

		pl.top[pl.maxX+2] = noTop
		pl.top[pl.minX] = noTop
		for x := pl.minX; x <= pl.maxX+1; x++ {
			r.makeSpans(x, int(pl.top[x]), int(pl.bottom[x]), int(pl.top[x+1]), int(pl.bottom[x+1]))
		}
		r.data.releaseFlat(pl.picnum)
	}
}

// drawSky draws the sky texture over a sky plane, fullbright and
// unaffected by fixed colormaps.
func (r *Renderer) drawSky(pl *visplane) {
	v, d := &r.view, &r.draw
	tex := r.data.skyTexture
	d.Col.IScale = v.pspriteIScale >> v.detailShift
	sky := r.data.colormap(0)
	d.Col.Colormap = [2][]byte{sky, sky}
	d.Col.Brightmap = r.data.noBrightmap
	d.Col.TextureMid = skyTextureMid
	d.Col.TexHeight = r.data.textures[tex].height
	for x := pl.minX; x <= pl.maxX; x++ {
		d.Col.YL, d.Col.YH = int(pl.top[x+1]), int(pl.bottom[x+1])
		if d.Col.YL <= d.Col.YH {
			angle := (v.angle + v.xToViewAngle[x]) >> angleToSkyShift
			d.Col.X = x
			d.Col.Source = r.data.getColumn(tex, int(angle))
			d.DrawColumn(ColumnSolid)
		}
	}
}
