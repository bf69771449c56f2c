package render

import (
	"github.com/stuarthighley/wadrender/fixed"
)

// ColumnContext describes one vertical run to draw. Walls, sky, masked
// textures and sprites all fill it before calling DrawColumn.
type ColumnContext struct {
	X, YL, YH  int
	IScale     fixed.Fixed // texture rows per screen row
	TextureMid fixed.Fixed // texture row at the view's vertical center
	Source     []byte
	TexHeight  int // wrap height, 0 for masked posts that never wrap

	// Colormap[Brightmap[texel]] maps a texel to a screen color. Colormap[1]
	// is the fullbright map used for brightmapped texels.
	Colormap    [2][]byte
	Brightmap   []byte
	Translation []byte // ColumnTranslated only
}

// SpanContext describes one horizontal run of a flat.
type SpanContext struct {
	Y, X1, X2    int
	XFrac, YFrac fixed.Fixed
	XStep, YStep fixed.Fixed
	Source       []byte // 64x64 flat
	Colormap     [2][]byte
	Brightmap    []byte
}

// ColumnKind selects how a column's texels reach the screen.
type ColumnKind int

const (
	ColumnSolid ColumnKind = iota
	ColumnFuzz
	ColumnTranslated
	ColumnTranslucent
	numColumnKinds
)

type columnVariant int

const (
	drawSolid columnVariant = iota
	drawSolidLow
	drawFuzz
	drawFuzzLow
	drawTranslated
	drawTranslatedLow
	drawTranslucent
	drawTranslucentLow
)

// Offsets into the row above or below, as a multiple of the screen width.
var fuzzOffset = [...]int{
	1, -1, 1, -1, 1, 1, -1,
	1, 1, -1, 1, 1, 1, -1,
	1, 1, 1, -1, -1, -1, -1,
	1, -1, -1, 1, 1, 1, 1, -1,
	1, -1, 1, 1, -1, -1, 1,
	1, -1, -1, -1, -1, 1, 1,
	1, 1, -1, 1, 1, -1, 1,
}

// Drawer writes columns and spans into the view window of a screen.
type Drawer struct {
	pix        []byte
	stride     int
	ylookup    []int // screen offset of each view row
	columnofs  []int // screen offset of each full resolution view column
	viewWidth  int
	viewHeight int
	centerY    int
	lowDetail  bool
	rangeCheck bool

	variants  [numColumnKinds]columnVariant
	colormaps []byte // full COLORMAP lump, fuzz darkens through map 6
	tranmap   []byte // tranmap[bg<<8|fg]

	fuzzPos, fuzzPosTic int

	Col  ColumnContext
	Span SpanContext
}

// setWindow places a width by height view window at x, y on screen. Width
// counts full resolution columns; in low detail the view is half as wide.
func (d *Drawer) setWindow(screen *Screen, width, height, x, y int, low bool) {
	d.pix = screen.Pix
	d.stride = screen.Width
	d.columnofs = make([]int, width)
	for i := range d.columnofs {
		d.columnofs[i] = x + i
	}
	d.ylookup = make([]int, height)
	for i := range d.ylookup {
		d.ylookup[i] = (i + y) * screen.Width
	}
	d.viewHeight = height
	d.viewWidth = width
	if low {
		d.viewWidth >>= 1
	}
	d.lowDetail = low
	for k := range d.variants {
		d.variants[k] = columnVariant(2 * k)
		if low {
			d.variants[k]++
		}
	}
}

// DrawColumn draws Col with the variant chosen for kind at the current
// detail level. Out of range columns are fatal with range checking on, and
// otherwise clipped to the view or dropped.
func (d *Drawer) DrawColumn(kind ColumnKind) {
	c := &d.Col
	if c.YL <= c.YH && (uint(c.X) >= uint(d.viewWidth) || c.YL < 0 || c.YH >= d.viewHeight) {
		if d.rangeCheck {
			fatalf("DrawColumn: %d to %d at %d", c.YL, c.YH, c.X)
		}
		if uint(c.X) >= uint(d.viewWidth) {
			return
		}
		c.YL, c.YH = max(c.YL, 0), min(c.YH, d.viewHeight-1)
	}
	switch v := d.variants[kind]; v {
	case drawSolid, drawSolidLow:
		d.solidColumn(v == drawSolidLow)
	case drawFuzz, drawFuzzLow:
		d.fuzzColumn(v == drawFuzzLow)
	case drawTranslated, drawTranslatedLow:
		d.translatedColumn(v == drawTranslatedLow)
	case drawTranslucent, drawTranslucentLow:
		d.translucentColumn(v == drawTranslucentLow)
	}
}

// columnStart returns the screen offset of row yl of column x.
func (d *Drawer) columnStart(x, yl int, low bool) int {
	if low {
		x <<= 1
	}
	return d.ylookup[yl] + d.columnofs[x]
}

// columnSampler steps through a texture column one screen row at a time.
// Power of two heights wrap with a mask, others by subtraction.
type columnSampler struct {
	src    []byte
	frac   fixed.Fixed
	step   fixed.Fixed
	height fixed.Fixed // 0 for power of two heights
	mask   int
}

func (c *ColumnContext) sampler(centerY int) columnSampler {
	s := columnSampler{
		src:  c.Source,
		frac: c.TextureMid + fixed.Fixed(c.YL-centerY)*c.IScale,
		step: c.IScale,
		mask: c.TexHeight - 1,
	}
	if c.TexHeight == 0 {
		// Posts start at row 0
		s.frac = max(s.frac, 0)
	} else if c.TexHeight&s.mask != 0 {
		s.height = fixed.Fixed(c.TexHeight) << fixed.FracBits
		for s.frac < 0 {
			s.frac += s.height
		}
		for s.frac >= s.height {
			s.frac -= s.height
		}
	}
	return s
}

func (s *columnSampler) next() byte {
	if s.height == 0 {
		b := s.src[int(s.frac>>fixed.FracBits)&s.mask]
		s.frac += s.step
		return b
	}
	b := s.src[s.frac>>fixed.FracBits]
	s.frac += s.step
	for s.frac >= s.height {
		s.frac -= s.height
	}
	return b
}

func (d *Drawer) solidColumn(low bool) {
	c := &d.Col
	count := c.YH - c.YL
	if count < 0 {
		return
	}
	dest := d.columnStart(c.X, c.YL, low)
	s := c.sampler(d.centerY)
	for ; count >= 0; count-- {
		t := s.next()
		v := c.Colormap[c.Brightmap[t]][t]
		d.pix[dest] = v
		if low {
			d.pix[dest+1] = v
		}
		dest += d.stride
	}
}

// fuzzColumn darkens whatever is already on screen, taking each pixel from
// the row above or below. The top and bottom view rows are never read past.
func (d *Drawer) fuzzColumn(low bool) {
	c := &d.Col
	yl, yh := c.YL, c.YH
	if yl == 0 {
		yl = 1
	}
	cutoff := false
	if yh == d.viewHeight-1 {
		yh = d.viewHeight - 2
		cutoff = true
	}
	count := yh - yl
	if count < 0 {
		return
	}
	dest := d.columnStart(c.X, yl, low)
	fuzz := d.colormaps[6*256 : 7*256]
	for ; count >= 0; count-- {
		ofs := d.stride * fuzzOffset[d.fuzzPos]
		d.pix[dest] = fuzz[d.pix[dest+ofs]]
		if low {
			d.pix[dest+1] = fuzz[d.pix[dest+1+ofs]]
		}
		if d.fuzzPos++; d.fuzzPos == len(fuzzOffset) {
			d.fuzzPos = 0
		}
		dest += d.stride
	}
	if cutoff {
		ofs := (d.stride*fuzzOffset[d.fuzzPos] - d.stride) / 2
		d.pix[dest] = fuzz[d.pix[dest+ofs]]
		if low {
			d.pix[dest+1] = fuzz[d.pix[dest+1+ofs]]
		}
	}
}

func (d *Drawer) translatedColumn(low bool) {
	c := &d.Col
	count := c.YH - c.YL
	if count < 0 {
		return
	}
	dest := d.columnStart(c.X, c.YL, low)
	s := c.sampler(d.centerY)
	for ; count >= 0; count-- {
		v := c.Colormap[0][c.Translation[s.next()]]
		d.pix[dest] = v
		if low {
			d.pix[dest+1] = v
		}
		dest += d.stride
	}
}

func (d *Drawer) translucentColumn(low bool) {
	c := &d.Col
	count := c.YH - c.YL
	if count < 0 {
		return
	}
	dest := d.columnStart(c.X, c.YL, low)
	s := c.sampler(d.centerY)
	for ; count >= 0; count-- {
		t := s.next()
		fg := int(c.Colormap[c.Brightmap[t]][t])
		d.pix[dest] = d.tranmap[int(d.pix[dest])<<8|fg]
		if low {
			d.pix[dest+1] = d.tranmap[int(d.pix[dest+1])<<8|fg]
		}
		dest += d.stride
	}
}

// DrawSpan draws Span. Flat coordinates are packed into one word, 6 bits of
// each integer part and 10 of each fraction, so the texture tiles every 64
// units. Out of range spans are fatal with range checking on, and
// otherwise clipped to the view or dropped.
func (d *Drawer) DrawSpan() {
	s := &d.Span
	if s.X2 < s.X1 || s.X1 < 0 || s.X2 >= d.viewWidth || uint(s.Y) >= uint(d.viewHeight) {
		if d.rangeCheck {
			fatalf("DrawSpan: %d to %d at %d", s.X1, s.X2, s.Y)
		}
		if uint(s.Y) >= uint(d.viewHeight) {
			return
		}
		if s.X1 < 0 {
			// Start the texture where column 0 would have sampled it
			s.XFrac += s.XStep * fixed.Fixed(-s.X1)
			s.YFrac += s.YStep * fixed.Fixed(-s.X1)
			s.X1 = 0
		}
		s.X2 = min(s.X2, d.viewWidth-1)
		if s.X2 < s.X1 {
			return
		}
	}
	position := uint32(s.XFrac<<10)&0xffff0000 | uint32(s.YFrac>>6)&0xffff
	step := uint32(s.XStep<<10)&0xffff0000 | uint32(s.YStep>>6)&0xffff
	x := s.X1
	if d.lowDetail {
		x <<= 1
	}
	dest := d.ylookup[s.Y] + d.columnofs[x]
	for count := s.X2 - s.X1; count >= 0; count-- {
		spot := (position>>4)&0x0fc0 | position>>26
		t := s.Source[spot]
		v := s.Colormap[s.Brightmap[t]][t]
		d.pix[dest] = v
		dest++
		if d.lowDetail {
			d.pix[dest] = v
			dest++
		}
		position += step
	}
}

// SetFuzzPosTic advances the fuzz animation once per game tic. The position
// always moves so a paused frame rate never freezes the effect.
func (d *Drawer) SetFuzzPosTic() {
	if d.fuzzPos == d.fuzzPosTic {
		d.fuzzPos = (d.fuzzPos + 1) % len(fuzzOffset)
	}
	d.fuzzPosTic = d.fuzzPos
}

// SetFuzzPosDraw rewinds the fuzz position to the start of the tic, so every
// frame drawn within one tic fuzzes identically.
func (d *Drawer) SetFuzzPosDraw() {
	d.fuzzPos = d.fuzzPosTic
}
