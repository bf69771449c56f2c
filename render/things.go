package render

import (
	"cmp"
	"slices"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
)

const (
	minVisSprites = 128
	minZ          = fixed.FracUnit * 4
)

// VisSprite is a thing projected to the screen for one frame.
type VisSprite struct {
	X1, X2 int

	// For line side calculation
	GX, GY fixed.Fixed

	// Global bottom and top, for silhouette clipping
	GZ, GZT fixed.Fixed

	// Horizontal position of x1
	StartFrac  fixed.Fixed
	Scale      fixed.Fixed
	XIScale    fixed.Fixed // negative if flipped
	TextureMid fixed.Fixed
	Patch      int // sprite lump index

	// Colormap[0] nil draws the fuzz effect
	Colormap    [2][]byte
	Brightmap   []byte
	Translation []byte // player color remap, nil for none

	MobjFlags MobjFlags
}

type thingState struct {
	vis        []VisSprite
	overflow   VisSprite // sink for sprites past the cap
	overflowed bool
	max        int
	sorted     []*VisSprite

	clipBot, clipTop []int16

	// Masked column drawing
	sprYScale    fixed.Fixed
	sprTopScreen fixed.Fixed

	spriteLevel int
}

func (t *thingState) resize(width int) {
	t.clipBot = make([]int16, width)
	t.clipTop = make([]int16, width)
}

func (t *thingState) clearSprites() {
	t.vis = t.vis[:0]
	t.overflowed = false
}

// newVisSprite returns the next vissprite, growing storage geometrically up
// to the cap and then handing out the overflow sink.
func (t *thingState) newVisSprite() *VisSprite {
	n := len(t.vis)
	if n == cap(t.vis) {
		if n >= t.max {
			if !t.overflowed {
				logger.Printf("newVisSprite: more than %d vissprites, dropping the rest", t.max)
				t.overflowed = true
			}
			t.overflow = VisSprite{}
			return &t.overflow
		}
		grown := make([]VisSprite, n, min(max(2*n, minVisSprites), t.max))
		copy(grown, t.vis)
		t.vis = grown
	}
	t.vis = t.vis[:n+1]
	t.vis[n] = VisSprite{}
	return &t.vis[n]
}

// addSprites projects the things in a sector, once per frame.
func (r *Renderer) addSprites(sec *Sector) {
	if sec.validCount == r.validCount {
		return
	}
	sec.validCount = r.validCount
	r.things.spriteLevel = r.light.level(sec.LightLevel, r.view.extraLight)
	for _, mo := range sec.things {
		r.projectSprite(mo)
	}
}

// projectSprite generates a vissprite for a thing if it might be visible.
func (r *Renderer) projectSprite(mo *Mobj) {
	v, s := &r.view, &r.sprites
	x, y, z, angle := mo.X, mo.Y, mo.Z, mo.Angle
	if r.interpolating() && mo.Interp {
		frac := r.frame.FracTic
		x = mo.OldX + fixed.Mul(mo.X-mo.OldX, frac)
		y = mo.OldY + fixed.Mul(mo.Y-mo.OldY, frac)
		z = mo.OldZ + fixed.Mul(mo.Z-mo.OldZ, frac)
		angle = interpolateAngle(mo.OldAngle, mo.Angle, frac)
	}

	// Transform the origin point
	trx, try := x-v.x, y-v.y
	gxt := fixed.Mul(trx, v.cos)
	gyt := -fixed.Mul(try, v.sin)
	tz := gxt - gyt

	// Thing is behind view plane?
	if tz < minZ {
		return
	}
	xscale := fixed.Div(v.projection, tz)

	gxt = -fixed.Mul(trx, v.sin)
	gyt = fixed.Mul(try, v.cos)
	tx := -(gyt + gxt)

	// Too far off the side?
	if fixed.Abs(tx) > tz<<2 {
		return
	}

	// Decide which patch to use for sprite relative to player
	frameNum := mo.Frame & FrameMask
	if mo.Sprite < 0 || mo.Sprite >= len(s.defs) || frameNum >= len(s.defs[mo.Sprite].frames) {
		if r.cfg.RangeCheck {
			fatalf("projectSprite: invalid sprite %d frame %d", mo.Sprite, frameNum)
		}
		return
	}
	sf := &s.defs[mo.Sprite].frames[frameNum]
	rot := 0
	if sf.rotate {
		// Choose a different rotation based on player view
		ang := r.pointToAngle(x, y)
		if sf.lump[0] == sf.lump[1] {
			rot = int((ang - angle + fixed.Ang45/2*9) >> 28)
		} else {
			rot = int((ang - angle + fixed.Ang45/4*17) >> 28)
		}
	}
	lump, flip := sf.lump[rot], sf.flip[rot]

	// Calculate edges of the shape
	if flip {
		tx -= s.width[lump] - s.offset[lump]
	} else {
		tx -= s.offset[lump]
	}
	x1 := int((v.centerXFrac + fixed.Mul(tx, xscale)) >> fixed.FracBits)

	// Off the right side?
	if x1 >= v.width {
		return
	}
	tx += s.width[lump]
	x2 := int((v.centerXFrac+fixed.Mul(tx, xscale))>>fixed.FracBits) - 1

	// Off the left side?
	if x2 < 0 || x1 > x2 {
		return
	}

	// Entirely above or below the view?
	gzt := z + s.topOffset[lump]
	if gzt < v.z+fixed.Div(v.centerYFrac-fixed.FromInt(v.height), xscale) || z > v.z+fixed.Div(v.centerYFrac, xscale) {
		return
	}

	// Store information in a vissprite
	vis := r.things.newVisSprite()
	vis.MobjFlags = mo.Flags
	vis.Scale = xscale << v.detailShift
	vis.GX, vis.GY = x, y
	vis.GZ, vis.GZT = z, gzt
	vis.TextureMid = gzt - v.z
	vis.X1 = max(x1, 0)
	vis.X2 = min(x2, v.width-1)
	iscale := fixed.Div(fixed.FracUnit, xscale)
	if flip {
		vis.StartFrac = s.width[lump] - 1
		vis.XIScale = -iscale
	} else {
		vis.StartFrac = 0
		vis.XIScale = iscale
	}
	if vis.X1 > x1 {
		vis.StartFrac += vis.XIScale * fixed.Fixed(vis.X1-x1)
	}
	vis.Patch = lump
	vis.Brightmap = r.data.noBrightmap
	if mo.Flags&MFTranslation != 0 {
		vis.Translation = r.data.translation(mo.Flags)
	}

	// Get light level
	switch {
	case mo.Flags&MFShadow != 0:
		vis.Colormap = [2][]byte{}
	case v.fixedColormap != nil:
		vis.Colormap = [2][]byte{v.fixedColormap, v.fixedColormap}
	case mo.Frame&FrameFullBright != 0:
		vis.Colormap = [2][]byte{r.data.colormap(0), r.data.colormap(0)}
	default:
		cm := r.data.colormap(r.light.scaleMap(r.things.spriteLevel, vis.Scale))
		vis.Colormap = [2][]byte{cm, cm}
	}
}

// sortVisSprites orders the frame's vissprites far to near. Sprites at
// equal scale keep the order they were projected in.
func (t *thingState) sortVisSprites() {
	t.sorted = t.sorted[:0]
	for i := range t.vis {
		t.sorted = append(t.sorted, &t.vis[i])
	}
	slices.SortStableFunc(t.sorted, func(a, b *VisSprite) int {
		return cmp.Compare(a.Scale, b.Scale)
	})
}

// drawMaskedColumn draws the posts of one column between the clip rows,
// scaled by sprYScale from sprTopScreen.
func (r *Renderer) drawMaskedColumn(column []byte, topClip, bottomClip int, kind ColumnKind) {
	d, t := &r.draw, &r.things
	base := d.Col.TextureMid
	d.Col.TexHeight = 0
	posts := wad.NewPostReader(column)
	for post, ok := posts.Next(); ok; post, ok = posts.Next() {
		// Calculate unclipped screen coordinates for post
		top := int64(t.sprTopScreen) + int64(t.sprYScale)*int64(post.TopDelta)
		bottom := top + int64(t.sprYScale)*int64(len(post.Pixels))
		yl := int((top + int64(fixed.FracUnit) - 1) >> fixed.FracBits)
		yh := int((bottom - 1) >> fixed.FracBits)
		yh = min(yh, bottomClip-1)
		yl = max(yl, topClip+1)
		if yl <= yh {
			d.Col.YL, d.Col.YH = yl, yh
			d.Col.Source = post.Pixels[:cap(post.Pixels)]
			d.Col.TextureMid = base - fixed.FromInt(post.TopDelta)
			d.DrawColumn(kind)
		}
	}
	d.Col.TextureMid = base
}

// drawVisSprite draws a clipped vissprite.
func (r *Renderer) drawVisSprite(vis *VisSprite) {
	v, d, t := &r.view, &r.draw, &r.things
	patch := r.sprites.patch(r.wad, vis.Patch)

	kind := ColumnSolid
	switch {
	case vis.Colormap[0] == nil:
		kind = ColumnFuzz
	case vis.Translation != nil:
		kind = ColumnTranslated
		d.Col.Translation = vis.Translation
	case vis.MobjFlags&MFTranslucent != 0 && r.cfg.Translucency:
		kind = ColumnTranslucent
	}
	d.Col.Colormap = vis.Colormap
	d.Col.Brightmap = vis.Brightmap
	d.Col.IScale = fixed.Abs(vis.XIScale) >> v.detailShift
	d.Col.TextureMid = vis.TextureMid
	t.sprYScale = vis.Scale
	t.sprTopScreen = v.centerYFrac - fixed.Mul(d.Col.TextureMid, t.sprYScale)

	frac := vis.StartFrac
	for x := vis.X1; x <= vis.X2; x, frac = x+1, frac+vis.XIScale {
		col := int(frac >> fixed.FracBits)
		if col < 0 || col >= patch.Width() {
			if r.cfg.RangeCheck {
				fatalf("drawVisSprite: bad texture column %d", col)
			}
			continue
		}
		d.Col.X = x
		r.drawMaskedColumn(patch[patch.ColumnOfs(col):], int(t.clipTop[x]), int(t.clipBot[x]), kind)
	}
}

// ClipVisSprite fills clipBot and clipTop, indexed by screen column, for
// spr against every drawseg nearer than it. Segs are scanned from the last
// drawn, and a row once set is kept. Masked segs behind the sprite are
// handed to renderMasked so they draw first.
func ClipVisSprite(spr *VisSprite, segs []DrawSeg, viewHeight int, clipBot, clipTop []int16, renderMasked func(ds *DrawSeg, x1, x2 int)) {
	for x := spr.X1; x <= spr.X2; x++ {
		clipBot[x], clipTop[x] = -2, -2
	}

	// Scan drawsegs from end to start for obscuring segs
	for i := len(segs) - 1; i >= 0; i-- {
		ds := &segs[i]

		// Determine if the drawseg obscures the sprite
		if ds.X1 > spr.X2 || ds.X2 < spr.X1 || (ds.Silhouette == silNone && ds.MaskedTextureCol == nil) {
			// Does not cover sprite
			continue
		}
		r1, r2 := max(ds.X1, spr.X1), min(ds.X2, spr.X2)
		lowScale, scale := min(ds.Scale1, ds.Scale2), max(ds.Scale1, ds.Scale2)
		if scale < spr.Scale || (lowScale < spr.Scale && PointOnSegSide(spr.GX, spr.GY, ds.CurLine) == 0) {
			// Masked mid texture?
			if ds.MaskedTextureCol != nil && renderMasked != nil {
				renderMasked(ds, r1, r2)
			}
			// Seg is behind sprite
			continue
		}

		// Clip this piece of the sprite
		silhouette := ds.Silhouette
		if spr.GZ >= ds.BSilHeight {
			silhouette &^= silBottom
		}
		if spr.GZT <= ds.TSilHeight {
			silhouette &^= silTop
		}
		for x := r1; x <= r2; x++ {
			if silhouette&silBottom != 0 && clipBot[x] == -2 {
				clipBot[x] = ds.SprBottomClip[x-ds.X1]
			}
			if silhouette&silTop != 0 && clipTop[x] == -2 {
				clipTop[x] = ds.SprTopClip[x-ds.X1]
			}
		}
	}

	// Check for unclipped columns
	for x := spr.X1; x <= spr.X2; x++ {
		if clipBot[x] == -2 {
			clipBot[x] = int16(viewHeight)
		}
		if clipTop[x] == -2 {
			clipTop[x] = -1
		}
	}
}

func (r *Renderer) drawSprite(spr *VisSprite) {
	t := &r.things
	ClipVisSprite(spr, r.segs.drawSegs, r.view.height, t.clipBot, t.clipTop, r.renderMaskedSegRange)
	r.drawVisSprite(spr)
}

// drawMasked draws sprites back to front with the masked mid textures
// between them, then the player's weapon.
func (r *Renderer) drawMasked() {
	t := &r.things
	t.sortVisSprites()
	r.draw.SetFuzzPosDraw()
	for _, spr := range t.sorted {
		r.drawSprite(spr)
	}

	// Render any remaining masked mid textures
	segs := r.segs.drawSegs
	for i := len(segs) - 1; i >= 0; i-- {
		if ds := &segs[i]; ds.MaskedTextureCol != nil {
			r.renderMaskedSegRange(ds, ds.X1, ds.X2)
		}
	}

	// Draw the psprites on top of everything, but not on side views
	if r.view.angleOffset == 0 {
		r.drawPlayerSprites()
	}
}
