package render

import "github.com/stuarthighley/wadrender/fixed"

const baseYCenter = origHeight / 2

// drawPSprite draws one weapon overlay at a fixed screen scale.
func (r *Renderer) drawPSprite(psp *PSprite, level int) {
	v, s := &r.view, &r.sprites
	player := r.player

	// Decide which patch to use
	frameNum := psp.Frame & FrameMask
	if psp.Sprite < 0 || psp.Sprite >= len(s.defs) || frameNum >= len(s.defs[psp.Sprite].frames) {
		if r.cfg.RangeCheck {
			fatalf("drawPSprite: invalid sprite %d frame %d", psp.Sprite, frameNum)
		}
		return
	}
	sf := &s.defs[psp.Sprite].frames[frameNum]
	lump, flip := sf.lump[0], sf.flip[0]

	// Calculate edges of the shape
	tx := psp.SX - fixed.FromInt(origWidth/2)
	tx -= s.offset[lump]
	x1 := int((v.centerXFrac + fixed.Mul(tx, v.pspriteScale)) >> fixed.FracBits)

	// Off the right side
	if x1 >= v.width {
		return
	}
	tx += s.width[lump]
	x2 := int((v.centerXFrac+fixed.Mul(tx, v.pspriteScale))>>fixed.FracBits) - 1

	// Off the left side
	if x2 < 0 {
		return
	}

	var vis VisSprite
	// Weapons sit a quarter pixel lower so they are not drawn a row too high
	vis.TextureMid = fixed.FromInt(baseYCenter) + fixed.FracUnit/4 - (psp.SY - s.topOffset[lump])
	vis.X1 = max(x1, 0)
	vis.X2 = min(x2, v.width-1)
	vis.Scale = v.pspriteScale << v.detailShift
	if flip {
		vis.XIScale = -v.pspriteIScale
		vis.StartFrac = s.width[lump] - 1
	} else {
		vis.XIScale = v.pspriteIScale
	}

	// Follow the view when looking up or down
	vis.TextureMid += fixed.Fixed(v.centerY-v.height/2) * v.pspriteIScale
	if vis.X1 > x1 {
		vis.StartFrac += vis.XIScale * fixed.Fixed(vis.X1-x1)
	}
	vis.Patch = lump
	vis.Brightmap = r.data.noBrightmap

	switch {
	case player.Invisibility > 4*32 || player.Invisibility&8 != 0:
		// Shadow draw
	case v.fixedColormap != nil:
		vis.Colormap = [2][]byte{v.fixedColormap, v.fixedColormap}
	case psp.Frame&FrameFullBright != 0:
		vis.Colormap = [2][]byte{r.data.colormap(0), r.data.colormap(0)}
	default:
		cm := r.data.colormap(r.light.scaleMap(level, fixed.MaxInt))
		vis.Colormap = [2][]byte{cm, cm}
	}
	r.drawVisSprite(&vis)
}

// drawPlayerSprites draws the active weapon overlays, lit by the player's
// sector and clipped only by the view.
func (r *Renderer) drawPlayerSprites() {
	v, t := &r.view, &r.things
	player := r.player
	sec := player.Mo.Sector()
	if sec == nil {
		sec = r.level.PointInSubsector(player.Mo.X, player.Mo.Y).Sector
	}
	level := r.light.level(sec.LightLevel, v.extraLight)

	// Clip to screen bounds
	copy(t.clipBot, v.screenHeightArray)
	copy(t.clipTop, v.negOneArray)

	for i := range player.PSprites {
		if psp := &player.PSprites[i]; psp.Active {
			r.drawPSprite(psp, level)
		}
	}
}
