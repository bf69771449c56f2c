package render

import (
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

// borderFlats are tried in order when Config.BorderFlat is unset.
var borderFlats = []string{"FLOOR7_2", "GRNROCK"}

// fillBackScreen draws the tiled flat and bevel around a reduced view into
// the background buffer, which DrawViewBorder copies from.
func (r *Renderer) fillBackScreen() {
	v := &r.view
	if v.scaledWidth == r.screen.Width {
		return
	}
	height := r.screen.Height - sbarHeight<<r.hires
	if r.background == nil {
		r.background = &Screen{Width: r.screen.Width, Height: height, Pix: r.zone.Malloc(r.screen.Width*height, zone.Static, nil)}
	}
	bg := r.background

	names := borderFlats
	if r.cfg.BorderFlat != "" {
		names = []string{r.cfg.BorderFlat}
	}
	var src []byte
	for _, name := range names {
		if num, err := r.data.flatNum(name); err == nil {
			src = r.wad.CacheLumpNum(r.data.flatLumps[num], zone.Cache)
			break
		}
	}
	if src == nil {
		logger.Printf("fillBackScreen: no border flat in %v", names)
		clear(bg.Pix)
	} else {
		for y := 0; y < bg.Height; y++ {
			row := bg.Pix[y*bg.Width : (y+1)*bg.Width]
			flatRow := src[(y>>r.hires&63)*wad.FlatWidth:][:wad.FlatWidth]
			for x := range row {
				row[x] = flatRow[x>>r.hires&63]
			}
		}
	}

	// Draw screen and bevel graphics in 320x200 space
	scale := 1 << r.hires
	wx, wy := v.windowX>>r.hires, v.windowY>>r.hires
	w, h := v.scaledWidth>>r.hires, v.height>>r.hires
	patch := func(name string) wad.Patch {
		lump := r.wad.CheckNumForName(name)
		if lump < 0 {
			return nil
		}
		p := wad.Patch(r.wad.CacheLumpNum(lump, zone.Cache))
		if p.Validate() != nil {
			return nil
		}
		return p
	}
	draw := func(x, y int, p wad.Patch) {
		if p != nil {
			bg.DrawPatch(x, y, scale, p)
		}
	}
	if p := patch("BRDR_T"); p != nil {
		for x := 0; x < w; x += 8 {
			draw(wx+x, wy-8, p)
		}
	}
	if p := patch("BRDR_B"); p != nil {
		for x := 0; x < w; x += 8 {
			draw(wx+x, wy+h, p)
		}
	}
	if p := patch("BRDR_L"); p != nil {
		for y := 0; y < h; y += 8 {
			draw(wx-8, wy+y, p)
		}
	}
	if p := patch("BRDR_R"); p != nil {
		for y := 0; y < h; y += 8 {
			draw(wx+w, wy+y, p)
		}
	}

	// Draw beveled edge
	draw(wx-8, wy-8, patch("BRDR_TL"))
	draw(wx+w, wy-8, patch("BRDR_TR"))
	draw(wx-8, wy+h, patch("BRDR_BL"))
	draw(wx+w, wy+h, patch("BRDR_BR"))
}

// videoErase copies count background pixels at ofs to the screen.
func (r *Renderer) videoErase(ofs, count int) {
	copy(r.screen.Pix[ofs:ofs+count], r.background.Pix[ofs:ofs+count])
}

// DrawViewBorder restores the border around a reduced view from the
// background buffer, for when menus or messages have drawn over it.
func (r *Renderer) DrawViewBorder() {
	v := &r.view
	if v.scaledWidth == r.screen.Width || r.background == nil {
		return
	}
	width := r.screen.Width
	top := (r.background.Height - v.height) / 2
	side := (width - v.scaledWidth) / 2

	// Copy top and one line of left side
	r.videoErase(0, top*width+side)

	// Copy one line of right side and bottom
	ofs := (v.height+top)*width - side
	r.videoErase(ofs, top*width+side)

	// Copy sides using wraparound
	ofs = top*width + width - side
	side <<= 1
	for i := 1; i < v.height; i++ {
		r.videoErase(ofs, side)
		ofs += width
	}
}
