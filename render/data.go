package render

import (
	"fmt"
	"strings"

	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

// texture is a wall texture. Its composite is built on first use into a
// purgable zone block: width*height column-major pixels, then every column
// again as posts for masked drawing.
type texture struct {
	name          string
	width, height int
	patches       []wad.TexturePatch
	brightmap     []byte

	composite []byte // zone owned, nil until built or after a purge
	postOfs   []int
}

type renderData struct {
	wad  *wad.WAD
	zone zone.Allocator

	textures    []texture
	textureNums map[string]int
	flatLumps   []int
	flatNums    map[string]int
	flatBright  [][]byte

	colormaps    []byte
	translations []byte // three player remaps, 256 bytes each
	tranmap      []byte
	noBrightmap  []byte

	skyFlat    int
	skyTexture int
}

func newRenderData(w *wad.WAD, z zone.Allocator, cfg *Config, pal *wad.Palette) (*renderData, error) {
	d := &renderData{wad: w, zone: z, noBrightmap: make([]byte, 256)}
	if err := d.initTextures(cfg.Brightmaps); err != nil {
		return nil, err
	}
	if err := d.initFlats(cfg.Brightmaps); err != nil {
		return nil, err
	}
	if err := d.initColormaps(); err != nil {
		return nil, err
	}
	d.initTranslationTables()
	d.initTranMap(pal, cfg.TranslucencyPct)

	var err error
	if d.skyFlat, err = d.flatNum(wad.SkyFlatName); err != nil {
		return nil, err
	}
	if d.skyTexture, err = d.textureNum(cfg.SkyTexture); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *renderData) initTextures(brightmaps bool) error {
	defs, err := d.wad.ReadTextureDefs()
	if err != nil {
		return err
	}
	d.textures = make([]texture, len(defs))
	d.textureNums = make(map[string]int, len(defs))
	for i, def := range defs {
		if def.Width <= 0 || def.Height <= 0 {
			return fmt.Errorf("texture %v: bad size %dx%d", def.Name, def.Width, def.Height)
		}
		for _, p := range def.Patches {
			if p.Lump < 0 {
				return fmt.Errorf("texture %v: missing patch", def.Name)
			}
			if err := wad.Patch(d.wad.CacheLumpNum(p.Lump, zone.Cache)).Validate(); err != nil {
				return fmt.Errorf("texture %v: patch %v: %w", def.Name, d.wad.LumpName(p.Lump), err)
			}
		}
		d.textures[i] = texture{
			name:      def.Name,
			width:     def.Width,
			height:    def.Height,
			patches:   def.Patches,
			brightmap: d.brightmapFor(textureBrightmaps, def.Name, brightmaps),
		}
		// The first definition of a name wins
		if _, ok := d.textureNums[def.Name]; !ok {
			d.textureNums[def.Name] = i
		}
	}
	return nil
}

// textureNum resolves a side texture name. "-" is no texture, number 0.
func (d *renderData) textureNum(name string) (int, error) {
	if name == "" || name[0] == '-' {
		return 0, nil
	}
	if num, ok := d.textureNums[strings.ToUpper(name)]; ok {
		return num, nil
	}
	return 0, fmt.Errorf("texture %v not found", name)
}

func (d *renderData) initFlats(brightmaps bool) error {
	lumps, err := d.wad.FlatLumps()
	if err != nil {
		return err
	}
	d.flatLumps = lumps
	d.flatNums = make(map[string]int, len(lumps))
	d.flatBright = make([][]byte, len(lumps))
	for i, lump := range lumps {
		name := d.wad.LumpName(lump)
		if d.wad.LumpLength(lump) < wad.FlatWidth*wad.FlatHeight {
			return fmt.Errorf("flat %v too short", name)
		}
		// Later flats replace earlier ones
		d.flatNums[name] = i
		d.flatBright[i] = d.brightmapFor(flatBrightmaps, name, brightmaps)
	}
	logger.Printf("Loaded %d flats", len(lumps))
	return nil
}

func (d *renderData) flatNum(name string) (int, error) {
	if num, ok := d.flatNums[strings.ToUpper(name)]; ok {
		return num, nil
	}
	return 0, fmt.Errorf("flat %v not found", name)
}

// flat caches a flat for drawing. Release it with releaseFlat.
func (d *renderData) flat(num int) []byte {
	return d.wad.CacheLumpNum(d.flatLumps[num], zone.Static)
}

func (d *renderData) releaseFlat(num int) {
	d.wad.ReleaseLumpNum(d.flatLumps[num])
}

func (d *renderData) initColormaps() error {
	lump := d.wad.CheckNumForName("COLORMAP")
	if lump < 0 {
		return fmt.Errorf("COLORMAP not found")
	}
	// 32 light levels and the invulnerability map
	if n := d.wad.LumpLength(lump); n < (numColormaps+1)*256 {
		return fmt.Errorf("COLORMAP too short: %d bytes", n)
	}
	d.colormaps = d.wad.CacheLumpNum(lump, zone.Static)
	return nil
}

// colormap returns colormap number n.
func (d *renderData) colormap(n int) []byte {
	return d.colormaps[n*256 : (n+1)*256]
}

// initTranslationTables builds the player color remaps, turning the green
// ramp gray, brown and red.
func (d *renderData) initTranslationTables() {
	d.translations = d.zone.Malloc(256*3, zone.Static, nil)
	for i := 0; i < 256; i++ {
		if i >= 0x70 && i <= 0x7f {
			d.translations[i] = byte(0x60 + i&0xf)
			d.translations[i+256] = byte(0x40 + i&0xf)
			d.translations[i+512] = byte(0x20 + i&0xf)
		} else {
			d.translations[i] = byte(i)
			d.translations[i+256] = byte(i)
			d.translations[i+512] = byte(i)
		}
	}
}

// translation returns the remap selected by a mobj's translation bits.
func (d *renderData) translation(flags MobjFlags) []byte {
	n := int(flags&MFTranslation) >> MFTransShift
	return d.translations[(n-1)*256 : n*256]
}

// initTranMap loads TRANMAP or blends every background and foreground pair
// of palette colors, pct percent foreground, to the nearest palette entry.
func (d *renderData) initTranMap(pal *wad.Palette, pct int) {
	if lump := d.wad.CheckNumForName("TRANMAP"); lump >= 0 && d.wad.LumpLength(lump) == 256*256 {
		d.tranmap = d.wad.CacheLumpNum(lump, zone.Static)
		return
	}
	d.tranmap = d.zone.Malloc(256*256, zone.Static, nil)
	for bg := 0; bg < 256; bg++ {
		for fg := 0; fg < 256; fg++ {
			blend := func(f, b uint8) int { return (int(f)*pct + int(b)*(100-pct)) / 100 }
			r := blend(pal[fg].Red, pal[bg].Red)
			g := blend(pal[fg].Green, pal[bg].Green)
			b := blend(pal[fg].Blue, pal[bg].Blue)
			d.tranmap[bg<<8|fg] = nearestColor(pal, r, g, b)
		}
	}
}

func nearestColor(pal *wad.Palette, r, g, b int) byte {
	best, bestDist := 0, 1<<30
	for i, c := range pal {
		dr, dg, db := int(c.Red)-r, int(c.Green)-g, int(c.Blue)-b
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			best, bestDist = i, dist
			if dist == 0 {
				break
			}
		}
	}
	return byte(best)
}
