package render

import (
	"fmt"

	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

// Renderer draws player views of a level into an 8-bit screen. It is not
// safe for concurrent use; one call to RenderPlayerView draws one frame.
type Renderer struct {
	cfg    Config
	wad    *wad.WAD
	zone   zone.Allocator
	screen *Screen
	pal    *wad.Palette
	hires  int

	setSizeNeeded        bool
	setBlocks, setDetail int

	// NetUpdate, when set, is polled between frame phases. It must not
	// call back into the renderer.
	NetUpdate func()

	draw       Drawer
	light      lightTables
	view       view
	data       *renderData
	sprites    spriteData
	level      *Level
	bsp        bspState
	segs       segState
	planes     planeState
	things     thingState
	background *Screen

	player     *Player
	frame      FrameTime
	validCount int
}

// New loads the textures, flats, colormaps and sprites a renderer needs.
// spriteNames gives the four letter sprite prefixes that Mobj.Sprite and
// PSprite.Sprite index.
func New(w *wad.WAD, z zone.Allocator, cfg Config, spriteNames []string) (*Renderer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	pals, err := w.ReadPalettes()
	if err != nil {
		return nil, err
	}
	if len(pals) == 0 {
		return nil, fmt.Errorf("PLAYPAL has no palettes")
	}

	r := &Renderer{cfg: cfg, wad: w, zone: z, pal: &pals[0]}
	if cfg.HiRes {
		r.hires = 1
	}
	if r.data, err = newRenderData(w, z, &r.cfg, r.pal); err != nil {
		return nil, err
	}
	if err := r.initSprites(spriteNames); err != nil {
		return nil, err
	}
	r.light.init(z, cfg.SmoothLight)

	r.draw.colormaps = r.data.colormaps
	r.draw.tranmap = r.data.tranmap
	r.draw.rangeCheck = cfg.RangeCheck
	r.segs.max = cfg.MaxDrawSegs
	r.things.max = cfg.MaxVisSprites

	r.screen = NewScreen(origWidth<<r.hires, origHeight<<r.hires)
	r.SetViewSize(cfg.ScreenBlocks, cfg.Detail)
	r.executeSetViewSize()
	logger.Printf("Renderer ready: %dx%d, %d textures", r.screen.Width, r.screen.Height, len(r.data.textures))
	return r, nil
}

// Screen returns the frame buffer frames are drawn into.
func (r *Renderer) Screen() *Screen {
	return r.screen
}

// Palette returns the base palette of the WAD.
func (r *Renderer) Palette() *wad.Palette {
	return r.pal
}

// SetColormaps replaces the colormaps frames are shaded through, for
// example after a gamma change. maps holds the light level maps followed by
// the invulnerability map, 256 bytes each. The light tables are rebuilt
// before the next frame.
func (r *Renderer) SetColormaps(maps []byte) error {
	if len(maps) < (numColormaps+1)*256 {
		return fmt.Errorf("colormaps too short: %d bytes", len(maps))
	}
	r.data.colormaps = maps
	r.draw.colormaps = maps
	r.light.init(r.zone, r.cfg.SmoothLight)
	r.setSizeNeeded = true
	logger.Printf("Colormaps replaced, %d maps", len(maps)/256)
	return nil
}

// Tick advances per-tic animation state. Call it once per game tic.
func (r *Renderer) Tick() {
	r.draw.SetFuzzPosTic()
}

func (r *Renderer) interpolating() bool {
	return r.cfg.Uncapped && r.frame.LevelTime > 1 && !r.frame.Paused
}

func (r *Renderer) netUpdate() {
	if r.NetUpdate != nil {
		r.NetUpdate()
	}
}

// RenderPlayerView draws one frame of the loaded level from the player's
// view.
func (r *Renderer) RenderPlayerView(player *Player, ft FrameTime) {
	if r.level == nil {
		fatalf("RenderPlayerView: no level loaded")
	}
	if r.setSizeNeeded {
		r.executeSetViewSize()
	}
	r.player, r.frame = player, ft
	r.setupFrame(player)

	// Clear buffers
	r.clearClipSegs()
	r.segs.clearDrawSegs()
	r.clearPlanes()
	r.things.clearSprites()

	// Check for new console commands
	r.netUpdate()

	// The head node is the last node output
	r.renderBSPNode(len(r.level.Nodes) - 1)
	r.netUpdate()

	r.drawPlanes()
	r.netUpdate()

	r.drawMasked()
	r.netUpdate()
}
