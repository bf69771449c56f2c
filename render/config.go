package render

import "fmt"

// Config holds the renderer's settings. Changing detail, screen size or
// lighting quality after New goes through SetViewSize and SetSmoothLight.
type Config struct {
	HiRes        bool // 640x400 instead of 320x200
	ScreenBlocks int  // 3..11, 11 is full screen without status bar
	Detail       int  // 0 high, 1 low (doubled columns)
	SmoothLight  bool // 32 light levels instead of 16
	Uncapped     bool // interpolate between tics
	RangeCheck   bool // fatal on out of range draw coordinates

	MaxVisSprites int // vissprite storage cap, further sprites are dropped
	MaxDrawSegs   int // drawseg storage cap, further walls are not stored

	Translucency    bool // draw MF_TRANSLUCENT things blended
	TranslucencyPct int  // foreground weight when the map is built from the palette
	Brightmaps      bool

	BorderFlat string // tiled behind a reduced view; FLOOR7_2 or GRNROCK when empty
	SkyTexture string
}

// DefaultConfig returns vanilla-compatible settings.
func DefaultConfig() Config {
	return Config{
		ScreenBlocks:    10,
		Detail:          0,
		MaxVisSprites:   32 * minVisSprites,
		MaxDrawSegs:     64 * minDrawSegs,
		TranslucencyPct: 66,
		SkyTexture:      "SKY1",
	}
}

func (c *Config) validate() error {
	if c.ScreenBlocks < 3 || c.ScreenBlocks > 11 {
		return fmt.Errorf("screen blocks %d out of range 3..11", c.ScreenBlocks)
	}
	if c.Detail != 0 && c.Detail != 1 {
		return fmt.Errorf("detail %d must be 0 or 1", c.Detail)
	}
	if c.MaxVisSprites < minVisSprites {
		return fmt.Errorf("vissprite cap %d below %d", c.MaxVisSprites, minVisSprites)
	}
	if c.MaxDrawSegs < minDrawSegs {
		return fmt.Errorf("drawseg cap %d below %d", c.MaxDrawSegs, minDrawSegs)
	}
	if c.TranslucencyPct < 0 || c.TranslucencyPct > 100 {
		return fmt.Errorf("translucency %d%% out of range", c.TranslucencyPct)
	}
	if c.SkyTexture == "" {
		c.SkyTexture = "SKY1"
	}
	return nil
}
