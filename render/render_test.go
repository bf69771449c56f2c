package render

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/zone"
)

func pixelAt(s *Screen, x, y int) byte {
	return s.Pix[y*s.Width+x]
}

// roomWithThing loads the square room with a thing 96 units ahead of the
// player and the pistol raised.
func roomWithThing(t *testing.T, r *Renderer, ceiling string) (*Player, *Mobj) {
	t.Helper()
	lev, err := r.LoadLevel(squareRoom(ceiling))
	if err != nil {
		t.Fatal(err)
	}
	player := testPlayer(lev, 128, 64)
	player.PSprites[psWeapon] = PSprite{Active: true, Sprite: 1, SX: fixed.FracUnit, SY: fixed.FromInt(32)}
	thing := &Mobj{X: fixed.FromInt(128), Y: fixed.FromInt(160)}
	lev.LinkThing(thing)
	return player, thing
}

func TestRenderRoom(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend.String(), func(t *testing.T) {
			r := newTestRenderer(t, backend, DefaultConfig())
			player, _ := roomWithThing(t, r, "CEIL")
			r.RenderPlayerView(player, FrameTime{})
			s := r.Screen()

			tests := []struct {
				name string
				x, y int
				want byte
			}{
				{"far wall", 160, 84, wallPixel},
				{"ceiling", 160, 0, ceilPixel},
				{"floor", 10, 167, floorPixel},
				{"thing", 160, 120, spritePixel},
				{"weapon", 160, 150, weaponPixel},
				{"status bar", 160, 190, 0},
			}
			for _, tt := range tests {
				if got := pixelAt(s, tt.x, tt.y); got != tt.want {
					t.Errorf("%s at %d,%d = %d, want %d", tt.name, tt.x, tt.y, got, tt.want)
				}
			}
			if !r.level.Lines[1].Mapped {
				t.Error("far wall not marked as seen")
			}
		})
	}
}

func TestRenderSky(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	player, _ := roomWithThing(t, r, "F_SKY1")
	r.RenderPlayerView(player, FrameTime{})
	if got := pixelAt(r.Screen(), 160, 0); got != skyPixel {
		t.Errorf("sky = %d", got)
	}
	if n := countPixels(r.Screen(), 1); n != 0 {
		t.Errorf("sky flat drawn on %d pixels", n)
	}
}

func TestRenderShadowThing(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	player, thing := roomWithThing(t, r, "CEIL")
	thing.Flags |= MFShadow
	r.RenderPlayerView(player, FrameTime{})
	if n := countPixels(r.Screen(), spritePixel); n != 0 {
		t.Errorf("fuzzy thing drew %d solid pixels", n)
	}
}

func TestRenderSideView(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	player, _ := roomWithThing(t, r, "CEIL")
	player.ViewAngleOffset = fixed.Ang45
	r.RenderPlayerView(player, FrameTime{})
	if n := countPixels(r.Screen(), weaponPixel); n != 0 {
		t.Errorf("weapon drawn on a side view: %d pixels", n)
	}
}

func TestRenderLowDetailAndHiRes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detail = 1
	r := newTestRenderer(t, zone.Native, cfg)
	player, _ := roomWithThing(t, r, "CEIL")
	r.RenderPlayerView(player, FrameTime{})
	if got := pixelAt(r.Screen(), 160, 84); got != wallPixel {
		t.Errorf("low detail wall = %d", got)
	}

	cfg = DefaultConfig()
	cfg.HiRes = true
	r = newTestRenderer(t, zone.Native, cfg)
	player, _ = roomWithThing(t, r, "CEIL")
	r.RenderPlayerView(player, FrameTime{})
	s := r.Screen()
	if s.Width != 640 || s.Height != 400 {
		t.Fatalf("hires screen %dx%d", s.Width, s.Height)
	}
	if got := pixelAt(s, 320, 168); got != wallPixel {
		t.Errorf("hires wall = %d", got)
	}
	if got := pixelAt(s, 320, 240); got != spritePixel {
		t.Errorf("hires thing = %d", got)
	}
}

func TestSetupFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Uncapped = true
	r := newTestRenderer(t, zone.Native, cfg)
	player, _ := roomWithThing(t, r, "CEIL")
	mo := player.Mo
	mo.OldX, mo.X = 0, fixed.FromInt(10)
	mo.OldY, mo.Y = 0, 0
	mo.OldAngle, mo.Angle = 0, fixed.Ang90
	mo.Interp = true
	player.LookDir = 1000 * MLookUnit

	r.frame = FrameTime{LevelTime: 5, FracTic: fixed.FracUnit / 2}
	before := r.validCount
	r.setupFrame(player)
	v := &r.view
	if v.x != fixed.FromInt(5) || v.angle != fixed.Ang45 {
		t.Errorf("interpolated view at %v angle %x", v.x, v.angle)
	}
	if v.pitch != lookDirMax || v.centerY != v.height/2+lookDirMax {
		t.Errorf("pitch %d center %d", v.pitch, v.centerY)
	}
	if r.validCount != before+1 {
		t.Error("validcount not advanced")
	}

	// Paused frames draw the current tic
	r.frame.Paused = true
	r.setupFrame(player)
	if v.x != mo.X {
		t.Errorf("paused view x = %v", v.x)
	}
}

func TestViewBorder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScreenBlocks = 8
	cfg.BorderFlat = "FLOOR"
	r := newTestRenderer(t, zone.Native, cfg)
	r.DrawViewBorder()
	s := r.Screen()
	if r.view.scaledWidth != 256 || r.view.windowX != 32 || r.view.windowY != 20 {
		t.Fatalf("view %d at %d,%d", r.view.scaledWidth, r.view.windowX, r.view.windowY)
	}
	if pixelAt(s, 0, 0) != floorPixel || pixelAt(s, 319, 167) != floorPixel {
		t.Error("border not restored")
	}
	if pixelAt(s, 160, 100) != 0 {
		t.Error("border copy overwrote the view")
	}
}

func TestSetViewSizeClamps(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	r.SetViewSize(20, 5)
	if r.setBlocks != 11 || r.setDetail != 1 || !r.setSizeNeeded {
		t.Errorf("blocks %d detail %d", r.setBlocks, r.setDetail)
	}
	r.executeSetViewSize()
	if r.view.scaledWidth != 320 || r.view.height != 200 || r.view.width != 160 {
		t.Errorf("full screen low detail view %dx%d", r.view.width, r.view.height)
	}
}

func TestDrawPlanesRangeCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RangeCheck = true
	r := newTestRenderer(t, zone.Native, cfg)
	mustPanic(t, "mapPlane", func() { r.mapPlane(0, 10, 5) })
	mustPanic(t, "storeWallRange", func() { r.storeWallRange(400, 401) })
}

func TestSetColormaps(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	player, _ := roomWithThing(t, r, "CEIL")
	if err := r.SetColormaps(make([]byte, 256)); err == nil {
		t.Error("expected error for short colormaps")
	}

	// Every map shifts each color up by one
	maps := make([]byte, (numColormaps+1)*256)
	for i := range maps {
		maps[i] = byte(i + 1)
	}
	if err := r.SetColormaps(maps); err != nil {
		t.Fatal(err)
	}
	if !r.setSizeNeeded {
		t.Error("light tables must be rebuilt before the next frame")
	}
	r.RenderPlayerView(player, FrameTime{})
	s := r.Screen()
	for _, tt := range []struct {
		name string
		x, y int
		want byte
	}{
		{"far wall", 160, 84, wallPixel + 1},
		{"floor", 10, 167, floorPixel + 1},
		{"thing", 160, 120, spritePixel + 1},
		{"weapon", 160, 150, weaponPixel + 1},
	} {
		if got := pixelAt(s, tt.x, tt.y); got != tt.want {
			t.Errorf("%s at %d,%d = %d, want %d", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestVisplaneOverflowLogsEachFrame(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	defer SetLogger(log.New(io.Discard, "", 0))

	var p planeState
	p.resize(8, 8)
	for i := 0; i < 2; i++ {
		p.used = 0
		for i := 0; i < minVisPlanes+10; i++ {
			p.newPlane(fixed.FromInt(i), 0, 0, 0, 7)
		}
	}
	if n := strings.Count(buf.String(), "visplanes"); n != 2 {
		t.Errorf("overflow logged %d times over two frames:\n%s", n, buf.String())
	}
}
