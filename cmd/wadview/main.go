// Command wadview walks a level in a window. Arrow keys or WASD move and
// turn, - and = resize the view, F5 toggles detail and Tab the overview.
package main

import (
	"flag"
	"image"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/internal/scene"
	"github.com/stuarthighley/wadrender/render"
	"github.com/stuarthighley/wadrender/zone"
)

const ticRate = 35

// Per tic
const (
	walkSpeed = 16
	turnSpeed = fixed.Ang5
)

type game struct {
	s        *scene.Scene
	blocks   int
	detail   int
	overview bool
	lastTic  time.Time

	img     *image.RGBA
	frame   *ebiten.Image
	overScr *render.Screen
	rgbaPal [256][4]byte
}

func newGame(s *scene.Scene, cfg render.Config) *game {
	g := &game{s: s, blocks: cfg.ScreenBlocks, detail: cfg.Detail, lastTic: time.Now()}
	scr := s.Renderer.Screen()
	g.img = image.NewRGBA(image.Rect(0, 0, scr.Width, scr.Height))
	g.frame = ebiten.NewImage(scr.Width, scr.Height)
	g.overScr = render.NewScreen(scr.Width, scr.Height)
	for i, c := range s.Renderer.Palette() {
		g.rgbaPal[i] = [4]byte{c.Red, c.Green, c.Blue, 0xff}
	}
	return g
}

func pressed(keys ...ebiten.Key) bool {
	for _, k := range keys {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.overview = !g.overview
	}
	resize := false
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) && g.blocks > 3 {
		g.blocks--
		resize = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) && g.blocks < 11 {
		g.blocks++
		resize = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.detail ^= 1
		resize = true
	}
	if resize {
		g.s.Renderer.SetViewSize(g.blocks, g.detail)
	}

	var forward, side int
	var turn fixed.Angle
	if pressed(ebiten.KeyArrowUp, ebiten.KeyW) {
		forward += walkSpeed
	}
	if pressed(ebiten.KeyArrowDown, ebiten.KeyS) {
		forward -= walkSpeed
	}
	if pressed(ebiten.KeyD) {
		side += walkSpeed
	}
	if pressed(ebiten.KeyA) {
		side -= walkSpeed
	}
	if pressed(ebiten.KeyArrowLeft) {
		turn += turnSpeed
	}
	if pressed(ebiten.KeyArrowRight) {
		turn -= turnSpeed
	}
	g.s.Move(forward, side, turn)
	g.lastTic = time.Now()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	var scr *render.Screen
	if g.overview {
		g.s.DrawOverview(g.overScr)
		scr = g.overScr
	} else {
		// Fraction of a tic since the last Update, for uncapped frames
		frac := fixed.FromFloat(time.Since(g.lastTic).Seconds() * ticRate)
		scr = g.s.Render(fixed.Clamp(frac, 0, fixed.FracUnit))
		g.s.Renderer.DrawViewBorder()
	}

	for i, p := range scr.Pix {
		copy(g.img.Pix[4*i:], g.rgbaPal[p][:])
	}
	g.frame.WritePixels(g.img.Pix)
	screen.DrawImage(g.frame, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scr := g.s.Renderer.Screen()
	return scr.Width, scr.Height
}

func main() {
	cfg := render.DefaultConfig()
	wadFile := flag.String("wad", "DOOM1.WAD", "IWAD or PWAD to read")
	mapName := flag.String("map", "", "level to play, first level when empty")
	backend := flag.String("zone", "native", "zone backend: native or arena")
	zoneSize := flag.Int("zonesize", 0, "arena size in bytes, 0 for the default")
	verbose := flag.Bool("v", false, "log loading progress")
	flag.IntVar(&cfg.ScreenBlocks, "blocks", cfg.ScreenBlocks, "view size, 3 to 11")
	flag.IntVar(&cfg.Detail, "detail", cfg.Detail, "0 high detail, 1 low")
	flag.BoolVar(&cfg.HiRes, "hires", false, "draw at 640x400")
	flag.BoolVar(&cfg.SmoothLight, "smooth", false, "32 light levels")
	flag.BoolVar(&cfg.Uncapped, "uncapped", true, "interpolate frames between tics")
	flag.BoolVar(&cfg.Translucency, "translucency", false, "blend translucent things")
	flag.Parse()

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	z := zone.Config{Size: *zoneSize}
	var err error
	if z.Backend, err = zone.ParseBackend(*backend); err != nil {
		log.Fatalln(err)
	}
	s, err := scene.Load(scene.Config{WAD: *wadFile, Map: *mapName, Zone: z, Render: cfg, Logger: logger})
	if err != nil {
		log.Fatalln(err)
	}
	defer s.Close()

	g := newGame(s, cfg)
	ebiten.SetWindowTitle("wadview: " + s.Map.Name)
	ebiten.SetWindowSize(960, 600)
	ebiten.SetTPS(ticRate)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatalln(err)
	}
}
