// Command wadrender draws one frame from a level's player start, or its
// overview map, and writes it as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/internal/scene"
	"github.com/stuarthighley/wadrender/render"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

func main() {
	cfg := render.DefaultConfig()
	wadFile := flag.String("wad", "DOOM1.WAD", "IWAD or PWAD to read")
	mapName := flag.String("map", "", "level to draw, first level when empty")
	backend := flag.String("zone", "native", "zone backend: native or arena")
	zoneSize := flag.Int("zonesize", 0, "arena size in bytes, 0 for the default")
	out := flag.String("out", "frame.png", "PNG to write")
	scale := flag.Int("scale", 2, "output pixels per screen pixel")
	turn := flag.Int("turn", 0, "degrees to turn left from the start")
	walk := flag.Int("walk", 0, "map units to walk forward from the start")
	overview := flag.Bool("overview", false, "draw the level top down instead")
	tree := flag.Bool("tree", false, "print the level's BSP tree")
	levels := flag.Bool("levels", false, "list the levels and exit")
	patch := flag.String("patch", "", "write this patch lump as a PNG and exit")
	verbose := flag.Bool("v", false, "log loading progress")
	flag.IntVar(&cfg.ScreenBlocks, "blocks", cfg.ScreenBlocks, "view size, 3 to 11")
	flag.IntVar(&cfg.Detail, "detail", cfg.Detail, "0 high detail, 1 low")
	flag.BoolVar(&cfg.HiRes, "hires", false, "draw at 640x400")
	flag.BoolVar(&cfg.SmoothLight, "smooth", false, "32 light levels")
	flag.BoolVar(&cfg.Translucency, "translucency", false, "blend translucent things")
	flag.BoolVar(&cfg.RangeCheck, "rangecheck", false, "fail on out of range drawing")
	flag.StringVar(&cfg.SkyTexture, "sky", cfg.SkyTexture, "sky texture")
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

	if *levels || *patch != "" {
		scene.SetLoggers(logger)
		w, err := wad.Open(*wadFile, zone.New(z))
		if err != nil {
			log.Fatalln(err)
		}
		defer w.Close()
		if *levels {
			for _, name := range w.LevelNames() {
				fmt.Println(name)
			}
			return
		}
		if err := writePatch(w, *patch, *out, *scale); err != nil {
			log.Fatalln(err)
		}
		return
	}

	s, err := scene.Load(scene.Config{WAD: *wadFile, Map: *mapName, Zone: z, Render: cfg, Logger: logger})
	if err != nil {
		log.Fatalln(err)
	}
	defer s.Close()
	if *tree {
		s.Map.PrintTree(os.Stdout)
	}

	if *walk != 0 || *turn != 0 {
		s.Move(*walk, 0, fixed.Ang1*fixed.Angle(*turn))
	}
	var scr *render.Screen
	if *overview {
		scr = render.NewScreen(s.Renderer.Screen().Width, s.Renderer.Screen().Height)
		s.DrawOverview(scr)
	} else {
		scr = s.Render(fixed.FracUnit)
	}
	if err := writePNG(*out, scr.Paletted(s.Renderer.Palette()), *scale); err != nil {
		log.Fatalln(err)
	}
	log.Printf("%v: wrote %v", s.Map.Name, *out)
}

// writePatch draws a patch on a screen of its own size, transparent pixels
// left black.
func writePatch(w *wad.WAD, name, out string, scale int) error {
	pals, err := w.ReadPalettes()
	if err != nil {
		return err
	}
	if len(pals) == 0 {
		return fmt.Errorf("no PLAYPAL")
	}
	num := w.CheckNumForName(name)
	if num < 0 {
		return fmt.Errorf("%v lump not found", name)
	}
	p := wad.Patch(w.CacheLumpNum(num, zone.Cache))
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%v: %w", name, err)
	}
	scr := render.NewScreen(p.Width(), p.Height())
	scr.DrawPatch(p.LeftOffset(), p.TopOffset(), 1, p)
	return writePNG(out, scr.Paletted(&pals[0]), scale)
}

func writePNG(name string, img *image.Paletted, scale int) error {
	var dst image.Image = img
	if scale > 1 {
		b := img.Bounds()
		rgba := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		xdraw.NearestNeighbor.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
		dst = rgba
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
