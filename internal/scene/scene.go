// Package scene loads a level into a renderer and places a player at its
// start, for the commands.
package scene

import (
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/render"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

// Eye height above the floor, in map units
const viewHeight = 41

const playerStart = 1

// thingSprite is the sprite and frame a thing type is shown with.
type thingSprite struct {
	sprite string
	frame  int
	flags  render.MobjFlags
}

// thingSprites covers the common decorations, pickups and monsters in
// their spawn frames.
var thingSprites = map[int]thingSprite{
	playerStart: {sprite: "PLAY"},
	3004:        {sprite: "POSS"},
	9:           {sprite: "SPOS"},
	3001:        {sprite: "TROO"},
	3002:        {sprite: "SARG"},
	58:          {sprite: "SARG", flags: render.MFShadow},
	3006:        {sprite: "SKUL", frame: render.FrameFullBright},
	3005:        {sprite: "HEAD"},
	3003:        {sprite: "BOSS"},
	2035:        {sprite: "BAR1"},
	2028:        {sprite: "COLU", frame: render.FrameFullBright},
	48:          {sprite: "ELEC"},
	34:          {sprite: "CAND", frame: render.FrameFullBright},
	2011:        {sprite: "STIM"},
	2012:        {sprite: "MEDI"},
	2014:        {sprite: "BON1"},
	2015:        {sprite: "BON2"},
	2024:        {sprite: "PINS", frame: render.FrameFullBright, flags: render.MFShadow},
	2001:        {sprite: "SHOT"},
	2007:        {sprite: "CLIP"},
	2048:        {sprite: "AMMO"},
	5:           {sprite: "BKEY"},
	6:           {sprite: "YKEY"},
	13:          {sprite: "RKEY"},
}

// Config selects the WAD, map and settings a scene is built with.
type Config struct {
	WAD    string
	Map    string // first level when empty
	Zone   zone.Config
	Render render.Config
	Logger *log.Logger // nil to discard
}

// Scene is a loaded level with the player standing at its start.
type Scene struct {
	WAD      *wad.WAD
	Zone     zone.Allocator
	Renderer *render.Renderer
	Map      *wad.Map
	Level    *render.Level
	Player   *render.Player
	Things   []*render.Mobj

	levelTime int
}

// SetLoggers points every package logger at l.
func SetLoggers(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	zone.SetLogger(l)
	wad.SetLogger(l)
	render.SetLogger(l)
}

// Load opens the WAD, builds the renderer and spawns the player and the
// single player things of the map.
func Load(cfg Config) (*Scene, error) {
	SetLoggers(cfg.Logger)
	z := zone.New(cfg.Zone)
	w, err := wad.Open(cfg.WAD, z)
	if err != nil {
		return nil, err
	}
	names, err := w.SpriteNames()
	if err != nil {
		return nil, err
	}
	r, err := render.New(w, z, cfg.Render, names)
	if err != nil {
		return nil, err
	}

	mapName := cfg.Map
	if mapName == "" {
		levels := w.LevelNames()
		if len(levels) == 0 {
			return nil, fmt.Errorf("%v has no levels", cfg.WAD)
		}
		mapName = levels[0]
	}
	m, err := w.ReadMap(mapName)
	if err != nil {
		return nil, err
	}
	lev, err := r.LoadLevel(m)
	if err != nil {
		return nil, err
	}

	s := &Scene{WAD: w, Zone: z, Renderer: r, Map: m, Level: lev}
	if err := s.spawnThings(names); err != nil {
		return nil, err
	}
	return s, nil
}

// SpawnAngle converts a map thing angle in degrees to the 45 degree steps
// things face.
func SpawnAngle(degrees int) fixed.Angle {
	return fixed.Ang45 * fixed.Angle(degrees/45)
}

func (s *Scene) spawnThings(names []string) error {
	for i := range s.Map.Things {
		mt := &s.Map.Things[i]
		if mt.MultiplayerOnly() || (!mt.Skill4and5() && mt.Type != playerStart) {
			continue
		}
		ts, ok := thingSprites[mt.Type]
		if !ok {
			continue
		}
		mo := &render.Mobj{
			X:     fixed.FromInt(mt.X),
			Y:     fixed.FromInt(mt.Y),
			Angle: SpawnAngle(mt.Angle),
			Frame: ts.frame,
			Flags: ts.flags,
		}
		mo.Sprite = slices.Index(names, ts.sprite)
		if mo.Sprite < 0 {
			continue
		}
		mo.Z = s.Level.PointInSubsector(mo.X, mo.Y).Sector.FloorHeight
		mo.OldX, mo.OldY, mo.OldZ, mo.OldAngle = mo.X, mo.Y, mo.Z, mo.Angle
		s.Level.LinkThing(mo)
		s.Things = append(s.Things, mo)

		if mt.Type == playerStart && s.Player == nil {
			s.Player = &render.Player{Mo: mo}
			if pistol := slices.Index(names, "PISG"); pistol >= 0 {
				s.Player.PSprites[0] = render.PSprite{Active: true, Sprite: pistol, SX: fixed.FracUnit, SY: fixed.FromInt(32)}
			}
		}
	}
	if s.Player == nil {
		return fmt.Errorf("%v has no player 1 start", s.Map.Name)
	}
	s.Player.ViewZ = s.Player.Mo.Z + fixed.FromInt(viewHeight)
	s.Player.OldViewZ = s.Player.ViewZ
	return nil
}

// Move walks the player forward and sideways by map units and turns it,
// as one game tic.
func (s *Scene) Move(forward, side int, turn fixed.Angle) {
	mo := s.Player.Mo
	angle := mo.Angle + turn
	x := mo.X + fixed.Fixed(forward)*fixed.Cos(angle) + fixed.Fixed(side)*fixed.Cos(angle-fixed.Ang90)
	y := mo.Y + fixed.Fixed(forward)*fixed.Sin(angle) + fixed.Fixed(side)*fixed.Sin(angle-fixed.Ang90)
	z := s.Level.PointInSubsector(x, y).Sector.FloorHeight
	s.Level.MoveThing(mo, x, y, z, angle)
	s.Player.OldViewZ = s.Player.ViewZ
	s.Player.ViewZ = z + fixed.FromInt(viewHeight)
	s.levelTime++
	s.Renderer.Tick()
}

// Close releases the WAD file.
func (s *Scene) Close() error {
	return s.WAD.Close()
}

// Render draws the player's view, frac of the way into the next tic.
func (s *Scene) Render(frac fixed.Fixed) *render.Screen {
	s.Renderer.RenderPlayerView(s.Player, render.FrameTime{LevelTime: s.levelTime, FracTic: frac})
	return s.Renderer.Screen()
}
