package render

import (
	"fmt"
	"strings"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

const (
	maxSpriteFrames = 29
	numRotations    = 16
)

// spriteFrame is one animation frame of a sprite. Rotation slots run
// clockwise in 22.5 degree steps starting from the front; eight rotation
// sprites fill the odd slots from the slot before.
type spriteFrame struct {
	rotate bool
	lump   [numRotations]int // index into spriteData.lumps
	flip   [numRotations]bool
}

type spriteDef struct {
	frames []spriteFrame
}

// spriteData holds every sprite definition and the metrics of each sprite
// lump, measured once so projection never touches the patches.
type spriteData struct {
	defs      []spriteDef
	lumps     []int // WAD lump numbers
	width     []fixed.Fixed
	offset    []fixed.Fixed
	topOffset []fixed.Fixed
}

// initSprites builds the definitions for names, in order, from the lumps
// between S_START and S_END. Names with no lumps get no frames.
func (r *Renderer) initSprites(names []string) error {
	w := r.wad
	lumps, err := w.SpriteLumps()
	if err != nil {
		return err
	}
	s := &r.sprites
	s.lumps = lumps
	s.width = make([]fixed.Fixed, len(lumps))
	s.offset = make([]fixed.Fixed, len(lumps))
	s.topOffset = make([]fixed.Fixed, len(lumps))
	for i, lump := range lumps {
		patch := wad.Patch(w.CacheLumpNum(lump, zone.Cache))
		if err := patch.Validate(); err != nil {
			return fmt.Errorf("sprite %v: %w", w.LumpName(lump), err)
		}
		s.width[i] = fixed.FromInt(patch.Width())
		s.offset[i] = fixed.FromInt(patch.LeftOffset())
		s.topOffset[i] = fixed.FromInt(patch.TopOffset())
	}

	s.defs = make([]spriteDef, len(names))
	for i, name := range names {
		def, err := s.buildDef(w, strings.ToUpper(name))
		if err != nil {
			return err
		}
		s.defs[i] = def
	}
	logger.Printf("Loaded %d sprites from %d lumps", len(names), len(lumps))
	return nil
}

// rotationSet tracks which slots of a frame are filled while installing.
type rotationSet struct {
	frame  spriteFrame
	state  int // -1 unset, 0 single, 1 rotated
	filled [numRotations]bool
}

func (s *spriteData) buildDef(w *wad.WAD, name string) (spriteDef, error) {
	var temp [maxSpriteFrames]rotationSet
	for i := range temp {
		temp[i].state = -1
	}
	maxFrame := -1

	// Later lumps take priority so PWADs can replace single rotations
	for i := len(s.lumps) - 1; i >= 0; i-- {
		lumpName := w.LumpName(s.lumps[i])
		if len(lumpName) < 6 || lumpName[:4] != name {
			continue
		}
		if err := install(&temp, &maxFrame, i, lumpName, lumpName[4], lumpName[5], false); err != nil {
			return spriteDef{}, err
		}
		if len(lumpName) >= 8 {
			if err := install(&temp, &maxFrame, i, lumpName, lumpName[6], lumpName[7], true); err != nil {
				return spriteDef{}, err
			}
		}
	}
	if maxFrame < 0 {
		return spriteDef{}, nil
	}

	def := spriteDef{frames: make([]spriteFrame, maxFrame+1)}
	for f := range def.frames {
		t := &temp[f]
		switch t.state {
		case -1:
			// No rotations were found for that frame at all
			return spriteDef{}, fmt.Errorf("sprite %v: no patches for frame %c", name, 'A'+f)
		case 1:
			for rot := 0; rot < numRotations; rot += 2 {
				if !t.filled[rot] {
					return spriteDef{}, fmt.Errorf("sprite %v frame %c is missing rotations", name, 'A'+f)
				}
				if !t.filled[rot+1] {
					t.frame.lump[rot+1] = t.frame.lump[rot]
					t.frame.flip[rot+1] = t.frame.flip[rot]
				}
			}
		}
		def.frames[f] = t.frame
	}
	return def, nil
}

// rotationSlot maps a rotation character to its slot, or -1 for the
// single rotation '0'.
func rotationSlot(ch byte) (int, bool) {
	var rot int
	switch {
	case ch >= '0' && ch <= '9':
		rot = int(ch - '0')
	case ch >= 'A' && ch <= 'G':
		rot = int(ch-'A') + 10
	default:
		return 0, false
	}
	switch {
	case rot == 0:
		return -1, true
	case rot <= 8:
		return (rot - 1) * 2, true
	default:
		return (rot-9)*2 + 1, true
	}
}

func install(temp *[maxSpriteFrames]rotationSet, maxFrame *int, lump int, lumpName string, frameCh, rotCh byte, flipped bool) error {
	frame := int(frameCh) - 'A'
	slot, ok := rotationSlot(rotCh)
	if frame < 0 || frame >= maxSpriteFrames || !ok {
		return fmt.Errorf("bad sprite lump name %v", lumpName)
	}
	*maxFrame = max(*maxFrame, frame)
	t := &temp[frame]

	if slot < 0 {
		// The lump should be used for all rotations
		if t.state != -1 {
			return nil
		}
		t.state = 0
		t.frame.rotate = false
		for r := 0; r < numRotations; r++ {
			t.frame.lump[r] = lump
			t.frame.flip[r] = flipped
			t.filled[r] = true
		}
		return nil
	}

	// The lump is only used for one rotation
	if t.state == 0 || t.filled[slot] {
		return nil
	}
	t.state = 1
	t.frame.rotate = true
	t.frame.lump[slot] = lump
	t.frame.flip[slot] = flipped
	t.filled[slot] = true
	return nil
}

// patch returns the cached patch of sprite lump i.
func (s *spriteData) patch(w *wad.WAD, i int) wad.Patch {
	return wad.Patch(w.CacheLumpNum(s.lumps[i], zone.Cache))
}
