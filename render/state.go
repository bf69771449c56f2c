package render

import "github.com/stuarthighley/wadrender/fixed"

// MobjFlags are the map object flags the renderer looks at.
type MobjFlags uint32

const (
	MFShadow      MobjFlags = 0x40000   // drawn with the fuzz effect
	MFTranslation MobjFlags = 0xc000000 // player color remap, 0 is none
	MFTransShift            = 26
	MFTranslucent MobjFlags = 0x80000000
)

// Frame bits.
const (
	FrameFullBright = 0x8000
	FrameMask       = 0x7fff
)

// Mobj is a map object as the renderer sees it. Game logic owns it and
// moves it between tics.
type Mobj struct {
	X, Y, Z          fixed.Fixed
	Angle            fixed.Angle
	OldX, OldY, OldZ fixed.Fixed // position at the previous tic
	OldAngle         fixed.Angle
	Interp           bool // false after a teleport or spawn

	Sprite int // index into the sprite names given to New
	Frame  int // frame number, FrameFullBright for unlit frames
	Flags  MobjFlags

	sector *Sector
}

const (
	psWeapon = iota
	psFlash
	NumPSprites
)

// PSprite is a weapon or muzzle flash overlay.
type PSprite struct {
	Active bool
	Sprite int
	Frame  int
	SX, SY fixed.Fixed
}

// Player is the viewpoint for a frame.
type Player struct {
	Mo              *Mobj
	ViewZ           fixed.Fixed
	OldViewZ        fixed.Fixed
	LookDir         int // mouse look, MLookUnit per pitch step
	OldLookDir      int
	ExtraLight      int // gun flash
	FixedColormap   int // 0 for sector lighting, else a COLORMAP number
	Invisibility    int // tics of partial invisibility left
	ViewAngleOffset fixed.Angle
	PSprites        [NumPSprites]PSprite
}

// FrameTime places a frame between game tics.
type FrameTime struct {
	LevelTime int         // tics since the level started
	FracTic   fixed.Fixed // fraction of the next tic elapsed
	Paused    bool
}
