package render

import (
	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/zone"
)

const (
	maxLightScale   = 48
	lightScaleShift = 12
	numColormaps    = 32
	distMap         = 2
)

// lightMode sets how finely sector light levels and distance are quantized.
type lightMode struct {
	levels   int // light levels after shifting sector light
	segShift int
	bright   int // light level step for extra light and fake contrast
	maxZ     int
	zShift   int
}

var (
	normalLight = lightMode{levels: 16, segShift: 4, bright: 1, maxZ: 128, zShift: 20}
	smoothLight = lightMode{levels: 32, segShift: 3, bright: 2, maxZ: 1024, zShift: 17}
)

// lightTables hold colormap numbers. Planes pick a map from zlight by
// distance, walls and sprites from scalelight by scale.
type lightTables struct {
	lightMode
	zlight     []byte // [level*maxZ+z]
	scalelight []byte // [level*maxLightScale+scale]
	hires      int    // scales grow with screen resolution
}

func startMap(m lightMode, level int) int {
	return ((m.levels - m.bright - level) * 2) * numColormaps / m.levels
}

// init rebuilds the distance table for the chosen light mode.
func (l *lightTables) init(z zone.Allocator, smooth bool) {
	if l.zlight != nil {
		z.Free(l.zlight)
		z.Free(l.scalelight)
		l.scalelight = nil
	}
	l.lightMode = normalLight
	if smooth {
		l.lightMode = smoothLight
	}
	l.zlight = z.Malloc(l.levels*l.maxZ, zone.Static, nil)
	for i := 0; i < l.levels; i++ {
		start := startMap(l.lightMode, i)
		for j := 0; j < l.maxZ; j++ {
			scale := fixed.Div(fixed.FromInt(origWidth/2), fixed.Fixed(j+1)<<l.zShift)
			scale >>= lightScaleShift
			level := fixed.Clamp(start-int(scale)/distMap, 0, numColormaps-1)
			l.zlight[i*l.maxZ+j] = byte(level)
		}
	}
}

// setScale rebuilds the scale table for a view of scaledWidth columns on a
// screen screenWidth wide.
func (l *lightTables) setScale(z zone.Allocator, screenWidth, scaledWidth int) {
	if l.scalelight == nil {
		l.scalelight = z.Malloc(l.levels*maxLightScale, zone.Static, nil)
	}
	l.hires = 0
	for w := screenWidth; w > origWidth; w >>= 1 {
		l.hires++
	}
	for i := 0; i < l.levels; i++ {
		start := startMap(l.lightMode, i)
		for j := 0; j < maxLightScale; j++ {
			level := start - j*screenWidth/scaledWidth/distMap
			l.scalelight[i*maxLightScale+j] = byte(fixed.Clamp(level, 0, numColormaps-1))
		}
	}
}

// level converts a sector light level to a table row, adding the player's
// extra light.
func (l *lightTables) level(sectorLight, extraLight int) int {
	return fixed.Clamp(sectorLight>>l.segShift+extraLight*l.bright, 0, l.levels-1)
}

// scaleMap returns the colormap number for a wall or sprite scale.
func (l *lightTables) scaleMap(level int, scale fixed.Fixed) int {
	index := min(int(scale>>(lightScaleShift+l.hires)), maxLightScale-1)
	return int(l.scalelight[level*maxLightScale+index])
}

func (l *lightTables) zMap(level int, distance fixed.Fixed) int {
	index := min(int(distance>>l.zShift), l.maxZ-1)
	return int(l.zlight[level*l.maxZ+index])
}

// wallLevel is level for a seg, one step darker for lines along the x axis
// and lighter along the y axis.
func (l *lightTables) wallLevel(sectorLight, extraLight int, seg *Seg) int {
	n := sectorLight>>l.segShift + extraLight*l.bright
	if seg.V1.Y == seg.V2.Y {
		n -= l.bright
	} else if seg.V1.X == seg.V2.X {
		n += l.bright
	}
	return fixed.Clamp(n, 0, l.levels-1)
}
