package render

import (
	"github.com/stuarthighley/wadrender/fixed"
)

const (
	fieldOfView = 2048 // fine angles across the view

	// Pitch range in look steps, and LookDir units per step
	lookDirMin = 110
	lookDirMax = 90
	lookDirs   = lookDirMin + 1 + lookDirMax
	MLookUnit  = 8
)

// view holds the camera for the current frame and everything derived from
// the view size.
type view struct {
	x, y, z       fixed.Fixed
	angle         fixed.Angle
	sin, cos      fixed.Fixed
	extraLight    int
	fixedColormap []byte // nil for sector lighting
	pitch         int
	angleOffset   fixed.Angle

	width, height    int // in drawn columns; half the screen columns in low detail
	scaledWidth      int
	windowX, windowY int
	detailShift      int
	blocks           int
	centerX, centerY int
	centerXFrac      fixed.Fixed
	centerYFrac      fixed.Fixed
	projection       fixed.Fixed
	pspriteScale     fixed.Fixed
	pspriteIScale    fixed.Fixed

	viewAngleToX [fixed.FineAngles / 2]int
	xToViewAngle []fixed.Angle
	clipAngle    fixed.Angle

	screenHeightArray []int16
	negOneArray       []int16
	yslopes           [lookDirs][]fixed.Fixed
	yslope            []fixed.Fixed
	distScale         []fixed.Fixed
}

// SetViewSize schedules a change of screen size and detail, applied before
// the next frame is drawn.
func (r *Renderer) SetViewSize(blocks, detail int) {
	r.setSizeNeeded = true
	r.setBlocks = fixed.Clamp(blocks, 3, 11)
	r.setDetail = fixed.Clamp(detail, 0, 1)
}

// SetSmoothLight switches between 16 and 32 light levels.
func (r *Renderer) SetSmoothLight(smooth bool) {
	r.cfg.SmoothLight = smooth
	r.light.init(r.zone, smooth)
	r.setSizeNeeded = true
}

func (r *Renderer) executeSetViewSize() {
	v := &r.view
	r.setSizeNeeded = false
	v.blocks = r.setBlocks
	if v.blocks == 11 {
		v.scaledWidth = r.screen.Width
		v.height = r.screen.Height
	} else {
		v.scaledWidth = (v.blocks * 32) << r.hires
		v.height = ((v.blocks * 168 / 10) &^ 7) << r.hires
	}
	v.detailShift = r.setDetail
	v.width = v.scaledWidth >> v.detailShift

	v.centerY = v.height / 2
	v.centerX = v.width / 2
	v.centerXFrac = fixed.FromInt(v.centerX)
	v.centerYFrac = fixed.FromInt(v.centerY)
	v.projection = v.centerXFrac

	r.initBuffer()
	r.initTextureMapping()

	// Psprite scales
	v.pspriteScale = fixed.FracUnit * fixed.Fixed(v.width) / origWidth
	v.pspriteIScale = fixed.FracUnit * origWidth / fixed.Fixed(v.width)

	// Thing clipping
	v.screenHeightArray = make([]int16, v.width)
	v.negOneArray = make([]int16, v.width)
	for i := 0; i < v.width; i++ {
		v.screenHeightArray[i] = int16(v.height)
		v.negOneArray[i] = -1
	}

	// Planes, one slope table per look direction
	num := fixed.FromInt(v.scaledWidth / 2)
	for j := range v.yslopes {
		center := v.height/2 + ((j-lookDirMin)<<r.hires)*min(v.blocks, 11)/10
		slopes := make([]fixed.Fixed, v.height)
		for i := range slopes {
			dy := fixed.FromInt(i-center) + fixed.FracUnit/2
			slopes[i] = fixed.Div(num, fixed.Abs(dy))
		}
		v.yslopes[j] = slopes
	}
	v.yslope = v.yslopes[lookDirMin]
	v.distScale = make([]fixed.Fixed, v.width)
	for i := range v.distScale {
		cosadj := fixed.Abs(fixed.Cos(v.xToViewAngle[i]))
		v.distScale[i] = fixed.Div(fixed.FracUnit, cosadj)
	}

	r.light.setScale(r.zone, r.screen.Width, v.scaledWidth)
	r.planes.resize(v.width, v.height)
	r.things.resize(v.width)
	r.fillBackScreen()
	logger.Printf("View size %dx%d at %d,%d, detail %d", v.scaledWidth, v.height, v.windowX, v.windowY, v.detailShift)
}

// initBuffer centers the view window above the status bar.
func (r *Renderer) initBuffer() {
	v := &r.view
	v.windowX = (r.screen.Width - v.scaledWidth) >> 1
	if v.scaledWidth == r.screen.Width {
		v.windowY = 0
	} else {
		v.windowY = (r.screen.Height - sbarHeight<<r.hires - v.height) >> 1
	}
	r.draw.setWindow(r.screen, v.scaledWidth, v.height, v.windowX, v.windowY, v.detailShift == 1)
	r.draw.centerY = v.centerY
}

// initTextureMapping maps view angles to screen columns and back.
func (r *Renderer) initTextureMapping() {
	v := &r.view

	// Use tangent table to generate viewangletox
	focalLength := fixed.Div(v.centerXFrac, fixed.FineTangent[fixed.FineAngles/4+fieldOfView/2])
	for i := range v.viewAngleToX {
		var t int
		switch {
		case fixed.FineTangent[i] > fixed.FracUnit*2:
			t = -1
		case fixed.FineTangent[i] < -fixed.FracUnit*2:
			t = v.width + 1
		default:
			t = int((v.centerXFrac - fixed.Mul(fixed.FineTangent[i], focalLength) + fixed.FracUnit - 1) >> fixed.FracBits)
			t = fixed.Clamp(t, -1, v.width+1)
		}
		v.viewAngleToX[i] = t
	}

	// Scan viewangletox to generate xtoviewangle, the smallest view angle
	// that maps to x
	v.xToViewAngle = make([]fixed.Angle, v.width+1)
	for x := range v.xToViewAngle {
		i := 0
		for v.viewAngleToX[i] > x {
			i++
		}
		v.xToViewAngle[x] = fixed.Angle(i)<<fixed.AngleToFineShift - fixed.Ang90
	}

	// Take out the fencepost cases from viewangletox
	for i, t := range v.viewAngleToX {
		if t == -1 {
			v.viewAngleToX[i] = 0
		} else if t == v.width+1 {
			v.viewAngleToX[i] = v.width
		}
	}
	v.clipAngle = v.xToViewAngle[0]
}

// setupFrame places the camera for this frame, interpolating between the
// last two tics when uncapped.
func (r *Renderer) setupFrame(player *Player) {
	v := &r.view
	mo := player.Mo
	var pitch int
	if r.interpolating() && mo.Interp {
		frac := r.frame.FracTic
		v.x = mo.OldX + fixed.Mul(mo.X-mo.OldX, frac)
		v.y = mo.OldY + fixed.Mul(mo.Y-mo.OldY, frac)
		v.z = player.OldViewZ + fixed.Mul(player.ViewZ-player.OldViewZ, frac)
		v.angle = interpolateAngle(mo.OldAngle, mo.Angle, frac) + player.ViewAngleOffset
		pitch = int(float64(player.OldLookDir)+float64(player.LookDir-player.OldLookDir)*frac.Float()) / MLookUnit
	} else {
		v.x, v.y, v.z = mo.X, mo.Y, player.ViewZ
		v.angle = mo.Angle + player.ViewAngleOffset
		pitch = player.LookDir / MLookUnit
	}
	v.angleOffset = player.ViewAngleOffset
	v.extraLight = player.ExtraLight

	v.pitch = fixed.Clamp(pitch, -lookDirMin, lookDirMax)
	centerY := v.height/2 + (v.pitch<<r.hires)*min(v.blocks, 11)/10
	if centerY != v.centerY {
		v.centerY = centerY
		v.centerYFrac = fixed.FromInt(centerY)
		v.yslope = v.yslopes[lookDirMin+v.pitch]
		r.draw.centerY = centerY
	}

	v.sin = fixed.Sin(v.angle)
	v.cos = fixed.Cos(v.angle)

	if player.FixedColormap != 0 {
		v.fixedColormap = r.data.colormap(player.FixedColormap)
	} else {
		v.fixedColormap = nil
	}
	r.validCount++
}

// interpolateAngle turns from old to new by frac, the short way round.
func interpolateAngle(old, new fixed.Angle, frac fixed.Fixed) fixed.Angle {
	f := frac.Float()
	switch {
	case new == old:
		return new
	case new > old:
		if new-old < fixed.Ang270 {
			return old + fixed.Angle(float64(new-old)*f)
		}
		// Wrapped around
		return old - fixed.Angle(float64(old-new)*f)
	default:
		if old-new < fixed.Ang270 {
			return old - fixed.Angle(float64(old-new)*f)
		}
		return old + fixed.Angle(float64(new-old)*f)
	}
}
