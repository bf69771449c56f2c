package fixed

// Zoom converts between map units and frame pixels at a given scale, the way
// the automap and view-size code do.
type Zoom struct {
	MToF Fixed // frame pixels per map unit
	FToM Fixed // map units per frame pixel
}

// NewZoom returns a zoom for the given map-to-frame scale.
func NewZoom(mtof Fixed) Zoom {
	return Zoom{MToF: mtof, FToM: Div(FracUnit, mtof)}
}

// Scale multiplies the zoom by factor and recomputes the inverse.
func (z *Zoom) Scale(factor Fixed) {
	z.MToF = Mul(z.MToF, factor)
	z.FToM = Div(FracUnit, z.MToF)
}

// MapToFrame converts a map distance to whole frame pixels.
func (z Zoom) MapToFrame(m Fixed) int {
	return int(Mul(m, z.MToF) >> FracBits)
}

// FrameToMap converts a pixel distance to map units.
func (z Zoom) FrameToMap(px int) Fixed {
	return Mul(FromInt(px), z.FToM)
}
