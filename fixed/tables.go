package fixed

// Angle is a binary angle: the full circle maps onto the range of a uint32,
// so wrap-around is free.
type Angle uint32

const (
	Ang45  Angle = 0x20000000
	Ang90  Angle = 0x40000000
	Ang180 Angle = 0x80000000
	Ang270 Angle = 0xc0000000
	AngMax Angle = 0xffffffff

	Ang1 = Ang45 / 45
	Ang5 = Ang45 / 9
)

const (
	FineAngles       = 8192
	FineMask         = FineAngles - 1
	AngleToFineShift = 19

	SlopeRange = 2048
	SlopeBits  = 11
	DBits      = FracBits - SlopeBits
)

// Fine returns the fine table index of a.
func (a Angle) Fine() int {
	return int(a >> AngleToFineShift)
}

// Sin and Cos look an angle up in the fine tables.
func Sin(a Angle) Fixed { return FineSine[a.Fine()] }
func Cos(a Angle) Fixed { return FineCosine[a.Fine()] }

// SlopeDiv returns num/den scaled to a TanToAngle index.
func SlopeDiv(num, den uint32) int {
	if den < 512 {
		return SlopeRange
	}
	ans := (num << 3) / (den >> 8)
	if ans <= SlopeRange {
		return int(ans)
	}
	return SlopeRange
}
