package fixed

import "testing"

func TestMul(t *testing.T) {
	tests := []struct {
		a, b, want Fixed
	}{
		{FracUnit, FracUnit, FracUnit},
		{2 * FracUnit, 3 * FracUnit, 6 * FracUnit},
		{FracUnit / 2, FracUnit / 2, FracUnit / 4},
		{-FracUnit, 5 * FracUnit, -5 * FracUnit},
		{-1, 1, -1},
	}
	for _, tt := range tests {
		if got := Mul(tt.a, tt.b); got != tt.want {
			t.Errorf("Mul(%#x, %#x) = %#x, want %#x", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDiv(t *testing.T) {
	tests := []struct {
		a, b, want Fixed
	}{
		{6 * FracUnit, 3 * FracUnit, 2 * FracUnit},
		{FracUnit, 4 * FracUnit, FracUnit / 4},
		{-FracUnit, 2 * FracUnit, -FracUnit / 2},
		{100 * FracUnit, 1, MaxInt},
		{-100 * FracUnit, 1, MinInt},
		{FracUnit, 0, MaxInt},
	}
	for _, tt := range tests {
		if got := Div(tt.a, tt.b); got != tt.want {
			t.Errorf("Div(%#x, %#x) = %#x, want %#x", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConversions(t *testing.T) {
	if FromInt(3) != 3*FracUnit {
		t.Error("FromInt(3)")
	}
	if FromInt(int16(-2)).Int() != -2 {
		t.Error("FromInt(-2).Int()")
	}
	if FromFloat(0.5) != FracUnit/2 {
		t.Error("FromFloat(0.5)")
	}
	if (-FracUnit / 2).Int() != -1 {
		t.Error("Int must floor")
	}
	if Abs(Fixed(-7)) != 7 || Abs(7) != 7 {
		t.Error("Abs")
	}
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("Clamp")
	}
}

func TestFineTables(t *testing.T) {
	if FineSine[0] != 25 {
		t.Errorf("FineSine[0] = %d, want 25", FineSine[0])
	}
	if Sin(Ang90) < FracUnit-1 || Sin(Ang90) > FracUnit {
		t.Errorf("Sin(90) = %#x", Sin(Ang90))
	}
	for _, a := range []Angle{0, Ang45, Ang90, Ang180, Ang270, 12345678} {
		s, c := Sin(a).Float(), Cos(a).Float()
		if d := s*s + c*c; d < 0.999 || d > 1.001 {
			t.Errorf("sin²+cos² at %#x = %f", a, d)
		}
	}
	if len(FineCosine) != FineAngles {
		t.Errorf("len(FineCosine) = %d", len(FineCosine))
	}
	if FineTangent[FineAngles/4] <= 0 || FineTangent[FineAngles/4-1] >= 0 {
		t.Error("FineTangent must change sign at its midpoint")
	}
	for i := 1; i < len(FineTangent); i++ {
		if FineTangent[i] <= FineTangent[i-1] {
			t.Fatalf("FineTangent not increasing at %d", i)
		}
	}
	if TanToAngle[0] != 0 || Ang45-TanToAngle[SlopeRange] > 1 {
		t.Errorf("TanToAngle ends = %#x, %#x", TanToAngle[0], TanToAngle[SlopeRange])
	}
}

func TestFineTableEntries(t *testing.T) {
	tests := []struct {
		name  string
		table []Fixed
		want  []Fixed
	}{
		{"FineSine", FineSine[:4], []Fixed{25, 75, 125, 175}},
		{"FineTangent", FineTangent[:4], []Fixed{-170910304, -56965752, -34178904, -24413316}},
		{"FineTangent mid", FineTangent[FineAngles/4-2 : FineAngles/4+2], []Fixed{-75, -25, 25, 75}},
		{"FineTangent end", FineTangent[FineAngles/2-1:], []Fixed{170910304}},
	}
	for _, tt := range tests {
		for i, v := range tt.want {
			if tt.table[i] != v {
				t.Errorf("%s[%d] = %d, want %d", tt.name, i, tt.table[i], v)
			}
		}
	}
	for i, want := range []Angle{0, 333772, 667544, 1001315, 1335086} {
		if TanToAngle[i] != want {
			t.Errorf("TanToAngle[%d] = %d, want %d", i, TanToAngle[i], want)
		}
	}
	if TanToAngle[SlopeRange] != Ang45 {
		t.Errorf("TanToAngle[%d] = %#x", SlopeRange, TanToAngle[SlopeRange])
	}
}

func TestSlopeDiv(t *testing.T) {
	if SlopeDiv(100, 10) != SlopeRange {
		t.Error("small denominator must saturate")
	}
	if got := SlopeDiv(1<<20, 1<<20); got != SlopeRange {
		t.Errorf("SlopeDiv(1, 1) = %d", got)
	}
	if got := SlopeDiv(1<<19, 1<<20); got != SlopeRange/2 {
		t.Errorf("SlopeDiv(1/2) = %d", got)
	}
}

func TestZoomRoundTrip(t *testing.T) {
	for mtof := FracUnit / 16; mtof <= 10*FracUnit; mtof += 0x1357 {
		z := NewZoom(mtof)
		for px := 0; px <= 320; px++ {
			got := z.MapToFrame(z.FrameToMap(px))
			if d := got - px; d < -1 || d > 0 {
				t.Fatalf("mtof %#x: %d px round-trips to %d", mtof, px, got)
			}
		}
	}
}

func TestZoomScale(t *testing.T) {
	z := NewZoom(FracUnit)
	z.Scale(2 * FracUnit)
	if z.MToF != 2*FracUnit || z.FToM != FracUnit/2 {
		t.Errorf("zoom = %+v", z)
	}
	if z.MapToFrame(10*FracUnit) != 20 {
		t.Errorf("MapToFrame = %d", z.MapToFrame(10*FracUnit))
	}
}
