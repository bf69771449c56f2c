package render

import (
	"testing"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/zone"
)

type storedRanges [][2]int

func (s *storedRanges) store(first, last int) {
	*s = append(*s, [2]int{first, last})
}

func equalRanges(a, b [][2]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClipSolid(t *testing.T) {
	segs := []clipRange{{-0x7fffffff, -1}, {320, 0x7fffffff}}
	var stored storedRanges

	segs = clipSolid(segs, 10, 20, stored.store)
	segs = clipSolid(segs, 40, 50, stored.store)
	if !equalRanges(stored, [][2]int{{10, 20}, {40, 50}}) || len(segs) != 4 {
		t.Fatalf("stored %v, segs %v", stored, segs)
	}

	// Bridging both posts stores only the gaps and merges them
	stored = nil
	segs = clipSolid(segs, 5, 60, stored.store)
	if !equalRanges(stored, [][2]int{{5, 9}, {21, 39}, {51, 60}}) {
		t.Errorf("stored %v", stored)
	}
	if len(segs) != 3 || segs[1] != (clipRange{5, 60}) {
		t.Errorf("segs %v", segs)
	}

	// Fully covered
	stored = nil
	segs = clipSolid(segs, 6, 59, stored.store)
	if len(stored) != 0 || len(segs) != 3 {
		t.Errorf("stored %v for a covered range", stored)
	}

	// Adjacent ranges merge
	segs = clipSolid(segs, 61, 70, stored.store)
	if len(segs) != 3 || segs[1] != (clipRange{5, 70}) {
		t.Errorf("segs %v", segs)
	}
}

func TestClipPass(t *testing.T) {
	segs := []clipRange{{-0x7fffffff, -1}, {10, 20}, {40, 50}, {320, 0x7fffffff}}
	var stored storedRanges
	clipPass(segs, 0, 45, stored.store)
	if !equalRanges(stored, [][2]int{{0, 9}, {21, 39}}) {
		t.Errorf("stored %v", stored)
	}
	if len(segs) != 4 || segs[1] != (clipRange{10, 20}) {
		t.Errorf("clipPass changed segs %v", segs)
	}
	stored = nil
	clipPass(segs, 45, 319, stored.store)
	if !equalRanges(stored, [][2]int{{51, 319}}) {
		t.Errorf("stored %v", stored)
	}
}

func TestPointOnSide(t *testing.T) {
	// Partition along +y through the origin; the right side is front
	node := &Node{DY: fixed.FromInt(64)}
	if PointOnSide(fixed.FromInt(10), 0, node) != 0 || PointOnSide(fixed.FromInt(-10), 0, node) != 1 {
		t.Error("vertical partition sides")
	}
	node = &Node{DX: fixed.FromInt(64), DY: fixed.FromInt(64)}
	if PointOnSide(fixed.FromInt(10), 0, node) != 0 || PointOnSide(0, fixed.FromInt(10), node) != 1 {
		t.Error("diagonal partition sides")
	}
}

func TestPointToAngle2(t *testing.T) {
	tests := []struct {
		x, y int
		want fixed.Angle
	}{
		{1, 0, 0},
		{1, 1, fixed.Ang45},
		{0, 1, fixed.Ang90},
		{-1, 0, fixed.Ang180},
		{0, -1, fixed.Ang270},
	}
	for _, tt := range tests {
		got := PointToAngle2(0, 0, fixed.FromInt(tt.x*100), fixed.FromInt(tt.y*100))
		if d := absAngle(got - tt.want); d > 1<<20 {
			t.Errorf("angle to %d,%d = %x, want %x", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestInterpolateAngle(t *testing.T) {
	half := fixed.FracUnit / 2
	tests := []struct {
		old, new, want fixed.Angle
	}{
		{0, fixed.Ang90, fixed.Ang45},
		{fixed.Ang90, 0, fixed.Ang45},
		// The short way through zero
		{fixed.Ang270 + fixed.Ang45, fixed.Ang45, 0},
		{fixed.Ang45, fixed.Ang270 + fixed.Ang45, 0},
	}
	for _, tt := range tests {
		if got := interpolateAngle(tt.old, tt.new, half); got != tt.want {
			t.Errorf("interpolateAngle(%x, %x) = %x, want %x", tt.old, tt.new, got, tt.want)
		}
	}
}

func TestLightLevels(t *testing.T) {
	z := zone.New(zone.Config{})
	var l lightTables
	l.init(z, false)
	l.setScale(z, origWidth, origWidth)
	if l.level(255, 0) != 15 || l.level(255, 5) != 15 || l.level(0, 0) != 0 || l.level(100, 2) != 8 {
		t.Error("normal light levels not clamped")
	}
	if l.zMap(15, fixed.MaxInt) < l.zMap(15, 0) {
		t.Error("distance must darken")
	}
	if m := l.scaleMap(0, 0); m != numColormaps-1 {
		t.Errorf("darkest far wall uses map %d", m)
	}
	if m := l.scaleMap(15, fixed.MaxInt); m != 0 {
		t.Errorf("brightest near wall uses map %d", m)
	}

	l.init(z, true)
	l.setScale(z, origWidth, origWidth)
	if l.level(255, 0) != 31 || l.level(255, 1) != 31 || l.level(64, 1) != 10 {
		t.Error("smooth light levels")
	}
	for _, m := range l.scalelight {
		if int(m) >= numColormaps {
			t.Fatalf("colormap %d out of range", m)
		}
	}
}

func TestWallLevel(t *testing.T) {
	var l lightTables
	l.lightMode = normalLight
	a, b, c := &Vertex{}, &Vertex{X: fixed.FromInt(64)}, &Vertex{Y: fixed.FromInt(64)}
	horizontal := &Seg{V1: a, V2: b}
	vertical := &Seg{V1: a, V2: c}
	diagonal := &Seg{V1: b, V2: c}
	if l.wallLevel(128, 0, horizontal) != 7 || l.wallLevel(128, 0, vertical) != 9 || l.wallLevel(128, 0, diagonal) != 8 {
		t.Error("fake contrast")
	}
	if l.wallLevel(0, 0, horizontal) != 0 || l.wallLevel(255, 0, vertical) != 15 {
		t.Error("fake contrast not clamped")
	}
}
