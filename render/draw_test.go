package render

import (
	"testing"

	"github.com/stuarthighley/wadrender/fixed"
)

// testColormaps maps color c to c+n in colormap n.
func testColormaps() []byte {
	cm := make([]byte, numColormaps*256+2*256)
	for i := range cm {
		cm[i] = byte(i%256 + i/256)
	}
	return cm
}

var noBrightmap = make([]byte, 256)

func newTestDrawer(width, height int, low bool) (*Drawer, *Screen) {
	screen := NewScreen(width, height)
	d := &Drawer{colormaps: testColormaps()}
	d.setWindow(screen, width, height, 0, 0, low)
	identity := d.colormaps[:256]
	d.Col.Colormap = [2][]byte{identity, identity}
	d.Col.Brightmap = noBrightmap
	d.Span.Colormap = d.Col.Colormap
	d.Span.Brightmap = noBrightmap
	return d, screen
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func columnOf(s *Screen, x int) []byte {
	col := make([]byte, s.Height)
	for y := range col {
		col[y] = s.Pix[y*s.Width+x]
	}
	return col
}

func TestColumnWrap(t *testing.T) {
	tests := []struct {
		name      string
		texHeight int
		src       []byte
		mid       fixed.Fixed
		step      fixed.Fixed
		centerY   int
		want      []byte
	}{
		{"three rows", 3, []byte{10, 20, 30}, 0, fixed.FracUnit, 0, []byte{10, 20, 30, 10, 20, 30}},
		{"negative start", 3, []byte{10, 20, 30}, 0, fixed.FracUnit, 4, []byte{30, 10, 20, 30, 10, 20}},
		{"step above height", 3, []byte{10, 20, 30}, 0, 7 * fixed.FracUnit, 0, []byte{10, 20, 30, 10, 20, 30}},
		{"power of two", 4, []byte{1, 2, 3, 4}, -fixed.FracUnit, fixed.FracUnit, 0, []byte{4, 1, 2, 3, 4, 1}},
		{"half step", 2, []byte{5, 6}, 0, fixed.FracUnit / 2, 0, []byte{5, 5, 6, 6, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, screen := newTestDrawer(4, 6, false)
			d.centerY = tt.centerY
			d.Col.X, d.Col.YL, d.Col.YH = 2, 0, 5
			d.Col.Source, d.Col.TexHeight = tt.src, tt.texHeight
			d.Col.TextureMid, d.Col.IScale = tt.mid, tt.step
			d.DrawColumn(ColumnSolid)
			if got := columnOf(screen, 2); string(got) != string(tt.want) {
				t.Errorf("column = %v, want %v", got, tt.want)
			}
			if got := columnOf(screen, 1); string(got) != string(make([]byte, 6)) {
				t.Errorf("neighbor column written: %v", got)
			}
		})
	}
}

func TestColumnBrightmap(t *testing.T) {
	d, screen := newTestDrawer(1, 2, false)
	bright := make([]byte, 256)
	bright[20] = 1
	d.Col.Colormap = [2][]byte{d.colormaps[5*256 : 6*256], d.colormaps[:256]}
	d.Col.Brightmap = bright
	d.Col.YL, d.Col.YH = 0, 1
	d.Col.Source, d.Col.TexHeight, d.Col.IScale = []byte{10, 20}, 2, fixed.FracUnit
	d.DrawColumn(ColumnSolid)
	if screen.Pix[0] != 15 || screen.Pix[1] != 20 {
		t.Errorf("pixels = %v, want lit 15 and fullbright 20", screen.Pix)
	}
}

func TestFuzzColumnRows(t *testing.T) {
	tests := []struct {
		yl, yh int
		rows   []int
	}{
		{0, 9, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{2, 5, []int{2, 3, 4, 5}},
		{0, 0, nil},
		{9, 9, nil},
		{8, 9, []int{8, 9}},
	}
	for _, tt := range tests {
		d, screen := newTestDrawer(3, 10, false)
		for i := range screen.Pix {
			screen.Pix[i] = 100
		}
		d.Col.X, d.Col.YL, d.Col.YH = 1, tt.yl, tt.yh
		d.DrawColumn(ColumnFuzz)

		var rows []int
		for y := 0; y < 10; y++ {
			if screen.Pix[y*3+1] != 100 {
				rows = append(rows, y)
			}
			if screen.Pix[y*3] != 100 || screen.Pix[y*3+2] != 100 {
				t.Errorf("%d..%d: wrote outside column at row %d", tt.yl, tt.yh, y)
			}
		}
		if len(rows) != len(tt.rows) {
			t.Errorf("%d..%d: wrote rows %v, want %v", tt.yl, tt.yh, rows, tt.rows)
			continue
		}
		for i := range rows {
			if rows[i] != tt.rows[i] {
				t.Errorf("%d..%d: wrote rows %v, want %v", tt.yl, tt.yh, rows, tt.rows)
				break
			}
		}
	}
}

func TestFuzzPosition(t *testing.T) {
	d, _ := newTestDrawer(2, 10, false)
	d.fuzzPos, d.fuzzPosTic = 5, 5
	d.SetFuzzPosTic()
	if d.fuzzPos != 6 || d.fuzzPosTic != 6 {
		t.Fatalf("tic did not advance a static position: %d %d", d.fuzzPos, d.fuzzPosTic)
	}
	d.Col.X, d.Col.YL, d.Col.YH = 0, 2, 5
	d.DrawColumn(ColumnFuzz)
	if d.fuzzPos != 10 {
		t.Fatalf("fuzz pos after 4 rows = %d", d.fuzzPos)
	}
	d.SetFuzzPosDraw()
	if d.fuzzPos != 6 {
		t.Errorf("draw did not rewind to tic position: %d", d.fuzzPos)
	}
	d.fuzzPos = 10
	d.SetFuzzPosTic()
	if d.fuzzPos != 10 || d.fuzzPosTic != 10 {
		t.Errorf("moving position must be captured as is: %d %d", d.fuzzPos, d.fuzzPosTic)
	}
	d.fuzzPos, d.fuzzPosTic = len(fuzzOffset)-1, len(fuzzOffset)-1
	d.SetFuzzPosTic()
	if d.fuzzPos != 0 {
		t.Errorf("fuzz pos must wrap, got %d", d.fuzzPos)
	}
}

func TestLowDetailMatchesHigh(t *testing.T) {
	src := []byte{3, 1, 4, 1, 5, 9, 2}
	setup := func(d *Drawer, x int) {
		d.centerY = 4
		d.Col.X, d.Col.YL, d.Col.YH = x, 0, 11
		d.Col.Source, d.Col.TexHeight = src, len(src)
		d.Col.TextureMid, d.Col.IScale = 3*fixed.FracUnit, 3*fixed.FracUnit/4
	}
	high, hs := newTestDrawer(8, 12, false)
	low, ls := newTestDrawer(8, 12, true)
	setup(high, 2)
	setup(low, 1)
	high.DrawColumn(ColumnSolid)
	low.DrawColumn(ColumnSolid)
	want := columnOf(hs, 2)
	if got := columnOf(ls, 2); string(got) != string(want) {
		t.Errorf("low detail left column %v, want %v", got, want)
	}
	if got := columnOf(ls, 3); string(got) != string(want) {
		t.Errorf("low detail right column %v, want %v", got, want)
	}
}

func TestTranslatedColumn(t *testing.T) {
	d, screen := newTestDrawer(1, 3, false)
	translation := make([]byte, 256)
	for i := range translation {
		translation[i] = byte(i + 1)
	}
	d.Col.YL, d.Col.YH = 0, 2
	d.Col.Source, d.Col.IScale = []byte{7, 8, 9}, fixed.FracUnit
	d.Col.Translation = translation
	d.DrawColumn(ColumnTranslated)
	if string(screen.Pix) != string([]byte{8, 9, 10}) {
		t.Errorf("translated = %v", screen.Pix)
	}
}

func TestTranslucentColumn(t *testing.T) {
	d, screen := newTestDrawer(2, 2, true)
	d.tranmap = make([]byte, 256*256)
	for i := range d.tranmap {
		d.tranmap[i] = byte(i>>8) ^ byte(i)
	}
	copy(screen.Pix, []byte{1, 2, 3, 4})
	d.Col.YL, d.Col.YH = 0, 1
	d.Col.Source, d.Col.IScale = []byte{16, 32}, fixed.FracUnit
	d.DrawColumn(ColumnTranslucent)
	want := []byte{1 ^ 16, 2 ^ 16, 3 ^ 32, 4 ^ 32}
	if string(screen.Pix) != string(want) {
		t.Errorf("blended = %v, want %v", screen.Pix, want)
	}
}

func TestDrawSpan(t *testing.T) {
	flat := make([]byte, 64*64)
	for i := range flat {
		flat[i] = byte(i)
	}
	d, screen := newTestDrawer(8, 2, false)
	d.Span.Source = flat
	d.Span.Y, d.Span.X1, d.Span.X2 = 1, 1, 5
	d.Span.XFrac, d.Span.YFrac = 3*fixed.FracUnit, 5*fixed.FracUnit
	d.Span.XStep = fixed.FracUnit
	d.DrawSpan()
	for i := 0; i < 5; i++ {
		if got, want := screen.Pix[8+1+i], byte(5*64+3+i); got != want {
			t.Errorf("x %d = %d, want %d", 1+i, got, want)
		}
	}
	if screen.Pix[8] != 0 || screen.Pix[8+6] != 0 {
		t.Error("span wrote outside its range")
	}

	// Coordinates tile every 64 units
	d.Span.X1, d.Span.X2, d.Span.Y = 0, 1, 0
	d.Span.XFrac, d.Span.YFrac = 63*fixed.FracUnit, 64*fixed.FracUnit
	d.DrawSpan()
	if screen.Pix[0] != 63 || screen.Pix[1] != 0 {
		t.Errorf("wrapped span = %v", screen.Pix[:2])
	}
}

func TestDrawSpanLow(t *testing.T) {
	flat := make([]byte, 64*64)
	for i := range flat {
		flat[i] = byte(i)
	}
	d, screen := newTestDrawer(8, 1, true)
	d.Span.Source = flat
	d.Span.X1, d.Span.X2 = 1, 2
	d.Span.XStep = fixed.FracUnit
	d.DrawSpan()
	want := []byte{0, 0, 0, 0, 1, 1, 0, 0}
	if string(screen.Pix) != string(want) {
		t.Errorf("low span = %v, want %v", screen.Pix, want)
	}
}

func TestDrawRangeCheck(t *testing.T) {
	d, _ := newTestDrawer(4, 4, false)
	d.rangeCheck = true
	d.Col.Source, d.Col.IScale = []byte{1}, fixed.FracUnit
	d.Col.X, d.Col.YL, d.Col.YH = 4, 0, 1
	mustPanic(t, "column past view width", func() { d.DrawColumn(ColumnSolid) })
	d.Col.X, d.Col.YH = 0, 4
	mustPanic(t, "column past view height", func() { d.DrawColumn(ColumnSolid) })
	d.Span.X1, d.Span.X2 = 2, 1
	mustPanic(t, "reversed span", func() { d.DrawSpan() })
}

func TestDrawClipsWithoutRangeCheck(t *testing.T) {
	src := []byte{10, 11, 12, 13, 14, 15, 16, 17}
	tests := []struct {
		name   string
		x      int
		yl, yh int
		want   []byte
	}{
		{"past the bottom", 2, 2, 8, []byte{0, 0, 12, 13, 14, 15}},
		{"above the top", 2, -3, 2, []byte{10, 11, 12, 0, 0, 0}},
		{"past the right edge", 4, 0, 5, nil},
		{"left of the view", -1, 0, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, screen := newTestDrawer(4, 6, false)
			d.Col.X, d.Col.YL, d.Col.YH = tt.x, tt.yl, tt.yh
			d.Col.Source, d.Col.TexHeight, d.Col.IScale = src, len(src), fixed.FracUnit
			d.DrawColumn(ColumnSolid)
			if tt.want == nil {
				if countPixels(screen, 0) != len(screen.Pix) {
					t.Errorf("dropped column wrote %v", screen.Pix)
				}
				return
			}
			if got := columnOf(screen, tt.x); string(got) != string(tt.want) {
				t.Errorf("column = %v, want %v", got, tt.want)
			}
		})
	}

	flat := make([]byte, 64*64)
	for i := range flat {
		flat[i] = byte(i)
	}
	d, screen := newTestDrawer(8, 2, false)
	d.Span.Source = flat
	d.Span.Y, d.Span.X1, d.Span.X2 = 0, -2, 9
	d.Span.XStep = fixed.FracUnit
	d.DrawSpan()
	if want := []byte{2, 3, 4, 5, 6, 7, 8, 9}; string(screen.Pix[:8]) != string(want) {
		t.Errorf("clipped span = %v, want %v", screen.Pix[:8], want)
	}
	d.Span.Y, d.Span.X1, d.Span.X2 = 2, 0, 3
	d.DrawSpan()
	if countPixels(screen, 0) != 8 {
		t.Errorf("span below the view wrote %v", screen.Pix)
	}
}
