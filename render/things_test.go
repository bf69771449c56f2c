package render

import (
	"bytes"
	"testing"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

func TestSortVisSpritesStable(t *testing.T) {
	var th thingState
	th.max = minVisSprites
	for i, scale := range []fixed.Fixed{2, 1, 2, 1, 3} {
		vis := th.newVisSprite()
		vis.Scale, vis.X1 = scale, i
	}
	th.sortVisSprites()
	var order []int
	for _, vis := range th.sorted {
		order = append(order, vis.X1)
	}
	want := []int{1, 3, 0, 2, 4}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("draw order %v, want %v", order, want)
		}
	}
}

func TestVisSpriteCap(t *testing.T) {
	var th thingState
	th.max = 2 * minVisSprites
	var last *VisSprite
	for i := 0; i < 3*minVisSprites; i++ {
		last = th.newVisSprite()
		last.Scale = 1
	}
	if len(th.vis) != th.max || cap(th.vis) != th.max {
		t.Errorf("stored %d of capacity %d", len(th.vis), cap(th.vis))
	}
	if last != &th.overflow || !th.overflowed {
		t.Error("sprites past the cap must go to the overflow sink")
	}
	th.clearSprites()
	if len(th.vis) != 0 || th.overflowed || cap(th.vis) != th.max {
		t.Error("clearSprites must keep storage")
	}
}

func TestDrawSegCap(t *testing.T) {
	s := segState{max: minDrawSegs}
	for i := 0; i < minDrawSegs; i++ {
		if s.newDrawSeg() == nil {
			t.Fatalf("drawseg %d refused", i)
		}
	}
	if s.newDrawSeg() != nil {
		t.Error("drawseg past the cap")
	}
}

func filledClip(n int, v int16) []int16 {
	clip := make([]int16, n)
	for i := range clip {
		clip[i] = v
	}
	return clip
}

// A wall over columns 10..50, nearer than a sprite over 20..40.
func TestClipVisSpriteBehindWall(t *testing.T) {
	const viewHeight = 168
	segs := []DrawSeg{{
		X1: 10, X2: 50,
		Scale1: 2 * fixed.FracUnit, Scale2: 2 * fixed.FracUnit,
		Silhouette:    silBoth,
		BSilHeight:    fixed.MaxInt,
		TSilHeight:    fixed.MinInt,
		SprTopClip:    filledClip(41, 30),
		SprBottomClip: filledClip(41, 120),
	}}
	spr := &VisSprite{X1: 5, X2: 40, Scale: fixed.FracUnit, GZT: fixed.FromInt(10)}
	clipBot, clipTop := make([]int16, 64), make([]int16, 64)
	ClipVisSprite(spr, segs, viewHeight, clipBot, clipTop, nil)
	for x := spr.X1; x <= spr.X2; x++ {
		wantTop, wantBot := int16(30), int16(120)
		if x < 10 {
			wantTop, wantBot = -1, viewHeight
		}
		if clipTop[x] != wantTop || clipBot[x] != wantBot {
			t.Errorf("column %d clipped to %d..%d, want %d..%d", x, clipTop[x], clipBot[x], wantTop, wantBot)
		}
	}
}

func TestClipVisSpriteMerge(t *testing.T) {
	// Segs come front to back; the farther one was clipped by the nearer
	// one when it was drawn, so its rows are at least as tight. Scanning
	// from the last seg, the farther rows land first in the overlap and the
	// nearer seg never overwrites a row already set.
	near := DrawSeg{
		X1: 0, X2: 20, Scale1: 4 * fixed.FracUnit, Scale2: 4 * fixed.FracUnit,
		Silhouette: silBoth, BSilHeight: fixed.MaxInt, TSilHeight: fixed.MinInt,
		SprTopClip: filledClip(21, 30), SprBottomClip: filledClip(21, 120),
	}
	far := DrawSeg{
		X1: 10, X2: 30, Scale1: 3 * fixed.FracUnit, Scale2: 3 * fixed.FracUnit,
		Silhouette: silBoth, BSilHeight: fixed.MaxInt, TSilHeight: fixed.MinInt,
		SprTopClip: filledClip(21, 40), SprBottomClip: filledClip(21, 110),
	}
	spr := &VisSprite{X1: 0, X2: 30, Scale: fixed.FracUnit}
	clipBot, clipTop := make([]int16, 32), make([]int16, 32)
	ClipVisSprite(spr, []DrawSeg{near, far}, 168, clipBot, clipTop, nil)
	for x := 0; x <= 30; x++ {
		if clipTop[x] < 30 || clipBot[x] > 120 {
			t.Errorf("column %d clipped to %d..%d, looser than the near wall", x, clipTop[x], clipBot[x])
		}
		if x >= 10 && (clipTop[x] != 40 || clipBot[x] != 110) {
			t.Errorf("column %d clipped to %d..%d", x, clipTop[x], clipBot[x])
		}
	}
}

func TestClipVisSpriteSilhouettes(t *testing.T) {
	// A step below the sprite's feet does not clip its bottom
	segs := []DrawSeg{{
		X1: 0, X2: 9, Scale1: 2 * fixed.FracUnit, Scale2: 2 * fixed.FracUnit,
		Silhouette: silBoth, BSilHeight: fixed.FromInt(24), TSilHeight: fixed.MinInt,
		SprTopClip: filledClip(10, 5), SprBottomClip: filledClip(10, 50),
		MaskedTextureCol: filledClip(10, 0),
	}}
	spr := &VisSprite{X1: 0, X2: 9, Scale: fixed.FracUnit, GZ: fixed.FromInt(32), GZT: fixed.FromInt(64)}
	clipBot, clipTop := make([]int16, 10), make([]int16, 10)
	ClipVisSprite(spr, segs, 100, clipBot, clipTop, nil)
	if clipTop[0] != 5 || clipBot[0] != 100 {
		t.Errorf("clipped to %d..%d", clipTop[0], clipBot[0])
	}

	// A masked seg behind the sprite is drawn first, over the overlap
	segs[0].Scale1, segs[0].Scale2 = fixed.FracUnit/2, fixed.FracUnit/2
	var drawn [][2]int
	ClipVisSprite(&VisSprite{X1: 4, X2: 20, Scale: fixed.FracUnit}, segs, 100, make([]int16, 24), make([]int16, 24),
		func(ds *DrawSeg, x1, x2 int) { drawn = append(drawn, [2]int{x1, x2}) })
	if len(drawn) != 1 || drawn[0] != [2]int{4, 9} {
		t.Errorf("masked ranges drawn %v", drawn)
	}
}

func TestRotationSlot(t *testing.T) {
	tests := []struct {
		ch   byte
		slot int
		ok   bool
	}{
		{'0', -1, true},
		{'1', 0, true},
		{'5', 8, true},
		{'8', 14, true},
		{'9', 1, true},
		{'A', 3, true},
		{'G', 15, true},
		{'H', 0, false},
	}
	for _, tt := range tests {
		slot, ok := rotationSlot(tt.ch)
		if slot != tt.slot || ok != tt.ok {
			t.Errorf("rotation %c = %d %v, want %d %v", tt.ch, slot, ok, tt.slot, tt.ok)
		}
	}
}

func spriteWAD(t *testing.T, names ...string) *wad.WAD {
	t.Helper()
	lumps := []wad.Lump{{Name: "S_START", Data: nil}}
	for _, name := range names {
		lumps = append(lumps, wad.Lump{Name: name, Data: []byte{0}})
	}
	lumps = append(lumps, wad.Lump{Name: "S_END"})
	var buf bytes.Buffer
	if err := wad.Write(&buf, "PWAD", lumps); err != nil {
		t.Fatal(err)
	}
	w, err := wad.New(bytes.NewReader(buf.Bytes()), zone.New(zone.Config{}))
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestBuildSpriteDef(t *testing.T) {
	w := spriteWAD(t, "TROOA1", "TROOA2A8", "TROOA3A7", "TROOA4A6", "TROOA5", "TROOB0")
	var s spriteData
	var err error
	if s.lumps, err = w.SpriteLumps(); err != nil {
		t.Fatal(err)
	}
	def, err := s.buildDef(w, "TROO")
	if err != nil {
		t.Fatal(err)
	}
	if len(def.frames) != 2 {
		t.Fatalf("%d frames", len(def.frames))
	}
	a := def.frames[0]
	if !a.rotate || a.lump[14] != 1 || !a.flip[14] || a.lump[2] != 1 || a.flip[2] {
		t.Errorf("mirrored rotation: lumps %v flips %v", a.lump, a.flip)
	}
	for rot := 1; rot < numRotations; rot += 2 {
		if a.lump[rot] != a.lump[rot-1] {
			t.Errorf("slot %d not filled from %d", rot, rot-1)
		}
	}
	if b := def.frames[1]; b.rotate || b.lump[7] != 5 {
		t.Errorf("single rotation frame %+v", b)
	}

	if _, err := s.buildDef(w, "NONE"); err != nil {
		t.Errorf("unknown sprite: %v", err)
	}

	w = spriteWAD(t, "BOSSA1", "BOSSA2", "BOSSC0")
	s.lumps, _ = w.SpriteLumps()
	if _, err := s.buildDef(w, "BOSS"); err == nil {
		t.Error("expected error for missing rotations and frames")
	}
}

func TestProjectedThingLighting(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	player, thing := roomWithThing(t, r, "CEIL")
	thing.Frame = FrameFullBright
	r.RenderPlayerView(player, FrameTime{})
	if len(r.things.vis) != 1 {
		t.Fatalf("%d vissprites", len(r.things.vis))
	}
	vis := r.things.vis[0]
	if &vis.Colormap[0][0] != &r.data.colormap(0)[0] {
		t.Error("fullbright frame must use colormap 0")
	}
	if vis.X1 != 146 || vis.X2 != 172 {
		t.Errorf("thing projected to %d..%d", vis.X1, vis.X2)
	}
}

func TestProjectedThingsStayInView(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	lev, err := r.LoadLevel(squareRoom("CEIL"))
	if err != nil {
		t.Fatal(err)
	}
	player := testPlayer(lev, 128, 64)
	thing := &Mobj{Y: fixed.FromInt(160)}
	lev.LinkThing(thing)
	for x := fixed.FromInt(-160); x <= fixed.FromInt(400); x += fixed.FracUnit / 4 {
		lev.MoveThing(thing, x, thing.Y, 0, 0)
		r.RenderPlayerView(player, FrameTime{})
		for _, vis := range r.things.vis {
			if vis.X1 > vis.X2 || vis.X1 < 0 || vis.X2 >= r.view.width {
				t.Fatalf("thing at x %v projected to %d..%d in a view %d wide", x.Float(), vis.X1, vis.X2, r.view.width)
			}
		}
	}
}

func TestProjectedThingTranslation(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	player, thing := roomWithThing(t, r, "CEIL")
	r.RenderPlayerView(player, FrameTime{})
	if len(r.things.vis) != 1 || r.things.vis[0].Translation != nil {
		t.Fatal("untranslated thing must carry no translation")
	}
	thing.Flags |= 2 << MFTransShift
	r.RenderPlayerView(player, FrameTime{})
	if len(r.things.vis) != 1 {
		t.Fatalf("%d vissprites", len(r.things.vis))
	}
	if tr := r.things.vis[0].Translation; len(tr) != 256 || &tr[0] != &r.data.translation(thing.Flags)[0] {
		t.Error("translated thing must carry its remap table")
	}
}
