package wad

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stuarthighley/wadrender/zone"
)

func openTestWAD(t *testing.T, lumps []Lump) *WAD {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, "PWAD", lumps); err != nil {
		t.Fatal(err)
	}
	w, err := New(bytes.NewReader(buf.Bytes()), zone.New(zone.Config{Backend: zone.Arena, Size: 64 * 1024}))
	if err != nil {
		t.Fatal(err)
	}
	return w
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

func le(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func name8bytes(s string) [8]byte {
	var b [8]byte
	copy(b[:], s)
	return b
}

func TestBadMagic(t *testing.T) {
	data := append([]byte("JUNK"), make([]byte, 8)...)
	if _, err := New(bytes.NewReader(data), zone.New(zone.Config{})); err == nil {
		t.Error("expected error for bad magic")
	}
}

func TestLumpDirectory(t *testing.T) {
	w := openTestWAD(t, []Lump{
		{"FIRST", []byte{1, 2, 3}},
		{"dup", []byte{4}},
		{"DUP", []byte{5, 6}},
	})
	if w.NumLumps() != 3 || w.Header().Type != "PWAD" {
		t.Fatalf("header = %+v", w.Header())
	}
	if n := w.CheckNumForName("dup"); n != 2 {
		t.Errorf("later lump must win, got %d", n)
	}
	if w.CheckNumForName("MISSING") != -1 {
		t.Error("missing lump must be -1")
	}
	if w.LumpName(0) != "FIRST" || w.LumpLength(2) != 2 {
		t.Error("bad lump info")
	}
	mustPanic(t, "GetNumForName", func() { w.GetNumForName("MISSING") })
	mustPanic(t, "LumpName", func() { w.LumpName(3) })
}

func TestCacheLump(t *testing.T) {
	w := openTestWAD(t, []Lump{{"DATA", []byte("hello")}})
	p := w.CacheLumpName("DATA", zone.Static)
	if string(p) != "hello" {
		t.Fatalf("lump = %q", p)
	}
	q := w.CacheLumpNum(0, zone.Static)
	if &p[0] != &q[0] {
		t.Error("second cache call must return the cached block")
	}
	w.ReleaseLumpNum(0)

	// Exhausting the zone with static data evicts the released lump
	mustPanic(t, "zone full", func() {
		for {
			w.zone.Malloc(1024, zone.Static, nil)
		}
	})
	if w.lumpCache[0] != nil {
		t.Error("released lump was never evicted")
	}
}

func TestMarkers(t *testing.T) {
	w := openTestWAD(t, []Lump{
		{"F_START", nil},
		{"FLOOR1", make([]byte, 4096)},
		{"F1_START", nil},
		{"FLOOR2", make([]byte, 4096)},
		{"F_END", nil},
		{"S_START", nil},
		{"TROOA1", []byte{0}},
		{"TROOB1", []byte{0}},
		{"BOSSA0", []byte{0}},
		{"S_END", nil},
	})
	flats, err := w.FlatLumps()
	if err != nil {
		t.Fatal(err)
	}
	if len(flats) != 2 || flats[0] != 1 || flats[1] != 3 {
		t.Errorf("flats = %v", flats)
	}
	names, err := w.SpriteNames()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "BOSS,TROO" {
		t.Errorf("sprite names = %v", names)
	}
	if _, _, err := w.Markers("P_START", "P_END"); err == nil {
		t.Error("expected error for missing markers")
	}
}

func TestPicture(t *testing.T) {
	const tr = 0xf7
	pic := &Picture{Width: 2, Height: 4, LeftOffset: 1, TopOffset: 3, Columns: []Column{
		{1, 2, tr, 3},
		{tr, tr, tr, tr},
	}}
	lump, err := EncodePicture(pic, tr)
	if err != nil {
		t.Fatal(err)
	}
	w := openTestWAD(t, []Lump{{"PIC", lump}})
	got, err := w.Picture("pic", tr)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "PIC" || got.Width != 2 || got.Height != 4 || got.LeftOffset != 1 || got.TopOffset != 3 {
		t.Errorf("header = %+v", got)
	}
	for x := range pic.Columns {
		if !bytes.Equal(got.Columns[x], pic.Columns[x]) {
			t.Errorf("column %d = %v, want %v", x, got.Columns[x], pic.Columns[x])
		}
	}

	p := Patch(lump)
	posts := p.Posts(0)
	var tops []int
	for post, ok := posts.Next(); ok; post, ok = posts.Next() {
		tops = append(tops, post.TopDelta)
	}
	if len(tops) != 2 || tops[0] != 0 || tops[1] != 3 {
		t.Errorf("posts start at %v", tops)
	}
}

func TestTallPatchPosts(t *testing.T) {
	// Second and third posts restart their top delta from the previous post
	column := []byte{
		0, 1, 0, 10, 0,
		200, 1, 0, 11, 0,
		100, 1, 0, 12, 0,
		0xff,
	}
	lump := le(int16(1), int16(400), int16(0), int16(0), uint32(12))
	lump = append(lump, column...)
	var rows []int
	posts := Patch(lump).Posts(0)
	for post, ok := posts.Next(); ok; post, ok = posts.Next() {
		rows = append(rows, post.TopDelta)
	}
	if len(rows) != 3 || rows[0] != 0 || rows[1] != 200 || rows[2] != 300 {
		t.Errorf("tall post rows = %v", rows)
	}
	pic, err := DecodePicture(lump, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pic.Columns[0][300] != 12 {
		t.Errorf("row 300 = %d", pic.Columns[0][300])
	}
}

func TestBadPatch(t *testing.T) {
	if _, err := DecodePicture([]byte{1, 0}, 0); err == nil {
		t.Error("short patch")
	}
	lump := le(int16(1), int16(1), int16(0), int16(0), uint32(999))
	if _, err := DecodePicture(lump, 0); err == nil {
		t.Error("column offset outside lump")
	}
}

func TestReadTextureDefs(t *testing.T) {
	pnames := le(uint32(2), name8bytes("WALL00_1"), name8bytes("w94_1"))
	texture := le(uint32(1), int32(8),
		name8bytes("STARTAN"), int32(0), int16(128), int16(72), int32(0), int16(2),
		int16(0), int16(0), int16(0), int16(0), int16(0),
		int16(64), int16(-8), int16(1), int16(0), int16(0))
	w := openTestWAD(t, []Lump{
		{"PNAMES", pnames},
		{"TEXTURE1", texture},
		{"WALL00_1", []byte{0}},
		{"W94_1", []byte{0}},
	})
	defs, err := w.ReadTextureDefs()
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 1 {
		t.Fatalf("%d textures", len(defs))
	}
	d := defs[0]
	if d.Name != "STARTAN" || d.Width != 128 || d.Height != 72 || d.IsMasked || len(d.Patches) != 2 {
		t.Fatalf("texture = %+v", d)
	}
	if d.Patches[0].Lump != 2 || d.Patches[1].Lump != 3 || d.Patches[1].XOffset != 64 || d.Patches[1].YOffset != -8 {
		t.Errorf("patches = %+v", d.Patches)
	}
}

func TestReadPalettes(t *testing.T) {
	playpal := make([]byte, 2*paletteSize)
	playpal[3] = 10
	playpal[paletteSize+767] = 20
	w := openTestWAD(t, []Lump{{"PLAYPAL", playpal}})
	pals, err := w.ReadPalettes()
	if err != nil {
		t.Fatal(err)
	}
	if len(pals) != 2 || pals[0][1].Red != 10 || pals[1][255].Blue != 20 {
		t.Errorf("palettes decoded wrongly")
	}
	if len(pals[0].Color()) != 256 {
		t.Error("color palette size")
	}
}

func TestReadMap(t *testing.T) {
	w := openTestWAD(t, []Lump{
		{"E1M1", nil},
		{"THINGS", le(int16(10), int16(20), int16(90), int16(1), int16(7))},
		{"LINEDEFS", le(int16(0), int16(1), int16(1), int16(0), int16(0), int16(0), int16(-1))},
		{"SIDEDEFS", le(int16(0), int16(0), name8bytes("-"), name8bytes("-"), name8bytes("startan"), int16(0))},
		{"VERTEXES", le(int16(0), int16(0), int16(64), int16(0))},
		{"SEGS", le(int16(0), int16(1), int16(0), int16(0), int16(0), int16(0))},
		{"SSECTORS", le(int16(1), int16(0))},
		{"NODES", nil},
		{"SECTORS", le(int16(0), int16(128), name8bytes("FLOOR4_8"), name8bytes("CEIL3_5"), int16(160), int16(0), int16(0))},
		{"REJECT", []byte{0}},
		{"BLOCKMAP", nil},
		{"E1M2", nil},
	})
	if names := w.LevelNames(); len(names) != 1 || names[0] != "E1M1" {
		t.Fatalf("levels = %v", names)
	}
	m, err := w.ReadMap("e1m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Things) != 1 || m.Things[0].Angle != 90 || !m.Things[0].Skill4and5() {
		t.Errorf("things = %+v", m.Things)
	}
	if m.Lines[0].SideL != -1 || m.Lines[0].Flags&LineBlocking == 0 {
		t.Errorf("lines = %+v", m.Lines)
	}
	if m.Sides[0].MiddleTextureName != "STARTAN" || m.Sectors[0].LightLevel != 160 {
		t.Errorf("side/sector names not decoded")
	}
	var buf bytes.Buffer
	m.PrintTree(&buf)
	if !strings.Contains(buf.String(), "subsector 0") {
		t.Errorf("tree = %q", buf.String())
	}

	if _, err := w.ReadMap("MAP01"); err == nil {
		t.Error("expected error for missing level")
	}
}

func TestAppendTallPosts(t *testing.T) {
	const height = 700
	pixels := make([]byte, height)
	opaque := make([]bool, height)
	for _, y := range []int{3, 260, 261, 600, 699} {
		pixels[y] = byte(y)
		opaque[y] = true
	}
	column := AppendPosts(nil, pixels, opaque)
	got := map[int]byte{}
	posts := NewPostReader(column)
	for post, ok := posts.Next(); ok; post, ok = posts.Next() {
		for i, p := range post.Pixels {
			got[post.TopDelta+i] = p
		}
	}
	if len(got) != 5 {
		t.Fatalf("decoded rows %v", got)
	}
	for y, p := range got {
		if !opaque[y] || pixels[y] != p {
			t.Errorf("row %d = %d", y, p)
		}
	}
}

func TestValidateSegs(t *testing.T) {
	newMap := func() *Map {
		return &Map{
			Vertexes:   []Vertex{{0, 0}, {64, 0}},
			Sectors:    []Sector{{CeilingHeight: 128}},
			Sides:      []Side{{SectorNum: 0}},
			Lines:      []Line{{V1: 0, V2: 1, SideR: 0, SideL: -1}},
			Segs:       []Seg{{V1: 0, V2: 1}},
			SubSectors: []SubSector{{NumSegs: 1}},
		}
	}
	if err := newMap().Validate(); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		edit func(s *Seg)
	}{
		{"direction 2", func(s *Seg) { s.Direction = 2 }},
		{"negative direction", func(s *Seg) { s.Direction = -1 }},
		{"back of one-sided line", func(s *Seg) { s.Direction = 1 }},
		{"negative vertex", func(s *Seg) { s.V1 = -1 }},
		{"negative line", func(s *Seg) { s.LineNum = -1 }},
	}
	for _, tt := range tests {
		m := newMap()
		tt.edit(&m.Segs[0])
		if err := m.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
