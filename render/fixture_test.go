package render

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

// Pixel values the fixture draws with. Every colormap is the identity, so
// they land on the screen unchanged.
const (
	wallPixel   = 100
	skyPixel    = 150
	floorPixel  = 50
	ceilPixel   = 60
	spritePixel = 200
	weaponPixel = 220
	transparent = 0xf7
)

var backends = []zone.Backend{zone.Native, zone.Arena}

func le(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func name8(s string) [8]byte {
	var b [8]byte
	copy(b[:], s)
	return b
}

func solidPatch(t *testing.T, width, height, left, top int, pixel byte) []byte {
	t.Helper()
	pic := &wad.Picture{Width: width, Height: height, LeftOffset: left, TopOffset: top}
	for i := 0; i < width; i++ {
		pic.Columns = append(pic.Columns, bytes.Repeat([]byte{pixel}, height))
	}
	lump, err := wad.EncodePicture(pic, transparent)
	if err != nil {
		t.Fatal(err)
	}
	return lump
}

type testTexture struct {
	name          string
	width, height int
	patch         int // PNAMES index
}

// textureLump builds a TEXTURE1 lump of single patch textures.
func textureLump(textures []testTexture) []byte {
	const texSize, patchSize = 22, 10
	header := []any{uint32(len(textures))}
	ofs := 4 + 4*len(textures)
	for range textures {
		header = append(header, int32(ofs))
		ofs += texSize + patchSize
	}
	data := le(header...)
	for _, tx := range textures {
		data = append(data, le(name8(tx.name), int32(0), int16(tx.width), int16(tx.height), int32(0), int16(1),
			int16(0), int16(0), int16(tx.patch), int16(0), int16(0))...)
	}
	return data
}

func flatLump(pixel byte) []byte {
	return bytes.Repeat([]byte{pixel}, wad.FlatWidth*wad.FlatHeight)
}

// testLumps is a minimal IWAD: gray palette, identity colormaps, a wall and
// a sky texture, two flats and two sprites.
func testLumps(t *testing.T) []wad.Lump {
	playpal := make([]byte, 256*3)
	for i := 0; i < 256; i++ {
		playpal[3*i], playpal[3*i+1], playpal[3*i+2] = byte(i), byte(i), byte(i)
	}
	colormap := make([]byte, (numColormaps+1)*256)
	for i := range colormap {
		colormap[i] = byte(i)
	}
	tranmap := make([]byte, 256*256)
	for i := range tranmap {
		tranmap[i] = byte(i) // foreground wins
	}
	return []wad.Lump{
		{Name: "PLAYPAL", Data: playpal},
		{Name: "COLORMAP", Data: colormap},
		{Name: "TRANMAP", Data: tranmap},
		{Name: "PNAMES", Data: le(uint32(2), name8("WALLP"), name8("SKYP"))},
		{Name: "TEXTURE1", Data: textureLump([]testTexture{
			{"AASTINKY", 64, 128, 0},
			{"WALL", 64, 128, 0},
			{"SKY1", 64, 128, 1},
		})},
		{Name: "WALLP", Data: solidPatch(t, 64, 128, 0, 0, wallPixel)},
		{Name: "SKYP", Data: solidPatch(t, 64, 128, 0, 0, skyPixel)},
		{Name: "F_START", Data: nil},
		{Name: "FLOOR", Data: flatLump(floorPixel)},
		{Name: "CEIL", Data: flatLump(ceilPixel)},
		{Name: "F_SKY1", Data: flatLump(1)},
		{Name: "F_END", Data: nil},
		{Name: "S_START", Data: nil},
		{Name: "PLAYA0", Data: solidPatch(t, 16, 32, 8, 32, spritePixel)},
		{Name: "PISGA0", Data: solidPatch(t, 16, 16, -152, -130, weaponPixel)},
		{Name: "S_END", Data: nil},
	}
}

var testSpriteNames = []string{"PLAY", "PISG"}

func newTestRenderer(t *testing.T, backend zone.Backend, cfg Config) *Renderer {
	t.Helper()
	var buf bytes.Buffer
	if err := wad.Write(&buf, "IWAD", testLumps(t)); err != nil {
		t.Fatal(err)
	}
	z := zone.New(zone.Config{Backend: backend})
	w, err := wad.New(bytes.NewReader(buf.Bytes()), z)
	if err != nil {
		t.Fatal(err)
	}
	r, err := New(w, z, cfg, testSpriteNames)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// squareRoom is a 256 unit square sector with its lines running clockwise,
// one subsector and no nodes.
func squareRoom(ceiling string) *wad.Map {
	m := &wad.Map{
		Name:     "TEST",
		Vertexes: []wad.Vertex{{X: 0, Y: 0}, {X: 0, Y: 256}, {X: 256, Y: 256}, {X: 256, Y: 0}},
		Sectors: []wad.Sector{{
			FloorHeight: 0, CeilingHeight: 128,
			FloorTextureName: "FLOOR", CeilingTextureName: ceiling,
			LightLevel: 160,
		}},
	}
	angles := []uint16{0x4000, 0, 0xc000, 0x8000}
	for i := 0; i < 4; i++ {
		m.Sides = append(m.Sides, wad.Side{MiddleTextureName: "WALL"})
		m.Lines = append(m.Lines, wad.Line{V1: i, V2: (i + 1) % 4, Flags: wad.LineBlocking, SideR: i, SideL: -1})
		m.Segs = append(m.Segs, wad.Seg{V1: i, V2: (i + 1) % 4, Angle: angles[i], LineNum: i})
	}
	m.SubSectors = []wad.SubSector{{NumSegs: 4, FirstSeg: 0}}
	return m
}

// testPlayer stands at x, y facing north at eye height.
func testPlayer(lev *Level, x, y int) *Player {
	mo := &Mobj{X: fixed.FromInt(x), Y: fixed.FromInt(y), Angle: fixed.Ang90}
	lev.LinkThing(mo)
	return &Player{Mo: mo, ViewZ: fixed.FromInt(41)}
}

func countPixels(s *Screen, c byte) int {
	return bytes.Count(s.Pix, []byte{c})
}
