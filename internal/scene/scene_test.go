package scene

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/render"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

const (
	wallPixel   = 100
	barrelPixel = 200
	transparent = 0xf7
)

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

// writeTestWAD writes a one level IWAD: a 256 unit square room with the
// player start facing north and a barrel ahead of it.
func writeTestWAD(t *testing.T) string {
	t.Helper()
	playpal := make([]byte, 256*3)
	for i := 0; i < 256; i++ {
		playpal[3*i], playpal[3*i+1], playpal[3*i+2] = byte(i), byte(i), byte(i)
	}
	colormap := make([]byte, 34*256)
	for i := range colormap {
		colormap[i] = byte(i)
	}
	texture := le(uint32(3), int32(16), int32(48), int32(80))
	for _, name := range []string{"AASTINKY", "WALL", "SKY1"} {
		texture = append(texture, le(name8(name), int32(0), int16(64), int16(128), int32(0), int16(1),
			int16(0), int16(0), int16(0), int16(0), int16(0))...)
	}
	flat := bytes.Repeat([]byte{50}, wad.FlatWidth*wad.FlatHeight)

	var things, lines, sides, segs []byte
	things = append(things, le(int16(128), int16(64), int16(90), int16(playerStart), int16(7))...)
	things = append(things, le(int16(128), int16(160), int16(0), int16(2035), int16(7))...)
	things = append(things, le(int16(64), int16(160), int16(0), int16(2035), int16(0x17))...) // multiplayer only
	things = append(things, le(int16(192), int16(160), int16(0), int16(2035), int16(1))...)   // easy skills only
	angles := []int16{0x4000, 0, -0x4000, -0x8000}
	for i := 0; i < 4; i++ {
		lines = append(lines, le(int16(i), int16((i+1)%4), int16(wad.LineBlocking), int16(0), int16(0), int16(i), int16(-1))...)
		sides = append(sides, le(int16(0), int16(0), name8("-"), name8("-"), name8("WALL"), int16(0))...)
		segs = append(segs, le(int16(i), int16((i+1)%4), angles[i], int16(i), int16(0), int16(0))...)
	}

	lumps := []wad.Lump{
		{Name: "PLAYPAL", Data: playpal},
		{Name: "COLORMAP", Data: colormap},
		{Name: "PNAMES", Data: le(uint32(1), name8("WALLP"))},
		{Name: "TEXTURE1", Data: texture},
		{Name: "WALLP", Data: solidPatch(t, 64, 128, 0, 0, wallPixel)},
		{Name: "F_START", Data: nil},
		{Name: "FLOOR", Data: flat},
		{Name: "F_SKY1", Data: flat},
		{Name: "F_END", Data: nil},
		{Name: "S_START", Data: nil},
		{Name: "PLAYA0", Data: solidPatch(t, 16, 32, 8, 32, 210)},
		{Name: "BAR1A0", Data: solidPatch(t, 16, 32, 8, 32, barrelPixel)},
		{Name: "S_END", Data: nil},
		{Name: "E1M1", Data: nil},
		{Name: "THINGS", Data: things},
		{Name: "LINEDEFS", Data: lines},
		{Name: "SIDEDEFS", Data: sides},
		{Name: "VERTEXES", Data: le(int16(0), int16(0), int16(0), int16(256), int16(256), int16(256), int16(256), int16(0))},
		{Name: "SEGS", Data: segs},
		{Name: "SSECTORS", Data: le(int16(4), int16(0))},
		{Name: "NODES", Data: nil},
		{Name: "SECTORS", Data: le(int16(0), int16(128), name8("FLOOR"), name8("FLOOR"), int16(160), int16(0), int16(0))},
	}
	var buf bytes.Buffer
	if err := wad.Write(&buf, "IWAD", lumps); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "test.wad")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestScene(t *testing.T) *Scene {
	t.Helper()
	s, err := Load(Config{
		WAD:    writeTestWAD(t),
		Zone:   zone.Config{Backend: zone.Arena},
		Render: render.DefaultConfig(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad(t *testing.T) {
	s := loadTestScene(t)
	if s.Map.Name != "E1M1" {
		t.Errorf("loaded %v, want the first level", s.Map.Name)
	}
	// Player and one barrel; the other barrels are not for this skill
	if len(s.Things) != 2 {
		t.Fatalf("spawned %d things", len(s.Things))
	}
	p := s.Player
	if p.Mo.Angle != fixed.Ang90 || p.ViewZ != fixed.FromInt(viewHeight) {
		t.Errorf("player angle %#x view z %v", p.Mo.Angle, p.ViewZ)
	}
	if p.PSprites[0].Active {
		t.Error("no pistol sprite, yet the weapon is active")
	}

	scr := s.Render(0)
	if bytes.Count(scr.Pix, []byte{barrelPixel}) == 0 || bytes.Count(scr.Pix, []byte{wallPixel}) == 0 {
		t.Error("barrel or walls not drawn")
	}
}

func TestLoadMissingLevel(t *testing.T) {
	_, err := Load(Config{WAD: writeTestWAD(t), Map: "MAP01", Render: render.DefaultConfig()})
	if err == nil {
		t.Error("expected error for a missing level")
	}
}

func TestMove(t *testing.T) {
	s := loadTestScene(t)
	mo := s.Player.Mo
	s.Move(16, 0, 0)
	if d := fixed.Abs(mo.Y - fixed.FromInt(80)); d > fixed.FracUnit {
		t.Errorf("walked to y %v", mo.Y.Float())
	}
	if mo.OldY != fixed.FromInt(64) || !mo.Interp {
		t.Errorf("old position %v not kept", mo.OldY.Float())
	}
	s.Move(0, 0, fixed.Ang90)
	if mo.Angle != fixed.Ang180 {
		t.Errorf("turned to %#x", mo.Angle)
	}
	if s.levelTime != 2 {
		t.Errorf("level time %d", s.levelTime)
	}
}

func TestSpawnAngle(t *testing.T) {
	for _, tt := range []struct {
		degrees int
		want    fixed.Angle
	}{
		{0, 0},
		{44, 0},
		{90, fixed.Ang90},
		{135, fixed.Ang90 + fixed.Ang45},
		{270, fixed.Ang270},
	} {
		if got := SpawnAngle(tt.degrees); got != tt.want {
			t.Errorf("SpawnAngle(%d) = %#x, want %#x", tt.degrees, got, tt.want)
		}
	}
}

func TestDrawOverview(t *testing.T) {
	s := loadTestScene(t)
	scr := render.NewScreen(320, 200)
	s.DrawOverview(scr)
	if bytes.Count(scr.Pix, []byte{wallColor}) == 0 {
		t.Error("no walls drawn")
	}
	if bytes.Count(scr.Pix, []byte{playerColor}) == 0 {
		t.Error("no player drawn")
	}
	// Corners of the room land inside the margin
	if scr.Pix[(200-1-overviewMargin)*320+overviewMargin] != wallColor {
		t.Error("bottom left corner not drawn")
	}
}

func TestDrawLine(t *testing.T) {
	scr := render.NewScreen(8, 8)
	drawLine(scr, -2, -2, 9, 9, 1)
	for i := 0; i < 8; i++ {
		if scr.Pix[i*8+i] != 1 {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
	if bytes.Count(scr.Pix, []byte{1}) != 8 {
		t.Error("pixels off the diagonal set")
	}
}
