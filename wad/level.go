package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Map holds the raw geometry lumps of one level, converted to ints. The
// renderer builds its own fixed point structures from it.
type Map struct {
	Name       string
	Things     []Thing
	Lines      []Line
	Sides      []Side
	Vertexes   []Vertex
	Segs       []Seg
	SubSectors []SubSector
	Nodes      []Node
	Sectors    []Sector
}

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options int16
}

type Thing struct {
	X, Y    int
	Angle   int // degrees
	Type    int
	Options int
}

func (t *Thing) Skill1and2() bool      { return t.Options&1 != 0 }
func (t *Thing) Skill3() bool          { return t.Options&2 != 0 }
func (t *Thing) Skill4and5() bool      { return t.Options&4 != 0 }
func (t *Thing) Ambush() bool          { return t.Options&8 != 0 }
func (t *Thing) MultiplayerOnly() bool { return t.Options&0x10 != 0 }

type binLine struct {
	VertexStart, VertexEnd int16
	Flags                  int16
	Type                   int16
	SectorTag              int16
	SideR, SideL           int16
}

type Line struct {
	V1, V2       int
	Flags        LineFlags
	Type         int
	SectorTag    int
	SideR, SideL int // -1 means no side
}

type LineFlags int

const (
	LineBlocking LineFlags = 1 << iota
	LineBlockMonsters
	LineTwoSided
	LineUpperUnpegged
	LineLowerUnpegged
	LineSecret
	LineBlocksSound
	LineNeverMap
	LineAlwaysMap
)

type binSide struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  String8
	LowerTexture  String8
	MiddleTexture String8
	SectorNum     int16
}

type Side struct {
	XOffset, YOffset  int
	UpperTextureName  string
	LowerTextureName  string
	MiddleTextureName string
	SectorNum         int
}

type binVertex struct {
	X, Y int16
}

type Vertex struct {
	X, Y int
}

type binSeg struct {
	V1        int16
	V2        int16
	Angle     int16 // Full circle is -32768 to 32767.
	LineNum   int16
	Direction int16 // 0 - same as linedef, 1 - opposite to linedef
	Offset    int16 // Distance along line to start of segment
}

type Seg struct {
	V1, V2    int
	Angle     uint16 // top 16 bits of a binary angle
	LineNum   int
	Direction int
	Offset    int
}

type binSubSector struct {
	NumSegs  int16
	FirstSeg int16
}

type SubSector struct {
	NumSegs  int
	FirstSeg int
}

type binBBox struct {
	Top    int16
	Bottom int16
	Left   int16
	Right  int16
}

type BoundBox struct {
	Top, Bottom, Left, Right int
}

type binNode struct {
	X, Y                 int16
	DX, DY               int16
	BBoxR, BBoxL         binBBox
	ChildNumR, ChildNumL uint16
}

// NodeSubSector marks a node child that is a subsector number.
const NodeSubSector = 0x8000

type Node struct {
	X, Y     int
	DX, DY   int
	BBox     [2]BoundBox // right, left
	Children [2]int      // right, left
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   String8
	CeilingTexture String8
	LightLevel     int16
	Type           int16
	TagNum         int16
}

type Sector struct {
	FloorHeight        int
	CeilingHeight      int
	FloorTextureName   string
	CeilingTextureName string
	LightLevel         int
	Type               int
	TagNum             int
}

func bbox(b binBBox) BoundBox {
	return BoundBox{int(b.Top), int(b.Bottom), int(b.Left), int(b.Right)}
}

func name8(s String8) string {
	return strings.ToUpper(s.String())
}

// ReadMap reads the geometry lumps that follow the level marker lump.
func (w *WAD) ReadMap(name string) (*Map, error) {
	logger.Printf("Reading Level %v ...", name)

	levelIdx, ok := w.levels[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("level %v not found", name)
	}
	m := &Map{Name: w.lumpInfos[levelIdx].Name}
	var err error
lumps:
	for i := levelIdx + 1; i < len(w.lumpInfos) && err == nil; i++ {
		lumpInfo := &w.lumpInfos[i]
		switch lumpInfo.Name {
		case "THINGS":
			m.Things, err = readLumpOf(w, lumpInfo, func(t binThing) Thing {
				return Thing{int(t.X), int(t.Y), int(t.Angle), int(t.Type), int(t.Options)}
			})
		case "LINEDEFS":
			m.Lines, err = readLumpOf(w, lumpInfo, func(l binLine) Line {
				return Line{int(l.VertexStart), int(l.VertexEnd), LineFlags(uint16(l.Flags)),
					int(l.Type), int(l.SectorTag), int(l.SideR), int(l.SideL)}
			})
		case "SIDEDEFS":
			m.Sides, err = readLumpOf(w, lumpInfo, func(s binSide) Side {
				return Side{int(s.XOffset), int(s.YOffset), name8(s.UpperTexture),
					name8(s.LowerTexture), name8(s.MiddleTexture), int(s.SectorNum)}
			})
		case "VERTEXES":
			m.Vertexes, err = readLumpOf(w, lumpInfo, func(v binVertex) Vertex {
				return Vertex{int(v.X), int(v.Y)}
			})
		case "SEGS":
			m.Segs, err = readLumpOf(w, lumpInfo, func(s binSeg) Seg {
				return Seg{int(uint16(s.V1)), int(uint16(s.V2)), uint16(s.Angle),
					int(uint16(s.LineNum)), int(s.Direction), int(s.Offset)}
			})
		case "SSECTORS":
			m.SubSectors, err = readLumpOf(w, lumpInfo, func(s binSubSector) SubSector {
				return SubSector{int(uint16(s.NumSegs)), int(uint16(s.FirstSeg))}
			})
		case "NODES":
			m.Nodes, err = readLumpOf(w, lumpInfo, func(n binNode) Node {
				return Node{
					X: int(n.X), Y: int(n.Y), DX: int(n.DX), DY: int(n.DY),
					BBox:     [2]BoundBox{bbox(n.BBoxR), bbox(n.BBoxL)},
					Children: [2]int{int(n.ChildNumR), int(n.ChildNumL)},
				}
			})
		case "SECTORS":
			m.Sectors, err = readLumpOf(w, lumpInfo, func(s binSector) Sector {
				return Sector{int(s.FloorHeight), int(s.CeilingHeight), name8(s.FloorTexture),
					name8(s.CeilingTexture), int(s.LightLevel), int(s.Type), int(s.TagNum)}
			})
		case "REJECT", "BLOCKMAP", "BEHAVIOR":
			// Used by game logic only
		default:
			break lumps
		}
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("level %v: %w", name, err)
	}
	return m, nil
}

// readLumpOf reads a lump as an array of little endian records of type B and
// converts each one.
func readLumpOf[B, T any](w *WAD, lumpInfo *LumpInfo, convert func(B) T) ([]T, error) {
	var b B
	size := binary.Size(b)
	lump := make([]byte, lumpInfo.Size)
	if err := w.readLump(lumpInfo, lump); err != nil {
		return nil, err
	}
	records := make([]B, lumpInfo.Size/size)
	if err := binary.Read(bytes.NewReader(lump), binary.LittleEndian, records); err != nil {
		return nil, err
	}
	result := make([]T, len(records))
	for i, r := range records {
		result[i] = convert(r)
	}
	logger.Printf("Read %v %v", len(result), strings.ToLower(lumpInfo.Name))
	return result, nil
}

// validate checks every cross reference so later stages can index freely.
// Validate checks that every index in the map refers to something that
// exists, so a renderer can follow them without bounds checks.
func (m *Map) Validate() error {
	if len(m.Sectors) == 0 || len(m.SubSectors) == 0 || len(m.Vertexes) == 0 {
		return fmt.Errorf("missing geometry")
	}
	for i, s := range m.Sides {
		if s.SectorNum < 0 || s.SectorNum >= len(m.Sectors) {
			return fmt.Errorf("side %d: bad sector %d", i, s.SectorNum)
		}
	}
	for i, l := range m.Lines {
		if l.V1 < 0 || l.V1 >= len(m.Vertexes) || l.V2 < 0 || l.V2 >= len(m.Vertexes) {
			return fmt.Errorf("line %d: bad vertex", i)
		}
		if l.SideR < 0 || l.SideR >= len(m.Sides) || l.SideL >= len(m.Sides) {
			return fmt.Errorf("line %d: bad side", i)
		}
	}
	for i, s := range m.Segs {
		if s.V1 < 0 || s.V1 >= len(m.Vertexes) || s.V2 < 0 || s.V2 >= len(m.Vertexes) || s.LineNum < 0 || s.LineNum >= len(m.Lines) {
			return fmt.Errorf("seg %d: bad reference", i)
		}
		if s.Direction != 0 && s.Direction != 1 {
			return fmt.Errorf("seg %d: bad direction %d", i, s.Direction)
		}
		l := m.Lines[s.LineNum]
		if s.Direction != 0 && l.SideL < 0 {
			return fmt.Errorf("seg %d: back side of one-sided line", i)
		}
	}
	for i, s := range m.SubSectors {
		if s.NumSegs == 0 || s.FirstSeg+s.NumSegs > len(m.Segs) {
			return fmt.Errorf("subsector %d: bad segs", i)
		}
	}
	for i, n := range m.Nodes {
		for _, c := range n.Children {
			if c&NodeSubSector != 0 {
				if c&^NodeSubSector >= len(m.SubSectors) {
					return fmt.Errorf("node %d: bad subsector child", i)
				}
			} else if c >= len(m.Nodes) {
				return fmt.Errorf("node %d: bad node child", i)
			}
		}
	}
	return nil
}
