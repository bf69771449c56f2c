package render

import (
	"fmt"
	"slices"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
)

// Level is a map converted to fixed point geometry with textures and flats
// resolved to numbers.
type Level struct {
	Name       string
	Vertexes   []Vertex
	Sectors    []Sector
	Sides      []Side
	Lines      []Line
	Segs       []Seg
	SubSectors []SubSector
	Nodes      []Node
}

type Vertex struct {
	X, Y fixed.Fixed
}

type Sector struct {
	FloorHeight, CeilingHeight fixed.Fixed
	FloorPic, CeilingPic       int
	LightLevel                 int
	Special, Tag               int

	validCount int
	things     []*Mobj
}

type Side struct {
	TextureOffset fixed.Fixed
	RowOffset     fixed.Fixed
	TopTexture    int // 0 is no texture
	BottomTexture int
	MidTexture    int
	Sector        *Sector
}

type Line struct {
	V1, V2       *Vertex
	DX, DY       fixed.Fixed
	Flags        wad.LineFlags
	Special, Tag int
	Sides        [2]*Side // right, left; left is nil on one-sided lines
	Front, Back  *Sector
	Mapped       bool // some part has been drawn
}

type Seg struct {
	V1, V2      *Vertex
	Offset      fixed.Fixed
	Angle       fixed.Angle
	Side        *Side
	Line        *Line
	Front, Back *Sector // Back is nil for one-sided lines
}

type SubSector struct {
	Sector    *Sector
	NumLines  int
	FirstLine int
}

// Bounding box edges, in the order they are stored.
const (
	boxTop = iota
	boxBottom
	boxLeft
	boxRight
)

type Node struct {
	X, Y, DX, DY fixed.Fixed
	BBox         [2][4]fixed.Fixed // right, left
	Children     [2]int            // right, left; NodeSubSector marks a subsector
}

// LoadLevel converts m and makes it the level RenderPlayerView draws.
func (r *Renderer) LoadLevel(m *wad.Map) (*Level, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("level %v: %w", m.Name, err)
	}
	lev := &Level{Name: m.Name}

	lev.Vertexes = make([]Vertex, len(m.Vertexes))
	for i, v := range m.Vertexes {
		lev.Vertexes[i] = Vertex{fixed.FromInt(v.X), fixed.FromInt(v.Y)}
	}

	lev.Sectors = make([]Sector, len(m.Sectors))
	for i, s := range m.Sectors {
		floor, err := r.data.flatNum(s.FloorTextureName)
		if err != nil {
			return nil, fmt.Errorf("sector %d: %w", i, err)
		}
		ceiling, err := r.data.flatNum(s.CeilingTextureName)
		if err != nil {
			return nil, fmt.Errorf("sector %d: %w", i, err)
		}
		lev.Sectors[i] = Sector{
			FloorHeight:   fixed.FromInt(s.FloorHeight),
			CeilingHeight: fixed.FromInt(s.CeilingHeight),
			FloorPic:      floor,
			CeilingPic:    ceiling,
			LightLevel:    s.LightLevel,
			Special:       s.Type,
			Tag:           s.TagNum,
		}
	}

	lev.Sides = make([]Side, len(m.Sides))
	for i, s := range m.Sides {
		side := Side{
			TextureOffset: fixed.FromInt(s.XOffset),
			RowOffset:     fixed.FromInt(s.YOffset),
			Sector:        &lev.Sectors[s.SectorNum],
		}
		var err error
		for _, t := range []struct {
			name string
			num  *int
		}{
			{s.UpperTextureName, &side.TopTexture},
			{s.LowerTextureName, &side.BottomTexture},
			{s.MiddleTextureName, &side.MidTexture},
		} {
			if *t.num, err = r.data.textureNum(t.name); err != nil {
				return nil, fmt.Errorf("side %d: %w", i, err)
			}
		}
		lev.Sides[i] = side
	}

	lev.Lines = make([]Line, len(m.Lines))
	for i, l := range m.Lines {
		line := &lev.Lines[i]
		line.V1, line.V2 = &lev.Vertexes[l.V1], &lev.Vertexes[l.V2]
		line.DX, line.DY = line.V2.X-line.V1.X, line.V2.Y-line.V1.Y
		line.Flags, line.Special, line.Tag = l.Flags, l.Type, l.SectorTag
		line.Sides[0] = &lev.Sides[l.SideR]
		line.Front = line.Sides[0].Sector
		if l.SideL >= 0 {
			line.Sides[1] = &lev.Sides[l.SideL]
			line.Back = line.Sides[1].Sector
		}
	}

	lev.Segs = make([]Seg, len(m.Segs))
	for i, s := range m.Segs {
		line := &lev.Lines[s.LineNum]
		seg := &lev.Segs[i]
		seg.V1, seg.V2 = &lev.Vertexes[s.V1], &lev.Vertexes[s.V2]
		seg.Angle = fixed.Angle(s.Angle) << 16
		seg.Offset = fixed.FromInt(s.Offset)
		seg.Line = line
		seg.Side = line.Sides[s.Direction]
		seg.Front = seg.Side.Sector
		if line.Flags&wad.LineTwoSided != 0 && line.Sides[s.Direction^1] != nil {
			seg.Back = line.Sides[s.Direction^1].Sector
		}
	}

	lev.SubSectors = make([]SubSector, len(m.SubSectors))
	for i, s := range m.SubSectors {
		lev.SubSectors[i] = SubSector{
			Sector:    lev.Segs[s.FirstSeg].Side.Sector,
			NumLines:  s.NumSegs,
			FirstLine: s.FirstSeg,
		}
	}

	lev.Nodes = make([]Node, len(m.Nodes))
	for i, n := range m.Nodes {
		node := &lev.Nodes[i]
		node.X, node.Y = fixed.FromInt(n.X), fixed.FromInt(n.Y)
		node.DX, node.DY = fixed.FromInt(n.DX), fixed.FromInt(n.DY)
		for j, b := range n.BBox {
			node.BBox[j] = [4]fixed.Fixed{
				boxTop:    fixed.FromInt(b.Top),
				boxBottom: fixed.FromInt(b.Bottom),
				boxLeft:   fixed.FromInt(b.Left),
				boxRight:  fixed.FromInt(b.Right),
			}
		}
		node.Children = n.Children
	}

	r.level = lev
	logger.Printf("Loaded level %v: %d segs, %d subsectors, %d nodes",
		lev.Name, len(lev.Segs), len(lev.SubSectors), len(lev.Nodes))
	return lev, nil
}

// PointInSubsector walks the BSP tree to the subsector containing x, y.
func (lev *Level) PointInSubsector(x, y fixed.Fixed) *SubSector {
	// A single subsector is a special case
	if len(lev.Nodes) == 0 {
		return &lev.SubSectors[0]
	}
	num := len(lev.Nodes) - 1
	for num&wad.NodeSubSector == 0 {
		node := &lev.Nodes[num]
		num = node.Children[PointOnSide(x, y, node)]
	}
	return &lev.SubSectors[num&^wad.NodeSubSector]
}

// LinkThing adds mo to the thing list of the sector it stands in.
func (lev *Level) LinkThing(mo *Mobj) {
	mo.sector = lev.PointInSubsector(mo.X, mo.Y).Sector
	mo.sector.things = append(mo.sector.things, mo)
}

// UnlinkThing removes mo from its sector.
func (lev *Level) UnlinkThing(mo *Mobj) {
	if mo.sector == nil {
		return
	}
	things := mo.sector.things
	if i := slices.Index(things, mo); i >= 0 {
		mo.sector.things = slices.Delete(things, i, i+1)
	}
	mo.sector = nil
}

// MoveThing records the current position for interpolation, moves mo and
// relinks it.
func (lev *Level) MoveThing(mo *Mobj, x, y, z fixed.Fixed, angle fixed.Angle) {
	mo.OldX, mo.OldY, mo.OldZ, mo.OldAngle = mo.X, mo.Y, mo.Z, mo.Angle
	lev.UnlinkThing(mo)
	mo.X, mo.Y, mo.Z, mo.Angle = x, y, z, angle
	mo.Interp = true
	lev.LinkThing(mo)
}

// Sector returns the sector mo is linked into, or nil.
func (mo *Mobj) Sector() *Sector {
	return mo.sector
}
