package render

import (
	"slices"

	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
)

// clipRange is a run of screen columns already covered by solid walls.
type clipRange struct {
	first, last int
}

type bspState struct {
	solidSegs []clipRange // sorted, with sentinels at both ends
}

func (r *Renderer) clearClipSegs() {
	r.bsp.solidSegs = append(r.bsp.solidSegs[:0],
		clipRange{-0x7fffffff, -1},
		clipRange{r.view.width, 0x7fffffff})
}

// clipSolid passes the parts of first..last not yet covered to store, then
// marks the whole range covered.
func clipSolid(segs []clipRange, first, last int, store func(first, last int)) []clipRange {
	// Find the first range that touches the range (adjacent pixels are touching)
	start := 0
	for segs[start].last < first-1 {
		start++
	}
	if first < segs[start].first {
		if last < segs[start].first-1 {
			// Post is entirely visible, so insert a new clippost
			store(first, last)
			return slices.Insert(segs, start, clipRange{first, last})
		}
		// There is a fragment above start
		store(first, segs[start].first-1)
		segs[start].first = first
	}

	// Bottom contained in start?
	if last <= segs[start].last {
		return segs
	}
	next := start
	for last >= segs[next+1].first-1 {
		// There is a fragment between two posts
		store(segs[next].last+1, segs[next+1].first-1)
		next++
		if last <= segs[next].last {
			// Bottom is contained in next
			segs[start].last = segs[next].last
			return slices.Delete(segs, start+1, next+1)
		}
	}

	// There is a fragment after next
	store(segs[next].last+1, last)
	segs[start].last = last

	// Remove start+1 to next from the clip list, because start now covers
	// their area
	return slices.Delete(segs, start+1, next+1)
}

// clipPass passes the parts of first..last not yet covered to store without
// covering anything, for walls that can be seen through.
func clipPass(segs []clipRange, first, last int, store func(first, last int)) {
	start := 0
	for segs[start].last < first-1 {
		start++
	}
	if first < segs[start].first {
		if last < segs[start].first-1 {
			// Post is entirely visible
			store(first, last)
			return
		}
		// There is a fragment above start
		store(first, segs[start].first-1)
	}

	// Bottom contained in start?
	if last <= segs[start].last {
		return
	}
	for last >= segs[start+1].first-1 {
		// There is a fragment between two posts
		store(segs[start].last+1, segs[start+1].first-1)
		start++
		if last <= segs[start].last {
			return
		}
	}

	// There is a fragment after next
	store(segs[start].last+1, last)
}

// clipToView clips the view-relative angles of a span to the field of
// view. It reports false when the span is entirely outside.
func (r *Renderer) clipToView(angle1, angle2 fixed.Angle) (fixed.Angle, fixed.Angle, bool) {
	clip := r.view.clipAngle
	span := angle1 - angle2
	tspan := angle1 + clip
	if tspan > 2*clip {
		tspan -= 2 * clip
		// Totally off the left edge?
		if tspan >= span {
			return 0, 0, false
		}
		angle1 = clip
	}
	tspan = clip - angle2
	if tspan > 2*clip {
		tspan -= 2 * clip
		// Totally off the right edge?
		if tspan >= span {
			return 0, 0, false
		}
		angle2 = -clip
	}
	return angle1, angle2, true
}

// addLine clips a seg against the view and the solid walls so far, and
// stores the visible parts.
func (r *Renderer) addLine(line *Seg) {
	r.segs.curLine = line

	angle1 := r.pointToAngle(line.V1.X, line.V1.Y)
	angle2 := r.pointToAngle(line.V2.X, line.V2.Y)

	// Back side? I.e. backface culling?
	if angle1-angle2 >= fixed.Ang180 {
		return
	}

	// Global angle needed by segcalc
	r.segs.angle1 = angle1
	angle1, angle2, ok := r.clipToView(angle1-r.view.angle, angle2-r.view.angle)
	if !ok {
		return
	}

	// The seg is in the view range, but not necessarily visible
	x1 := r.view.viewAngleToX[(angle1+fixed.Ang90)>>fixed.AngleToFineShift]
	x2 := r.view.viewAngleToX[(angle2+fixed.Ang90)>>fixed.AngleToFineShift]

	// Does not cross a pixel?
	if x1 == x2 {
		return
	}

	front, back := r.segs.frontSector, line.Back
	r.segs.backSector = back
	switch {
	case back == nil:
		// Single sided line
	case back.CeilingHeight <= front.FloorHeight || back.FloorHeight >= front.CeilingHeight:
		// Closed door
	case back.CeilingHeight != front.CeilingHeight || back.FloorHeight != front.FloorHeight:
		// Window
		clipPass(r.bsp.solidSegs, x1, x2-1, r.storeWallRange)
		return
	case back.CeilingPic == front.CeilingPic && back.FloorPic == front.FloorPic &&
		back.LightLevel == front.LightLevel && line.Side.MidTexture == 0:
		// Reject empty lines used for triggers and special events
		return
	default:
		clipPass(r.bsp.solidSegs, x1, x2-1, r.storeWallRange)
		return
	}
	r.bsp.solidSegs = clipSolid(r.bsp.solidSegs, x1, x2-1, r.storeWallRange)
}

// checkcoord picks the two box corners that bound a box's silhouette,
// indexed by where the view point lies relative to the box.
var checkcoord = [12][4]int{
	{3, 0, 2, 1},
	{3, 0, 2, 0},
	{3, 1, 2, 0},
	{0},
	{2, 0, 2, 1},
	{0, 0, 0, 0},
	{3, 1, 3, 0},
	{0},
	{2, 0, 3, 1},
	{2, 1, 3, 1},
	{2, 1, 3, 0},
}

// checkBBox reports whether any part of the box may be visible.
func (r *Renderer) checkBBox(box *[4]fixed.Fixed) bool {
	v := &r.view

	// Find the corners of the box that define the edges from current viewpoint
	var boxx, boxy int
	switch {
	case v.x <= box[boxLeft]:
		boxx = 0
	case v.x < box[boxRight]:
		boxx = 1
	default:
		boxx = 2
	}
	switch {
	case v.y >= box[boxTop]:
		boxy = 0
	case v.y > box[boxBottom]:
		boxy = 1
	default:
		boxy = 2
	}
	boxpos := boxy<<2 + boxx
	if boxpos == 5 {
		return true
	}
	c := checkcoord[boxpos]
	x1, y1, x2, y2 := box[c[0]], box[c[1]], box[c[2]], box[c[3]]

	// Check clip list for an open space
	angle1 := r.pointToAngle(x1, y1) - v.angle
	angle2 := r.pointToAngle(x2, y2) - v.angle

	// Sitting on a line?
	if angle1-angle2 >= fixed.Ang180 {
		return true
	}
	angle1, angle2, ok := r.clipToView(angle1, angle2)
	if !ok {
		return false
	}

	// Find the first clippost that touches the source post (adjacent pixels
	// are touching)
	sx1 := v.viewAngleToX[(angle1+fixed.Ang90)>>fixed.AngleToFineShift]
	sx2 := v.viewAngleToX[(angle2+fixed.Ang90)>>fixed.AngleToFineShift]

	// Does not cross a pixel
	if sx1 == sx2 {
		return false
	}
	sx2--
	start := 0
	for r.bsp.solidSegs[start].last < sx2 {
		start++
	}
	// The clippost contains the new span
	return sx1 < r.bsp.solidSegs[start].first || sx2 > r.bsp.solidSegs[start].last
}

// subsector marks the planes of a subsector, projects its things and adds
// its segs.
func (r *Renderer) subsector(num int) {
	lev := r.level
	if num >= len(lev.SubSectors) {
		if r.cfg.RangeCheck {
			fatalf("subsector: ss %d with numss = %d", num, len(lev.SubSectors))
		}
		return
	}
	sub := &lev.SubSectors[num]
	front := sub.Sector
	r.segs.frontSector = front

	p := &r.planes
	p.floorPlane, p.ceilingPlane = nil, nil
	if front.FloorHeight < r.view.z {
		p.floorPlane = p.findPlane(front.FloorHeight, front.FloorPic, front.LightLevel, r.data.skyFlat)
	}
	if front.CeilingHeight > r.view.z || front.CeilingPic == r.data.skyFlat {
		p.ceilingPlane = p.findPlane(front.CeilingHeight, front.CeilingPic, front.LightLevel, r.data.skyFlat)
	}

	r.addSprites(front)
	for i := 0; i < sub.NumLines; i++ {
		r.addLine(&lev.Segs[sub.FirstLine+i])
	}
}

// renderBSPNode walks the tree front to back from node num, skipping back
// halves whose bounding box cannot be seen.
func (r *Renderer) renderBSPNode(num int) {
	if num < 0 {
		// A level with no nodes is one subsector
		r.subsector(0)
		return
	}
	if num&wad.NodeSubSector != 0 {
		r.subsector(num &^ wad.NodeSubSector)
		return
	}
	node := &r.level.Nodes[num]

	// Decide which side the view point is on
	side := PointOnSide(r.view.x, r.view.y, node)

	// Recursively divide front space
	r.renderBSPNode(node.Children[side])

	// Possibly divide back space
	if r.checkBBox(&node.BBox[side^1]) {
		r.renderBSPNode(node.Children[side^1])
	}
}
