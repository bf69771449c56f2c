package wad

import (
	"fmt"
	"io"
)

// PrintTree prints the level's BSP tree, root first, in a clear format
func (m *Map) PrintTree(w io.Writer) {
	var printRecursive func(int, string)
	printRecursive = func(child int, prefix string) {
		if child&NodeSubSector != 0 {
			s := m.SubSectors[child&^NodeSubSector]
			fmt.Fprintf(w, "%s- subsector %d: segs %d+%d\n", prefix, child&^NodeSubSector, s.FirstSeg, s.NumSegs)
			return
		}
		n := m.Nodes[child]
		fmt.Fprintf(w, "%s- node %d: (%d,%d) d(%d,%d)\n", prefix, child, n.X, n.Y, n.DX, n.DY)
		printRecursive(n.Children[0], prefix+"   ")
		printRecursive(n.Children[1], prefix+"   ")
	}

	// A level with a single subsector has no nodes
	if len(m.Nodes) == 0 {
		printRecursive(NodeSubSector, "")
		return
	}
	printRecursive(len(m.Nodes)-1, "")
}
