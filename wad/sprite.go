package wad

import (
	"sort"
)

// Sprites are patches with a special naming convention so they can be recognized by R_InitSprites.
// The base name is NNNNFx or NNNNFxFx, with x indicating the rotation, x = 0, 1-8, or 9-G for
// sixteen rotations. A second FxFx pair means the patch is also used mirrored for that frame
// and rotation. Some sprites will only have one picture used for all views: NNNNF0

// SpriteLumps returns the lump numbers between S_START and S_END, skipping
// nested markers.
func (w *WAD) SpriteLumps() ([]int, error) {
	return w.markedLumps("S_START", "S_END")
}

// FlatLumps returns the lump numbers between F_START and F_END. Flats are
// raw 64x64 tiles.
func (w *WAD) FlatLumps() ([]int, error) {
	return w.markedLumps("F_START", "F_END")
}

func (w *WAD) markedLumps(start, end string) ([]int, error) {
	first, last, err := w.Markers(start, end)
	if err != nil {
		return nil, err
	}
	lumps := make([]int, 0, last-first)
	for i := first; i < last; i++ {
		// Skip marker lumps
		if w.lumpInfos[i].Size == 0 {
			continue
		}
		lumps = append(lumps, i)
	}
	return lumps, nil
}

// SpriteNames returns the distinct four letter sprite prefixes, sorted.
func (w *WAD) SpriteNames() ([]string, error) {
	lumps, err := w.SpriteLumps()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, lump := range lumps {
		name := w.lumpInfos[lump].Name
		if len(name) < 6 || seen[name[:4]] {
			continue
		}
		seen[name[:4]] = true
		names = append(names, name[:4])
	}
	sort.Strings(names)
	return names, nil
}

const FlatWidth, FlatHeight = 64, 64
