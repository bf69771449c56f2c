package render

import (
	"github.com/stuarthighley/wadrender/fixed"
	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

// wrapColumn maps any texture column, negative included, into the width.
func (t *texture) wrapColumn(col int) int {
	col %= t.width
	if col < 0 {
		col += t.width
	}
	return col
}

// getColumn returns the pixels of one texture column, height bytes.
func (d *renderData) getColumn(num, col int) []byte {
	t := &d.textures[num]
	col = t.wrapColumn(col)
	if t.composite == nil {
		d.generateComposite(t)
	}
	return t.composite[col*t.height : (col+1)*t.height]
}

// getMaskedColumn returns one texture column as posts, leaving out the
// rows no patch covers.
func (d *renderData) getMaskedColumn(num, col int) []byte {
	t := &d.textures[num]
	col = t.wrapColumn(col)
	if t.composite == nil {
		d.generateComposite(t)
	}
	return t.composite[t.postOfs[col]:]
}

// generateComposite draws every patch of t into a fresh composite block.
// Patches are clipped to the texture rectangle.
func (d *renderData) generateComposite(t *texture) {
	pixels := make([]byte, t.width*t.height)
	opaque := make([]bool, len(pixels))
	for _, tp := range t.patches {
		patch := wad.Patch(d.wad.CacheLumpNum(tp.Lump, zone.Cache))
		x1 := tp.XOffset
		for x := max(x1, 0); x < min(x1+patch.Width(), t.width); x++ {
			column := x * t.height
			posts := patch.Posts(x - x1)
			for post, ok := posts.Next(); ok; post, ok = posts.Next() {
				y := tp.YOffset + post.TopDelta
				src := post.Pixels
				if y < 0 {
					if -y >= len(src) {
						continue
					}
					src, y = src[-y:], 0
				}
				if y >= t.height {
					continue
				}
				src = src[:min(len(src), t.height-y)]
				copy(pixels[column+y:], src)
				for i := range src {
					opaque[column+y+i] = true
				}
			}
		}
	}

	data := pixels
	t.postOfs = make([]int, t.width)
	for x := 0; x < t.width; x++ {
		t.postOfs[x] = len(data)
		column := x * t.height
		data = wad.AppendPosts(data, pixels[column:column+t.height], opaque[column:column+t.height])
	}
	copy(d.zone.Malloc(len(data), zone.Cache, &t.composite), data)
}

func (d *renderData) textureHeight(num int) fixed.Fixed {
	return fixed.FromInt(d.textures[num].height)
}
