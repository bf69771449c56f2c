package render

import (
	"bytes"
	"testing"

	"github.com/stuarthighley/wadrender/wad"
	"github.com/stuarthighley/wadrender/zone"
)

func TestTextureLookup(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	d := r.data
	for _, name := range []string{"", "-"} {
		if num, err := d.textureNum(name); num != 0 || err != nil {
			t.Errorf("textureNum(%q) = %d, %v", name, num, err)
		}
	}
	if num, err := d.textureNum("wall"); num != 1 || err != nil {
		t.Errorf("textureNum(wall) = %d, %v", num, err)
	}
	if _, err := d.textureNum("NOPE"); err == nil {
		t.Error("expected error for a missing texture")
	}
	if _, err := d.flatNum("NOPE"); err == nil {
		t.Error("expected error for a missing flat")
	}
	if d.skyTexture != 2 || d.skyFlat != 2 {
		t.Errorf("sky texture %d flat %d", d.skyTexture, d.skyFlat)
	}
}

func TestComposite(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend.String(), func(t *testing.T) {
			r := newTestRenderer(t, backend, DefaultConfig())
			d := r.data
			col := d.getColumn(1, -1)
			if len(col) != 128 || bytes.Count(col, []byte{wallPixel}) != 128 {
				t.Errorf("wall column %v", col)
			}
			var rows int
			posts := wad.NewPostReader(d.getMaskedColumn(1, 70))
			for post, ok := posts.Next(); ok; post, ok = posts.Next() {
				if post.TopDelta != rows {
					t.Errorf("post at %d after %d rows", post.TopDelta, rows)
				}
				rows += len(post.Pixels)
			}
			if rows != 128 {
				t.Errorf("masked column covers %d rows", rows)
			}

			// A purged composite is rebuilt on the next use
			d.zone.FreeTags(zone.PurgeLevel, zone.Cache)
			if d.textures[1].composite != nil {
				t.Fatal("purge did not clear the composite")
			}
			if col := d.getColumn(1, 0); col[0] != wallPixel {
				t.Errorf("rebuilt column %v", col)
			}
		})
	}
}

func TestTranslation(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	gray := r.data.translation(1 << MFTransShift)
	red := r.data.translation(3 << MFTransShift)
	if gray[0x70] != 0x60 || red[0x7f] != 0x2f || gray[0x10] != 0x10 {
		t.Errorf("translations %x %x %x", gray[0x70], red[0x7f], gray[0x10])
	}
}

func TestLoadLevelErrors(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	m := squareRoom("CEIL")
	m.Sides[2].UpperTextureName = "MISSING"
	if _, err := r.LoadLevel(m); err == nil {
		t.Error("expected error for a missing texture")
	}
	m = squareRoom("NOFLAT")
	if _, err := r.LoadLevel(m); err == nil {
		t.Error("expected error for a missing flat")
	}

	lev, err := r.LoadLevel(squareRoom("CEIL"))
	if err != nil {
		t.Fatal(err)
	}
	if ss := lev.PointInSubsector(0, 0); ss != &lev.SubSectors[0] {
		t.Error("single subsector level")
	}
	mo := &Mobj{}
	lev.LinkThing(mo)
	lev.MoveThing(mo, 10, 20, 0, 0)
	if mo.Sector() != &lev.Sectors[0] || len(lev.Sectors[0].things) != 1 {
		t.Error("moved thing must stay linked once")
	}
	lev.UnlinkThing(mo)
	if len(lev.Sectors[0].things) != 0 {
		t.Error("unlink")
	}
}

func TestLoadLevelBadSegDirection(t *testing.T) {
	r := newTestRenderer(t, zone.Native, DefaultConfig())
	m := squareRoom("CEIL")
	m.Segs[0].Direction = 2
	if _, err := r.LoadLevel(m); err == nil {
		t.Error("expected error for a seg direction other than 0 or 1")
	}
}
