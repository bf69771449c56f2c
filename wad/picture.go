package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/stuarthighley/wadrender/zone"
)

type binPatchImageHeader struct {
	Width, Height, LeftOffset, TopOffset int16
}

const patchHeaderSize = 8

// Patch is a view over a lump in the Doom picture format: a header, one
// offset per column, and run-length encoded posts. Sprites, wall patches and
// menu graphics all use it.
type Patch []byte

func (p Patch) Width() int      { return int(int16(binary.LittleEndian.Uint16(p[0:]))) }
func (p Patch) Height() int     { return int(int16(binary.LittleEndian.Uint16(p[2:]))) }
func (p Patch) LeftOffset() int { return int(int16(binary.LittleEndian.Uint16(p[4:]))) }
func (p Patch) TopOffset() int  { return int(int16(binary.LittleEndian.Uint16(p[6:]))) }

// ColumnOfs returns the byte offset of column x within the lump.
func (p Patch) ColumnOfs(x int) int {
	return int(binary.LittleEndian.Uint32(p[patchHeaderSize+4*x:]))
}

// Posts returns a reader over the posts of column x.
func (p Patch) Posts(x int) PostReader {
	return PostReader{data: p, ofs: p.ColumnOfs(x), top: -1}
}

// NewPostReader returns a reader over a bare post-encoded column, as found
// at a patch column offset.
func NewPostReader(column []byte) PostReader {
	return PostReader{data: column, top: -1}
}

// Validate checks that the header and column directory fit inside the lump.
func (p Patch) Validate() error {
	if len(p) < patchHeaderSize {
		return fmt.Errorf("patch too short: %d bytes", len(p))
	}
	w := p.Width()
	if w <= 0 || p.Height() <= 0 {
		return fmt.Errorf("bad patch size %dx%d", w, p.Height())
	}
	if len(p) < patchHeaderSize+4*w {
		return fmt.Errorf("patch column directory truncated")
	}
	for x := 0; x < w; x++ {
		if ofs := p.ColumnOfs(x); ofs < patchHeaderSize || ofs >= len(p) {
			return fmt.Errorf("column %d offset %d outside lump", x, ofs)
		}
	}
	return nil
}

// Post is one vertical run of opaque pixels.
type Post struct {
	TopDelta int // first row of the run
	Pixels   []byte
}

// PostReader iterates over the posts of a patch column. Patches taller than
// 254 rows store a top delta that does not increase as an offset from the
// previous post.
type PostReader struct {
	data []byte
	ofs  int
	top  int
}

// Next returns the next post, or false at the end of the column.
func (r *PostReader) Next() (Post, bool) {
	if r.ofs+1 >= len(r.data) || r.data[r.ofs] == 0xff {
		return Post{}, false
	}
	topDelta := int(r.data[r.ofs])
	if topDelta <= r.top {
		topDelta += r.top
	}
	r.top = topDelta
	length := int(r.data[r.ofs+1])
	start := r.ofs + 3 // skip the padding byte
	if start+length > len(r.data) {
		return Post{}, false
	}
	r.ofs = start + length + 1
	return Post{TopDelta: topDelta, Pixels: r.data[start : start+length]}, true
}

// The doom picture (image) format, expanded into full columns. Sometimes called a patch, but this
// code keeps Patch for the encoded lump.
type Picture struct {
	Name                  string // Useful for debugging
	Width, Height         int
	LeftOffset, TopOffset int // Allows soulspheres, weapons and keys to float
	Columns               []Column
}

// Rather than implement column posts, just set column to transparent and fill in post data.
type Column []byte

// DecodePicture expands a patch lump, filling rows no post covers with
// transparent.
func DecodePicture(lump []byte, transparent byte) (*Picture, error) {
	p := Patch(lump)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// Read patch lump header
	var header binPatchImageHeader
	if err := binary.Read(bytes.NewReader(lump), binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	// Initialise rectangular picture space to transparent
	columns := make([]Column, header.Width)
	for i := range columns {
		columns[i] = bytes.Repeat([]byte{transparent}, int(header.Height))
	}

	// For each column, expand out the posts
	for x := range columns {
		posts := p.Posts(x)
		for post, ok := posts.Next(); ok; post, ok = posts.Next() {
			if post.TopDelta < len(columns[x]) {
				copy(columns[x][post.TopDelta:], post.Pixels)
			}
		}
	}

	return &Picture{
		Width:      int(header.Width),
		Height:     int(header.Height),
		LeftOffset: int(header.LeftOffset),
		TopOffset:  int(header.TopOffset),
		Columns:    columns,
	}, nil
}

// Picture reads and expands the named patch lump.
func (w *WAD) Picture(name string, transparent byte) (*Picture, error) {
	lump := w.CheckNumForName(name)
	if lump < 0 {
		return nil, fmt.Errorf("%v lump not found", name)
	}
	pic, err := DecodePicture(w.CacheLumpNum(lump, zone.Cache), transparent)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	pic.Name = w.LumpName(lump)
	return pic, nil
}

// EncodePicture encodes pic in the patch format, leaving transparent pixels
// out of the posts.
func EncodePicture(pic *Picture, transparent byte) ([]byte, error) {
	if pic.Width <= 0 || pic.Height <= 0 || pic.Width > 0x7fff || pic.Height > 0x7fff {
		return nil, fmt.Errorf("cannot encode %dx%d picture", pic.Width, pic.Height)
	}
	var buf bytes.Buffer
	header := binPatchImageHeader{int16(pic.Width), int16(pic.Height), int16(pic.LeftOffset), int16(pic.TopOffset)}
	binary.Write(&buf, binary.LittleEndian, &header)
	offsets := make([]uint32, pic.Width)
	binary.Write(&buf, binary.LittleEndian, offsets)
	data := buf.Bytes()
	opaque := make([]bool, pic.Height)
	for x, column := range pic.Columns {
		offsets[x] = uint32(len(data))
		for y := range opaque {
			opaque[y] = y < len(column) && column[y] != transparent
		}
		data = AppendPosts(data, column, opaque)
	}
	for x, ofs := range offsets {
		binary.LittleEndian.PutUint32(data[patchHeaderSize+4*x:], ofs)
	}
	return data, nil
}

const maxPostLength = 128

// AppendPosts appends pixels to dst as a post-encoded column terminated by
// 0xff, with one post per run of opaque rows. Runs starting below row 254 are
// reached with empty step posts, using the relative top delta that tall
// patches rely on.
func AppendPosts(dst, pixels []byte, opaque []bool) []byte {
	prev := -1
	emit := func(top int, run []byte) {
		for {
			if top > prev && top <= 254 {
				dst = append(dst, byte(top))
				break
			}
			if rel := top - prev; prev >= 0 && rel <= prev && rel <= 254 {
				dst = append(dst, byte(rel))
				break
			}
			step := 254
			if prev >= 254 {
				step = prev + 254
			}
			dst = append(dst, 254, 0, 0, 0)
			prev = step
		}
		dst = append(dst, byte(len(run)), 0)
		dst = append(dst, run...)
		dst = append(dst, 0)
		prev = top
	}
	for y := 0; y < len(opaque); {
		if !opaque[y] {
			y++
			continue
		}
		start := y
		for y < len(opaque) && opaque[y] && y-start < maxPostLength {
			y++
		}
		emit(start, pixels[start:y])
	}
	return append(dst, 0xff)
}
