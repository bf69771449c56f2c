// Package wad provides access to Doom's data archives also known as WAD files.
// The file format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html
//
// Lumps are read on demand into a zone allocator. The renderer holds on to
// the returned byte slices only as long as their zone tag allows.
package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/stuarthighley/wadrender/zone"
)

// WAD is a struct that represents Doom's data archive that contains graphics, sounds, and level
// data. The data is organized as named lumps.
type WAD struct {
	header    Header
	file      io.ReadSeeker
	closer    io.Closer
	lumpInfos []LumpInfo
	lumpNums  map[string]int
	levels    map[string]int
	zone      zone.Allocator
	lumpCache [][]byte // zone user slots, one per lump
}

type binHeader struct {
	Magic        [4]byte
	NumLumps     int32
	InfoTableOfs int32
}

type Header struct {
	Type         string // IWAD or PWAD
	NumLumps     int
	InfoTableOfs int
}

type binLumpInfo struct {
	Filepos int32
	Size    int32
	Name    String8
}

type LumpInfo struct {
	Name    string
	Filepos int
	Size    int
}

// WAD eight-character string type. Null-terminated for short strings.
type String8 [8]byte

// String converts String8 to string
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(s[0:i])
}

// Special lump names
const SkyFlatName = "F_SKY1"

// Open opens a WAD file from disk. Close releases the file.
func Open(filename string, z zone.Allocator) (*WAD, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	w, err := New(file, z)
	if err != nil {
		file.Close()
		return nil, err
	}
	w.closer = file
	return w, nil
}

// New reads the WAD header and lump directory from r. Lump data is read
// later, when it is cached.
func New(r io.ReadSeeker, z zone.Allocator) (*WAD, error) {
	logger.Println("Start reading WAD")

	w := &WAD{file: r, zone: z}

	// Read header
	if err := w.seek(0); err != nil {
		return nil, err
	}
	var binHeader binHeader
	if err := binary.Read(r, binary.LittleEndian, &binHeader); err != nil {
		return nil, err
	}
	magic := string(binHeader.Magic[:])
	if magic != "IWAD" && magic != "PWAD" {
		return nil, fmt.Errorf("bad magic: %q", magic)
	}
	if binHeader.NumLumps < 0 || binHeader.InfoTableOfs < 0 {
		return nil, fmt.Errorf("bad directory: %d lumps at %d", binHeader.NumLumps, binHeader.InfoTableOfs)
	}
	w.header = Header{magic, int(binHeader.NumLumps), int(binHeader.InfoTableOfs)}

	// Read info tables
	if err := w.readInfoTables(); err != nil {
		return nil, err
	}
	w.lumpCache = make([][]byte, len(w.lumpInfos))

	logger.Printf("%v: %v lumps, %v levels", magic, len(w.lumpInfos), len(w.levels))
	return w, nil
}

// Close releases the underlying file, if the WAD was opened from disk.
func (w *WAD) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

func (w *WAD) readInfoTables() error {
	if err := w.seek(int64(w.header.InfoTableOfs)); err != nil {
		return err
	}
	lumpNums := map[string]int{}
	levels := map[string]int{}
	lumpInfos := make([]LumpInfo, w.header.NumLumps)
	for i := 0; i < w.header.NumLumps; i++ {
		var binInfo binLumpInfo
		if err := binary.Read(w.file, binary.LittleEndian, &binInfo); err != nil {
			return err
		}
		lumpInfo := LumpInfo{strings.ToUpper(binInfo.Name.String()), int(binInfo.Filepos), int(binInfo.Size)}
		if lumpInfo.Name == "THINGS" && i > 0 {
			levels[lumpInfos[i-1].Name] = i - 1
		}
		// Later lumps override earlier ones of the same name
		lumpNums[lumpInfo.Name] = i
		lumpInfos[i] = lumpInfo
	}
	w.levels = levels
	w.lumpNums = lumpNums
	w.lumpInfos = lumpInfos
	return nil
}

// Header returns the WAD header.
func (w *WAD) Header() Header {
	return w.header
}

// NumLumps returns the number of lumps in the directory.
func (w *WAD) NumLumps() int {
	return len(w.lumpInfos)
}

// CheckNumForName returns the lump number of name, or -1 if it is missing.
func (w *WAD) CheckNumForName(name string) int {
	if n, ok := w.lumpNums[strings.ToUpper(name)]; ok {
		return n
	}
	return -1
}

// GetNumForName is CheckNumForName for lumps that must exist.
func (w *WAD) GetNumForName(name string) int {
	n := w.CheckNumForName(name)
	if n < 0 {
		fatalf("GetNumForName: %s not found", name)
	}
	return n
}

func (w *WAD) LumpName(lump int) string {
	return w.info(lump).Name
}

func (w *WAD) LumpLength(lump int) int {
	return w.info(lump).Size
}

func (w *WAD) info(lump int) *LumpInfo {
	if lump < 0 || lump >= len(w.lumpInfos) {
		fatalf("lump %d out of range (%d lumps)", lump, len(w.lumpInfos))
	}
	return &w.lumpInfos[lump]
}

// ReadLump reads a lump into a freshly allocated slice, bypassing the cache.
func (w *WAD) ReadLump(lump int) ([]byte, error) {
	lumpInfo := w.info(lump)
	data := make([]byte, lumpInfo.Size)
	if err := w.readLump(lumpInfo, data); err != nil {
		return nil, err
	}
	return data, nil
}

// CacheLumpNum returns the lump's data, reading it into the zone when it is
// not already cached. A cached lump is retagged with tag.
func (w *WAD) CacheLumpNum(lump int, tag zone.Tag) []byte {
	lumpInfo := w.info(lump)
	if w.lumpCache[lump] == nil {
		data := w.zone.Malloc(lumpInfo.Size, tag, &w.lumpCache[lump])
		if err := w.readLump(lumpInfo, data); err != nil {
			fatalf("CacheLumpNum: %s: %v", lumpInfo.Name, err)
		}
	} else {
		w.zone.ChangeTag(w.lumpCache[lump], tag)
	}
	return w.lumpCache[lump]
}

func (w *WAD) CacheLumpName(name string, tag zone.Tag) []byte {
	return w.CacheLumpNum(w.GetNumForName(name), tag)
}

// ReleaseLumpNum makes a cached lump purgeable.
func (w *WAD) ReleaseLumpNum(lump int) {
	w.info(lump)
	if data := w.lumpCache[lump]; data != nil {
		w.zone.ChangeTag(data, zone.Cache)
	}
}

func (w *WAD) ReleaseLumpName(name string) {
	w.ReleaseLumpNum(w.GetNumForName(name))
}

// Markers returns the lump range strictly between the start and end marker
// lumps, for example F_START and F_END.
func (w *WAD) Markers(start, end string) (first, last int, err error) {
	startLump := w.CheckNumForName(start)
	if startLump < 0 {
		return 0, 0, fmt.Errorf("%v not found", start)
	}
	endLump := w.CheckNumForName(end)
	if endLump < 0 {
		return 0, 0, fmt.Errorf("%v not found", end)
	}
	if endLump < startLump {
		return 0, 0, fmt.Errorf("%v before %v", end, start)
	}
	return startLump + 1, endLump, nil
}

// LevelNames returns a slice of level names found in the WAD archive.
func (w *WAD) LevelNames() []string {
	result := make([]string, 0, len(w.levels))
	for name := range w.levels {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// seek
func (w *WAD) seek(offset int64) error {
	off, err := w.file.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	if off != offset {
		return fmt.Errorf("seek failed")
	}
	return nil
}

// Read entire lump
func (w *WAD) readLump(lumpInfo *LumpInfo, data []byte) error {
	if err := w.seek(int64(lumpInfo.Filepos)); err != nil {
		return err
	}
	if _, err := io.ReadFull(w.file, data[:lumpInfo.Size]); err != nil {
		return fmt.Errorf("truncated lump %v: %w", lumpInfo.Name, err)
	}
	return nil
}
