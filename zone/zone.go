// Package zone implements the tagged memory allocator that backs the renderer's
// working set: lump caches, composite textures, lookup tables and the view
// background buffer.
//
// Every block carries a tag. Blocks tagged PurgeLevel or above may be reclaimed
// whenever an allocation cannot otherwise be satisfied; such blocks must be
// registered with an owner slot, which the allocator clears when the block goes
// away so that stale references self-invalidate.
package zone

import (
	"fmt"
	"io"
	"unsafe"
)

// Tag classifies an allocation and governs when it may be reclaimed.
type Tag int

const (
	Static     Tag = iota + 1 // static entire execution time
	Sound                     // static while playing
	Music                     // static while playing
	Free                      // a free block
	Level                     // static until level exited
	LevSpec                   // a special thinker in a level
	PurgeLevel                // tags >= PurgeLevel are purgable whenever needed
	Cache
	numTags
)

var tagNames = map[Tag]string{
	Static:     "static",
	Sound:      "sound",
	Music:      "music",
	Free:       "free",
	Level:      "level",
	LevSpec:    "levspec",
	PurgeLevel: "purgelevel",
	Cache:      "cache",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

const (
	// ZoneID is the sentinel stamped on every live block.
	ZoneID = 0x1d4a11

	// HeaderSize is the per-block bookkeeping overhead charged against the
	// zone, matching a 64-bit block header.
	HeaderSize = 40

	// MinFragment is the smallest remainder worth splitting off a free block.
	MinFragment = 64

	memAlign = 8
)

// Allocator is the contract shared by both zone backends.
type Allocator interface {
	// Malloc returns size bytes tagged tag. If user is non-nil the result is
	// also stored in *user, and *user is cleared when the block is freed or
	// purged. Purgable tags require a user. Malloc never fails: when memory
	// cannot be found even after purging it aborts.
	Malloc(size int, tag Tag, user *[]byte) []byte

	// Free releases a block returned by Malloc.
	Free(p []byte)

	// FreeTags releases every block whose tag lies in [low, high].
	FreeTags(low, high Tag)

	// ChangeTag reclassifies a block in place.
	ChangeTag(p []byte, tag Tag)

	// ChangeUser points the block's owner slot at user and stores p in it.
	ChangeUser(p []byte, user *[]byte)

	// CheckHeap validates allocator bookkeeping and aborts on corruption.
	CheckHeap()

	// FreeMemory reports the bytes that are free or purgable.
	FreeMemory() int

	// ZoneSize reports the capacity of the zone, 0 if unbounded.
	ZoneSize() int

	// DumpHeap writes a listing of the blocks whose tags are in [low, high].
	DumpHeap(w io.Writer, low, high Tag)
}

// Backend selects an Allocator implementation.
type Backend int

const (
	// Native allocates every block from the Go heap and enforces an optional
	// byte budget.
	Native Backend = iota
	// Arena carves every block out of one preallocated byte arena.
	Arena
)

func (b Backend) String() string {
	switch b {
	case Native:
		return "native"
	case Arena:
		return "arena"
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// ParseBackend maps a command line name to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "native":
		return Native, nil
	case "arena":
		return Arena, nil
	}
	return Native, fmt.Errorf("unknown zone backend %q", s)
}

// Config selects and sizes a zone.
type Config struct {
	Backend Backend
	// Size is the arena size, or the native byte budget (0 means unbounded).
	Size int
}

// DefaultSize is the arena size used when Config.Size is zero.
const DefaultSize = 16 * 1024 * 1024

// New creates an allocator for cfg.
func New(cfg Config) Allocator {
	switch cfg.Backend {
	case Arena:
		size := cfg.Size
		if size <= 0 {
			size = DefaultSize
		}
		return newArenaZone(size)
	default:
		return newNativeZone(cfg.Size)
	}
}

func alignSize(size int) int {
	if size < memAlign {
		return memAlign
	}
	return (size + memAlign - 1) &^ (memAlign - 1)
}

func address(p []byte) uintptr {
	if cap(p) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(p)))
}
