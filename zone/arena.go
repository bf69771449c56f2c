package zone

import (
	"fmt"
	"io"
)

type arenaBlock struct {
	offset     int // start of the block header within the arena
	size       int // including header
	tag        Tag
	id         int
	user       *[]byte
	req        int // bytes requested by the caller
	prev, next *arenaBlock
}

// arenaZone is the classic zone: one contiguous arena describing a circular,
// address-ordered list of blocks. Free neighbours are always merged, so two
// free blocks are never adjacent.
type arenaZone struct {
	mem       []byte
	base      uintptr
	blocklist arenaBlock // sentinel, never free
	rover     *arenaBlock
	byOffset  map[int]*arenaBlock
}

func newArenaZone(size int) *arenaZone {
	logger.Printf("zone: arena allocator, %d bytes", size)
	z := &arenaZone{
		mem:      make([]byte, size),
		byOffset: make(map[int]*arenaBlock),
	}
	z.base = address(z.mem)
	z.clear()
	return z
}

// clear resets the arena to a single free block.
func (z *arenaZone) clear() {
	for _, b := range z.byOffset {
		if b.user != nil && b.tag != Free {
			*b.user = nil
		}
	}
	clear(z.byOffset)
	block := &arenaBlock{offset: 0, size: len(z.mem), tag: Free}
	z.blocklist = arenaBlock{offset: len(z.mem), tag: Static}
	z.blocklist.next = block
	z.blocklist.prev = block
	block.prev = &z.blocklist
	block.next = &z.blocklist
	z.rover = block
	z.byOffset[0] = block
}

func (z *arenaZone) data(b *arenaBlock) []byte {
	start := b.offset + HeaderSize
	return z.mem[start : start+b.req : b.offset+b.size]
}

func (z *arenaZone) lookup(p []byte) *arenaBlock {
	addr := address(p)
	if addr < z.base+HeaderSize || addr >= z.base+uintptr(len(z.mem)) {
		return nil
	}
	b := z.byOffset[int(addr-z.base)-HeaderSize]
	if b == nil || b.id != ZoneID {
		return nil
	}
	return b
}

// release frees b, merging it with free neighbours. It returns the free
// block that now covers b.
func (z *arenaZone) release(b *arenaBlock) *arenaBlock {
	if b.tag != Free && b.user != nil {
		*b.user = nil
	}
	b.tag = Free
	b.user = nil
	b.id = 0
	b.req = 0

	if other := b.prev; other.tag == Free {
		// merge with previous free block
		other.size += b.size
		other.next = b.next
		other.next.prev = other
		if b == z.rover {
			z.rover = other
		}
		delete(z.byOffset, b.offset)
		b = other
	}
	if other := b.next; other.tag == Free {
		// merge the next free block onto the end
		b.size += other.size
		b.next = other.next
		b.next.prev = b
		if other == z.rover {
			z.rover = b
		}
		delete(z.byOffset, other.offset)
	}
	return b
}

func (z *arenaZone) Free(p []byte) {
	b := z.lookup(p)
	if b == nil {
		fatalf("Z_Free: freed a pointer without ZONEID")
	}
	z.release(b)
}

func (z *arenaZone) Malloc(size int, tag Tag, user *[]byte) []byte {
	if size < 0 {
		fatalf("Z_Malloc: bad size %d", size)
	}
	if tag <= 0 || tag >= numTags || tag == Free {
		fatalf("Z_Malloc: bad tag %v", tag)
	}
	if user == nil && tag >= PurgeLevel {
		fatalf("Z_Malloc: an owner is required for purgable blocks")
	}
	need := alignSize(size) + HeaderSize

	// scan through the block list, looking for the first free block of
	// sufficient size, throwing out any purgable blocks along the way
	base := z.rover
	if base.prev.tag == Free {
		base = base.prev
	}
	rover := base
	start := base.prev
	for {
		if rover == start {
			// scanned all the way around the list
			fatalf("Z_Malloc: failed on allocation of %d bytes", size)
		}
		if rover.tag != Free {
			if rover.tag < PurgeLevel {
				// hit a block that can't be purged, so move base past it
				base = rover.next
				rover = base
			} else {
				// free the rover block (adding the size to base);
				// the rover can be the base block
				base = base.prev
				z.release(rover)
				base = base.next
				rover = base.next
			}
		} else {
			rover = rover.next
		}
		if base.tag == Free && base.size >= need {
			break
		}
	}

	// found a block big enough
	if extra := base.size - need; extra > MinFragment {
		// there will be a free fragment after the allocated block
		nb := &arenaBlock{
			offset: base.offset + need,
			size:   extra,
			tag:    Free,
			prev:   base,
			next:   base.next,
		}
		nb.next.prev = nb
		base.next = nb
		base.size = need
		z.byOffset[nb.offset] = nb
	}

	base.user = user
	base.tag = tag
	base.req = size
	base.id = ZoneID
	result := z.data(base)
	clear(result[:cap(result)])
	if user != nil {
		*user = result
	}

	// next allocation will start looking here
	z.rover = base.next
	return result
}

func (z *arenaZone) FreeTags(low, high Tag) {
	for b := z.blocklist.next; b != &z.blocklist; {
		if b.tag == Free || b.tag < low || b.tag > high {
			b = b.next
			continue
		}
		// the merged block is free, so its successor is the next candidate
		b = z.release(b).next
	}
}

func (z *arenaZone) ChangeTag(p []byte, tag Tag) {
	b := z.lookup(p)
	if b == nil {
		fatalf("Z_ChangeTag: block without a ZONEID!")
	}
	if tag >= PurgeLevel && b.user == nil {
		fatalf("Z_ChangeTag: an owner is required for purgable blocks")
	}
	b.tag = tag
}

func (z *arenaZone) ChangeUser(p []byte, user *[]byte) {
	b := z.lookup(p)
	if b == nil {
		fatalf("Z_ChangeUser: Tried to change user for invalid block!")
	}
	b.user = user
	*user = p
}

func (z *arenaZone) CheckHeap() {
	for b := z.blocklist.next; ; b = b.next {
		if b.next == &z.blocklist {
			// all blocks have been hit
			if b.offset+b.size != len(z.mem) {
				fatalf("Z_CheckHeap: last block does not reach the end of the zone")
			}
			break
		}
		if b.offset+b.size != b.next.offset {
			fatalf("Z_CheckHeap: block size does not touch the next block")
		}
		if b.next.prev != b {
			fatalf("Z_CheckHeap: next block doesn't have proper back link")
		}
		if b.tag == Free && b.next.tag == Free {
			fatalf("Z_CheckHeap: two consecutive free blocks")
		}
	}
}

func (z *arenaZone) FreeMemory() int {
	free := 0
	for b := z.blocklist.next; b != &z.blocklist; b = b.next {
		if b.tag == Free || b.tag >= PurgeLevel {
			free += b.size
		}
	}
	return free
}

func (z *arenaZone) ZoneSize() int {
	return len(z.mem)
}

func (z *arenaZone) DumpHeap(w io.Writer, low, high Tag) {
	fmt.Fprintf(w, "zone size: %d  location: %#x\n", len(z.mem), z.base)
	fmt.Fprintf(w, "tag range: %v to %v\n", low, high)
	for b := z.blocklist.next; ; b = b.next {
		if b.tag >= low && b.tag <= high {
			fmt.Fprintf(w, "block:%8d    size:%7d    user:%t    tag:%v\n",
				b.offset, b.size, b.user != nil, b.tag)
		}
		if b.next == &z.blocklist {
			break
		}
		if b.offset+b.size != b.next.offset {
			fmt.Fprintln(w, "ERROR: block size does not touch the next block")
		}
		if b.next.prev != b {
			fmt.Fprintln(w, "ERROR: next block doesn't have proper back link")
		}
		if b.tag == Free && b.next.tag == Free {
			fmt.Fprintln(w, "ERROR: two consecutive free blocks")
		}
	}
}
