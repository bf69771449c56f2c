package zone

import (
	"fmt"
	"io"
)

type nativeBlock struct {
	data       []byte
	size       int // including header
	tag        Tag
	id         int
	user       *[]byte
	prev, next *nativeBlock
}

// nativeZone keeps one list per tag. New blocks go to the head of their list,
// so the tail of the cache list holds the blocks unused for the longest time.
type nativeZone struct {
	budget int
	used   int
	lists  [numTags]*nativeBlock
	blocks map[uintptr]*nativeBlock
}

func newNativeZone(budget int) *nativeZone {
	logger.Printf("zone: native allocator, budget %d bytes", budget)
	return &nativeZone{
		budget: budget,
		blocks: make(map[uintptr]*nativeBlock),
	}
}

func (z *nativeZone) insert(b *nativeBlock) {
	b.prev = nil
	b.next = z.lists[b.tag]
	if b.next != nil {
		b.next.prev = b
	}
	z.lists[b.tag] = b
}

func (z *nativeZone) remove(b *nativeBlock) {
	if b.prev == nil {
		z.lists[b.tag] = b.next
	} else {
		b.prev.next = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	b.prev, b.next = nil, nil
}

func (z *nativeZone) lookup(p []byte, op string) *nativeBlock {
	b, ok := z.blocks[address(p)]
	if !ok || b.id != ZoneID {
		fatalf("%s: freed a pointer without ZONEID", op)
	}
	return b
}

// clearCache purges purgable blocks, oldest first, until at least size bytes
// have been released. It reports false when nothing was purgable.
func (z *nativeZone) clearCache(size int) bool {
	freed := false
	for _, tag := range []Tag{Cache, PurgeLevel} {
		b := z.lists[tag]
		if b == nil {
			continue
		}
		for b.next != nil {
			b = b.next
		}
		for size > 0 && b != nil {
			prev := b.prev
			size -= b.size
			z.release(b)
			freed = true
			b = prev
		}
		if size <= 0 {
			break
		}
	}
	return freed
}

func (z *nativeZone) release(b *nativeBlock) {
	z.remove(b)
	if b.user != nil {
		*b.user = nil
	}
	delete(z.blocks, address(b.data))
	z.used -= b.size
	b.id = 0
	b.tag = Free
	b.user = nil
}

func (z *nativeZone) Malloc(size int, tag Tag, user *[]byte) []byte {
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
	for z.budget > 0 && z.used+need > z.budget {
		if need > z.budget || !z.clearCache(z.used+need-z.budget) {
			fatalf("Z_Malloc: failed on allocation of %d bytes", size)
		}
	}

	backing := make([]byte, alignSize(size))
	b := &nativeBlock{
		data: backing[:size],
		size: need,
		tag:  tag,
		id:   ZoneID,
		user: user,
	}
	z.insert(b)
	z.blocks[address(b.data)] = b
	z.used += need
	if user != nil {
		*user = b.data
	}
	return b.data
}

func (z *nativeZone) Free(p []byte) {
	z.release(z.lookup(p, "Z_Free"))
}

func (z *nativeZone) FreeTags(low, high Tag) {
	for tag := max(low, Static); tag <= high && tag < numTags; tag++ {
		if tag == Free {
			continue
		}
		for b := z.lists[tag]; b != nil; {
			next := b.next
			z.release(b)
			b = next
		}
	}
}

func (z *nativeZone) ChangeTag(p []byte, tag Tag) {
	b, ok := z.blocks[address(p)]
	if !ok || b.id != ZoneID {
		fatalf("Z_ChangeTag: block without a ZONEID!")
	}
	if tag >= PurgeLevel && b.user == nil {
		fatalf("Z_ChangeTag: an owner is required for purgable blocks")
	}
	z.remove(b)
	b.tag = tag
	z.insert(b)
}

func (z *nativeZone) ChangeUser(p []byte, user *[]byte) {
	b, ok := z.blocks[address(p)]
	if !ok || b.id != ZoneID {
		fatalf("Z_ChangeUser: Tried to change user for invalid block!")
	}
	b.user = user
	*user = p
}

func (z *nativeZone) CheckHeap() {
	used := 0
	for tag := Static; tag < numTags; tag++ {
		var prev *nativeBlock
		for b := z.lists[tag]; b != nil; b = b.next {
			if b.tag != tag {
				fatalf("Z_CheckHeap: block tag %v found in %v list", b.tag, tag)
			}
			if b.prev != prev {
				fatalf("Z_CheckHeap: block doesn't have proper back link")
			}
			if b.id != ZoneID {
				fatalf("Z_CheckHeap: block without a ZONEID")
			}
			used += b.size
			prev = b
		}
	}
	if used != z.used {
		fatalf("Z_CheckHeap: lists hold %d bytes, expected %d", used, z.used)
	}
}

func (z *nativeZone) FreeMemory() int {
	result := 0
	if z.budget > 0 {
		result = z.budget - z.used
	}
	for _, tag := range []Tag{PurgeLevel, Cache} {
		for b := z.lists[tag]; b != nil; b = b.next {
			result += b.size
		}
	}
	return result
}

func (z *nativeZone) ZoneSize() int {
	return z.budget
}

func (z *nativeZone) DumpHeap(w io.Writer, low, high Tag) {
	fmt.Fprintf(w, "zone size: %d  used: %d\n", z.budget, z.used)
	fmt.Fprintf(w, "tag range: %v to %v\n", low, high)
	for tag := max(low, Static); tag <= high && tag < numTags; tag++ {
		for b := z.lists[tag]; b != nil; b = b.next {
			fmt.Fprintf(w, "block:%#x    size:%7d    user:%t    tag:%v\n",
				address(b.data), b.size, b.user != nil, b.tag)
		}
	}
}
