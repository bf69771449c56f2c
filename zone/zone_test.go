package zone

import (
	"bytes"
	"strings"
	"testing"
)

func backends(size int) map[string]Allocator {
	return map[string]Allocator{
		"native": New(Config{Backend: Native, Size: size}),
		"arena":  New(Config{Backend: Arena, Size: size}),
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a fatal error", name)
		}
	}()
	fn()
}

func TestMallocSetsUser(t *testing.T) {
	for name, z := range backends(64 * 1024) {
		var slot []byte
		p := z.Malloc(100, Cache, &slot)
		if len(p) != 100 {
			t.Errorf("%s: got %d bytes, want 100", name, len(p))
		}
		if address(slot) != address(p) {
			t.Errorf("%s: user slot does not hold the allocation", name)
		}
		z.Free(p)
		if slot != nil {
			t.Errorf("%s: user slot not cleared on free", name)
		}
		z.CheckHeap()
	}
}

func TestPurgableNeedsOwner(t *testing.T) {
	for name, z := range backends(64 * 1024) {
		mustPanic(t, name+" malloc", func() { z.Malloc(10, Cache, nil) })
		p := z.Malloc(10, Static, nil)
		mustPanic(t, name+" changetag", func() { z.ChangeTag(p, PurgeLevel) })
	}
}

func TestDoubleFree(t *testing.T) {
	for name, z := range backends(64 * 1024) {
		p := z.Malloc(32, Static, nil)
		keep := z.Malloc(32, Static, nil)
		z.Free(p)
		mustPanic(t, name, func() { z.Free(p) })
		mustPanic(t, name+" foreign", func() { z.Free(make([]byte, 8)) })
		z.Free(keep)
	}
}

func TestEvictionClearsOwners(t *testing.T) {
	const (
		entry = 1000
		size  = 32 * 1024
	)
	count := size / (alignSize(entry) + HeaderSize)
	for name, z := range backends(size) {
		var slots [64][]byte
		for i := 0; i < count; i++ {
			p := z.Malloc(entry, Cache, &slots[i])
			for j := range p {
				p[j] = byte(i)
			}
		}

		// larger than any cache entry, smaller than the whole cache
		big := z.Malloc(3*entry, Static, nil)
		for i := range big {
			big[i] = 0xee
		}
		evicted := 0
		for i := 0; i < count; i++ {
			if slots[i] == nil {
				evicted++
				continue
			}
			for _, c := range slots[i] {
				if c != byte(i) {
					t.Fatalf("%s: live cache entry %d was overwritten", name, i)
				}
			}
		}
		if evicted < 3 {
			t.Errorf("%s: %d cache entries evicted, want at least 3", name, evicted)
		}
		z.CheckHeap()
	}
}

func TestArenaAllocationSucceedsThroughEviction(t *testing.T) {
	// [static A][cache C][static B][free, one short of the request]
	const request = 1024
	need := alignSize(request) + HeaderSize
	sizeA := alignSize(512) + HeaderSize
	z := New(Config{Backend: Arena, Size: sizeA + need + sizeA + need - memAlign})

	z.Malloc(512, Static, nil)
	var cached []byte
	z.Malloc(request, Cache, &cached)
	z.Malloc(512, Static, nil)

	p := z.Malloc(request, Static, nil)
	if len(p) != request {
		t.Fatalf("got %d bytes", len(p))
	}
	if cached != nil {
		t.Errorf("evicted cache block still referenced by its owner")
	}
	z.CheckHeap()
}

func TestNativeAllocationSucceedsThroughEviction(t *testing.T) {
	const request = 1024
	need := alignSize(request) + HeaderSize
	sizeA := alignSize(512) + HeaderSize
	z := New(Config{Backend: Native, Size: sizeA + need + need - 1})

	z.Malloc(512, Static, nil)
	var cached []byte
	z.Malloc(request, Cache, &cached)

	p := z.Malloc(request, Static, nil)
	if len(p) != request {
		t.Fatalf("got %d bytes", len(p))
	}
	if cached != nil {
		t.Errorf("evicted cache block still referenced by its owner")
	}
	z.CheckHeap()
}

func TestNativeEvictsOldestFirst(t *testing.T) {
	need := alignSize(100) + HeaderSize
	z := New(Config{Backend: Native, Size: 3 * need})
	var first, second, third []byte
	z.Malloc(100, Cache, &first)
	z.Malloc(100, Cache, &second)
	z.Malloc(100, Cache, &third)
	z.Malloc(100, Static, nil)
	if first != nil {
		t.Errorf("oldest cache entry survived")
	}
	if second == nil || third == nil {
		t.Errorf("newer cache entries were purged")
	}
}

func TestOutOfMemoryIsFatal(t *testing.T) {
	for name, z := range backends(4096) {
		z.Malloc(1024, Static, nil)
		mustPanic(t, name, func() { z.Malloc(8192, Static, nil) })
	}
}

func TestFreeTagsMergesNeighbours(t *testing.T) {
	for name, z := range backends(64 * 1024) {
		before := z.FreeMemory()
		var slots [8][]byte
		for i := 0; i < 8; i++ {
			tag := Level
			if i%2 == 1 {
				tag = Static
			}
			z.Malloc(500, tag, &slots[i])
		}
		z.FreeTags(Level, LevSpec)
		z.CheckHeap()
		for i := 0; i < 8; i++ {
			if (i%2 == 0) != (slots[i] == nil) {
				t.Errorf("%s: slot %d has wrong state after FreeTags", name, i)
			}
		}
		z.FreeTags(Static, Cache)
		z.CheckHeap()
		if after := z.FreeMemory(); after != before {
			t.Errorf("%s: free memory %d, want %d", name, after, before)
		}
	}
}

func TestChangeTagMakesPurgable(t *testing.T) {
	need := alignSize(400) + HeaderSize
	for name, z := range backends(2*need + MinFragment) {
		var slot []byte
		p := z.Malloc(400, Static, &slot)
		z.Malloc(400, Static, nil)
		z.ChangeTag(p, Cache)
		q := z.Malloc(400, Static, nil)
		if len(q) != 400 || slot != nil {
			t.Errorf("%s: retagged block was not reclaimed", name)
		}
	}
}

func TestChangeUser(t *testing.T) {
	for name, z := range backends(64 * 1024) {
		var a, b []byte
		p := z.Malloc(16, Cache, &a)
		z.ChangeUser(p, &b)
		if address(b) != address(p) {
			t.Errorf("%s: new owner slot not written", name)
		}
		z.Free(p)
		if b != nil {
			t.Errorf("%s: new owner slot not cleared", name)
		}
	}
}

func TestCheckHeapDetectsCorruption(t *testing.T) {
	z := newArenaZone(8192)
	p := z.Malloc(100, Static, nil)
	z.Malloc(100, Static, nil)
	b := z.lookup(p)

	b.next.tag = Free
	mustPanic(t, "consecutive free", z.CheckHeap)
	b.next.tag = Static

	saved := b.next.prev
	b.next.prev = &z.blocklist
	mustPanic(t, "back link", z.CheckHeap)
	b.next.prev = saved

	b.size += 8
	mustPanic(t, "size", z.CheckHeap)
	b.size -= 8
	z.CheckHeap()
}

func TestDumpHeap(t *testing.T) {
	for name, z := range backends(64 * 1024) {
		z.Malloc(10, Level, nil)
		var buf bytes.Buffer
		z.DumpHeap(&buf, Static, Cache)
		if !strings.Contains(buf.String(), "tag:level") {
			t.Errorf("%s: dump missing block:\n%s", name, buf.String())
		}
	}
}

func TestParseBackend(t *testing.T) {
	for _, s := range []string{"native", "arena"} {
		b, err := ParseBackend(s)
		if err != nil || b.String() != s {
			t.Errorf("ParseBackend(%q) = %v, %v", s, b, err)
		}
	}
	if _, err := ParseBackend("slab"); err == nil {
		t.Errorf("expected error for unknown backend")
	}
}
