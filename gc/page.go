package gc

// page is a fixed-capacity granule of objects that all share one size
// class. Pages are owned exclusively by the heap; mutator code never grows
// or frees a page directly. Object storage (including each object's slot
// slice) is allocated once here and reused across free/allocate, which is
// what makes ObjectRefs stable for an object's whole lifetime.
type page struct {
	class     SizeClass
	objects   []Object
	freeHead  int32 // index of first free slot, -1 when full
	liveCount int
}

const freeListEnd int32 = -1

// newPage builds a page with capacity objects of the given class, all
// threaded onto the free list.
func newPage(class SizeClass, capacity int) *page {
	p := &page{
		class:    class,
		objects:  make([]Object, capacity),
		freeHead: 0,
	}
	slotsPer := class.SlotsPerObject()
	for i := range p.objects {
		obj := &p.objects[i]
		obj.class = class
		obj.slots = make([]Value, slotsPer)
		for j := range obj.slots {
			obj.slots[j] = Nil
		}
		obj.nextFree = int32(i + 1)
	}
	p.objects[capacity-1].nextFree = freeListEnd
	return p
}

// alloc pops one object off the free list. Returns the slot index and
// false when the page is full. O(1).
func (p *page) alloc() (int, bool) {
	if p.freeHead == freeListEnd {
		return 0, false
	}
	slot := int(p.freeHead)
	obj := &p.objects[slot]
	p.freeHead = obj.nextFree
	obj.nextFree = freeListEnd
	obj.live = true
	p.liveCount++
	return slot, true
}

// free returns an object to the free list. The caller has already run
// finalization; slots are cleared here so stale references cannot leak
// into the next allocation.
func (p *page) free(slot int) {
	obj := &p.objects[slot]
	obj.live = false
	obj.gen = GenYoung
	obj.typeTag = 0
	for i := range obj.slots {
		obj.slots[i] = Nil
	}
	obj.nextFree = p.freeHead
	p.freeHead = int32(slot)
	p.liveCount--
}

// full returns true when the free list is exhausted.
func (p *page) full() bool {
	return p.freeHead == freeListEnd
}
