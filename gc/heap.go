package gc

// heap is the paged, size-classed object store. It owns every page and,
// transitively, every object; the collector and the context drive it but
// mutator code never grows or frees pages directly.
//
// Objects never move. A returned ObjectRef and the *Object behind it stay
// valid until the object is reclaimed, even while native code holds them
// across incremental collection steps.
type heap struct {
	pages   [NumSizeClasses][]*page
	pageCap [NumSizeClasses]int

	// freePages holds, per class, the indices of pages with at least one
	// free slot. It makes allocation O(1): pop the top page's free list.
	freePages [NumSizeClasses][]int

	committedPages int
	maxPages       int
	liveObjects    int
}

func newHeap(opts Options) *heap {
	h := &heap{maxPages: opts.MaxPages}
	for class := 0; class < NumSizeClasses; class++ {
		capacity := opts.PageSize / SizeClass(class).objectFootprint()
		if capacity < 1 {
			capacity = 1
		}
		h.pageCap[class] = capacity
	}
	return h
}

// object resolves a ref to its header. Panics on an invalid ref; refs only
// come from allocate, so a bad one is a caller bug, not an input error.
func (h *heap) object(ref ObjectRef) *Object {
	class := ref.sizeClass()
	if !ref.IsValid() || !class.valid() {
		panic("gc: invalid object reference")
	}
	pages := h.pages[class]
	pi := ref.pageIndex()
	if pi >= len(pages) {
		panic("gc: object reference names an uncommitted page")
	}
	return &pages[pi].objects[ref.slotIndex()]
}

// tryAlloc pops a free slot from the class's page free list. Returns false
// when every committed page of the class is full.
func (h *heap) tryAlloc(class SizeClass) (ObjectRef, bool) {
	stack := h.freePages[class]
	for len(stack) > 0 {
		pi := stack[len(stack)-1]
		p := h.pages[class][pi]
		slot, ok := p.alloc()
		if !ok {
			// Stale entry left behind by a sweep; drop it.
			stack = stack[:len(stack)-1]
			h.freePages[class] = stack
			continue
		}
		if p.full() {
			h.freePages[class] = stack[:len(stack)-1]
		}
		h.liveObjects++
		return makeRef(class, pi, slot), true
	}
	return InvalidRef, false
}

// grow commits one more page for the class. Returns false at the page cap.
func (h *heap) grow(class SizeClass) bool {
	if h.committedPages >= h.maxPages {
		return false
	}
	pi := len(h.pages[class])
	h.pages[class] = append(h.pages[class], newPage(class, h.pageCap[class]))
	h.freePages[class] = append(h.freePages[class], pi)
	h.committedPages++
	return true
}

// release returns an object to its page's free list. The sweeper is the
// only caller.
func (h *heap) release(class SizeClass, pi, slot int) {
	p := h.pages[class][pi]
	wasFull := p.full()
	p.free(slot)
	if wasFull {
		h.freePages[class] = append(h.freePages[class], pi)
	}
	h.liveObjects--
}

// capacity is the total object capacity of all committed pages.
func (h *heap) capacity() int {
	total := 0
	for class := 0; class < NumSizeClasses; class++ {
		total += len(h.pages[class]) * h.pageCap[class]
	}
	return total
}
