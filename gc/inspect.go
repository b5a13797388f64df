package gc

// Read-only traversal hooks for diagnostic tooling (heap snapshots, tests).
// Callers must not allocate or step the collector from inside the callbacks.

// EachObject calls fn for every live object, in page order. Traversal stops
// early when fn returns false.
func (c *Context) EachObject(fn func(ref ObjectRef, obj *Object) bool) {
	for class := 0; class < NumSizeClasses; class++ {
		for pi, p := range c.heap.pages[class] {
			for slot := range p.objects {
				obj := &p.objects[slot]
				if !obj.live {
					continue
				}
				if !fn(makeRef(SizeClass(class), pi, slot), obj) {
					return
				}
			}
		}
	}
}

// EachRoot calls fn for every value the collector treats as a direct root:
// arena-protected values first, then pinned refs. Traversal stops early
// when fn returns false. Remembered-set entries are not roots in the
// reachability sense and are not reported.
func (c *Context) EachRoot(fn func(v Value) bool) {
	for _, v := range c.arena.values {
		if !fn(v) {
			return
		}
	}
	for ref := range c.pinned {
		if !fn(FromRef(ref)) {
			return
		}
	}
}

// Slot returns field i of the object. Read-only accessor for tooling; the
// mutator path is Context.SetSlot, which runs the write barrier.
func (o *Object) Slot(i int) Value {
	return o.slots[i]
}

// PageCount returns the number of pages committed for the size class.
func (c *Context) PageCount(class SizeClass) int {
	if !class.valid() {
		return 0
	}
	return len(c.heap.pages[class])
}

// ClassCapacity returns the total object capacity committed for the class.
func (c *Context) ClassCapacity(class SizeClass) int {
	if !class.valid() {
		return 0
	}
	return len(c.heap.pages[class]) * c.heap.pageCap[class]
}
