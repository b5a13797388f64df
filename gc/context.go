package gc

import (
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Context: one memory manager instance
// ---------------------------------------------------------------------------

// Phase is the collector's current position in a cycle. It is explicit,
// resumable state: a budgeted step records where it stopped and a later
// call continues from there. There is no background goroutine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseMarkRoots
	PhaseMarkIncremental
	PhaseSweeping
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseMarkRoots:
		return "MarkRoots"
	case PhaseMarkIncremental:
		return "MarkIncremental"
	case PhaseSweeping:
		return "Sweeping"
	case PhaseDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Finalizer is invoked exactly once when an object of the registered type
// tag is reclaimed, before its slots are cleared and its storage reused.
// Finalizers must not allocate from or step the collector.
type Finalizer func(ref ObjectRef, obj *Object)

// startThreshold is the floor of the cycle-start threshold, so a context
// with a tiny live set doesn't collect on every allocation.
const startThreshold = 1024

// Context is the memory manager of one VM instance: the object heap, the
// root-protection arena, and all collector state. Every operation takes the
// context explicitly; there is no process-wide singleton, so multiple
// independent VM instances can coexist in one process.
//
// A Context is single-threaded by contract: one mutator thread owns it and
// the collector only runs inside that thread's calls (Allocate, StepBudget,
// FullCollect). Nothing here locks.
type Context struct {
	opts Options
	id   string
	log  commonlog.Logger

	heap  *heap
	arena *arena

	// pinned holds long-lived host roots (VM registers, globals). Uses a
	// map for O(1) insert and removal.
	pinned map[ObjectRef]struct{}

	// remembered is the write-barrier log: old-generation objects known
	// to reference at least one young object. Entries are deduplicated by
	// the map. Minor cycles enqueue these as extra roots instead of
	// rescanning the old generation; only a major cycle clears the set.
	remembered map[*Object]struct{}

	// Marker state. Object pointers are stable (the heap never moves
	// objects), so the gray queue holds them directly.
	gray         []*Object
	currentWhite color
	phase        Phase
	cycleMajor   bool
	majorWanted  bool
	minorCycles  int
	threshold    int

	// Sweep cursor: next (class, page, slot) to visit.
	sweepClass int
	sweepPage  int
	sweepSlot  int

	// stepping guards against re-entrant collection work, e.g. a
	// finalizer that allocates.
	stepping bool

	finalizers map[TypeTag]Finalizer
	counters   counters
}

// NewContext creates a memory manager with the given options. Zero-valued
// numeric options take their defaults; invalid combinations are rejected.
func NewContext(opts Options) (*Context, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c := &Context{
		opts:         opts,
		id:           uuid.New().String(),
		log:          commonlog.GetLogger("quill.gc"),
		heap:         newHeap(opts),
		arena:        newArena(opts.ArenaInitialCapacity),
		pinned:       make(map[ObjectRef]struct{}),
		remembered:   make(map[*Object]struct{}),
		currentWhite: colorWhite0,
		phase:        PhaseIdle,
		threshold:    startThreshold,
		finalizers:   make(map[TypeTag]Finalizer),
	}
	c.log.Debugf("context %s created (page_size=%d max_pages=%d generational=%v)",
		c.id, opts.PageSize, opts.MaxPages, opts.Generational)
	return c, nil
}

// InstanceID returns the context's unique identifier, minted at creation.
func (c *Context) InstanceID() string {
	return c.id
}

// Options returns the immutable creation-time configuration.
func (c *Context) Options() Options {
	return c.opts
}

// Phase returns the collector's current phase.
func (c *Context) Phase() Phase {
	return c.phase
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// Allocate creates a new object of the given size class, tagged with the
// VM-level type tag, with every slot initialized to Nil. The object starts
// young and white.
//
// Allocation may run a bounded chunk of collection work first: one chunk
// when a cycle is in flight, or a cycle start when live growth has crossed
// the configured interval. On free-list exhaustion the heap grows by one
// page; at the page cap one synchronous full collection is attempted, and
// if the allocation still cannot be satisfied it fails with ErrOutOfMemory.
//
// If a protection frame is open, the new object is protected in it, so a
// ref held only in native code survives collection steps triggered by
// subsequent allocations until the frame pops.
func (c *Context) Allocate(class SizeClass, tag TypeTag) (ObjectRef, error) {
	if !class.valid() {
		panic("gc: Allocate: invalid size class")
	}
	c.pace()

	ref, ok := c.heap.tryAlloc(class)
	if !ok {
		if c.heap.grow(class) {
			c.log.Debugf("context %s grew %d-slot class to %d pages (%d committed total)",
				c.id, class.SlotsPerObject(), len(c.heap.pages[class]), c.heap.committedPages)
			ref, ok = c.heap.tryAlloc(class)
		} else {
			c.log.Infof("context %s at page cap (%d); running full collection", c.id, c.opts.MaxPages)
			c.FullCollect()
			ref, ok = c.heap.tryAlloc(class)
		}
	}
	if !ok {
		c.log.Errorf("context %s out of memory: class=%d live=%d capacity=%d",
			c.id, class, c.heap.liveObjects, c.heap.capacity())
		return InvalidRef, ErrOutOfMemory
	}

	obj := c.heap.object(ref)
	obj.color = c.currentWhite
	obj.gen = GenYoung
	obj.typeTag = tag
	c.counters.allocated++

	if c.arena.open() {
		c.protectValue(FromRef(ref))
	}
	return ref, nil
}

// pace runs allocation-triggered collection work: one chunk when a cycle
// is live, a cycle start when the growth threshold is crossed.
func (c *Context) pace() {
	if c.stepping {
		return
	}
	if c.phase == PhaseDone {
		c.phase = PhaseIdle
	}
	if c.phase != PhaseIdle {
		c.stepChunk()
		return
	}
	if c.heap.liveObjects > c.threshold {
		c.beginCycle(c.nextCycleMajor())
		c.stepChunk()
	}
}

// ---------------------------------------------------------------------------
// Slot access
// ---------------------------------------------------------------------------

// Object resolves a ref to its header for inspection. The pointer is valid
// until the object is reclaimed; it never moves.
func (c *Context) Object(ref ObjectRef) *Object {
	return c.heap.object(ref)
}

// Slot reads field idx of the referenced object.
func (c *Context) Slot(ref ObjectRef, idx int) Value {
	return c.heap.object(ref).slots[idx]
}

// SetSlot writes field idx of the referenced object. Every heap field
// mutation goes through here so the write barrier observes it; writing
// storage directly would let the collector miss the edge.
func (c *Context) SetSlot(ref ObjectRef, idx int, v Value) {
	obj := c.heap.object(ref)
	c.writeBarrier(obj, v)
	obj.slots[idx] = v
}

// ---------------------------------------------------------------------------
// Long-lived roots
// ---------------------------------------------------------------------------

// Pin registers ref as a collector root until Unpin. This is the home for
// VM registers, globals, and other host state that outlives any single
// native call frame (the arena covers those).
func (c *Context) Pin(ref ObjectRef) {
	c.pinned[ref] = struct{}{}
	c.shadeNewRoot(FromRef(ref))
}

// Unpin removes a root registered with Pin.
func (c *Context) Unpin(ref ObjectRef) {
	delete(c.pinned, ref)
}

// SetFinalizer registers fn to run when objects carrying tag are reclaimed.
// Pass nil to remove a registration. Replacing the object model's cleanup
// hook mid-flight affects only objects reclaimed afterwards.
func (c *Context) SetFinalizer(tag TypeTag, fn Finalizer) {
	if fn == nil {
		delete(c.finalizers, tag)
		return
	}
	c.finalizers[tag] = fn
}
