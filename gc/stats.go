package gc

import "time"

// counters accumulates collector activity; Stats snapshots it for callers.
type counters struct {
	allocated    uint64
	swept        uint64
	sweptOld     uint64
	promoted     uint64
	barrierHits  uint64
	minorStarted uint64
	minorDone    uint64
	majorStarted uint64
	majorDone    uint64
	fullCollects uint64
	lastPause    time.Duration
	maxPause     time.Duration
}

// Stats is a point-in-time snapshot of one context's heap and collector
// activity.
type Stats struct {
	InstanceID string
	Phase      Phase

	LiveObjects    int
	HeapCapacity   int
	CommittedPages int
	Threshold      int

	RememberedSetSize int
	ProtectedValues   int
	PinnedRoots       int

	ObjectsAllocated uint64
	ObjectsSwept     uint64
	OldObjectsSwept  uint64
	ObjectsPromoted  uint64
	BarrierHits      uint64

	MinorCycles     uint64
	MajorCycles     uint64
	FullCollections uint64

	LastPause time.Duration
	MaxPause  time.Duration
}

// Stats returns a snapshot of the context's current state.
func (c *Context) Stats() Stats {
	return Stats{
		InstanceID:        c.id,
		Phase:             c.phase,
		LiveObjects:       c.heap.liveObjects,
		HeapCapacity:      c.heap.capacity(),
		CommittedPages:    c.heap.committedPages,
		Threshold:         c.threshold,
		RememberedSetSize: len(c.remembered),
		ProtectedValues:   len(c.arena.values),
		PinnedRoots:       len(c.pinned),
		ObjectsAllocated:  c.counters.allocated,
		ObjectsSwept:      c.counters.swept,
		OldObjectsSwept:   c.counters.sweptOld,
		ObjectsPromoted:   c.counters.promoted,
		BarrierHits:       c.counters.barrierHits,
		MinorCycles:       c.counters.minorDone,
		MajorCycles:       c.counters.majorDone,
		FullCollections:   c.counters.fullCollects,
		LastPause:         c.counters.lastPause,
		MaxPause:          c.counters.maxPause,
	}
}

func (c *Context) recordPause(d time.Duration) {
	c.counters.lastPause = d
	if d > c.counters.maxPause {
		c.counters.maxPause = d
	}
}
