package gc

// ---------------------------------------------------------------------------
// Write barrier
// ---------------------------------------------------------------------------

// writeBarrier runs on every heap field mutation, before the store lands.
// It has two duties:
//
//  1. Generational bookkeeping: an old object gaining a reference to a
//     young object enters the remembered set, so minor cycles can treat it
//     as a root instead of rescanning the whole old generation. This runs
//     in every phase; it is the per-mutation cost traded for bounded minor
//     pauses, and is skipped entirely when generational mode is off.
//     During the sweep a black owner the cursor has not reached yet is
//     still GenYoung but promotes before the cycle ends, so it is recorded
//     as if already old; otherwise the edge would be invisible to the next
//     minor cycle.
//
//  2. Tri-color repair during an in-flight mark: a store into an object the
//     marker has already scanned (black, or old during a minor cycle where
//     old objects are implicitly black) would otherwise hide the referent
//     from the cycle, so the referent is shaded gray immediately. This is
//     what lets mark steps interleave with mutation.
func (c *Context) writeBarrier(owner *Object, v Value) {
	if !v.IsRef() {
		return
	}
	child := c.heap.object(v.Ref())

	if c.opts.Generational && child.gen == GenYoung {
		promoting := c.phase == PhaseSweeping && owner.color == colorBlack
		if owner.gen == GenOld || promoting {
			// Map insert deduplicates: re-recording the same edge owner is
			// a no-op.
			c.remembered[owner] = struct{}{}
			c.counters.barrierHits++
		}
	}

	if c.phase == PhaseMarkRoots || c.phase == PhaseMarkIncremental {
		scanned := owner.color == colorBlack ||
			(!c.cycleMajor && owner.gen == GenOld)
		if scanned && child.color.isWhite() {
			c.shadeObject(child)
		}
	}
}

// RememberedSetSize returns the number of old objects currently recorded as
// referencing young objects. With generational mode off this is always 0.
func (c *Context) RememberedSetSize() int {
	return len(c.remembered)
}
