package gc

// ---------------------------------------------------------------------------
// Incremental sweeper
// ---------------------------------------------------------------------------

// sweepStep visits up to workLimit object slots, resuming from the stored
// cursor. Objects carrying the condemned white shade are finalized exactly
// once and returned to their page's free list; marked survivors reset to
// the current white, and marked young survivors promote to the old
// generation (their once-only young->old transition). Objects allocated
// while this cycle ran carry the current white already and pass through
// untouched, so they stay young.
//
// A minor cycle never reclaims old objects: it only normalizes their color
// so a later major cycle sees a consistent white.
func (c *Context) sweepStep(workLimit int) int {
	dead := otherWhite(c.currentWhite)
	processed := 0

	for processed < workLimit {
		if c.sweepClass >= NumSizeClasses {
			c.finishCycle()
			return processed
		}
		pages := c.heap.pages[c.sweepClass]
		if c.sweepPage >= len(pages) {
			c.sweepClass++
			c.sweepPage = 0
			c.sweepSlot = 0
			continue
		}
		p := pages[c.sweepPage]
		if c.sweepSlot >= len(p.objects) {
			c.sweepPage++
			c.sweepSlot = 0
			continue
		}

		slot := c.sweepSlot
		c.sweepSlot++
		processed++

		obj := &p.objects[slot]
		if !obj.live {
			continue
		}

		if !c.cycleMajor && obj.gen == GenOld {
			obj.color = c.currentWhite
			continue
		}

		switch {
		case obj.color == colorBlack:
			obj.color = c.currentWhite
			if obj.gen == GenYoung {
				obj.gen = GenOld
				c.counters.promoted++
			}
		case obj.color == dead:
			c.finalizeObject(SizeClass(c.sweepClass), c.sweepPage, slot, obj)
		default:
			// Allocated during this cycle; already current white, stays
			// young.
		}
	}
	return processed
}

// finalizeObject runs the type's finalizer (if any) with the object still
// intact, then releases its storage to the free list.
func (c *Context) finalizeObject(class SizeClass, pi, slot int, obj *Object) {
	if fn := c.finalizers[obj.typeTag]; fn != nil {
		fn(makeRef(class, pi, slot), obj)
	}
	// A barrier may have re-recorded this owner mid-cycle; the entry must
	// not outlive the object, or whatever reuses the slot inherits it.
	delete(c.remembered, obj)
	wasOld := obj.gen == GenOld
	c.heap.release(class, pi, slot)
	c.counters.swept++
	if wasOld {
		c.counters.sweptOld++
	}
}

// finishCycle records cycle completion and recomputes the growth threshold
// that will start the next one. The phase parks at Done; the next scheduler
// or allocation touch moves it to Idle.
func (c *Context) finishCycle() {
	if c.cycleMajor {
		c.minorCycles = 0
		c.counters.majorDone++
	} else {
		c.minorCycles++
		c.counters.minorDone++
	}

	c.threshold = c.heap.liveObjects * c.opts.IntervalRatio / 100
	if c.threshold < startThreshold {
		c.threshold = startThreshold
	}

	c.phase = PhaseDone
	c.log.Debugf("context %s cycle done (major=%v live=%d swept_total=%d next_threshold=%d)",
		c.id, c.cycleMajor, c.heap.liveObjects, c.counters.swept, c.threshold)
}
