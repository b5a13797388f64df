package gc

// ---------------------------------------------------------------------------
// Tri-color incremental marker
// ---------------------------------------------------------------------------
//
// Cycle shape: Idle -> MarkRoots -> MarkIncremental -> Sweeping -> Done ->
// Idle. Once MarkRoots has run, the cycle always proceeds to Done before
// the phase can return to Idle; there is no mid-cycle abort.
//
// Whites flip at cycle start: objects carrying the previous shade are the
// cycle's reclamation candidates, objects allocated while the cycle runs
// carry the new shade and are never condemned by it.

// beginCycle flips the white shade and arms the root scan. major selects
// whole-heap marking; a minor cycle confines itself to the young generation
// plus remembered-set entry points.
func (c *Context) beginCycle(major bool) {
	c.currentWhite = otherWhite(c.currentWhite)
	c.cycleMajor = major
	c.majorWanted = false
	c.phase = PhaseMarkRoots
	if major {
		c.counters.majorStarted++
	} else {
		c.counters.minorStarted++
	}
	c.log.Debugf("context %s cycle start (major=%v live=%d threshold=%d)",
		c.id, major, c.heap.liveObjects, c.threshold)
}

// nextCycleMajor decides the scope of the next cycle. Every cycle is major
// when generational mode is off; otherwise majors are forced by explicit
// request or when enough minors have run since the last one.
func (c *Context) nextCycleMajor() bool {
	if !c.opts.Generational {
		return true
	}
	return c.majorWanted || c.minorCycles >= c.opts.MajorIncRatio
}

// RequestMajor forces the next cycle to be major. It does not start one.
func (c *Context) RequestMajor() {
	c.majorWanted = true
}

// markRoots shades everything the mutator can reach directly: arena-
// protected values and pinned host roots, plus — minor cycles only — every
// remembered-set entry, standing in for a full old-generation rescan. It
// runs to completion in one step; root sets are small by construction.
//
// A major cycle resets the remembered set here rather than at cycle end:
// old->young edges created while the cycle runs must be re-recorded, not
// discarded with the pre-cycle entries.
func (c *Context) markRoots() int {
	if c.cycleMajor && len(c.remembered) > 0 {
		c.remembered = make(map[*Object]struct{})
	}

	scanned := 0
	for _, v := range c.arena.values {
		c.shade(v)
		scanned++
	}
	for ref := range c.pinned {
		c.shade(FromRef(ref))
		scanned++
	}
	if !c.cycleMajor {
		for owner := range c.remembered {
			c.shadeObject(owner)
			scanned++
		}
	}

	c.phase = PhaseMarkIncremental
	return scanned
}

// shade grays the object behind v if it is white and within the cycle's
// scope. Immediates are ignored. During a minor cycle old objects are
// implicitly black (live by assumption), so shading skips them; remembered
// entry points bypass this via shadeObject.
func (c *Context) shade(v Value) {
	if !v.IsRef() {
		return
	}
	obj := c.heap.object(v.Ref())
	if !c.cycleMajor && obj.gen == GenOld {
		return
	}
	c.shadeObject(obj)
}

// shadeObject grays obj unconditionally of generation.
func (c *Context) shadeObject(obj *Object) {
	if !obj.color.isWhite() {
		return
	}
	obj.color = colorGray
	c.gray = append(c.gray, obj)
}

// markStep dequeues up to workLimit gray objects, scanning each one's
// outgoing references and blackening it. Queue order is irrelevant to
// correctness, so LIFO pop is used for locality. When the queue empties the
// cycle advances to Sweeping — the precondition that no object is gray at
// sweep start holds by construction.
func (c *Context) markStep(workLimit int) int {
	processed := 0
	for processed < workLimit && len(c.gray) > 0 {
		obj := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		for _, v := range obj.slots {
			c.shade(v)
		}
		obj.color = colorBlack
		processed++
	}
	if len(c.gray) == 0 {
		c.beginSweep()
	}
	return processed
}

func (c *Context) beginSweep() {
	c.phase = PhaseSweeping
	c.sweepClass = 0
	c.sweepPage = 0
	c.sweepSlot = 0
}
