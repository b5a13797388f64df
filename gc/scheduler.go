package gc

import "time"

// ---------------------------------------------------------------------------
// Frame-budget scheduler
// ---------------------------------------------------------------------------

// StepBudget advances the collector for at most (approximately) the given
// wall-clock budget and returns the number of objects processed. This is
// the embedding host's per-frame hook.
//
// Work runs in chunks of StepRatio objects with an elapsed-time check after
// each chunk, so a call never overruns the budget by more than one chunk's
// processing time. When the collector is Idle and live growth has not
// crossed the interval threshold, the call is an idempotent no-op returning
// 0. When a cycle is in flight it resumes from the recorded phase; reaching
// Done within the budget returns the phase to Idle.
func (c *Context) StepBudget(budget time.Duration) int {
	if c.stepping {
		return 0
	}
	if c.phase == PhaseDone {
		c.phase = PhaseIdle
	}
	if c.phase == PhaseIdle {
		if c.heap.liveObjects <= c.threshold {
			return 0
		}
		c.beginCycle(c.nextCycleMajor())
	}

	start := time.Now()
	total := 0
	for {
		total += c.stepChunk()
		if c.phase == PhaseDone {
			c.phase = PhaseIdle
			break
		}
		if time.Since(start) >= budget {
			break
		}
	}
	c.recordPause(time.Since(start))
	return total
}

// FullCollect runs mark and sweep to completion with no budget: a
// deterministic full pause for hosts that want one (level-load boundaries)
// and the allocator's out-of-memory fallback. An in-flight cycle is first
// driven to Done — a begun cycle can never be abandoned — and then one
// complete major cycle runs.
func (c *Context) FullCollect() {
	if c.stepping {
		return
	}
	start := time.Now()

	for c.phase != PhaseIdle && c.phase != PhaseDone {
		c.stepChunk()
	}
	c.beginCycle(true)
	for c.phase != PhaseDone {
		c.stepChunk()
	}
	c.phase = PhaseIdle

	c.counters.fullCollects++
	c.recordPause(time.Since(start))
}

// stepChunk performs one bounded unit of collection work for the current
// phase. Re-entrant calls (a finalizer touching the collector) are no-ops.
func (c *Context) stepChunk() int {
	if c.stepping {
		return 0
	}
	c.stepping = true
	defer func() { c.stepping = false }()

	switch c.phase {
	case PhaseMarkRoots:
		return c.markRoots()
	case PhaseMarkIncremental:
		return c.markStep(c.opts.StepRatio)
	case PhaseSweeping:
		return c.sweepStep(c.opts.StepRatio)
	default:
		return 0
	}
}
