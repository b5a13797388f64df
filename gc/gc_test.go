package gc

import (
	"math/rand"
	"testing"
	"time"
)

func TestStepBudgetIdleNoOp(t *testing.T) {
	c := newTestContext(t, DefaultOptions())
	for i := 0; i < 3; i++ {
		if got := c.StepBudget(time.Millisecond); got != 0 {
			t.Fatalf("StepBudget on idle heap = %d, want 0", got)
		}
		if c.Phase() != PhaseIdle {
			t.Fatalf("Phase = %v, want Idle", c.Phase())
		}
	}
}

func TestPhaseOrdering(t *testing.T) {
	// Within one cycle: MarkRoots, then MarkIncremental, then Sweeping,
	// then Done. No phase may be revisited or skipped.
	c := newTestContext(t, DefaultOptions())
	anchor, _ := c.Allocate(5, 0)
	c.Pin(anchor)
	prev := anchor
	for i := 0; i < 200; i++ {
		ref, _ := c.Allocate(5, 0)
		c.SetSlot(prev, 0, FromRef(ref))
		prev = ref
	}

	c.beginCycle(true)
	order := []Phase{c.Phase()}
	for c.Phase() != PhaseIdle {
		c.stepChunk()
		if c.Phase() == PhaseDone {
			order = append(order, PhaseDone)
			c.phase = PhaseIdle
			break
		}
		if last := order[len(order)-1]; c.Phase() != last {
			order = append(order, c.Phase())
		}
	}

	want := []Phase{PhaseMarkRoots, PhaseMarkIncremental, PhaseSweeping, PhaseDone}
	if len(order) != len(want) {
		t.Fatalf("phase order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("phase order = %v, want %v", order, want)
		}
	}
}

func TestLiveness(t *testing.T) {
	// Repeated positive-budget steps drive any in-flight cycle to
	// completion in a bounded number of calls.
	c := newTestContext(t, DefaultOptions())
	for i := 0; i < 3000; i++ {
		c.Allocate(0, 0)
	}

	// Ensure a cycle can start, then step with a budget so small each
	// call does the minimum one chunk.
	bound := 2*c.Stats().HeapCapacity/c.Options().StepRatio + 100
	calls := 0
	for {
		c.StepBudget(time.Nanosecond)
		calls++
		if c.Phase() == PhaseIdle && c.Stats().LiveObjects <= c.Stats().Threshold {
			break
		}
		if calls > bound {
			t.Fatalf("collector did not reach Idle within %d calls", bound)
		}
	}
}

// TestReachableNeverSwept drives random mutation, allocation, and
// incremental stepping against a live object graph and asserts no
// reachable object is ever finalized.
func TestReachableNeverSwept(t *testing.T) {
	c := newTestContext(t, DefaultOptions())

	expected := make(map[ObjectRef]bool)
	const liveTag TypeTag = 11
	c.SetFinalizer(liveTag, func(ref ObjectRef, obj *Object) {
		if expected[ref] {
			t.Fatalf("reachable object %v was swept", ref)
		}
	})

	rng := rand.New(rand.NewSource(42))

	// A pinned table object anchors the reachable set.
	table, err := c.Allocate(5, liveTag)
	if err != nil {
		t.Fatal(err)
	}
	c.Pin(table)
	expected[table] = true
	slots := c.Object(table).SlotCount()
	held := make([]ObjectRef, slots)

	for step := 0; step < 20000; step++ {
		switch rng.Intn(4) {
		case 0, 1: // allocate garbage
			c.Allocate(SizeClass(rng.Intn(2)), liveTag)
		case 2: // install a new reachable object, unhooking an old one
			ref, err := c.Allocate(SizeClass(rng.Intn(2)), liveTag)
			if err != nil {
				t.Fatal(err)
			}
			i := rng.Intn(slots)
			if old := held[i]; old.IsValid() {
				delete(expected, old)
			}
			c.SetSlot(table, i, FromRef(ref))
			held[i] = ref
			expected[ref] = true
		case 3: // grant the collector time
			c.StepBudget(50 * time.Microsecond)
		}
	}

	// Finish any in-flight cycle and run a full one; the reachable set
	// must still be intact.
	c.FullCollect()
	for ref := range expected {
		if got := c.Object(ref).TypeTag(); got != liveTag {
			t.Fatalf("reachable object %v lost its identity (tag %d)", ref, got)
		}
	}
}

// Unhooked objects above stay in `expected` deletion path; this test
// asserts the complementary property: once unreachable and collected, an
// object really is reclaimed.
func TestUnreachableEventuallySwept(t *testing.T) {
	c := newTestContext(t, DefaultOptions())
	reclaimed := 0
	c.SetFinalizer(4, func(ObjectRef, *Object) { reclaimed++ })

	for i := 0; i < 100; i++ {
		c.Allocate(0, 4)
	}
	c.FullCollect()
	if reclaimed != 100 {
		t.Errorf("reclaimed = %d, want 100", reclaimed)
	}
}

func TestCycleCannotAbort(t *testing.T) {
	// Once MarkRoots has run, the phase must proceed to Done; FullCollect
	// on an in-flight cycle finishes it rather than restarting.
	c := newTestContext(t, DefaultOptions())
	for i := 0; i < 100; i++ {
		ref, _ := c.Allocate(0, 0)
		c.Pin(ref)
	}

	c.beginCycle(false)
	c.stepChunk()
	if c.Phase() != PhaseMarkIncremental {
		t.Fatalf("Phase = %v after root scan, want MarkIncremental", c.Phase())
	}

	c.FullCollect()
	if c.Phase() != PhaseIdle {
		t.Fatalf("Phase = %v after FullCollect, want Idle", c.Phase())
	}
	stats := c.Stats()
	if stats.MinorCycles != 1 {
		t.Errorf("MinorCycles = %d; the in-flight minor cycle must complete", stats.MinorCycles)
	}
	if stats.MajorCycles != 1 {
		t.Errorf("MajorCycles = %d; FullCollect must run its own major cycle", stats.MajorCycles)
	}
}

// ---------------------------------------------------------------------------
// Scenario tests
// ---------------------------------------------------------------------------

// Scenario A: short-lived allocation churn under generational mode. Minor
// cycles triggered by allocation pressure must reclaim nearly all young
// garbage without ever forcing a major cycle.
func TestScenarioGenerationalChurn(t *testing.T) {
	opts := DefaultOptions()
	opts.IntervalRatio = 200
	opts.MajorIncRatio = 1 << 20 // out of reach; majors must not be needed
	c := newTestContext(t, opts)

	const iterations = 100
	const perIteration = 10000
	for iter := 0; iter < iterations; iter++ {
		for i := 0; i < perIteration; i++ {
			if _, err := c.Allocate(0, 0); err != nil {
				t.Fatalf("iteration %d: %v", iter, err)
			}
		}
	}
	// Let any in-flight cycle finish.
	for c.Phase() != PhaseIdle {
		c.StepBudget(time.Millisecond)
	}

	stats := c.Stats()
	if stats.MajorCycles != 0 {
		t.Errorf("MajorCycles = %d, want 0", stats.MajorCycles)
	}
	if stats.MinorCycles == 0 {
		t.Error("expected allocation pressure to drive minor cycles")
	}
	total := float64(stats.ObjectsAllocated)
	reclaimed := float64(stats.ObjectsSwept)
	if ratio := reclaimed / total; ratio < 0.95 {
		t.Errorf("minor cycles reclaimed %.1f%% of garbage, want > 95%%", ratio*100)
	}
}

// Scenario B: a frame loop granting the collector 1ms per frame under
// steady allocation pressure. Pauses stay near the budget and the live set
// stays bounded.
func TestScenarioFrameBudget(t *testing.T) {
	c := newTestContext(t, DefaultOptions())

	const frames = 1000
	const perFrame = 200
	const window = 1000
	budget := time.Millisecond
	// Generous allowance for scheduler noise on CI machines; one 16-object
	// chunk costs far less.
	overshootAllowance := 10 * time.Millisecond

	rng := rand.New(rand.NewSource(7))
	live := make([]ObjectRef, 0, window)

	for frame := 0; frame < frames; frame++ {
		for i := 0; i < perFrame; i++ {
			ref, err := c.Allocate(0, 0)
			if err != nil {
				t.Fatalf("frame %d: %v", frame, err)
			}
			if len(live) < window {
				c.Pin(ref)
				live = append(live, ref)
			} else {
				j := rng.Intn(window)
				c.Unpin(live[j])
				c.Pin(ref)
				live[j] = ref
			}
		}

		start := time.Now()
		c.StepBudget(budget)
		if elapsed := time.Since(start); elapsed > budget+overshootAllowance {
			t.Fatalf("frame %d: StepBudget took %v, budget %v", frame, elapsed, budget)
		}
	}

	if live := c.Stats().LiveObjects; live > 100000 {
		t.Errorf("LiveObjects = %d; resident set must stay bounded", live)
	}
}

// Scenario C: with generational mode off, every cycle is major, the
// remembered set stays empty, and mutation pays no barrier cost.
func TestScenarioNonGenerational(t *testing.T) {
	opts := DefaultOptions()
	opts.Generational = false
	c := newTestContext(t, opts)

	holder, _ := c.Allocate(5, 0)
	c.Pin(holder)
	c.FullCollect() // holder is now old

	for i := 0; i < 5000; i++ {
		ref, err := c.Allocate(0, 0)
		if err != nil {
			t.Fatal(err)
		}
		c.SetSlot(holder, i%c.Object(holder).SlotCount(), FromRef(ref))
		if c.RememberedSetSize() != 0 {
			t.Fatal("remembered set must stay empty with generational off")
		}
	}
	for c.Phase() != PhaseIdle {
		c.StepBudget(time.Millisecond)
	}

	stats := c.Stats()
	if stats.MinorCycles != 0 {
		t.Errorf("MinorCycles = %d, want 0 (every cycle major)", stats.MinorCycles)
	}
	if stats.BarrierHits != 0 {
		t.Errorf("BarrierHits = %d, want 0", stats.BarrierHits)
	}
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func BenchmarkAllocate(b *testing.B) {
	c, err := NewContext(DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Allocate(0, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSetSlotYoung(b *testing.B) {
	c, _ := NewContext(DefaultOptions())
	owner, _ := c.Allocate(1, 0)
	c.Pin(owner)
	child, _ := c.Allocate(0, 0)
	c.Pin(child)
	v := FromRef(child)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SetSlot(owner, 0, v)
	}
}

func BenchmarkStepBudget(b *testing.B) {
	c, _ := NewContext(DefaultOptions())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Allocate(0, 0)
		c.StepBudget(100 * time.Microsecond)
	}
}
