package gc

import (
	"errors"
	"testing"
)

// expectProtocolViolation runs fn and asserts it panics with
// ErrProtocolViolation.
func expectProtocolViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrProtocolViolation) {
			t.Fatalf("panic = %v, want ErrProtocolViolation", r)
		}
	}()
	fn()
}

func TestArenaPushPop(t *testing.T) {
	c := newTestContext(t, DefaultOptions())

	h1 := c.PushFrame()
	c.Protect(FromFixnum(1))
	h2 := c.PushFrame()
	c.Protect(FromFixnum(2))
	c.Protect(FromFixnum(3))

	if got := c.OpenFrames(); got != 2 {
		t.Errorf("OpenFrames = %d, want 2", got)
	}
	if got := c.ProtectedValues(); got != 3 {
		t.Errorf("ProtectedValues = %d, want 3", got)
	}

	c.PopFrame(h2)
	if got := c.ProtectedValues(); got != 1 {
		t.Errorf("ProtectedValues after inner pop = %d, want 1", got)
	}
	c.PopFrame(h1)
	if got := c.OpenFrames(); got != 0 {
		t.Errorf("OpenFrames after outer pop = %d, want 0", got)
	}
}

func TestProtectWithoutFrame(t *testing.T) {
	c := newTestContext(t, DefaultOptions())
	expectProtocolViolation(t, func() {
		c.Protect(FromFixnum(1))
	})
}

func TestPopFrameOutOfOrder(t *testing.T) {
	c := newTestContext(t, DefaultOptions())
	h1 := c.PushFrame()
	c.PushFrame()
	expectProtocolViolation(t, func() {
		c.PopFrame(h1) // inner frame still open
	})
}

func TestPopFrameWithoutPush(t *testing.T) {
	c := newTestContext(t, DefaultOptions())
	expectProtocolViolation(t, func() {
		c.PopFrame(0)
	})
}

func TestProtectedValueSurvivesFullCollect(t *testing.T) {
	c := newTestContext(t, DefaultOptions())
	var finalized int
	c.SetFinalizer(7, func(ObjectRef, *Object) { finalized++ })

	h := c.PushFrame()
	ref, err := c.Allocate(0, 7)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	c.FullCollect()
	if finalized != 0 {
		t.Fatal("protected object was reclaimed")
	}
	if got := c.Object(ref).TypeTag(); got != 7 {
		t.Errorf("TypeTag = %d after collect, want 7", got)
	}

	// After the frame pops, the same value is reclaimed (it is otherwise
	// unreachable).
	c.PopFrame(h)
	c.FullCollect()
	if finalized != 1 {
		t.Errorf("finalized = %d after pop+collect, want 1", finalized)
	}

	// And exactly once: another cycle must not re-finalize.
	c.FullCollect()
	if finalized != 1 {
		t.Errorf("finalized = %d after second collect, want 1", finalized)
	}
}

func TestAllocateAutoProtects(t *testing.T) {
	c := newTestContext(t, DefaultOptions())

	h := c.PushFrame()
	before := c.ProtectedValues()
	c.Allocate(0, 0)
	if got := c.ProtectedValues(); got != before+1 {
		t.Errorf("ProtectedValues = %d, want %d (new object auto-protected)", got, before+1)
	}
	c.PopFrame(h)

	// Without an open frame allocation leaves the arena untouched.
	c.Allocate(0, 0)
	if got := c.ProtectedValues(); got != 0 {
		t.Errorf("ProtectedValues = %d with no open frame, want 0", got)
	}
}

func TestLateProtectDuringMark(t *testing.T) {
	// A value protected after the root scan must still survive the
	// in-flight cycle.
	c := newTestContext(t, DefaultOptions())
	var finalized int
	c.SetFinalizer(9, func(ObjectRef, *Object) { finalized++ })

	// A populated heap so marking takes several steps.
	anchor, _ := c.Allocate(5, 0)
	c.Pin(anchor)
	prev := anchor
	for i := 0; i < 500; i++ {
		ref, _ := c.Allocate(5, 0)
		c.SetSlot(prev, 0, FromRef(ref))
		prev = ref
	}

	// Target allocated before the cycle so it carries the condemned white.
	target, _ := c.Allocate(0, 9)

	c.beginCycle(true)
	c.stepChunk() // root scan

	h := c.PushFrame()
	c.Protect(FromRef(target))

	for c.Phase() != PhaseIdle {
		c.StepBudget(0)
	}
	if finalized != 0 {
		t.Error("late-protected value was reclaimed by the in-flight cycle")
	}
	c.PopFrame(h)
}
