package gc

import "fmt"

// ---------------------------------------------------------------------------
// ArenaRootSet: stack-disciplined protection for native call frames
// ---------------------------------------------------------------------------

// FrameHandle identifies one open protection frame. Handles are depth
// indices: PopFrame must receive the handle of the innermost open frame.
type FrameHandle int

// arena is a flat value stack with frame marks. A frame records where the
// value stack stood when it opened; popping truncates back to that mark,
// releasing every protection registered since, on every exit path the
// native glue takes (including error propagation).
type arena struct {
	values []Value
	frames []int
}

func newArena(frameCapacity int) *arena {
	return &arena{
		values: make([]Value, 0, frameCapacity*4),
		frames: make([]int, 0, frameCapacity),
	}
}

func (a *arena) open() bool {
	return len(a.frames) > 0
}

// PushFrame opens a protection scope and returns its handle. Native glue
// opens a frame before producing values the collector cannot yet see, and
// must pop it in strict LIFO order.
func (c *Context) PushFrame() FrameHandle {
	c.arena.frames = append(c.arena.frames, len(c.arena.values))
	return FrameHandle(len(c.arena.frames) - 1)
}

// Protect registers v as a collector root until the innermost open frame
// pops. Panics with ErrProtocolViolation when no frame is open.
// Protecting an immediate is a recorded no-op: it occupies an arena slot
// for LIFO bookkeeping but the collector ignores it.
func (c *Context) Protect(v Value) {
	if !c.arena.open() {
		panic(fmt.Errorf("%w: Protect with no open frame", ErrProtocolViolation))
	}
	c.protectValue(v)
}

func (c *Context) protectValue(v Value) {
	c.arena.values = append(c.arena.values, v)
	c.shadeNewRoot(v)
}

// PopFrame closes the protection scope h, releasing every value protected
// since the matching PushFrame. Frames are strictly LIFO: popping any frame
// other than the innermost open one panics with ErrProtocolViolation.
func (c *Context) PopFrame(h FrameHandle) {
	top := len(c.arena.frames) - 1
	if top < 0 {
		panic(fmt.Errorf("%w: PopFrame with no open frame", ErrProtocolViolation))
	}
	if int(h) != top {
		panic(fmt.Errorf("%w: PopFrame out of order (handle %d, innermost %d)", ErrProtocolViolation, h, top))
	}
	mark := c.arena.frames[top]
	c.arena.values = c.arena.values[:mark]
	c.arena.frames = c.arena.frames[:top]
}

// OpenFrames returns the number of protection frames currently open.
func (c *Context) OpenFrames() int {
	return len(c.arena.frames)
}

// ProtectedValues returns the number of values currently protected across
// all open frames.
func (c *Context) ProtectedValues() int {
	return len(c.arena.values)
}

// shadeNewRoot keeps a root registered after MarkRoots from being missed by
// the in-flight cycle: the root scan runs once, so late-registered roots
// are shaded immediately instead.
func (c *Context) shadeNewRoot(v Value) {
	if c.phase == PhaseMarkRoots || c.phase == PhaseMarkIncremental {
		c.shade(v)
	}
}
