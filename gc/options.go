package gc

import "fmt"

// Options configures a Context at creation time. All fields are immutable
// once the context exists; there is no runtime tuning surface.
type Options struct {
	// PageSize is the approximate byte footprint of one heap page. Each
	// size class derives its per-page object capacity from this.
	PageSize int

	// MaxPages caps the number of committed pages across all size
	// classes. Allocation past the cap triggers one synchronous full
	// collection; if that frees nothing usable the allocation fails with
	// ErrOutOfMemory.
	MaxPages int

	// IntervalRatio is the live-heap growth percentage that starts a new
	// collection cycle: a cycle begins when the live object count exceeds
	// IntervalRatio/100 times the count recorded at the end of the
	// previous cycle.
	IntervalRatio int

	// StepRatio is the chunk granularity of incremental work: the number
	// of objects processed between wall-clock checks. It bounds the
	// worst-case overshoot of a budgeted step to one chunk.
	StepRatio int

	// MajorIncRatio is the number of minor cycles after which the next
	// cycle is forced major.
	MajorIncRatio int

	// Generational enables the young/old split and the write-barrier
	// remembered set. When false every cycle is major and field writes
	// carry no barrier cost.
	Generational bool

	// ArenaInitialCapacity is the number of protection frames the arena
	// preallocates.
	ArenaInitialCapacity int
}

// Defaults applied for zero-valued numeric fields. Generational is a plain
// bool: Options built by hand disable it unless set; DefaultOptions and the
// config loader enable it.
const (
	DefaultPageSize             = 16384
	DefaultMaxPages             = 1024
	DefaultIntervalRatio        = 200
	DefaultStepRatio            = 16
	DefaultMajorIncRatio        = 8
	DefaultArenaInitialCapacity = 64
)

// DefaultOptions returns the standard configuration: generational mode on,
// 16 KiB pages, 200% growth interval, 16-object chunks.
func DefaultOptions() Options {
	return Options{
		PageSize:             DefaultPageSize,
		MaxPages:             DefaultMaxPages,
		IntervalRatio:        DefaultIntervalRatio,
		StepRatio:            DefaultStepRatio,
		MajorIncRatio:        DefaultMajorIncRatio,
		Generational:         true,
		ArenaInitialCapacity: DefaultArenaInitialCapacity,
	}
}

// withDefaults fills zero-valued numeric fields from the defaults above.
func (o Options) withDefaults() Options {
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPages == 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.IntervalRatio == 0 {
		o.IntervalRatio = DefaultIntervalRatio
	}
	if o.StepRatio == 0 {
		o.StepRatio = DefaultStepRatio
	}
	if o.MajorIncRatio == 0 {
		o.MajorIncRatio = DefaultMajorIncRatio
	}
	if o.ArenaInitialCapacity == 0 {
		o.ArenaInitialCapacity = DefaultArenaInitialCapacity
	}
	return o
}

// validate rejects configurations the collector cannot run under.
func (o Options) validate() error {
	if o.PageSize < 256 {
		return fmt.Errorf("gc: page_size %d too small (minimum 256)", o.PageSize)
	}
	if o.MaxPages < NumSizeClasses {
		return fmt.Errorf("gc: max_pages %d cannot cover %d size classes", o.MaxPages, NumSizeClasses)
	}
	// ObjectRef packs page and slot indices into fixed-width fields; a
	// configuration that could overflow either would alias refs.
	if o.MaxPages > refPageMask+1 {
		return fmt.Errorf("gc: max_pages %d exceeds the %d addressable pages per class", o.MaxPages, refPageMask+1)
	}
	if o.PageSize/SizeClass(0).objectFootprint() > refSlotMask+1 {
		return fmt.Errorf("gc: page_size %d exceeds the %d addressable slots per page", o.PageSize, refSlotMask+1)
	}
	if o.IntervalRatio < 100 {
		return fmt.Errorf("gc: interval_ratio %d must be at least 100", o.IntervalRatio)
	}
	if o.StepRatio < 1 {
		return fmt.Errorf("gc: step_ratio %d must be positive", o.StepRatio)
	}
	if o.MajorIncRatio < 1 {
		return fmt.Errorf("gc: major_inc_ratio %d must be positive", o.MajorIncRatio)
	}
	if o.ArenaInitialCapacity < 1 {
		return fmt.Errorf("gc: arena_initial_capacity %d must be positive", o.ArenaInitialCapacity)
	}
	return nil
}
