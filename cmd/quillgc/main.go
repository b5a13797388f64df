// Quill GC diagnostic tool - drives the memory manager under synthetic load.
//
// Usage:
//   quillgc stress [-config quill.toml] [-frames 1000] [-allocs 1000] [-budget 1ms] [-live 4096]
//   quillgc dump   [-config quill.toml] [-allocs 10000] [-out heap.cbor]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/quillvm/quill/config"
	"github.com/quillvm/quill/gc"
	"github.com/quillvm/quill/heapdump"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quillgc <stress|dump> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  stress   Run a synthetic frame loop and report pause/reclaim stats\n")
		fmt.Fprintf(os.Stderr, "  dump     Allocate a synthetic graph and write a CBOR heap snapshot\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	commonlog.Configure(1, nil)

	var err error
	switch flag.Arg(0) {
	case "stress":
		err = runStress(flag.Args()[1:])
	case "dump":
		err = runDump(flag.Args()[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "quillgc: %v\n", err)
		os.Exit(1)
	}
}

// newContext builds a context from an optional quill.toml path.
func newContext(configPath string) (*gc.Context, error) {
	opts := gc.DefaultOptions()
	if configPath != "" {
		rt, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		opts = rt.Options()
	}
	return gc.NewContext(opts)
}

// runStress simulates a frame loop: every frame allocates a batch of
// objects, retires an equal batch from a rolling live set, and then grants
// the collector a fixed budget. It reports the pause distribution the host
// would observe.
func runStress(args []string) error {
	fs := flag.NewFlagSet("stress", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to quill.toml")
	frames := fs.Int("frames", 1000, "Simulated frames to run")
	allocs := fs.Int("allocs", 1000, "Objects allocated per frame")
	liveCap := fs.Int("live", 4096, "Rolling live-set size")
	budget := fs.Duration("budget", time.Millisecond, "Collector budget per frame")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, err := newContext(*configPath)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	live := make([]gc.ObjectRef, 0, *liveCap)
	var maxFrame time.Duration
	var overBudget int

	for frame := 0; frame < *frames; frame++ {
		h := ctx.PushFrame()
		for i := 0; i < *allocs; i++ {
			ref, err := ctx.Allocate(gc.SizeClass(rng.Intn(3)), 1)
			if err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			if len(live) < cap(live) {
				ctx.Pin(ref)
				live = append(live, ref)
			} else {
				victim := rng.Intn(len(live))
				ctx.Unpin(live[victim])
				ctx.Pin(ref)
				live[victim] = ref
			}
		}
		ctx.PopFrame(h)

		start := time.Now()
		ctx.StepBudget(*budget)
		elapsed := time.Since(start)
		if elapsed > maxFrame {
			maxFrame = elapsed
		}
		if elapsed > *budget {
			overBudget++
		}
	}

	stats := ctx.Stats()
	fmt.Printf("frames:           %d\n", *frames)
	fmt.Printf("allocated:        %d\n", stats.ObjectsAllocated)
	fmt.Printf("swept:            %d\n", stats.ObjectsSwept)
	fmt.Printf("promoted:         %d\n", stats.ObjectsPromoted)
	fmt.Printf("minor cycles:     %d\n", stats.MinorCycles)
	fmt.Printf("major cycles:     %d\n", stats.MajorCycles)
	fmt.Printf("live objects:     %d\n", stats.LiveObjects)
	fmt.Printf("committed pages:  %d\n", stats.CommittedPages)
	fmt.Printf("max step pause:   %s\n", stats.MaxPause)
	fmt.Printf("max frame GC:     %s\n", maxFrame)
	fmt.Printf("frames > budget:  %d\n", overBudget)
	return nil
}

// runDump allocates a random object graph, collects once, and writes a
// canonical CBOR snapshot of what survived.
func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to quill.toml")
	allocs := fs.Int("allocs", 10000, "Objects to allocate")
	out := fs.String("out", "heap.cbor", "Snapshot output path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, err := newContext(*configPath)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	refs := make([]gc.ObjectRef, 0, *allocs)
	h := ctx.PushFrame()
	for i := 0; i < *allocs; i++ {
		ref, err := ctx.Allocate(gc.SizeClass(rng.Intn(3)), 1)
		if err != nil {
			return err
		}
		// Link each object to a couple of earlier ones so the snapshot has
		// graph structure.
		if len(refs) > 0 {
			ctx.SetSlot(ref, 0, gc.FromRef(refs[rng.Intn(len(refs))]))
			ctx.SetSlot(ref, 1, gc.FromFixnum(int64(i)))
		}
		refs = append(refs, ref)
		if i%2 == 0 {
			ctx.Pin(ref)
		}
	}
	ctx.PopFrame(h)
	ctx.FullCollect()

	snap := heapdump.Capture(ctx)
	data, err := heapdump.Marshal(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}

	fmt.Printf("snapshot %s: %d live objects, %d roots, %d reachable, %d bytes -> %s\n",
		snap.ID, snap.LiveObjects(), len(snap.Roots), len(snap.Reachable()), len(data), *out)
	return nil
}
