// Package heapdump captures point-in-time snapshots of a memory-manager
// context for offline inspection: per-class occupancy, the live object
// graph, and the root set. Snapshots are plain data — capturing one reads
// the heap but never mutates it, and nothing here persists state on the
// collector's behalf; callers own the encoded bytes.
package heapdump

import (
	"time"

	"github.com/google/uuid"

	"github.com/quillvm/quill/gc"
)

// Snapshot is one captured heap state.
type Snapshot struct {
	ID        string    `cbor:"id"`
	ContextID string    `cbor:"context_id"`
	TakenAt   time.Time `cbor:"taken_at"`
	Phase     string    `cbor:"phase"`

	Classes []ClassStats   `cbor:"classes"`
	Objects []ObjectRecord `cbor:"objects"`
	Roots   []uint64       `cbor:"roots"`
}

// ClassStats summarizes one size class's committed pages.
type ClassStats struct {
	Class          int `cbor:"class"`
	SlotsPerObject int `cbor:"slots_per_object"`
	Pages          int `cbor:"pages"`
	Capacity       int `cbor:"capacity"`
	Live           int `cbor:"live"`
}

// ObjectRecord describes one live object. Refs holds the handles of every
// heap reference found in the object's slots; immediate slot values are
// summarized by count only, since they carry no graph structure.
type ObjectRecord struct {
	Ref        uint64   `cbor:"ref"`
	TypeTag    uint16   `cbor:"type_tag"`
	Generation string   `cbor:"generation"`
	SlotCount  int      `cbor:"slot_count"`
	Refs       []uint64 `cbor:"refs,omitempty"`
}

// Capture records the current state of ctx. The caller must not be inside
// a collection callback; capture itself performs no allocation from the
// managed heap.
func Capture(ctx *gc.Context) *Snapshot {
	snap := &Snapshot{
		ID:        uuid.New().String(),
		ContextID: ctx.InstanceID(),
		TakenAt:   time.Now().UTC(),
		Phase:     ctx.Phase().String(),
	}

	live := make(map[int]int, gc.NumSizeClasses)
	ctx.EachObject(func(ref gc.ObjectRef, obj *gc.Object) bool {
		rec := ObjectRecord{
			Ref:        uint64(ref),
			TypeTag:    uint16(obj.TypeTag()),
			Generation: obj.Generation().String(),
			SlotCount:  obj.SlotCount(),
		}
		for i := 0; i < obj.SlotCount(); i++ {
			v := obj.Slot(i)
			if v.IsRef() {
				rec.Refs = append(rec.Refs, uint64(v.Ref()))
			}
		}
		snap.Objects = append(snap.Objects, rec)

		class, _ := gc.SizeClassFor(obj.SlotCount())
		live[int(class)]++
		return true
	})

	for class := 0; class < gc.NumSizeClasses; class++ {
		sc := gc.SizeClass(class)
		snap.Classes = append(snap.Classes, ClassStats{
			Class:          class,
			SlotsPerObject: sc.SlotsPerObject(),
			Pages:          ctx.PageCount(sc),
			Capacity:       ctx.ClassCapacity(sc),
			Live:           live[class],
		})
	}

	seen := make(map[uint64]struct{})
	ctx.EachRoot(func(v gc.Value) bool {
		if !v.IsRef() {
			return true
		}
		ref := uint64(v.Ref())
		if _, dup := seen[ref]; !dup {
			seen[ref] = struct{}{}
			snap.Roots = append(snap.Roots, ref)
		}
		return true
	})

	return snap
}

// Reachable returns the set of object handles reachable from the snapshot's
// roots, following recorded references breadth-first. Objects outside the
// returned set were garbage (or only barrier-reachable) at capture time.
func (s *Snapshot) Reachable() map[uint64]struct{} {
	index := make(map[uint64]*ObjectRecord, len(s.Objects))
	for i := range s.Objects {
		index[s.Objects[i].Ref] = &s.Objects[i]
	}

	reached := make(map[uint64]struct{})
	queue := make([]uint64, 0, len(s.Roots))
	for _, root := range s.Roots {
		if _, ok := index[root]; ok {
			if _, dup := reached[root]; !dup {
				reached[root] = struct{}{}
				queue = append(queue, root)
			}
		}
	}

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		for _, child := range index[ref].Refs {
			if _, ok := index[child]; !ok {
				continue
			}
			if _, dup := reached[child]; dup {
				continue
			}
			reached[child] = struct{}{}
			queue = append(queue, child)
		}
	}
	return reached
}

// LiveObjects returns the number of objects in the snapshot.
func (s *Snapshot) LiveObjects() int {
	return len(s.Objects)
}
