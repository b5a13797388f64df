package gc

// ---------------------------------------------------------------------------
// Object references
// ---------------------------------------------------------------------------

// ObjectRef is an opaque handle to a heap object. It encodes the owning
// size class, page index, and slot index within the page, and fits in the
// 48-bit NaN-box payload. Because the heap never relocates objects, a ref
// stays valid for the object's entire lifetime, including across collection
// steps while native code holds it.
//
// Handle layout (48 bits): [class+1 : 8][page : 20][slot : 20].
// The class field is biased by one so that InvalidRef (all zero) can never
// name a real object.
type ObjectRef uint64

// InvalidRef is the zero ObjectRef; it never refers to an object.
const InvalidRef ObjectRef = 0

const (
	refSlotBits   = 20
	refPageBits   = 20
	refSlotMask   = (1 << refSlotBits) - 1
	refPageMask   = (1 << refPageBits) - 1
	refPageShift  = refSlotBits
	refClassShift = refSlotBits + refPageBits
)

func makeRef(class SizeClass, page, slot int) ObjectRef {
	return ObjectRef(uint64(class+1)<<refClassShift |
		uint64(page&refPageMask)<<refPageShift |
		uint64(slot&refSlotMask))
}

// IsValid returns true if the ref names an object (it says nothing about
// whether that object is still live).
func (r ObjectRef) IsValid() bool {
	return r != InvalidRef
}

func (r ObjectRef) sizeClass() SizeClass {
	return SizeClass(uint64(r)>>refClassShift) - 1
}

func (r ObjectRef) pageIndex() int {
	return int(uint64(r) >> refPageShift & refPageMask)
}

func (r ObjectRef) slotIndex() int {
	return int(uint64(r) & refSlotMask)
}

// ---------------------------------------------------------------------------
// Object header
// ---------------------------------------------------------------------------

// color is the tri-color mark state of an object. Two white shades are used
// so that objects allocated while a cycle is in flight can be told apart
// from objects the cycle has condemned: the sweeper reclaims only the shade
// that was current when the cycle began (the Lua lineage of incremental
// collectors uses the same trick).
type color uint8

const (
	colorWhite0 color = iota
	colorWhite1
	colorGray
	colorBlack
)

func (c color) isWhite() bool {
	return c == colorWhite0 || c == colorWhite1
}

func otherWhite(c color) color {
	if c == colorWhite0 {
		return colorWhite1
	}
	return colorWhite0
}

// Generation is the age classification of an object.
type Generation uint8

const (
	// GenYoung marks objects that have not yet survived a collection cycle.
	GenYoung Generation = iota
	// GenOld marks objects that survived a cycle. The transition is
	// young -> old, exactly once, at the end of the cycle that marked the
	// object as surviving; old objects never return to young.
	GenOld
)

// String returns "young" or "old".
func (g Generation) String() string {
	if g == GenOld {
		return "old"
	}
	return "young"
}

// TypeTag identifies the VM-level type of an object (string, array,
// instance, native wrapper, ...). The memory manager treats it as opaque
// except for finalizer lookup; the object model assigns meanings.
type TypeTag uint16

// Object is the header and slot storage of one heap-allocated value.
// Objects are owned exclusively by the page that allocated them and never
// move. The slots slice is allocated once at page construction and reused
// across free/allocate, so slot storage addresses are stable too.
type Object struct {
	color    color
	gen      Generation
	typeTag  TypeTag
	class    SizeClass
	live     bool
	nextFree int32 // free-list link; meaningful only while unreachable

	slots []Value
}

// TypeTag returns the VM-level type tag assigned at allocation.
func (o *Object) TypeTag() TypeTag {
	return o.typeTag
}

// Generation returns the object's current age classification.
func (o *Object) Generation() Generation {
	return o.gen
}

// SlotCount returns the number of value slots the object carries, which is
// fixed by its size class.
func (o *Object) SlotCount() int {
	return len(o.slots)
}

// ---------------------------------------------------------------------------
// Size classes
// ---------------------------------------------------------------------------

// SizeClass selects the fixed slot count an object is allocated with.
// Each class is served by dedicated pages.
type SizeClass int

// Slot counts per size class. Requests are rounded up to the nearest class.
var sizeClassSlots = [...]int{2, 4, 8, 16, 32, 64}

// NumSizeClasses is the number of distinct size classes.
const NumSizeClasses = len(sizeClassSlots)

// MaxObjectSlots is the largest slot count a single object can carry.
const MaxObjectSlots = 64

// headerBytes approximates the per-object footprint of the header when
// computing how many objects fit in one page.
const headerBytes = 16

// SizeClassFor returns the smallest size class holding at least nslots
// value slots. ok is false when nslots exceeds MaxObjectSlots.
func SizeClassFor(nslots int) (SizeClass, bool) {
	if nslots < 0 || nslots > MaxObjectSlots {
		return 0, false
	}
	for class, slots := range sizeClassSlots {
		if slots >= nslots {
			return SizeClass(class), true
		}
	}
	return 0, false
}

// SlotsPerObject returns the slot count objects of the class carry.
func (c SizeClass) SlotsPerObject() int {
	return sizeClassSlots[c]
}

func (c SizeClass) valid() bool {
	return c >= 0 && int(c) < NumSizeClasses
}

// objectFootprint is the approximate byte cost of one object of the class,
// used to size pages.
func (c SizeClass) objectFootprint() int {
	return headerBytes + c.SlotsPerObject()*8
}
