package gc

import "math"

// Value represents a Quill value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-float values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Float: Native IEEE 754 double (if not a NaN, it's a float)
//   - Fixnum: Quiet NaN + tagFixnum + 48-bit signed payload
//   - HeapRef: Quiet NaN + tagRef + 48-bit object handle
//   - Symbol: Quiet NaN + tagSymbol + symbol ID
//   - Special: Quiet NaN + tagSpecial + special value ID (nil/true/false)
//   - Vec3: Quiet NaN + tagVec3 + three packed 8.8 fixed-point components
//
// Immediate values (everything except HeapRef) never participate in
// collection; decoding an immediate never touches heap memory. The heap
// handle payload is an opaque page/slot index, not a machine address, so
// its exact layout can change without affecting callers.
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	// 0x7FF8_0000_0000_0000
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	// 0x0007_0000_0000_0000
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for handle/int/id
	// 0x0000_FFFF_FFFF_FFFF
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagRef     uint64 = 0x0001000000000000 // Heap object handle
	tagFixnum  uint64 = 0x0002000000000000 // 48-bit signed integer
	tagSpecial uint64 = 0x0003000000000000 // nil, true, false
	tagSymbol  uint64 = 0x0004000000000000 // Interned symbol ID
	tagVec3    uint64 = 0x0005000000000000 // Packed 3-component vector

	// Sign bit for 48-bit integer sign extension
	fixnumSignBit uint64 = 0x0000800000000000

	// Mask for sign extension
	fixnumSignExtend uint64 = 0xFFFF000000000000
)

// Special value payloads
const (
	specialNil   uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
)

// Pre-defined special values
const (
	Nil   Value = Value(nanBits | tagSpecial | specialNil)
	True  Value = Value(nanBits | tagSpecial | specialTrue)
	False Value = Value(nanBits | tagSpecial | specialFalse)
)

// Fixnum range (48-bit signed)
const (
	MaxFixnum int64 = (1 << 47) - 1 // 140,737,488,355,327
	MinFixnum int64 = -(1 << 47)    // -140,737,488,355,328
)

// Vec3 fixed-point parameters. Each component is a 16-bit signed value in
// 8.8 fixed point: 1 sign bit, 7 integer bits, 8 fractional bits.
const (
	// Vec3Precision is the quantization step of a packed vector component.
	// Encoding is LOSSY: components are rounded to the nearest multiple of
	// this step and clamped to [Vec3Min, Vec3Max].
	Vec3Precision = 1.0 / 256.0

	// Vec3Max is the largest representable component value.
	Vec3Max = float64(math.MaxInt16) / 256.0

	// Vec3Min is the smallest representable component value.
	Vec3Min = float64(math.MinInt16) / 256.0
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsFloat returns true if v represents a float64 value.
// A value is a float if it's not one of our tagged NaN values.
// This includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsFloat() bool {
	bits := uint64(v)

	// Check if it's a NaN or Infinity (exponent all 1s)
	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		// Exponent is not all 1s, so it's a regular float
		return true
	}

	// Exponent is all 1s. Could be Infinity or NaN.
	// Infinity has mantissa == 0 (ignoring sign bit)
	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		return true
	}

	// It's a NaN. Check if it's one of our tagged values.
	if (bits & nanBits) != nanBits {
		// Quiet NaN bit not set - it's a signaling NaN, treat as float
		return true
	}

	// It's a quiet NaN. Check tag bits.
	tag := bits & tagMask
	if tag == 0 {
		// No tag bits set - it's a "real" quiet NaN, treat as float
		return true
	}

	// It's one of our tagged non-float values
	return false
}

// IsFixnum returns true if v represents a small integer.
func (v Value) IsFixnum() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagFixnum)
}

// IsRef returns true if v represents a heap object reference.
func (v Value) IsRef() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagRef)
}

// IsImmediate returns true if v is encoded without heap allocation.
// Immediates are never tracked by the collector.
func (v Value) IsImmediate() bool {
	return !v.IsRef()
}

// IsSymbol returns true if v represents an interned symbol.
func (v Value) IsSymbol() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagSymbol)
}

// IsVec3 returns true if v represents a packed 3-component vector.
func (v Value) IsVec3() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagVec3)
}

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool {
	return v == Nil
}

// IsTrue returns true if v is the true value.
func (v Value) IsTrue() bool {
	return v == True
}

// IsFalse returns true if v is the false value.
func (v Value) IsFalse() bool {
	return v == False
}

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// IsSpecial returns true if v is nil, true, or false.
func (v Value) IsSpecial() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagSpecial)
}

// ---------------------------------------------------------------------------
// Float operations
// ---------------------------------------------------------------------------

// Float64 returns v as a float64.
// Panics if v is not a float.
func (v Value) Float64() float64 {
	if !v.IsFloat() {
		panic("Value.Float64: not a float")
	}
	return math.Float64frombits(uint64(v))
}

// FromFloat64 creates a Value from a float64.
func FromFloat64(f float64) Value {
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// Fixnum operations
// ---------------------------------------------------------------------------

// Fixnum returns v as an int64.
// Panics if v is not a fixnum.
func (v Value) Fixnum() int64 {
	if !v.IsFixnum() {
		panic("Value.Fixnum: not a fixnum")
	}
	payload := uint64(v) & payloadMask

	// Sign extend from 48 bits to 64 bits
	if (payload & fixnumSignBit) != 0 {
		payload |= fixnumSignExtend
	}
	return int64(payload)
}

// FromFixnum creates a Value from an int64.
// Panics if n is outside the fixnum range.
func FromFixnum(n int64) Value {
	if n > MaxFixnum || n < MinFixnum {
		panic("FromFixnum: value out of range")
	}
	return Value(nanBits | tagFixnum | (uint64(n) & payloadMask))
}

// TryFromFixnum creates a Value from an int64, returning false if out of range.
func TryFromFixnum(n int64) (Value, bool) {
	if n > MaxFixnum || n < MinFixnum {
		return Nil, false
	}
	return Value(nanBits | tagFixnum | (uint64(n) & payloadMask)), true
}

// ---------------------------------------------------------------------------
// Heap reference operations
// ---------------------------------------------------------------------------

// Ref returns the heap object reference encoded in v.
// Panics if v is not a heap reference; use AsRef for a checked form.
func (v Value) Ref() ObjectRef {
	if !v.IsRef() {
		panic("Value.Ref: not a heap reference")
	}
	return ObjectRef(uint64(v) & payloadMask)
}

// AsRef returns the heap object reference encoded in v, or
// ErrTypeMismatch if v is an immediate. The checked form for callers that
// cannot rule immediates out (dispatch fast paths, native glue).
func (v Value) AsRef() (ObjectRef, error) {
	if !v.IsRef() {
		return InvalidRef, ErrTypeMismatch
	}
	return ObjectRef(uint64(v) & payloadMask), nil
}

// FromRef creates a Value from a heap object reference.
func FromRef(ref ObjectRef) Value {
	return Value(nanBits | tagRef | (uint64(ref) & payloadMask))
}

// ---------------------------------------------------------------------------
// Symbol operations
// ---------------------------------------------------------------------------

// SymbolID returns the symbol ID encoded in v.
// Panics if v is not a symbol.
func (v Value) SymbolID() uint32 {
	if !v.IsSymbol() {
		panic("Value.SymbolID: not a symbol")
	}
	return uint32(uint64(v) & payloadMask)
}

// FromSymbolID creates a Value from a symbol ID.
func FromSymbolID(id uint32) Value {
	return Value(nanBits | tagSymbol | uint64(id))
}

// ---------------------------------------------------------------------------
// Vec3 operations
// ---------------------------------------------------------------------------

// FromVec3 packs a 3-component vector into an immediate Value.
// Each component is quantized to 8.8 fixed point (nearest multiple of
// Vec3Precision, ties away from zero) and clamped to [Vec3Min, Vec3Max].
// The round trip through Vec3 is therefore lossy; callers needing full
// float64 precision must use three float Values or a heap object instead.
func FromVec3(x, y, z float64) Value {
	px := uint64(packFixed(x))
	py := uint64(packFixed(y))
	pz := uint64(packFixed(z))
	payload := px<<32 | py<<16 | pz
	return Value(nanBits | tagVec3 | payload)
}

// Vec3 unpacks the three components of a packed vector.
// Panics if v is not a Vec3.
func (v Value) Vec3() (x, y, z float64) {
	if !v.IsVec3() {
		panic("Value.Vec3: not a packed vector")
	}
	payload := uint64(v) & payloadMask
	x = unpackFixed(uint16(payload >> 32))
	y = unpackFixed(uint16(payload >> 16))
	z = unpackFixed(uint16(payload))
	return x, y, z
}

func packFixed(f float64) uint16 {
	scaled := math.Round(f * 256.0)
	if scaled > float64(math.MaxInt16) {
		scaled = float64(math.MaxInt16)
	} else if scaled < float64(math.MinInt16) {
		scaled = float64(math.MinInt16)
	}
	return uint16(int16(scaled))
}

func unpackFixed(bits uint16) float64 {
	return float64(int16(bits)) / 256.0
}
