// Package format defines the wire-level constants shared by every bsoncolumn
// component: the element type tags, the Simple-8b scale-class control
// nibbles, and the fixed marker bytes that appear in the column byte stream.
//
// Nothing in this package allocates or performs I/O; it exists purely to
// give every other package a single, typed source of truth for the byte
// layout described in the specification.
package format

// TypeTag identifies the BSON-like primitive type of an Element. The set is
// closed: encoders must reject any value outside it.
type TypeTag uint8

const (
	TypeEOO        TypeTag = 0x00
	TypeDouble     TypeTag = 0x01
	TypeString     TypeTag = 0x02
	TypeObject     TypeTag = 0x03
	TypeArray      TypeTag = 0x04
	TypeBinData    TypeTag = 0x05
	TypeUndefined  TypeTag = 0x06
	TypeObjectId   TypeTag = 0x07
	TypeBool       TypeTag = 0x08
	TypeDate       TypeTag = 0x09
	TypeNull       TypeTag = 0x0A
	TypeRegEx      TypeTag = 0x0B
	TypeDBRef      TypeTag = 0x0C
	TypeSymbol     TypeTag = 0x0E
	TypeCodeWScope TypeTag = 0x0F
	TypeInt32      TypeTag = 0x10
	TypeTimestamp  TypeTag = 0x11
	TypeInt64      TypeTag = 0x12
	TypeDecimal128 TypeTag = 0x13
	TypeMinKey     TypeTag = 0xFF
	TypeMaxKey     TypeTag = 0x7F
)

// String renders a TypeTag for diagnostics. It is not part of the wire
// format.
func (t TypeTag) String() string {
	switch t {
	case TypeEOO:
		return "EOO"
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeObject:
		return "Object"
	case TypeArray:
		return "Array"
	case TypeBinData:
		return "BinData"
	case TypeUndefined:
		return "Undefined"
	case TypeObjectId:
		return "ObjectId"
	case TypeBool:
		return "Bool"
	case TypeDate:
		return "Date"
	case TypeNull:
		return "Null"
	case TypeRegEx:
		return "RegEx"
	case TypeDBRef:
		return "DBRef"
	case TypeCodeWScope:
		return "CodeWScope"
	case TypeSymbol:
		return "Symbol"
	case TypeInt32:
		return "Int32"
	case TypeTimestamp:
		return "Timestamp"
	case TypeInt64:
		return "Int64"
	case TypeDecimal128:
		return "Decimal128"
	case TypeMinKey:
		return "MinKey"
	case TypeMaxKey:
		return "MaxKey"
	default:
		return "Unknown"
	}
}

// IsForcedLiteral reports whether values of this type can never be
// delta-encoded and must always be emitted as a literal control block
// (spec.md §4.1 type table).
func (t TypeTag) IsForcedLiteral() bool {
	switch t {
	case TypeObject, TypeArray, TypeRegEx, TypeDBRef, TypeCodeWScope, TypeSymbol:
		return true
	default:
		return false
	}
}

// Width64 reports whether this type's delta stream packs into 64-bit
// Simple-8b blocks, as opposed to the 128-bit variant used for small
// strings, BinData, and Decimal128.
func (t TypeTag) Width64() bool {
	switch t {
	case TypeString, TypeBinData, TypeDecimal128:
		return false
	default:
		return true
	}
}

// IsDeltaOfDelta reports whether the type's delta chain is itself
// differenced (only Timestamp, per spec.md §4.1).
func (t TypeTag) IsDeltaOfDelta() bool {
	return t == TypeTimestamp
}

// ScaleIndex is the Double Scaling Engine's exponent selector (spec.md §3).
// Values 0..4 are decimal scales 10^s; 5 is the raw-bit escape.
type ScaleIndex uint8

const (
	Scale0   ScaleIndex = 0
	Scale1   ScaleIndex = 1
	Scale2   ScaleIndex = 2
	Scale3   ScaleIndex = 3
	Scale4   ScaleIndex = 4
	ScaleRaw ScaleIndex = 5
)

// ScaleNibble maps a ScaleIndex to its control-byte high nibble, per the
// fixed table in spec.md §3.
var ScaleNibble = [6]byte{
	Scale0:   0x90,
	Scale1:   0xA0,
	Scale2:   0xB0,
	Scale3:   0xC0,
	Scale4:   0xD0,
	ScaleRaw: 0x80,
}

// NibbleToScale is the inverse of ScaleNibble, keyed by the control byte's
// high nibble (e.g. 0x90, not 0x09).
var NibbleToScale = map[byte]ScaleIndex{
	0x90: Scale0,
	0xA0: Scale1,
	0xB0: Scale2,
	0xC0: Scale3,
	0xD0: Scale4,
	0x80: ScaleRaw,
}

// MaxBlocksPerControl is the maximum number of Simple-8b blocks a single
// control byte can describe: its low nibble stores (count-1) in 4 bits.
const MaxBlocksPerControl = 16

// InterleavedStartByte is the fixed marker that opens an InterleavedSegment
// (spec.md §3, §6).
const InterleavedStartByte = 0xF0

// Terminator is the single byte that closes a Column or an
// InterleavedSegment.
const Terminator = 0x00

// NameTerminator is the null byte following an (always-empty, for encoder
// purposes) field name inside a LiteralBlock or the previous-element cache.
const NameTerminator = 0x00

// CompressionType selects the at-rest codec the Column Assembler applies to
// the finished blob (SPEC_FULL.md §4, an ambient feature layered on top of
// the bit-exact encoder output; disabled by default).
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1
	CompressionZstd CompressionType = 0x2
	CompressionS2   CompressionType = 0x3
	CompressionLZ4  CompressionType = 0x4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
