// Package bsonvalue is a minimal, concrete implementation of the Element
// contract spec.md §6 requires the encoder to consume.
//
// The record model itself — field tags, field names, nested-record
// traversal — is explicitly out of scope for this module's design (spec.md
// §1): the encoder only ever calls the accessors below. This package exists
// so the rest of bsoncolumn has something concrete to compile and test
// against; it intentionally carries no parsing, no validation beyond type
// tagging, and no decode path.
package bsonvalue

import (
	"iter"
	"math"
	"time"

	"github.com/column-core/bsoncolumn/format"
)

// ObjectId is a 12-byte BSON ObjectId. Per the original encoder's delta
// scheme (SPEC_FULL.md §5), bytes [4:9) are its "instance-unique" portion —
// the 5-byte per-process unique value, between the timestamp and the
// counter — used to decide whether two ObjectIds may share a delta chain.
type ObjectId [12]byte

// InstanceUnique returns the 5-byte instance-unique slice (bytes [4:9))
// used by the ObjectId delta comparison in scalar.Encoder.appendDelta.
func (o ObjectId) InstanceUnique() [5]byte {
	var b [5]byte
	copy(b[:], o[4:9])
	return b
}

// Decimal128 is an IEEE 754-2008 128-bit decimal, stored as its raw
// little-endian low/high 64-bit halves.
type Decimal128 struct {
	Low, High uint64
}

// Timestamp is a BSON Timestamp: a 32-bit seconds-since-epoch value and a
// 32-bit ordinal, packed high-to-low the way the wire format stores it.
type Timestamp struct {
	T uint32 // seconds
	I uint32 // increment/ordinal
}

// Pack returns the Timestamp as the single uint64 the encoder deltas
// against (I in the low 32 bits, T in the high 32, per BSON's wire layout).
func (ts Timestamp) Pack() uint64 {
	return uint64(ts.T)<<32 | uint64(ts.I)
}

// Element is the read-only value contract the encoder consumes (spec.md
// §6). Implementations are borrowed by the encoder for the duration of one
// append/skip call; the encoder owns an independent copy of anything it
// needs to retain (see scalar.Encoder's previous-element cache).
type Element interface {
	Type() format.TypeTag
	ValueSize() int
	ValuePtr() []byte
	FieldName() string

	AsInt32() (int32, bool)
	AsInt64() (int64, bool)
	AsDouble() (float64, bool)
	AsBool() (bool, bool)
	AsDate() (int64, bool) // milliseconds since epoch
	AsTimestamp() (Timestamp, bool)
	AsObjectId() (ObjectId, bool)
	AsDecimal128() (Decimal128, bool)
	AsString() (string, bool)
	AsBinData(size int) ([]byte, byte, bool)
	AsRecord() (Record, bool)
}

// Record is the nested-document contract: forward iteration over child
// elements (each field carries its own FieldName) plus an emptiness check
// the Interleaved Sub-Object Controller uses for its lock-step comparisons.
type Record interface {
	IsEmpty() bool
	Fields() iter.Seq[Element]
	Len() int
}

// element is the concrete Element implementation used throughout this
// module's own tests and examples.
type element struct {
	typ  format.TypeTag
	name string

	i64        int64
	f64        float64
	b          bool
	oid        ObjectId
	dec        Decimal128
	ts         Timestamp
	str        string
	bin        []byte
	binSubtype byte
	rec        Record
}

var _ Element = (*element)(nil)

func (e *element) Type() format.TypeTag { return e.typ }
func (e *element) FieldName() string    { return e.name }

// ValueSize returns the byte length of ValuePtr's payload, not counting the
// type byte or name terminator.
func (e *element) ValueSize() int { return len(e.ValuePtr()) }

// ValuePtr renders the element's value as the raw bytes that would follow
// the type byte and name terminator in a BSON-style encoding. It is used
// only by literal emission (scalar.Encoder writes type byte + name
// terminator + ValuePtr()) and by the previous-element cache.
func (e *element) ValuePtr() []byte {
	switch e.typ {
	case format.TypeInt32:
		return le32(uint32(e.i64))
	case format.TypeInt64, format.TypeDate:
		return le64(uint64(e.i64))
	case format.TypeDouble:
		return le64(math.Float64bits(e.f64))
	case format.TypeBool:
		if e.b {
			return []byte{1}
		}
		return []byte{0}
	case format.TypeTimestamp:
		return le64(e.ts.Pack())
	case format.TypeObjectId:
		return append([]byte(nil), e.oid[:]...)
	case format.TypeDecimal128:
		b := make([]byte, 16)
		putLE64(b[0:8], e.dec.Low)
		putLE64(b[8:16], e.dec.High)
		return b
	case format.TypeString, format.TypeSymbol:
		b := make([]byte, 4+len(e.str)+1)
		putLE32(b[0:4], uint32(len(e.str)+1))
		copy(b[4:], e.str)
		return b
	case format.TypeBinData:
		b := make([]byte, 4+1+len(e.bin))
		putLE32(b[0:4], uint32(len(e.bin)))
		b[4] = e.binSubtype
		copy(b[5:], e.bin)
		return b
	case format.TypeNull, format.TypeUndefined, format.TypeMinKey, format.TypeMaxKey:
		return nil
	case format.TypeObject, format.TypeArray:
		return nil // the literal payload for records is the caller's concern; not deltable anyway
	default:
		return e.bin // RegEx, DBRef, CodeWScope: opaque forced-literal payload
	}
}

func (e *element) AsInt32() (int32, bool) {
	if e.typ != format.TypeInt32 {
		return 0, false
	}
	return int32(e.i64), true
}

func (e *element) AsInt64() (int64, bool) {
	if e.typ != format.TypeInt64 {
		return 0, false
	}
	return e.i64, true
}

func (e *element) AsDouble() (float64, bool) {
	if e.typ != format.TypeDouble {
		return 0, false
	}
	return e.f64, true
}

func (e *element) AsBool() (bool, bool) {
	if e.typ != format.TypeBool {
		return false, false
	}
	return e.b, true
}

func (e *element) AsDate() (int64, bool) {
	if e.typ != format.TypeDate {
		return 0, false
	}
	return e.i64, true
}

func (e *element) AsTimestamp() (Timestamp, bool) {
	if e.typ != format.TypeTimestamp {
		return Timestamp{}, false
	}
	return e.ts, true
}

func (e *element) AsObjectId() (ObjectId, bool) {
	if e.typ != format.TypeObjectId {
		return ObjectId{}, false
	}
	return e.oid, true
}

func (e *element) AsDecimal128() (Decimal128, bool) {
	if e.typ != format.TypeDecimal128 {
		return Decimal128{}, false
	}
	return e.dec, true
}

func (e *element) AsString() (string, bool) {
	if e.typ != format.TypeString && e.typ != format.TypeSymbol {
		return "", false
	}
	return e.str, true
}

func (e *element) AsBinData(size int) ([]byte, byte, bool) {
	if e.typ != format.TypeBinData || len(e.bin) != size {
		return nil, 0, false
	}
	return e.bin, e.binSubtype, true
}

func (e *element) AsRecord() (Record, bool) {
	if e.typ != format.TypeObject && e.typ != format.TypeArray {
		return nil, false
	}
	return e.rec, true
}

// record is the concrete Record implementation: an ordered list of named
// fields.
type record struct {
	fields []Element
}

var _ Record = (*record)(nil)

func (r *record) IsEmpty() bool { return len(r.fields) == 0 }
func (r *record) Len() int      { return len(r.fields) }

func (r *record) Fields() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for _, f := range r.fields {
			if !yield(f) {
				return
			}
		}
	}
}

// --- Constructors -----------------------------------------------------

// Field pairs a name with a value for use in NewObject/NewArray.
type Field struct {
	Name  string
	Value Element
}

func Int32(v int32) Element    { return &element{typ: format.TypeInt32, i64: int64(v)} }
func Int64(v int64) Element    { return &element{typ: format.TypeInt64, i64: v} }
func Double(v float64) Element { return &element{typ: format.TypeDouble, f64: v} }
func Bool(v bool) Element      { return &element{typ: format.TypeBool, b: v} }

// Date takes a time.Time and stores it as milliseconds since epoch, the
// BSON Date wire representation.
func Date(t time.Time) Element {
	return &element{typ: format.TypeDate, i64: t.UnixMilli()}
}

func TimestampVal(t, i uint32) Element {
	return &element{typ: format.TypeTimestamp, ts: Timestamp{T: t, I: i}}
}

func ObjectIdVal(oid ObjectId) Element {
	return &element{typ: format.TypeObjectId, oid: oid}
}

func Decimal128Val(d Decimal128) Element {
	return &element{typ: format.TypeDecimal128, dec: d}
}

func String(s string) Element { return &element{typ: format.TypeString, str: s} }
func Symbol(s string) Element { return &element{typ: format.TypeSymbol, str: s} }

func BinData(subtype byte, data []byte) Element {
	return &element{typ: format.TypeBinData, bin: data, binSubtype: subtype}
}

func Null() Element      { return &element{typ: format.TypeNull} }
func Undefined() Element { return &element{typ: format.TypeUndefined} }
func MinKey() Element    { return &element{typ: format.TypeMinKey} }
func MaxKey() Element    { return &element{typ: format.TypeMaxKey} }

// RegEx, DBRef, CodeWScope are always forced literals (spec.md §4.1); the
// encoder never inspects their payload, so a single opaque-bytes
// constructor covers all three.
func Opaque(typ format.TypeTag, payload []byte) Element {
	return &element{typ: typ, bin: payload}
}

// NewObject builds a record-valued element of type Object from an ordered
// list of named fields, attaching each field's name for traversal.
func NewObject(fields ...Field) Element {
	return newRecordElement(format.TypeObject, fields)
}

// NewArray builds a record-valued element of type Array. The encoder treats
// Array the same as Object (both are forced literals, spec.md §4.1), and
// the Interleaved Sub-Object Controller transposes any record-valued
// element, Arrays included (spec.md §4.3) — an Array inside a reference
// becomes a nested record node, not a leaf.
func NewArray(fields ...Field) Element {
	return newRecordElement(format.TypeArray, fields)
}

func newRecordElement(typ format.TypeTag, fields []Field) Element {
	named := make([]Element, len(fields))
	for i, f := range fields {
		named[i] = withName(f.Value, f.Name)
	}
	return &element{typ: typ, rec: &record{fields: named}}
}

// withName returns a copy of e carrying the given field name. Used only
// when building a Record's children, since a bare constructor (Int32,
// String, ...) produces an unnamed top-level element.
func withName(e Element, name string) Element {
	ce, ok := e.(*element)
	if !ok {
		return e
	}
	cp := *ce
	cp.name = name
	return &cp
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	putLE32(b, v)
	return b
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	putLE64(b, v)
	return b
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
