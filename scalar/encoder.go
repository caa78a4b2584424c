// Package scalar implements the Scalar Encoder (spec.md §4.1): per-type
// delta/delta-of-delta state over a single homogeneous stream of values,
// choosing between a raw literal and a compressed Simple-8b run and
// handing finished control blocks to its caller.
//
// A Scalar Encoder never owns its output buffer — the Column Assembler
// (package column) passes one in for the top-level run, and the
// Interleaved Sub-Object Controller (package interleave) hands each leaf
// encoder a private one, matching the resource-ownership rules in
// spec.md §5.
package scalar

import (
	"github.com/cespare/xxhash/v2"

	"github.com/column-core/bsoncolumn/bsonvalue"
	"github.com/column-core/bsoncolumn/endian"
	"github.com/column-core/bsoncolumn/errs"
	"github.com/column-core/bsoncolumn/format"
	"github.com/column-core/bsoncolumn/internal/pool"
	"github.com/column-core/bsoncolumn/internal/scale"
	"github.com/column-core/bsoncolumn/internal/simple8b"
)

// BlockCallback is invoked once per written literal and once per closed
// control byte with the byte range it occupies in the output buffer and
// the number of logical elements (appends + skips) it accounts for (1 for
// a literal). The Interleaved Sub-Object
// Controller uses the logical count for its flush fairness heap
// (spec.md §4.3); nothing requires a callback in regular mode.
type BlockCallback func(offset, length, logicalElements int)

// previous holds an owned copy of the last appended element's
// type-specific value, independent of the caller's Element (spec.md §3:
// "Previous-Element Cache").
type previous struct {
	typ        format.TypeTag
	i64        int64
	f64        float64
	oid        bsonvalue.ObjectId
	dec        bsonvalue.Decimal128
	ts         bsonvalue.Timestamp
	str        string
	strHash    uint64
	bin        []byte
	binHash    uint64
	binSubtype byte
}

// Encoder is the Scalar Encoder described by spec.md §4.1.
type Encoder struct {
	out *pool.ByteBuffer
	cb  BlockCallback
	ew  endian.EndianEngine

	hasPrev bool
	prev    previous

	p64        int64            // previous encoded 64-bit value
	p128Lo     uint64           // previous encoded 128-bit value, low lane
	p128Hi     uint64           // previous encoded 128-bit value, high lane
	prevDelta  int64            // delta-of-delta state (Timestamp only)
	s          format.ScaleIndex // current scale class
	lvp        float64          // last value in previous block (doubles only)
	runAnchorF64 float64        // double value the first pending delta of the current run was computed against

	pending64   pendingBuilder64
	pending128  pendingBuilder128
	pendingDoubles []float64 // actual double values backing pending64 when prev.typ == Double, for tryRescalePending

	ctrlOpen       bool
	ctrlOffset     int
	ctrlScale      format.ScaleIndex
	ctrlBlockCount int
	ctrlLogicalSum int
	lastBlockWidth bool // true once a 128-bit-wide block has been written under the open control byte

	maxBlocksPerControl int

	finished bool
}

// New creates a Scalar Encoder writing control blocks into out. cb may be
// nil (regular top-level mode never needs the per-block offsets). Blocks
// are written little-endian by default (spec.md §6); use WithEndian to
// override.
func New(out *pool.ByteBuffer, cb BlockCallback, opts ...Option) *Encoder {
	e := &Encoder{
		out: out, cb: cb, s: format.ScaleRaw, ew: endian.LittleEndian(),
		maxBlocksPerControl: format.MaxBlocksPerControl,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures an Encoder at construction time.
type Option func(*Encoder)

// WithEndian overrides the byte order used for Simple-8b block words.
// Departing from the default breaks bit-compatibility with spec.md §6's
// normative little-endian wire format; it exists for embedding into
// pipelines that are natively big-endian end to end.
func WithEndian(ew endian.EndianEngine) Option {
	return func(e *Encoder) { e.ew = ew }
}

// WithMaxBlocksPerControl overrides how many Simple-8b blocks are packed
// under one control byte before it closes and a new one opens. Values
// outside 1..format.MaxBlocksPerControl are ignored (the low nibble has no
// room to represent more than 16).
func WithMaxBlocksPerControl(n int) Option {
	return func(e *Encoder) {
		if n > 0 && n <= format.MaxBlocksPerControl {
			e.maxBlocksPerControl = n
		}
	}
}

// Append encodes one Element (spec.md §4.1 "append").
func (e *Encoder) Append(el bsonvalue.Element) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}
	t := el.Type()
	switch t {
	case format.TypeMinKey:
		return errs.ErrMinKey
	case format.TypeMaxKey:
		return errs.ErrMaxKey
	}

	if t.IsForcedLiteral() || !e.hasPrev || t != e.prev.typ {
		e.flushPending()
		e.writeLiteral(el)
		e.resetPrev(el)
		return nil
	}

	if !t.IsDeltaOfDelta() && e.equalsPrev(el) {
		e.appendZero(t)
		e.updatePrevValue(el)
		return nil
	}

	if ok := e.appendDelta(t, el); !ok {
		e.flushPending()
		e.writeLiteral(el)
		e.resetPrev(el)
		return nil
	}
	e.updatePrevValue(el)

	return nil
}

// Seed primes the encoder's previous-element cache from el without
// writing a literal, so the first real Append of an equal value produces
// a zero-delta instead of a literal. Used by the Interleaved Sub-Object
// Controller when freezing a reference record (spec.md §4.3: "seed each
// with its field from the first buffered record as the 'previous'
// value").
func (e *Encoder) Seed(el bsonvalue.Element) {
	e.resetPrev(el)
}

// Skip records a missing value at the current position (spec.md §4.1
// "skip"). It propagates to whichever pending builder matches the
// previous element's width; before any element has been appended the
// previous type is EOO, so the skip goes to the 64-bit builder.
func (e *Encoder) Skip() {
	wroteBlock := false
	if e.prev.typ.Width64() {
		e.pending64.append(0)
		for _, w := range e.pending64.drain(false) {
			e.writeBlock64(w)
			wroteBlock = true
		}
	} else {
		e.pending128.append(0, 0)
		for _, lane := range e.pending128.drain(false) {
			e.writeBlock128(lane.Lo[0], lane.Hi[0])
			wroteBlock = true
		}
	}
	if wroteBlock && e.prev.typ == format.TypeDouble {
		i, s := scale.Encode(e.lvp, format.Scale0)
		e.s = s
		e.p64 = i
		e.runAnchorF64 = e.lvp
		e.pendingDoubles = e.pendingDoubles[:0]
	}
}

// Flush drains both pending builders and closes any open control byte
// (spec.md §4.1 "flush").
func (e *Encoder) Flush() {
	e.flushPending()
}

// Finish flushes and marks the encoder unusable for further appends.
func (e *Encoder) Finish() {
	e.flushPending()
	e.finished = true
}

func (e *Encoder) flushPending() {
	for _, w := range e.pending64.drain(true) {
		e.writeBlock64(w)
	}
	for _, lane := range e.pending128.drain(true) {
		e.writeBlock128(lane.Lo[0], lane.Hi[0])
	}
	e.closeControlByte()
}

// --- literal / previous-cache management -------------------------------

func (e *Encoder) writeLiteral(el bsonvalue.Element) {
	offset := e.out.Len()
	e.out.MustWrite([]byte{byte(el.Type())})
	e.out.MustWrite([]byte{format.NameTerminator})
	e.out.MustWrite(el.ValuePtr())
	if e.cb != nil {
		e.cb(offset, e.out.Len()-offset, 1)
	}
}

func (e *Encoder) resetPrev(el bsonvalue.Element) {
	t := el.Type()
	e.hasPrev = true
	e.prev.typ = t
	e.s = format.ScaleRaw
	e.prevDelta = 0
	e.pending64 = pendingBuilder64{}
	e.pending128 = pendingBuilder128{}
	e.pendingDoubles = e.pendingDoubles[:0]

	switch t {
	case format.TypeInt32:
		v, _ := el.AsInt32()
		e.prev.i64 = int64(v)
		e.p64 = e.prev.i64
	case format.TypeInt64:
		v, _ := el.AsInt64()
		e.prev.i64 = v
		e.p64 = v
	case format.TypeBool:
		v, _ := el.AsBool()
		e.prev.i64 = boolToInt64(v)
		e.p64 = e.prev.i64
	case format.TypeDate:
		v, _ := el.AsDate()
		e.prev.i64 = v
		e.p64 = v
	case format.TypeTimestamp:
		v, _ := el.AsTimestamp()
		e.prev.ts = v
		e.p64 = int64(v.Pack())
	case format.TypeObjectId:
		v, _ := el.AsObjectId()
		e.prev.oid = v
		e.p64 = int64(leUint64(v[4:12]))
	case format.TypeDouble:
		v, _ := el.AsDouble()
		e.prev.f64 = v
		e.lvp = v
		e.runAnchorF64 = v
		i, s := scale.Encode(v, format.Scale0)
		e.p64 = i
		e.s = s
	case format.TypeNull, format.TypeUndefined:
		e.p64 = 0
	case format.TypeString:
		v, _ := el.AsString()
		e.prev.str = v
		e.prev.strHash = xxhash.Sum64String(v)
		lo, hi, _ := encode128String(v)
		e.p128Lo, e.p128Hi = lo, hi
	case format.TypeBinData:
		data, subtype, _ := el.AsBinData(binDataSize(el))
		e.prev.bin = append([]byte(nil), data...)
		e.prev.binHash = xxhash.Sum64(data)
		e.prev.binSubtype = subtype
		lo, hi, _ := encode128Bin(subtype, data)
		e.p128Lo, e.p128Hi = lo, hi
	case format.TypeDecimal128:
		v, _ := el.AsDecimal128()
		e.prev.dec = v
		e.p128Lo, e.p128Hi = encode128Decimal(v.Low, v.High)
	}
}

// binDataSize recovers the byte length a BinData element carries by
// probing ValuePtr's length prefix, since AsBinData requires the caller
// to already know the size it expects.
func binDataSize(el bsonvalue.Element) int {
	b := el.ValuePtr()
	if len(b) < 5 {
		return 0
	}
	return int(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// updatePrevValue refreshes the previous-element cache after a successful
// zero-delta or delta append (the type did not change, so most reset
// bookkeeping is unnecessary).
func (e *Encoder) updatePrevValue(el bsonvalue.Element) {
	switch e.prev.typ {
	case format.TypeInt32:
		v, _ := el.AsInt32()
		e.prev.i64 = int64(v)
	case format.TypeInt64:
		v, _ := el.AsInt64()
		e.prev.i64 = v
	case format.TypeBool:
		v, _ := el.AsBool()
		e.prev.i64 = boolToInt64(v)
	case format.TypeDate:
		v, _ := el.AsDate()
		e.prev.i64 = v
	case format.TypeTimestamp:
		v, _ := el.AsTimestamp()
		e.prev.ts = v
	case format.TypeObjectId:
		v, _ := el.AsObjectId()
		e.prev.oid = v
	case format.TypeDouble:
		v, _ := el.AsDouble()
		e.prev.f64 = v
	case format.TypeString:
		v, _ := el.AsString()
		e.prev.str = v
		e.prev.strHash = xxhash.Sum64String(v)
	case format.TypeBinData:
		data, subtype, _ := el.AsBinData(binDataSize(el))
		e.prev.bin = append(e.prev.bin[:0], data...)
		e.prev.binHash = xxhash.Sum64(data)
		e.prev.binSubtype = subtype
	case format.TypeDecimal128:
		v, _ := el.AsDecimal128()
		e.prev.dec = v
	}
}

func (e *Encoder) equalsPrev(el bsonvalue.Element) bool {
	switch e.prev.typ {
	case format.TypeInt32:
		v, _ := el.AsInt32()
		return int64(v) == e.prev.i64
	case format.TypeInt64:
		v, _ := el.AsInt64()
		return v == e.prev.i64
	case format.TypeBool:
		v, _ := el.AsBool()
		return boolToInt64(v) == e.prev.i64
	case format.TypeDate:
		v, _ := el.AsDate()
		return v == e.prev.i64
	case format.TypeObjectId:
		v, _ := el.AsObjectId()
		return v == e.prev.oid
	case format.TypeDouble:
		v, _ := el.AsDouble()
		return v == e.prev.f64
	case format.TypeNull, format.TypeUndefined:
		return true
	case format.TypeString:
		v, _ := el.AsString()
		if xxhash.Sum64String(v) != e.prev.strHash {
			return false
		}
		return v == e.prev.str
	case format.TypeBinData:
		data, subtype, _ := el.AsBinData(binDataSize(el))
		if subtype != e.prev.binSubtype || xxhash.Sum64(data) != e.prev.binHash {
			return false
		}
		return string(data) == string(e.prev.bin)
	case format.TypeDecimal128:
		v, _ := el.AsDecimal128()
		return v == e.prev.dec
	default:
		return false
	}
}

func (e *Encoder) appendZero(t format.TypeTag) {
	if t.Width64() {
		e.pending64.append(0)
		for _, w := range e.pending64.drain(false) {
			e.writeBlock64(w)
		}
		return
	}
	e.pending128.append(0, 0)
	for _, lane := range e.pending128.drain(false) {
		e.writeBlock128(lane.Lo[0], lane.Hi[0])
	}
}

// --- delta computation ---------------------------------------------------

func (e *Encoder) appendDelta(t format.TypeTag, el bsonvalue.Element) bool {
	switch t {
	case format.TypeInt32:
		v, _ := el.AsInt32()
		return e.appendDelta64(int64(v) - e.p64)
	case format.TypeInt64:
		v, _ := el.AsInt64()
		return e.appendDelta64(v - e.p64)
	case format.TypeBool:
		v, _ := el.AsBool()
		return e.appendDelta64(boolToInt64(v) - e.p64)
	case format.TypeDate:
		v, _ := el.AsDate()
		return e.appendDelta64(v - e.p64)
	case format.TypeTimestamp:
		v, _ := el.AsTimestamp()
		cur := int64(v.Pack())
		deltaCur := cur - e.p64
		ok := e.appendDelta64(deltaCur - e.prevDelta)
		if ok {
			e.prevDelta = deltaCur
			e.p64 = cur
		}
		return ok
	case format.TypeObjectId:
		v, _ := el.AsObjectId()
		if v.InstanceUnique() != e.prev.oid.InstanceUnique() {
			return false
		}
		cur := int64(leUint64(v[4:12]))
		return e.appendDelta64(cur - e.p64)
	case format.TypeDouble:
		v, _ := el.AsDouble()
		return e.appendDouble(v)
	case format.TypeString:
		v, _ := el.AsString()
		lo, hi, ok := encode128String(v)
		if !ok {
			return false
		}
		return e.appendDelta128(lo, hi)
	case format.TypeBinData:
		data, subtype, ok := el.AsBinData(binDataSize(el))
		if !ok || subtype != e.prev.binSubtype || len(data) != len(e.prev.bin) {
			return false
		}
		lo, hi, ok := encode128Bin(subtype, data)
		if !ok {
			return false
		}
		return e.appendDelta128(lo, hi)
	case format.TypeDecimal128:
		v, _ := el.AsDecimal128()
		lo, hi := encode128Decimal(v.Low, v.High)
		return e.appendDelta128(lo, hi)
	case format.TypeNull, format.TypeUndefined:
		return e.appendDelta64(0)
	default:
		return false
	}
}

// appendDelta64 (for non-Timestamp, non-ObjectId, non-Double types) also
// advances p64, since those types delta directly against the raw previous
// value (spec.md §4.1 type table).
func (e *Encoder) appendDelta64(delta int64) bool {
	zz := zigzagEncode(delta)
	if !e.pending64.accept(zz) {
		return false
	}
	e.pending64.append(zz)
	for _, w := range e.pending64.drain(false) {
		e.writeBlock64(w)
	}
	e.p64 += delta
	return true
}

func (e *Encoder) appendDelta128(lo, hi uint64) bool {
	dl := int64(lo - e.p128Lo)
	dh := int64(hi - e.p128Hi)
	zzLo := zigzagEncode(dl)
	zzHi := zigzagEncode(dh)
	if !e.pending128.accept(zzLo, zzHi) {
		return false
	}
	e.pending128.append(zzLo, zzHi)
	for _, lane := range e.pending128.drain(false) {
		e.writeBlock128(lane.Lo[0], lane.Hi[0])
	}
	e.p128Lo, e.p128Hi = lo, hi

	return true
}

// appendDouble implements the double append protocol of spec.md §4.2.
func (e *Encoder) appendDouble(v float64) bool {
	i, sPrime := scale.Encode(v, e.s)
	if sPrime > e.s {
		if !e.tryRescalePending(sPrime) {
			e.flushPending()
			e.s = sPrime
			e.runAnchorF64 = e.prev.f64
			e.pendingDoubles = e.pendingDoubles[:0]
			// Bound the prev/v scale-agreement search at 2 retries
			// (spec.md §9 Open Question), surfacing a literal via the
			// caller's flush-and-literal fallback if it never settles.
			settled := false
			for retry := 0; retry < 2; retry++ {
				pi, ps := scale.Encode(e.prev.f64, e.s)
				if ps > e.s {
					e.s = ps
					continue
				}
				e.p64 = pi
				vi, vs := scale.Encode(v, e.s)
				if vs > e.s {
					e.s = vs
					continue
				}
				i = vi
				settled = true
				break
			}
			if !settled {
				return false
			}
		}
	}

	delta := i - e.p64
	zz := zigzagEncode(delta)
	if !e.pending64.accept(zz) {
		return false
	}
	e.pending64.append(zz)
	for _, w := range e.pending64.drain(false) {
		e.writeBlock64(w)
	}
	e.pendingDoubles = append(e.pendingDoubles, v)
	e.p64 = i
	e.lvp = v

	return true
}

// tryRescalePending re-encodes every currently pending double at
// newScale, succeeding only if every resulting delta still fits a
// Simple-8b slot (spec.md §4.2).
func (e *Encoder) tryRescalePending(newScale format.ScaleIndex) bool {
	if len(e.pendingDoubles) == 0 {
		ints, ok := scale.RescaleValues([]float64{e.runAnchorF64}, newScale)
		if !ok {
			return false
		}
		e.p64 = ints[0]
		e.s = newScale
		return true
	}

	all := make([]float64, 0, len(e.pendingDoubles)+1)
	all = append(all, e.runAnchorF64)
	all = append(all, e.pendingDoubles...)

	ints, ok := scale.RescaleValues(all, newScale)
	if !ok {
		return false
	}

	zz := make([]uint64, len(e.pendingDoubles))
	for k := range e.pendingDoubles {
		delta := ints[k+1] - ints[k]
		v := zigzagEncode(delta)
		if simple8b.RequiredBits(v) > simple8b.MaxValueBits {
			return false
		}
		zz[k] = v
	}

	e.pending64.values = zz
	e.p64 = ints[len(ints)-1]
	e.s = newScale

	return true
}

// --- control-byte / block writing ---------------------------------------

func (e *Encoder) openControlByte() {
	e.ctrlOffset = e.out.Len()
	e.out.MustWrite([]byte{format.ScaleNibble[e.s]})
	e.ctrlScale = e.s
	e.ctrlBlockCount = 0
	e.ctrlLogicalSum = 0
	e.ctrlOpen = true
}

func (e *Encoder) closeControlByte() {
	if !e.ctrlOpen {
		return
	}
	if e.cb != nil {
		length := 1 + e.ctrlBlockCount*wordBytesFor(e.ctrlScale, e.lastBlockWidth)
		e.cb(e.ctrlOffset, length, e.ctrlLogicalSum)
	}
	e.ctrlOpen = false
}

func (e *Encoder) ensureOpenControlByte() {
	if e.ctrlOpen && e.ctrlBlockCount < e.maxBlocksPerControl && e.ctrlScale == e.s {
		return
	}
	e.closeControlByte()
	e.openControlByte()
}

func (e *Encoder) writeBlock64(word uint64) {
	e.lastBlockWidth = false
	e.ensureOpenControlByte()
	var b [8]byte
	e.ew.PutUint64(b[:], word)
	e.out.MustWrite(b[:])
	e.ctrlBlockCount++
	e.patchLowNibble()
	e.ctrlLogicalSum += simple8b.BlockSize(word)
}

func (e *Encoder) writeBlock128(loWord, hiWord uint64) {
	e.lastBlockWidth = true
	e.ensureOpenControlByte()
	var b [16]byte
	e.ew.PutUint64(b[0:8], loWord)
	e.ew.PutUint64(b[8:16], hiWord)
	e.out.MustWrite(b[:])
	e.ctrlBlockCount++
	e.patchLowNibble()
	e.ctrlLogicalSum += simple8b.BlockSize(loWord)
}

func (e *Encoder) patchLowNibble() {
	e.out.B[e.ctrlOffset] = (e.out.B[e.ctrlOffset] & 0xF0) | byte(e.ctrlBlockCount-1)
}

func wordBytesFor(_ format.ScaleIndex, is128 bool) int {
	if is128 {
		return 16
	}
	return 8
}
