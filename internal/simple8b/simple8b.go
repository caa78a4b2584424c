// Package simple8b packs small non-negative integers into 64-bit words
// using the classic Simple-8b selector scheme: each word reserves its top
// 4 bits for a selector and packs its remaining 60 bits as N values of W
// bits each, where (N, W) come from a fixed 16-entry table.
//
// spec.md §4.2 treats this packer as an external black-box collaborator of
// the Scalar Encoder — its job is only to turn "how many trailing zero
// deltas can I absorb into one control block" into a concrete bit layout.
// Because the decode path this module needs is only ever its own round
// trip (spec.md explicitly puts decoding for bsoncolumn itself out of
// scope), this package owns both Pack and Unpack.
package simple8b

import "math/bits"

// Selector describes one entry of the Simple-8b selector table: Count
// values of Bits width pack into a single 64-bit word's 60-bit payload.
type Selector struct {
	Bits  uint8
	Count uint8
}

// Table is the classic 16-entry Simple-8b selector table, ordered by
// descending value count so a linear scan from index 0 finds the
// highest-compression selector that still fits.
var Table = [16]Selector{
	{Bits: 0, Count: 240},
	{Bits: 0, Count: 120},
	{Bits: 1, Count: 60},
	{Bits: 2, Count: 30},
	{Bits: 3, Count: 20},
	{Bits: 4, Count: 15},
	{Bits: 5, Count: 12},
	{Bits: 6, Count: 10},
	{Bits: 7, Count: 8},
	{Bits: 8, Count: 7},
	{Bits: 10, Count: 6},
	{Bits: 12, Count: 5},
	{Bits: 15, Count: 4},
	{Bits: 20, Count: 3},
	{Bits: 30, Count: 2},
	{Bits: 60, Count: 1},
}

// MaxValueBits is the widest single value Table can hold (selector 15).
const MaxValueBits = 60

// payloadMask masks the 60-bit payload portion of a word.
const payloadMask = (uint64(1) << 60) - 1

// RequiredBits returns the number of bits needed to represent v, with the
// Simple-8b convention that 0 requires 0 bits.
func RequiredBits(v uint64) uint8 {
	if v == 0 {
		return 0
	}
	return uint8(bits.Len64(v))
}

// fits reports whether v can be stored in width bits under the selector
// convention (width 0 only ever stores the value 0).
func fits(v uint64, width uint8) bool {
	if width == 0 {
		return v == 0
	}
	if width >= 64 {
		return true
	}
	return v < (uint64(1) << width)
}

// Pack greedily packs values into Simple-8b words, using the
// highest-count selector available at each position. It never fails:
// any uint64 up to 60 bits fits selector 15 alone, and RequiredBits
// callers are expected to keep deltas within that range (spec.md §4.2's
// rescale-on-overflow path exists precisely to guarantee this before
// values ever reach this package).
func Pack(values []uint64) []uint64 {
	words := make([]uint64, 0, (len(values)/2)+1)
	i := 0
	for i < len(values) {
		sel, take := chooseSelector(values[i:])
		word := uint64(sel) << 60
		width := Table[sel].Bits
		if width > 0 {
			for k := 0; k < take; k++ {
				word |= (values[i+k] & ((uint64(1) << width) - 1)) << (uint(k) * uint(width))
			}
		}
		words = append(words, word)
		i += take
	}
	return words
}

// ChooseSelector finds the table entry that packs the most leading values
// of v, falling back to widening selectors when leading values don't fit
// the highest-count ones. Exported so callers that need to pack
// incrementally (the Scalar Encoder's pending builders) can decide
// whether a prefix of the buffered values already forms a full word
// without waiting for the whole stream.
func ChooseSelector(v []uint64) (sel int, take int) {
	return chooseSelector(v)
}

// PackWord packs exactly one word from the front of values, returning the
// word and how many input values it consumed.
func PackWord(values []uint64) (word uint64, consumed int) {
	sel, take := chooseSelector(values)
	word = uint64(sel) << 60
	width := Table[sel].Bits
	if width > 0 {
		for k := 0; k < take; k++ {
			word |= (values[k] & ((uint64(1) << width) - 1)) << (uint(k) * uint(width))
		}
	}
	return word, take
}

// BlockSize returns the number of logical slots a packed word represents,
// i.e. its selector's Count. Used by the Interleaved Sub-Object
// Controller's flush fairness heap (spec.md §4.3) to track how many
// logical elements each leaf has emitted so far.
func BlockSize(word uint64) int {
	sel := word >> 60
	return int(Table[sel].Count)
}

// chooseSelector finds the table entry that packs the most leading values
// of v, falling back to widening selectors when leading values don't fit
// the highest-count ones.
func chooseSelector(v []uint64) (sel int, take int) {
	for s, entry := range Table {
		n := int(entry.Count)
		if n > len(v) {
			n = len(v)
		}
		if n == 0 {
			continue
		}
		ok := true
		for k := 0; k < n; k++ {
			if !fits(v[k], entry.Bits) {
				ok = false
				break
			}
		}
		if ok {
			return s, n
		}
	}
	// Table always has a selector (15) wide enough for any value that
	// respects MaxValueBits, so this is unreachable in correct use.
	return 15, 1
}

// Unpack decodes words back into exactly n values, stopping partway
// through the final word if its selector's count overshoots n (the
// trailing slots of a partially filled word are zero padding, discarded
// here rather than appended).
func Unpack(words []uint64, n int) []uint64 {
	out := make([]uint64, 0, n)
	for _, word := range words {
		if len(out) >= n {
			break
		}
		sel := word >> 60
		entry := Table[sel]
		payload := word & payloadMask
		width := entry.Bits
		for k := 0; k < int(entry.Count) && len(out) < n; k++ {
			if width == 0 {
				out = append(out, 0)
				continue
			}
			shift := uint(k) * uint(width)
			mask := (uint64(1) << width) - 1
			out = append(out, (payload>>shift)&mask)
		}
	}
	return out
}

// ChooseSelectorJoint finds the widest-compressing selector that fits both
// lo and hi's leading values at the same take count, so a 128-bit-wide
// pending run (two parallel 64-bit lanes, see Lane128) stays
// slot-synchronized: every word packs the same number of logical values
// from both lanes.
func ChooseSelectorJoint(lo, hi []uint64) (sel int, take int) {
	n := len(lo)
	if len(hi) < n {
		n = len(hi)
	}
	for s, entry := range Table {
		cnt := int(entry.Count)
		if cnt > n {
			cnt = n
		}
		if cnt == 0 {
			continue
		}
		ok := true
		for k := 0; k < cnt; k++ {
			if !fits(lo[k], entry.Bits) || !fits(hi[k], entry.Bits) {
				ok = false
				break
			}
		}
		if ok {
			return s, cnt
		}
	}
	return 15, 1
}

// PackWordJoint packs one synchronized pair of words from the front of lo
// and hi.
func PackWordJoint(lo, hi []uint64) (loWord, hiWord uint64, consumed int) {
	sel, take := ChooseSelectorJoint(lo, hi)
	width := Table[sel].Bits
	loWord = uint64(sel) << 60
	hiWord = uint64(sel) << 60
	if width > 0 {
		for k := 0; k < take; k++ {
			shift := uint(k) * uint(width)
			mask := (uint64(1) << width) - 1
			loWord |= (lo[k] & mask) << shift
			hiWord |= (hi[k] & mask) << shift
		}
	}
	return loWord, hiWord, take
}

// Lane128 packs a 128-bit-wide value stream as two parallel 64-bit lanes
// (Hi, Lo), since spec.md's decoder is out of scope and only internal
// round-trip correctness is required — a real 128-bit Simple-8b word
// layout buys MongoDB wire compatibility bsoncolumn never needs to
// provide. The two lanes are packed jointly (ChooseSelectorJoint) so every
// word in Lo has a matching word in Hi covering the same slot range.
type Lane128 struct {
	Lo []uint64
	Hi []uint64
}

// PackLanes packs n 128-bit values (given as parallel lo/hi slices) into
// a slot-synchronized Lane128.
func PackLanes(lo, hi []uint64) Lane128 {
	var out Lane128
	i := 0
	for i < len(lo) {
		loWord, hiWord, take := PackWordJoint(lo[i:], hi[i:])
		out.Lo = append(out.Lo, loWord)
		out.Hi = append(out.Hi, hiWord)
		i += take
	}
	return out
}

// UnpackLanes decodes exactly n 128-bit values from a Lane128, returning
// parallel lo/hi slices.
func UnpackLanes(l Lane128, n int) (lo, hi []uint64) {
	return Unpack(l.Lo, n), Unpack(l.Hi, n)
}
