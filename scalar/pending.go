package scalar

import "github.com/column-core/bsoncolumn/internal/simple8b"

// pendingBuilder64 buffers zigzag-encoded delta values not yet committed
// to a Simple-8b word. A buffered slot only turns into a word once a
// selector's full count is available, so the greedy selection in
// internal/simple8b always sees the largest possible run before
// committing — draining early would lock in a narrower, less-compressed
// selector than the run could have supported.
type pendingBuilder64 struct {
	values []uint64
}

// accept reports whether v can ever be packed (fits the widest selector).
func (p *pendingBuilder64) accept(v uint64) bool {
	return simple8b.RequiredBits(v) <= simple8b.MaxValueBits
}

func (p *pendingBuilder64) append(v uint64) {
	p.values = append(p.values, v)
}

// drain emits every word that can be packed without further input. Pass
// force=true at flush time to emit a final, possibly partial, word.
func (p *pendingBuilder64) drain(force bool) []uint64 {
	var words []uint64
	for len(p.values) > 0 {
		sel, take := simple8b.ChooseSelector(p.values)
		if !force && take < int(simple8b.Table[sel].Count) {
			break
		}
		word, consumed := simple8b.PackWord(p.values)
		words = append(words, word)
		p.values = p.values[consumed:]
	}
	return words
}

func (p *pendingBuilder64) len() int { return len(p.values) }

// pendingBuilder128 is the 128-bit-wide counterpart, used for String,
// BinData, and Decimal128 deltas (spec.md §3), packed as two
// slot-synchronized 64-bit lanes (internal/simple8b.Lane128).
type pendingBuilder128 struct {
	lo, hi []uint64
}

func (p *pendingBuilder128) accept(lo, hi uint64) bool {
	return simple8b.RequiredBits(lo) <= simple8b.MaxValueBits &&
		simple8b.RequiredBits(hi) <= simple8b.MaxValueBits
}

func (p *pendingBuilder128) append(lo, hi uint64) {
	p.lo = append(p.lo, lo)
	p.hi = append(p.hi, hi)
}

func (p *pendingBuilder128) drain(force bool) []simple8b.Lane128 {
	var out []simple8b.Lane128
	for len(p.lo) > 0 {
		sel, take := simple8b.ChooseSelectorJoint(p.lo, p.hi)
		if !force && take < int(simple8b.Table[sel].Count) {
			break
		}
		loWord, hiWord, consumed := simple8b.PackWordJoint(p.lo, p.hi)
		out = append(out, simple8b.Lane128{Lo: []uint64{loWord}, Hi: []uint64{hiWord}})
		p.lo = p.lo[consumed:]
		p.hi = p.hi[consumed:]
	}
	return out
}

func (p *pendingBuilder128) len() int { return len(p.lo) }
