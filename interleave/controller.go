// Package interleave implements the Interleaved Sub-Object Controller
// (spec.md §4.3): detecting that incoming values are records of
// compatible shape, maintaining a reference record, spawning one Scalar
// Encoder per leaf field, and merging their control blocks at flush time.
package interleave

import (
	"github.com/column-core/bsoncolumn/bsonvalue"
	"github.com/column-core/bsoncolumn/format"
	"github.com/column-core/bsoncolumn/internal/pool"
)

// Mode is the controller's state machine position (spec.md §4.3).
type Mode uint8

const (
	Regular Mode = iota
	DeterminingReference
	SubObjAppending
)

// Controller is the Interleaved Sub-Object Controller. It is owned and
// driven by a column.Encoder, which routes record-valued appends to it
// once it detects the first non-empty record.
type Controller struct {
	out *pool.ByteBuffer // shared output buffer, owned by the Column Assembler

	mode      Mode
	reference *refNode
	buffered  []bsonvalue.Element // the original record-valued Elements buffered during DeterminingReference

	leaves []*leaf

	// segmentsWritten counts completed interleaved segments, a bookkeeping
	// counter the original encoder keeps for diagnostics (not part of the
	// wire format).
	segmentsWritten int
}

// New creates a Controller writing into out.
func New(out *pool.ByteBuffer) *Controller {
	return &Controller{out: out, mode: Regular}
}

// Mode reports the controller's current state.
func (c *Controller) Mode() Mode { return c.mode }

// Append routes one value through the controller. It returns consumed=true
// if el was absorbed into the interleaved run (state stayed in
// DeterminingReference or SubObjAppending). If consumed=false, the
// controller has already frozen and drained whatever was buffered into a
// real interleaved segment and bailed back to Regular mode: the caller
// (column.Encoder) only needs to handle el itself (spec.md §4.3 transition
// rule — a DeterminingReference run always freezes before it can leave
// the interleaved state, it never dissolves back into a flat replay).
func (c *Controller) Append(el bsonvalue.Element) (consumed bool) {
	rec, isRec := el.AsRecord()

	switch c.mode {
	case Regular:
		if !isRec || rec.IsEmpty() {
			return false
		}
		c.reference = buildReference(rec)
		c.buffered = append(c.buffered, el)
		c.mode = DeterminingReference
		c.maybeFreeze()
		return true

	case DeterminingReference:
		if isRec {
			if _, ok := lockStep(c.reference, recordFields(rec)); ok {
				c.buffered = append(c.buffered, el)
				c.maybeFreeze()
				return true
			}
			if mergedRef, ok := merge(c.reference, recordFields(rec)); ok {
				c.reference = mergedRef
				c.buffered = append(c.buffered, el)
				c.maybeFreeze()
				return true
			}
		}
		c.flushAndReturnToRegular()
		return false

	case SubObjAppending:
		if isRec {
			if actions, ok := lockStep(c.reference, recordFields(rec)); ok {
				c.feedLeaves(actions)
				return true
			}
		}
		c.flushAndReturnToRegular()
		return false
	}

	return false
}

// Skip propagates a skip to every leaf encoder so per-leaf element counts
// stay aligned with the top-level count (spec.md §4.3).
func (c *Controller) Skip() {
	switch c.mode {
	case DeterminingReference:
		// A skip inside an in-progress reference determination is treated
		// as an empty record candidate: every current leaf gets a skip,
		// and the heuristic check still applies.
		c.buffered = append(c.buffered, bsonvalue.NewObject())
		c.maybeFreeze()
	case SubObjAppending:
		for _, l := range c.leaves {
			l.enc.Skip()
		}
	}
}

// maybeFreeze checks the reference-stability heuristic (spec.md §4.3) and
// transitions DeterminingReference -> SubObjAppending once it fails.
func (c *Controller) maybeFreeze() {
	if c.mode != DeterminingReference {
		return
	}
	leafCount := c.reference.numLeafFields()
	if leafCount*2 >= len(c.buffered) {
		return // heuristic still holds; keep buffering
	}
	c.freeze()
}

// freeze writes the interleaved-start byte and reference record, spawns
// one Scalar Encoder per leaf seeded from the first buffered record, and
// feeds every buffered record through (spec.md §4.3 transition rule).
func (c *Controller) freeze() {
	c.out.MustWrite([]byte{format.InterleavedStartByte})
	c.out.MustWrite(referenceBytes(c.reference))

	leafNodes := c.reference.collectLeaves(nil)
	c.leaves = make([]*leaf, len(leafNodes))
	for i, ln := range leafNodes {
		l := newLeaf(ln.name)
		ln.leaf = l
		c.leaves[i] = l
	}

	firstRec, _ := c.buffered[0].AsRecord()
	if seedActions, ok := lockStep(c.reference, recordFields(firstRec)); ok {
		seedLeaves(seedActions)
	}

	c.mode = SubObjAppending
	for _, el := range c.buffered {
		rec, _ := el.AsRecord()
		if actions, ok := lockStep(c.reference, recordFields(rec)); ok {
			c.feedLeaves(actions)
		}
	}
	c.buffered = nil
}

func seedLeaves(actions []leafAction) {
	for _, a := range actions {
		if !a.skip {
			a.leaf.leaf.enc.Seed(a.elem)
		}
	}
}

func (c *Controller) feedLeaves(actions []leafAction) {
	for _, a := range actions {
		if a.skip {
			a.leaf.leaf.enc.Skip()
		} else {
			_ = a.leaf.leaf.enc.Append(a.elem)
		}
	}
}

// referenceBytes renders the reference record's schema skeleton into its
// on-wire form: each field's literal encoding (type byte, name,
// terminator, value) concatenated in reference order, nested records
// rendered recursively. The reference is written once per segment and
// never delta-encoded.
func referenceBytes(ref *refNode) []byte {
	var out []byte
	for _, c := range ref.children {
		out = append(out, referenceFieldBytes(c)...)
	}
	return out
}

func referenceFieldBytes(n *refNode) []byte {
	if !n.isRecord {
		return nil // the leaf's own encoder carries its literal/delta stream
	}
	var out []byte
	out = append(out, byte(format.TypeObject), format.NameTerminator)
	for _, c := range n.children {
		out = append(out, referenceFieldBytes(c)...)
	}
	return out
}

// Flush drains the current interleaved segment into the output buffer
// (spec.md §4.3 "Flush (Interleaved -> byte stream)"). It is a no-op in
// Regular mode. A run still in DeterminingReference — one that never
// tripped the reference-stability heuristic — is frozen here before
// draining, same as any other end of the interleaved run: whatever is
// buffered always becomes a real interleaved segment, never a flat
// replay.
func (c *Controller) Flush() {
	switch c.mode {
	case DeterminingReference:
		c.freeze()
		c.drainSegment()
	case SubObjAppending:
		c.drainSegment()
	}
	c.mode = Regular
}

func (c *Controller) drainSegment() {
	for _, l := range c.leaves {
		l.enc.Finish()
	}
	for _, step := range flushOrder(c.leaves) {
		l := c.leaves[step.leafIdx]
		c.out.MustWrite(l.buf.Bytes()[step.b.offset : step.b.offset+step.b.length])
	}
	c.out.MustWrite([]byte{format.Terminator})
	for _, l := range c.leaves {
		l.release()
	}
	c.leaves = nil
	c.segmentsWritten++
}

// flushAndReturnToRegular ends the current interleaved run and returns to
// Regular mode. A run still in DeterminingReference is frozen first — a
// record (or non-record, or skip) that breaks compatibility always forces
// whatever is buffered so far into a real interleaved segment before the
// controller steps back to Regular, mirroring the original encoder's
// _flushSubObjMode, which freezes on finalize, on a non-object append, and
// on merge failure alike.
func (c *Controller) flushAndReturnToRegular() {
	switch c.mode {
	case SubObjAppending:
		c.drainSegment()
	case DeterminingReference:
		c.freeze()
		c.drainSegment()
	}
	c.mode = Regular
	c.reference = nil
}
