package interleave

import "container/heap"

// cursor tracks one leaf's progress through its own block list during
// the flush fairness merge.
type cursor struct {
	leafIdx int
	l       *leaf
	next    int // index into l.blocks of the next block to emit
	emitted int // cumulative logical elements already written to output
}

// cursorHeap is a min-heap keyed by (emitted, leafIdx), per spec.md §4.3's
// flush ordering rule.
type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	if h[i].emitted != h[j].emitted {
		return h[i].emitted < h[j].emitted
	}
	return h[i].leafIdx < h[j].leafIdx
}
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(*cursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// flushOrder returns, for each leaf with at least one block, the sequence
// of blockRanges to emit in flush order.
func flushOrder(leaves []*leaf) []struct {
	leafIdx int
	b       blockRange
} {
	h := make(cursorHeap, 0, len(leaves))
	for idx, l := range leaves {
		if len(l.blocks) > 0 {
			h = append(h, &cursor{leafIdx: idx, l: l})
		}
	}
	heap.Init(&h)

	var out []struct {
		leafIdx int
		b       blockRange
	}
	for h.Len() > 0 {
		c := heap.Pop(&h).(*cursor)
		b := c.l.blocks[c.next]
		out = append(out, struct {
			leafIdx int
			b       blockRange
		}{leafIdx: c.leafIdx, b: b})
		c.emitted += b.logical
		c.next++
		if c.next < len(c.l.blocks) {
			heap.Push(&h, c)
		}
	}

	return out
}
