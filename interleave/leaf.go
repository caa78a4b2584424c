package interleave

import (
	"github.com/column-core/bsoncolumn/internal/pool"
	"github.com/column-core/bsoncolumn/scalar"
)

// blockRange is one control block's (offset, length) span inside a leaf's
// private buffer, plus the logical element count it accounts for
// (spec.md §4.3 flush).
type blockRange struct {
	offset, length, logical int
}

// leaf is one Scalar Encoder spawned for a single reference-record leaf
// field, writing into its own private buffer (spec.md §5: "Leaf Scalar
// Encoders in interleaved mode each own a private byte buffer").
type leaf struct {
	name    string
	buf     *pool.ByteBuffer
	enc     *scalar.Encoder
	blocks  []blockRange
	emitted int // not updated; the fairness heap keeps its running count in cursor.emitted
}

func newLeaf(name string) *leaf {
	l := &leaf{name: name, buf: pool.GetLeafBuffer()}
	l.enc = scalar.New(l.buf, l.onBlock)
	return l
}

func (l *leaf) onBlock(offset, length, logical int) {
	l.blocks = append(l.blocks, blockRange{offset: offset, length: length, logical: logical})
}

func (l *leaf) release() {
	pool.PutLeafBuffer(l.buf)
}
