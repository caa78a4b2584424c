// Package column implements the Column Assembler (spec.md §4.4): the
// top-level state machine that owns the output buffer, dispatches each
// incoming value to the regular Scalar Encoder or to the Interleaved
// Sub-Object Controller, and produces the finished column blob.
package column

import (
	"fmt"

	"github.com/column-core/bsoncolumn/bsonvalue"
	"github.com/column-core/bsoncolumn/errs"
	"github.com/column-core/bsoncolumn/format"
	"github.com/column-core/bsoncolumn/interleave"
	"github.com/column-core/bsoncolumn/internal/pool"
	"github.com/column-core/bsoncolumn/scalar"
)

// mode mirrors interleave.Mode at the Assembler level: Regular routes
// straight to the top-level Scalar Encoder, the other two route through
// the Sub-Object Controller.
type mode uint8

const (
	modeRegular mode = iota
	modeInterleaved
)

// Encoder is the Column Assembler described by spec.md §4.4. It is not
// safe for concurrent use (spec.md §5).
type Encoder struct {
	opts options

	out *pool.ByteBuffer
	top *scalar.Encoder
	sub *interleave.Controller

	mode mode

	elementCount uint32
	finalized    bool
	detached     bool
	poisoned     bool
}

// New creates a Column Assembler ready to accept Append/Skip calls.
func New(opts ...EncoderOption) *Encoder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	out := pool.GetColumnBuffer()
	out.MustWrite([]byte{0, 0, 0, 0}) // element-count placeholder (spec.md §3)

	e := &Encoder{
		opts: o,
		out:  out,
		sub:  interleave.New(out),
	}
	e.top = scalar.New(out, nil, scalar.WithEndian(o.endian), scalar.WithMaxBlocksPerControl(o.maxBlocksPerControl))

	return e
}

// Append encodes one value (spec.md §4.4). MinKey/MaxKey at any depth are
// fatal inputs: the call returns an error and the encoder must be
// discarded (spec.md §4.4 "Fatal inputs").
func (e *Encoder) Append(el bsonvalue.Element) error {
	if err := e.precheck(el); err != nil {
		return err
	}

	if e.mode == modeRegular {
		rec, isRec := el.AsRecord()
		if !isRec || rec.IsEmpty() {
			if err := e.top.Append(el); err != nil {
				e.poisoned = true
				return err
			}
			e.elementCount++
			return nil
		}
	}

	// Either already interleaving, or el is the non-empty record that
	// starts a new DeterminingReference run: route through the Sub-Object
	// Controller either way.
	if e.sub.Append(el) {
		e.mode = modeInterleaved
		e.elementCount++
		return nil
	}

	// The controller bailed back to Regular (spec.md §4.3 transition rule):
	// it has already frozen and drained whatever was buffered into a real
	// interleaved segment. A non-empty record that broke compatibility
	// starts a new reference-determination run; anything else goes to the
	// top-level Scalar Encoder.
	e.mode = modeRegular
	if rec, isRec := el.AsRecord(); isRec && !rec.IsEmpty() && e.sub.Append(el) {
		e.mode = modeInterleaved
		e.elementCount++
		return nil
	}
	if err := e.top.Append(el); err != nil {
		e.poisoned = true
		return err
	}
	e.elementCount++
	return nil
}

// Skip records a missing value at the current position (spec.md §4.1
// "skip", §4.3 "skip() in sub-object mode").
func (e *Encoder) Skip() error {
	if e.finalized || e.detached {
		return errs.ErrEncoderFinished
	}
	if e.poisoned {
		return fmt.Errorf("bsoncolumn: encoder is in a poisoned state after a fatal input")
	}

	if e.mode == modeRegular {
		e.top.Skip()
	} else {
		e.sub.Skip()
	}
	e.elementCount++
	return nil
}

func (e *Encoder) precheck(el bsonvalue.Element) error {
	if e.finalized || e.detached {
		return errs.ErrEncoderFinished
	}
	if e.poisoned {
		return fmt.Errorf("bsoncolumn: encoder is in a poisoned state after a fatal input")
	}
	var check func(el bsonvalue.Element) error
	check = func(el bsonvalue.Element) error {
		switch el.Type() {
		case format.TypeMinKey:
			return errs.ErrMinKey
		case format.TypeMaxKey:
			return errs.ErrMaxKey
		}
		if rec, isRec := el.AsRecord(); isRec && rec != nil {
			for f := range rec.Fields() {
				if err := check(f); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := check(el); err != nil {
		e.poisoned = true
		return err
	}
	return nil
}

// Finalize flushes the active mode, writes the terminator byte, and
// patches the element-count prefix (spec.md §4.4). It may be called only
// once; Bytes/Detach are only valid afterward.
func (e *Encoder) Finalize() error {
	if e.finalized || e.detached {
		return errs.ErrEncoderFinished
	}
	if e.poisoned {
		return fmt.Errorf("bsoncolumn: cannot finalize a poisoned encoder")
	}

	switch e.mode {
	case modeRegular:
		e.top.Flush()
	case modeInterleaved:
		// Controller.Flush freezes a run still in DeterminingReference
		// before draining it, so a short record run that never tripped
		// the reference-stability heuristic still comes out as a real
		// interleaved segment here, not dropped.
		e.sub.Flush()
	}

	e.out.MustWrite([]byte{format.Terminator})
	e.opts.endian.PutUint32(e.out.B[0:4], e.elementCount)
	e.finalized = true

	return nil
}

// Bytes returns the finalized column blob, compressed with whatever codec
// WithColumnCodec selected (a no-op codec by default, leaving spec.md §6's
// wire format untouched).
func (e *Encoder) Bytes() ([]byte, error) {
	if !e.finalized {
		return nil, errs.ErrNotFinalized
	}
	if e.detached {
		return nil, errs.ErrAlreadyDetached
	}

	codec, err := compressorFor(e.opts)
	if err != nil {
		return nil, err
	}
	return codec.Compress(e.out.Bytes())
}

// Detach transfers buffer ownership out of the Encoder (spec.md §4.4
// "detach"): a one-shot operation after which the Encoder must not be used
// again.
func (e *Encoder) Detach() ([]byte, error) {
	if !e.finalized {
		return nil, errs.ErrNotFinalized
	}
	if e.detached {
		return nil, errs.ErrAlreadyDetached
	}

	codec, err := compressorFor(e.opts)
	if err != nil {
		return nil, err
	}
	out, err := codec.Compress(e.out.Bytes())
	if err != nil {
		return nil, err
	}

	e.detached = true
	e.out = nil

	return out, nil
}

// ElementCount reports the number of append+skip calls made so far.
func (e *Encoder) ElementCount() uint32 { return e.elementCount }
