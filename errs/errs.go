// Package errs holds the sentinel errors bsoncolumn returns to callers.
//
// Internal failure modes that spec.md §7 calls out as non-visible
// (EncodingOverflow, RescaleInfeasible, MergeIncompatible) are deliberately
// absent here: they are handled locally by falling back to a literal or by
// restarting reference determination, and never escape as an error value.
package errs

import "errors"

var (
	// ErrMinKey is returned when a MinKey value is appended.
	// MinKey/MaxKey are fatal inputs (spec.md §3 invariants, §7).
	ErrMinKey = errors.New("bsoncolumn: MinKey is not a valid input element")

	// ErrMaxKey is returned when a MaxKey value is appended.
	ErrMaxKey = errors.New("bsoncolumn: MaxKey is not a valid input element")

	// ErrEncoderFinished is returned when a method is invoked on an
	// encoder that already had Finish/Finalize/Detach called on it.
	ErrEncoderFinished = errors.New("bsoncolumn: encoder already finished")

	// ErrTypeMismatch describes an accessor that does not match the
	// Element's type tag. The bsonvalue accessors report this case with a
	// false ok result and do not return this error.
	ErrTypeMismatch = errors.New("bsoncolumn: accessor does not match element type")

	// ErrBinDataSizeMismatch describes an AsBinData call whose size does
	// not match the element's stored size. bsonvalue's AsBinData reports
	// this case with a false ok result and does not return this error.
	ErrBinDataSizeMismatch = errors.New("bsoncolumn: BinData size does not match requested size")

	// ErrNotFinalized is returned by Encoder.Detach/Bytes when called
	// before Finalize.
	ErrNotFinalized = errors.New("bsoncolumn: column has not been finalized")

	// ErrAlreadyDetached is returned when Detach is called a second time.
	ErrAlreadyDetached = errors.New("bsoncolumn: column buffer already detached")
)
