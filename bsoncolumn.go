// Package bsoncolumn provides a space-efficient columnar encoding for
// streams of BSON-like values: per-type delta/delta-of-delta compression,
// lossless scaling of floating point values into integers, Simple-8b bit
// packing, and transposition of homogeneous sub-object streams into
// per-field columns.
//
// # Basic usage
//
// Creating a column from a flat stream of values:
//
//	import "github.com/column-core/bsoncolumn"
//	import "github.com/column-core/bsoncolumn/bsonvalue"
//
//	enc := bsoncolumn.NewEncoder()
//	for _, v := range []int64{100, 101, 101, 104} {
//	    if err := enc.Append(bsonvalue.Int64(v)); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if err := enc.Finalize(); err != nil {
//	    log.Fatal(err)
//	}
//	out, err := enc.Bytes()
//
// A stream of records with a stable shape is automatically detected and
// transposed into one delta stream per leaf field (the Interleaved
// Sub-Object Controller, package interleave) without any extra caller
// code — Append the records the same way:
//
//	enc := bsoncolumn.NewEncoder()
//	for _, rec := range readings {
//	    enc.Append(bsonvalue.NewObject(
//	        bsonvalue.Field{Name: "ts", Value: bsonvalue.Date(rec.Time)},
//	        bsonvalue.Field{Name: "val", Value: bsonvalue.Double(rec.Value)},
//	    ))
//	}
//	enc.Finalize()
//	out, _ := enc.Bytes()
//
// # Package structure
//
// This package is a thin convenience wrapper around package column (the
// Column Assembler). For direct control over encoder options, import
// column directly.
package bsoncolumn

import (
	"github.com/column-core/bsoncolumn/bsonvalue"
	"github.com/column-core/bsoncolumn/column"
)

// Encoder is an alias for column.Encoder, re-exported so the common case
// needs only this package's import.
type Encoder = column.Encoder

// EncoderOption is an alias for column.EncoderOption.
type EncoderOption = column.EncoderOption

// NewEncoder creates a column Encoder with the given options (see the
// column package's With* functions).
func NewEncoder(opts ...EncoderOption) *Encoder {
	return column.New(opts...)
}

// EncodeAll is a convenience one-shot helper: append every element in
// values, finalize, and return the finished column bytes.
func EncodeAll(values []bsonvalue.Element, opts ...EncoderOption) ([]byte, error) {
	enc := column.New(opts...)
	for _, v := range values {
		if err := enc.Append(v); err != nil {
			return nil, err
		}
	}
	if err := enc.Finalize(); err != nil {
		return nil, err
	}
	return enc.Bytes()
}
