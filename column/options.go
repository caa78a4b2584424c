package column

import (
	"github.com/column-core/bsoncolumn/compress"
	"github.com/column-core/bsoncolumn/endian"
	"github.com/column-core/bsoncolumn/format"
)

type options struct {
	endian              endian.EndianEngine
	compressionType     format.CompressionType
	maxBlocksPerControl int
}

func defaultOptions() options {
	return options{
		endian:              endian.LittleEndian(),
		compressionType:     format.CompressionNone,
		maxBlocksPerControl: format.MaxBlocksPerControl,
	}
}

// EncoderOption configures an Encoder at construction time.
type EncoderOption func(*options)

// WithEndian overrides the byte order used for the element-count prefix
// and the top-level Scalar Encoder's Simple-8b block words. Leaf encoders
// inside interleaved segments do not receive this option and always write
// little-endian block words. The default matches spec.md §6's normative
// little-endian wire format; overriding breaks bit-compatibility with it
// and exists only for embedding into big-endian-native pipelines.
func WithEndian(e endian.EndianEngine) EncoderOption {
	return func(o *options) { o.endian = e }
}

// WithColumnCodec selects the at-rest compressor applied to the finished
// blob by Bytes and Detach. Defaults to format.CompressionNone, which keeps the
// wire format in spec.md §6 unchanged.
func WithColumnCodec(t format.CompressionType) EncoderOption {
	return func(o *options) { o.compressionType = t }
}

// WithMaxSimple8bBlocksPerControl overrides the maximum number of 8-byte
// Simple-8b blocks packed under one control byte (spec.md §3 caps this at
// 16, i.e. a 4-bit count field). Values outside 1..16 are ignored and the
// previous setting is kept, since the wire format has no room to represent
// them.
func WithMaxSimple8bBlocksPerControl(n int) EncoderOption {
	return func(o *options) {
		if n > 0 && n <= format.MaxBlocksPerControl {
			o.maxBlocksPerControl = n
		}
	}
}

func compressorFor(o options) (compress.Codec, error) {
	return compress.CreateCodec(o.compressionType, "column")
}
