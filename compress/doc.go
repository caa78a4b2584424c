// Package compress provides at-rest codecs the Column Assembler may apply
// to a finished column blob.
//
// The encoder's own bit-packing already does the domain-specific
// compression; these codecs are a generic second pass over the finished
// bytes, useful when columns are persisted or shipped over the wire.
// Disabled by default (NoOpCompressor) so the wire format in spec.md §6
// stays bit-exact unless a caller opts in via column.WithColumnCodec.
package compress
