// Package endian provides the byte-order engine used to write the column
// header and Simple-8b blocks. The wire format (spec.md §6) is little-endian
// by default; EndianEngine exists so a caller embedding bsoncolumn in a
// big-endian-native pipeline can opt out, at the cost of the default
// bit-exact wire compatibility.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder so callers get both
// read/write and append-style operations from one value.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// LittleEndian is the default engine and matches the wire format spec.md §6
// defines as normative.
func LittleEndian() EndianEngine { return binary.LittleEndian }

// BigEndian is provided for embedding into big-endian-native pipelines. Its
// output is not bit-compatible with the default wire format.
func BigEndian() EndianEngine { return binary.BigEndian }
