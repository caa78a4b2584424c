package scalar

// encode128String renders a string into the 128-bit-wide (two 64-bit
// lanes) small-value encoding. Only strings up to 16 bytes qualify;
// anything longer falls back to a literal (spec.md §4.1 type table).
func encode128String(s string) (lo, hi uint64, ok bool) {
	if len(s) > 16 {
		return 0, 0, false
	}
	var buf [16]byte
	copy(buf[:], s)
	return leUint64(buf[0:8]), leUint64(buf[8:16]), true
}

// encode128Bin renders BinData's subtype + payload into the 128-bit-wide
// encoding. 15 payload bytes + 1 subtype byte == 16 bytes total.
func encode128Bin(subtype byte, data []byte) (lo, hi uint64, ok bool) {
	if len(data) > 15 {
		return 0, 0, false
	}
	var buf [16]byte
	buf[0] = subtype
	copy(buf[1:], data)
	return leUint64(buf[0:8]), leUint64(buf[8:16]), true
}

// encode128Decimal splits a Decimal128 into its two lanes directly; it is
// already a 128-bit value split at a 64-bit boundary, so no repacking is
// needed.
func encode128Decimal(low, high uint64) (lo, hi uint64) {
	return low, high
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
