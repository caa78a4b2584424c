// Package scale implements the Double Scaling Engine: finding the smallest
// decimal scale factor that represents a float64 exactly as an int64, with
// a raw-bit-pattern escape when no such scale exists.
package scale

import (
	"math"

	"github.com/column-core/bsoncolumn/format"
)

// pow10 holds 10^0..10^4, the only scale factors besides the raw escape.
var pow10 = [5]float64{1, 10, 100, 1000, 10000}

// A scaled value whose magnitude reaches 2^62 is treated as
// non-representable at that scale, keeping every accepted integer well
// inside int64 range.
const maxExactFloat = float64(1 << 62)

// Encode finds the smallest scale s >= minScale at which v*10^s is an exact
// integer representable in an int64, starting the search at minScale and
// falling back to the raw IEEE-754 bit pattern (format.ScaleRaw) if none of
// scales minScale..4 work. It always succeeds — the raw escape is total.
func Encode(v float64, minScale format.ScaleIndex) (int64, format.ScaleIndex) {
	for s := minScale; s <= format.Scale4; s++ {
		scaled := v * pow10[s]
		if isExactInt(scaled) {
			return int64(scaled), s
		}
	}
	return rawBits(v), format.ScaleRaw
}

// Decode reverses Encode: reconstructs the float64 a scaled integer
// represents under scale s.
func Decode(i int64, s format.ScaleIndex) float64 {
	if s == format.ScaleRaw {
		return math.Float64frombits(uint64(i))
	}
	return float64(i) / pow10[s]
}

func rawBits(v float64) int64 {
	return int64(math.Float64bits(v))
}

func isExactInt(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if f != math.Trunc(f) {
		return false
	}
	return f > -maxExactFloat && f < maxExactFloat
}

// RescaleValues re-encodes a batch of doubles (the Scalar Encoder's
// currently-pending run) at a single new scale, used by
// tryRescalePending (spec.md §4.2) to check whether widening the scale
// class of an in-flight control block is even numerically possible before
// the caller checks that each re-encoded delta still fits a 60-bit
// Simple-8b slot.
//
// It reports ok=false if any value cannot be represented exactly at
// newScale (the caller must then fall back to flushing and starting a new
// control block).
func RescaleValues(values []float64, newScale format.ScaleIndex) ([]int64, bool) {
	out := make([]int64, len(values))
	for idx, v := range values {
		if newScale == format.ScaleRaw {
			out[idx] = rawBits(v)
			continue
		}
		scaled := v * pow10[newScale]
		if !isExactInt(scaled) {
			return nil, false
		}
		out[idx] = int64(scaled)
	}
	return out, true
}
