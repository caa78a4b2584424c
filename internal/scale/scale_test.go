package scale

import (
	"testing"

	"github.com/column-core/bsoncolumn/format"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		v         float64
		minScale  format.ScaleIndex
		wantScale format.ScaleIndex
	}{
		{"integerValue", 1.0, format.Scale0, format.Scale0},
		{"oneDecimal", 1.5, format.Scale0, format.Scale1},
		{"twoDecimals", 1.25, format.Scale0, format.Scale2},
		{"fourDecimals", 1.2345, format.Scale0, format.Scale4},
		{"irrational", 1.0 / 3.0, format.Scale0, format.ScaleRaw},
		{"forcedMinScale", 1.0, format.Scale2, format.Scale2},
		{"negative", -42.5, format.Scale0, format.Scale1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			i, s := Encode(tc.v, tc.minScale)
			require.Equal(t, tc.wantScale, s)
			require.InDelta(t, tc.v, Decode(i, s), 1e-12)
		})
	}
}

func TestEncodeRawEscapeIsTotal(t *testing.T) {
	i, s := Encode(1.0/3.0, format.ScaleRaw)
	require.Equal(t, format.ScaleRaw, s)
	require.InDelta(t, 1.0/3.0, Decode(i, s), 1e-15)
}

func TestRescaleValues(t *testing.T) {
	t.Run("AllRepresentable", func(t *testing.T) {
		values := []float64{1.0, 2.0, 3.5}
		ints, ok := RescaleValues(values, format.Scale1)
		require.True(t, ok)
		require.Equal(t, []int64{10, 20, 35}, ints)
	})

	t.Run("Irrational", func(t *testing.T) {
		values := []float64{1.0, 1.0 / 3.0}
		_, ok := RescaleValues(values, format.Scale4)
		require.False(t, ok)
	})

	t.Run("RawScale", func(t *testing.T) {
		values := []float64{1.5, 2.5}
		ints, ok := RescaleValues(values, format.ScaleRaw)
		require.True(t, ok)
		for idx, v := range values {
			require.Equal(t, v, Decode(ints[idx], format.ScaleRaw))
		}
	})
}
