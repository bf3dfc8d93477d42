package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidpoint(t *testing.T) {
	tests := []struct {
		prev, next string
		want       string
	}{
		{"", "", "n"},
		{"n", "", "u"},
		{"u", "", "x"},
		{"z", "", "zn"},
		{"b", "c", "bn"},
		{"", "b", "an"},
		{"an", "", "n"},
		{"ab", "ac", "abn"},
		{"n", "u", "r"},
		{"", "ab", "aan"},
	}
	for _, tt := range tests {
		t.Run(tt.prev+"_"+tt.next, func(t *testing.T) {
			got, err := Midpoint(tt.prev, tt.next)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Greater(t, got, tt.prev)
			if tt.next != "" {
				assert.Less(t, got, tt.next)
			}
		})
	}
}

func TestMidpoint_Invalid(t *testing.T) {
	tests := []struct{ prev, next string }{
		{"c", "b"},
		{"b", "b"},
		{"ba", ""},
		{"B", ""},
		{"", "x1"},
	}
	for _, tt := range tests {
		t.Run(tt.prev+"_"+tt.next, func(t *testing.T) {
			_, err := Midpoint(tt.prev, tt.next)
			assert.ErrorIs(t, err, ErrInvalidOrderKey)
		})
	}
}

func TestMidpoint_AppendSequenceStaysOrdered(t *testing.T) {
	prev := ""
	for i := 0; i < 200; i++ {
		next, err := Midpoint(prev, "")
		require.NoError(t, err)
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestMidpoint_RepeatedInsertBetween(t *testing.T) {
	lo, hi := "n", "o"
	for i := 0; i < 50; i++ {
		mid, err := Midpoint(lo, hi)
		require.NoError(t, err)
		require.Greater(t, mid, lo)
		require.Less(t, mid, hi)
		hi = mid
	}
}
