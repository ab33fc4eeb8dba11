package numeric_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/numeric"
)

func TestCoerce_PreservesZero(t *testing.T) {
	for _, in := range []any{"0", 0, "(0)", 0.0, json.Number("0"), "0.00", "£0"} {
		f, ok := numeric.Coerce(in)
		require.True(t, ok, "input %#v", in)
		assert.Equal(t, 0.0, f, "input %#v", in)
		assert.False(t, math.Signbit(f), "input %#v should not be negative zero", in)
	}
}

func TestCoerce_MissingOrUnparsable(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "abc", "n/a", true, map[string]any{"a": 1}, []any{1}, math.NaN(), math.Inf(1)} {
		_, ok := numeric.Coerce(in)
		assert.False(t, ok, "input %#v", in)
	}
	assert.Nil(t, numeric.Ptr(nil))
	assert.Nil(t, numeric.Ptr("--"))
}

func TestCoerce_AccountingNotation(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"(1,234.50)", -1234.5},
		{"(80,000)", -80000},
		{"(£1,234.50)", -1234.5},
		{"£(1,234.50)", -1234.5},
		{"-(80)", -80},
		{"GBP (1,000)", -1000},
		{"(12.5%)", -12.5},
		{"1,234,567.89", 1234567.89},
		{"£2,500", 2500},
		{"-£12.40", -12.4},
		{"80.00-", -80},
		{"GBP 1,000", 1000},
		{"1 000 USD", 1000},
		{"12.5%", 12.5},
		{"  42 ", 42},
		{json.Number("3.25"), 3.25},
		{int64(7), 7},
		{float32(1.5), 1.5},
		{uint8(9), 9},
	}
	for _, tt := range tests {
		got := numeric.Ptr(tt.in)
		require.NotNil(t, got, "input %#v", tt.in)
		assert.InDelta(t, tt.want, *got, 1e-9, "input %#v", tt.in)
	}
}
