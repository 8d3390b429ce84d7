package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234", 1234, true},
		{"1,234", 1234, true},
		{"12,345,678.90", 12345678.90, true},
		{"$9,800.50", 9800.50, true},
		{" 15 000 ", 15000, true},
		{"-250.75", -250.75, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"12x", 0, false},
	}
	for _, tc := range tests {
		got, ok := Amount(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 0.0001, "input %q", tc.in)
		}
	}
}

func TestDateTextualLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-03-15", "2023-03-15"},
		{"2023/03/15", "2023-03-15"},
		{"3/15/2023", "2023-03-15"},
		{"03/15/2023", "2023-03-15"},
		{"Mar 15, 2023", "2023-03-15"},
		{"15 March 2023", "2023-03-15"},
		{"2023-03-15 08:30:00", "2023-03-15"},
		{"2023-03-15T08:30:00Z", "2023-03-15"},
	}
	for _, tc := range tests {
		got, ok := Date(tc.in)
		require.True(t, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestDateSerialEncoding(t *testing.T) {
	got, ok := Date("45000")
	require.True(t, ok)
	assert.Equal(t, "2023-03-15", got)

	// Plain years and employee-code-sized numbers are not serial dates.
	_, ok = Date("2023")
	assert.False(t, ok)
	_, ok = Date("101")
	assert.False(t, ok)
	_, ok = Date("")
	assert.False(t, ok)
	_, ok = Date("not a date")
	assert.False(t, ok)
}
