package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringToCents(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"100", 10000},
		{"100.50", 10050},
		{"0.99", 99},
		{"0", 0},
		{"0.00", 0},
		{"1.23", 123},
		{"9999.99", 999999},
		{"99.999", 10000}, // rounds up across the dollar boundary
		{"99.994", 9999},
		{"5.555", 556},
		{"5.5", 550},
		{"  50.25  ", 5025},
		{"-10.50", -1050},
		{"-0.01", -1},
		{".75", 75},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := numericStringToCents(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumericStringToCents_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "$100.00", "10.5.5", "1.2x"} {
		t.Run(input, func(t *testing.T) {
			_, err := numericStringToCents(input)
			assert.Error(t, err)
		})
	}
}

func TestCentsToNumericString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{10000, "100.00"},
		{10050, "100.50"},
		{99, "0.99"},
		{0, "0.00"},
		{1, "0.01"},
		{10, "0.10"},
		{999999, "9999.99"},
		{-1050, "-10.50"},
		{-1, "-0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, centsToNumericString(tt.cents))
		})
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 10, 999, 12345, 999999999999, -100, -12345} {
		str := centsToNumericString(cents)
		back, err := numericStringToCents(str)
		require.NoError(t, err)
		assert.Equal(t, cents, back, "via %s", str)
	}
}
