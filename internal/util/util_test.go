package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Bass Guitars":       "bass-guitars",
		"Drums & Percussion": "drums-percussion",
		"  spaced out  ":     "spaced-out",
		"Already-Slugged":    "already-slugged",
		"UPPER":              "upper",
		"100 Watt Amps":      "100-watt-amps",
		"!!!":                "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestParseIntDefault(t *testing.T) {
	require.Equal(t, 7, ParseIntDefault("", 7))
	require.Equal(t, 3, ParseIntDefault("3", 7))
	require.Equal(t, 7, ParseIntDefault("abc", 7))
}

func TestCalculate(t *testing.T) {
	offset, limit := Calculate(1, 10)
	require.Equal(t, 0, offset)
	require.Equal(t, 10, limit)

	offset, limit = Calculate(3, 10)
	require.Equal(t, 20, offset)
	require.Equal(t, 10, limit)

	offset, limit = Calculate(0, 0)
	require.Equal(t, 0, offset)
	require.Equal(t, DefaultPageSize, limit)
}
