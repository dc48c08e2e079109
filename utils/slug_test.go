package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Pakaian Pria":     "pakaian-pria",
		"  Sepatu  Lari  ": "sepatu-lari",
		"Promo 12.12!":     "promo-12-12",
		"---":              "",
		"Dapur & Makan":    "dapur-makan",
	}
	for input, want := range cases {
		require.Equal(t, want, Slugify(input), "input %q", input)
	}
}
