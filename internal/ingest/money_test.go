package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1000", "1000"},
		{"1,000.50", "1000.5"},
		{"₹12,500", "12500"},
		{"Rs. 3500", "3500"},
		{"INR 4,000", "4000"},
		{"$ 99.99", "99.99"},
	}

	for _, tc := range cases {
		got := ParseMoney(tc.raw)
		require.NotNil(t, got, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got.String(), "raw %q", tc.raw)
	}
}

func TestParseMoneyUnparseable(t *testing.T) {
	for _, raw := range []string{"", "   ", "free", "₹"} {
		assert.Nil(t, ParseMoney(raw), "raw %q", raw)
	}
}
