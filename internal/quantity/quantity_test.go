package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsBothSeparators(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.5", "1.5"},
		{"1,5", "1.5"},
		{"0,25", "0.25"},
		{"3", "3"},
		{" 2,5 ", "2.5"},
		{"-1", "-1"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "input %q parsed as %s", tc.in, got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1.2.3", "1,2,3", "1.2,3"} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParsePositive(t *testing.T) {
	got, err := ParsePositive("0,5")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.5")))

	for _, in := range []string{"0", "-0.5", "-1", ""} {
		_, err := ParsePositive(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseOptional(t *testing.T) {
	got, err := ParseOptional("")
	require.NoError(t, err)
	assert.Nil(t, got, "empty input means absent, not zero")

	got, err = ParseOptional("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptional("12,99")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("12.99")))

	_, err = ParseOptional("nope")
	assert.Error(t, err)
}
