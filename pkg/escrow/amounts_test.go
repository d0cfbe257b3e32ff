package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	for _, tc := range []struct {
		human    string
		exp      uint64
		expected uint64
		err      error
	}{
		{human: "1.5", exp: LamportsPerSol, expected: 1_500_000_000},
		{human: "0", exp: LamportsPerSol, expected: 0},
		{human: "0.000000001", exp: LamportsPerSol, expected: 1},
		{human: "12.345678", exp: 1_000_000, expected: 12_345_678},
		{human: "18446744073709551615", exp: 1, expected: 18446744073709551615},
		{human: "0.0000000001", exp: LamportsPerSol, err: ErrFractionalAmount},
		{human: "1.0000001", exp: 1_000_000, err: ErrFractionalAmount},
		{human: "-1", exp: LamportsPerSol, err: ErrNegativeAmount},
		{human: "18446744073709551616", exp: 1, err: ErrAmountOverflow},
		{human: "20", exp: 1_000_000_000_000_000_000, err: ErrAmountOverflow},
	} {
		actual, err := ToBaseUnits(humanAmount(t, tc.human), tc.exp)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.human)
			continue
		}

		require.NoError(t, err, tc.human)
		assert.Equal(t, tc.expected, actual, tc.human)
	}

	_, err := ToBaseUnits(humanAmount(t, "1"), 0)
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	_, err := ParseAmount("1.2.3")
	assert.Error(t, err)

	parsed, err := ParseAmount("0.25")
	require.NoError(t, err)
	assert.Equal(t, "0.25", parsed.String())
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromBaseUnits(1_500_000_000, LamportsPerSol).String())
	assert.Equal(t, "12.345678", FromBaseUnits(12_345_678, 1_000_000).String())
	assert.True(t, FromBaseUnits(5, 0).IsZero())
}
