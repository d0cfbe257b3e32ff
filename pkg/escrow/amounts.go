package escrow

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// LamportsPerSol converts native amounts into lamports.
const LamportsPerSol uint64 = 1_000_000_000

var (
	ErrNegativeAmount   = errors.New("amount is negative")
	ErrFractionalAmount = errors.New("amount is smaller than one base unit")
	ErrAmountOverflow   = errors.New("amount overflows a u64")
)

// ToBaseUnits scales a human amount by exp, the number of base units in one
// whole unit. The result must be a whole number of base units.
func ToBaseUnits(human decimal.Decimal, exp uint64) (uint64, error) {
	if exp == 0 {
		return 0, errors.New("unit exponent must be positive")
	}
	if human.IsNegative() {
		return 0, errors.Wrap(ErrNegativeAmount, human.String())
	}

	scaled := human.Mul(decimal.NewFromBigInt(new(big.Int).SetUint64(exp), 0))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, errors.Wrapf(ErrFractionalAmount, "%s x %d = %s", human, exp, scaled)
	}

	units := scaled.BigInt()
	if !units.IsUint64() {
		return 0, errors.Wrapf(ErrAmountOverflow, "%s x %d", human, exp)
	}
	return units.Uint64(), nil
}

// ParseAmount parses a human amount such as "1.25".
func ParseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid amount %q", value)
	}
	return amount, nil
}

// FromBaseUnits renders base units as a human amount.
func FromBaseUnits(units, exp uint64) decimal.Decimal {
	if exp == 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0).
		Div(decimal.NewFromBigInt(new(big.Int).SetUint64(exp), 0))
}
