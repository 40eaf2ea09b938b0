package core

import "github.com/shopspring/decimal"

// ShareByCount returns the payer's share of original split evenly among n
// parties, rounded half-up to the cent.
func ShareByCount(original Money, n int) (Money, error) {
	if n < 1 {
		return Money{}, ErrInvalidSplit
	}
	if err := original.Validate(); err != nil {
		return Money{}, err
	}
	share := original.Decimal().Div(decimal.NewFromInt(int64(n)))
	return FromDecimal(share)
}

// ShareByPercent returns pct percent of original, rounded half-up to the
// cent. pct must be in (0, 100].
func ShareByPercent(original Money, pct float64) (Money, error) {
	if pct <= 0 || pct > 100 {
		return Money{}, ErrInvalidSplit
	}
	if err := original.Validate(); err != nil {
		return Money{}, err
	}
	share := original.Decimal().Mul(decimal.NewFromFloat(pct)).Div(hundred)
	return FromDecimal(share)
}

// SharePercentage reports amount as a percentage of original, rounded to
// two decimals. It returns 100 for non-shared or degenerate input.
func SharePercentage(amount, original Money) float64 {
	if original.Cents <= 0 || amount.Cents >= original.Cents {
		return 100
	}
	pct := amount.Decimal().Div(original.Decimal()).Mul(hundred).Round(2)
	return pct.InexactFloat64()
}
