package relay

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Conversion is the outcome of converting a received source amount into the
// destination asset. Amount + Fee always equals the gross converted amount,
// fractional remainders below one destination unit are absorbed into the fee.
type Conversion struct {
	// Amount to disburse, in the smallest destination asset unit.
	Amount *big.Int
	// Fee withheld, in the smallest destination asset unit.
	Fee *big.Int
	// Price used for the conversion.
	Price decimal.Decimal
}

// Converter turns source asset amounts into destination asset amounts using
// a price quote. It is pure: no I/O, deterministic for identical inputs.
type Converter struct {
	feeFraction  decimal.Decimal
	decimalShift int32
}

// NewConverter builds a converter withholding feePercent percent of every
// converted amount. The decimal shift accounts for differing token decimals
// between the two assets.
func NewConverter(feePercent decimal.Decimal, sourceDecimals, destDecimals int32) *Converter {
	return &Converter{
		feeFraction:  feePercent.Div(decimal.NewFromInt(100)),
		decimalShift: destDecimals - sourceDecimals,
	}
}

// Convert computes the destination amount for the given source amount and
// price (destination asset units per reference currency). The gross amount
// and the net amount are both truncated toward zero, so the recipient never
// receives more than the exact conversion.
func (c *Converter) Convert(amount *big.Int, price decimal.Decimal) (*Conversion, error) {
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("price %s is not positive: %w", price, ErrInvalidPrice)
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("source amount must be non-negative")
	}

	gross := decimal.NewFromBigInt(amount, c.decimalShift).
		Div(price).
		Truncate(0)
	sent := gross.Mul(decimal.NewFromInt(1).Sub(c.feeFraction)).Truncate(0)
	fee := gross.Sub(sent)

	return &Conversion{
		Amount: sent.BigInt(),
		Fee:    fee.BigInt(),
		Price:  price,
	}, nil
}
