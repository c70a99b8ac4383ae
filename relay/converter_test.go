package relay_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chainflow/token-relay/relay"
)

func TestConverterConvert(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name           string
		FeePercent     string
		SourceDecimals int32
		DestDecimals   int32
		Amount         int64
		Price          string
		ExpectedAmount int64
		ExpectedFee    int64
	}{
		{
			Name:           "one unit at half price with one percent fee",
			FeePercent:     "1",
			SourceDecimals: 6,
			DestDecimals:   6,
			Amount:         1_000_000,
			Price:          "0.5",
			ExpectedAmount: 1_980_000,
			ExpectedFee:    20_000,
		},
		{
			Name:           "zero amount",
			FeePercent:     "1",
			SourceDecimals: 6,
			DestDecimals:   6,
			Amount:         0,
			Price:          "0.5",
			ExpectedAmount: 0,
			ExpectedFee:    0,
		},
		{
			Name:           "zero fee",
			FeePercent:     "0",
			SourceDecimals: 6,
			DestDecimals:   6,
			Amount:         1_000_000,
			Price:          "2",
			ExpectedAmount: 500_000,
			ExpectedFee:    0,
		},
		{
			Name:           "fractional remainder absorbed into fee",
			FeePercent:     "1",
			SourceDecimals: 6,
			DestDecimals:   6,
			Amount:         1,
			Price:          "0.3",
			ExpectedAmount: 2,
			ExpectedFee:    1,
		},
		{
			Name:           "destination has more decimals",
			FeePercent:     "1",
			SourceDecimals: 6,
			DestDecimals:   8,
			Amount:         1_000_000,
			Price:          "0.5",
			ExpectedAmount: 198_000_000,
			ExpectedFee:    2_000_000,
		},
		{
			Name:           "destination has fewer decimals",
			FeePercent:     "0",
			SourceDecimals: 8,
			DestDecimals:   6,
			Amount:         100_000_000,
			Price:          "1",
			ExpectedAmount: 1_000_000,
			ExpectedFee:    0,
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			c := relay.NewConverter(decimal.RequireFromString(test.FeePercent), test.SourceDecimals, test.DestDecimals)
			res, err := c.Convert(big.NewInt(test.Amount), decimal.RequireFromString(test.Price))
			require.NoError(t, err)
			require.Equal(t, big.NewInt(test.ExpectedAmount), res.Amount)
			require.Equal(t, big.NewInt(test.ExpectedFee), res.Fee)
		})
	}
}

func TestConverterInvalidPrice(t *testing.T) {
	t.Parallel()

	c := relay.NewConverter(decimal.NewFromInt(1), 6, 6)

	_, err := c.Convert(big.NewInt(100), decimal.Zero)
	require.ErrorIs(t, err, relay.ErrInvalidPrice)

	_, err = c.Convert(big.NewInt(100), decimal.NewFromInt(-1))
	require.ErrorIs(t, err, relay.ErrInvalidPrice)
}

func TestConverterNegativeAmount(t *testing.T) {
	t.Parallel()

	c := relay.NewConverter(decimal.NewFromInt(1), 6, 6)
	_, err := c.Convert(big.NewInt(-1), decimal.NewFromInt(1))
	require.Error(t, err)
}

func TestConverterNeverOverpays(t *testing.T) {
	t.Parallel()

	c := relay.NewConverter(decimal.RequireFromString("1.5"), 6, 6)
	for _, amount := range []int64{1, 7, 999, 123_456, 1_000_000, 987_654_321} {
		for _, price := range []string{"0.013", "0.5", "1", "3.7", "1999.99"} {
			res, err := c.Convert(big.NewInt(amount), decimal.RequireFromString(price))
			require.NoError(t, err)

			gross := decimal.NewFromInt(amount).Div(decimal.RequireFromString(price)).Truncate(0)
			total := new(big.Int).Add(res.Amount, res.Fee)
			require.Equal(t, gross.BigInt(), total, "amount %d price %s", amount, price)
			require.True(t, res.Fee.Sign() >= 0)
			require.True(t, res.Amount.Sign() >= 0)
		}
	}
}
