package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const zeroPrice = "$0.00"

// ErrInvalidAmount is returned by FormatPriceStrict for negative amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// FormatPrice renders amount as "$1,234.56", rounding half-up to cents.
// Negative amounts are clamped to "$0.00" and logged.
func FormatPrice(amount decimal.Decimal) string {
	s, err := FormatPriceStrict(amount)
	if err != nil {
		zap.L().Warn("clamping invalid price for display", zap.String("amount", amount.String()))
		return zeroPrice
	}
	return s
}

// FormatPriceStrict is FormatPrice without the clamp.
func FormatPriceStrict(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}

	rounded := amount.Round(2)
	whole := rounded.Truncate(0)
	fraction := rounded.Sub(whole).Shift(2).IntPart()

	return fmt.Sprintf("$%s.%02d", humanize.BigComma(whole.BigInt()), fraction), nil
}

// FormatPriceFloat formats a float amount; NaN and infinities clamp like negatives.
func FormatPriceFloat(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		zap.L().Warn("clamping non-finite price for display", zap.Float64("amount", amount))
		return zeroPrice
	}
	return FormatPrice(decimal.NewFromFloat(amount))
}
