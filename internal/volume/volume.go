// Package volume converts pour dimensions into cubic yards of concrete.
package volume

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const maxCount = 10000

// ErrInvalidDimension is returned for zero, negative or out-of-range dimensions.
var ErrInvalidDimension = errors.New("invalid dimension")

var (
	cubicFeetPerYard = decimal.NewFromInt(27)
	inchesPerFoot    = decimal.NewFromInt(12)
	hundred          = decimal.NewFromInt(100)

	// maxDimension caps every length, in feet or inches.
	maxDimension = decimal.NewFromInt(10000)

	// pi to 10 places is far below the 0.01 yd³ output resolution.
	pi = decimal.RequireFromString("3.1415926536")
)

// Slab returns the volume of a rectangular slab.
func Slab(lengthFt, widthFt, thicknessIn decimal.Decimal) (decimal.Decimal, error) {
	if err := positive(map[string]decimal.Decimal{
		"length": lengthFt, "width": widthFt, "thickness": thicknessIn,
	}); err != nil {
		return decimal.Zero, err
	}
	cubicFeet := lengthFt.Mul(widthFt).Mul(thicknessIn.Div(inchesPerFoot))
	return toYards(cubicFeet), nil
}

// Footing returns the volume of a continuous rectangular footing.
func Footing(lengthFt, widthIn, depthIn decimal.Decimal) (decimal.Decimal, error) {
	if err := positive(map[string]decimal.Decimal{
		"length": lengthFt, "width": widthIn, "depth": depthIn,
	}); err != nil {
		return decimal.Zero, err
	}
	cubicFeet := lengthFt.Mul(widthIn.Div(inchesPerFoot)).Mul(depthIn.Div(inchesPerFoot))
	return toYards(cubicFeet), nil
}

// Column returns the combined volume of count round columns.
func Column(diameterIn, heightFt decimal.Decimal, count int) (decimal.Decimal, error) {
	if count <= 0 || count > maxCount {
		return decimal.Zero, fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrInvalidDimension, maxCount, count)
	}
	if err := positive(map[string]decimal.Decimal{
		"diameter": diameterIn, "height": heightFt,
	}); err != nil {
		return decimal.Zero, err
	}
	radiusFt := diameterIn.Div(inchesPerFoot).Div(decimal.NewFromInt(2))
	cubicFeet := pi.Mul(radiusFt).Mul(radiusFt).Mul(heightFt).Mul(decimal.NewFromInt(int64(count)))
	return toYards(cubicFeet), nil
}

// WithWaste adds an over-order allowance of percent to yards.
func WithWaste(yards, percent decimal.Decimal) (decimal.Decimal, error) {
	if !scaled(yards) || yards.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: volume must be >= 0", ErrInvalidDimension)
	}
	if !scaled(percent) || percent.IsNegative() || percent.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: waste percent must be between 0 and 100", ErrInvalidDimension)
	}
	factor := decimal.NewFromInt(1).Add(percent.Div(hundred))
	return yards.Mul(factor).Round(2), nil
}

func toYards(cubicFeet decimal.Decimal) decimal.Decimal {
	return cubicFeet.Div(cubicFeetPerYard).Round(2)
}

func positive(dims map[string]decimal.Decimal) error {
	for _, name := range []string{"length", "width", "thickness", "depth", "diameter", "height"} {
		v, ok := dims[name]
		if !ok {
			continue
		}
		if !scaled(v) {
			return fmt.Errorf("%w: %s is out of range", ErrInvalidDimension, name)
		}
		if !v.IsPositive() {
			return fmt.Errorf("%w: %s must be > 0, got %s", ErrInvalidDimension, name, v)
		}
		if v.GreaterThan(maxDimension) {
			return fmt.Errorf("%w: %s must be <= %s, got %s", ErrInvalidDimension, name, maxDimension, v)
		}
	}
	return nil
}

// scaled reports whether v has an exponent small enough to compare and round
// without building a huge intermediate integer.
func scaled(v decimal.Decimal) bool {
	exp := v.Exponent()
	return exp >= -12 && exp <= 9
}
