package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned for negative volumes, distances or non-finite coordinates.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownPSIClass is returned when a supplier has no price for the requested PSI class.
	ErrUnknownPSIClass = errors.New("unknown psi class")
	// ErrInvalidSchedule is returned when a supplier pricing schedule breaks its invariants.
	ErrInvalidSchedule = errors.New("invalid pricing schedule")
)

// DeliveryFees is the delivery part of a supplier schedule.
type DeliveryFees struct {
	BaseDeliveryFee decimal.Decimal `json:"base_delivery_fee" yaml:"baseDeliveryFee"`
	BaseDistance    decimal.Decimal `json:"base_distance" yaml:"baseDistance"`
	PerMileFee      decimal.Decimal `json:"per_mile_fee" yaml:"perMileFee"`
	MinimumOrder    decimal.Decimal `json:"minimum_order" yaml:"minimumOrder"`
	SmallLoadFee    decimal.Decimal `json:"small_load_fee" yaml:"smallLoadFee"`
}

// AdditionalServices holds the flat surcharges for optional services.
type AdditionalServices struct {
	PumpTruckFee  decimal.Decimal `json:"pump_truck_fee" yaml:"pumpTruckFee"`
	SaturdayFee   decimal.Decimal `json:"saturday_fee" yaml:"saturdayFee"`
	AfterHoursFee decimal.Decimal `json:"after_hours_fee" yaml:"afterHoursFee"`
}

// Schedule is the pricing schedule of a single supplier.
type Schedule struct {
	PricePerYard       map[string]decimal.Decimal `json:"price_per_yard" yaml:"pricePerYard"`
	DeliveryFees       DeliveryFees               `json:"delivery_fees" yaml:"deliveryFees"`
	AdditionalServices AdditionalServices         `json:"additional_services" yaml:"additionalServices"`
}

// Flags selects the optional services of an order.
type Flags struct {
	NeedsPumpTruck       bool `json:"needs_pump_truck"`
	IsSaturdayDelivery   bool `json:"is_saturday_delivery"`
	IsAfterHoursDelivery bool `json:"is_after_hours_delivery"`
}

// Input represents the order-level inputs of an estimate.
type Input struct {
	Volume   decimal.Decimal `json:"volume"`
	PSI      string          `json:"psi"`
	Distance decimal.Decimal `json:"distance"`
	Flags    Flags           `json:"flags"`
}

// DeliveryBreakdown itemizes the delivery fees.
type DeliveryBreakdown struct {
	BaseDeliveryFee   decimal.Decimal `json:"base_delivery_fee"`
	SmallLoadFee      decimal.Decimal `json:"small_load_fee"`
	DistanceFee       decimal.Decimal `json:"distance_fee"`
	TotalDeliveryFees decimal.Decimal `json:"total_delivery_fees"`
}

// ServicesBreakdown itemizes the additional service fees.
type ServicesBreakdown struct {
	PumpTruckFee        decimal.Decimal `json:"pump_truck_fee"`
	SaturdayFee         decimal.Decimal `json:"saturday_fee"`
	AfterHoursFee       decimal.Decimal `json:"after_hours_fee"`
	TotalAdditionalFees decimal.Decimal `json:"total_additional_fees"`
}

// Result groups the full pricing output. SupplierSelected is false only for
// EmptyPricing, so a zeroed estimate is never mistaken for a free one.
type Result struct {
	SupplierSelected   bool              `json:"supplier_selected"`
	PricePerYard       decimal.Decimal   `json:"price_per_yard"`
	ConcreteCost       decimal.Decimal   `json:"concrete_cost"`
	DeliveryFees       DeliveryBreakdown `json:"delivery_fees"`
	AdditionalServices ServicesBreakdown `json:"additional_services"`
	TotalCost          decimal.Decimal   `json:"total_cost"`
}

// EmptyPricing is returned when no supplier has been selected yet.
var EmptyPricing = Result{
	SupplierSelected: false,
	PricePerYard:     decimal.Zero,
	ConcreteCost:     decimal.Zero,
	DeliveryFees: DeliveryBreakdown{
		BaseDeliveryFee:   decimal.Zero,
		SmallLoadFee:      decimal.Zero,
		DistanceFee:       decimal.Zero,
		TotalDeliveryFees: decimal.Zero,
	},
	AdditionalServices: ServicesBreakdown{
		PumpTruckFee:        decimal.Zero,
		SaturdayFee:         decimal.Zero,
		AfterHoursFee:       decimal.Zero,
		TotalAdditionalFees: decimal.Zero,
	},
	TotalCost: decimal.Zero,
}

// Calculate computes the cost breakdown of an order against a supplier schedule.
// A nil schedule yields EmptyPricing. Every line item is rounded to cents
// before it is summed.
func Calculate(in Input, schedule *Schedule) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	if schedule == nil {
		return EmptyPricing, nil
	}

	pricePerYard, ok := schedule.PricePerYard[in.PSI]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPSIClass, in.PSI, schedule.PSIClasses())
	}

	fees := schedule.DeliveryFees
	services := schedule.AdditionalServices

	concreteCost := cents(in.Volume.Mul(pricePerYard))

	smallLoadFee := decimal.Zero
	if in.Volume.LessThan(fees.MinimumOrder) {
		smallLoadFee = cents(fees.SmallLoadFee)
	}

	extraMiles := decimal.Max(decimal.Zero, in.Distance.Sub(fees.BaseDistance))
	distanceFee := cents(extraMiles.Mul(fees.PerMileFee))

	baseDeliveryFee := cents(fees.BaseDeliveryFee)
	totalDeliveryFees := baseDeliveryFee.Add(smallLoadFee).Add(distanceFee)

	pumpTruckFee := feeIf(in.Flags.NeedsPumpTruck, services.PumpTruckFee)
	saturdayFee := feeIf(in.Flags.IsSaturdayDelivery, services.SaturdayFee)
	afterHoursFee := feeIf(in.Flags.IsAfterHoursDelivery, services.AfterHoursFee)
	totalAdditionalFees := pumpTruckFee.Add(saturdayFee).Add(afterHoursFee)

	totalCost := concreteCost.Add(totalDeliveryFees).Add(totalAdditionalFees)

	return Result{
		SupplierSelected: true,
		PricePerYard:     pricePerYard,
		ConcreteCost:     concreteCost,
		DeliveryFees: DeliveryBreakdown{
			BaseDeliveryFee:   baseDeliveryFee,
			SmallLoadFee:      smallLoadFee,
			DistanceFee:       distanceFee,
			TotalDeliveryFees: totalDeliveryFees,
		},
		AdditionalServices: ServicesBreakdown{
			PumpTruckFee:        pumpTruckFee,
			SaturdayFee:         saturdayFee,
			AfterHoursFee:       afterHoursFee,
			TotalAdditionalFees: totalAdditionalFees,
		},
		TotalCost: totalCost,
	}, nil
}

var (
	// MaxVolume is the largest order, in cubic yards, the engine prices.
	MaxVolume = decimal.NewFromInt(10000)
	// MaxDistance is the longest delivery, in miles, the engine prices.
	MaxDistance = decimal.NewFromInt(1000)
)

// Order inputs are limited to these decimal exponents so that rounding never
// rescales a value like 1e20000000 into a huge integer.
const (
	maxScale    = 12
	maxExponent = 9
)

// Validate rejects negative or out-of-range volumes and distances.
func (in Input) Validate() error {
	if err := checkQuantity("volume", in.Volume, MaxVolume); err != nil {
		return err
	}
	return checkQuantity("distance", in.Distance, MaxDistance)
}

// checkQuantity looks at the exponent before comparing, since comparison
// rescales both operands to a common exponent.
func checkQuantity(field string, v, limit decimal.Decimal) error {
	exp := v.Exponent()
	if exp < -maxScale {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidInput, field, maxScale)
	}
	if exp > maxExponent {
		return fmt.Errorf("%w: %s must be between 0 and %s", ErrInvalidInput, field, limit)
	}
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must be >= 0, got %s", ErrInvalidInput, field, v)
	}
	if v.GreaterThan(limit) {
		return fmt.Errorf("%w: %s must be <= %s, got %s", ErrInvalidInput, field, limit, v)
	}
	return nil
}

// Validate checks that every price and fee is non-negative and that at least
// one PSI class is priced.
func (s Schedule) Validate() error {
	if len(s.PricePerYard) == 0 {
		return fmt.Errorf("%w: no psi classes priced", ErrInvalidSchedule)
	}
	for _, psi := range s.PSIClasses() {
		if s.PricePerYard[psi].IsNegative() {
			return fmt.Errorf("%w: price for psi %s is negative", ErrInvalidSchedule, psi)
		}
	}

	checks := []struct {
		field string
		value decimal.Decimal
	}{
		{"baseDeliveryFee", s.DeliveryFees.BaseDeliveryFee},
		{"baseDistance", s.DeliveryFees.BaseDistance},
		{"perMileFee", s.DeliveryFees.PerMileFee},
		{"minimumOrder", s.DeliveryFees.MinimumOrder},
		{"smallLoadFee", s.DeliveryFees.SmallLoadFee},
		{"pumpTruckFee", s.AdditionalServices.PumpTruckFee},
		{"saturdayFee", s.AdditionalServices.SaturdayFee},
		{"afterHoursFee", s.AdditionalServices.AfterHoursFee},
	}
	for _, c := range checks {
		if c.value.IsNegative() {
			return fmt.Errorf("%w: %s is negative", ErrInvalidSchedule, c.field)
		}
	}
	return nil
}

// Clone returns a copy of s that shares no map with it.
func (s Schedule) Clone() Schedule {
	if s.PricePerYard != nil {
		prices := make(map[string]decimal.Decimal, len(s.PricePerYard))
		for psi, price := range s.PricePerYard {
			prices[psi] = price
		}
		s.PricePerYard = prices
	}
	return s
}

// PSIClasses returns the priced PSI classes in ascending order.
func (s Schedule) PSIClasses() []string {
	classes := make([]string, 0, len(s.PricePerYard))
	for psi := range s.PricePerYard {
		classes = append(classes, psi)
	}
	sort.Slice(classes, func(i, j int) bool {
		if len(classes[i]) != len(classes[j]) {
			return len(classes[i]) < len(classes[j])
		}
		return classes[i] < classes[j]
	})
	return classes
}

func feeIf(enabled bool, fee decimal.Decimal) decimal.Decimal {
	if !enabled {
		return decimal.Zero
	}
	return cents(fee)
}

// cents rounds half away from zero, which is half-up for the non-negative
// amounts the engine produces.
func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
