// Package estimate picks the supplier for an order and prices it.
package estimate

import (
	"github.com/shopspring/decimal"

	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/supplier"
)

// Request describes an order and how its supplier is chosen. SupplierID wins
// over Point; with neither set the estimate carries pricing.EmptyPricing.
// A nil Distance defaults to the distance between Point and the supplier.
type Request struct {
	Volume     decimal.Decimal
	PSI        string
	Distance   *decimal.Decimal
	Flags      pricing.Flags
	SupplierID string
	Point      *supplier.Point
}

// Estimate is a priced order.
type Estimate struct {
	Input         pricing.Input
	Supplier      *supplier.Location
	DistanceMiles *decimal.Decimal
	Pricing       pricing.Result
}

// Build resolves the supplier for req against locator and runs the pricing
// engine. Input validation happens before the supplier lookup.
func Build(locator *supplier.Locator, req Request) (Estimate, error) {
	est := Estimate{
		Input: pricing.Input{
			Volume:   req.Volume,
			PSI:      req.PSI,
			Distance: decimal.Zero,
			Flags:    req.Flags,
		},
	}
	if req.Distance != nil {
		est.Input.Distance = *req.Distance
	}
	if err := est.Input.Validate(); err != nil {
		return Estimate{}, err
	}

	switch {
	case req.SupplierID != "":
		loc, err := locator.Get(req.SupplierID)
		if err != nil {
			return Estimate{}, err
		}
		est.Supplier = &loc
		if req.Point != nil {
			if err := req.Point.Validate(); err != nil {
				return Estimate{}, err
			}
			d := miles(supplier.DistanceMiles(*req.Point, loc.Point()))
			est.DistanceMiles = &d
		}
	case req.Point != nil:
		loc, dist, err := locator.NearestWithDistance(*req.Point)
		if err != nil {
			return Estimate{}, err
		}
		est.Supplier = &loc
		d := miles(dist)
		est.DistanceMiles = &d
	}

	if req.Distance == nil && est.DistanceMiles != nil {
		est.Input.Distance = *est.DistanceMiles
	}

	var schedule *pricing.Schedule
	if est.Supplier != nil {
		schedule = &est.Supplier.Pricing
	}
	result, err := pricing.Calculate(est.Input, schedule)
	if err != nil {
		return Estimate{}, err
	}
	est.Pricing = result
	return est, nil
}

func miles(d float64) decimal.Decimal {
	return decimal.NewFromFloat(d).Round(2)
}

// Formatted holds the display strings of a result.
type Formatted struct {
	PricePerYard       string `json:"price_per_yard"`
	ConcreteCost       string `json:"concrete_cost"`
	BaseDeliveryFee    string `json:"base_delivery_fee"`
	SmallLoadFee       string `json:"small_load_fee"`
	DistanceFee        string `json:"distance_fee"`
	DeliveryFees       string `json:"delivery_fees"`
	PumpTruckFee       string `json:"pump_truck_fee"`
	SaturdayFee        string `json:"saturday_fee"`
	AfterHoursFee      string `json:"after_hours_fee"`
	AdditionalServices string `json:"additional_services"`
	Total              string `json:"total"`
}

// Format renders every amount of result with pricing.FormatPrice.
func Format(result pricing.Result) Formatted {
	return Formatted{
		PricePerYard:       pricing.FormatPrice(result.PricePerYard),
		ConcreteCost:       pricing.FormatPrice(result.ConcreteCost),
		BaseDeliveryFee:    pricing.FormatPrice(result.DeliveryFees.BaseDeliveryFee),
		SmallLoadFee:       pricing.FormatPrice(result.DeliveryFees.SmallLoadFee),
		DistanceFee:        pricing.FormatPrice(result.DeliveryFees.DistanceFee),
		DeliveryFees:       pricing.FormatPrice(result.DeliveryFees.TotalDeliveryFees),
		PumpTruckFee:       pricing.FormatPrice(result.AdditionalServices.PumpTruckFee),
		SaturdayFee:        pricing.FormatPrice(result.AdditionalServices.SaturdayFee),
		AfterHoursFee:      pricing.FormatPrice(result.AdditionalServices.AfterHoursFee),
		AdditionalServices: pricing.FormatPrice(result.AdditionalServices.TotalAdditionalFees),
		Total:              pricing.FormatPrice(result.TotalCost),
	}
}
