package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/readymix/internal/estimate"
	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/supplier"
)

const selectLocationMessage = "Select your location to see supplier pricing."

// estimateRequest is shared by ad-hoc estimates and saved calculations.
type estimateRequest struct {
	Label                string           `json:"label"`
	Volume               decimal.Decimal  `json:"volume"`
	PSI                  string           `json:"psi"`
	Distance             *decimal.Decimal `json:"distance"`
	SupplierID           string           `json:"supplier_id"`
	Latitude             *float64         `json:"latitude"`
	Longitude            *float64         `json:"longitude"`
	Address              string           `json:"address"`
	NeedsPumpTruck       bool             `json:"needs_pump_truck"`
	IsSaturdayDelivery   bool             `json:"is_saturday_delivery"`
	IsAfterHoursDelivery bool             `json:"is_after_hours_delivery"`
}

type estimateResponse struct {
	SupplierSelected bool               `json:"supplier_selected"`
	Message          string             `json:"message,omitempty"`
	Supplier         *supplierResponse  `json:"supplier,omitempty"`
	DistanceMiles    *decimal.Decimal   `json:"distance_miles,omitempty"`
	Input            pricing.Input      `json:"input"`
	Pricing          pricing.Result     `json:"pricing"`
	Formatted        estimate.Formatted `json:"formatted"`
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	est, err := s.buildEstimate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEstimateResponse(est))
}

func (s *server) buildEstimate(ctx context.Context, req estimateRequest) (estimate.Estimate, error) {
	point, err := s.resolvePoint(ctx, req.Latitude, req.Longitude, req.Address)
	if err != nil {
		return estimate.Estimate{}, err
	}

	return estimate.Build(s.locator, estimate.Request{
		Volume:   req.Volume,
		PSI:      req.PSI,
		Distance: req.Distance,
		Flags: pricing.Flags{
			NeedsPumpTruck:       req.NeedsPumpTruck,
			IsSaturdayDelivery:   req.IsSaturdayDelivery,
			IsAfterHoursDelivery: req.IsAfterHoursDelivery,
		},
		SupplierID: req.SupplierID,
		Point:      point,
	})
}

// resolvePoint turns either explicit coordinates or an address into a point.
// It returns nil when the request carries no location at all.
func (s *server) resolvePoint(ctx context.Context, lat, lon *float64, address string) (*supplier.Point, error) {
	switch {
	case lat != nil && lon != nil:
		p := supplier.Point{Latitude: *lat, Longitude: *lon}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return &p, nil
	case lat != nil || lon != nil:
		return nil, fmt.Errorf("%w: latitude and longitude must be given together", errBadRequest)
	case address != "":
		if s.geocoder == nil {
			return nil, errGeocoderUnavailable
		}
		p, err := s.geocoder.Lookup(ctx, address)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	return nil, nil
}

func newEstimateResponse(est estimate.Estimate) estimateResponse {
	resp := estimateResponse{
		SupplierSelected: est.Pricing.SupplierSelected,
		DistanceMiles:    est.DistanceMiles,
		Input:            est.Input,
		Pricing:          est.Pricing,
		Formatted:        estimate.Format(est.Pricing),
	}
	if est.Supplier != nil {
		sr := newSupplierResponse(*est.Supplier)
		resp.Supplier = &sr
	}
	if !resp.SupplierSelected {
		resp.Message = selectLocationMessage
	}
	return resp
}
