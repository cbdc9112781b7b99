package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/supplier"
)

type supplierResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Address    string           `json:"address"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	PSIClasses []string         `json:"psi_classes"`
	Pricing    pricing.Schedule `json:"pricing"`
}

type nearestResponse struct {
	Query         supplier.Point   `json:"query"`
	Supplier      supplierResponse `json:"supplier"`
	DistanceMiles decimal.Decimal  `json:"distance_miles"`
}

func newSupplierResponse(loc supplier.Location) supplierResponse {
	return supplierResponse{
		ID:         loc.ID,
		Name:       loc.Name,
		Address:    loc.Address,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		PSIClasses: loc.Pricing.PSIClasses(),
		Pricing:    loc.Pricing,
	}
}

func (s *server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	all := s.locator.All()
	out := make([]supplierResponse, 0, len(all))
	for _, loc := range all {
		out = append(out, newSupplierResponse(loc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"suppliers": out})
}

func (s *server) handleNearestSupplier(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var lat, lon *float64
	for _, p := range []struct {
		field string
		dst   **float64
	}{{"lat", &lat}, {"lon", &lon}} {
		raw := strings.TrimSpace(q.Get(p.field))
		if raw == "" {
			continue
		}
		v, err := parseFloatParam(raw, p.field)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		*p.dst = &v
	}

	point, err := s.resolvePoint(r.Context(), lat, lon, strings.TrimSpace(q.Get("address")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if point == nil {
		s.fail(w, r, fmt.Errorf("%w: lat and lon or address is required", errBadRequest))
		return
	}

	loc, miles, err := s.locator.NearestWithDistance(*point)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nearestResponse{
		Query:         *point,
		Supplier:      newSupplierResponse(loc),
		DistanceMiles: decimal.NewFromFloat(miles).Round(2),
	})
}

func parseFloatParam(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric", errBadRequest, field)
	}
	return value, nil
}
