package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/readymix/internal/volume"
)

type volumeRequest struct {
	Shape        string          `json:"shape"`
	LengthFt     decimal.Decimal `json:"length_ft"`
	WidthFt      decimal.Decimal `json:"width_ft"`
	ThicknessIn  decimal.Decimal `json:"thickness_in"`
	WidthIn      decimal.Decimal `json:"width_in"`
	DepthIn      decimal.Decimal `json:"depth_in"`
	DiameterIn   decimal.Decimal `json:"diameter_in"`
	HeightFt     decimal.Decimal `json:"height_ft"`
	Count        int             `json:"count"`
	WastePercent decimal.Decimal `json:"waste_percent"`
}

type volumeResponse struct {
	Shape        string          `json:"shape"`
	CubicYards   decimal.Decimal `json:"cubic_yards"`
	WastePercent decimal.Decimal `json:"waste_percent"`
	OrderYards   decimal.Decimal `json:"order_yards"`
}

func (s *server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	yards, err := computeVolume(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	withWaste, err := volume.WithWaste(yards, req.WastePercent)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, volumeResponse{
		Shape:        strings.ToLower(req.Shape),
		CubicYards:   yards,
		WastePercent: req.WastePercent,
		OrderYards:   withWaste,
	})
}

func computeVolume(req volumeRequest) (decimal.Decimal, error) {
	switch strings.ToLower(strings.TrimSpace(req.Shape)) {
	case "slab":
		return volume.Slab(req.LengthFt, req.WidthFt, req.ThicknessIn)
	case "footing":
		return volume.Footing(req.LengthFt, req.WidthIn, req.DepthIn)
	case "column":
		count := req.Count
		if count == 0 {
			count = 1
		}
		return volume.Column(req.DiameterIn, req.HeightFt, count)
	default:
		return decimal.Zero, fmt.Errorf("%w: shape must be slab, footing or column, got %q", errBadRequest, req.Shape)
	}
}
