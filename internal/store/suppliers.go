package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Simplici0/readymix/internal/pricing"
	"github.com/Simplici0/readymix/internal/supplier"
)

// ListSuppliers returns every stored supplier in catalog order.
func (s *Store) ListSuppliers(ctx context.Context) ([]supplier.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, latitude, longitude, pricing_json
		FROM suppliers
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	locations := make([]supplier.Location, 0)
	for rows.Next() {
		var loc supplier.Location
		var pricingJSON string
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Latitude, &loc.Longitude, &pricingJSON); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		if err := json.Unmarshal([]byte(pricingJSON), &loc.Pricing); err != nil {
			return nil, fmt.Errorf("decode supplier %s pricing: %w", loc.ID, err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}

	return locations, nil
}

// EncodeSchedule serializes a pricing schedule for the pricing_json column.
func EncodeSchedule(schedule pricing.Schedule) (string, error) {
	b, err := json.Marshal(schedule)
	if err != nil {
		return "", fmt.Errorf("encode pricing schedule: %w", err)
	}
	return string(b), nil
}
