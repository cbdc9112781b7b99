package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/readymix/internal/store"
	"github.com/Simplici0/readymix/internal/supplier"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
	Deletes int
}

// Run syncs the supplier catalog into the suppliers table in an idempotent way.
// Suppliers missing from the database are inserted, changed ones updated and
// ones no longer in the catalog deleted.
func Run(ctx context.Context, db *sql.DB, locations []supplier.Location) (Stats, error) {
	if err := supplier.Validate(locations); err != nil {
		return Stats{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	keep := make(map[string]struct{}, len(locations))
	for i, loc := range locations {
		keep[loc.ID] = struct{}{}
		if err := ensureSupplier(ctx, tx, i+1, loc, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := pruneSuppliers(ctx, tx, keep, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

type storedSupplier struct {
	position  int
	name      string
	address   string
	latitude  float64
	longitude float64
	pricing   string
}

func ensureSupplier(ctx context.Context, tx *sql.Tx, position int, loc supplier.Location, stats *Stats) error {
	pricingJSON, err := store.EncodeSchedule(loc.Pricing)
	if err != nil {
		return err
	}
	want := storedSupplier{
		position:  position,
		name:      loc.Name,
		address:   loc.Address,
		latitude:  loc.Latitude,
		longitude: loc.Longitude,
		pricing:   pricingJSON,
	}

	var have storedSupplier
	err = tx.QueryRowContext(ctx, `
		SELECT position, name, address, latitude, longitude, pricing_json
		FROM suppliers
		WHERE id = ?
	`, loc.ID).Scan(&have.position, &have.name, &have.address, &have.latitude, &have.longitude, &have.pricing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO suppliers (id, position, name, address, latitude, longitude, pricing_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, loc.ID, want.position, want.name, want.address, want.latitude, want.longitude, want.pricing); err != nil {
			return fmt.Errorf("insert supplier %s: %w", loc.ID, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check supplier %s existence: %w", loc.ID, err)
	}

	if have == want {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE suppliers
		SET
			position = ?,
			name = ?,
			address = ?,
			latitude = ?,
			longitude = ?,
			pricing_json = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, want.position, want.name, want.address, want.latitude, want.longitude, want.pricing, loc.ID); err != nil {
		return fmt.Errorf("update supplier %s: %w", loc.ID, err)
	}
	stats.Updates++
	return nil
}

// pruneSuppliers deletes stored suppliers whose id is not in keep. Saved
// calculations keep their supplier id and pricing snapshot.
func pruneSuppliers(ctx context.Context, tx *sql.Tx, keep map[string]struct{}, stats *Stats) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM suppliers`)
	if err != nil {
		return fmt.Errorf("query stored suppliers: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan stored supplier: %w", err)
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate stored suppliers: %w", err)
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete supplier %s: %w", id, err)
		}
		stats.Deletes++
	}
	return nil
}
