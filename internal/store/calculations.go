package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/readymix/internal/pricing"
)

// Calculation is a saved estimate. Pricing is a snapshot taken when the
// calculation was written; reads never recalculate it.
type Calculation struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"project_id"`
	Label      string         `json:"label"`
	Input      pricing.Input  `json:"input"`
	SupplierID string         `json:"supplier_id,omitempty"`
	Pricing    pricing.Result `json:"pricing"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CalculationParams holds the writable fields of a calculation.
type CalculationParams struct {
	Label      string
	Input      pricing.Input
	SupplierID string
	Pricing    pricing.Result
}

// CreateCalculation saves a calculation under an existing project.
func (s *Store) CreateCalculation(ctx context.Context, projectID string, params CalculationParams) (Calculation, error) {
	pricingJSON, err := encodeResult(params.Pricing)
	if err != nil {
		return Calculation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Calculation{}, fmt.Errorf("begin create calculation transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.touchProject(ctx, tx, projectID); err != nil {
		return Calculation{}, err
	}

	id := uuid.NewString()
	now := s.timestamp()
	in := params.Input
	_, err = tx.ExecContext(ctx, `
		INSERT INTO calculations (
			id,
			project_id,
			label,
			volume,
			psi,
			distance,
			needs_pump_truck,
			is_saturday_delivery,
			is_after_hours_delivery,
			supplier_id,
			pricing_json,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		projectID,
		strings.TrimSpace(params.Label),
		in.Volume.String(),
		in.PSI,
		in.Distance.String(),
		in.Flags.NeedsPumpTruck,
		in.Flags.IsSaturdayDelivery,
		in.Flags.IsAfterHoursDelivery,
		nullString(params.SupplierID),
		pricingJSON,
		now,
		now,
	)
	if err != nil {
		return Calculation{}, fmt.Errorf("insert calculation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Calculation{}, fmt.Errorf("commit create calculation transaction: %w", err)
	}

	return s.GetCalculation(ctx, projectID, id)
}

// UpdateCalculation replaces the inputs and pricing snapshot of a saved calculation.
func (s *Store) UpdateCalculation(ctx context.Context, projectID, calculationID string, params CalculationParams) (Calculation, error) {
	pricingJSON, err := encodeResult(params.Pricing)
	if err != nil {
		return Calculation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Calculation{}, fmt.Errorf("begin update calculation transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	in := params.Input
	result, err := tx.ExecContext(ctx, `
		UPDATE calculations
		SET
			label = ?,
			volume = ?,
			psi = ?,
			distance = ?,
			needs_pump_truck = ?,
			is_saturday_delivery = ?,
			is_after_hours_delivery = ?,
			supplier_id = ?,
			pricing_json = ?,
			updated_at = ?
		WHERE id = ? AND project_id = ?
	`,
		strings.TrimSpace(params.Label),
		in.Volume.String(),
		in.PSI,
		in.Distance.String(),
		in.Flags.NeedsPumpTruck,
		in.Flags.IsSaturdayDelivery,
		in.Flags.IsAfterHoursDelivery,
		nullString(params.SupplierID),
		pricingJSON,
		s.timestamp(),
		calculationID,
		projectID,
	)
	if err != nil {
		return Calculation{}, fmt.Errorf("update calculation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Calculation{}, fmt.Errorf("update calculation: %w", err)
	}
	if affected == 0 {
		return Calculation{}, fmt.Errorf("calculation %s in project %s: %w", calculationID, projectID, ErrNotFound)
	}

	if err := s.touchProject(ctx, tx, projectID); err != nil {
		return Calculation{}, err
	}

	if err := tx.Commit(); err != nil {
		return Calculation{}, fmt.Errorf("commit update calculation transaction: %w", err)
	}

	return s.GetCalculation(ctx, projectID, calculationID)
}

// GetCalculation returns one calculation of a project.
func (s *Store) GetCalculation(ctx context.Context, projectID, calculationID string) (Calculation, error) {
	row := s.db.QueryRowContext(ctx, calculationSelect+`
		WHERE id = ? AND project_id = ?
	`, calculationID, projectID)

	c, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Calculation{}, fmt.Errorf("calculation %s in project %s: %w", calculationID, projectID, ErrNotFound)
	}
	if err != nil {
		return Calculation{}, fmt.Errorf("query calculation: %w", err)
	}
	return c, nil
}

// ListCalculations returns the calculations of a project, newest first.
func (s *Store) ListCalculations(ctx context.Context, projectID string) ([]Calculation, error) {
	rows, err := s.db.QueryContext(ctx, calculationSelect+`
		WHERE project_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	calculations := make([]Calculation, 0)
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		calculations = append(calculations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}

	return calculations, nil
}

const calculationSelect = `
	SELECT
		id,
		project_id,
		COALESCE(label, ''),
		volume,
		psi,
		distance,
		needs_pump_truck,
		is_saturday_delivery,
		is_after_hours_delivery,
		COALESCE(supplier_id, ''),
		pricing_json,
		created_at,
		updated_at
	FROM calculations
`

func scanCalculation(row scanner) (Calculation, error) {
	var c Calculation
	var volume, distance, pricingJSON, createdAt, updatedAt string
	err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.Label,
		&volume,
		&c.Input.PSI,
		&distance,
		&c.Input.Flags.NeedsPumpTruck,
		&c.Input.Flags.IsSaturdayDelivery,
		&c.Input.Flags.IsAfterHoursDelivery,
		&c.SupplierID,
		&pricingJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return Calculation{}, err
	}

	if c.Input.Volume, err = decimal.NewFromString(volume); err != nil {
		return Calculation{}, fmt.Errorf("decode volume: %w", err)
	}
	if c.Input.Distance, err = decimal.NewFromString(distance); err != nil {
		return Calculation{}, fmt.Errorf("decode distance: %w", err)
	}
	if err := json.Unmarshal([]byte(pricingJSON), &c.Pricing); err != nil {
		return Calculation{}, fmt.Errorf("decode pricing snapshot: %w", err)
	}
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Calculation{}, err
	}
	if c.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return Calculation{}, err
	}
	return c, nil
}

func encodeResult(result pricing.Result) (string, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode pricing snapshot: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
