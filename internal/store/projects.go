package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project groups saved calculations for one job.
type Project struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Notes            string    `json:"notes"`
	CalculationCount int       `json:"calculation_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateProject inserts a new project.
func (s *Store) CreateProject(ctx context.Context, name, notes string) (Project, error) {
	name = strings.TrimSpace(name)
	notes = strings.TrimSpace(notes)
	if name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrInvalid)
	}

	id := uuid.NewString()
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, name, notes, now, now)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}

	return s.GetProject(ctx, id)
}

// GetProject returns a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT
			p.id,
			p.name,
			COALESCE(p.notes, ''),
			(SELECT COUNT(*) FROM calculations c WHERE c.project_id = p.id),
			p.created_at,
			p.updated_at
		FROM projects p
		WHERE p.id = ?
	`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Project{}, fmt.Errorf("query project: %w", err)
	}
	return p, nil
}

// ListProjects returns projects newest first, optionally filtered by a
// substring of the name or notes.
func (s *Store) ListProjects(ctx context.Context, query string) ([]Project, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.id,
			p.name,
			COALESCE(p.notes, ''),
			(SELECT COUNT(*) FROM calculations c WHERE c.project_id = p.id),
			p.created_at,
			p.updated_at
		FROM projects p
		WHERE (? = '' OR p.name LIKE ? OR COALESCE(p.notes, '') LIKE ?)
		ORDER BY p.created_at DESC, p.rowid DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// DeleteProject removes a project and its calculations.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete project transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calculations WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project calculations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete project transaction: %w", err)
	}
	return nil
}

func (s *Store) touchProject(ctx context.Context, tx *sql.Tx, id string) error {
	result, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (Project, error) {
	var p Project
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Notes, &p.CalculationCount, &createdAt, &updatedAt); err != nil {
		return Project{}, err
	}

	var err error
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Project{}, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return Project{}, err
	}
	return p, nil
}
