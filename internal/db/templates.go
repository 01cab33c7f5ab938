package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-template/internal/template"
)

const templateColumns = `id, user_id, name, body::text, created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	var body string
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &body, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	s, err := template.ParseJSON([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("stored template %s is invalid: %w", t.ID, err)
	}
	t.Schema = s
	return &t, nil
}

func encodeSchema(s *template.Schema) (string, error) {
	if s == nil {
		s = template.NewSchema()
	}
	body, err := s.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode template: %w", err)
	}
	return string(body), nil
}

// CreateTemplate stores t and fills in its ID and timestamps
func (db *DB) CreateTemplate(ctx context.Context, t *Template) error {
	body, err := encodeSchema(t.Schema)
	if err != nil {
		return err
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO templates (user_id, name, body)
		 VALUES ($1, $2, $3::json)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.Name, body,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetTemplate returns the template with id, or nil if there is none
func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(db.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns a user's templates, newest first
func (db *DB) ListTemplates(ctx context.Context, userID uuid.UUID) ([]Template, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTemplate saves the name and schema of t
func (db *DB) UpdateTemplate(ctx context.Context, t *Template) error {
	body, err := encodeSchema(t.Schema)
	if err != nil {
		return err
	}
	err = db.pool.QueryRow(ctx,
		`UPDATE templates SET name = $1, body = $2::json, updated_at = NOW()
		 WHERE id = $3
		 RETURNING updated_at`,
		t.Name, body, t.ID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("template not found: %s", t.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template and its documents
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}
