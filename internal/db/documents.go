package db

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-template/internal/conformance"
)

const documentColumns = `id, template_id, user_id, content, issues, COALESCE(source_url, ''), created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var content, issues []byte
	if err := row.Scan(&d.ID, &d.TemplateID, &d.UserID, &content, &issues, &d.SourceURL, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &d.Content); err != nil {
		return nil, fmt.Errorf("failed to decode document content: %w", err)
	}
	if err := json.Unmarshal(issues, &d.Issues); err != nil {
		return nil, fmt.Errorf("failed to decode document issues: %w", err)
	}
	return &d, nil
}

// CreateDocument stores d and fills in its ID and creation time
func (db *DB) CreateDocument(ctx context.Context, d *Document) error {
	content, err := json.Marshal(d.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	issues := d.Issues
	if issues == nil {
		issues = conformance.Issues{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}

	var sourceURL *string
	if d.SourceURL != "" {
		sourceURL = &d.SourceURL
	}
	err = db.pool.QueryRow(ctx,
		`INSERT INTO documents (template_id, user_id, content, issues, source_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		d.TemplateID, d.UserID, content, issuesJSON, sourceURL,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetDocument returns the document with id, or nil if there is none
func (db *DB) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := scanDocument(db.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns the documents created from a template, newest first
func (db *DB) ListDocuments(ctx context.Context, templateID uuid.UUID) ([]Document, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE template_id = $1 ORDER BY created_at DESC`,
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document
func (db *DB) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
