package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetFreshSource returns the cached page for url if it was fetched within
// ttl, or nil otherwise
func (db *DB) GetFreshSource(ctx context.Context, url string, ttl time.Duration) (*SourcePage, error) {
	var p SourcePage
	err := db.pool.QueryRow(ctx,
		`SELECT url, html, text, status_code, fetched_at
		 FROM source_pages
		 WHERE url = $1 AND fetched_at > $2`,
		url, time.Now().Add(-ttl),
	).Scan(&p.URL, &p.HTML, &p.Text, &p.StatusCode, &p.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source page: %w", err)
	}
	return &p, nil
}

// UpsertSource stores a fetched page, replacing any older copy
func (db *DB) UpsertSource(ctx context.Context, p *SourcePage) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO source_pages (url, html, text, status_code)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (url) DO UPDATE
		 SET html = $2, text = $3, status_code = $4, fetched_at = NOW()
		 RETURNING fetched_at`,
		p.URL, p.HTML, p.Text, p.StatusCode,
	).Scan(&p.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert source page: %w", err)
	}
	return nil
}
