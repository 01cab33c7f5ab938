package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/template"
)

// Template is a stored resume template
type Template struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Name      string           `json:"name"`
	Schema    *template.Schema `json:"schema"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Document is a resume document checked against a template. Issues holds
// the result of the last conformance check; empty means it conforms.
type Document struct {
	ID         uuid.UUID          `json:"id"`
	TemplateID uuid.UUID          `json:"template_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Content    map[string]any     `json:"content"`
	Issues     conformance.Issues `json:"issues"`
	SourceURL  string             `json:"source_url,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Conforms reports whether the last check found no issues
func (d *Document) Conforms() bool {
	return len(d.Issues) == 0
}

// SourcePage is a cached fetch of candidate source material
type SourcePage struct {
	URL        string    `json:"url"`
	HTML       string    `json:"-"`
	Text       string    `json:"text"`
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}
