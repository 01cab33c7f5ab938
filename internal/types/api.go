package types

import (
	"github.com/google/uuid"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/template"
)

// TemplateRequest creates or replaces a template.
type TemplateRequest struct {
	Name   string           `json:"name" validate:"required,max=200"`
	Schema *template.Schema `json:"schema" validate:"required"`
}

// DocumentRequest stores a document against a template. Content must
// conform to the template; non-conforming content is rejected with 422.
type DocumentRequest struct {
	Content   any    `json:"content" validate:"required"`
	SourceURL string `json:"source_url,omitempty" validate:"omitempty,url"`
}

// FillRequest asks the model to fill a template from source material.
// Exactly one of SourceURL or SourceText is normally given; SourceText wins
// when both are.
type FillRequest struct {
	SourceURL  string `json:"source_url,omitempty" validate:"omitempty,url"`
	SourceText string `json:"source_text,omitempty" validate:"required_without=SourceURL"`
	Save       bool   `json:"save,omitempty"`
}

// CheckResponse is the result of a conformance check.
type CheckResponse struct {
	Conforms bool               `json:"conforms"`
	Issues   conformance.Issues `json:"issues"`
}

// FillResponse is a generated document. DocumentID is set when the
// document was saved.
type FillResponse struct {
	Document   map[string]any     `json:"document"`
	Conforms   bool               `json:"conforms"`
	Issues     conformance.Issues `json:"issues"`
	DocumentID *uuid.UUID         `json:"document_id,omitempty"`
}

// LintResponse reports structural problems in a template body.
type LintResponse struct {
	Valid   bool                 `json:"valid"`
	Issues  []template.LintIssue `json:"issues"`
	Outline string               `json:"outline,omitempty"`
}

func (r *TemplateRequest) Validate() error { return Validate(r) }

func (r *DocumentRequest) Validate() error { return Validate(r) }

func (r *FillRequest) Validate() error { return Validate(r) }
