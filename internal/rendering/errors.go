// Package rendering turns resume documents into LaTeX, HTML and PDF, laid out
// in the field order of their template.
package rendering

import "fmt"

// TemplateError represents an error parsing or executing a LaTeX template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a general rendering failure
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// CompileError reports a failed pdflatex run. Log holds the compiler output.
type CompileError struct {
	Message string
	Log     string
	Cause   error
}

func (e *CompileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("latex compile error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("latex compile error: %s", e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}
