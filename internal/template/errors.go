package template

import (
	"fmt"
	"strings"
)

// DecodeError reports a malformed template definition at a location in the
// source document.
type DecodeError struct {
	Path    string // JSON Pointer into the template source
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template decode error at %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("template decode error at %s: %s", e.Path, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// LintIssue is one structural problem found by Lint.
type LintIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// LintError lists every structural problem in a schema.
type LintError struct {
	Issues []LintIssue
}

func (e *LintError) Error() string {
	var sb strings.Builder
	sb.WriteString("template lint failed:\n")
	for i, iss := range e.Issues {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, iss.Path, iss.Message))
	}
	return sb.String()
}

// LoadError reports a failure reading a template file.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load template %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load template %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
