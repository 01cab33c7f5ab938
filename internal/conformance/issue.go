// Package conformance checks resume documents against a template schema and
// reports every mismatch with its location.
package conformance

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeInvalidType       = "invalid_type"
	CodeRequired          = "required"
	CodeUnknownKey        = "unknown_key"
	CodeInvalidAdditional = "invalid_additional"
)

// Issue is a single conformance failure.
type Issue struct {
	Path     string `json:"path"` // JSON Pointer into the document
	Code     string `json:"code"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message"`
}

// Issues is the result of a check. A nil or empty Issues means the document conforms.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	var b strings.Builder
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(&b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Err returns iss as an error, or nil when there are no issues.
func (iss Issues) Err() error {
	if len(iss) == 0 {
		return nil
	}
	return iss
}

// AsIssues extracts Issues from an error chain.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Kind names the JSON kind of a decoded value for error messages.
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "number"
	}
}
