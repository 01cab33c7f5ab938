package template

import (
	"fmt"
	"strings"
)

// MaxDepth bounds field nesting. Deeper templates are rejected by Lint.
const MaxDepth = 32

// Lint checks that s is a well-formed template and returns a *LintError
// listing every problem, or nil.
func Lint(s *Schema) error {
	l := &linter{onPath: make(map[Field]bool)}
	if s == nil || s.Len() == 0 {
		l.add(Root, "template declares no fields")
	} else {
		_ = s.Each(func(name string, f Field) error {
			l.field(Root.Field(name), name, f, 1)
			return nil
		})
	}
	if len(l.issues) == 0 {
		return nil
	}
	return &LintError{Issues: l.issues}
}

type linter struct {
	issues []LintIssue
	onPath map[Field]bool
}

func (l *linter) add(path Path, format string, args ...any) {
	l.issues = append(l.issues, LintIssue{Path: path.String(), Message: fmt.Sprintf(format, args...)})
}

func (l *linter) field(path Path, name string, f Field, depth int) {
	if strings.TrimSpace(name) == "" {
		l.add(path, "field name is empty")
	}
	if isNilField(f) {
		l.add(path, "field has no definition")
		return
	}
	if depth > MaxDepth {
		l.add(path, "nesting exceeds %d levels", MaxDepth)
		return
	}
	if l.onPath[f] {
		l.add(path, "field definition refers back to one of its ancestors")
		return
	}
	l.onPath[f] = true
	defer delete(l.onPath, f)

	switch v := f.(type) {
	case *ArrayField:
		if isNilField(v.Items) {
			l.add(path, "array field requires items")
			return
		}
		l.field(path.Field(ItemsToken), ItemsToken, v.Items, depth+1)
	case *ObjectField:
		if v.AdditionalProperties != nil && v.AdditionalProperties.Type != TypeString {
			l.add(path, "additionalProperties must be of type String, got %q", v.AdditionalProperties.Type)
		}
		_ = v.Properties.Each(func(child string, cf Field) error {
			l.field(path.Field(child), child, cf, depth+1)
			return nil
		})
	}
}

func isNilField(f Field) bool {
	switch v := f.(type) {
	case nil:
		return true
	case *StringField:
		return v == nil
	case *ArrayField:
		return v == nil
	case *ObjectField:
		return v == nil
	}
	return false
}
