package conformance

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/jonathan/resume-template/internal/template"
)

// Options tune a check.
type Options struct {
	// AllowUnknownKeys accepts keys an object does not declare when it has
	// no additionalProperties. By default they are reported as unknown_key.
	AllowUnknownKeys bool
	// FailFast stops at the first issue.
	FailFast bool
}

// Check reports every way doc fails to match s. doc is a decoded JSON value
// as produced by Decode. The root must be an object whose keys are the
// top-level fields of s.
func Check(s *template.Schema, doc any, opts Options) Issues {
	c := &checker{opts: opts}
	if s == nil {
		s = template.NewSchema()
	}
	c.record(template.Root, &s.Fields, nil, doc)
	return c.issues
}

// CheckField reports every way value fails to match f at path.
func CheckField(f template.Field, value any, path template.Path, opts Options) Issues {
	c := &checker{opts: opts}
	c.field(path, f, value)
	return c.issues
}

// Conforms is a convenience wrapper returning Check as an error.
func Conforms(s *template.Schema, doc any, opts Options) error {
	return Check(s, doc, opts).Err()
}

// Decode parses a JSON document into map[string]any, []any, string, bool,
// json.Number or nil values.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to decode document: trailing data after JSON value")
	}
	return v, nil
}

type checker struct {
	opts   Options
	issues Issues
}

func (c *checker) done() bool {
	return c.opts.FailFast && len(c.issues) > 0
}

func (c *checker) add(path template.Path, code, expected, actual, msg string) {
	if c.done() {
		return
	}
	c.issues = append(c.issues, Issue{
		Path:     path.Pointer(),
		Code:     code,
		Expected: expected,
		Actual:   actual,
		Message:  msg,
	})
}

func (c *checker) field(path template.Path, f template.Field, v any) {
	if c.done() {
		return
	}
	switch ft := f.(type) {
	case *template.StringField:
		if _, ok := v.(string); !ok {
			c.mismatch(path, "string", v)
		}
	case *template.ArrayField:
		items, ok := v.([]any)
		if !ok {
			c.mismatch(path, "array", v)
			return
		}
		for i, el := range items {
			c.field(path.Index(i), ft.Items, el)
			if c.done() {
				return
			}
		}
	case *template.ObjectField:
		c.record(path, ft.Properties, ft.AdditionalProperties, v)
	default:
		c.add(path, CodeInvalidType, "", Kind(v), fmt.Sprintf("template field has unsupported type %T", f))
	}
}

func (c *checker) mismatch(path template.Path, expected string, v any) {
	c.add(path, CodeInvalidType, expected, Kind(v), fmt.Sprintf("expected %s, got %s", expected, Kind(v)))
}

// record checks an object value against declared properties and an
// optional additionalProperties rule.
func (c *checker) record(path template.Path, props *template.Fields, extra *template.AdditionalProperties, v any) {
	obj, ok := v.(map[string]any)
	if !ok {
		c.mismatch(path, "object", v)
		return
	}

	_ = props.Each(func(name string, f template.Field) error {
		val, present := obj[name]
		if !present || val == nil {
			if template.IsRequired(f) {
				c.add(path.Field(name), CodeRequired, string(f.Type()), Kind(val), fmt.Sprintf("required field %q is missing", name))
			}
			return nil
		}
		c.field(path.Field(name), f, val)
		return nil
	})

	// Undeclared keys are visited in sorted order so results are stable.
	undeclared := make([]string, 0)
	for k := range obj {
		if !props.Has(k) {
			undeclared = append(undeclared, k)
		}
	}
	sort.Strings(undeclared)

	for _, k := range undeclared {
		val := obj[k]
		switch {
		case extra != nil:
			if _, ok := val.(string); !ok {
				c.add(path.Field(k), CodeInvalidAdditional, "string", Kind(val),
					fmt.Sprintf("additional key %q must hold a string, got %s", k, Kind(val)))
			}
		case !c.opts.AllowUnknownKeys:
			c.add(path.Field(k), CodeUnknownKey, "", Kind(val), fmt.Sprintf("key %q is not declared by the template", k))
		}
	}
}
