package template

import "errors"

// SkipChildren returned from a WalkFunc stops descent into the current field.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every field. Array element schemas appear under
// the ItemsToken path segment.
type WalkFunc func(path Path, f Field) error

// Walk visits every field of s depth-first in declaration order.
func Walk(s *Schema, fn WalkFunc) error {
	if s == nil {
		return nil
	}
	return s.Each(func(name string, f Field) error {
		return walkField(Root.Field(name), f, fn)
	})
}

// WalkField visits f and its descendants.
func WalkField(path Path, f Field, fn WalkFunc) error {
	return walkField(path, f, fn)
}

func walkField(path Path, f Field, fn WalkFunc) error {
	if err := fn(path, f); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	switch v := f.(type) {
	case *ArrayField:
		if v.Items != nil {
			return walkField(path.Field(ItemsToken), v.Items, fn)
		}
	case *ObjectField:
		return v.Properties.Each(func(name string, child Field) error {
			return walkField(path.Field(name), child, fn)
		})
	}
	return nil
}

// Equal reports whether a and b describe the same shape and metadata.
// Property order is ignored.
func Equal(a, b Field) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() || *a.Base() != *b.Base() {
		return false
	}
	switch av := a.(type) {
	case *ArrayField:
		bv := b.(*ArrayField)
		return av.Arrangeable == bv.Arrangeable && Equal(av.Items, bv.Items)
	case *ObjectField:
		bv := b.(*ObjectField)
		if (av.AdditionalProperties == nil) != (bv.AdditionalProperties == nil) {
			return false
		}
		if av.AdditionalProperties != nil && *av.AdditionalProperties != *bv.AdditionalProperties {
			return false
		}
		return equalFields(av.Properties, bv.Properties)
	}
	return true
}

// EqualSchema reports whether a and b declare the same fields.
func EqualSchema(a, b *Schema) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equalFields(&a.Fields, &b.Fields)
}

func equalFields(a, b *Fields) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		af, _ := a.Get(k)
		bf, ok := b.Get(k)
		if !ok || !Equal(af, bf) {
			return false
		}
	}
	return true
}
