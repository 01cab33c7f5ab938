package llm

import (
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/jonathan/resume-template/internal/template"
)

// Gemini response schemas cannot express open maps, so an object's
// additionalProperties are requested as a list of key/value pairs under
// PairsKey and folded back by FoldPairs. When an object declares a property
// named PairsKey, the pairs go under the first free "_"-prefixed variant.
const (
	PairsKey     = "_entries"
	PairKeyName  = "key"
	PairValueKey = "value"
)

// ResponseSchema converts a template field to a Gemini structured output
// schema. Field hints are appended to the description.
func ResponseSchema(f template.Field) *genai.Schema {
	if f == nil {
		return &genai.Schema{Type: genai.TypeString}
	}
	out := &genai.Schema{Description: describe(f.Base())}
	switch ft := f.(type) {
	case *template.StringField:
		out.Type = genai.TypeString
	case *template.ArrayField:
		out.Type = genai.TypeArray
		out.Items = ResponseSchema(ft.Items)
	case *template.ObjectField:
		out.Type = genai.TypeObject
		out.Properties = map[string]*genai.Schema{}
		_ = ft.Properties.Each(func(name string, child template.Field) error {
			// Gemini rejects objects without properties; FoldPairs fills these in.
			if !generatable(child) {
				return nil
			}
			out.Properties[name] = ResponseSchema(child)
			if template.IsRequired(child) {
				out.Required = append(out.Required, name)
			}
			return nil
		})
		if ft.AdditionalProperties != nil {
			out.Properties[pairsKey(ft.Properties)] = pairsSchema()
		}
	}
	return out
}

// pairsKey returns the key the pair list of an open object is requested
// under, avoiding declared property names.
func pairsKey(props *template.Fields) string {
	key := PairsKey
	for props.Has(key) {
		key = "_" + key
	}
	return key
}

// generatable reports whether f can be expressed as a Gemini schema. A closed
// object without properties cannot, nor can an array of them.
func generatable(f template.Field) bool {
	switch ft := f.(type) {
	case *template.ObjectField:
		return ft.Properties.Len() > 0 || ft.AdditionalProperties != nil
	case *template.ArrayField:
		return generatable(ft.Items)
	}
	return f != nil
}

// emptyValue is the only conforming value of a field that is not generatable.
func emptyValue(f template.Field) any {
	if _, ok := f.(*template.ArrayField); ok {
		return []any{}
	}
	return map[string]any{}
}

// SectionSchema wraps one top-level field in the single-key object the
// filler asks the model for.
func SectionSchema(name string, f template.Field) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{name: ResponseSchema(f)},
	}
	if template.IsRequired(f) {
		s.Required = []string{name}
	}
	return s
}

func pairsSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: "Free-form entries of this group",
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				PairKeyName:  {Type: genai.TypeString},
				PairValueKey: {Type: genai.TypeString},
			},
			Required: []string{PairKeyName, PairValueKey},
		},
	}
}

func describe(b *template.BaseField) string {
	parts := make([]string, 0, 2)
	if b.Description != "" {
		parts = append(parts, b.Description)
	}
	if b.LLMInfo != "" {
		parts = append(parts, "Guidance: "+b.LLMInfo)
	}
	return strings.Join(parts, "\n")
}

// FoldPairs rewrites the key/value pair lists requested for open maps back
// into plain object keys, following f. Values that do not have the expected
// shape are left alone for the conformance check to report.
func FoldPairs(f template.Field, v any) any {
	switch ft := f.(type) {
	case *template.ArrayField:
		items, ok := v.([]any)
		if !ok {
			return v
		}
		for i := range items {
			items[i] = FoldPairs(ft.Items, items[i])
		}
		return items
	case *template.ObjectField:
		obj, ok := v.(map[string]any)
		if !ok {
			return v
		}
		_ = ft.Properties.Each(func(name string, child template.Field) error {
			if val, present := obj[name]; present {
				obj[name] = FoldPairs(child, val)
			} else if !generatable(child) && template.IsRequired(child) {
				obj[name] = emptyValue(child)
			}
			return nil
		})
		if ft.AdditionalProperties == nil {
			return obj
		}
		key := pairsKey(ft.Properties)
		pairs, ok := obj[key].([]any)
		if !ok {
			return obj
		}
		delete(obj, key)
		for _, p := range pairs {
			pair, ok := p.(map[string]any)
			if !ok {
				continue
			}
			key, ok := pair[PairKeyName].(string)
			if !ok || key == "" || ft.Properties.Has(key) {
				continue
			}
			obj[key] = pair[PairValueKey]
		}
		return obj
	}
	return v
}
