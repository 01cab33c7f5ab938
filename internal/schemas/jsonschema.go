package schemas

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/resume-template/internal/template"
)

// DraftURI is the JSON Schema dialect produced by ToJSONSchema.
const DraftURI = "http://json-schema.org/draft-07/schema#"

// LLMInfoKeyword carries a field's llm_info hint in exported JSON Schema.
const LLMInfoKeyword = "x-llm-info"

//go:embed resume_template.schema.json
var templateMetaSchema []byte

// TemplateMetaSchema returns the JSON Schema describing the template format itself.
func TemplateMetaSchema() []byte {
	out := make([]byte, len(templateMetaSchema))
	copy(out, templateMetaSchema)
	return out
}

// ToJSONSchema converts a resume template into an equivalent draft-07 JSON
// Schema. Objects without additionalProperties are closed. Optional
// properties also accept null.
func ToJSONSchema(s *template.Schema) map[string]any {
	root := objectSchema(&s.Fields, nil)
	root["$schema"] = DraftURI
	root["title"] = "ResumeDocument"
	return root
}

func fieldSchema(f template.Field) map[string]any {
	var out map[string]any
	switch v := f.(type) {
	case *template.ArrayField:
		out = map[string]any{"type": "array", "items": fieldSchema(v.Items)}
	case *template.ObjectField:
		out = objectSchema(v.Properties, v.AdditionalProperties)
	default:
		out = map[string]any{"type": "string"}
	}
	b := f.Base()
	if b.Description != "" {
		out["description"] = b.Description
	}
	if b.LLMInfo != "" {
		out[LLMInfoKeyword] = b.LLMInfo
	}
	return out
}

func objectSchema(props *template.Fields, extra *template.AdditionalProperties) map[string]any {
	out := map[string]any{"type": "object"}
	properties := make(map[string]any, props.Len())
	required := make([]string, 0)
	_ = props.Each(func(name string, f template.Field) error {
		fs := fieldSchema(f)
		if template.IsRequired(f) {
			required = append(required, name)
		} else {
			// An optional property may be null, which counts as absent.
			fs["type"] = []string{fs["type"].(string), "null"}
		}
		properties[name] = fs
		return nil
	})
	if len(properties) > 0 {
		out["properties"] = properties
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if extra != nil {
		out["additionalProperties"] = map[string]any{"type": "string"}
	} else {
		out["additionalProperties"] = false
	}
	return out
}

// ValidateDocument validates a JSON document against the JSON Schema export of s.
// It returns a *ValidationError on mismatch.
func ValidateDocument(s *template.Schema, doc []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(ToJSONSchema(s))
	documentLoader := gojsonschema.NewBytesLoader(doc)
	return validate(schemaLoader, documentLoader, "(template)")
}

// ValidateTemplate checks raw template JSON against the template meta-schema.
func ValidateTemplate(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(templateMetaSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)
	return validate(schemaLoader, documentLoader, "(template meta-schema)")
}

// ValidateTemplateFile checks a JSON template file against the template meta-schema.
func ValidateTemplateFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve template path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("template file not found: %s", absPath)
	}
	schemaLoader := gojsonschema.NewBytesLoader(templateMetaSchema)
	documentLoader := gojsonschema.NewReferenceLoader("file://" + absPath)
	return validate(schemaLoader, documentLoader, "(template meta-schema)")
}

// MarshalJSONSchema renders the JSON Schema export of s with indentation.
func MarshalJSONSchema(s *template.Schema) ([]byte, error) {
	return json.MarshalIndent(ToJSONSchema(s), "", "  ")
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader, schemaName string) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaName,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}
	return toValidationError(result)
}
