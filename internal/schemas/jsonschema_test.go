package schemas

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/template"
)

func loadTemplate(t *testing.T) *template.Schema {
	t.Helper()
	s, err := template.Load(filepath.Join("testdata", "resume_template.json"))
	require.NoError(t, err)
	return s
}

func TestToJSONSchema_Shape(t *testing.T) {
	js := ToJSONSchema(loadTemplate(t))

	assert.Equal(t, DraftURI, js["$schema"])
	assert.Equal(t, "object", js["type"])
	assert.Equal(t, false, js["additionalProperties"])
	assert.Equal(t, []string{"name"}, js["required"])

	props := js["properties"].(map[string]any)
	name := props["name"].(map[string]any)
	assert.Equal(t, "string", name["type"])
	assert.Equal(t, "Full name of the candidate", name["description"])

	summary := props["summary"].(map[string]any)
	assert.Equal(t, "Two sentences, first person omitted, emphasise impact", summary[LLMInfoKeyword])

	exp := props["experience"].(map[string]any)
	assert.Equal(t, []string{"array", "null"}, exp["type"])
	item := exp["items"].(map[string]any)
	assert.Equal(t, []string{"company", "title"}, item["required"])

	skills := props["skills"].(map[string]any)
	assert.Equal(t, []string{"object", "null"}, skills["type"])
	assert.Equal(t, map[string]any{"type": "string"}, skills["additionalProperties"])
	_, hasProps := skills["properties"]
	assert.False(t, hasProps)
}

func TestMarshalJSONSchema_IsValidJSONSchema(t *testing.T) {
	data, err := MarshalJSONSchema(loadTemplate(t))
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal(data, &v))

	// A schema that loads cleanly validates an empty-but-conforming document.
	require.NoError(t, ValidateJSONString(string(data), `{"name": "Ada"}`))
}

// The gojsonschema export and the conformance checker must agree.
func TestValidateDocument_AgreesWithConformance(t *testing.T) {
	s := loadTemplate(t)

	docs := []string{
		`{"name": "Ada"}`,
		`{"name": "Ada", "skills": {"languages": "Rust"}}`,
		`{"name": "Ada", "skills": {"languages": 5}}`,
		`{"skills": {"languages": "Rust"}}`,
		`{"name": "Ada", "experience": [{"company": "A", "title": "B", "highlights": ["x"]}]}`,
		`{"name": "Ada", "experience": [{"company": "A"}]}`,
		`{"name": "Ada", "hobbies": "chess"}`,
		`{"name": "Ada", "contact": {"email": "a@b.c", "phone": 5}}`,
		`{"name": "Ada", "experience": []}`,
		`{"name": "Ada", "skills": null}`,
		`{"name": "Ada", "summary": null, "contact": {"email": "a@b.c", "phone": null}}`,
		`{"name": null}`,
		`{"name": "Ada", "contact": {"email": null}}`,
		`{"name": "Ada", "experience": [null]}`,
		`{"name": "Ada", "skills": {"languages": null}}`,
	}

	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			decoded, err := conformance.Decode([]byte(doc))
			require.NoError(t, err)
			issues := conformance.Check(s, decoded, conformance.Options{})

			err = ValidateDocument(s, []byte(doc))
			if len(issues) == 0 {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				_, ok := err.(*ValidationError)
				assert.True(t, ok, "expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "resume_template.json"))
	require.NoError(t, err)
	assert.NoError(t, ValidateTemplate(raw))

	tests := []struct {
		name string
		body string
	}{
		{"empty template", `{}`},
		{"unknown type", `{"a": {"type": "Number"}}`},
		{"additional not string", `{"a": {"type": "Object", "additionalProperties": {"type": "Object"}}}`},
		{"items on string", `{"a": {"type": "String", "items": {"type": "String"}}}`},
		{"nested bad field", `{"a": {"type": "Array", "items": {"type": "Object", "properties": {"b": {"description": "no type"}}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate([]byte(tt.body))
			require.Error(t, err)
			_, ok := err.(*ValidationError)
			assert.True(t, ok, "expected ValidationError, got %T: %v", err, err)
		})
	}
}

func TestValidateTemplateFile_NotFound(t *testing.T) {
	err := ValidateTemplateFile(filepath.Join("testdata", "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTemplateMetaSchema_ReturnsCopy(t *testing.T) {
	a := TemplateMetaSchema()
	a[0] = 'x'
	assert.Equal(t, byte('{'), TemplateMetaSchema()[0])
}
