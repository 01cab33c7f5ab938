package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-template/internal/template"
)

func TestResponseSchema(t *testing.T) {
	s := resumeTemplate(t)

	summary, _ := s.Get("summary")
	got := ResponseSchema(summary)
	assert.Equal(t, genai.TypeString, got.Type)
	assert.Contains(t, got.Description, "Guidance: Two sentences")

	exp, _ := s.Get("experience")
	got = ResponseSchema(exp)
	require.Equal(t, genai.TypeArray, got.Type)
	require.NotNil(t, got.Items)
	assert.Equal(t, genai.TypeObject, got.Items.Type)
	assert.Equal(t, []string{"company", "title"}, got.Items.Required)
	assert.Equal(t, genai.TypeArray, got.Items.Properties["highlights"].Type)

	skills, _ := s.Get("skills")
	got = ResponseSchema(skills)
	require.Contains(t, got.Properties, PairsKey)
	pairs := got.Properties[PairsKey]
	assert.Equal(t, genai.TypeArray, pairs.Type)
	assert.Equal(t, []string{PairKeyName, PairValueKey}, pairs.Items.Required)
}

func TestSectionSchema(t *testing.T) {
	required := &template.StringField{BaseField: template.BaseField{Required: true}}
	got := SectionSchema("name", required)
	assert.Equal(t, genai.TypeObject, got.Type)
	assert.Equal(t, []string{"name"}, got.Required)

	got = SectionSchema("summary", &template.StringField{})
	assert.Empty(t, got.Required)
}

func TestFoldPairs(t *testing.T) {
	field := &template.ArrayField{Items: &template.ObjectField{
		Properties: template.NewFields().Set("label", &template.StringField{}),
		AdditionalProperties: template.StringValues(),
	}}
	in := []any{
		map[string]any{
			"label": "first",
			PairsKey: []any{
				map[string]any{"key": "go", "value": "expert"},
				map[string]any{"key": "label", "value": "shadowed"},
				map[string]any{"key": "", "value": "dropped"},
				"not a pair",
			},
		},
		"left alone",
	}

	out := FoldPairs(field, in).([]any)
	assert.Equal(t, map[string]any{"label": "first", "go": "expert"}, out[0])
	assert.Equal(t, "left alone", out[1])
}

func TestFoldPairs_ClosedObjectKeepsEntriesKey(t *testing.T) {
	field := &template.ObjectField{Properties: template.NewFields().Set("a", &template.StringField{})}
	in := map[string]any{"a": "x", PairsKey: []any{}}
	assert.Equal(t, in, FoldPairs(field, in))
}

func TestResponseSchema_DeclaredEntriesProperty(t *testing.T) {
	field := &template.ObjectField{
		Properties:           template.NewFields().Set(PairsKey, &template.StringField{}),
		AdditionalProperties: template.StringValues(),
	}

	got := ResponseSchema(field)
	assert.Equal(t, genai.TypeString, got.Properties[PairsKey].Type)
	require.Contains(t, got.Properties, "_"+PairsKey)
	assert.Equal(t, genai.TypeArray, got.Properties["_"+PairsKey].Type)

	in := map[string]any{
		PairsKey:       "declared value",
		"_" + PairsKey: []any{map[string]any{"key": "go", "value": "expert"}},
	}
	assert.Equal(t, map[string]any{PairsKey: "declared value", "go": "expert"}, FoldPairs(field, in))
}

func TestResponseSchema_SkipsEmptyClosedObjects(t *testing.T) {
	field := &template.ObjectField{Properties: template.NewFields().
		Set("title", &template.StringField{}).
		Set("meta", &template.ObjectField{BaseField: template.BaseField{Required: true}}).
		Set("tags", &template.ArrayField{Items: &template.ObjectField{}}).
		Set("extra", &template.ObjectField{}),
	}

	got := ResponseSchema(field)
	assert.Len(t, got.Properties, 1)
	assert.Contains(t, got.Properties, "title")
	assert.Empty(t, got.Required)

	// Required empty objects come back as {} so the result conforms.
	folded := FoldPairs(field, map[string]any{"title": "x"})
	assert.Equal(t, map[string]any{"title": "x", "meta": map[string]any{}}, folded)
}
