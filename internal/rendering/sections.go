package rendering

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/resume-template/internal/template"
)

// Node is one rendered value of a document. Objects and arrays hold their
// entries in Children; strings hold Text unescaped.
type Node struct {
	Name     string // field or additional key; empty for array items
	Label    string
	Kind     template.FieldType
	Text     string
	Children []Node
}

// IsString reports whether n is a text leaf.
func (n Node) IsString() bool { return n.Kind == template.TypeString }

// IsObject reports whether n is a record.
func (n Node) IsObject() bool { return n.Kind == template.TypeObject }

// IsArray reports whether n is a list.
func (n Node) IsArray() bool { return n.Kind == template.TypeArray }

// TemplateData is passed to LaTeX and HTML templates.
type TemplateData struct {
	Title    string // the first top-level string, usually the candidate's name
	Sections []Node // every other top-level value
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// Label turns a field name such as "work_experience" into "Work Experience".
func Label(name string) string {
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}

// BuildSections lays doc out in the field order of s. Absent and null
// values are skipped, as are values whose shape does not match their field.
// Additional keys of open objects follow the declared properties in sorted
// order.
func BuildSections(s *template.Schema, doc map[string]any) *TemplateData {
	data := &TemplateData{}
	if s == nil {
		return data
	}
	_ = s.Each(func(name string, f template.Field) error {
		n, ok := buildNode(name, f, doc[name])
		if !ok {
			return nil
		}
		if data.Title == "" && n.IsString() {
			data.Title = n.Text
			return nil
		}
		data.Sections = append(data.Sections, n)
		return nil
	})
	return data
}

func buildNode(name string, f template.Field, v any) (Node, bool) {
	if v == nil || f == nil {
		return Node{}, false
	}
	n := Node{Name: name, Label: Label(name), Kind: f.Type()}

	switch ft := f.(type) {
	case *template.StringField:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return Node{}, false
		}
		n.Text = s
	case *template.ArrayField:
		items, ok := v.([]any)
		if !ok {
			return Node{}, false
		}
		for _, it := range items {
			if child, ok := buildNode("", ft.Items, it); ok {
				n.Children = append(n.Children, child)
			}
		}
		if len(n.Children) == 0 {
			return Node{}, false
		}
	case *template.ObjectField:
		obj, ok := v.(map[string]any)
		if !ok {
			return Node{}, false
		}
		_ = ft.Properties.Each(func(key string, child template.Field) error {
			if c, ok := buildNode(key, child, obj[key]); ok {
				n.Children = append(n.Children, c)
			}
			return nil
		})
		if ft.AdditionalProperties != nil {
			extra := make([]string, 0)
			for k := range obj {
				if !ft.Properties.Has(k) {
					extra = append(extra, k)
				}
			}
			sort.Strings(extra)
			for _, k := range extra {
				if c, ok := buildNode(k, &template.StringField{}, obj[k]); ok {
					n.Children = append(n.Children, c)
				}
			}
		}
		if len(n.Children) == 0 {
			return Node{}, false
		}
	default:
		return Node{}, false
	}
	return n, true
}
