package template

import (
	"fmt"
	"strings"
)

// Outline renders the field tree of s as indented text, one field per line,
// with descriptions and generation hints underneath.
func Outline(s *Schema) string {
	var sb strings.Builder
	_ = Walk(s, func(path Path, f Field) error {
		depth := len(path) - 1
		indent := strings.Repeat("  ", depth)
		sb.WriteString(indent)
		sb.WriteString(path[len(path)-1])
		sb.WriteString(" (")
		sb.WriteString(string(f.Type()))
		for _, flag := range flags(f) {
			sb.WriteString(", ")
			sb.WriteString(flag)
		}
		sb.WriteString(")\n")

		b := f.Base()
		if b.Description != "" {
			fmt.Fprintf(&sb, "%s  description: %s\n", indent, b.Description)
		}
		if b.LLMInfo != "" {
			fmt.Fprintf(&sb, "%s  hint: %s\n", indent, b.LLMInfo)
		}
		return nil
	})
	return sb.String()
}

func flags(f Field) []string {
	var out []string
	if f.Base().Required {
		out = append(out, "required")
	}
	switch v := f.(type) {
	case *ArrayField:
		if v.Arrangeable {
			out = append(out, "arrangeable")
		}
	case *ObjectField:
		if v.AdditionalProperties != nil {
			out = append(out, "open map of "+string(v.AdditionalProperties.Type))
		}
	}
	return out
}
