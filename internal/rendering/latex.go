package rendering

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	schema "github.com/jonathan/resume-template/internal/template"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// LaTeXOptions configures RenderLaTeX.
type LaTeXOptions struct {
	// TemplatePath is an optional text/template file executed with
	// TemplateData. Empty uses the built-in layout.
	TemplatePath string
}

// RenderLaTeX renders doc as a LaTeX source file laid out in the field order
// of s. Every string from the document is escaped.
func RenderLaTeX(s *schema.Schema, doc map[string]any, opts *LaTeXOptions) (string, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if opts != nil && opts.TemplatePath != "" {
		tmpl, err = parseTemplate(opts.TemplatePath)
	} else {
		tmpl, err = builtinLaTeX()
	}
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, BuildSections(s, doc)); err != nil {
		return "", &TemplateError{
			Message: "failed to execute template",
			Cause:   err,
		}
	}
	return result.String(), nil
}

func latexFuncs() template.FuncMap {
	return template.FuncMap{
		"escape": EscapeLaTeX,
		"label":  Label,
	}
}

func builtinLaTeX() (*template.Template, error) {
	tmpl, err := template.New("resume.tex.tmpl").Funcs(latexFuncs()).ParseFS(builtin, "templates/resume.tex.tmpl")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse built-in template", Cause: err}
	}
	return tmpl, nil
}

// parseTemplate reads and parses a LaTeX template file
func parseTemplate(templatePath string) (*template.Template, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", templatePath),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Message: fmt.Sprintf("failed to read template file: %s", templatePath),
			Cause:   err,
		}
	}

	tmpl, err := template.New("resume").Funcs(latexFuncs()).Parse(string(content))
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}

	return tmpl, nil
}
