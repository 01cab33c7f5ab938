package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/rendering"
	"github.com/jonathan/resume-template/internal/template"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <document>",
	Short: "Render a document as LaTeX, HTML, PDF or plain text",
	Long:  "Lays out a conforming resume document in the field order of its template. PDF output prints the HTML rendering in headless Chrome.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var (
	renderTemplate      string
	renderFormat        string
	renderLatexTemplate string
	renderOut           string
	renderEngine        string
	renderForce         bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Path to the template (default from config)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "latex, html, pdf or text (default from config)")
	renderCmd.Flags().StringVar(&renderLatexTemplate, "latex-template", "", "Custom LaTeX text/template file")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output file (default stdout)")
	renderCmd.Flags().StringVar(&renderEngine, "pdf-engine", "chrome", "PDF engine: chrome prints the HTML, latex runs pdflatex")
	renderCmd.Flags().BoolVar(&renderForce, "force", false, "Render even when the document does not conform")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := current()
	s, err := loadTemplate(renderTemplate)
	if err != nil {
		return err
	}
	raw, err := readDocument(args[0])
	if err != nil {
		return err
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: document must be a JSON object, got %s", args[0], conformance.Kind(raw))
	}

	issues := conformance.Check(s, doc, conformance.Options{AllowUnknownKeys: cfg.AllowUnknownKeys})
	if len(issues) > 0 {
		if !renderForce {
			return fmt.Errorf("%s does not conform: %w", args[0], issues)
		}
		logger.Warn().Int("issues", len(issues)).Msg("rendering non-conforming document")
	}

	format := renderFormat
	if format == "" {
		format = cfg.RenderFormat
	}
	latexTemplate := renderLatexTemplate
	if latexTemplate == "" {
		latexTemplate = cfg.LatexTemplate
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := render(ctx, s, doc, format, latexTemplate)
	if err != nil {
		return err
	}
	logger.Debug().Str("format", format).Int("bytes", len(out)).Msg("document rendered")
	return writeOutput(cmd, renderOut, out)
}

func render(ctx context.Context, s *template.Schema, doc map[string]any, format, latexTemplate string) ([]byte, error) {
	switch format {
	case "latex", "":
		tex, err := rendering.RenderLaTeX(s, doc, &rendering.LaTeXOptions{TemplatePath: latexTemplate})
		return []byte(tex), err
	case "html":
		html, err := rendering.RenderHTML(s, doc)
		return []byte(html), err
	case "pdf":
		if renderEngine == "latex" {
			tex, err := rendering.RenderLaTeX(s, doc, &rendering.LaTeXOptions{TemplatePath: latexTemplate})
			if err != nil {
				return nil, err
			}
			return rendering.CompileLaTeX(ctx, tex)
		}
		html, err := rendering.RenderHTML(s, doc)
		if err != nil {
			return nil, err
		}
		return rendering.RenderPDF(ctx, html)
	case "text":
		html, err := rendering.RenderHTML(s, doc)
		if err != nil {
			return nil, err
		}
		text, err := rendering.PlainText(html)
		return []byte(text + "\n"), err
	}
	return nil, fmt.Errorf("unknown format %q: want latex, html, pdf or text", format)
}
