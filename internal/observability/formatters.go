// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/llm"
	"github.com/jonathan/resume-template/internal/template"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// printBanner prints a single-line box.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBanner(msg string) {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, msg)
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}

// PrintTemplate outputs the field tree of a template.
func (p *Printer) PrintTemplate(s *template.Schema) {
	if s == nil {
		return
	}

	required := 0
	total := 0
	_ = template.Walk(s, func(_ template.Path, f template.Field) error {
		total++
		if template.IsRequired(f) {
			required++
		}
		return nil
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sections: %d   Fields: %d   Required: %d\n\n", s.Len(), total, required))
	sb.WriteString(strings.TrimRight(template.Outline(s), "\n"))

	p.printBox("TEMPLATE", sb.String())
}

// PrintLint outputs the result of template.Lint.
func (p *Printer) PrintLint(err error) {
	if err == nil {
		p.printBanner("✅ TEMPLATE IS VALID")
		return
	}

	var lintErr *template.LintError
	if !errors.As(err, &lintErr) {
		p.printBox("TEMPLATE ERROR", err.Error())
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d problems:\n", len(lintErr.Issues)))
	for _, iss := range lintErr.Issues {
		sb.WriteString(fmt.Sprintf("\n⚠ %s\n  %s", iss.Path, iss.Message))
	}
	p.printBox("TEMPLATE PROBLEMS", sb.String())
}

// PrintIssues outputs the conformance issues of a document.
func (p *Printer) PrintIssues(issues conformance.Issues) {
	if len(issues) == 0 {
		p.printBanner("✅ DOCUMENT CONFORMS")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d issues:\n", len(issues)))
	count := min(len(issues), maxItemsToShow)
	for _, iss := range issues[:count] {
		sb.WriteString(fmt.Sprintf("\n⚠ %s  %s\n  %s", iss.Code, iss.Path, iss.Message))
	}
	if len(issues) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more", len(issues)-maxItemsToShow))
	}
	p.printBox("CONFORMANCE ISSUES", sb.String())
}

// PrintFillResult outputs which sections of s the model filled.
func (p *Printer) PrintFillResult(s *template.Schema, res *llm.FillResult) {
	if s == nil || res == nil {
		return
	}

	var sb strings.Builder
	for _, name := range s.Keys() {
		mark := "✓"
		if _, ok := res.Document[name]; !ok {
			mark = "·"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, name))
	}
	sb.WriteString(fmt.Sprintf("\nFilled %d of %d sections, %d issues", len(res.Document), s.Len(), len(res.Issues)))

	p.printBox("FILLED DOCUMENT", sb.String())
}
