package rendering

import (
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	schema "github.com/jonathan/resume-template/internal/template"
)

// DefaultPDFTimeout bounds a headless browser print.
const DefaultPDFTimeout = 30 * time.Second

// RenderHTML renders doc as a standalone HTML page laid out in the field
// order of s.
func RenderHTML(s *schema.Schema, doc map[string]any) (string, error) {
	tmpl, err := template.New("resume.html.tmpl").ParseFS(builtin, "templates/resume.html.tmpl")
	if err != nil {
		return "", &TemplateError{Message: "failed to parse built-in template", Cause: err}
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, BuildSections(s, doc)); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return out.String(), nil
}

// RenderPDF prints an HTML page to PDF in a headless Chrome. Requires
// Chrome/Chromium to be installed on the system.
func RenderPDF(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, DefaultPDFTimeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, &RenderError{Message: "failed to print PDF", Cause: err}
	}
	return pdf, nil
}

// PlainText extracts the visible text of rendered HTML, one block per line.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", &RenderError{Message: "failed to parse HTML", Cause: err}
	}
	doc.Find("style, script, head").Remove()

	var lines []string
	doc.Find("h1, h2, p, li, dt, dd").Each(func(_ int, sel *goquery.Selection) {
		// Containers hold nested blocks; only leaves carry their own text.
		if sel.Find("p, ul, dl").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	return strings.Join(lines, "\n"), nil
}
