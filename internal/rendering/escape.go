package rendering

import (
	"strings"
	"unicode"
)

// latexEscaper rewrites characters that are either active in LaTeX or
// print as the wrong glyph in the default OT1 font encoding.
var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`%`, `\%`,
	`#`, `\#`,
	`_`, `\_`,
	`^`, `\textasciicircum{}`,
	`~`, `\textasciitilde{}`,
	`<`, `\textless{}`,
	`>`, `\textgreater{}`,
	`|`, `\textbar{}`,
	"\r\n", "\n",
	"\r", "\n",
	"\t", " ",
)

// EscapeLaTeX makes a document string safe to place in LaTeX body text.
// Other control characters are dropped since pdflatex rejects them.
func EscapeLaTeX(text string) string {
	return latexEscaper.Replace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, text))
}
