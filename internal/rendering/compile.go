package rendering

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CompilationTimeout bounds a single pdflatex run.
const CompilationTimeout = 30 * time.Second

// CompileLaTeX typesets LaTeX source with pdflatex and returns the PDF.
// Requires a TeX distribution on PATH.
func CompileLaTeX(ctx context.Context, tex string) ([]byte, error) {
	bin, err := exec.LookPath("pdflatex")
	if err != nil {
		return nil, &CompileError{
			Message: "pdflatex not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)",
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "latex-compile-*")
	if err != nil {
		return nil, &CompileError{Message: "failed to create working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	texPath := filepath.Join(workDir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(tex), 0644); err != nil {
		return nil, &CompileError{Message: "failed to write LaTeX source", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, CompilationTimeout)
	defer cancel()

	// nonstopmode keeps pdflatex from waiting on stdin after an error.
	cmd := exec.CommandContext(ctx, bin, "-interaction=nonstopmode", "-halt-on-error", "-output-directory", workDir, texPath)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return nil, &CompileError{Message: "pdflatex failed", Log: output.String(), Cause: err}
	}

	pdf, err := os.ReadFile(filepath.Join(workDir, "resume.pdf"))
	if err != nil {
		return nil, &CompileError{Message: "PDF was not generated", Log: output.String(), Cause: err}
	}
	return pdf, nil
}
