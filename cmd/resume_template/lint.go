package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-template/internal/observability"
	"github.com/jonathan/resume-template/internal/schemas"
	"github.com/jonathan/resume-template/internal/template"
	"github.com/spf13/cobra"
)

var lintCmd = &cobra.Command{
	Use:   "lint [template]",
	Short: "Check a template for structural problems",
	Long:  "Decodes a JSON or YAML template and reports every structural problem: missing item types, empty names, misplaced properties. JSON templates are also checked against the template meta-schema with --meta.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLint,
}

var lintMeta bool

func init() {
	lintCmd.Flags().BoolVar(&lintMeta, "meta", false, "Also validate JSON templates against the template meta-schema")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	path := current().Template
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no template given")
	}

	if lintMeta && template.FormatFromPath(path) == template.FormatJSON {
		if err := schemas.ValidateTemplateFile(path); err != nil {
			return fmt.Errorf("meta-schema check failed: %w", err)
		}
		logger.Debug().Str("template", path).Msg("meta-schema check passed")
	}

	s, err := template.Load(path)
	if err == nil {
		err = template.Lint(s)
	}

	out := cmd.OutOrStdout()
	if current().Verbose {
		observability.NewPrinter(out).PrintLint(err)
	} else {
		var lintErr *template.LintError
		switch {
		case err == nil:
			fmt.Fprintf(out, "%s: ok (%d fields)\n", path, s.Len())
		case errors.As(err, &lintErr):
			for _, iss := range lintErr.Issues {
				fmt.Fprintf(out, "%s: %s\n", iss.Path, iss.Message)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("%s is not a valid template: %w", path, err)
	}
	return nil
}
