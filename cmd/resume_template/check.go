package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/observability"
	"github.com/jonathan/resume-template/internal/schemas"
	"github.com/jonathan/resume-template/internal/template"
	"github.com/jonathan/resume-template/internal/types"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <document>",
	Short: "Check a JSON document against a template",
	Long:  "Reports every place a resume document departs from its template: missing required fields, wrong types, undeclared keys and bad open-map values.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var (
	checkTemplate         string
	checkAllowUnknownKeys bool
	checkFailFast         bool
	checkJSON             bool
	checkJSONSchema       bool
	checkSchemaFile       string
)

func init() {
	checkCmd.Flags().StringVarP(&checkTemplate, "template", "t", "", "Path to the template (default from config)")
	checkCmd.Flags().BoolVar(&checkAllowUnknownKeys, "allow-unknown-keys", false, "Accept keys the template does not declare")
	checkCmd.Flags().BoolVar(&checkFailFast, "fail-fast", false, "Stop at the first issue")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the result as JSON")
	checkCmd.Flags().BoolVar(&checkJSONSchema, "jsonschema", false, "Also validate against the template's JSON Schema export")
	checkCmd.Flags().StringVar(&checkSchemaFile, "schema-file", "", "Also validate against a JSON Schema file")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	docPath := args[0]
	s, err := loadTemplate(checkTemplate)
	if err != nil {
		return err
	}
	doc, err := readDocument(docPath)
	if err != nil {
		return err
	}

	issues := conformance.Check(s, doc, conformance.Options{
		AllowUnknownKeys: checkAllowUnknownKeys || current().AllowUnknownKeys,
		FailFast:         checkFailFast,
	})
	logger.Debug().Str("document", docPath).Int("issues", len(issues)).Msg("document checked")

	if checkJSONSchema || checkSchemaFile != "" {
		if err := crossValidate(s, docPath); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case checkJSON:
		data, err := json.MarshalIndent(types.CheckResponse{Conforms: len(issues) == 0, Issues: issues}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case current().Verbose:
		observability.NewPrinter(out).PrintIssues(issues)
	case len(issues) == 0:
		fmt.Fprintf(out, "%s: conforms\n", docPath)
	default:
		for _, iss := range issues {
			fmt.Fprintf(out, "%s: %s: %s\n", iss.Path, iss.Code, iss.Message)
		}
	}

	if len(issues) > 0 {
		return fmt.Errorf("%s does not conform: %d issues", docPath, len(issues))
	}
	return nil
}

// crossValidate runs the document through gojsonschema as a second opinion.
// The template export always rejects undeclared keys.
func crossValidate(s *template.Schema, docPath string) error {
	if checkJSONSchema {
		data, err := os.ReadFile(docPath)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", docPath, err)
		}
		if err := schemas.ValidateDocument(s, data); err != nil {
			return fmt.Errorf("JSON Schema validation failed: %w", err)
		}
	}
	if checkSchemaFile != "" {
		schemaPath := schemas.ResolveSchemaPath(checkSchemaFile)
		if schemaPath == "" {
			return fmt.Errorf("schema file not found: %s", checkSchemaFile)
		}
		if err := schemas.ValidateJSON(schemaPath, docPath); err != nil {
			return fmt.Errorf("JSON Schema validation against %s failed: %w", checkSchemaFile, err)
		}
	}
	return nil
}
