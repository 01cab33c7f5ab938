package main

import (
	"github.com/jonathan/resume-template/internal/schemas"
	"github.com/spf13/cobra"
)

var exportJSONSchemaCmd = &cobra.Command{
	Use:   "export-jsonschema [template]",
	Short: "Export a template as JSON Schema",
	Long:  "Writes the draft-07 JSON Schema equivalent of a template, so documents can be validated by other tools.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExportJSONSchema,
}

var exportJSONSchemaOut string

func init() {
	exportJSONSchemaCmd.Flags().StringVarP(&exportJSONSchemaOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportJSONSchemaCmd)
}

func runExportJSONSchema(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	s, err := loadTemplate(path)
	if err != nil {
		return err
	}
	data, err := schemas.MarshalJSONSchema(s)
	if err != nil {
		return err
	}
	return writeOutput(cmd, exportJSONSchemaOut, append(data, '\n'))
}
