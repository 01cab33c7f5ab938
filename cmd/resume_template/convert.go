package main

import (
	"fmt"

	"github.com/jonathan/resume-template/internal/template"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> [output]",
	Short: "Convert a template between JSON and YAML",
	Long:  "Reads a template and writes it in the format implied by the output extension, or --to when writing to stdout. Field order is preserved.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConvert,
}

var convertTo string

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Output format when writing to stdout (json or yaml)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	s, err := template.Load(args[0])
	if err != nil {
		return err
	}
	if err := template.Lint(s); err != nil {
		return err
	}

	if len(args) == 2 {
		if err := template.Save(s, args[1]); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}
		logger.Info().Str("from", args[0]).Str("to", args[1]).Msg("template converted")
		return nil
	}

	format := template.Format(convertTo)
	switch format {
	case template.FormatJSON, template.FormatYAML:
	case "":
		// Default to the other format.
		format = template.FormatYAML
		if template.FormatFromPath(args[0]) == template.FormatYAML {
			format = template.FormatJSON
		}
	default:
		return fmt.Errorf("unknown format %q: want json or yaml", convertTo)
	}
	data, err := template.Encode(s, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, "", data)
}
