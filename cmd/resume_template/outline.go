package main

import (
	"fmt"

	"github.com/jonathan/resume-template/internal/observability"
	"github.com/jonathan/resume-template/internal/template"
	"github.com/spf13/cobra"
)

var outlineCmd = &cobra.Command{
	Use:   "outline [template]",
	Short: "Print the field tree of a template",
	Long:  "Prints every field of a template in order, with its type, flags, description and generation hint.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOutline,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	s, err := loadTemplate(path)
	if err != nil {
		return err
	}

	if current().Verbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintTemplate(s)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), template.Outline(s))
	return err
}
