package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/jonathan/resume-template/internal/conformance"
	"github.com/jonathan/resume-template/internal/template"
	"github.com/spf13/cobra"
)

// loadTemplate reads and lints the template named by path, or the
// configured default.
func loadTemplate(path string) (*template.Schema, error) {
	if path == "" {
		path = current().Template
	}
	if path == "" {
		return nil, fmt.Errorf("no template given: pass --template or set template in the config")
	}
	s, err := template.Load(path)
	if err != nil {
		return nil, err
	}
	if err := template.Lint(s); err != nil {
		return nil, fmt.Errorf("%s is not a valid template: %w", path, err)
	}
	return s, nil
}

// readDocument decodes a JSON document, keeping numbers as json.Number.
func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	doc, err := conformance.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	return doc, nil
}

// writeOutput writes data to path, or to the command's stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// marshalDocument encodes doc with its top-level keys in template order.
// Keys the template does not declare follow in lexical order.
func marshalDocument(s *template.Schema, doc map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(doc))
	seen := make(map[string]bool, len(doc))
	for _, k := range s.Keys() {
		if _, ok := doc[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range doc {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.MarshalIndent(doc[k], "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}
		buf.WriteString("\n  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(value)
	}
	if len(keys) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
