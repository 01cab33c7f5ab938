package template

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

// Format names a template serialization.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Schema, error) {
	if format == FormatYAML {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// Encode renders s in the given format. JSON output is indented.
func Encode(s *Schema, format Format) ([]byte, error) {
	if format == FormatYAML {
		return EncodeYAML(s)
	}
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Load reads and decodes a template file, choosing the codec by extension.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	s, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse template", Cause: err}
	}
	return s, nil
}

// Save writes s to path in the format implied by its extension.
func Save(s *Schema, path string) error {
	data, err := Encode(s, FormatFromPath(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
