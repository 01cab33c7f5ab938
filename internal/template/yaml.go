package template

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a template definition written in YAML. Key order is preserved.
func ParseYAML(data []byte) (*Schema, error) {
	s := NewSchema()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// EncodeYAML renders s as YAML in declaration order.
func EncodeYAML(s *Schema) ([]byte, error) {
	return yaml.Marshal(s)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	fs, err := decodeFieldsYAML(node, Root)
	if err != nil {
		return err
	}
	s.Fields = *fs
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s *Schema) MarshalYAML() (interface{}, error) {
	return encodeFieldsYAML(&s.Fields)
}

func mappingPairs(node *yaml.Node, path Path) ([][2]*yaml.Node, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, &DecodeError{Path: path.Pointer(), Message: fmt.Sprintf("expected a mapping (line %d)", node.Line)}
	}
	pairs := make([][2]*yaml.Node, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, &DecodeError{Path: path.Pointer(), Message: fmt.Sprintf("expected a scalar key (line %d)", k.Line)}
		}
		if seen[k.Value] {
			return nil, &DecodeError{Path: path.Field(k.Value).Pointer(), Message: fmt.Sprintf("duplicate key (line %d)", k.Line)}
		}
		seen[k.Value] = true
		pairs = append(pairs, [2]*yaml.Node{k, v})
	}
	return pairs, nil
}

func decodeFieldsYAML(node *yaml.Node, path Path) (*Fields, error) {
	pairs, err := mappingPairs(node, path)
	if err != nil {
		return nil, err
	}
	fs := NewFields()
	for _, p := range pairs {
		name := p[0].Value
		f, err := decodeFieldYAML(p[1], path.Field(name))
		if err != nil {
			return nil, err
		}
		fs.Set(name, f)
	}
	return fs, nil
}

func decodeFieldYAML(node *yaml.Node, path Path) (Field, error) {
	pairs, err := mappingPairs(node, path)
	if err != nil {
		return nil, err
	}
	vals := make(map[string]*yaml.Node, len(pairs))
	for _, p := range pairs {
		vals[p[0].Value] = p[1]
	}

	typeNode, ok := vals[keyType]
	if !ok {
		return nil, &DecodeError{Path: path.Pointer(), Message: "missing type discriminant"}
	}
	var typ FieldType
	if err := typeNode.Decode(&typ); err != nil {
		return nil, &DecodeError{Path: path.Field(keyType).Pointer(), Message: "type must be a string", Cause: err}
	}
	if !typ.Valid() {
		return nil, &DecodeError{Path: path.Field(keyType).Pointer(), Message: fmt.Sprintf("unknown field type %q", typ)}
	}

	var base BaseField
	for _, p := range pairs {
		k, v := p[0].Value, p[1]
		var err error
		switch k {
		case keyType:
		case keyDescription:
			err = v.Decode(&base.Description)
		case keyLLMInfo:
			err = v.Decode(&base.LLMInfo)
		case keyRequired:
			err = v.Decode(&base.Required)
		case keyArrangeable, keyItems:
			if typ != TypeArray {
				return nil, &DecodeError{Path: path.Field(k).Pointer(), Message: fmt.Sprintf("%q is not allowed on %s fields", k, typ)}
			}
		case keyProperties, keyAdditionalProperties:
			if typ != TypeObject {
				return nil, &DecodeError{Path: path.Field(k).Pointer(), Message: fmt.Sprintf("%q is not allowed on %s fields", k, typ)}
			}
		default:
			return nil, &DecodeError{Path: path.Field(k).Pointer(), Message: fmt.Sprintf("unknown key %q", k)}
		}
		if err != nil {
			return nil, &DecodeError{Path: path.Field(k).Pointer(), Message: "wrong value type", Cause: err}
		}
	}

	switch typ {
	case TypeString:
		return &StringField{BaseField: base}, nil

	case TypeArray:
		f := &ArrayField{BaseField: base}
		if v, ok := vals[keyArrangeable]; ok {
			if err := v.Decode(&f.Arrangeable); err != nil {
				return nil, &DecodeError{Path: path.Field(keyArrangeable).Pointer(), Message: "wrong value type", Cause: err}
			}
		}
		v, ok := vals[keyItems]
		if !ok {
			return nil, &DecodeError{Path: path.Pointer(), Message: "array field requires items"}
		}
		items, err := decodeFieldYAML(v, path.Field(keyItems))
		if err != nil {
			return nil, err
		}
		f.Items = items
		return f, nil

	default:
		f := &ObjectField{BaseField: base}
		if v, ok := vals[keyProperties]; ok {
			props, err := decodeFieldsYAML(v, path.Field(keyProperties))
			if err != nil {
				return nil, err
			}
			f.Properties = props
		}
		if v, ok := vals[keyAdditionalProperties]; ok {
			apPairs, err := mappingPairs(v, path.Field(keyAdditionalProperties))
			if err != nil {
				return nil, err
			}
			ap := &AdditionalProperties{}
			apPath := path.Field(keyAdditionalProperties)
			for _, p := range apPairs {
				if p[0].Value != keyType {
					return nil, &DecodeError{Path: apPath.Field(p[0].Value).Pointer(), Message: fmt.Sprintf("unknown key %q", p[0].Value)}
				}
				if err := p[1].Decode(&ap.Type); err != nil {
					return nil, &DecodeError{Path: apPath.Field(keyType).Pointer(), Message: "type must be a string", Cause: err}
				}
			}
			if err := checkAdditionalType(ap, apPath); err != nil {
				return nil, err
			}
			f.AdditionalProperties = ap
		}
		return f, nil
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func str(value string) *yaml.Node {
	return scalar("!!str", value)
}

func encodeFieldsYAML(fs *Fields) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	err := fs.Each(func(name string, f Field) error {
		v, err := encodeFieldYAML(f)
		if err != nil {
			return err
		}
		node.Content = append(node.Content, str(name), v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func encodeFieldYAML(f Field) (*yaml.Node, error) {
	if f == nil {
		return nil, fmt.Errorf("cannot encode nil field")
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(k string, v *yaml.Node) {
		node.Content = append(node.Content, str(k), v)
	}

	add(keyType, str(string(f.Type())))
	b := f.Base()
	if b.Description != "" {
		add(keyDescription, str(b.Description))
	}
	if b.LLMInfo != "" {
		add(keyLLMInfo, str(b.LLMInfo))
	}
	if b.Required {
		add(keyRequired, scalar("!!bool", "true"))
	}

	switch v := f.(type) {
	case *ArrayField:
		if v.Arrangeable {
			add(keyArrangeable, scalar("!!bool", "true"))
		}
		items, err := encodeFieldYAML(v.Items)
		if err != nil {
			return nil, err
		}
		add(keyItems, items)
	case *ObjectField:
		if v.AdditionalProperties != nil {
			ap := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			ap.Content = append(ap.Content, str(keyType), str(string(v.AdditionalProperties.Type)))
			add(keyAdditionalProperties, ap)
		}
		if v.Properties != nil {
			props, err := encodeFieldsYAML(v.Properties)
			if err != nil {
				return nil, err
			}
			add(keyProperties, props)
		}
	}
	return node, nil
}
