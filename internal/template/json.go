package template

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Template source keys.
const (
	keyType                 = "type"
	keyDescription          = "description"
	keyLLMInfo              = "llm_info"
	keyRequired             = "required"
	keyArrangeable          = "arrangeable"
	keyItems                = "items"
	keyProperties           = "properties"
	keyAdditionalProperties = "additionalProperties"
)

// ParseJSON decodes a template definition. Key order is preserved.
func ParseJSON(data []byte) (*Schema, error) {
	s := NewSchema()
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	fs, err := decodeFieldsJSON(data, Root)
	if err != nil {
		return err
	}
	s.Fields = *fs
	return nil
}

// MarshalJSON implements json.Marshaler. Fields are written in declaration order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeFieldsJSON(&buf, &s.Fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalField decodes a single field definition.
func UnmarshalField(data []byte) (Field, error) {
	return decodeFieldJSON(data, Root)
}

// MarshalField encodes a single field definition.
func MarshalField(f Field) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeFieldJSON(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rawObject is a JSON object split into members, keeping source order.
type rawObject struct {
	keys []string
	vals map[string]json.RawMessage
}

func readObject(data []byte, path Path) (*rawObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, &DecodeError{Path: path.Pointer(), Message: "invalid JSON", Cause: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &DecodeError{Path: path.Pointer(), Message: "expected an object"}
	}

	obj := &rawObject{vals: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &DecodeError{Path: path.Pointer(), Message: "invalid JSON", Cause: err}
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &DecodeError{Path: path.Pointer(), Message: "expected an object key"}
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &DecodeError{Path: path.Field(key).Pointer(), Message: "invalid JSON", Cause: err}
		}
		if _, dup := obj.vals[key]; dup {
			return nil, &DecodeError{Path: path.Field(key).Pointer(), Message: "duplicate key"}
		}
		obj.keys = append(obj.keys, key)
		obj.vals[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, &DecodeError{Path: path.Pointer(), Message: "invalid JSON", Cause: err}
	}
	if dec.More() {
		return nil, &DecodeError{Path: path.Pointer(), Message: "trailing data after JSON object"}
	}
	return obj, nil
}

func decodeFieldsJSON(data []byte, path Path) (*Fields, error) {
	obj, err := readObject(data, path)
	if err != nil {
		return nil, err
	}
	fs := NewFields()
	for _, name := range obj.keys {
		f, err := decodeFieldJSON(obj.vals[name], path.Field(name))
		if err != nil {
			return nil, err
		}
		fs.Set(name, f)
	}
	return fs, nil
}

func decodeFieldJSON(data []byte, path Path) (Field, error) {
	obj, err := readObject(data, path)
	if err != nil {
		return nil, err
	}

	rawType, ok := obj.vals[keyType]
	if !ok {
		return nil, &DecodeError{Path: path.Pointer(), Message: "missing type discriminant"}
	}
	var typ FieldType
	if err := json.Unmarshal(rawType, &typ); err != nil {
		return nil, &DecodeError{Path: path.Field(keyType).Pointer(), Message: "type must be a string", Cause: err}
	}
	if !typ.Valid() {
		return nil, &DecodeError{Path: path.Field(keyType).Pointer(), Message: fmt.Sprintf("unknown field type %q", typ)}
	}

	var base BaseField
	for _, k := range obj.keys {
		raw := obj.vals[k]
		var err error
		switch k {
		case keyType:
		case keyDescription:
			err = json.Unmarshal(raw, &base.Description)
		case keyLLMInfo:
			err = json.Unmarshal(raw, &base.LLMInfo)
		case keyRequired:
			err = json.Unmarshal(raw, &base.Required)
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
		if raw, ok := obj.vals[keyArrangeable]; ok {
			if err := json.Unmarshal(raw, &f.Arrangeable); err != nil {
				return nil, &DecodeError{Path: path.Field(keyArrangeable).Pointer(), Message: "wrong value type", Cause: err}
			}
		}
		raw, ok := obj.vals[keyItems]
		if !ok {
			return nil, &DecodeError{Path: path.Pointer(), Message: "array field requires items"}
		}
		items, err := decodeFieldJSON(raw, path.Field(keyItems))
		if err != nil {
			return nil, err
		}
		f.Items = items
		return f, nil

	default:
		f := &ObjectField{BaseField: base}
		if raw, ok := obj.vals[keyProperties]; ok {
			props, err := decodeFieldsJSON(raw, path.Field(keyProperties))
			if err != nil {
				return nil, err
			}
			f.Properties = props
		}
		if raw, ok := obj.vals[keyAdditionalProperties]; ok {
			ap, err := decodeAdditionalJSON(raw, path.Field(keyAdditionalProperties))
			if err != nil {
				return nil, err
			}
			f.AdditionalProperties = ap
		}
		return f, nil
	}
}

func decodeAdditionalJSON(data []byte, path Path) (*AdditionalProperties, error) {
	obj, err := readObject(data, path)
	if err != nil {
		return nil, err
	}
	ap := &AdditionalProperties{}
	for _, k := range obj.keys {
		if k != keyType {
			return nil, &DecodeError{Path: path.Field(k).Pointer(), Message: fmt.Sprintf("unknown key %q", k)}
		}
		if err := json.Unmarshal(obj.vals[k], &ap.Type); err != nil {
			return nil, &DecodeError{Path: path.Field(k).Pointer(), Message: "type must be a string", Cause: err}
		}
	}
	if err := checkAdditionalType(ap, path); err != nil {
		return nil, err
	}
	return ap, nil
}

// checkAdditionalType enforces that open maps hold strings only.
func checkAdditionalType(ap *AdditionalProperties, path Path) error {
	switch ap.Type {
	case "":
		return &DecodeError{Path: path.Pointer(), Message: "missing type discriminant"}
	case TypeString:
		return nil
	}
	return &DecodeError{
		Path:    path.Field(keyType).Pointer(),
		Message: fmt.Sprintf("additionalProperties must be of type String, got %q", ap.Type),
	}
}

func encodeFieldsJSON(buf *bytes.Buffer, fs *Fields) error {
	buf.WriteByte('{')
	first := true
	err := fs.Each(func(name string, f Field) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSONString(buf, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		return encodeFieldJSON(buf, f)
	})
	if err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func encodeFieldJSON(buf *bytes.Buffer, f Field) error {
	if f == nil {
		return fmt.Errorf("cannot encode nil field")
	}
	buf.WriteString(`{"type":`)
	if err := writeJSONString(buf, string(f.Type())); err != nil {
		return err
	}
	b := f.Base()
	if b.Description != "" {
		buf.WriteString(`,"description":`)
		if err := writeJSONString(buf, b.Description); err != nil {
			return err
		}
	}
	if b.LLMInfo != "" {
		buf.WriteString(`,"llm_info":`)
		if err := writeJSONString(buf, b.LLMInfo); err != nil {
			return err
		}
	}
	if b.Required {
		buf.WriteString(`,"required":true`)
	}

	switch v := f.(type) {
	case *ArrayField:
		if v.Arrangeable {
			buf.WriteString(`,"arrangeable":true`)
		}
		buf.WriteString(`,"items":`)
		if err := encodeFieldJSON(buf, v.Items); err != nil {
			return err
		}
	case *ObjectField:
		if v.AdditionalProperties != nil {
			buf.WriteString(`,"additionalProperties":{"type":`)
			if err := writeJSONString(buf, string(v.AdditionalProperties.Type)); err != nil {
				return err
			}
			buf.WriteByte('}')
		}
		if v.Properties != nil {
			buf.WriteString(`,"properties":`)
			if err := encodeFieldsJSON(buf, v.Properties); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
