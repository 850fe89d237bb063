package codec

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// TextSerializer converts a whole list of values to and from one text document
type TextSerializer[T any] interface {
	Serialize(values []T) ([]byte, error)
	Deserialize(data []byte) ([]T, error)
}

// JSONSerializer encodes lists as a JSON array
type JSONSerializer[T any] struct {
	// Indent, when set, pretty-prints the array with this indent string
	Indent string
}

// Serialize encodes values as a JSON array. A nil list encodes as [].
func (s JSONSerializer[T]) Serialize(values []T) ([]byte, error) {
	if values == nil {
		values = []T{}
	}
	if s.Indent != "" {
		return json.MarshalIndent(values, "", s.Indent)
	}
	return json.Marshal(values)
}

// Deserialize decodes a JSON array. Blank input decodes to an empty list.
func (s JSONSerializer[T]) Deserialize(data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// YAMLSerializer encodes lists as a YAML sequence
type YAMLSerializer[T any] struct{}

// Serialize encodes values as a YAML sequence
func (YAMLSerializer[T]) Serialize(values []T) ([]byte, error) {
	if values == nil {
		values = []T{}
	}
	return yaml.Marshal(values)
}

// Deserialize decodes a YAML sequence. Blank input decodes to an empty list.
func (YAMLSerializer[T]) Deserialize(data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var values []T
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
