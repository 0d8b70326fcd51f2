package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// CompileSchema compiles a schema given as a generic map.
func CompileSchema(name string, schemaMap map[string]any) (*Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{name: name, schema: s}, nil
}

func MustCompileSchema(name string, schemaMap map[string]any) *Schema {
	s, err := CompileSchema(name, schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON validates raw JSON bytes.
func (s *Schema) ValidateJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.schema.Validate(v); err != nil {
		return NewAppError("SCHEMA", s.name, fmt.Errorf("%w: %v", ErrValidation, err))
	}
	return nil
}

// Marshal encodes v and validates the result, returning the JSON on success.
func (s *Schema) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", s.name, err)
	}
	if err := s.ValidateJSON(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap" without keeping the compiled schema.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	s, err := CompileSchema("schema.json", schemaMap)
	if err != nil {
		return err
	}
	return s.ValidateJSON(data)
}
