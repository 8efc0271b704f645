// ABOUTME: Structural validation of tool inputs against their JSON schemas.
// ABOUTME: Covers the object/required/type/length subset the tool schemas use.

package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidInput indicates a tool input that violates the tool's schema.
var ErrInvalidInput = errors.New("invalid tool input")

// schema is the subset of JSON Schema the tool definitions use.
type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties"`
	Required   []string           `json:"required"`
	MinLength  *int               `json:"minLength"`
	MaxLength  *int               `json:"maxLength"`
}

func compileSchema(raw json.RawMessage) (*schema, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("schema must not be empty")
	}
	var s schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if s.Type != "object" {
		return nil, fmt.Errorf("top-level schema type must be \"object\", got %q", s.Type)
	}
	for _, req := range s.Required {
		if _, ok := s.Properties[req]; !ok {
			return nil, fmt.Errorf("required property %q not declared", req)
		}
	}
	return &s, nil
}

// ValidateInput checks the input document against the schema.
// A missing or null input is treated as an empty object. Violations are
// reported as wrapped ErrInvalidInput so callers can map them to a
// protocol-level invalid-params error.
func ValidateInput(schemaRaw, input json.RawMessage) error {
	s, err := compileSchema(schemaRaw)
	if err != nil {
		return err
	}

	if len(input) == 0 || string(input) == "null" {
		input = json.RawMessage("{}")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(input, &obj); err != nil {
		return fmt.Errorf("%w: arguments must be an object", ErrInvalidInput)
	}

	for _, req := range s.Required {
		val, ok := obj[req]
		if !ok || string(val) == "null" {
			return fmt.Errorf("%w: missing required property %q", ErrInvalidInput, req)
		}
	}

	for name, val := range obj {
		prop, ok := s.Properties[name]
		if !ok {
			// Unknown properties pass through untouched.
			continue
		}
		if err := validateValue(name, prop, val); err != nil {
			return err
		}
	}

	return nil
}

func validateValue(name string, prop *schema, val json.RawMessage) error {
	if string(val) == "null" {
		return nil
	}

	switch prop.Type {
	case "string":
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return fmt.Errorf("%w: property %q must be a string", ErrInvalidInput, name)
		}
		n := utf8.RuneCountInString(s)
		if prop.MinLength != nil && n < *prop.MinLength {
			return fmt.Errorf("%w: property %q shorter than %d characters", ErrInvalidInput, name, *prop.MinLength)
		}
		if prop.MaxLength != nil && n > *prop.MaxLength {
			return fmt.Errorf("%w: property %q longer than %d characters", ErrInvalidInput, name, *prop.MaxLength)
		}
	case "number", "integer":
		var f float64
		if err := json.Unmarshal(val, &f); err != nil {
			return fmt.Errorf("%w: property %q must be a number", ErrInvalidInput, name)
		}
		if prop.Type == "integer" && f != float64(int64(f)) {
			return fmt.Errorf("%w: property %q must be an integer", ErrInvalidInput, name)
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(val, &b); err != nil {
			return fmt.Errorf("%w: property %q must be a boolean", ErrInvalidInput, name)
		}
	case "object":
		var m map[string]json.RawMessage
		if err := json.Unmarshal(val, &m); err != nil {
			return fmt.Errorf("%w: property %q must be an object", ErrInvalidInput, name)
		}
	case "array":
		var a []json.RawMessage
		if err := json.Unmarshal(val, &a); err != nil {
			return fmt.Errorf("%w: property %q must be an array", ErrInvalidInput, name)
		}
	case "":
		// Untyped property, anything goes.
	default:
		return fmt.Errorf("unsupported schema type %q for property %q", prop.Type, name)
	}

	return nil
}
