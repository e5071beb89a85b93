// Package validation checks callable payloads against JSON schemas.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema.
type Schema struct {
	compiled *gojsonschema.Schema
}

// NewSchema compiles a schema given as a Go map.
func NewSchema(schemaMap map[string]interface{}) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// FieldOption adjusts a field schema built by StringFields.
type FieldOption func(properties map[string]interface{})

// AllowNumbers lets the named fields also carry a non-zero number, such as an
// epoch timestamp.
func AllowNumbers(fields ...string) FieldOption {
	return func(properties map[string]interface{}) {
		for _, f := range fields {
			prop, ok := properties[f].(map[string]interface{})
			if !ok {
				continue
			}
			types := []string{"string", "number"}
			if t, ok := prop["type"].([]string); ok {
				types = append(t, "number")
			}
			prop["type"] = types
			prop["not"] = map[string]interface{}{"enum": []interface{}{0}}
		}
	}
}

// StringFields builds an object schema where every required field is a
// non-empty string and every optional field is a string or null. Unknown
// fields are allowed.
func StringFields(required, optional []string, opts ...FieldOption) (*Schema, error) {
	properties := make(map[string]interface{}, len(required)+len(optional))
	for _, f := range required {
		properties[f] = map[string]interface{}{"type": "string", "minLength": 1}
	}
	for _, f := range optional {
		properties[f] = map[string]interface{}{"type": []string{"string", "null"}}
	}
	for _, opt := range opts {
		opt(properties)
	}

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return NewSchema(schemaMap)
}

// MustStringFields is StringFields for package-level schemas.
func MustStringFields(required, optional []string, opts ...FieldOption) *Schema {
	s, err := StringFields(required, optional, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a decoded JSON document. A nil document is validated as null.
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"]; ok {
				field = fmt.Sprint(p)
			}
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{Valid: false, Errors: errs}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
