// Package validation checks job variables against JSON Schemas before a worker
// decodes them.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"advisor-match-workers/internal/common/errors"

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

// Schema is a compiled JSON Schema for one task type's input.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses a JSON Schema document.
func Compile(name, source string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile for package-level schema variables.
func MustCompile(name, source string) *Schema {
	s, err := Compile(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string {
	return s.name
}

// Check validates a JSON document and lists every violation, sorted by field.
func (s *Schema) Check(document []byte) *ValidationResult {
	if len(document) == 0 {
		document = []byte("{}")
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out
}

// Validate returns a VALIDATION_FAILED StandardError describing every violation.
func (s *Schema) Validate(document []byte) error {
	result := s.Check(document)
	if result.Valid {
		return nil
	}

	msgs := make([]string, len(result.Errors))
	fields := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
		fields[i] = e.Field
	}
	return errors.NewValidationError(strings.Join(msgs, "; ")).
		WithMetadata("invalidFields", fields).
		WithMetadata("schema", s.name)
}
