// internal/common/validation/schema.go
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"recruitment-workers/pkg/registry"
)

var ErrInvalidInput = errors.New("INPUT_VALIDATION_FAILED")

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// InputError lists every schema violation of one job payload.
type InputError struct {
	TaskType string
	Errors   []ValidationError
}

func (e *InputError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%s input: %s", e.TaskType, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// SchemaValidator checks job variables against the input schemas declared
// in the activity registry. Schemas are compiled once.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewSchemaValidator(reg *registry.ActivityRegistry) (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// ValidateJSON validates raw job variables. Task types without a schema pass.
func (v *SchemaValidator) ValidateJSON(taskType, variables string) error {
	return v.validate(taskType, gojsonschema.NewStringLoader(variables))
}

// ValidateInput validates an already decoded payload.
func (v *SchemaValidator) ValidateInput(taskType string, input interface{}) error {
	return v.validate(taskType, gojsonschema.NewGoLoader(input))
}

func (v *SchemaValidator) validate(taskType string, doc gojsonschema.JSONLoader) error {
	if v == nil {
		return nil
	}
	schema, ok := v.schemas[taskType]
	if !ok {
		return nil
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return &InputError{TaskType: taskType, Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_JSON",
		}}}
	}
	if result.Valid() {
		return nil
	}

	errs := make([]ValidationError, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		}
	}
	return &InputError{TaskType: taskType, Errors: errs}
}

// Has reports whether a schema is registered for taskType.
func (v *SchemaValidator) Has(taskType string) bool {
	if v == nil {
		return false
	}
	_, ok := v.schemas[taskType]
	return ok
}
