// Package jsonschema is the validation gate for API response shapes. It
// wraps schema compilation and reports the specific failing constraint
// rather than a bare "invalid".
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors is the ordered list of constraint violations found in
// one document, most specific first.
type ValidationErrors []error

// Error implements the error interface for ValidationErrors.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Compile parses a schema document. Format constraints (email, uri) are
// asserted, not merely annotated.
func Compile(schemaStr string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return schema, nil
}

// Validate checks a JSON document against a schema, both given as strings.
// It returns nil for a valid document; otherwise the ValidationErrors carry
// each violated constraint with its instance location. Validation never
// mutates the document.
func Validate(jsonStr, schemaStr string) error {
	schema, err := Compile(schemaStr)
	if err != nil {
		return err
	}
	return ValidateCompiled(jsonStr, schema)
}

// ValidateCompiled checks a JSON document against an already compiled
// schema. Scenarios that validate many documents against one contract
// compile once and use this.
func ValidateCompiled(jsonStr string, schema *jsonschema.Schema) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	err := schema.Validate(doc)
	if err == nil {
		return nil
	}
	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		if errs := leafErrors(validationErr); len(errs) > 0 {
			return errs
		}
	}
	return ValidationErrors{err}
}

// leafErrors walks the cause tree bottom-up so the most specific violated
// constraints come out first.
func leafErrors(err *jsonschema.ValidationError) ValidationErrors {
	var errs ValidationErrors
	for _, cause := range err.Causes {
		errs = append(errs, leafErrors(cause)...)
	}
	if len(errs) == 0 && err.Message != "" {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		errs = append(errs, fmt.Errorf("at %s: %s", location, err.Message))
	}
	return errs
}
