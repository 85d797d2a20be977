// Package validation provides enhanced validation with go-playground/validator integration
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Enhanced validator instance with custom validations
var (
	// Validate is the main validator instance
	Validate *validator.Validate

	nodeIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	stateKeyPattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	modelNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._:/-]+$`)
)

func init() {
	Validate = validator.New()

	// Register custom validation functions
	Validate.RegisterValidation("node_id", validateNodeID)
	Validate.RegisterValidation("state_key", validateStateKey)
	Validate.RegisterValidation("model_name", validateModelName)

	// Register tag name function to use JSON tags for field names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// ValidateWithPlayground validates using go-playground/validator
func ValidateWithPlayground(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts validator errors to our custom format
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var out ValidationErrors
	for _, fieldError := range validationErrors {
		out = append(out, ValidationError{
			Field:   fieldPath(fieldError),
			Value:   fieldError.Value(),
			Message: getErrorMessage(fieldError),
			Type:    "value_error." + fieldError.Tag(),
		})
	}
	return out
}

// fieldPath drops the struct type name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// getErrorMessage returns a human-readable error message
func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return fmt.Sprintf("minimum value/length is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value/length is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "node_id":
		return "must be a valid node identifier (alphanumeric, underscore, hyphen)"
	case "state_key":
		return "must be a valid state key (letters, digits, underscore)"
	case "model_name":
		return "must be a valid model name"
	default:
		return fmt.Sprintf("validation failed: %s", fe.Tag())
	}
}

// Custom validation functions for GraphFlow-specific rules

// validateNodeID validates node identifier format
func validateNodeID(fl validator.FieldLevel) bool {
	nodeID := fl.Field().String()
	return nodeIDPattern.MatchString(nodeID) && len(nodeID) <= 100
}

// validateStateKey validates the name of a field in the graph state
func validateStateKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	return stateKeyPattern.MatchString(key) && len(key) <= 100
}

// validateModelName validates the shape of a model identifier; whether the
// model exists is decided by the service
func validateModelName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return modelNamePattern.MatchString(name) && len(name) <= 100
}

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxErrors int `json:"max_errors"`
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxErrors: 10,
	}
}

// ValidateWithConfig validates with specific configuration
func ValidateWithConfig(s interface{}, config *ValidationConfig) error {
	if config == nil {
		config = DefaultValidationConfig()
	}

	err := ValidateWithPlayground(s)
	if err != nil {
		if validationErrors, ok := err.(ValidationErrors); ok {
			if config.MaxErrors > 0 && len(validationErrors) > config.MaxErrors {
				return ValidationErrors(validationErrors[:config.MaxErrors])
			}
		}
		return err
	}

	return nil
}

// MarshalValidationErrors marshals validation errors into the 422 body
// shape used by the graph service
func MarshalValidationErrors(errors ValidationErrors) ([]byte, error) {
	return json.Marshal(struct {
		Detail []DetailItem `json:"detail"`
	}{Detail: errors.Detail()})
}

// UnmarshalValidationErrors parses a 422 body
func UnmarshalValidationErrors(data []byte) (ValidationErrors, error) {
	var response struct {
		Detail []DetailItem `json:"detail"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}

	return FromDetail(response.Detail), nil
}
