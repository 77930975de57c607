package assessment

import (
	"errors"
	"fmt"
)

// ValidationError is malformed or insufficient caller input. It is returned
// before any external call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// GenerationParseError means the generation service returned unusable output
// for a stage with no fallback. Callers may retry.
type GenerationParseError struct {
	Stage string
	Err   error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("%s: could not parse generated output, please try again: %v", e.Stage, e.Err)
}

func (e *GenerationParseError) Unwrap() error { return e.Err }

// ErrNoQuestionsGenerated is returned when every question batch came back empty.
var ErrNoQuestionsGenerated = errors.New("no questions could be generated")

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsGenerationParse reports whether err is a GenerationParseError.
func IsGenerationParse(err error) bool {
	var target *GenerationParseError
	return errors.As(err, &target)
}
