package codebuild

import (
	"errors"
	"fmt"

	"github.com/lex00/wetwire-codebuild-go/internal/template"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateID is returned when two constructs resolve to the same
	// logical id in a stack.
	ErrDuplicateID = errors.New("duplicate construct id")

	// ErrUnknownResource is returned by Synth when a reference names neither
	// a resource nor a parameter of the stack.
	ErrUnknownResource = template.ErrUnknownResource
)

// ValidationError reports an invalid construct configuration.
type ValidationError struct {
	// Path is the construct path, e.g. "api/Environment".
	Path    string
	Message string
}

// Error returns the construct path and message.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErrorf(path, format string, args ...any) error {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}
