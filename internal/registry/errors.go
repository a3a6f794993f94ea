package registry

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for registry loading.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeReadFailed   = "E002" // File could not be read
	ErrCodeUnsupported  = "E003" // Unknown file extension
	ErrCodeParseFailed  = "E004" // Syntax error in the file
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeSchema       = "E006" // File does not match the registry schema
	ErrCodeInvalidField = "E007" // Field set rejected (duplicate key, missing dynamicField)
)

// LoadError describes why a registry file could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// fromCUE converts a CUE error into a LoadError, keeping the position of
// the first reported error.
func fromCUE(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
