package processor

import (
	"errors"
	"fmt"
)

// FormatError reports input that could not be normalized, or an unknown
// format tag. Its message is meant to be shown to the user verbatim.
type FormatError struct {
	Format Format
	Msg    string
	Err    error
}

func (e *FormatError) Error() string { return e.Msg }

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func invalidJSON(err error) *FormatError {
	return &FormatError{
		Format: JSON,
		Msg:    "Invalid JSON: " + err.Error(),
		Err:    err,
	}
}

func unsupported(tag string) *FormatError {
	return &FormatError{
		Format: Format(tag),
		Msg:    fmt.Sprintf("Unsupported format: %s", tag),
	}
}
