package examforge

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by Generate. Match them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrContentUnavailable   = errors.New("reference content unavailable")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrMalformedResponse    = errors.New("malformed generation response")
	ErrTransport            = errors.New("generation service error")
	ErrInvalidRequest       = errors.New("invalid request")
)

// GenerationError carries one of the error kinds above together with a
// user-facing message and the underlying cause.
type GenerationError struct {
	Kind error
	Msg  string
	Err  error

	// Raw holds the unparsed service output for MalformedResponse.
	// It is for diagnostics only and never part of Error().
	Raw string
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches the error kind so errors.Is(err, ErrNotFound) works on a GenerationError
func (e *GenerationError) Is(target error) bool {
	return target == e.Kind
}

func newGenerationError(kind error, err error, format string, args ...interface{}) *GenerationError {
	return &GenerationError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

// ErrorKind returns the kind of err, or nil when err is not one of the generation kinds
func ErrorKind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrContentUnavailable,
		ErrConfigurationMissing,
		ErrMalformedResponse,
		ErrTransport,
		ErrInvalidRequest,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
