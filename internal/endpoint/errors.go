package endpoint

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownScheme indicates a URI whose scheme has no registered kind.
	ErrUnknownScheme = errors.New("unknown endpoint scheme")
	// ErrInvalidPath indicates an endpoint path the kind cannot interpret.
	ErrInvalidPath = errors.New("invalid endpoint path")
	// ErrUnknownParameters indicates parameters no configuration object of the endpoint declares.
	ErrUnknownParameters = errors.New("unknown endpoint parameters")
	// ErrKindExists indicates a second registration for the same scheme.
	ErrKindExists = errors.New("endpoint kind already registered")
)

// UnknownParametersError lists the parameters left over after binding.
type UnknownParametersError struct {
	Scheme string
	Names  []string
}

func (e *UnknownParametersError) Error() string {
	return fmt.Sprintf("%s: unknown parameters: %s", e.Scheme, strings.Join(e.Names, ", "))
}

func (e *UnknownParametersError) Unwrap() error {
	return ErrUnknownParameters
}
