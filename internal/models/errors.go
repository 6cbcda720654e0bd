package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks bad query-builder arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecodeFailure marks a page body that could not be decoded.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrNetworkFailure marks a transport error talking to the endpoint.
	ErrNetworkFailure = errors.New("network failure")
)

// ValidationError reports a rejected search argument.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// DecodeError reports a page whose body was not valid JSON after the
// anti-hijacking prefix was removed.
type DecodeError struct {
	Label   string
	Page    int
	Excerpt string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode page %d for %q: %v", e.Page, e.Label, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecodeFailure, e.Err}
}

// NetworkError reports a failed round trip to the search endpoint.
type NetworkError struct {
	Label string
	Page  int
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request page %d for %q: %v", e.Page, e.Label, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetworkFailure, e.Err}
}
