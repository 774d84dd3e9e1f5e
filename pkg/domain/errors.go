package domain

import (
	"errors"
	"fmt"
)

// ConfigError reports a structural mismatch detected eagerly: table and
// collection sizes or keys disagreeing, duplicate keys on combine, or a
// misaligned auxiliary sequence in a variadic apply. It is never retried.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string { return e.Reason }

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) ConfigError {
	return ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}

// KeyNotFoundError reports direct lookup of an absent collection key.
// Subset resolution deliberately does not raise this; it drops and warns.
type KeyNotFoundError struct {
	Key string
}

func (e KeyNotFoundError) Error() string { return fmt.Sprintf("key %q not found", e.Key) }

// IsKeyNotFound reports whether err is (or wraps) a KeyNotFoundError.
func IsKeyNotFound(err error) bool {
	var ke KeyNotFoundError
	return errors.As(err, &ke)
}

// IndexOutOfRangeError reports direct positional access outside the
// collection bounds.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for collection of length %d", e.Index, e.Len)
}

// IsIndexOutOfRange reports whether err is (or wraps) an IndexOutOfRangeError.
func IsIndexOutOfRange(err error) bool {
	var ie IndexOutOfRangeError
	return errors.As(err, &ie)
}

// ElementError captures a failure raised by a caller-supplied function for a
// single element during a bulk apply or filter pass. Under the KeepErrors
// policy the pointer itself is stored in the result in place of the element.
type ElementError struct {
	Key string
	Err error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %q: %v", e.Key, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// AsElementError extracts an ElementError from an element value, reporting
// whether the value is an error sentinel left behind by a bulk apply.
func AsElementError(v any) (*ElementError, bool) {
	ee, ok := v.(*ElementError)
	return ee, ok
}
