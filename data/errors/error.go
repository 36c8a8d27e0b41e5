package errors

import (
	"fmt"
	"maps"
)

// Error is the normalized error surfaced by every session operation.
// It is purely data: a kind, a message key and its interpolation parameters.
type Error struct {
	Kind Kind

	// Code is the raw backend code, "UNKNOWN" when none was reported.
	Code string

	MessageKey string
	Params     map[string]string

	cause error
}

// Sentinel values for errors.Is checks against a kind.
var (
	ErrUnknown                 = &Error{Kind: KindUnknown}
	ErrHostNotFound            = &Error{Kind: KindHostNotFound}
	ErrConnectionRefused       = &Error{Kind: KindConnectionRefused}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrPermissionDenied        = &Error{Kind: KindPermissionDenied}
	ErrInvalidFilename         = &Error{Kind: KindInvalidFilename}
	ErrAuthExpired             = &Error{Kind: KindAuthExpired}
	ErrAuthRequired            = &Error{Kind: KindAuthRequired}
	ErrCannotReadFolder        = &Error{Kind: KindCannotReadFolder}
	ErrNoFilesystemForLocation = &Error{Kind: KindNoFilesystemForLocation}
)

func (e *Error) Error() string {
	text := fmt.Sprintf("navigator: %s", e.Kind)
	if e.Code != "" && e.Code != CodeUnknown {
		text = fmt.Sprintf("%s [%s]", text, e.Code)
	}
	if e.cause != nil {
		text = fmt.Sprintf("%s: %v", text, e.cause)
	}

	return text
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// Param returns a single interpolation parameter.
func (e *Error) Param(key string) string {
	if e.Params == nil {
		return ""
	}

	return e.Params[key]
}

// Clone returns a copy with its own parameter map.
func (e *Error) Clone() *Error {
	clone := *e
	clone.Params = maps.Clone(e.Params)
	return &clone
}
