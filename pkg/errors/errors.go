// Package errors defines the typed error kinds shared across the proxy core:
// storage, plugin, auth, HTTP-parse, and not-found failures. Every layer
// returns one of these instead of an opaque error, so callers at the HTTP
// boundary can map failures to status codes without string matching.
package errors

import "net/http"

// Type identifies the kind of failure. Each Type is distinguishable at the
// boundary and maps to a fixed HTTP status code via Code.
type Type string

// Error kinds, per the error handling design.
const (
	// ErrStorage covers I/O, serialization, or permission failures against
	// the secret store or registry document.
	ErrStorage Type = "storage"
	// ErrPlugin covers script parse/load errors, runtime throws, a missing
	// transform function, sandbox type-conversion mismatches, and missing
	// plugin code for a registered plugin.
	ErrPlugin Type = "plugin"
	// ErrAuth covers unknown bearer tokens, bad password hashes, an
	// uninitialized server, and re-init attempts.
	ErrAuth Type = "auth"
	// ErrHTTPParse covers malformed request bytes.
	ErrHTTPParse Type = "http_parse"
	// ErrNotFound covers a store or registry key resolved absent.
	ErrNotFound Type = "not_found"
	// ErrConflict covers a one-shot operation (password initialization)
	// attempted when it has already run.
	ErrConflict Type = "conflict"
)

// Error is the concrete error type returned by every layer of the proxy core.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Type) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Type) + ": " + e.Message
}

// Unwrap returns the underlying cause, or nil if there is none.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError constructs an Error of the given type.
func NewError(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// NewStorageError constructs a storage Error.
func NewStorageError(message string, cause error) *Error {
	return NewError(ErrStorage, message, cause)
}

// NewPluginError constructs a plugin Error.
func NewPluginError(message string, cause error) *Error {
	return NewError(ErrPlugin, message, cause)
}

// NewAuthError constructs an auth Error.
func NewAuthError(message string, cause error) *Error {
	return NewError(ErrAuth, message, cause)
}

// NewHTTPParseError constructs an http-parse Error.
func NewHTTPParseError(message string, cause error) *Error {
	return NewError(ErrHTTPParse, message, cause)
}

// NewNotFoundError constructs a not-found Error.
func NewNotFoundError(message string, cause error) *Error {
	return NewError(ErrNotFound, message, cause)
}

// NewConflictError constructs a conflict Error.
func NewConflictError(message string, cause error) *Error {
	return NewError(ErrConflict, message, cause)
}

func is(err error, t Type) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Type == t
}

// IsStorage reports whether err is a storage Error.
func IsStorage(err error) bool { return is(err, ErrStorage) }

// IsPlugin reports whether err is a plugin Error.
func IsPlugin(err error) bool { return is(err, ErrPlugin) }

// IsAuth reports whether err is an auth Error.
func IsAuth(err error) bool { return is(err, ErrAuth) }

// IsHTTPParse reports whether err is an http-parse Error.
func IsHTTPParse(err error) bool { return is(err, ErrHTTPParse) }

// IsNotFound reports whether err is a not-found Error.
func IsNotFound(err error) bool { return is(err, ErrNotFound) }

// IsConflict reports whether err is a conflict Error.
func IsConflict(err error) bool { return is(err, ErrConflict) }

// Code maps an error to the HTTP status code the management API should
// return for it. Errors that are not *Error map to 500.
func Code(err error) int {
	e, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Type {
	case ErrAuth:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrHTTPParse:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrPlugin, ErrStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
