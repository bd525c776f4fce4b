package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrStorage,
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			want: "storage: test message: underlying error",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrPlugin,
				Message: "test message",
				Cause:   nil,
			},
			want: "plugin: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{Type: ErrAuth, Message: "test message", Cause: cause}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Error.Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &Error{Type: ErrAuth, Message: "test message", Cause: nil}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Error.Unwrap() = %v, want nil", got)
	}
}

func TestNewErrorConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name        string
		constructor func(string, error) *Error
		wantType    Type
	}{
		{"NewStorageError", NewStorageError, ErrStorage},
		{"NewPluginError", NewPluginError, ErrPlugin},
		{"NewAuthError", NewAuthError, ErrAuth},
		{"NewHTTPParseError", NewHTTPParseError, ErrHTTPParse},
		{"NewNotFoundError", NewNotFoundError, ErrNotFound},
		{"NewConflictError", NewConflictError, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor("test message", cause)
			if err.Type != tt.wantType {
				t.Errorf("%s().Type = %v, want %v", tt.name, err.Type, tt.wantType)
			}
			if err.Message != "test message" {
				t.Errorf("%s().Message = %v, want %v", tt.name, err.Message, "test message")
			}
			if err.Cause != cause {
				t.Errorf("%s().Cause = %v, want %v", tt.name, err.Cause, cause)
			}
		})
	}
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"IsStorage matching", NewStorageError("x", nil), IsStorage, true},
		{"IsStorage non-matching", NewPluginError("x", nil), IsStorage, false},
		{"IsStorage non-Error type", errors.New("regular error"), IsStorage, false},
		{"IsPlugin matching", NewPluginError("x", nil), IsPlugin, true},
		{"IsAuth matching", NewAuthError("x", nil), IsAuth, true},
		{"IsHTTPParse matching", NewHTTPParseError("x", nil), IsHTTPParse, true},
		{"IsNotFound matching", NewNotFoundError("x", nil), IsNotFound, true},
		{"IsConflict matching", NewConflictError("x", nil), IsConflict, true},
		{"IsAuth with nil error", nil, IsAuth, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker(tt.err); got != tt.want {
				t.Errorf("%s() = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", NewAuthError("x", nil), http.StatusUnauthorized},
		{"not found", NewNotFoundError("x", nil), http.StatusNotFound},
		{"http parse", NewHTTPParseError("x", nil), http.StatusBadRequest},
		{"plugin", NewPluginError("x", nil), http.StatusInternalServerError},
		{"storage", NewStorageError("x", nil), http.StatusInternalServerError},
		{"conflict", NewConflictError("x", nil), http.StatusConflict},
		{"untyped error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %v, want %v", got, tt.want)
			}
		})
	}
}
