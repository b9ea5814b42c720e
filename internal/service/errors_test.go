package service

import (
	"errors"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "session_id", Message: "must be a UUID"}

	if got, want := err.Error(), "validation error on field session_id: must be a UUID"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}

	wrapped := WrapError(err, "get session")
	var target *ValidationError
	if !errors.As(wrapped, &target) || target.Field != "session_id" {
		t.Errorf("errors.As() through WrapError failed: %v", wrapped)
	}
}

func TestWrapError(t *testing.T) {
	if got := WrapError(nil, "context"); got != nil {
		t.Errorf("WrapError(nil) = %v, want nil", got)
	}

	got := WrapError(ErrNotFound, "close session")
	if got.Error() != "close session: not found" {
		t.Errorf("WrapError() = %q", got.Error())
	}
	if !errors.Is(got, ErrNotFound) {
		t.Error("WrapError() should preserve the wrapped error")
	}
}
