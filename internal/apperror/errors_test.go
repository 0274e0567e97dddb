package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSafeMessageAndCode(t *testing.T) {
	notFound := NewNotFound("todo not found")
	wrapped := fmt.Errorf("loading: %w", notFound)

	if got := SafeMessage(wrapped); got != "todo not found" {
		t.Errorf("SafeMessage = %q, want %q", got, "todo not found")
	}
	if got := SafeCode(wrapped); got != http.StatusNotFound {
		t.Errorf("SafeCode = %d, want 404", got)
	}

	raw := errors.New("dial tcp: connection refused")
	if got := SafeMessage(raw); got == raw.Error() {
		t.Error("raw errors must not leak to clients")
	}
	if got := SafeCode(raw); got != http.StatusInternalServerError {
		t.Errorf("SafeCode = %d, want 500", got)
	}
}

func TestNewInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternal(cause)

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable via errors.Is")
	}
	if err.Message == cause.Error() {
		t.Error("internal cause must not be the client message")
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation([]FieldError{
		{Field: "title", Message: "title is required"},
		{Field: "tagIds[1]", Message: "tag 9 does not exist"},
	})

	if err.Code != http.StatusBadRequest || err.Type != "validation_error" {
		t.Fatalf("unexpected code/type: %d %s", err.Code, err.Type)
	}
	if err.Message != "invalid fields: title, tagIds[1]" {
		t.Errorf("unexpected message: %q", err.Message)
	}
	if len(err.Details) != 2 {
		t.Errorf("expected 2 details, got %d", len(err.Details))
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("wrap: %w", NewNotFound("x"))) {
		t.Error("expected wrapped NotFound to be detected")
	}
	if IsNotFound(NewConflict("x")) {
		t.Error("conflict is not a not-found error")
	}
	if IsNotFound(nil) {
		t.Error("nil is not a not-found error")
	}
}
