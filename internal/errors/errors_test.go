package errors

import (
	"fmt"
	"testing"
)

func TestSparkError_Error(t *testing.T) {
	err := &SparkError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "snippet not found: abc",
	}

	expected := "NOT_FOUND: snippet not found: abc"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("owner is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "owner is required" {
		t.Errorf("Message = %q, want %q", err.Message, "owner is required")
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("shortcut", "shortcut must not be empty")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Field != "shortcut" {
		t.Errorf("Field = %q, want %q", err.Field, "shortcut")
	}
	if err.Details["field"] != "shortcut" {
		t.Errorf("Details[field] = %v, want %q", err.Details["field"], "shortcut")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("folder", "01HX")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Message != "folder not found: 01HX" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["id"] != "01HX" {
		t.Errorf("Details[id] = %v, want %q", err.Details["id"], "01HX")
	}
}

func TestNewPayloadTooLarge(t *testing.T) {
	err := NewPayloadTooLarge(100, 250)

	if err.Code != ErrPayloadTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrPayloadTooLarge)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_bytes"] != 100 || err.Details["actual_bytes"] != 250 {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestNewUnrecognizedFormat(t *testing.T) {
	err := NewUnrecognizedFormat("payload is neither JSON nor CSV")

	if err.Code != ErrUnrecognizedFormat {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnrecognizedFormat)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))
	if err.Code != ErrInternal || err.Message != "disk full" {
		t.Errorf("NewInternal = %+v", err)
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("snippet", "x")

	if !Is(err, ErrNotFound) {
		t.Error("Is(err, ErrNotFound) = false, want true")
	}
	if Is(err, ErrInvalidRequest) {
		t.Error("Is(err, ErrInvalidRequest) = true, want false")
	}

	wrapped := fmt.Errorf("deleting: %w", err)
	if !Is(wrapped, ErrNotFound) {
		t.Error("Is(wrapped, ErrNotFound) = false, want true")
	}

	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is(plain, ErrNotFound) = true, want false")
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", NewInvalidRequest("bad"))

	sErr, ok := As(wrapped)
	if !ok {
		t.Fatal("As() ok = false, want true")
	}
	if sErr.Message != "bad" {
		t.Errorf("Message = %q, want %q", sErr.Message, "bad")
	}

	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("As(plain) ok = true, want false")
	}
}
