package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"
)

func TestCarryError_Error(t *testing.T) {
	err := &CarryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "not found: handover",
	}

	expected := "NOT_FOUND: not found: handover"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("title is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "title is required" {
		t.Errorf("Message = %q, want %q", err.Message, "title is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("LATEST_HANDOVER.md")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "LATEST_HANDOVER.md" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "LATEST_HANDOVER.md")
	}
}

func TestNewUnknownTool(t *testing.T) {
	err := NewUnknownTool("log_purge")

	if err.Code != ErrUnknownTool {
		t.Errorf("Code = %q, want %q", err.Code, ErrUnknownTool)
	}
	if err.Details["tool"] != "log_purge" {
		t.Errorf("Details[tool] = %v, want %q", err.Details["tool"], "log_purge")
	}
}

func TestNewIOFailure(t *testing.T) {
	err := NewIOFailure("write", "/shared/handovers/x.md", os.ErrPermission)

	if err.Code != ErrIOFailure {
		t.Errorf("Code = %q, want %q", err.Code, ErrIOFailure)
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
	if !stderrors.Is(err, os.ErrPermission) {
		t.Error("IO failure should unwrap to its cause")
	}
	want := "write /shared/handovers/x.md: permission denied"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("disk full"))
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want %q", err.Message, "disk full")
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching code", NewNotFound("x"), ErrNotFound, true},
		{"different code", NewNotFound("x"), ErrInternal, false},
		{"plain error", fmt.Errorf("boom"), ErrInternal, false},
		{"nil", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
