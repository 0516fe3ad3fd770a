package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: fmt.Errorf("code is empty: %w", ErrValidation), want: http.StatusBadRequest},
		{name: "unsupported language", err: &UnsupportedLanguageError{Language: "fortran"}, want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("problem 3: %w", ErrNotFound), want: http.StatusNotFound},
		{name: "unauthorized", err: ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "forbidden", err: ErrForbidden, want: http.StatusForbidden},
		{name: "finalized", err: ErrAlreadyFinalized, want: http.StatusConflict},
		{name: "still judging", err: fmt.Errorf("submission 1: %w", ErrStillJudging), want: http.StatusConflict},
		{name: "engine", err: fmt.Errorf("dial: %w", ErrEngineUnavailable), want: http.StatusBadGateway},
		{name: "timeout", err: ErrJudgeTimeout, want: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusFromError(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestUnsupportedLanguageErrorListsLanguages(t *testing.T) {
	err := &UnsupportedLanguageError{Language: "Fortran", Supported: []string{"c", "cpp", "python"}}
	msg := err.Error()
	if !strings.Contains(msg, "Fortran") || !strings.Contains(msg, "c, cpp, python") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unsupported language to be a validation error")
	}

	empty := &UnsupportedLanguageError{Supported: []string{"go"}}
	if !strings.Contains(empty.Error(), "<empty>") {
		t.Fatalf("expected empty marker, got %q", empty.Error())
	}
}
