package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound          = errors.New("requested resource not found")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden access")
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrEngineUnavailable = errors.New("execution engine unavailable")
	ErrJudgeTimeout      = errors.New("judging did not complete in time")
	ErrAlreadyFinalized  = errors.New("submission already finalized")
	ErrStillJudging      = errors.New("submission is still being judged")
)

// UnsupportedLanguageError is returned when a language name cannot be resolved.
// It carries the canonical language list so callers can show it to the user.
type UnsupportedLanguageError struct {
	Language  string
	Supported []string
}

func (e *UnsupportedLanguageError) Error() string {
	name := e.Language
	if strings.TrimSpace(name) == "" {
		name = "<empty>"
	}
	return fmt.Sprintf("unsupported language %q, supported languages: %s", name, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrValidation
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyFinalized), errors.Is(err, ErrStillJudging):
		return http.StatusConflict
	case errors.Is(err, ErrEngineUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrJudgeTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
