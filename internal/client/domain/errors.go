package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиентской сессии.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrRefreshFailed       = errors.New("credential refresh failed")
	ErrRefreshInterrupted  = errors.New("credential refresh interrupted")
	ErrAlreadyHydrated     = errors.New("session already hydrated")
)

// APIError - ответ API с кодом, отличным от 2xx.
type APIError struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// Is позволяет сравнивать 401 с ErrUnauthorized через errors.Is.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}
