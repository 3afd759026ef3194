// Package response формирует JSON-ответы локального API.
package response

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"chatclient/internal/devapi/domain"
)

// Error - тело ответа об ошибке.
type Error struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SendError отправляет ответ об ошибке.
func SendError(c fiber.Ctx, status int, message string) error {
	if err := c.Status(status).JSON(Error{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// SendDomainError отображает ошибку сценария в код ответа.
// Неизвестные ошибки скрываются за 500.
func SendDomainError(c fiber.Ctx, err error) error {
	status := StatusOf(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	} else if unwrapped := rootCause(err); unwrapped != nil {
		message = unwrapped.Error()
	}
	return SendError(c, status, message)
}

// StatusOf возвращает HTTP-код для ошибки сценария.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrEmptyPrompt):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidRefreshToken),
		errors.Is(err, domain.ErrInvalidAccessToken):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

var known = []error{
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	domain.ErrEmptyPrompt,
	domain.ErrEmailAlreadyExists,
	domain.ErrInvalidCredentials,
	domain.ErrInvalidRefreshToken,
	domain.ErrInvalidAccessToken,
}

// rootCause возвращает доменную ошибку без внутреннего контекста.
func rootCause(err error) error {
	for _, target := range known {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
