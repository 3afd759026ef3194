package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"chatclient/internal/devapi/adapters/http/response"
	"chatclient/pkg/logger"
)

const (
	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInvalidToken       = "invalid or expired token"
)

// Authenticator проверяет access-токен.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// NewAuthMiddleware пропускает только запросы с действительным Bearer-токеном.
func NewAuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c fiber.Ctx) error {
		requestCtx := RequestContext(c)
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return response.SendError(c, fiber.StatusUnauthorized, ErrorNoAuthHeader)
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			log.Debug(requestCtx, ErrorInvalidTokenFormat)
			return response.SendError(c, fiber.StatusUnauthorized, ErrorInvalidTokenFormat)
		}

		userID, err := auth.Authenticate(requestCtx, token)
		if err != nil {
			log.Debug(requestCtx, ErrorInvalidToken, zap.Error(err))
			return response.SendError(c, fiber.StatusUnauthorized, ErrorInvalidToken)
		}

		c.Locals(LocalsUserID, userID)
		return c.Next()
	}
}
