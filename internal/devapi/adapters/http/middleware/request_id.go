// Package middleware содержит промежуточное ПО для HTTP обработчиков.
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"chatclient/pkg/logger"
)

// Ключи Locals.
const (
	LocalsRequestID = "requestID"
	LocalsUserID    = "userID"
)

// NewRequestIDMiddleware присваивает запросу идентификатор из заголовка или новый.
func NewRequestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := logger.NormalizeRequestID(c.Get(logger.HeaderRequestID))
		c.Locals(LocalsRequestID, id)
		c.Set(logger.HeaderRequestID, id)
		return c.Next()
	}
}

// RequestContext возвращает контекст запроса с идентификатором и логгером,
// помеченным методом и путем запроса.
func RequestContext(c fiber.Ctx) context.Context {
	ctx := context.Context(c.Context())
	if id, ok := c.Locals(LocalsRequestID).(string); ok {
		ctx = logger.NewRequestIDContext(ctx, id)
	}
	scoped := logger.Log(ctx).With(zap.String("method", c.Method()), zap.String("path", c.Path()))
	return logger.NewContext(ctx, scoped)
}

// UserID возвращает пользователя, установленного NewAuthMiddleware.
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(LocalsUserID).(string)
	return id
}
