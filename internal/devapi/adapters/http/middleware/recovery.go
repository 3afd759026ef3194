package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"chatclient/internal/devapi/adapters/http/response"
	"chatclient/pkg/logger"
)

const LogServerPanic = "server panic"

// NewRecoveryMiddleware превращает панику обработчика в ответ 500.
func NewRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				requestCtx := RequestContext(c)
				logger.Log(requestCtx).Error(requestCtx, LogServerPanic,
					zap.String("error", fmt.Sprintf("%v", r)),
					zap.String("stack", string(debug.Stack())))

				err = response.SendError(c, fiber.StatusInternalServerError, "internal server error")
			}
		}()

		return c.Next()
	}
}
