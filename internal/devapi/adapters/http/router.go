// Package http содержит компоненты HTTP сервера локального API.
package http

import (
	"github.com/gofiber/fiber/v3"

	"chatclient/internal/devapi/adapters/http/handlers"
	"chatclient/internal/devapi/adapters/http/middleware"
	"chatclient/internal/devapi/adapters/http/response"
)

// Маршруты API.
const (
	RouteRegister    = "/auth/register"
	RouteLogin       = "/auth/login"
	RouteRefresh     = "/auth/refresh"
	RouteChat        = "/chat"
	RouteChatHistory = "/chat/history"
)

// AuthService объединяет сценарии аутентификации и проверку токена.
type AuthService interface {
	handlers.AuthService
	middleware.Authenticator
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, auth AuthService, chat handlers.ChatService) {
	authHandler := handlers.NewAuthHandler(auth)
	chatHandler := handlers.NewChatHandler(chat)

	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	// Публичные маршруты.
	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshTokens)

	// Защищенные маршруты.
	chatRoutes := app.Group(RouteChat)
	chatRoutes.Use(middleware.NewAuthMiddleware(auth))
	chatRoutes.Post("/", chatHandler.Send)
	chatRoutes.Get("/history", chatHandler.History)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return response.SendError(c, fiber.StatusNotFound, "route not found")
	})
}
