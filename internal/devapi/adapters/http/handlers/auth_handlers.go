// Package handlers содержит HTTP обработчики локального API.
package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"chatclient/internal/devapi/adapters/http/middleware"
	"chatclient/internal/devapi/adapters/http/response"
	"chatclient/internal/devapi/domain"
	"chatclient/pkg/logger"
)

// Константы для логирования.
const (
	LogHandlerRegister      = "auth handler: register"
	LogHandlerLogin         = "auth handler: login"
	LogHandlerRefreshTokens = "auth handler: refresh tokens" // #nosec G101 - not a credential

	ErrorInvalidRequest       = "invalid request"
	ErrorFailedToServeRequest = "failed to serve request"

	MessageUserRegistered = "user registered"
)

// AuthService - сценарии аутентификации, используемые обработчиками.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type registerResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// AuthHandler содержит HTTP обработчики для авторизации.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler создает обработчик авторизации.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register обрабатывает регистрацию нового пользователя.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerRegister)

	var req credentialsRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return response.SendError(c, fiber.StatusBadRequest, ErrorInvalidRequest)
	}

	user, err := h.auth.Register(requestCtx, req.Email, req.Password)
	if err != nil {
		log.Warn(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return response.SendDomainError(c, err)
	}

	if err := c.Status(fiber.StatusCreated).JSON(registerResponse{
		ID:      user.ID,
		Email:   user.Email,
		Message: MessageUserRegistered,
	}); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}

// Login обрабатывает вход пользователя.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerLogin)

	var req credentialsRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return response.SendError(c, fiber.StatusBadRequest, ErrorInvalidRequest)
	}

	pair, err := h.auth.Login(requestCtx, req.Email, req.Password)
	if err != nil {
		log.Warn(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return response.SendDomainError(c, err)
	}

	return sendJSON(c, pair)
}

// RefreshTokens выдает новую пару токенов в обмен на refresh-токен.
func (h *AuthHandler) RefreshTokens(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	log := logger.Log(requestCtx)
	log.Info(requestCtx, LogHandlerRefreshTokens)

	var req refreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return response.SendError(c, fiber.StatusBadRequest, ErrorInvalidRequest)
	}
	if req.RefreshToken == "" {
		return response.SendError(c, fiber.StatusUnauthorized, domain.ErrInvalidRefreshToken.Error())
	}

	pair, err := h.auth.Refresh(requestCtx, req.RefreshToken)
	if err != nil {
		log.Warn(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return response.SendDomainError(c, err)
	}

	return sendJSON(c, pair)
}

func sendJSON(c fiber.Ctx, body any) error {
	if err := c.Status(fiber.StatusOK).JSON(body); err != nil {
		return fmt.Errorf("sending response: %w", err)
	}
	return nil
}
