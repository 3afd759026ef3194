package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"chatclient/internal/devapi/adapters/http/middleware"
	"chatclient/internal/devapi/adapters/http/response"
	"chatclient/internal/devapi/domain"
	"chatclient/pkg/logger"
)

const (
	LogHandlerSend    = "chat handler: send"
	LogHandlerHistory = "chat handler: history"
)

// ChatService - сценарии чата, используемые обработчиками.
type ChatService interface {
	Send(ctx context.Context, userID, prompt string) (*domain.Message, error)
	History(ctx context.Context, userID string) ([]domain.Message, error)
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatHandler обслуживает защищенные маршруты чата.
type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Send принимает запрос пользователя и возвращает ответ.
func (h *ChatHandler) Send(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	userID := middleware.UserID(c)
	log := logger.Log(requestCtx).With(zap.String("user_id", userID))
	log.Info(requestCtx, LogHandlerSend)

	var req chatRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Debug(requestCtx, ErrorInvalidRequest, zap.Error(err))
		return response.SendError(c, fiber.StatusBadRequest, ErrorInvalidRequest)
	}

	msg, err := h.chat.Send(requestCtx, userID, req.Prompt)
	if err != nil {
		log.Warn(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return response.SendDomainError(c, err)
	}

	return sendJSON(c, msg)
}

// History возвращает переписку текущего пользователя.
func (h *ChatHandler) History(c fiber.Ctx) error {
	requestCtx := middleware.RequestContext(c)
	userID := middleware.UserID(c)
	log := logger.Log(requestCtx).With(zap.String("user_id", userID))
	log.Info(requestCtx, LogHandlerHistory)

	messages, err := h.chat.History(requestCtx, userID)
	if err != nil {
		log.Error(requestCtx, ErrorFailedToServeRequest, zap.Error(err))
		return response.SendDomainError(c, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return sendJSON(c, messages)
}
