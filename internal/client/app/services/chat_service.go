package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatclient/internal/client/domain"
	"chatclient/internal/client/ports/api"
	"chatclient/pkg/logger"
)

const (
	LogServiceSendMessage = "chat service: send message"
	LogServiceHistory     = "chat service: load history"

	ErrorSendMessageFailed = "failed to send message"
	ErrorHistoryFailed     = "failed to load history"
)

// ErrEmptyPrompt возвращается для пустого сообщения.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Authenticator сообщает, есть ли активная сессия.
type Authenticator interface {
	IsAuthenticated() bool
}

// ChatService отправляет сообщения от имени текущего пользователя.
type ChatService struct {
	api  api.ChatAPI
	auth Authenticator
}

func NewChatService(chatAPI api.ChatAPI, auth Authenticator) *ChatService {
	return &ChatService{api: chatAPI, auth: auth}
}

// Send отправляет сообщение. Без активной сессии запрос не выполняется.
func (s *ChatService) Send(ctx context.Context, prompt string) (*domain.Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if !s.auth.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	logger.Log(ctx).Info(ctx, LogServiceSendMessage)

	msg, err := s.api.SendMessage(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorSendMessageFailed, err)
	}
	return msg, nil
}

// History возвращает переписку текущего пользователя.
func (s *ChatService) History(ctx context.Context) ([]domain.Message, error) {
	if !s.auth.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	logger.Log(ctx).Info(ctx, LogServiceHistory)

	history, err := s.api.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorHistoryFailed, err)
	}
	return history, nil
}
