package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

// Пути эндпоинтов чата.
const (
	PathChat        = "/chat"
	PathChatHistory = "/chat/history"
)

const (
	LogSendMessage = "chat api: send message"
	LogHistory     = "chat api: history"

	ErrMsgSendMessage = "send message"
	ErrMsgHistory     = "load history"
)

// Sender - конвейер аутентифицированных запросов.
type Sender interface {
	NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error)
	Send(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ChatAPI отправляет запросы чата через конвейер с access-токеном.
type ChatAPI struct {
	sender Sender
}

func NewChatAPI(sender Sender) *ChatAPI {
	return &ChatAPI{sender: sender}
}

// SendMessage отправляет сообщение и возвращает ответ модели.
func (c *ChatAPI) SendMessage(ctx context.Context, prompt string) (*domain.Message, error) {
	logger.Log(ctx).Debug(ctx, LogSendMessage, zap.Int("prompt_length", len(prompt)))

	var out domain.Message
	if err := c.call(ctx, http.MethodPost, PathChat, domain.ChatRequest{Prompt: prompt}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgSendMessage, err)
	}
	return &out, nil
}

// History возвращает переписку текущего пользователя.
func (c *ChatAPI) History(ctx context.Context) ([]domain.Message, error) {
	logger.Log(ctx).Debug(ctx, LogHistory)

	var out []domain.Message
	if err := c.call(ctx, http.MethodGet, PathChatHistory, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgHistory, err)
	}
	return out, nil
}

func (c *ChatAPI) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.sender.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}
