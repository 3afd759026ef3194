package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatclient/internal/devapi/domain"
	"chatclient/internal/devapi/ports"
	"chatclient/pkg/logger"
)

const (
	msgMessageStored = "chat message stored"

	errCtxStoringMessage = "storing message"
	errCtxListMessages   = "listing messages"
)

// Responder формирует ответ на сообщение.
type Responder func(prompt string) string

// EchoResponder отвечает эхом.
func EchoResponder(prompt string) string {
	return "You said: " + prompt
}

// ChatUseCase хранит переписку пользователей.
type ChatUseCase struct {
	messages ports.MessageRepository
	respond  Responder
	now      func() time.Time
}

func NewChatUseCase(messages ports.MessageRepository, respond Responder) *ChatUseCase {
	if respond == nil {
		respond = EchoResponder
	}
	return &ChatUseCase{messages: messages, respond: respond, now: time.Now}
}

// Send сохраняет сообщение вместе с ответом.
func (c *ChatUseCase) Send(ctx context.Context, userID, prompt string) (*domain.Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Prompt:    prompt,
		Response:  c.respond(prompt),
		Timestamp: c.now().UTC(),
	}
	if err := c.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxStoringMessage, err)
	}

	logger.Log(ctx).Debug(ctx, msgMessageStored, zap.String("userID", userID), zap.String("messageID", msg.ID))
	return &msg, nil
}

// History возвращает переписку пользователя.
func (c *ChatUseCase) History(ctx context.Context, userID string) ([]domain.Message, error) {
	list, err := c.messages.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxListMessages, err)
	}
	return list, nil
}
