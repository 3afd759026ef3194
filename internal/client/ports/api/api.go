// Package api описывает порты HTTP API чата.
package api

import (
	"context"

	"chatclient/internal/client/domain"
)

// AuthAPI - вызовы аутентификации. Реализация не проходит через конвейер
// с обновлением учетных данных, иначе 401 на обновлении вызвал бы повторное обновление.
type AuthAPI interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// ChatAPI - вызовы, требующие access-токена.
type ChatAPI interface {
	SendMessage(ctx context.Context, prompt string) (*domain.Message, error)
	History(ctx context.Context) ([]domain.Message, error)
}
