// Package ports описывает зависимости сценариев локального API.
package ports

import (
	"context"
	"time"

	"chatclient/internal/devapi/domain"
)

// UserRepository хранит пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// TokenRepository хранит refresh-токены. Take атомарно извлекает токен,
// поэтому один токен нельзя обменять дважды.
type TokenRepository interface {
	Store(ctx context.Context, token domain.RefreshToken) error
	Take(ctx context.Context, token string) (*domain.RefreshToken, error)
}

// MessageRepository хранит переписку.
type MessageRepository interface {
	Append(ctx context.Context, msg domain.Message) error
	ListByUser(ctx context.Context, userID string) ([]domain.Message, error)
}

// TokenService выпускает и проверяет access-токены.
type TokenService interface {
	GenerateAccessToken(ctx context.Context, userID, email string) (string, time.Time, error)
	ValidateAccessToken(ctx context.Context, token string) (string, error)
}

// PasswordService хэширует и проверяет пароли.
type PasswordService interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}
