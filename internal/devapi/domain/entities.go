// Package domain содержит сущности и ошибки локального API чата.
package domain

import (
	"errors"
	"time"
)

// Ошибки домена.
var (
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must contain at least 6 characters")
	ErrEmailAlreadyExists  = errors.New("user with this email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidAccessToken  = errors.New("invalid or expired access token")
	ErrEmptyPrompt         = errors.New("prompt is required")
)

// MinPasswordLength - минимальная длина пароля.
const MinPasswordLength = 6

// User - зарегистрированный пользователь.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken - выданный непрозрачный refresh-токен.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Expired сообщает, истек ли токен к моменту now.
func (t RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenPair - ответ на вход и обновление.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Message - запись переписки пользователя.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}
