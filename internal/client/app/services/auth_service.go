// Package services содержит сценарии клиента: вход, выход и работу с чатом.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chatclient/internal/client/domain"
	"chatclient/internal/client/ports/api"
	"chatclient/pkg/logger"
)

// Константы для логирования.
const (
	LogServiceRegister = "auth service: register user"
	LogServiceLogin    = "auth service: login user"
	LogServiceLogout   = "auth service: logout"
	LogServiceRestore  = "auth service: restore session"

	ErrorRegisterFailed = "failed to register user"
	ErrorLoginFailed    = "failed to login"
	ErrorSaveSession    = "failed to save session"
	ErrorLogoutFailed   = "failed to logout"
	ErrorRestoreFailed  = "failed to restore session"
)

// ErrInvalidCredentials возвращается, если email или пароль не заданы.
var ErrInvalidCredentials = errors.New("email and password are required")

// SessionStore - хранилище сессии, с которым работают сценарии.
type SessionStore interface {
	SetTokens(ctx context.Context, pair domain.TokenPair) error
	Logout(ctx context.Context) error
	Hydrate(ctx context.Context) error
	Snapshot() domain.Session
	IsAuthenticated() bool
}

// AuthService реализует вход, регистрацию и выход.
type AuthService struct {
	api   api.AuthAPI
	store SessionStore
}

// NewAuthService создает новый экземпляр сервиса авторизации.
func NewAuthService(authAPI api.AuthAPI, store SessionStore) *AuthService {
	return &AuthService{api: authAPI, store: store}
}

// Register регистрирует пользователя. Сессия при этом не создается.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.RegisterResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	logger.Log(ctx).Info(ctx, LogServiceRegister, zap.String("email", email))

	resp, err := s.api.Register(ctx, domain.RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorRegisterFailed, err)
	}
	return resp, nil
}

// Login получает пару токенов и сохраняет ее как текущую сессию.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, ErrInvalidCredentials
	}

	log := logger.Log(ctx)
	log.Info(ctx, LogServiceLogin, zap.String("email", email))

	pair, err := s.api.Login(ctx, domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", ErrorLoginFailed, err)
	}

	if err := s.store.SetTokens(ctx, *pair); err != nil {
		log.Error(ctx, ErrorSaveSession, zap.Error(err))
		return domain.Session{}, fmt.Errorf("%s: %w", ErrorSaveSession, err)
	}
	return s.store.Snapshot(), nil
}

// Logout завершает сессию локально. Сервер о выходе не уведомляется.
func (s *AuthService) Logout(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogServiceLogout)

	if err := s.store.Logout(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrorLogoutFailed, err)
	}
	return nil
}

// Restore восстанавливает сессию из постоянного хранилища. Повторный вызов
// не перечитывает хранилище и возвращает текущее состояние.
func (s *AuthService) Restore(ctx context.Context) (domain.Session, error) {
	logger.Log(ctx).Debug(ctx, LogServiceRestore)

	if err := s.store.Hydrate(ctx); err != nil && !errors.Is(err, domain.ErrAlreadyHydrated) {
		return domain.Session{}, fmt.Errorf("%s: %w", ErrorRestoreFailed, err)
	}
	return s.store.Snapshot(), nil
}

// Session возвращает снимок текущей сессии.
func (s *AuthService) Session() domain.Session {
	return s.store.Snapshot()
}
