package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"chatclient/internal/client/app/pipeline"
	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

// Пути эндпоинтов аутентификации.
const (
	PathRegister = "/auth/register"
	PathLogin    = "/auth/login"
	PathRefresh  = "/auth/refresh"
)

// Константы для логирования.
const (
	LogRegister = "auth api: register"
	LogLogin    = "auth api: login"
	LogRefresh  = "auth api: refresh" // #nosec G101 - not a credential

	ErrMsgRegister = "register"
	ErrMsgLogin    = "login"
	ErrMsgRefresh  = "refresh tokens"
)

// AuthAPI обращается к эндпоинтам аутентификации напрямую, без конвейера
// с подстановкой и обновлением access-токена.
type AuthAPI struct {
	client      Doer
	base        *url.URL
	refreshPath string
}

// NewAuthAPI создает клиент аутентификации. Пустой refreshPath означает PathRefresh.
func NewAuthAPI(client Doer, baseURL, refreshPath string) (*AuthAPI, error) {
	base, err := pipeline.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if refreshPath == "" {
		refreshPath = PathRefresh
	}
	return &AuthAPI{client: client, base: base, refreshPath: refreshPath}, nil
}

// Register регистрирует пользователя.
func (a *AuthAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	logger.Log(ctx).Debug(ctx, LogRegister, zap.String("email", req.Email))

	var out domain.RegisterResponse
	if err := a.call(ctx, PathRegister, req, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgRegister, err)
	}
	return &out, nil
}

// Login обменивает учетные данные на пару токенов.
func (a *AuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	logger.Log(ctx).Debug(ctx, LogLogin, zap.String("email", req.Email))

	var out domain.TokenPair
	if err := a.call(ctx, PathLogin, req, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLogin, err)
	}
	return &out, nil
}

// Refresh обменивает refresh-токен на новую пару. 401 возвращается как
// *domain.APIError, совместимый с domain.ErrUnauthorized.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	logger.Log(ctx).Debug(ctx, LogRefresh)

	var out domain.TokenPair
	if err := a.call(ctx, a.refreshPath, domain.RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgRefresh, err)
	}
	return &out, nil
}

func (a *AuthAPI) call(ctx context.Context, path string, body, out any) error {
	req, err := pipeline.NewJSONRequest(ctx, a.base, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgSendRequest, err)
	}
	return decodeResponse(resp, out)
}
