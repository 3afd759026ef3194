// Package app содержит сценарии локального API: регистрацию, вход,
// ротацию refresh-токенов и переписку.
package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatclient/internal/devapi/domain"
	"chatclient/internal/devapi/ports"
	"chatclient/pkg/logger"
)

const (
	msgStartRegistration   = "starting user registration"
	msgUserRegistered      = "user registered successfully"
	msgLoginAttempt        = "login attempt"
	msgUserLoggedIn        = "user logged in successfully"
	msgRefreshingTokens    = "refreshing tokens"
	msgTokensRefreshed     = "tokens refreshed successfully"
	msgInvalidRefreshToken = "invalid refresh token"

	errCtxValidatingEmail    = "validating email"
	errCtxHashingPassword    = "hashing password"
	errCtxCreatingUser       = "creating user"
	errCtxInvalidCredentials = "invalid credentials"
	errCtxFindingUser        = "finding user"
	errCtxVerifyingPassword  = "verifying password"
	errCtxTakingToken        = "taking refresh token"
	errCtxGeneratingTokens   = "generating tokens"
	errCtxStoringToken       = "storing refresh token"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUseCase реализует регистрацию, вход и обновление токенов.
type AuthUseCase struct {
	users      ports.UserRepository
	tokens     ports.TokenRepository
	passwords  ports.PasswordService
	issuer     ports.TokenService
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthUseCase создает сценарии аутентификации.
func NewAuthUseCase(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	passwords ports.PasswordService,
	issuer ports.TokenService,
	refreshTTL time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		users:      users,
		tokens:     tokens,
		passwords:  passwords,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Register создает пользователя. Токены при регистрации не выдаются.
func (a *AuthUseCase) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	log := logger.Log(ctx).With(zap.String("email", email))
	log.Debug(ctx, msgStartRegistration)

	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingEmail, domain.ErrInvalidEmail)
	}

	hash, err := a.passwords.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    a.now(),
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	log.Info(ctx, msgUserRegistered, zap.String("userID", user.ID))
	return user, nil
}

// Login проверяет пароль и выдает пару токенов.
func (a *AuthUseCase) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("email", email))
	log.Debug(ctx, msgLoginAttempt)

	user, err := a.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	valid, err := a.passwords.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxVerifyingPassword, err)
	}
	if !valid {
		return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, domain.ErrInvalidCredentials)
	}

	pair, err := a.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgUserLoggedIn, zap.String("userID", user.ID))
	return pair, nil
}

// Refresh обменивает refresh-токен на новую пару. Старый токен погашается.
func (a *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	log := logger.Log(ctx)
	log.Debug(ctx, msgRefreshingTokens)

	if refreshToken == "" {
		return nil, domain.ErrInvalidRefreshToken
	}

	stored, err := a.tokens.Take(ctx, refreshToken)
	if err != nil {
		log.Debug(ctx, msgInvalidRefreshToken, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxTakingToken, err)
	}

	user, err := a.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", errCtxFindingUser, domain.ErrInvalidRefreshToken)
		}
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	pair, err := a.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgTokensRefreshed, zap.String("userID", user.ID))
	return pair, nil
}

// Authenticate проверяет access-токен и возвращает идентификатор пользователя.
func (a *AuthUseCase) Authenticate(ctx context.Context, accessToken string) (string, error) {
	return a.issuer.ValidateAccessToken(ctx, accessToken)
}

func (a *AuthUseCase) issue(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, _, err := a.issuer.GenerateAccessToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingTokens, err)
	}

	refresh := domain.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: a.now().Add(a.refreshTTL),
	}
	if err := a.tokens.Store(ctx, refresh); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxStoringToken, err)
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}
