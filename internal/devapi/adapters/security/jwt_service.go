// Package security выпускает токены и хэширует пароли.
package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"chatclient/internal/devapi/domain"
	"chatclient/pkg/logger"
)

const (
	msgGeneratingAccessToken = "generating access token"
	msgTokenGenerated        = "token generated successfully"
	msgTokenValidated        = "token validated successfully"
	msgTokenRejected         = "access token rejected"
	//nolint:gosec
	errSigningToken       = "error signing token"
	errCtxGeneratingToken = "generating token"
	errCtxValidatingToken = "validating token"
)

// Ошибки сервиса токенов.
var (
	ErrInvalidAlgorithm = errors.New("invalid signing algorithm")
	ErrEmptySecret      = errors.New("empty secret key")
)

// Claims - утверждения access-токена.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ServiceJWT выпускает access-токены HS256.
type ServiceJWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWT создает сервис токенов.
func NewJWT(secretKey string, accessTokenTTL time.Duration) *ServiceJWT {
	return &ServiceJWT{secret: []byte(secretKey), ttl: accessTokenTTL, now: time.Now}
}

// GenerateAccessToken выпускает токен с sub, email, iat и exp.
func (s *ServiceJWT) GenerateAccessToken(ctx context.Context, userID, email string) (string, time.Time, error) {
	log := logger.Log(ctx).With(zap.String("userID", userID))
	log.Debug(ctx, msgGeneratingAccessToken)

	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%s: %w", errCtxGeneratingToken, ErrEmptySecret)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		log.Error(ctx, errSigningToken, zap.Error(err))
		return "", time.Time{}, fmt.Errorf("%s: %w", errCtxGeneratingToken, err)
	}

	log.Debug(ctx, msgTokenGenerated, zap.Time("expiresAt", expiresAt))
	return signed, expiresAt, nil
}

// ValidateAccessToken проверяет подпись и срок действия и возвращает sub.
func (s *ServiceJWT) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	log := logger.Log(ctx)

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAlgorithm, t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		log.Debug(ctx, msgTokenRejected, zap.Error(err))
		return "", fmt.Errorf("%s: %w: %w", errCtxValidatingToken, domain.ErrInvalidAccessToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		log.Debug(ctx, msgTokenRejected)
		return "", fmt.Errorf("%s: %w", errCtxValidatingToken, domain.ErrInvalidAccessToken)
	}

	log.Debug(ctx, msgTokenValidated, zap.String("userID", claims.Subject))
	return claims.Subject, nil
}
