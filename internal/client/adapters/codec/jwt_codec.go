// Package codec разбирает утверждения access-токена без проверки подписи.
// Результат носит справочный характер: подпись и срок действия проверяет сервер.
package codec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatclient/internal/client/domain"
)

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTCodec декодирует полезную нагрузку JWT.
type JWTCodec struct {
	parser *jwt.Parser
}

// NewJWTCodec создает кодек.
func NewJWTCodec() *JWTCodec {
	return &JWTCodec{parser: jwt.NewParser()}
}

// Decode возвращает утверждения токена или nil, если токен структурно некорректен:
// неверное число сегментов, невалидный base64url или JSON.
// Отсутствующий или неизвестный alg не мешает разбору полезной нагрузки.
func (c *JWTCodec) Decode(token string) *domain.Claims {
	if token == "" {
		return nil
	}

	var claims tokenClaims
	if _, _, err := c.parser.ParseUnverified(token, &claims); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil
	}

	out := &domain.Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out
}

// SubjectOf возвращает sub или пустую строку.
func (c *JWTCodec) SubjectOf(token string) string {
	if claims := c.Decode(token); claims != nil {
		return claims.Subject
	}
	return ""
}

// EmailOf возвращает email или пустую строку.
func (c *JWTCodec) EmailOf(token string) string {
	if claims := c.Decode(token); claims != nil {
		return claims.Email
	}
	return ""
}

// ExpiresIn возвращает оставшееся время жизни токена относительно now.
// ok равен false, если exp не удалось прочитать. Истекший токен дает отрицательное значение.
func (c *JWTCodec) ExpiresIn(token string, now time.Time) (time.Duration, bool) {
	claims := c.Decode(token)
	if claims == nil || claims.ExpiresAt.IsZero() {
		return 0, false
	}
	return claims.ExpiresAt.Sub(now), true
}
