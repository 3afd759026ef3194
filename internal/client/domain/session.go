// Package domain содержит типы и ошибки клиентской сессии.
package domain

import "time"

// Ключи долговременного хранилища. Других данных клиент не сохраняет.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Claims - утверждения, извлеченные из access-токена без проверки подписи.
// Любое поле может быть пустым.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// TokenPair - пара учетных данных, выдаваемая при входе и обновлении.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session - снимок состояния сессии. Пустая строка означает отсутствие значения.
type Session struct {
	SubjectID       string
	Email           string
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
}

// NewSession собирает снимок и вычисляет признак аутентификации.
func NewSession(access, refresh string, claims *Claims) Session {
	s := Session{
		AccessToken:  access,
		RefreshToken: refresh,
	}
	if claims != nil {
		s.SubjectID = claims.Subject
		s.Email = claims.Email
	}
	s.IsAuthenticated = s.AccessToken != "" && s.RefreshToken != "" && s.SubjectID != ""
	return s
}
