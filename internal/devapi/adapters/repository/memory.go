// Package repository хранит пользователей, refresh-токены и переписку.
package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"chatclient/internal/devapi/domain"
)

// MemoryUsers хранит пользователей в памяти процесса.
type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

// Create сохраняет пользователя. Email сравнивается без учета регистра.
func (r *MemoryUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return domain.ErrEmailAlreadyExists
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = user.ID
	return nil
}

func (r *MemoryUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := *r.byID[id]
	return &user, nil
}

func (r *MemoryUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := *stored
	return &user, nil
}

// MemoryTokens хранит refresh-токены в памяти процесса.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
	now    func() time.Time
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{tokens: make(map[string]domain.RefreshToken), now: time.Now}
}

func (r *MemoryTokens) Store(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

// Take извлекает токен. Неизвестный или истекший токен дает ErrInvalidRefreshToken.
func (r *MemoryTokens) Take(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidRefreshToken
	}
	delete(r.tokens, token)

	if stored.Expired(r.now()) {
		return nil, domain.ErrInvalidRefreshToken
	}
	return &stored, nil
}

// MemoryMessages хранит переписку в памяти процесса.
type MemoryMessages struct {
	mu     sync.RWMutex
	byUser map[string][]domain.Message
}

func NewMemoryMessages() *MemoryMessages {
	return &MemoryMessages{byUser: make(map[string][]domain.Message)}
}

func (r *MemoryMessages) Append(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[msg.UserID] = append(r.byUser[msg.UserID], msg)
	return nil
}

// ListByUser возвращает сообщения в порядке добавления.
func (r *MemoryMessages) ListByUser(_ context.Context, userID string) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Message{}, r.byUser[userID]...), nil
}
