// Package session хранит текущую пару токенов и производное состояние аутентификации.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chatclient/internal/client/domain"
	"chatclient/internal/client/ports/storage"
	"chatclient/pkg/logger"
)

const (
	LogTokensSet        = "session tokens updated"
	LogLoggedOut        = "session cleared"
	LogHydrated         = "session restored from storage"
	LogHydrateNoSession = "no stored session"
	LogHydrateCorrupt   = "stored access token is corrupt, purging session"

	ErrMsgReadStorage  = "failed to read session storage"
	ErrMsgWriteStorage = "failed to write session storage"
	ErrMsgPurgeStorage = "failed to purge session storage"
)

// ClaimsDecoder извлекает утверждения из access-токена.
type ClaimsDecoder interface {
	Decode(token string) *domain.Claims
}

// Store владеет состоянием сессии. Производные поля пересчитываются под той же
// блокировкой, что и токены, поэтому читатель не видит частичного обновления.
type Store struct {
	kv      storage.KeyValueStore
	decoder ClaimsDecoder

	// writeMu упорядочивает записи в хранилище, mu защищает state.
	writeMu  sync.Mutex
	mu       sync.RWMutex
	state    domain.Session
	hydrated bool
}

// NewStore создает пустую сессию. Hydrate нужно вызвать один раз до первого
// аутентифицированного запроса.
func NewStore(kv storage.KeyValueStore, decoder ClaimsDecoder) *Store {
	return &Store{kv: kv, decoder: decoder}
}

// SetTokens сохраняет новую пару. Пустой RefreshToken означает, что сервер вернул
// только access-токен, и используется ранее сохраненный refresh-токен.
// При ошибке записи состояние в памяти не меняется.
func (s *Store) SetTokens(ctx context.Context, pair domain.TokenPair) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	refresh := pair.RefreshToken
	if refresh == "" {
		stored, err := s.kv.Get(ctx, domain.RefreshTokenKey)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrMsgReadStorage, err)
		}
		refresh = stored
	}

	if refresh != "" {
		if err := s.kv.Set(ctx, domain.RefreshTokenKey, refresh); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgWriteStorage, err)
		}
	}
	if err := s.kv.Set(ctx, domain.AccessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgWriteStorage, err)
	}

	next := domain.NewSession(pair.AccessToken, refresh, s.decoder.Decode(pair.AccessToken))

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	logger.Log(ctx).Debug(ctx, LogTokensSet,
		zap.String("subject", next.SubjectID),
		zap.Bool("authenticated", next.IsAuthenticated))
	return nil
}

// Logout удаляет оба ключа и сбрасывает состояние. Повторный вызов безопасен.
// Состояние в памяти сбрасывается даже при ошибке хранилища.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) error {
	err := s.purge(ctx)

	s.mu.Lock()
	s.state = domain.Session{}
	s.mu.Unlock()

	logger.Log(ctx).Debug(ctx, LogLoggedOut)
	return err
}

// Hydrate восстанавливает сессию из хранилища. Если хотя бы одного ключа нет,
// ничего не происходит. Если у access-токена не читается sub, хранилище
// очищается и сессия остается пустой.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return domain.ErrAlreadyHydrated
	}
	s.hydrated = true
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	log := logger.Log(ctx)

	access, err := s.kv.Get(ctx, domain.AccessTokenKey)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgReadStorage, err)
	}
	refresh, err := s.kv.Get(ctx, domain.RefreshTokenKey)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgReadStorage, err)
	}

	if access == "" || refresh == "" {
		log.Debug(ctx, LogHydrateNoSession)
		return nil
	}

	next := domain.NewSession(access, refresh, s.decoder.Decode(access))
	if next.SubjectID == "" {
		log.Warn(ctx, LogHydrateCorrupt)
		return s.clear(ctx)
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	log.Debug(ctx, LogHydrated, zap.String("subject", next.SubjectID))
	return nil
}

func (s *Store) purge(ctx context.Context) error {
	var errs []error
	for _, key := range []string{domain.AccessTokenKey, domain.RefreshTokenKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgPurgeStorage, err)
	}
	return nil
}

// Snapshot возвращает копию текущего состояния.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}
