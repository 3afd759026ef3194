// Package refresh объединяет параллельные попытки обновления учетных данных
// в один сетевой вызов и раздает его результат всем ожидающим.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

const (
	LogRefreshStarted   = "credential refresh started"
	LogRefreshSucceeded = "credential refresh succeeded"
	LogRefreshFailed    = "credential refresh failed"
	LogRefreshQueued    = "waiting for in-flight credential refresh"

	errMsgEmptyAccessToken = "refresh response has no access token"
	errMsgPersistTokens    = "persist refreshed tokens"
)

// TokenRefresher выполняет сетевой вызов обновления в обход конвейера аутентификации.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// SessionStore - часть хранилища сессии, нужная координатору.
type SessionStore interface {
	RefreshToken() string
	SetTokens(ctx context.Context, pair domain.TokenPair) error
}

// Publisher сообщает о завершении сессии.
type Publisher interface {
	Publish(ctx context.Context, reason domain.LogoutReason)
}

type outcome struct {
	token string
	err   error
}

// Coordinator гарантирует, что одновременно выполняется не больше одного обновления.
// Флаг и очередь ожидающих принадлежат только ему и меняются под mu,
// которая никогда не удерживается во время сетевого вызова.
type Coordinator struct {
	refresher TokenRefresher
	store     SessionStore
	bus       Publisher

	mu         sync.Mutex
	inProgress bool
	waiters    []chan outcome
}

func NewCoordinator(refresher TokenRefresher, store SessionStore, bus Publisher) *Coordinator {
	return &Coordinator{
		refresher: refresher,
		store:     store,
		bus:       bus,
	}
}

// EnsureFreshCredential возвращает новый access-токен. Если обновление уже идет,
// вызывающий ждет его результата, второй сетевой вызов не делается.
// Отмена ctx освобождает только этого вызывающего: его место в очереди
// все равно будет закрыто ровно один раз.
func (c *Coordinator) EnsureFreshCredential(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.inProgress {
		w := make(chan outcome, 1)
		c.waiters = append(c.waiters, w)
		queued := len(c.waiters)
		c.mu.Unlock()

		logger.Log(ctx).Debug(ctx, LogRefreshQueued, zap.Int("position", queued))

		select {
		case res := <-w:
			return res.token, res.err
		case <-ctx.Done():
			return "", fmt.Errorf("wait for credential refresh: %w", ctx.Err())
		}
	}
	c.inProgress = true
	c.mu.Unlock()

	settled := false
	defer func() {
		if !settled {
			c.settle(outcome{err: domain.ErrRefreshInterrupted})
		}
	}()

	token, reason, err := c.refresh(ctx)
	settled = true
	c.settle(outcome{token: token, err: err})

	if err != nil {
		c.bus.Publish(ctx, reason)
		return "", err
	}
	return token, nil
}

func (c *Coordinator) refresh(ctx context.Context) (string, domain.LogoutReason, error) {
	log := logger.Log(ctx)

	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		log.Warn(ctx, LogRefreshFailed, zap.Error(domain.ErrMissingRefreshToken))
		return "", domain.ReasonMissingRefreshToken,
			fmt.Errorf("%w: %w", domain.ErrRefreshFailed, domain.ErrMissingRefreshToken)
	}

	log.Debug(ctx, LogRefreshStarted)

	// Обновление общее для всех ожидающих, поэтому не наследует отмену вызывающего.
	// Срок ограничен таймаутом HTTP-клиента.
	refreshCtx := context.WithoutCancel(ctx)

	pair, err := c.refresher.Refresh(refreshCtx, refreshToken)
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = errors.New(errMsgEmptyAccessToken)
	}
	if err != nil {
		log.Warn(ctx, LogRefreshFailed, zap.Error(err))
		reason := domain.ReasonRefreshFailed
		if errors.Is(err, domain.ErrUnauthorized) {
			reason = domain.ReasonRefreshUnauthorized
		}
		return "", reason, fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}

	if err := c.store.SetTokens(refreshCtx, *pair); err != nil {
		log.Warn(ctx, LogRefreshFailed, zap.Error(err))
		return "", domain.ReasonRefreshFailed, fmt.Errorf("%w: %s: %w", domain.ErrRefreshFailed, errMsgPersistTokens, err)
	}

	log.Info(ctx, LogRefreshSucceeded)
	return pair.AccessToken, "", nil
}

// settle закрывает цикл обновления: снимает флаг и раздает результат всем
// ожидающим в порядке постановки в очередь. Каналы буферизованы, поэтому
// ушедший по отмене ожидающий не блокирует раздачу.
func (c *Coordinator) settle(res outcome) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inProgress = false
	c.mu.Unlock()

	for _, w := range waiters {
		w <- res
	}
}

// Waiting возвращает число вызывающих, ожидающих текущего обновления.
func (c *Coordinator) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// InProgress сообщает, идет ли сейчас обновление.
func (c *Coordinator) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}
