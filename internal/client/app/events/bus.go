// Package events реализует шину сигнала завершения сессии.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

const LogSessionEnded = "session ended"

// Listener получает событие завершения сессии.
type Listener func(ctx context.Context, event domain.SessionEnded)

type subscription struct {
	id uint64
	fn Listener
}

// Bus рассылает SessionEnded всем подписчикам синхронно, в порядке подписки.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe регистрирует подписчика и возвращает функцию отписки.
// Отписка идемпотентна и может вызываться из самого подписчика.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish доставляет событие и не ждет подтверждений.
func (b *Bus) Publish(ctx context.Context, reason domain.LogoutReason) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	logger.Log(ctx).Info(ctx, LogSessionEnded,
		zap.String("reason", string(reason)),
		zap.Int("subscribers", len(subs)))

	event := domain.SessionEnded{Reason: reason}
	for _, s := range subs {
		s.fn(ctx, event)
	}
}

// Len возвращает число активных подписчиков.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
