// Package listener связывает шину завершения сессии с хранилищем сессии и навигацией.
package listener

import (
	"context"

	"go.uber.org/zap"

	"chatclient/internal/client/app/events"
	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

const ErrMsgClearSession = "failed to clear session after logout signal"

// SessionClearer очищает сессию.
type SessionClearer interface {
	Logout(ctx context.Context) error
}

// Navigator отправляет пользователя на вход.
type Navigator interface {
	ToLogin(ctx context.Context, reason domain.LogoutReason)
}

// Subscriber - источник событий завершения сессии.
type Subscriber interface {
	Subscribe(fn events.Listener) (unsubscribe func())
}

// LogoutListener очищает сессию и перенаправляет на вход при SessionEnded.
type LogoutListener struct {
	session   SessionClearer
	navigator Navigator
}

func NewLogoutListener(session SessionClearer, navigator Navigator) *LogoutListener {
	return &LogoutListener{session: session, navigator: navigator}
}

// Attach подписывает слушателя на шину. Возвращенную функцию нужно вызвать
// при завершении работы, чтобы слушатель не сработал после освобождения ресурсов.
func (l *LogoutListener) Attach(bus Subscriber) (detach func()) {
	return bus.Subscribe(l.Handle)
}

// Handle обрабатывает одно событие.
func (l *LogoutListener) Handle(ctx context.Context, event domain.SessionEnded) {
	if err := l.session.Logout(ctx); err != nil {
		logger.Log(ctx).Warn(ctx, ErrMsgClearSession,
			zap.String("reason", string(event.Reason)), zap.Error(err))
	}
	l.navigator.ToLogin(ctx, event.Reason)
}
