// Package cli собирает клиент и выполняет подкоманды chatcli.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"chatclient/internal/client/adapters/codec"
	"chatclient/internal/client/adapters/httpapi"
	"chatclient/internal/client/adapters/storage"
	"chatclient/internal/client/app/events"
	"chatclient/internal/client/app/listener"
	"chatclient/internal/client/app/pipeline"
	"chatclient/internal/client/app/refresh"
	"chatclient/internal/client/app/services"
	"chatclient/internal/client/app/session"
	"chatclient/internal/client/config"
	portstorage "chatclient/internal/client/ports/storage"
	"chatclient/internal/client/resilience"
	"chatclient/pkg/logger"
)

// Константы для логирования.
const (
	LogInitStorage  = "initializing session storage"
	LogInitPipeline = "initializing request pipeline"
	LogHydrated     = "session restored"

	ErrMsgInitStorage  = "failed to initialize session storage"
	ErrMsgInitAPI      = "failed to initialize api client"
	ErrMsgInitPipeline = "failed to initialize request pipeline"
	ErrMsgCloseStorage = "failed to close session storage"
)

// ErrSessionEnded возвращается, если во время команды сессия была завершена.
var ErrSessionEnded = errors.New("session ended")

// App - собранный клиент.
type App struct {
	out    io.Writer
	kv     portstorage.KeyValueStore
	codec  *codec.JWTCodec
	store  *session.Store
	auth   *services.AuthService
	chat   *services.ChatService
	nav    *loginPrompt
	detach func()
}

// Option настраивает App.
type Option func(*options)

type options struct {
	kv        portstorage.KeyValueStore
	transport http.RoundTripper
}

// WithStorage подменяет хранилище из конфигурации.
func WithStorage(kv portstorage.KeyValueStore) Option {
	return func(o *options) { o.kv = kv }
}

// WithTransport задает базовый HTTP-транспорт.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New собирает клиент: хранилище, сессию, координатор обновления, конвейер
// и подписчика сигнала выхода. Вывод команд пишется в out.
func New(ctx context.Context, cfg *config.Config, out io.Writer, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Log(ctx)

	kv := o.kv
	if kv == nil {
		log.Debug(ctx, LogInitStorage, zap.String("driver", cfg.Storage.Driver))
		var err error
		kv, err = storage.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgInitStorage, err)
		}
	}

	jwtCodec := codec.NewJWTCodec()
	store := session.NewStore(kv, jwtCodec)
	bus := events.NewBus()

	client := httpapi.NewHTTPClient(&cfg.API,
		resilience.NewTransport(config.ServiceName, o.transport, cfg.Breaker))

	authAPI, err := httpapi.NewAuthAPI(client, cfg.API.BaseURL, cfg.API.RefreshPath)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgInitAPI, err)
	}

	log.Debug(ctx, LogInitPipeline, zap.String("base_url", cfg.API.BaseURL))
	coord := refresh.NewCoordinator(authAPI, store, bus)
	p, err := pipeline.New(client, cfg.API.BaseURL, cfg.API.RefreshPath, store, coord, bus)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgInitPipeline, err)
	}

	nav := &loginPrompt{out: out}
	detach := listener.NewLogoutListener(store, nav).Attach(bus)

	return &App{
		out:    out,
		kv:     kv,
		codec:  jwtCodec,
		store:  store,
		auth:   services.NewAuthService(authAPI, store),
		chat:   services.NewChatService(httpapi.NewChatAPI(p), store),
		nav:    nav,
		detach: detach,
	}, nil
}

// Close отписывается от сигнала выхода и закрывает хранилище.
func (a *App) Close() error {
	a.detach()
	if err := a.kv.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgCloseStorage, err)
	}
	return nil
}

// Restore восстанавливает сессию из хранилища.
func (a *App) Restore(ctx context.Context) error {
	sess, err := a.auth.Restore(ctx)
	if err != nil {
		return err
	}
	logger.Log(ctx).Debug(ctx, LogHydrated, zap.Bool("authenticated", sess.IsAuthenticated))
	return nil
}

// sessionEnded возвращает ErrSessionEnded, если с прошлой проверки был отправлен сигнал выхода.
func (a *App) sessionEnded() error {
	if reason, ok := a.nav.take(); ok {
		return fmt.Errorf("%w: %s", ErrSessionEnded, reason)
	}
	return nil
}
