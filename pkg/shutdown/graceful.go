// Package shutdown ожидает сигнал SIGINT/SIGTERM и выполняет хуки завершения.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Hook освобождает ресурс в рамках переданного контекста.
type Hook func(context.Context) error

// Wait блокируется до сигнала SIGINT/SIGTERM или отмены ctx, затем параллельно
// выполняет хуки, ограничивая их timeout. Возвращает ошибки хуков.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	return Run(context.WithoutCancel(ctx), timeout, hooks...)
}

// Run выполняет хуки параллельно и ждет их не дольше timeout.
func Run(ctx context.Context, timeout time.Duration, hooks ...Hook) error {
	hookCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errs := make([]error, len(hooks))
	var g errgroup.Group
	for i, hook := range hooks {
		g.Go(func() error {
			errs[i] = hook(hookCtx)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return errors.Join(errs...)
	case <-hookCtx.Done():
		return hookCtx.Err()
	}
}
