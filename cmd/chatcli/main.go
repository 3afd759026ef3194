package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"chatclient/internal/client/cli"
	"chatclient/internal/client/config"
	"chatclient/pkg/logger"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "CHATCLI_LOGGER_MODE"
	EnvLoggerLevel = "CHATCLI_LOGGER_LEVEL"
	EnvConfigPath  = "CHATCLI_CONFIG_PATH"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitClient           = "failed to initialize client"
	ErrRestoreSession       = "failed to restore session"
	ErrCloseClient          = "failed to close client"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

func main() {
	os.Exit(run())
}

func run() int {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	level := os.Getenv(EnvLoggerLevel)
	if level == "" {
		level = "warn"
	}

	log, err := logger.NewLogger(env, level)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ErrInitLogger, err)
		return 1
	}
	logger.SetGlobalLogger(log)

	defer func() {
		if err := log.Sync(); err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
				return
			}
			_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewRequestIDContext(ctx, "")

	cfg, err := config.Load(ctx, os.Getenv(EnvConfigPath))
	if err != nil {
		log.Error(ctx, ErrLoadConfig, zap.Error(err))
		return 1
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
		return 1
	}
	logger.SetGlobalLogger(finalLogger)
	log = finalLogger

	app, err := cli.New(ctx, cfg, os.Stdout)
	if err != nil {
		log.Error(ctx, ErrInitClient, zap.Error(err))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn(ctx, ErrCloseClient, zap.Error(err))
		}
	}()

	if err := app.Restore(ctx); err != nil {
		log.Error(ctx, ErrRestoreSession, zap.Error(err))
		return 1
	}

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrSessionEnded) {
			_, _ = fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		}
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
