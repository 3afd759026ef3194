package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	httpServer "chatclient/internal/devapi/adapters/http"
	"chatclient/internal/devapi/adapters/repository"
	"chatclient/internal/devapi/adapters/security"
	"chatclient/internal/devapi/app"
	"chatclient/internal/devapi/config"
	"chatclient/internal/devapi/ports"
	"chatclient/pkg/logger"
	"chatclient/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "DEVAPI_LOGGER_MODE"
	EnvLoggerLevel = "DEVAPI_LOGGER_LEVEL"
	EnvConfigPath  = "DEVAPI_CONFIG_PATH"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrCreateTokenStore     = "failed to create refresh token store"
	ErrUnknownTokenStore    = "unknown refresh token store"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrShutdown             = "graceful shutdown finished with errors"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "devapi service started"
	LogServiceShutdownDone = "devapi service shutdown complete"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingTokenStore   = "closing refresh token store"
	LogInitTokenStore      = "initializing refresh token store"
	LogInitServices        = "initializing services"
	LogStartingHTTP        = "starting HTTP server"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err)
			}
		}()

		cfg, err := config.Load(ctx, os.Getenv(EnvConfigPath))
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitTokenStore, zap.String("store", cfg.Tokens.Store))
		tokens, closeTokens, err := newTokenStore(ctx, cfg)
		if err != nil {
			log.Error(ctx, ErrCreateTokenStore, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitServices)
		auth := app.NewAuthUseCase(
			repository.NewMemoryUsers(),
			tokens,
			security.NewBcrypt(cfg.JWT.BCryptCost),
			security.NewJWT(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL),
			cfg.JWT.RefreshTokenTTL,
		)
		chat := app.NewChatUseCase(repository.NewMemoryMessages(), app.EchoResponder)

		server := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		})
		httpServer.SetupRouter(server, auth, chat)

		serveCtx, stopServing := context.WithCancel(ctx)
		defer stopServing()

		listenErr := make(chan error, 1)
		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := server.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
				listenErr <- err
				stopServing()
			}
		}()

		err = shutdown.Wait(serveCtx, cfg.Shutdown.Timeout,
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				return server.Shutdown()
			},
			func(ctx context.Context) error {
				log.Info(ctx, LogClosingTokenStore)
				return closeTokens()
			},
		)
		if err != nil {
			log.Warn(ctx, ErrShutdown, zap.Error(err))
		}

		select {
		case <-listenErr:
			exitCode = 1
		default:
		}

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// newTokenStore создает хранилище refresh-токенов и функцию его закрытия.
func newTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenRepository, func() error, error) {
	switch cfg.Tokens.Store {
	case config.TokenStoreMemory, "":
		return repository.NewMemoryTokens(), func() error { return nil }, nil
	case config.TokenStoreRedis:
		store, err := repository.NewRedisTokens(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis token store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%s: %q", ErrUnknownTokenStore, cfg.Tokens.Store)
	}
}
