// Package config содержит конфигурацию локального API чата.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "chatclient/pkg/config"
	"chatclient/pkg/logger"
)

// ServiceName - имя сервиса в логах.
const ServiceName = "devapi"

const (
	LogConfigLoaded     = "devapi configuration loaded"
	ErrFailedLoadConfig = "failed to load devapi configuration"
)

// Config представляет полную конфигурацию сервера.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	JWT      JWTConfig      `yaml:"jwt"`
	Tokens   TokenConfig    `yaml:"tokens"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// Load загружает конфигурацию из переменных окружения или файла path.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	logger.Log(ctx).Info(ctx, LogConfigLoaded,
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.Duration("access_token_ttl", cfg.JWT.AccessTokenTTL),
		zap.Duration("refresh_token_ttl", cfg.JWT.RefreshTokenTTL),
		zap.String("token_store", cfg.Tokens.Store),
		zap.String("log_level", cfg.Logging.Level),
		zap.Duration("shutdown_timeout", cfg.Shutdown.Timeout))

	return cfg, nil
}
