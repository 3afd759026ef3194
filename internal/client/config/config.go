// Package config содержит конфигурацию клиента chatcli.
package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgconfig "chatclient/pkg/config"
	"chatclient/pkg/logger"
)

// ServiceName - имя, под которым клиент пишет логи загрузки конфигурации.
const ServiceName = "chatcli"

const (
	LogConfigLoaded     = "client configuration loaded"
	ErrFailedLoadConfig = "failed to load client configuration"
)

// Config - полная конфигурация клиента.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// Load читает конфигурацию из окружения или из файла path.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := pkgconfig.Load[Config](ctx, ServiceName, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	logger.Log(ctx).Debug(ctx, LogConfigLoaded,
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Duration("api_timeout", cfg.API.Timeout),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("redis_address", cfg.Redis.GetAddress()),
		zap.String("log_level", cfg.Logging.Level))

	return cfg, nil
}
