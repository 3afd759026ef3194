// Package config загружает конфигурацию сервисов из переменных окружения и файлов.
package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"chatclient/pkg/logger"
)

const (
	msgLoadingConfiguration    = "loading configuration"
	msgConfigurationLoaded     = "configuration loaded successfully"
	msgFailedLoadConfiguration = "failed to load configuration"

	msgInvalidConfiguration    = "configuration validation failed"

	errFailedLoadConfiguration = "failed to load configuration"
	errInvalidConfiguration    = "invalid configuration"

	attrService = "service"
	attrPath    = "path"
)

var validate = validator.New()

// Load читает конфигурацию типа T. Если path не пуст, значения берутся из файла
// (yaml, json, toml или .env) и перекрываются переменными окружения,
// иначе только из окружения. Результат проверяется по тегам validate.
func Load[T any](ctx context.Context, serviceName, path string) (*T, error) {
	log := logger.Log(ctx)

	log.Info(ctx, msgLoadingConfiguration,
		zap.String(attrService, serviceName),
		zap.String(attrPath, path))

	var cfg T
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		log.Error(ctx, msgFailedLoadConfiguration,
			zap.String(attrService, serviceName),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	if err := validate.Struct(&cfg); err != nil {
		log.Error(ctx, msgInvalidConfiguration,
			zap.String(attrService, serviceName),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errInvalidConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded, zap.String(attrService, serviceName))

	return &cfg, nil
}
