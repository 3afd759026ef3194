package config

import "chatclient/pkg/logger"

// LoggingConfig содержит настройки логирования.
type LoggingConfig struct {
	Level string `yaml:"level" env:"DEVAPI_LOGGER_LEVEL" env-default:"info"`
	Mode  string `yaml:"mode" env:"DEVAPI_LOGGER_MODE" env-default:"development" validate:"oneof=development production"`
}

// GetEnvironment возвращает режим логгера.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == string(logger.Production) {
		return logger.Production
	}
	return logger.Development
}
