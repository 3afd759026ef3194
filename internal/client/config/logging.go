package config

import "chatclient/pkg/logger"

// LoggingConfig - настройки логирования клиента.
type LoggingConfig struct {
	Level string `yaml:"level" env:"CHATCLI_LOGGER_LEVEL" env-default:"warn"`
	Mode  string `yaml:"mode" env:"CHATCLI_LOGGER_MODE" env-default:"development" validate:"oneof=development production"`
}

// GetEnvironment возвращает режим логгера.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == string(logger.Production) {
		return logger.Production
	}
	return logger.Development
}
