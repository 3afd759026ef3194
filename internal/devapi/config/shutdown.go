package config

import "time"

// ShutdownConfig содержит настройки для graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"DEVAPI_GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"5s" validate:"gt=0"`
}
