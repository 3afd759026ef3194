package config

import "time"

// BreakerConfig - параметры автоматического выключателя HTTP-транспорта.
// ErrorThreshold 0 отключает выключатель.
type BreakerConfig struct {
	ErrorThreshold   int           `yaml:"error_threshold" env:"CHATCLI_BREAKER_ERROR_THRESHOLD" env-default:"5" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" env:"CHATCLI_BREAKER_TIMEOUT" env-default:"10s" validate:"gte=0"`
	SuccessThreshold int           `yaml:"success_threshold" env:"CHATCLI_BREAKER_SUCCESS_THRESHOLD" env-default:"2" validate:"gte=0"`
}
