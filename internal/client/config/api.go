package config

import "time"

// APIConfig описывает подключение к HTTP API.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" env:"CHATCLI_API_BASE_URL" env-default:"http://localhost:8080" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" env:"CHATCLI_API_TIMEOUT" env-default:"15s" validate:"gt=0"`
	RefreshPath string        `yaml:"refresh_path" env:"CHATCLI_API_REFRESH_PATH" env-default:"/auth/refresh" validate:"required,startswith=/"`
}
