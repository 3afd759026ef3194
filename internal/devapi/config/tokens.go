package config

// Хранилища refresh-токенов.
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// TokenConfig выбирает хранилище refresh-токенов.
type TokenConfig struct {
	Store string `yaml:"store" env:"DEVAPI_TOKEN_STORE" env-default:"memory" validate:"oneof=memory redis"`
}
