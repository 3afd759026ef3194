package config

import "time"

// JWTConfig содержит настройки выдачи токенов.
type JWTConfig struct {
	SecretKey       string        `yaml:"secret_key" env:"DEVAPI_JWT_SECRET_KEY" env-default:"dev-secret-change-me" validate:"required"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"DEVAPI_JWT_ACCESS_TOKEN_TTL" env-default:"15m" validate:"gt=0"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"DEVAPI_JWT_REFRESH_TOKEN_TTL" env-default:"24h" validate:"gt=0"`
	BCryptCost      int           `yaml:"bcrypt_cost" env:"DEVAPI_JWT_BCRYPT_COST" env-default:"10" validate:"gte=4,lte=31"`
}
