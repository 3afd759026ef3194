package config

import (
	"net"
	"strconv"
	"time"
)

// RedisConfig содержит параметры подключения к Redis для refresh-токенов.
type RedisConfig struct {
	Host        string        `yaml:"host" env:"DEVAPI_REDIS_HOST" env-default:"localhost"`
	Port        int           `yaml:"port" env:"DEVAPI_REDIS_PORT" env-default:"6379" validate:"gte=1,lte=65535"`
	Password    string        `yaml:"password" env:"DEVAPI_REDIS_PASSWORD" env-default:""`
	DB          int           `yaml:"db" env:"DEVAPI_REDIS_DB" env-default:"1" validate:"gte=0"`
	KeyPrefix   string        `yaml:"key_prefix" env:"DEVAPI_REDIS_KEY_PREFIX" env-default:"devapi:refresh:"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DEVAPI_REDIS_DIAL_TIMEOUT" env-default:"5s"`
}

// GetAddress возвращает адрес Redis.
func (c *RedisConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
