package config

import (
	"net"
	"strconv"
	"time"
)

// HTTPConfig представляет конфигурацию HTTP сервера.
type HTTPConfig struct {
	Host         string        `yaml:"host" env:"DEVAPI_HTTP_HOST" env-default:"127.0.0.1" validate:"required"`
	Port         int           `yaml:"port" env:"DEVAPI_HTTP_PORT" env-default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"DEVAPI_HTTP_READ_TIMEOUT" env-default:"5s" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"DEVAPI_HTTP_WRITE_TIMEOUT" env-default:"10s" validate:"gt=0"`
}

// GetAddress возвращает адрес HTTP сервера.
func (c *HTTPConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
