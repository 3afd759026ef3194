package config

import (
	"net"
	"strconv"
	"time"
)

// RedisConfig - настройки Redis для драйвера хранилища redis.
type RedisConfig struct {
	Host            string        `yaml:"host" env:"CHATCLI_REDIS_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"CHATCLI_REDIS_PORT" env-default:"6379" validate:"gte=1,lte=65535"`
	Password        string        `yaml:"password" env:"CHATCLI_REDIS_PASSWORD" env-default:""`
	DB              int           `yaml:"db" env:"CHATCLI_REDIS_DB" env-default:"0" validate:"gte=0"`
	KeyPrefix       string        `yaml:"key_prefix" env:"CHATCLI_REDIS_KEY_PREFIX" env-default:"chatcli:"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"CHATCLI_REDIS_CONNECT_TIMEOUT" env-default:"5s"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"CHATCLI_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"CHATCLI_REDIS_WRITE_TIMEOUT" env-default:"3s"`
	PoolSize        int           `yaml:"pool_size" env:"CHATCLI_REDIS_POOL_SIZE" env-default:"4" validate:"gte=1"`
	MinIdle         int           `yaml:"min_idle" env:"CHATCLI_REDIS_MIN_IDLE" env-default:"1"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"CHATCLI_REDIS_IDLE_TIMEOUT" env-default:"5m"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"CHATCLI_REDIS_MAX_CONN_LIFETIME" env-default:"1h"`
}

// GetAddress возвращает адрес Redis в формате host:port.
func (c *RedisConfig) GetAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
