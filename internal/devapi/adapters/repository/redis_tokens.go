package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatclient/internal/devapi/config"
	"chatclient/internal/devapi/domain"
	"chatclient/pkg/logger"
)

const (
	ErrorFailedToConnect = "failed to connect to redis"
	ErrorFailedToStore   = "failed to store refresh token"
	ErrorFailedToTake    = "failed to take refresh token"
	ErrorCorruptToken    = "corrupt refresh token record"
)

type tokenRecord struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RedisTokens хранит refresh-токены в Redis со сроком жизни, равным сроку токена.
type RedisTokens struct {
	client *redis.Client
	prefix string
}

// NewRedisTokens подключается к Redis и проверяет соединение.
func NewRedisTokens(ctx context.Context, cfg *config.RedisConfig) (*RedisTokens, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.GetAddress(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", ErrorFailedToConnect, err)
	}
	return &RedisTokens{client: client, prefix: cfg.KeyPrefix}, nil
}

func (r *RedisTokens) Store(ctx context.Context, token domain.RefreshToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(tokenRecord{UserID: token.UserID, ExpiresAt: token.ExpiresAt})
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToStore, err)
	}
	if err := r.client.Set(ctx, r.prefix+token.Token, raw, ttl).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToStore, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToStore, err)
	}
	return nil
}

// Take атомарно читает и удаляет токен командой GETDEL.
func (r *RedisTokens) Take(ctx context.Context, token string) (*domain.RefreshToken, error) {
	raw, err := r.client.GetDel(ctx, r.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrInvalidRefreshToken
		}
		logger.Log(ctx).Error(ctx, ErrorFailedToTake, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToTake, err)
	}

	var rec tokenRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorCorruptToken, err)
	}

	out := domain.RefreshToken{Token: token, UserID: rec.UserID, ExpiresAt: rec.ExpiresAt}
	if out.Expired(time.Now()) {
		return nil, domain.ErrInvalidRefreshToken
	}
	return &out, nil
}

// Close закрывает соединение с Redis.
func (r *RedisTokens) Close() error {
	return r.client.Close()
}
