package storage

import (
	"context"
	"errors"
	"fmt"

	"chatclient/internal/client/config"
	"chatclient/internal/client/ports/storage"
)

// ErrUnknownDriver возвращается для неподдерживаемого драйвера хранилища.
var ErrUnknownDriver = errors.New("unknown storage driver")

// New создает хранилище по конфигурации.
func New(ctx context.Context, cfg *config.Config) (storage.KeyValueStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile, "":
		path, err := cfg.Storage.GetFilePath()
		if err != nil {
			return nil, err
		}
		return NewFileStorage(path), nil
	case config.StorageDriverRedis:
		rs, err := NewRedisStorage(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case config.StorageDriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}
}
