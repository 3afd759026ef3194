// Package storage определяет порт долговременного хранилища строк.
package storage

import "context"

// KeyValueStore хранит строки по ключу. Get возвращает пустую строку для
// отсутствующего ключа, Delete отсутствующего ключа не является ошибкой.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)

	Set(ctx context.Context, key, value string) error

	Delete(ctx context.Context, key string) error

	Close() error
}
