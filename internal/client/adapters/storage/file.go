package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"chatclient/internal/client/ports/storage"
	"chatclient/pkg/logger"
)

const (
	ErrorFailedToRead  = "failed to read session file"
	ErrorFailedToWrite = "failed to write session file"

	LogCorruptFileReset = "session file is corrupt, treating it as empty"
)

// FileStorage хранит значения в JSON-файле с правами 0600.
// Запись атомарна: временный файл и rename.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

var _ storage.KeyValueStore = (*FileStorage)(nil)

// NewFileStorage создает хранилище по пути path. Каталог создается при первой записи.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// load читает файл. Файл, который не разбирается, считается пустым и
// помечается как поврежденный: следующая запись его перезапишет.
func (s *FileStorage) load(ctx context.Context) (values map[string]string, corrupt bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", ErrorFailedToRead, err)
	}

	values = map[string]string{}
	if len(data) == 0 {
		return values, false, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		logger.Log(ctx).Warn(ctx, LogCorruptFileReset, zap.String("path", s.path), zap.Error(err))
		return map[string]string{}, true, nil
	}
	return values, false, nil
}

func (s *FileStorage) save(values map[string]string) error {
	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
		}
		return nil
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToWrite, err)
	}
	return nil
}

func (s *FileStorage) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, _, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Delete удаляет ключ. Поврежденный файл при этом переписывается.
func (s *FileStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, corrupt, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok && !corrupt {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

func (s *FileStorage) Close() error {
	return nil
}
