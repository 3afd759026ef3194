package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Драйверы долговременного хранилища.
const (
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
	StorageDriverMemory = "memory"
)

// StorageConfig выбирает, где хранить пару токенов.
type StorageConfig struct {
	Driver   string `yaml:"driver" env:"CHATCLI_STORAGE_DRIVER" env-default:"file" validate:"oneof=file redis memory"`
	FilePath string `yaml:"file_path" env:"CHATCLI_STORAGE_FILE_PATH"`
}

// GetFilePath возвращает путь файла сессии, по умолчанию в каталоге конфигурации пользователя.
func (c *StorageConfig) GetFilePath() (string, error) {
	if c.FilePath != "" {
		return c.FilePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "chatcli", "session.json"), nil
}
