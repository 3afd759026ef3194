package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatclient/internal/client/adapters/storage"
	"chatclient/internal/client/config"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := storage.NewFileStorage(path)

	value, err := fs.Get(ctx, "refreshToken")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, fs.Set(ctx, "refreshToken", "R1"))
	require.NoError(t, fs.Set(ctx, "accessToken", "A1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened := storage.NewFileStorage(path)
	value, err = reopened.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.Equal(t, "A1", value)

	require.NoError(t, fs.Delete(ctx, "accessToken"))
	require.NoError(t, fs.Delete(ctx, "refreshToken"))
	require.NoError(t, fs.Delete(ctx, "refreshToken"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty session file is removed")
	assert.NoError(t, fs.Close())
}

func TestFileStorage_CorruptFile(t *testing.T) {
	ctx := context.Background()

	corrupt := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		return path
	}

	t.Run("read as empty", func(t *testing.T) {
		value, err := storage.NewFileStorage(corrupt(t)).Get(ctx, "accessToken")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		path := corrupt(t)
		fs := storage.NewFileStorage(path)

		require.NoError(t, fs.Set(ctx, "refreshToken", "R1"))

		value, err := storage.NewFileStorage(path).Get(ctx, "refreshToken")
		require.NoError(t, err)
		assert.Equal(t, "R1", value)
	})

	t.Run("delete removes file", func(t *testing.T) {
		path := corrupt(t)

		require.NoError(t, storage.NewFileStorage(path).Delete(ctx, "accessToken"))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStorage()

	require.NoError(t, ms.Set(ctx, "accessToken", "A1"))
	value, err := ms.Get(ctx, "accessToken")
	require.NoError(t, err)
	assert.Equal(t, "A1", value)
	assert.Equal(t, 1, ms.Len())

	require.NoError(t, ms.Delete(ctx, "accessToken"))
	assert.Zero(t, ms.Len())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		kv, err := storage.New(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}})
		require.NoError(t, err)
		assert.IsType(t, &storage.MemoryStorage{}, kv)
	})

	t.Run("file", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{
			Driver:   config.StorageDriverFile,
			FilePath: filepath.Join(t.TempDir(), "s.json"),
		}}
		kv, err := storage.New(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &storage.FileStorage{}, kv)
	})

	t.Run("redis", func(t *testing.T) {
		_, redisCfg := mockRedisServer(t)
		kv, err := storage.New(ctx, &config.Config{
			Storage: config.StorageConfig{Driver: config.StorageDriverRedis},
			Redis:   *redisCfg,
		})
		require.NoError(t, err)
		assert.IsType(t, &storage.RedisStorage{}, kv)
		assert.NoError(t, kv.Close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		kv, err := storage.New(ctx, &config.Config{Storage: config.StorageConfig{Driver: "etcd"}})
		assert.ErrorIs(t, err, storage.ErrUnknownDriver)
		assert.Nil(t, kv)
	})
}
