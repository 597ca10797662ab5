package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeSection struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type testConfig struct {
	Store     storeSection `mapstructure:"store"`
	BatchSize int64        `mapstructure:"batch_size"`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFileAndEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "idserver.yaml", `
store:
  driver: sqlite
  dsn: "file::memory:?cache=shared"
batch_size: 10
`)
	writeFile(t, dir, "idserver.test.yaml", `
batch_size: 50
`)
	t.Setenv("IDSTOREX_ENV", "test")
	t.Setenv("IDSTOREX_STORE_DRIVER", "mysql")

	loader, err := New(&Config{Name: "idserver", Paths: []string{dir}, EnvPrefix: "idstorex"})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))
	assert.Equal(t, filepath.Join(dir, "idserver.yaml"), loader.ConfigFileUsed())

	var cfg testConfig
	require.NoError(t, loader.Unmarshal(&cfg))
	assert.EqualValues(t, 50, cfg.BatchSize)
	assert.Equal(t, "file::memory:?cache=shared", cfg.Store.DSN)

	// AutomaticEnv 作用于 Get
	assert.Equal(t, "mysql", loader.Get("store.driver"))
}

func TestLoadWithoutFile(t *testing.T) {
	loader, err := New(&Config{Name: "absent", Paths: []string{t.TempDir()}})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))
	assert.Empty(t, loader.ConfigFileUsed())
	assert.Nil(t, loader.Get("store.driver"))
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "IDSTOREDOT_BATCH_SIZE=7\n")
	t.Cleanup(func() { os.Unsetenv("IDSTOREDOT_BATCH_SIZE") })

	loader, err := New(&Config{Name: "absent", Paths: []string{dir}, EnvPrefix: "IDSTOREDOT"})
	require.NoError(t, err)
	require.NoError(t, loader.Load(context.Background()))
	assert.Equal(t, "7", loader.Get("batch_size"))
}

func TestWatchRequiresLoad(t *testing.T) {
	loader, err := New(nil)
	require.NoError(t, err)
	_, err = loader.Watch(context.Background(), "batch_size")
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, loader.Load(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := loader.Watch(ctx, "batch_size")
	require.NoError(t, err)
	cancel()
	_, open := <-ch
	assert.False(t, open)
}
