package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRANSACTION_STORE", "memory")
	t.Setenv("DB_DRIVER", "sqlite")

	require.NoError(t, Load(""))
	cfg := Get()
	assert.Equal(t, StoreMemory, cfg.TransactionStore)
	assert.Equal(t, 137, cfg.MockSeedSize)
	assert.Equal(t, 20, cfg.ConsolePageSize)
	assert.Equal(t, "/metrics", cfg.AppDebugMetricsURI)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CONSOLE_PAGE_SIZE=50\n"), 0o600))
	t.Setenv("CONSOLE_PAGE_SIZE", "")
	os.Unsetenv("CONSOLE_PAGE_SIZE")

	require.NoError(t, Load(path))
	assert.Equal(t, 50, Get().ConsolePageSize)
}

func TestLoad_RejectsUnknownStore(t *testing.T) {
	t.Setenv("TRANSACTION_STORE", "redis")
	assert.Error(t, Load(""))

	t.Setenv("TRANSACTION_STORE", "sql")
	t.Setenv("DB_DRIVER", "mysql")
	assert.Error(t, Load(""))
}

func TestLoad_MissingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.env")))
}

func TestArgEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	assert.Equal(t, path, ArgEnvPath([]string{"api", "--env=" + path}))
	assert.Empty(t, ArgEnvPath([]string{"api", "--env=/does/not/exist"}))
	assert.Empty(t, ArgEnvPath([]string{"api"}))
}

func TestIsDev(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "dev"}).IsDev())
	assert.True(t, (&Config{AppEnv: "local"}).IsDev())
	assert.False(t, (&Config{AppEnv: "production"}).IsDev())
}
