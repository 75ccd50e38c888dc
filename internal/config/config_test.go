package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_addr: ":9000"
store_driver: remote
backend:
  url: https://store.example.com
  project_id: proj
cache_ttl_minutes: 7
`), 0o600))
	t.Setenv("APP_ENV", "production")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("BACKEND_PUBLIC_KEY", "pk")
	t.Setenv("SERVER_ADDR", ":9100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://miamiwave.app")

	cfg := Load()
	assert.Equal(t, ":9100", cfg.ServerAddr)
	assert.Equal(t, DriverRemote, cfg.StoreDriver)
	assert.Equal(t, "https://store.example.com", cfg.Backend.URL)
	assert.Equal(t, "proj", cfg.Backend.ProjectID)
	assert.Equal(t, "pk", cfg.Backend.PublicKey)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 7*time.Minute, cfg.Cache.TTL())
}

func TestLoad_RemoteWithoutURLFallsBackToMemory(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STORE_DRIVER", "remote")
	t.Setenv("BACKEND_URL", "")

	cfg := Load()
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("BACKEND_URL", "http://localhost:9999")

	cfg := Load()
	assert.Equal(t, DriverRemote, cfg.StoreDriver)
	assert.Equal(t, 20, cfg.DBMaxConnections())
}
