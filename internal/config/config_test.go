package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  addr: ":9090"
  allowed_origins:
    - "https://recipes.example.com"

database:
  driver: "postgres"
  dsn: "host=db user=app dbname=app"
  wait_attempts: 3

storage:
  type: "s3"
  bucket: "recipe-images"
  account_id: "abc123"
  public_url: "https://cdn.example.com/%s"

images:
  max_bytes: 2048
  max_width: 1200

log_level: "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://recipes.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=app dbname=app", cfg.Database.DSN)
	assert.Equal(t, 3, cfg.Database.WaitAttempts)
	assert.Equal(t, 1, cfg.Database.WaitSeconds)

	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "recipe-images", cfg.Storage.Bucket)
	assert.Equal(t, "abc123", cfg.Storage.AccountID)
	assert.Equal(t, "auto", cfg.Storage.Region)

	assert.Equal(t, int64(2048), cfg.Images.MaxBytes)
	assert.Equal(t, 1200, cfg.Images.MaxWidth)
	assert.Equal(t, "debug", cfg.LogLevel)

	assert.Equal(t, 10, cfg.RateLimit.TokenPerMinute)
	assert.False(t, cfg.OAuth.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SERVER_ADDR", ":4000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./media", cfg.Storage.LocalPath)
	assert.Equal(t, int64(10<<20), cfg.Images.MaxBytes)
}

func TestLoadValidation(t *testing.T) {
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DSN", "")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "memory")
		t.Setenv("STORAGE_TYPE", "s3")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("oauth without session secret", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "memory")
		t.Setenv("GOOGLE_KEY", "key")
		t.Setenv("GOOGLE_SECRET", "secret")
		t.Setenv("JWT_SECRET_KEY", "")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
