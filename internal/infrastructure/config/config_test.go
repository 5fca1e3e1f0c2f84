package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "kouden-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "kouden", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "none", cfg.Cache.Backend)
		assert.False(t, cfg.HTTP.DocsEnabled)
		assert.Equal(t, 5*time.Minute, cfg.Cache.SummaryTTL)
		assert.Equal(t, "kouden:view-invalidation", cfg.Cache.InvalidationChannel)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with KOUDEN prefix", func(t *testing.T) {
		t.Setenv("KOUDEN_APP_NAME", "test-app")
		t.Setenv("KOUDEN_APP_PORT", "9000")
		t.Setenv("KOUDEN_DATABASE_HOST", "testdb.local")
		t.Setenv("KOUDEN_DATABASE_PORT", "5433")
		t.Setenv("KOUDEN_DATABASE_PASSWORD", "testpass")
		t.Setenv("KOUDEN_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("KOUDEN_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("KOUDEN_CACHE_BACKEND", "badger")
		t.Setenv("KOUDEN_CACHE_SUMMARY_TTL", "90s")
		t.Setenv("KOUDEN_HTTP_DOCS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "badger", cfg.Cache.Backend)
		assert.Equal(t, 90*time.Second, cfg.Cache.SummaryTTL)
		assert.True(t, cfg.HTTP.DocsEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("KOUDEN_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("KOUDEN_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown cache backend", func(t *testing.T) {
		t.Setenv("KOUDEN_CACHE_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		t.Setenv("KOUDEN_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("KOUDEN_APP_ENV", "production")
		t.Setenv("KOUDEN_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("KOUDEN_DATABASE_PASSWORD", "secure-password")
		t.Setenv("KOUDEN_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("KOUDEN_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("KOUDEN_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("KOUDEN_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("KOUDEN_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
	})

	t.Run("values reach Load through the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("KOUDEN_APP_PORT=7070\n"), 0o600))
		t.Setenv("KOUDEN_APP_PORT", "")
		require.NoError(t, os.Unsetenv("KOUDEN_APP_PORT"))

		require.NoError(t, LoadDotEnv(path))
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.App.Port)
	})

	t.Run("existing variables win", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("KOUDEN_APP_NAME=from-file\n"), 0o600))
		t.Setenv("KOUDEN_APP_NAME", "from-env")

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-env", os.Getenv("KOUDEN_APP_NAME"))
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
