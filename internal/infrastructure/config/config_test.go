package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"AGROCERT_APP_NAME",
	"AGROCERT_APP_ENV",
	"AGROCERT_APP_PORT",
	"AGROCERT_DATABASE_HOST",
	"AGROCERT_DATABASE_PORT",
	"AGROCERT_DATABASE_USER",
	"AGROCERT_DATABASE_PASSWORD",
	"AGROCERT_DATABASE_DBNAME",
	"AGROCERT_DATABASE_SSLMODE",
	"AGROCERT_DATABASE_MAX_OPEN_CONNS",
	"AGROCERT_DATABASE_MAX_IDLE_CONNS",
	"AGROCERT_JWT_SECRET",
	"AGROCERT_INSPECTION_SURFACE_TOLERANCE",
	"AGROCERT_INSPECTION_SYNC_TIMEOUT",
	"AGROCERT_DRAFT_BACKEND",
	"AGROCERT_DRAFT_TTL",
	"AGROCERT_TELEMETRY_DB_LOG_FULL_SQL",
	"AGROCERT_TELEMETRY_PROFILING_ENABLED",
}

// isolateEnv clears every managed variable and restores the original values after the test
func isolateEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(managedEnv))
	for _, k := range managedEnv {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "agrocert-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "agrocert", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 0.20, cfg.Inspection.SurfaceTolerance)
		assert.Equal(t, 30*time.Second, cfg.Inspection.SyncTimeout)
		assert.Equal(t, "redis", cfg.Draft.Backend)
		assert.Equal(t, 7*24*time.Hour, cfg.Draft.TTL)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with AGROCERT prefix", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_APP_NAME", "test-app")
		os.Setenv("AGROCERT_APP_PORT", "9000")
		os.Setenv("AGROCERT_DATABASE_HOST", "testdb.local")
		os.Setenv("AGROCERT_DATABASE_PORT", "5433")
		os.Setenv("AGROCERT_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("AGROCERT_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("AGROCERT_INSPECTION_SURFACE_TOLERANCE", "0.1")
		os.Setenv("AGROCERT_INSPECTION_SYNC_TIMEOUT", "5s")
		os.Setenv("AGROCERT_DRAFT_BACKEND", "memory")
		os.Setenv("AGROCERT_DRAFT_TTL", "48h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 0.1, cfg.Inspection.SurfaceTolerance)
		assert.Equal(t, 5*time.Second, cfg.Inspection.SyncTimeout)
		assert.Equal(t, "memory", cfg.Draft.Backend)
		assert.Equal(t, 48*time.Hour, cfg.Draft.TTL)
	})

	t.Run("keeps an explicit zero surface tolerance", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_INSPECTION_SURFACE_TOLERANCE", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0.0, cfg.Inspection.SurfaceTolerance)
	})

	t.Run("rejects a negative surface tolerance", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_INSPECTION_SURFACE_TOLERANCE", "-0.1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "surface_tolerance")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("AGROCERT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects surface tolerance above one", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_INSPECTION_SURFACE_TOLERANCE", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "surface_tolerance")
	})

	t.Run("rejects unknown draft backend", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_DRAFT_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "draft.backend")
	})

	t.Run("profiling requires a server address", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("AGROCERT_TELEMETRY_PROFILING_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiling_server_address")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("AGROCERT_APP_ENV", "production")
		os.Setenv("AGROCERT_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("AGROCERT_DATABASE_PASSWORD", "secure-password")
		os.Setenv("AGROCERT_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Unsetenv("AGROCERT_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("AGROCERT_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("AGROCERT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode")
	})

	t.Run("refuses in-memory drafts in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("AGROCERT_DRAFT_BACKEND", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "draft.backend=memory")
	})

	t.Run("refuses full SQL in traces in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("AGROCERT_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
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
