package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
server:
  host: "127.0.0.1"
  port: 8080
database:
  driver: "postgres"
  host: "localhost"
  port: 5432
  user: "rentdesk"
  password: "secret"
  database: "rentdesk_dev"
jwt:
  secret: "test-secret"
log:
  level: "debug"
  format: "text"
scheduler:
  cancel_stale_drafts: "0 0 3 * * *"
  report_overdue_orders: "0 0 7 * * *"
`

func TestLoad(t *testing.T) {
	t.Run("Valid config", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8080", cfg.GetServerAddress())
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 30, cfg.Scheduler.StaleDraftAgeDays, "default applies")
		assert.Contains(t, cfg.GetDatabaseConnectionString(), "dbname=rentdesk_dev")
		assert.Contains(t, cfg.GetDatabaseConnectionString(), "sslmode=disable")
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yaml")
		assert.Error(t, err)
	})

	t.Run("Missing jwt secret", func(t *testing.T) {
		content := `
server:
  port: 8080
database:
  driver: "memory"
`
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err)
	})

	t.Run("Memory driver needs no database host", func(t *testing.T) {
		content := `
server:
  port: 8080
database:
  driver: "memory"
jwt:
  secret: "s"
`
		cfg, err := Load(writeConfig(t, content))
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Database.Driver)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("JWT_SECRET", "from-env")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "from-env", cfg.JWT.Secret)
		assert.Equal(t, "warn", cfg.Log.Level)
	})
}
