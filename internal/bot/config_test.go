package bot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	path := writeConfig(t, `
telegram:
  token: "123:abc"
database:
  host: localhost
  port: "5432"
session:
  ttl_minutes: 5
quiz:
  page_size: 7
  open_period_seconds: 45
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL())

	opts := cfg.EngineOptions()
	assert.Equal(t, 7, opts.PageSize)
	assert.Equal(t, 45, opts.OpenPeriod)
	assert.Zero(t, opts.CountdownStep)
}

func TestLoadConfigRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	path := writeConfig(t, `
telegram:
  run_mode: longpoll
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestSessionTTLDefault(t *testing.T) {
	var cfg Config
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
}
