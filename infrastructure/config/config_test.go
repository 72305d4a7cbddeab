package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "ENVIRONMENT", "TABLE_NAME", "STORE_DRIVER", "BADGER_PATH",
		"JWT_SECRET", "JWT_EXPIRY", "LEADERBOARD_CACHE_TTL", "CORS_ALLOWED_ORIGINS", "ENABLE_EVENTS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "aplicacion-senas-content", cfg.TableName)
	assert.Equal(t, StoreDriverDynamoDB, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a fallback secret")
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
table_name: from-file
store_driver: badger
badger_path: /tmp/lb
jwt_expiry: 10m
leaderboard_cache_ttl: 5s
cors_allowed_origins:
  - https://a.example
log_level: debug
`), 0o600))

	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TABLE_NAME", "from-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TableName)
	assert.Equal(t, StoreDriverBadger, cfg.StoreDriver)
	assert.Equal(t, "/tmp/lb", cfg.BadgerPath)
	assert.Equal(t, 10*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.StoreDriver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate(), "production requires a secret")

	cfg.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())

	cfg.EnableEvents = true
	cfg.EventBusName = ""
	assert.Error(t, cfg.Validate())
}

func TestWatcher_AppliesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	cfg := Default()
	require.NoError(t, cfg.applyFile(path))
	cfg.ConfigFile = path

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	w, err := NewWatcher(cfg, level, zap.NewNop())
	require.NoError(t, err)
	reloaded := make(chan *Config, 1)
	w.OnChange(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, 3*time.Second, 20*time.Millisecond)

	select {
	case c := <-reloaded:
		assert.Equal(t, "debug", c.LogLevel)
	case <-time.After(time.Second):
		t.Fatal("change handler was not called")
	}
}
