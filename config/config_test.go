package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compensation-engine/config"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse(nil, env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "compensation.db", cfg.DBPath)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestParse_EnvironmentFallback(t *testing.T) {
	cfg, err := config.Parse(nil, env(map[string]string{
		config.EnvPort:           "9090",
		config.EnvDB:             ":memory:",
		config.EnvAllowedOrigins: "http://a.test, http://b.test",
		config.EnvLogLevel:       "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParse_FlagsWinOverEnvironment(t *testing.T) {
	cfg, err := config.Parse(
		[]string{"-port", "3000", "-log-level", "warn"},
		env(map[string]string{config.EnvPort: "9090", config.EnvDB: "x.db"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "x.db", cfg.DBPath, "unset flag keeps env value")
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestParse_Invalid(t *testing.T) {
	_, err := config.Parse(nil, env(map[string]string{config.EnvPort: "abc"}))
	assert.Error(t, err)

	_, err = config.Parse([]string{"-log-level", "loud"}, env(nil))
	assert.Error(t, err)
}
