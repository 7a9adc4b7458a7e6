package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/config"
)

type defaultsConfig struct {
	BaseURL string        `env:"TEST_LIB_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"TEST_LIB_TIMEOUT" envDefault:"15s"`
	Debug   bool          `env:"TEST_LIB_DEBUG" envDefault:"false"`
}

type overrideConfig struct {
	BaseURL string `env:"TEST_LIB_OVERRIDE_URL" envDefault:"http://localhost:8080"`
}

type cachedConfig struct {
	Value string `env:"TEST_LIB_CACHED" envDefault:"first"`
}

type requiredConfig struct {
	Required string `env:"TEST_LIB_REQUIRED,required"`
}

type fileConfig struct {
	Backend string   `env:"TEST_LIB_FILE_BACKEND"`
	Tags    []string `env:"TEST_LIB_FILE_TAGS" envSeparator:","`
}

func TestLoad_DefaultValues(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_LIB_BASE_URL")
	os.Unsetenv("TEST_LIB_TIMEOUT")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.False(t, cfg.Debug)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_LIB_OVERRIDE_URL", "https://library.example.com")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "https://library.example.com", cfg.BaseURL)
}

func TestLoad_Cached(t *testing.T) {
	config.ResetCache()
	t.Setenv("TEST_LIB_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_LIB_CACHED", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value, "second load must come from cache")

	config.ResetCache()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_LIB_REQUIRED")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("TEST_LIB_REQUIRED", "now-set")
	require.NoError(t, config.Load(&cfg), "a failed parse must not poison the cache")
	assert.Equal(t, "now-set", cfg.Required)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestMustLoad_Panics(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_LIB_REQUIRED")
	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("TEST_LIB_FILE_BACKEND")
	os.Unsetenv("TEST_LIB_FILE_TAGS")
	t.Cleanup(func() {
		os.Unsetenv("TEST_LIB_FILE_BACKEND")
		os.Unsetenv("TEST_LIB_FILE_TAGS")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_LIB_FILE_BACKEND=redis\nTEST_LIB_FILE_TAGS=a,b,c\n"), 0o600))

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.NoError(t, config.LoadEnv())
}
