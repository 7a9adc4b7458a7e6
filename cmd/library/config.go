package main

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/libraryclient/pkg/config"
	"github.com/dmitrymomot/libraryclient/pkg/file"
	"github.com/dmitrymomot/libraryclient/pkg/logger"
	"github.com/dmitrymomot/libraryclient/pkg/redis"
)

// Credential store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Report storage backends.
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Config is read from the environment (and an optional .env file).
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LIBRARY_LOG_LEVEL" envDefault:"warn"`
	LogFormat   string `env:"LIBRARY_LOG_FORMAT" envDefault:"text"`

	APIURL         string        `env:"LIBRARY_API_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"LIBRARY_REQUEST_TIMEOUT" envDefault:"15s"`

	CredentialStore string `env:"LIBRARY_CREDENTIAL_STORE" envDefault:"file"`
	CredentialFile  string `env:"LIBRARY_CREDENTIAL_FILE"`
	CredentialKey   string `env:"LIBRARY_CREDENTIAL_KEY"` // base64 or hex, 32 bytes
	CredentialName  string `env:"LIBRARY_CREDENTIAL_NAME" envDefault:"token"`

	Redis redis.Config

	ReportStorage string        `env:"LIBRARY_REPORT_STORAGE" envDefault:"local"`
	ReportDir     string        `env:"LIBRARY_REPORT_DIR" envDefault:"reports"`
	S3            file.S3Config `envPrefix:"LIBRARY_S3_"`
}

// loadConfig reads Config, loading envFiles first.
func loadConfig(envFiles ...string) (Config, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.LogFormat {
	case string(logger.FormatText), string(logger.FormatJSON):
	default:
		return fmt.Errorf("LIBRARY_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	switch c.CredentialStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("LIBRARY_CREDENTIAL_STORE: unknown backend %q", c.CredentialStore)
	}
	switch c.ReportStorage {
	case ArchiveNone, ArchiveLocal, ArchiveS3:
	default:
		return fmt.Errorf("LIBRARY_REPORT_STORAGE: unknown backend %q", c.ReportStorage)
	}
	if c.ReportStorage == ArchiveS3 && c.S3.Bucket == "" {
		return fmt.Errorf("LIBRARY_S3_BUCKET is required for s3 report storage")
	}
	return nil
}
