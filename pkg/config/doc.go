// Package config loads typed configuration from the process environment.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Each configuration type is
// parsed once and cached by its type name for the lifetime of the process.
//
//	type Config struct {
//	    APIBaseURL string        `env:"LIBRARY_API_URL" envDefault:"http://localhost:8080"`
//	    Timeout    time.Duration `env:"LIBRARY_REQUEST_TIMEOUT" envDefault:"15s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// LoadEnv reads explicit .env files before parsing; Load reads the default .env
// in the working directory once, ignoring its absence. Variables already set in
// the environment always win over file values.
//
// Errors can be matched with errors.Is: ErrParsingConfig, ErrNilPointer,
// ErrLoadingEnvFile, ErrConfigNotLoaded. ResetCache clears the cache between
// tests.
package config
