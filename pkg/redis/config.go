package redis

import "time"

// Config describes how to reach Redis.
type Config struct {
	ConnectionURL  string        `env:"LIBRARY_REDIS_URL" envDefault:"redis://localhost:6379/0"` // redis://:password@host:6379/0
	KeyPrefix      string        `env:"LIBRARY_REDIS_KEY_PREFIX" envDefault:"library:credential:"`
	RetryAttempts  int           `env:"LIBRARY_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"LIBRARY_REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"LIBRARY_REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}
