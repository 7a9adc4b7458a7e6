package credential

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces credential keys.
const DefaultRedisPrefix = "library:credential:"

// RedisStore keeps the credential under one Redis key.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	sealer Sealer
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisKey sets the key name appended to the prefix.
func WithRedisKey(prefix, name string) RedisOption {
	return func(s *RedisStore) {
		if name == "" {
			name = DefaultKey
		}
		s.key = prefix + name
	}
}

// WithRedisSealer encrypts the token before it is written.
func WithRedisSealer(sealer Sealer) RedisOption {
	return func(s *RedisStore) { s.sealer = sealer }
}

// NewRedisStore returns a store using client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    DefaultRedisPrefix + DefaultKey,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the full Redis key.
func (s *RedisStore) Key() string { return s.key }

// Load reads the token from redis. A missing key is ErrNotFound.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", errors.Join(ErrCorrupted, err)
	}
	return unseal(s.sealer, rec)
}

// Save writes token. JWT tokens expire from Redis together with their exp
// claim; an already expired token is not stored.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	var ttl time.Duration
	if exp, ok := Expiry(token); ok {
		ttl = exp.Sub(s.now())
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}

	rec, err := seal(s.sealer, token)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
