package credential

import (
	"context"
	"time"
)

// DefaultKey names the single persisted credential entry.
const DefaultKey = "token"

// Store persists one credential.
type Store interface {
	// Load returns the stored token or ErrNotFound.
	Load(ctx context.Context) (string, error)
	// Save replaces the stored token.
	Save(ctx context.Context, token string) error
	// Clear removes the token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Watcher reports credential changes made outside this process.
type Watcher interface {
	// Watch calls fn with the new token ("" when removed) until ctx is done.
	// It returns once watching has started.
	Watch(ctx context.Context, fn func(token string)) error
}

// Sealer encrypts the token at rest. *secrets.Sealer implements it.
type Sealer interface {
	SealString(plaintext string) (string, error)
	OpenString(sealed string) (string, error)
}

type record struct {
	Token   string    `json:"token"`
	Sealed  bool      `json:"sealed,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

func seal(s Sealer, token string) (record, error) {
	rec := record{Token: token, SavedAt: time.Now().UTC()}
	if s == nil {
		return rec, nil
	}
	sealed, err := s.SealString(token)
	if err != nil {
		return record{}, err
	}
	rec.Token = sealed
	rec.Sealed = true
	return rec, nil
}

func unseal(s Sealer, rec record) (string, error) {
	if !rec.Sealed {
		if rec.Token == "" {
			return "", ErrNotFound
		}
		return rec.Token, nil
	}
	if s == nil {
		return "", ErrSealed
	}
	token, err := s.OpenString(rec.Token)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}
