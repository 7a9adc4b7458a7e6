package credential

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrymomot/libraryclient/pkg/logger"
)

// FileStore persists the credential as JSON in a single file.
type FileStore struct {
	path   string
	sealer Sealer
	logger *slog.Logger

	mu   sync.Mutex
	last string // token as of the latest write or observed change
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileSealer encrypts the token before it is written.
func WithFileSealer(s Sealer) FileOption {
	return func(f *FileStore) { f.sealer = s }
}

// WithFileLogger sets the logger used by Watch.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *FileStore) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFileStore returns a store backed by path. The file and its directory are
// created on first Save.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{
		path:   filepath.Clean(path),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultFilePath returns <user config dir>/libraryclient/credential.json.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "libraryclient", "credential.json")
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Load reads and unseals the token. A missing file is ErrNotFound.
func (f *FileStore) Load(_ context.Context) (string, error) {
	return f.read()
}

// Save writes the token atomically with 0600 permissions.
func (f *FileStore) Save(_ context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	rec, err := seal(f.sealer, token)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := writeAtomic(f.path, data); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	f.last = token
	return nil
}

// Clear removes the credential file.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrStoreFailed, err)
	}
	f.last = ""
	return nil
}

// Watch observes the credential file's directory and calls fn whenever the
// stored token differs from the one this store last wrote or reported.
func (f *FileStore) Watch(ctx context.Context, fn func(token string)) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}

	f.mu.Lock()
	if token, err := f.read(); err == nil {
		f.last = token
	} else {
		f.last = ""
	}
	f.mu.Unlock()

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				f.notify(fn)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Debug("credential watch error", logger.Component("credential"), logger.Error(err))
			}
		}
	}()
	return nil
}

func (f *FileStore) notify(fn func(string)) {
	token, err := f.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		// partial or foreign content; wait for the next event
		f.logger.Debug("credential file unreadable", logger.Component("credential"), logger.Error(err))
		return
	}

	f.mu.Lock()
	if token == f.last {
		f.mu.Unlock()
		return
	}
	f.last = token
	f.mu.Unlock()

	fn(token)
}

func (f *FileStore) read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", errors.Join(ErrCorrupted, err)
	}
	token, err := unseal(f.sealer, rec)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrSealed) {
		return "", errors.Join(ErrCorrupted, err)
	}
	return token, err
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
