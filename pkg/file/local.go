package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps files under baseDir.
// All operations are confined to baseDir.
type LocalStorage struct {
	baseDir      string // absolute
	baseURL      string
	writeTimeout time.Duration
}

// LocalOption configures LocalStorage.
type LocalOption func(*LocalStorage)

// WithLocalWriteTimeout bounds a single Save.
func WithLocalWriteTimeout(timeout time.Duration) LocalOption {
	return func(s *LocalStorage) {
		s.writeTimeout = timeout
	}
}

// NewLocalStorage creates baseDir if needed. baseURL prefixes the URLs
// returned by URL; when empty, URL returns file:// URLs.
func NewLocalStorage(baseDir, baseURL string, opts ...LocalOption) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve base directory: %v", ErrFailedToGetAbsolutePath, err)
	}
	if err := os.MkdirAll(absBaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &LocalStorage{baseDir: absBaseDir, baseURL: baseURL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BaseDir returns the absolute storage root.
func (s *LocalStorage) BaseDir() string { return s.baseDir }

// Save streams body into key, removing the partial file on failure or
// cancellation.
func (s *LocalStorage) Save(ctx context.Context, key string, body io.Reader, contentType string) (*File, error) {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, ErrNilReader
	}

	absPath, rel, err := s.resolvePath(key)
	if err != nil {
		return nil, err
	}
	if rel == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}
	defer func() { _ = dst.Close() }()

	fail := func(err error) (*File, error) {
		_ = dst.Close()
		_ = os.Remove(absPath)
		return nil, err
	}

	src := bufio.NewReaderSize(body, 32*1024)
	head, _ := src.Peek(sniffLen)
	if contentType == "" {
		contentType = DetectMIMEType(rel, head)
	}

	var written int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctxErr(ctx); err != nil {
			return fail(err)
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				return fail(fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr))
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr))
		}
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	return &File{
		Filename:     path.Base(rel),
		Size:         written,
		MIMEType:     contentType,
		Extension:    path.Ext(rel),
		AbsolutePath: absPath,
		RelativePath: rel,
	}, nil
}

// Delete removes a single file.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	absPath, _, err := s.resolvePath(key)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, key)
		}
		return fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, key)
	}
	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err)
	}
	return nil
}

// Exists reports whether key exists. Invalid keys do not exist.
func (s *LocalStorage) Exists(ctx context.Context, key string) bool {
	if ctxErr(ctx) != nil {
		return false
	}
	absPath, _, err := s.resolvePath(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(absPath)
	return err == nil
}

// List returns the direct children of dir.
func (s *LocalStorage) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	absPath, rel, err := s.resolvePath(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadDirectory, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		e := Entry{Name: de.Name(), Path: path.Join(rel, de.Name()), IsDir: de.IsDir()}
		if !de.IsDir() {
			e.Size = fi.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// URL returns the public URL of key.
func (s *LocalStorage) URL(key string) string {
	key, err := cleanKey(key)
	if err != nil {
		return ""
	}
	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	}
	return s.baseURL + key
}

// resolvePath maps key to an absolute path inside baseDir and returns the
// cleaned slash separated key alongside.
func (s *LocalStorage) resolvePath(key string) (string, string, error) {
	rel, err := cleanKey(key)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", err, key)
	}
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}
	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) && absPath != s.baseDir {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}
	return absPath, rel, nil
}
