package file_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/libraryclient/pkg/file"
)

func TestNewLocalStorage(t *testing.T) {
	t.Parallel()

	_, err := file.NewLocalStorage("", "")
	assert.ErrorIs(t, err, file.ErrInvalidConfig)

	dir := filepath.Join(t.TempDir(), "nested", "reports")
	s, err := file.NewLocalStorage(dir, "")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.BaseDir())
}

func TestLocalStorage_Save(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "https://files.example.com")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("nested key", func(t *testing.T) {
		t.Parallel()
		f, err := storage.Save(ctx, "2025/05/01/overdue-report.pdf", bytes.NewReader(pdf), "")
		require.NoError(t, err)

		assert.Equal(t, "overdue-report.pdf", f.Filename)
		assert.Equal(t, int64(len(pdf)), f.Size)
		assert.Equal(t, "application/pdf", f.MIMEType)
		assert.Equal(t, ".pdf", f.Extension)
		assert.Equal(t, "2025/05/01/overdue-report.pdf", f.RelativePath)

		data, err := os.ReadFile(f.AbsolutePath)
		require.NoError(t, err)
		assert.Equal(t, pdf, data)

		info, err := os.Stat(f.AbsolutePath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("explicit content type", func(t *testing.T) {
		t.Parallel()
		f, err := storage.Save(ctx, "/leading/slash.bin", strings.NewReader("x"), "application/x-custom")
		require.NoError(t, err)
		assert.Equal(t, "application/x-custom", f.MIMEType)
		assert.Equal(t, "leading/slash.bin", f.RelativePath)
	})

	t.Run("path traversal", func(t *testing.T) {
		t.Parallel()
		f, err := storage.Save(ctx, "../../../etc/passwd", strings.NewReader("x"), "")
		assert.ErrorIs(t, err, file.ErrInvalidPath)
		assert.Nil(t, f)
	})

	t.Run("root key", func(t *testing.T) {
		t.Parallel()
		_, err := storage.Save(ctx, "/", strings.NewReader("x"), "")
		assert.ErrorIs(t, err, file.ErrInvalidPath)
	})

	t.Run("nil body", func(t *testing.T) {
		t.Parallel()
		_, err := storage.Save(ctx, "nil.txt", nil, "")
		assert.ErrorIs(t, err, file.ErrNilReader)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := storage.Save(cctx, "canceled.txt", strings.NewReader("x"), "")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, storage.Exists(ctx, "canceled.txt"))
	})
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n == 0 {
		return 0, errors.New("connection reset")
	}
	r.n--
	p[0] = 'x'
	return 1, nil
}

func TestLocalStorage_SaveRemovesPartialFile(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = storage.Save(ctx, "partial.pdf", &failingReader{n: 3}, "application/pdf")
	assert.ErrorIs(t, err, file.ErrFailedToReadFile)
	assert.False(t, storage.Exists(ctx, "partial.pdf"))
}

type slowReader struct{}

func (slowReader) Read(p []byte) (int, error) {
	time.Sleep(20 * time.Millisecond)
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}

func TestLocalStorage_WriteTimeout(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "", file.WithLocalWriteTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = storage.Save(context.Background(), "slow.bin", io.LimitReader(slowReader{}, 1<<20), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, storage.Exists(context.Background(), "slow.bin"))
}

func TestLocalStorage_DeleteExistsList(t *testing.T) {
	t.Parallel()
	storage, err := file.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"2025/05/01/a.pdf", "2025/05/01/b.pdf", "2025/05/02/c.pdf"} {
		_, err := storage.Save(ctx, key, bytes.NewReader(pdf), "")
		require.NoError(t, err)
	}

	entries, err := storage.List(ctx, "2025/05")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "01", entries[0].Name)
	assert.Equal(t, "2025/05/01", entries[0].Path)
	assert.True(t, entries[0].IsDir)

	entries, err = storage.List(ctx, "2025/05/01")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.pdf", entries[0].Name)
	assert.Equal(t, "2025/05/01/a.pdf", entries[0].Path)
	assert.Equal(t, int64(len(pdf)), entries[0].Size)

	_, err = storage.List(ctx, "2024")
	assert.ErrorIs(t, err, file.ErrDirectoryNotFound)
	_, err = storage.List(ctx, "2025/05/01/a.pdf")
	assert.ErrorIs(t, err, file.ErrNotDirectory)
	_, err = storage.List(ctx, "../")
	assert.ErrorIs(t, err, file.ErrInvalidPath)

	assert.True(t, storage.Exists(ctx, "2025/05/01/a.pdf"))
	assert.False(t, storage.Exists(ctx, "../outside"))

	require.NoError(t, storage.Delete(ctx, "2025/05/01/a.pdf"))
	assert.False(t, storage.Exists(ctx, "2025/05/01/a.pdf"))
	assert.ErrorIs(t, storage.Delete(ctx, "2025/05/01/a.pdf"), file.ErrFileNotFound)
	assert.ErrorIs(t, storage.Delete(ctx, "2025/05/02"), file.ErrIsDirectory)
}

func TestLocalStorage_URL(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	withBase, err := file.NewLocalStorage(dir, "https://files.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/2025/a.pdf", withBase.URL("/2025/a.pdf"))
	assert.Empty(t, withBase.URL("../a.pdf"))

	plain, err := file.NewLocalStorage(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(plain.BaseDir(), "a.pdf")), plain.URL("a.pdf"))
}
