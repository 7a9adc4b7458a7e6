package file

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// File is the metadata of a stored object.
type File struct {
	Filename     string
	Size         int64
	MIMEType     string
	Extension    string
	AbsolutePath string // empty for S3
	RelativePath string
}

// Entry is one item of a listing.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// Storage is an archive backend.
type Storage interface {
	// Save writes body under key. An empty contentType is detected.
	Save(ctx context.Context, key string, body io.Reader, contentType string) (*File, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	// List returns the direct children of dir.
	List(ctx context.Context, dir string) ([]Entry, error)
	URL(key string) string
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// DetectMIMEType guesses the content type from the file extension, falling
// back to sniffing head.
func DetectMIMEType(name string, head []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

// ArchiveDirLayout is the time layout of the date directory ArchiveKey uses.
const ArchiveDirLayout = "2006/01/02"

// ArchiveKey files name under a date directory and stamps it with t, so
// repeated downloads of the same report never overwrite each other:
// "overdue-report.pdf" becomes "2025/05/01/overdue-report-20250501T120000Z.pdf".
func ArchiveKey(name string, t time.Time) string {
	name = SanitizeFilename(name)
	t = t.UTC()
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return path.Join(t.Format(ArchiveDirLayout), base+"-"+t.Format("20060102T150405Z")+ext)
}

// SanitizeFilename strips directories and NUL bytes from filename.
// Returns "unnamed" for empty or special directory references.
//
//	file.SanitizeFilename("../../../etc/passwd") // "passwd"
//	file.SanitizeFilename("C:\\reports\\a.pdf")   // "a.pdf"
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = path.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}
	return filename
}

// cleanKey normalizes an object key and rejects traversal.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(key), "/")
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	key = path.Clean(key)
	if key == "." {
		key = ""
	}
	return key, nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
