// ABOUTME: Attachment storage interface and local-disk implementation
// ABOUTME: Stored files get opaque uuid names; original names are not trusted

package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxFileSize bounds a single attachment.
const maxFileSize = 50 << 20 // 50 MiB

// Upload is one inbound file to persist.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Store persists attachments and returns the public URL for each, in the
// order given. A failure partway leaves earlier files on disk; callers
// treat the whole batch as failed.
type Store interface {
	Store(ctx context.Context, files []Upload) ([]string, error)
}

// Local writes attachments to a directory on disk and builds URLs from a
// configured base. The directory is created on construction.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates the upload directory if needed. baseURL is the public
// prefix clients reach the files under, without a trailing slash.
func NewLocal(dir, baseURL string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory files land in, for static serving.
func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Store(ctx context.Context, files []Upload) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Size > maxFileSize {
			return nil, fmt.Errorf("file %q exceeds size limit", f.Filename)
		}
		name := uuid.NewString() + safeExt(f.Filename)
		dst, err := os.Create(filepath.Join(l.dir, name))
		if err != nil {
			return nil, fmt.Errorf("creating attachment file: %w", err)
		}
		_, err = io.Copy(dst, io.LimitReader(f.Content, maxFileSize+1))
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("writing attachment: %w", err)
		}
		urls = append(urls, l.baseURL+"/uploads/"+name)
	}
	return urls, nil
}

// safeExt keeps only a plausible extension from the client filename. The
// stored name is otherwise a fresh uuid, so traversal in the original name
// cannot reach outside the directory.
func safeExt(filename string) string {
	ext := filepath.Ext(filepath.Base(strings.TrimSpace(filename)))
	if len(ext) > 16 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return strings.ToLower(ext)
}
