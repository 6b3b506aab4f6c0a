package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrStorage wraps any blob-store failure. Callers treat an upload failure
// as recoverable: the attachment is dropped, the message still goes out.
var ErrStorage = errors.New("blob storage failure")

// BlobStore stores an attachment and returns a URL clients can fetch it
// from. The folder hint groups attachments ("messages", "voiceNotes").
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, filename, folder string) (string, error)
}

// DiskStore writes blobs under BaseDir and serves them under BaseURL.
type DiskStore struct {
	BaseDir string
	BaseURL string
}

func NewDiskStore(baseDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{BaseDir: baseDir, BaseURL: baseURL}, nil
}

func (d *DiskStore) Store(ctx context.Context, r io.Reader, filename, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(filename)
	dir := filepath.Join(d.BaseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Join(ErrStorage, err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Join(ErrStorage, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", errors.Join(ErrStorage, err)
	}

	return d.BaseURL + "/" + path.Join(folder, name), nil
}
