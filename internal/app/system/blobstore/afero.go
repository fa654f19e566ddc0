package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// AferoStore keeps blobs on an afero filesystem. Locations are urlPrefix
// joined with the blob path.
type AferoStore struct {
	fs        afero.Fs
	urlPrefix string
}

// NewLocal stores blobs under root on the OS filesystem.
func NewLocal(root, urlPrefix string) *AferoStore {
	return &AferoStore{fs: afero.NewBasePathFs(afero.NewOsFs(), root), urlPrefix: urlPrefix}
}

// NewMemory keeps blobs in process memory.
func NewMemory() *AferoStore {
	return &AferoStore{fs: afero.NewMemMapFs(), urlPrefix: "mem://"}
}

// Fs exposes the backing filesystem for serving local files.
func (s *AferoStore) Fs() afero.Fs { return s.fs }

func (s *AferoStore) Put(ctx context.Context, p string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("blob mkdir: %w", err)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return "", fmt.Errorf("blob create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(p)
		return "", fmt.Errorf("blob write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("blob close: %w", err)
	}
	return s.location(p), nil
}

func (s *AferoStore) Delete(_ context.Context, p string) error {
	if s.urlPrefix != "" {
		p = strings.TrimPrefix(p, s.urlPrefix)
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob delete: %w", err)
	}
	return nil
}

// Exists reports whether p is stored.
func (s *AferoStore) Exists(p string) bool {
	ok, _ := afero.Exists(s.fs, strings.TrimPrefix(path.Clean("/"+p), "/"))
	return ok
}

func (s *AferoStore) location(p string) string {
	if s.urlPrefix == "" {
		return p
	}
	if strings.HasSuffix(s.urlPrefix, "/") {
		return s.urlPrefix + p
	}
	return s.urlPrefix + "/" + p
}
