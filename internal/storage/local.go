package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Local stores objects as plain files below Root.
type Local struct {
	Root string
}

var _ Storage = (*Local)(nil)

// NewLocal returns a filesystem backend rooted at root. The directory is
// created on first write, not here.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Path returns the file path used for key.
func (l *Local) Path(key string) string {
	return filepath.Join(l.Root, filepath.FromSlash(key))
}

// Put creates all missing parent directories, then creates (or truncates) the
// file and copies r into it. On error the file may be missing or truncated.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	path := l.Path(key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create file %s: %w", path, err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return ObjectInfo{}, fmt.Errorf("write file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close file %s: %w", path, err)
	}

	return ObjectInfo{
		Key:          path,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: time.Now(),
	}, nil
}

// Delete removes the file stored under key.
func (l *Local) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping creates Root if needed and checks that it is a writable directory.
func (l *Local) Ping(ctx context.Context) error {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(l.Root, ".ping-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
