package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound is returned when a reference does not point to a stored object.
	ErrNotFound = errors.New("storage: object not found")
	// ErrExists is returned when a write targets a reference that already holds content.
	ErrExists = errors.New("storage: object already exists")
	// ErrInvalidRef is returned for references escaping the base directory or not in canonical form.
	ErrInvalidRef = errors.New("storage: invalid reference")
)

// LocalStorage persists write-once objects on disk under a base directory. References are
// slash-separated paths relative to that directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Create writes r to ref. The file is opened with O_EXCL so an existing object is never
// overwritten. A partial file left by a failed or cancelled copy is removed.
func (s *LocalStorage) Create(ctx context.Context, ref string, r io.Reader) (int64, error) {
	target, err := s.resolve(ref)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%w: %s", ErrExists, ref)
		}
		return 0, fmt.Errorf("create object: %w", err)
	}

	written, err := io.Copy(file, &contextReader{ctx: ctx, r: r})
	if err == nil {
		err = file.Sync()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return 0, fmt.Errorf("write object %s: %w", ref, err)
	}
	return written, nil
}

// Open returns a read-only handle for the stored object.
func (s *LocalStorage) Open(ref string) (*os.File, error) {
	target, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *LocalStorage) Delete(ref string) error {
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// ListOlderThan returns references of objects last modified before cutoff.
func (s *LocalStorage) ListOlderThan(cutoff time.Time) ([]string, error) {
	refs := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		refs = append(refs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return refs, nil
}

// Path exposes the on-disk location of a reference.
func (s *LocalStorage) Path(ref string) (string, error) {
	return s.resolve(ref)
}

func (s *LocalStorage) resolve(ref string) (string, error) {
	if ref == "" || path.Clean(ref) != ref || path.IsAbs(ref) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	local := filepath.FromSlash(ref)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(s.baseDir, local), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
