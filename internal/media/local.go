package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store is a place images can be removed from.
type Store interface {
	// Name identifies the backend in log lines.
	Name() string
	// Resolve maps a stored image path to a backend key; ok is false when the
	// path does not belong to this backend.
	Resolve(raw string) (key string, ok bool)
	// Remove deletes key and reports whether something was removed. A missing
	// key is not an error.
	Remove(ctx context.Context, key string) (bool, error)
}

// LocalStore keeps images under a directory on the server's disk.
type LocalStore struct {
	root          string
	rootName      string
	defaultSubdir string
}

// NewLocalStore creates a store rooted at the uploads directory (typically
// ./uploads). Stored paths may carry that directory's name as their first
// segment ("uploads/a.jpg") or be bare file names ("a.jpg").
func NewLocalStore(root, defaultSubdir string) *LocalStore {
	name := filepath.Base(filepath.Clean(root))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	return &LocalStore{root: root, rootName: name, defaultSubdir: defaultSubdir}
}

func (s *LocalStore) Name() string { return "local" }

// Resolve maps "uploads/a.jpg" to "a.jpg" and "b.jpg" to "<defaultSubdir>/b.jpg",
// both relative to the uploads directory.
func (s *LocalStore) Resolve(raw string) (string, bool) {
	key, ok := NormalizeRelative(raw, s.defaultSubdir)
	if !ok {
		return "", false
	}
	if s.rootName != "" {
		if rest, found := strings.CutPrefix(key, s.rootName+"/"); found {
			key = rest
		}
	}
	return key, true
}

func (s *LocalStore) Remove(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", full, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("refusing to remove directory %s", full)
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove %s: %w", full, err)
	}
	return true, nil
}
