package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("img"), 0o644))
	return full
}

// uploadsDir returns <tmp>/uploads, laid out like the service's UPLOADS_DIR.
func uploadsDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func TestPrune_BothStoredPathForms(t *testing.T) {
	uploads := uploadsDir(t)
	a := writeFile(t, uploads, "a.jpg")
	b := writeFile(t, uploads, "products/b.jpg")

	p := NewPruner(NewLocalStore(uploads, "products"))
	n := p.Prune(context.Background(), []string{"uploads/a.jpg", "b.jpg", "/uploads/a.jpg"})

	assert.Equal(t, 2, n)
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.DirExists(t, filepath.Join(uploads, "products"))
}

func TestLocalStore_Resolve(t *testing.T) {
	s := NewLocalStore(filepath.Join("srv", "uploads"), "products")
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"uploads/a.jpg", "a.jpg", true},
		{"/uploads/products/7/a.jpg", "products/7/a.jpg", true},
		{"b.jpg", "products/b.jpg", true},
		{"variants/c.png", "variants/c.png", true},
		{"uploads/../../etc/passwd", "", false},
		{"https://cdn.example.com/a.jpg", "", false},
	}
	for _, tt := range tests {
		got, ok := s.Resolve(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	// A root without a meaningful base name leaves keys untouched.
	got, ok := NewLocalStore(".", "products").Resolve("uploads/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "uploads/a.jpg", got)
}

func TestPrune_MissingFilesAreNotErrors(t *testing.T) {
	root := uploadsDir(t)
	p := NewPruner(NewLocalStore(root, "products"))
	assert.Equal(t, 0, p.Prune(context.Background(), []string{"gone.jpg", "uploads/gone.jpg"}))
}

func TestPrune_FailureDoesNotStopOthers(t *testing.T) {
	root := uploadsDir(t)
	// A directory where a file is expected cannot be removed as an image.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "broken.jpg", "x"), 0o755))
	ok1 := writeFile(t, root, "ok1.jpg")
	ok2 := writeFile(t, root, "ok2.jpg")

	p := NewPruner(NewLocalStore(root, "products"))
	n := p.Prune(context.Background(), []string{"uploads/ok1.jpg", "uploads/broken.jpg", "uploads/ok2.jpg"})

	assert.Equal(t, 2, n)
	assert.NoFileExists(t, ok1)
	assert.NoFileExists(t, ok2)
	assert.DirExists(t, filepath.Join(root, "broken.jpg"))
}

func TestPrune_SkipsUnresolvablePaths(t *testing.T) {
	root := uploadsDir(t)
	outside := writeFile(t, filepath.Dir(root), "outside.jpg")

	p := NewPruner(NewLocalStore(root, "products"))
	n := p.Prune(context.Background(), []string{"https://cdn.example.com/a.jpg", "../outside.jpg", ""})

	assert.Equal(t, 0, n)
	assert.FileExists(t, outside)
}

func TestPrune_CancelledContext(t *testing.T) {
	root := uploadsDir(t)
	a := writeFile(t, root, "a.jpg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPruner(NewLocalStore(root, "products"))
	assert.Equal(t, 0, p.Prune(ctx, []string{"uploads/a.jpg"}))
	assert.FileExists(t, a)
}
