package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3c/internal/blob/core"
)

func TestNewRequiresExistingDirectory(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(file)
	require.Error(t, err)
}

func TestHeadReadsExistingTree(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "b~p", "123")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("jpeg"), 0o644))

	s, err := New(root)
	require.NoError(t, err)
	assert.Equal(t, core.DriverFilesystem, s.Driver())

	info, err := s.Head(context.Background(), "b~p/123/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	_, err = s.Head(context.Background(), "b~p/123/photo.png")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Head(context.Background(), "b~p/123")
	require.ErrorIs(t, err, core.ErrNotFound, "directories are not blobs")
}

func TestPutCreateOnly(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	info, err := s.Put(ctx, "b~p/7/photo.png", strings.NewReader("png"), core.PutOptions{ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	_, err = s.Put(ctx, "b~p/7/photo.png", strings.NewReader("again"), core.PutOptions{})
	require.ErrorIs(t, err, core.ErrExists)
}

func TestKeySanitizing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, key := range []string{"", "  ", "../etc/passwd", "/abs"} {
		_, err := s.Head(context.Background(), key)
		require.Error(t, err, key)
		assert.NotErrorIs(t, err, core.ErrNotFound, key)
	}
}
