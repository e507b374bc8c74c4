package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Taichi-iskw/yt-shorts/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_ImportResolveDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "Talk.MP4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0644))

	ref, err := store.Import(KindSource, src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "sources/"))
	assert.True(t, strings.HasSuffix(ref, ".mp4"))

	path, err := store.Resolve(ref)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))

	require.NoError(t, store.Delete(ref))
	require.NoError(t, store.Delete(ref))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStore_Errors(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Import(KindSource, filepath.Join(t.TempDir(), "missing.mp4"))
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, _, err = store.Allocate("thumbnails", ".png")
	assert.True(t, errors.Is(err, errors.CodeInvalidArg))

	for _, ref := range []string{"", "../etc/passwd", "previews/../../x", "."} {
		_, err := store.Resolve(ref)
		assert.True(t, errors.Is(err, errors.CodeInvalidArg), ref)
	}
}
