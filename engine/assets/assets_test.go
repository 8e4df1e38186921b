package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineAssetType(t *testing.T) {
	cases := map[string]AssetType{
		"shaders/text.vert.spv": AssetTypeShader,
		"shaders/main.frag":     AssetTypeShader,
		"textures/crate.PNG":    AssetTypeImage,
		"fonts/mono.fnt":        AssetTypeFont,
		"fonts/go.ttf":          AssetTypeFont,
		"config.toml":           AssetTypeNone,
		"README":                AssetTypeNone,
	}
	for path, want := range cases {
		assert.Equal(t, want, DetermineAssetType(path), path)
	}
}

func waitChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c, ok := <-w.Changes():
		require.True(t, ok, "changes closed")
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	return Change{}
}

func TestWatcherIndexesAndReportsChanges(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "screen.frag.spv")
	require.NoError(t, os.WriteFile(existing, []byte{1}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(dir))

	info, ok := w.Lookup(existing)
	require.True(t, ok)
	assert.Equal(t, AssetTypeShader, info.Type)
	assert.Equal(t, 1, w.Len())

	// unknown extensions are not reported
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(existing, []byte{2}, 0o644))

	c := waitChange(t, w)
	assert.Equal(t, existing, c.Path)
	assert.Equal(t, AssetTypeShader, c.Type)
	assert.False(t, c.Removed)
}

func TestWatcherReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlas.png")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0o644))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(dir))

	require.NoError(t, os.Remove(path))
	c := waitChange(t, w)
	assert.True(t, c.Removed)
	assert.Equal(t, AssetTypeImage, c.Type)
	_, ok := w.Lookup(path)
	assert.False(t, ok)
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Watch(t.TempDir()), ErrWatcherClosed)

	_, ok := <-w.Changes()
	assert.False(t, ok)
}
