package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-cad/pkg/cadfmt"
)

func writeAsset(t *testing.T, dir, file, name string) string {
	t.Helper()
	a := (&cadfmt.Builder{Name: name, Bodies: []cadfmt.Body{{}}}).Build(nil)
	path := filepath.Join(dir, file)
	require.NoError(t, a.WriteFile(path))
	return path
}

func TestLoadSearchesDirsInReverse(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writeAsset(t, low, "part.zcad", "low")
	writeAsset(t, high, "part.zcad", "high")

	m := NewManager()
	require.NoError(t, m.AddDir(low))
	require.NoError(t, m.AddDir(high))

	a, err := m.Load("part.zcad")
	require.NoError(t, err)
	assert.Equal(t, "high", a.Name)
}

func TestLoadCaches(t *testing.T) {
	dir := t.TempDir()
	path := writeAsset(t, dir, "part.zcad", "")

	m := NewManager()
	a1, err := m.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "part.zcad", a1.Name, "unnamed assets take the file name")

	a2, err := m.Load(path)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	hits, misses := m.cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	m.Invalidate(path)
	a3, err := m.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)
}

func TestLoadErrors(t *testing.T) {
	m := NewManager()
	_, err := m.Load("missing.zcad")
	assert.ErrorIs(t, err, ErrNotFound)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.zcad")
	require.NoError(t, os.WriteFile(bad, []byte("NOPE0000"), 0644))
	_, err = m.Load(bad)
	assert.ErrorIs(t, err, cadfmt.ErrInvalidMagic)

	assert.Error(t, m.AddDir(bad))
}
