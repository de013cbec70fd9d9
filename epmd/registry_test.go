package epmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nspcc-dev/erldist/nodename"
)

func TestFileRegistryPutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	reg, err := OpenFileRegistry(path)
	require.NoError(t, err)
	defer reg.Close()

	entry := NodeEntry{Name: "foo", Port: 9999, Type: nodename.TypeNormal, HighestVersion: 6, LowestVersion: 5}
	require.NoError(t, reg.Put(entry))

	got, err := reg.Get("foo")
	require.NoError(t, err)
	require.Equal(t, entry, *got)

	missing, err := reg.Get("bar")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, reg.Delete("foo"))
	gone, err := reg.Get("foo")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestFileRegistryList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	reg, err := OpenFileRegistry(path)
	require.NoError(t, err)
	defer reg.Close()

	require.NoError(t, reg.Put(NodeEntry{Name: "a", Port: 1}))
	require.NoError(t, reg.Put(NodeEntry{Name: "b", Port: 2}))

	entries, err := reg.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
