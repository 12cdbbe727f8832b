package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	require := require.New(t)

	root, err := os.MkdirTemp("", "udpfs-storage-test")
	require.Nil(err)
	defer os.RemoveAll(root)

	_, err = NewFileStore(filepath.Join(root, "missing"), 0)
	require.NotNil(err)

	err = os.Mkdir(filepath.Join(root, "nested"), 0755)
	require.Nil(err)
	err = os.WriteFile(filepath.Join(root, "report.txt"), []byte("quarterly report"), 0644)
	require.Nil(err)

	for _, size := range []int{0, 1} {
		store, err := NewFileStore(root, size)
		require.Nil(err)

		entries, err := store.List()
		require.Nil(err)
		require.Len(entries, 1)
		require.Equal("report.txt", entries[0].Name)
		require.Equal(int64(16), entries[0].Size)

		data, err := store.Read("report.txt")
		require.Nil(err)
		require.Equal("quarterly report", string(data))
		data, err = store.Read("report.txt")
		require.Nil(err)
		require.Equal("quarterly report", string(data))

		_, err = store.Read("missing.txt")
		require.True(errors.Is(err, os.ErrNotExist))
		_, err = store.Read("nested")
		require.NotNil(err)

		n, err := store.Write("report.txt", []byte("annual report, revised"))
		require.Nil(err)
		require.Equal(22, n)
		data, err = store.Read("report.txt")
		require.Nil(err)
		require.Equal("annual report, revised", string(data))

		n, err = store.Write("report.txt", []byte("quarterly report"))
		require.Nil(err)
		require.Equal(16, n)
	}
}

func TestFileStoreNames(t *testing.T) {
	require := require.New(t)

	root, err := os.MkdirTemp("", "udpfs-storage-test")
	require.Nil(err)
	defer os.RemoveAll(root)

	store, err := NewFileStore(root, 1)
	require.Nil(err)

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b", "a\\b", "/abs", "nul\x00"} {
		require.Equal(ErrInvalidName, ValidName(name), name)
		_, err := store.Read(name)
		require.Equal(ErrInvalidName, err)
		_, err = store.Write(name, []byte("x"))
		require.Equal(ErrInvalidName, err)
	}
	require.Nil(ValidName("report.txt"))
	require.Nil(ValidName(".hidden"))
}
