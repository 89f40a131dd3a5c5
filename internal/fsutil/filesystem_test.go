package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_CreateReadDir(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()

	require.NoError(t, fsys.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	w, err := fsys.Create(filepath.Join(dir, "a.dat"))
	require.NoError(t, err)
	_, err = w.Write([]byte("1 2\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.dat", entries[0].Name())
	assert.True(t, entries[1].IsDir())

	require.NoError(t, fsys.RemoveAll(dir))
	assert.False(t, fsys.Exists(dir))
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	require.NoError(t, mfs.WriteFile("/test.txt", []byte("hello, world"), 0o644))
	data, err := mfs.ReadFile("/test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(data))

	// returned data must not alias the stored copy
	data[0] = 'X'
	again, _ := mfs.ReadFile("/test.txt")
	assert.Equal(t, "hello, world", string(again))
}

func TestMemoryFileSystem_CreateAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/created.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("created content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := mfs.Open("/out/created.txt")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "created content", string(data))

	info, err := mfs.Stat("/out")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("/missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = mfs.Stat("/missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = mfs.ReadDir("/missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/root/b.dat", nil, 0o644))
	require.NoError(t, mfs.WriteFile("/root/a/x.dat", nil, 0o644))
	require.NoError(t, mfs.MkdirAll("/root/empty", 0o755))

	entries, err := mfs.ReadDir("/root")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"a", "b.dat", "empty"}, names)
	assert.True(t, entries[0].IsDir())
	assert.False(t, entries[1].IsDir())
}

func TestMemoryFileSystem_RemoveAll(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/dir/sub/file.txt", []byte("x"), 0o644))
	require.NoError(t, mfs.WriteFile("/dirty.txt", []byte("y"), 0o644))

	require.NoError(t, mfs.RemoveAll("/dir"))
	assert.False(t, mfs.Exists("/dir/sub/file.txt"))
	assert.False(t, mfs.Exists("/dir"))
	assert.True(t, mfs.Exists("/dirty.txt"))
}

func TestWalkFiles(t *testing.T) {
	for name, fsys := range map[string]FileSystem{"memory": NewMemoryFileSystem(), "os": OSFileSystem{}} {
		t.Run(name, func(t *testing.T) {
			root := "/tree"
			if _, ok := fsys.(OSFileSystem); ok {
				root = t.TempDir()
			}
			require.NoError(t, fsys.MkdirAll(filepath.Join(root, "b"), 0o755))
			require.NoError(t, fsys.WriteFile(filepath.Join(root, "b", "2.dat"), nil, os.FileMode(0o644)))
			require.NoError(t, fsys.WriteFile(filepath.Join(root, "a.dat"), nil, 0o644))

			var got []string
			err := WalkFiles(fsys, root, func(rel string) error {
				got = append(got, rel)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"a.dat", "b/2.dat"}, got)
		})
	}
}
