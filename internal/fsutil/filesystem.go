// Package fsutil abstracts the file operations used for trajectory writing,
// output loading and tree comparison so they can run against memory in
// tests.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileSystem is the subset of file operations flowcheck needs.
type FileSystem interface {
	Open(name string) (fs.File, error)
	// Create creates or truncates the named file. Parent directories are
	// not created.
	Create(name string) (io.WriteCloser, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	// ReadDir lists the direct children of a directory sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	Exists(name string) bool
}

// OSFileSystem is the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (OSFileSystem) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Exists reports whether name can be stat'ed.
func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// WalkFiles calls fn with the slash separated path, relative to root, of
// every regular file below root in lexical order.
func WalkFiles(fsys FileSystem, root string, fn func(rel string) error) error {
	return walk(fsys, root, "", fn)
}

func walk(fsys FileSystem, root, rel string, fn func(string) error) error {
	entries, err := fsys.ReadDir(filepath.Join(root, rel))
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		child := e.Name()
		if rel != "" {
			child = rel + "/" + e.Name()
		}
		if e.IsDir() {
			if err := walk(fsys, root, child, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}
