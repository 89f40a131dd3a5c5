package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFileSystem keeps files in a map. Writing a file registers its
// parent directories.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	modes map[string]os.FileMode
	dirs  map[string]bool
}

// NewMemoryFileSystem returns an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string][]byte),
		modes: make(map[string]os.FileMode),
		dirs:  make(map[string]bool),
	}
}

func notExist(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}

// addParents must be called with the write lock held.
func (m *MemoryFileSystem) addParents(name string) {
	for p := filepath.Dir(name); p != "." && p != "/" && !m.dirs[p]; p = filepath.Dir(p) {
		m.dirs[p] = true
	}
}

func (m *MemoryFileSystem) put(name string, data []byte, perm os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	m.modes[name] = perm
	m.addParents(name)
}

func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	data, ok := m.files[name]
	if !ok {
		return nil, notExist("open", name)
	}
	return &memReader{name: name, data: data}, nil
}

func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	name = filepath.Clean(name)
	m.put(name, nil, 0o644)
	return &memWriter{fs: m, name: name}, nil
}

func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	data, ok := m.files[name]
	if !ok {
		return nil, notExist("read", name)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.put(filepath.Clean(name), append([]byte(nil), data...), perm)
	return nil
}

func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	if m.dirs[name] {
		return &memInfo{name: filepath.Base(name), dir: true}, nil
	}
	data, ok := m.files[name]
	if !ok {
		return nil, notExist("stat", name)
	}
	return &memInfo{name: filepath.Base(name), size: int64(len(data)), mode: m.modes[name]}, nil
}

func (m *MemoryFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	if !m.dirs[name] && name != "/" {
		return nil, notExist("readdir", name)
	}
	var out []fs.DirEntry
	for d := range m.dirs {
		if d != name && filepath.Dir(d) == name {
			out = append(out, fs.FileInfoToDirEntry(&memInfo{name: filepath.Base(d), dir: true}))
		}
	}
	for f, data := range m.files {
		if filepath.Dir(f) == name {
			out = append(out, fs.FileInfoToDirEntry(&memInfo{name: filepath.Base(f), size: int64(len(data)), mode: m.modes[f]}))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (m *MemoryFileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.dirs[path] = true
	m.addParents(path)
	return nil
}

func (m *MemoryFileSystem) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	under := func(p string) bool { return p == path || strings.HasPrefix(p, path+"/") }
	for f := range m.files {
		if under(f) {
			delete(m.files, f)
			delete(m.modes, f)
		}
	}
	for d := range m.dirs {
		if under(d) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = filepath.Clean(name)
	_, ok := m.files[name]
	return ok || m.dirs[name]
}

type memReader struct {
	name   string
	data   []byte
	offset int
}

func (r *memReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

func (r *memReader) Close() error { return nil }

func (r *memReader) Stat() (fs.FileInfo, error) {
	return &memInfo{name: filepath.Base(r.name), size: int64(len(r.data))}, nil
}

type memWriter struct {
	fs   *MemoryFileSystem
	name string
	buf  []byte
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *memWriter) Close() error {
	w.fs.put(w.name, w.buf, 0o644)
	return nil
}

type memInfo struct {
	name string
	size int64
	mode os.FileMode
	dir  bool
}

func (i *memInfo) Name() string { return i.name }
func (i *memInfo) Size() int64  { return i.size }
func (i *memInfo) Mode() os.FileMode {
	if i.dir {
		return fs.ModeDir | 0o755
	}
	return i.mode
}
func (i *memInfo) ModTime() time.Time { return time.Time{} }
func (i *memInfo) IsDir() bool        { return i.dir }
func (i *memInfo) Sys() any           { return nil }
