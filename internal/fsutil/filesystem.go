// Package fsutil provides the small filesystem surface the report writer
// needs, with an in-memory implementation for tests.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSystem abstracts the write side of report output.
// Use OSFileSystem in production; MemoryFileSystem in tests.
type FileSystem interface {
	// Create creates or truncates the named file.
	Create(name string) (io.WriteCloser, error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	Exists(name string) bool
}

// OSFileSystem implements FileSystem using the os package.
type OSFileSystem struct{}

func (OSFileSystem) Create(name string) (io.WriteCloser, error) { return os.Create(name) }

func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// MemoryFileSystem keeps files in a map. Written data becomes visible when
// the writer returned by Create is closed.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemoryFileSystem creates an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	name = filepath.Clean(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirs[filepath.Dir(name)] && filepath.Dir(name) != "." {
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrNotExist}
	}
	m.files[name] = nil
	return &memWriter{fs: m, name: name}, nil
}

func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryFileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for p := filepath.Clean(path); p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

func (m *MemoryFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	if _, ok := m.files[name]; ok {
		return true
	}
	return m.dirs[name]
}

// Files returns the names of all stored files.
func (m *MemoryFileSystem) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	return names
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
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.files[w.name] = w.buf
	return nil
}

// SanitizeFilename makes a safe file name from an arbitrary label. Runs of
// characters other than ASCII letters, digits, dot, underscore or dash become
// a single underscore; the result is capped at 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
