// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package emit

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileSystem opens files for writing and reading back. Create truncates an
// existing file.
type FileSystem interface {
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
}

// ReadFile reads a whole file from fs.
func ReadFile(fs FileSystem, path string) (string, error) {
	r, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// OSFS writes to the operating system's file system.
type OSFS struct {
	// Dir, if set, is prepended to relative paths.
	Dir string
	// MkdirAll creates missing parent directories.
	MkdirAll bool
}

func (fs OSFS) resolve(path string) string {
	if fs.Dir != "" && !filepath.IsAbs(path) {
		return filepath.Join(fs.Dir, path)
	}
	return path
}

// Create truncates or creates the file at path.
func (fs OSFS) Create(path string) (io.WriteCloser, error) {
	path = fs.resolve(path)
	if fs.MkdirAll {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// Open opens the file at path for reading.
func (fs OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(fs.resolve(path))
}

// MemFS keeps written files in memory. It is safe for concurrent use.
type MemFS struct {
	mu    sync.Mutex
	files map[string]string
	// Fail, if set, makes Create fail for the paths it reports true for.
	Fail func(path string) bool
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]string)}
}

// Create truncates the file at path and returns a writer for it. The content
// becomes visible when the writer is closed.
func (m *MemFS) Create(path string) (io.WriteCloser, error) {
	if m.Fail != nil && m.Fail(path) {
		return nil, &os.PathError{Op: "create", Path: path, Err: os.ErrPermission}
	}
	m.mu.Lock()
	m.files[path] = ""
	m.mu.Unlock()
	return &memFile{fs: m, path: path}, nil
}

// Open returns a reader over the content of a file.
func (m *MemFS) Open(path string) (io.ReadCloser, error) {
	text, ok := m.ReadFile(path)
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// ReadFile returns the content of a file.
func (m *MemFS) ReadFile(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[path]
	return text, ok
}

// WriteFile sets the content of a file.
func (m *MemFS) WriteFile(path, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = text
}

// Paths lists all files, sorted.
func (m *MemFS) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

type memFile struct {
	fs     *MemFS
	path   string
	buf    strings.Builder
	closed bool
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.buf.Write(p)
}

func (f *memFile) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true
	f.fs.WriteFile(f.path, f.buf.String())
	return nil
}
