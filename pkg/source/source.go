// Package source loads script files for the interpreter.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

var ErrOutsideRoot = errors.New("path escapes import root")

type LocalOptions struct {
	// Root confines reads to a directory tree. Empty means unrestricted.
	Root string
	// Lock takes a shared advisory lock on each file while it is read.
	Lock bool
}

// Local reads files from the local filesystem.
type Local struct {
	opts LocalOptions
}

func NewLocal(opts LocalOptions) *Local {
	return &Local{opts: opts}
}

func (l *Local) ReadFile(path string) ([]byte, error) {
	if l.opts.Root != "" {
		clean, err := SanitizePath(l.opts.Root, path)
		if err != nil {
			return nil, err
		}
		path = clean
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if !l.opts.Lock {
		return os.ReadFile(path)
	}
	lock := flock.New(path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()
	return os.ReadFile(path)
}

// SanitizePath resolves path and verifies it lies inside root once
// symlinks are followed.
func SanitizePath(root, path string) (string, error) {
	realRoot, err := resolve(root)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(realRoot, path)
	}
	realPath, err := resolve(path)
	if err != nil {
		return "", err
	}
	if realPath == realRoot {
		return realPath, nil
	}
	prefix := realRoot
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	if !strings.HasPrefix(realPath, prefix) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return realPath, nil
}

// resolve returns the absolute, symlink-free form of path. A missing final
// element is allowed so the caller gets a not-exist error from the read.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return filepath.Clean(resolved), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

// Memory serves files from a map, keyed by cleaned path.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		m.Put(k, v)
	}
	return m
}

func (m *Memory) Put(path, content string) {
	m.mu.Lock()
	m.files[filepath.Clean(path)] = []byte(content)
	m.mu.Unlock()
}

func (m *Memory) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}
