// Package fsys abstracts the handful of file-system calls the blob provider
// performs, so fault scenarios (delete retries, failed writes, vanished
// directories) can be injected deterministically in tests.
//
//   - [Local]: production implementation backed by the os package
//   - [Faulty]: test double with rule-based fault injection
package fsys

import (
	"io"
	"os"
)

// File is an open file being written. The provider syncs before publishing.
type File interface {
	io.WriteCloser
	Sync() error
}

// FS is the set of file-system operations the provider needs.
type FS interface {
	Stat(name string) (os.FileInfo, error)
	// OpenRead opens an existing file for shared reading.
	OpenRead(name string) (io.ReadCloser, error)
	// OpenWrite creates a new file for writing; it fails if name exists.
	OpenWrite(name string) (File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	// RemoveDir removes a directory; it fails if the directory is not empty.
	RemoveDir(name string) error
	MkdirAll(path string, perm os.FileMode) error
	ReadDirNames(name string) ([]string, error)
}

// Local implements FS using the local os package.
type Local struct{}

func (Local) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (Local) OpenRead(name string) (io.ReadCloser, error) { return os.Open(name) }

func (Local) OpenWrite(name string) (File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (Local) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }
func (Local) Remove(name string) error             { return os.Remove(name) }
func (Local) RemoveDir(name string) error          { return os.Remove(name) }

func (Local) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (Local) ReadDirNames(name string) ([]string, error) {
	entries, err := os.ReadDir(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// Default is the default local file system.
var Default FS = Local{}
