package fsys

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Fault defines failure behavior for one operation on matching paths.
type Fault struct {
	Times int   // number of calls to fail; negative means every call
	Err   error // error to return; nil uses a generic injected error
}

// Faulty is an FS wrapper that injects errors by path suffix match.
// Suffix (not substring) matching keeps a rule for a published blob from
// also firing on its temporary sibling. All mutators and accessors are safe
// for concurrent use.
type Faulty struct {
	FS FS

	mu          sync.Mutex
	removeRules map[string]*faultState
	renameRules map[string]*faultState
	rmdirRules  map[string]*faultState
	writeLimit  int64 // fail writes after this many total bytes; -1 disables
	writeErr    error
	written     int64
	removeCalls map[string]int
}

type faultState struct {
	fault Fault
	fired int
}

// NewFaulty creates a Faulty wrapping the provided FS (or Default if nil).
func NewFaulty(fs FS) *Faulty {
	if fs == nil {
		fs = Default
	}
	return &Faulty{
		FS:          fs,
		removeRules: make(map[string]*faultState),
		renameRules: make(map[string]*faultState),
		rmdirRules:  make(map[string]*faultState),
		writeLimit:  -1,
		removeCalls: make(map[string]int),
	}
}

// FailRemove makes Remove fail for paths ending in pattern.
func (f *Faulty) FailRemove(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeRules[pattern] = &faultState{fault: fault}
}

// FailRename makes Rename fail for new paths ending in pattern.
func (f *Faulty) FailRename(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameRules[pattern] = &faultState{fault: fault}
}

// FailRemoveDir makes RemoveDir fail for paths ending in pattern.
func (f *Faulty) FailRemoveDir(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rmdirRules[pattern] = &faultState{fault: fault}
}

// FailWritesAfter makes writes fail once limit total bytes have been written
// through this FS.
func (f *Faulty) FailWritesAfter(limit int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeLimit = limit
	f.writeErr = err
}

// RemoveCalls reports how many times Remove was invoked for paths ending in
// pattern, successful or not.
func (f *Faulty) RemoveCalls(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for name, count := range f.removeCalls {
		if strings.HasSuffix(name, pattern) {
			n += count
		}
	}
	return n
}

func (f *Faulty) fire(rules map[string]*faultState, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, st := range rules {
		if !strings.HasSuffix(name, pattern) {
			continue
		}
		if st.fault.Times >= 0 && st.fired >= st.fault.Times {
			continue
		}
		st.fired++
		if st.fault.Err != nil {
			return st.fault.Err
		}
		return fmt.Errorf("injected fault: %s", name)
	}
	return nil
}

func (f *Faulty) Stat(name string) (os.FileInfo, error) { return f.FS.Stat(name) }

func (f *Faulty) OpenRead(name string) (io.ReadCloser, error) { return f.FS.OpenRead(name) }

func (f *Faulty) OpenWrite(name string) (File, error) {
	file, err := f.FS.OpenWrite(name)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *Faulty) Rename(oldpath, newpath string) error {
	if err := f.fire(f.renameRules, newpath); err != nil {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *Faulty) Remove(name string) error {
	f.mu.Lock()
	f.removeCalls[name]++
	f.mu.Unlock()
	if err := f.fire(f.removeRules, name); err != nil {
		return err
	}
	return f.FS.Remove(name)
}

func (f *Faulty) RemoveDir(name string) error {
	if err := f.fire(f.rmdirRules, name); err != nil {
		return err
	}
	return f.FS.RemoveDir(name)
}

func (f *Faulty) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

func (f *Faulty) ReadDirNames(name string) ([]string, error) {
	return f.FS.ReadDirNames(name)
}

type faultyFile struct {
	File
	fs *Faulty
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	ff.fs.mu.Lock()
	exceeded := ff.fs.writeLimit >= 0 && ff.fs.written+int64(len(p)) > ff.fs.writeLimit
	if !exceeded {
		ff.fs.written += int64(len(p))
	}
	err := ff.fs.writeErr
	ff.fs.mu.Unlock()

	if exceeded {
		if err == nil {
			err = fmt.Errorf("injected write fault")
		}
		return 0, err
	}
	return ff.File.Write(p)
}
