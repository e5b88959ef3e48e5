package fsys

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_OpenWriteExclusive(t *testing.T) {
	name := filepath.Join(t.TempDir(), "blob.upl")

	f, err := Default.OpenWrite(name)
	require.NoError(t, err)
	_, err = f.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Second exclusive create of the same name must fail.
	_, err = Default.OpenWrite(name)
	assert.Error(t, err)
}

func TestLocal_RemoveDirNonEmpty(t *testing.T) {
	dir := t.TempDir()
	f, err := Default.OpenWrite(filepath.Join(dir, "keep"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Error(t, Default.RemoveDir(dir))

	names, err := Default.ReadDirNames(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, names)
}

func TestFaulty_RemoveRule(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "victim")
	f, err := Default.OpenWrite(name)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	injected := errors.New("sharing violation")
	ffs := NewFaulty(nil)
	ffs.FailRemove("victim", Fault{Times: 2, Err: injected})

	assert.ErrorIs(t, ffs.Remove(name), injected)
	assert.ErrorIs(t, ffs.Remove(name), injected)
	assert.NoError(t, ffs.Remove(name)) // rule exhausted
	assert.Equal(t, 3, ffs.RemoveCalls("victim"))
}

func TestFaulty_WriteLimit(t *testing.T) {
	ffs := NewFaulty(nil)
	ffs.FailWritesAfter(4, io.ErrShortWrite)

	f, err := ffs.OpenWrite(filepath.Join(t.TempDir(), "limited"))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = f.Write([]byte("5"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}
