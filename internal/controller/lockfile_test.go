package controller

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockfileAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")
	l := NewLockfile(path)
	require.NoError(t, l.Acquire())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, l.Release())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestLockfileRejectsLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644))

	l := NewLockfile(path)
	err := l.Acquire()
	require.Error(t, err)
}

func TestLockfileAllowsStaleOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")
	// PID 999999 is extremely unlikely to be alive.
	require.NoError(t, os.WriteFile(path, []byte("999999"), 0o644))

	l := NewLockfile(path)
	require.NoError(t, l.Acquire())
}
