package controller

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Lockfile enforces single-instance execution: acquiring
// it fails if the PID recorded in an existing lock file is still alive.
// No example repo in the pack carries a dedicated lock-file library, so
// this is the one place that deliberately stays on the standard library —
// see DESIGN.md.
type Lockfile struct {
	path string
}

func NewLockfile(path string) *Lockfile {
	return &Lockfile{path: path}
}

// Acquire writes the current PID to the lock file, failing if another
// live process already holds it.
func (l *Lockfile) Acquire() error {
	if data, err := os.ReadFile(l.path); err == nil {
		if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && processAlive(pid) {
			return fmt.Errorf("controller: another instance is running (pid %d, lock %s)", pid, l.path)
		}
	}
	return os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Release removes the lock file if it is still owned by this process.
func (l *Lockfile) Release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && pid != os.Getpid() {
		return nil // owned by someone else now; leave it alone
	}
	return os.Remove(l.path)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}
