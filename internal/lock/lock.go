// Package lock keeps two runs from writing the same output directory.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// FileName is the lock file created inside an output directory.
const FileName = ".schemafuzz.lock"

// ErrHeld reports a lock owned by another running process.
var ErrHeld = errors.New("output directory is locked")

// Path returns the lock file of an output directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Acquire locks dir for the current process. A lock left behind by a
// process that is no longer running is taken over.
func Acquire(dir string) error {
	path := Path(dir)

	held, pid, err := IsHeld(dir)
	if err != nil {
		return err
	}
	if held && pid != os.Getpid() {
		return fmt.Errorf("%w: another schemafuzz run (PID %d) is writing %s", ErrHeld, pid, dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Release removes the lock of dir.
func Release(dir string) error {
	err := os.Remove(Path(dir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsHeld checks if the lock of dir is held by a running process.
func IsHeld(dir string) (bool, int, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0, nil
	}
	if isProcessRunning(pid) {
		return true, pid, nil
	}
	return false, pid, nil
}

func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
