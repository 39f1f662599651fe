package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	repoLockRetryDelay = 5 * time.Millisecond
	repoLockWaitLimit  = 2 * time.Second
)

// lock takes the repository-wide advisory lock guarding refs, HEAD, the
// index and config. The returned func releases it. The lock is not
// reentrant: exported mutators take it once and call unexported helpers.
func (r *Repo) lock() (func(), error) {
	lockPath := filepath.Join(r.MetaDir, "lock")
	deadline := time.Now().Add(repoLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, &LockTimeoutError{Path: lockPath, Holder: lockHolder(lockPath)}
		}
		time.Sleep(repoLockRetryDelay)
	}
}

// LockTimeoutError reports that the repository lock could not be taken.
// A lock left behind by a crashed process has to be removed by hand.
type LockTimeoutError struct {
	Path   string
	Holder int // pid recorded in the lock file, 0 if unreadable
}

func (e *LockTimeoutError) Error() string {
	holder := "unknown process"
	if e.Holder > 0 {
		holder = "pid " + strconv.Itoa(e.Holder)
	}
	return fmt.Sprintf("acquire lock: %s: %s is held by %s; if no nvcs process is running, remove it", ErrInvalidState, e.Path, holder)
}

func (e *LockTimeoutError) Unwrap() error { return ErrInvalidState }

func lockHolder(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
