package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/fabric-install/internal/domain/installer"
	"github.com/oshokin/fabric-install/internal/logger"
)

const (
	// Suffix is appended to the cache directory path to name its marker.
	Suffix = ".lock"

	// markerLifetime is the age after which an unreadable marker is ignored.
	markerLifetime = 30 * time.Second

	// markerPermissions restricts the marker to its owner.
	markerPermissions = 0o600

	// parentDirMode is used when the marker's parent directory is missing.
	parentDirMode = 0o755
)

var (
	// ErrLocked is returned when another live process holds the marker.
	ErrLocked = errors.New("cache directory is in use by another process")
	// errOwnerRequired is returned when no owner is provided.
	errOwnerRequired = errors.New("lock owner must be provided")
	// errNotHeld is returned when releasing a lock this instance does not hold.
	errNotHeld = errors.New("lock is not held")
)

// Locker guards a cache directory against concurrent use.
type Locker interface {
	Acquire(ctx context.Context, owner *installer.Owner) error
	Release(ctx context.Context) error
}

// AliveFunc reports whether a process with pid is running on this host.
type AliveFunc func(pid int) (bool, error)

// FileLock is a marker-file lock.
type FileLock struct {
	// path is the filesystem location of the marker.
	path string
	// alive checks whether a recorded owner still runs.
	alive AliveFunc
	// held is true between a successful Acquire and Release.
	held bool
	// mu protects held and the marker file.
	mu sync.Mutex
}

// PathFor returns the marker path guarding cacheDir.
func PathFor(cacheDir string) string {
	return filepath.Clean(cacheDir) + Suffix
}

// NewFileLock creates a lock whose marker lives at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		path:  filepath.Clean(path),
		alive: processAlive,
	}
}

// Path returns the marker location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire writes the marker for owner, reclaiming it once if the recorded owner is gone.
func (l *FileLock) Acquire(ctx context.Context, owner *installer.Owner) error {
	if owner == nil {
		return errOwnerRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), parentDirMode); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	data, err := yaml.Marshal(owner)
	if err != nil {
		return fmt.Errorf("encode lock owner: %w", err)
	}

	err = l.create(data)
	if !errors.Is(err, os.ErrExist) {
		l.held = err == nil
		return err
	}

	if err = l.reclaim(ctx, owner); err != nil {
		return err
	}

	if err = l.create(data); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", l.path, ErrLocked)
		}

		return err
	}

	l.held = true

	return nil
}

// Release removes the marker written by Acquire.
func (l *FileLock) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return errNotHeld
	}

	l.held = false

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock marker: %w", err)
	}

	return nil
}

// create writes data to a new marker, failing with os.ErrExist if one is present.
func (l *FileLock) create(data []byte) error {
	marker, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerPermissions)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return err
		}

		return fmt.Errorf("create lock marker: %w", err)
	}

	if _, err = marker.Write(data); err != nil {
		_ = marker.Close()
		_ = os.Remove(l.path)

		return fmt.Errorf("write lock marker: %w", err)
	}

	return marker.Close()
}

// reclaim removes an existing marker if its owner is gone, or reports ErrLocked.
func (l *FileLock) reclaim(ctx context.Context, self *installer.Owner) error {
	stale, holder, err := l.isStale(self)
	if err != nil {
		return err
	}

	if !stale {
		if holder != nil {
			return fmt.Errorf("held by pid %d (%s@%s), delete %s if that process no longer runs: %w",
				holder.PID, holder.Username, holder.Hostname, l.path, ErrLocked)
		}

		return fmt.Errorf("delete %s if no other installation is running: %w", l.path, ErrLocked)
	}

	logger.InfoKV(ctx, "The cache lock is stale, removing", "path", l.path)

	if err = os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock marker: %w", err)
	}

	return nil
}

// isStale decides whether the existing marker can be taken over.
func (l *FileLock) isStale(self *installer.Owner) (bool, *installer.Owner, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil, nil
		}

		return false, nil, fmt.Errorf("stat lock marker: %w", err)
	}

	contents, err := os.ReadFile(l.path)
	if err != nil {
		return false, nil, fmt.Errorf("read lock marker: %w", err)
	}

	var holder installer.Owner
	if err = yaml.Unmarshal(contents, &holder); err != nil || holder.PID <= 0 {
		// A marker being written or left half-written by a crash.
		return time.Since(info.ModTime()) > markerLifetime, nil, nil
	}

	// Another host's process table is out of reach.
	if holder.Hostname != self.Hostname {
		return false, &holder, nil
	}

	if holder.PID == self.PID {
		return true, &holder, nil
	}

	alive, err := l.alive(holder.PID)
	if err != nil {
		return false, &holder, fmt.Errorf("check lock owner: %w", err)
	}

	return !alive, &holder, nil
}

// processAlive looks pid up in the process table.
func processAlive(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}
