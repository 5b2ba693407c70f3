// Package lock provides the mutual exclusion of imports: one run per target project, one run
// per group name.
//
// Locks are flock(2) locks held on a file for the whole run. The kernel drops them when the
// holding process dies, so a crashed run never leaves a key busy. They are only valid on a
// single host: a Locker backed by a shared service can be dropped in for multi-host setups.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/sgaunet/review-importer/pkg/constants"
)

var log Logger

// Logger interface defines the logging methods used by the lock package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

func init() {
	log = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger sets the logger.
func SetLogger(l Logger) {
	if l != nil {
		log = l
	}
}

var (
	// ErrLocked is returned when the key is held by another run.
	ErrLocked = errors.New("locked by another run")
	// ErrInvalidKey is returned for a key that would escape the lock directory.
	ErrInvalidKey = errors.New("invalid lock key")
)

// Locker hands out non-blocking exclusive locks by key.
type Locker interface {
	TryLock(key string) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	Release() error
}

// Holder describes the run holding a lock. It is written into the lock file for operators.
type Holder struct {
	PID      int       `json:"pid"`
	Host     string    `json:"host"`
	Acquired time.Time `json:"acquired"`
}

// FileLocker keeps one lock file per key below a directory.
type FileLocker struct {
	dir string
	now func() time.Time
}

// NewFileLocker returns a Locker rooted at dir. The directory is created on first use.
func NewFileLocker(dir string) *FileLocker {
	return &FileLocker{dir: dir, now: time.Now}
}

// Path returns the lock file of key.
func (l *FileLocker) Path(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := filepath.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(l.dir, clean+constants.LockFileSuffix), nil
}

// TryLock takes the lock of key without blocking. ErrLocked is returned, with the current
// holder when it can be read, if another run has it.
func (l *FileLocker) TryLock(key string) (Lock, error) {
	path, err := l.Path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultDirPermission); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	if !locked {
		_ = fl.Close()
		if h, err := ReadHolder(path); err == nil {
			return nil, fmt.Errorf("%w: %s held by pid %d on %s since %s", ErrLocked, key, h.PID, h.Host, h.Acquired.Format(time.RFC3339))
		}
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}

	host, _ := os.Hostname()
	holder := Holder{PID: os.Getpid(), Host: host, Acquired: l.now().UTC()}
	if err := writeHolder(path, &holder); err != nil {
		log.Warn("failed to record lock holder", "key", key, "error", err)
	}
	log.Debug("lock acquired", "key", key, "path", path)
	return &fileLock{flock: fl, key: key}, nil
}

// ReadHolder reads the holder recorded in a lock file.
func ReadHolder(path string) (*Holder, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built by FileLocker
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode lock holder: %w", err)
	}
	return &h, nil
}

func writeHolder(path string, h *Holder) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode lock holder: %w", err)
	}
	if err := os.WriteFile(path, data, constants.PrivateFilePermission); err != nil {
		return fmt.Errorf("failed to write lock holder: %w", err)
	}
	return nil
}

type fileLock struct {
	flock *flock.Flock
	key   string
}

// Release drops the lock. The file is kept so that a concurrent TryLock never locks an
// unlinked inode.
func (l *fileLock) Release() error {
	if err := os.Truncate(l.flock.Path(), 0); err != nil {
		log.Warn("failed to clear lock holder", "key", l.key, "error", err)
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.key, err)
	}
	log.Debug("lock released", "key", l.key)
	return nil
}
