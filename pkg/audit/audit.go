// Package audit keeps the append-only trail of import runs, one JSON object per line.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sgaunet/review-importer/pkg/constants"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Entry is one run. Entries are never rewritten.
type Entry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Operation  string         `json:"operation"`
	Project    string         `json:"project,omitempty"`
	Group      string         `json:"group,omitempty"`
	Source     string         `json:"source,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	RemoteUser string         `json:"remoteUser,omitempty"`
	Outcome    string         `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	Counts     map[string]int `json:"counts,omitempty"`
}

// Log is an audit trail file. Appends from concurrent runs, in one process or several, are
// serialized by a lock file next to it.
type Log struct {
	path string
	now  func() time.Time
}

// New returns the trail stored at path.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the trail file.
func (l *Log) Path() string {
	return l.path
}

// Append writes e, assigning its ID and timestamp when unset.
func (l *Log) Append(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return e, fmt.Errorf("failed to encode audit entry: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), constants.DefaultDirPermission); err != nil {
		return e, fmt.Errorf("failed to create audit directory: %w", err)
	}
	fl := flock.New(l.path + constants.LockFileSuffix)
	if err := fl.Lock(); err != nil {
		return e, fmt.Errorf("failed to lock audit trail: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	//nolint:gosec // G304: the trail path comes from configuration
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.PrivateFilePermission)
	if err != nil {
		return e, fmt.Errorf("failed to open audit trail: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return e, fmt.Errorf("failed to append audit entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return e, fmt.Errorf("failed to close audit trail: %w", err)
	}
	return e, nil
}

// Entries returns the entries accepted by match, oldest first. A nil match accepts all.
func (l *Log) Entries(match func(*Entry) bool) ([]Entry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, constants.CopyBufferSize), constants.MB)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("invalid audit entry on line %d: %w", lineNo, err)
		}
		if match == nil || match(&e) {
			out = append(out, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}
	return out, nil
}

// ForProject returns the entries of one project.
func (l *Log) ForProject(project string) ([]Entry, error) {
	return l.Entries(func(e *Entry) bool { return e.Project == project })
}
