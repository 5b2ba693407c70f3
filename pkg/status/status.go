// Package status persists the import record of each target project.
//
// A record is written once the repository of a project is ready and only ever grows: each
// import or resume appends one event. Records are stored as JSON, one file per project,
// replaced atomically on every write.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sgaunet/review-importer/pkg/constants"
)

var (
	// ErrNotFound is returned when a project has no import record.
	ErrNotFound = errors.New("no import record")
	// ErrExists is returned when creating a record that already exists.
	ErrExists = errors.New("import record already exists")
)

// User is the local account that ran an import.
type User struct {
	AccountID int64  `json:"_account_id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Event is one import or resume run.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	User       User      `json:"user"`
	RemoteUser string    `json:"remoteUser"`
}

// Record is the import history of a project. It never holds a password.
type Record struct {
	From    string  `json:"from"`
	Parent  *string `json:"parent"`
	Imports []Event `json:"imports"`
}

// FirstImport returns the event of the original import.
func (r *Record) FirstImport() (Event, bool) {
	if len(r.Imports) == 0 {
		return Event{}, false
	}
	return r.Imports[0], true
}

// Store keeps records below a directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the record file of project.
func (s *Store) Path(project string) string {
	return filepath.Join(s.dir, filepath.FromSlash(project)+constants.StatusFileSuffix)
}

// Exists reports whether project has a record.
func (s *Store) Exists(project string) bool {
	_, err := os.Stat(s.Path(project))
	return err == nil
}

// Load reads the record of project.
func (s *Store) Load(project string) (*Record, error) {
	data, err := os.ReadFile(s.Path(project))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, project)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import record of %s: %w", project, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode import record of %s: %w", project, err)
	}
	return &rec, nil
}

// Create writes the first record of project.
func (s *Store) Create(project string, rec *Record) error {
	if s.Exists(project) {
		return fmt.Errorf("%w: %s", ErrExists, project)
	}
	return s.write(project, rec)
}

// Append adds an event to the record of project.
func (s *Store) Append(project string, ev Event) (*Record, error) {
	rec, err := s.Load(project)
	if err != nil {
		return nil, err
	}
	rec.Imports = append(rec.Imports, ev)
	if err := s.write(project, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record of project.
func (s *Store) Delete(project string) error {
	err := os.Remove(s.Path(project))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, project)
	}
	if err != nil {
		return fmt.Errorf("failed to delete import record of %s: %w", project, err)
	}
	return nil
}

// List returns the records whose project name contains match. An empty match lists all.
func (s *Store) List(match string) (map[string]Record, error) {
	out := map[string]Record{}
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, constants.StatusFileSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		project := strings.TrimSuffix(filepath.ToSlash(rel), constants.StatusFileSuffix)
		if !strings.Contains(project, match) {
			return nil
		}
		rec, err := s.Load(project)
		if err != nil {
			return err
		}
		out[project] = *rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list import records: %w", err)
	}
	return out, nil
}

// Projects returns the project names of records, sorted.
func Projects(records map[string]Record) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// write replaces the record file through a temporary file in the same directory.
func (s *Store) write(project string, rec *Record) error {
	if rec.Imports == nil {
		rec.Imports = []Event{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode import record of %s: %w", project, err)
	}
	path := s.Path(project)
	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".record-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary record: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write import record of %s: %w", project, err)
	}
	if err := tmp.Chmod(constants.PrivateFilePermission); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict import record of %s: %w", project, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync import record of %s: %w", project, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close import record of %s: %w", project, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace import record of %s: %w", project, err)
	}
	return nil
}
