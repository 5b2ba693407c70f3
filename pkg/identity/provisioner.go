package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sgaunet/review-importer/pkg/target"
	"gopkg.in/yaml.v3"
)

// Entry is a directory record.
type Entry struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	FullName string `yaml:"fullName"`
}

// Directory looks users up in the authentication backend.
type Directory interface {
	Lookup(ctx context.Context, username string) (*Entry, error)
}

// FileDirectory is a Directory read from a YAML file:
//
//	users:
//	  - username: jdoe
//	    email: jdoe@example.com
//	    fullName: John Doe
type FileDirectory struct {
	entries map[string]Entry
}

type directoryFile struct {
	Users []Entry `yaml:"users"`
}

// LoadFileDirectory reads a directory file.
func LoadFileDirectory(path string) (*FileDirectory, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse directory file %s: %w", path, err)
	}
	d := &FileDirectory{entries: make(map[string]Entry, len(f.Users))}
	for _, e := range f.Users {
		if e.Username == "" {
			continue
		}
		d.entries[e.Username] = e
	}
	return d, nil
}

// Lookup returns the entry of username.
func (d *FileDirectory) Lookup(_ context.Context, username string) (*Entry, error) {
	e, ok := d.entries[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the directory", ErrNotFound, username)
	}
	return &e, nil
}

// DirectoryProvisioner creates accounts from directory entries, skipping authentication.
type DirectoryProvisioner struct {
	dir      Directory
	accounts target.Accounts
	now      func() time.Time
}

// NewDirectoryProvisioner returns a provisioner writing to accounts.
func NewDirectoryProvisioner(dir Directory, accounts target.Accounts) *DirectoryProvisioner {
	return &DirectoryProvisioner{dir: dir, accounts: accounts, now: time.Now}
}

// Provision creates the account of username. An account created concurrently by someone else
// is accepted.
func (p *DirectoryProvisioner) Provision(ctx context.Context, username string) error {
	entry, err := p.dir.Lookup(ctx, username)
	if err != nil {
		return err
	}
	err = p.accounts.CreateAccount(ctx, &target.Account{
		Username: entry.Username,
		FullName: entry.FullName,
		Email:    entry.Email,
		Created:  p.now().UTC(),
	})
	if errors.Is(err, target.ErrAlreadyExists) {
		log.Debug("account already provisioned", "username", username)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", username, err)
	}
	return nil
}
