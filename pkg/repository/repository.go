// Package repository manages the target bare repositories: fetching a source into the
// quarantine namespace, normalizing ordinary refs and re-homing change refs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/remote"
)

var (
	// ErrFetch is returned when the source repository cannot be fetched.
	ErrFetch = errors.New("fetch failed")
	// ErrRefUpdate is returned when a ref cannot be written, verified or removed.
	ErrRefUpdate = errors.New("ref update failed")
	// ErrRefConflict is returned when a target ref already points at another commit.
	ErrRefConflict = errors.New("ref conflict")
	// ErrFileNotFound is returned by ReadFile when the ref or the path does not exist.
	ErrFileNotFound = errors.New("file not found")
)

var log Logger

// Logger interface defines the logging methods used by the repository stage.
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

// Manager locates the bare repositories of a server.
type Manager struct {
	root string
}

// NewManager returns a manager for repositories stored under root.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Path returns the location of the project's bare repository.
func (m *Manager) Path(project string) string {
	return filepath.Join(m.root, project+constants.RepositorySuffix)
}

// Open opens the project repository, creating an empty bare repository when it does not
// exist. existed tells which case happened.
func (m *Manager) Open(project string) (repo *Repository, existed bool, err error) {
	path := m.Path(project)
	r, err := git.PlainOpen(path)
	if err == nil {
		return &Repository{repo: r, path: path}, true, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, false, fmt.Errorf("failed to open repository %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DefaultDirPermission); err != nil {
		return nil, false, fmt.Errorf("failed to create repository parent directory: %w", err)
	}
	r, err = git.PlainInit(path, true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create repository %s: %w", path, err)
	}
	log.Debug("created repository", "path", path)
	return &Repository{repo: r, path: path}, false, nil
}

// Repository is an open bare repository.
type Repository struct {
	repo *git.Repository
	path string
}

// Path returns the repository directory.
func (r *Repository) Path() string {
	return r.path
}

// QuarantineRef returns the staging name of a source ref.
func QuarantineRef(sourceRef string) string {
	return constants.QuarantinePrefix + strings.TrimPrefix(sourceRef, constants.RefsPrefix)
}

// Fetch fetches every ref of url into the quarantine namespace through a transient remote.
func (r *Repository) Fetch(ctx context.Context, url string, creds remote.Credentials) error {
	if err := r.repo.DeleteRemote(constants.TransientRemoteName); err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("%w: failed to remove stale remote: %w", ErrFetch, err)
	}
	refSpec := config.RefSpec(constants.FetchRefSpec)
	if _, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name:  constants.TransientRemoteName,
		URLs:  []string{url},
		Fetch: []config.RefSpec{refSpec},
	}); err != nil {
		return fmt.Errorf("%w: failed to configure remote: %w", ErrFetch, err)
	}
	defer func() {
		if err := r.repo.DeleteRemote(constants.TransientRemoteName); err != nil {
			log.Warn("failed to remove transient remote", "path", r.path, "error", err)
		}
	}()

	opts := &git.FetchOptions{
		RemoteName:      constants.TransientRemoteName,
		RefSpecs:        []config.RefSpec{refSpec},
		Tags:            git.NoTags,
		Force:           true,
		InsecureSkipTLS: true,
	}
	if creds.Username != "" {
		opts.Auth = &githttp.BasicAuth{Username: creds.Username, Password: creds.Password}
	}

	log.Info("fetching", "url", url, "path", r.path)
	err := r.repo.FetchContext(ctx, opts)
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		log.Warn("source repository is empty", "url", url)
		return nil
	default:
		return fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
}

// Normalize moves every quarantined ref outside the change namespaces to its real name.
// Change refs stay quarantined for the revision replay. It returns the number of refs moved.
func (r *Repository) Normalize() (int, error) {
	refs, err := r.quarantined()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, ref := range refs {
		rest := strings.TrimPrefix(ref.Name().String(), constants.QuarantinePrefix)
		if isChangeRef(rest) {
			continue
		}
		name := plumbing.ReferenceName(constants.RefsPrefix + rest)
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(name, ref.Hash())); err != nil {
			return moved, fmt.Errorf("%w: %s: %w", ErrRefUpdate, name, err)
		}
		if err := r.repo.Storer.RemoveReference(ref.Name()); err != nil {
			return moved, fmt.Errorf("%w: %s: %w", ErrRefUpdate, ref.Name(), err)
		}
		moved++
	}
	log.Debug("normalized refs", "path", r.path, "count", moved)
	return moved, nil
}

func (r *Repository) quarantined() ([]*plumbing.Reference, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}
	defer iter.Close()
	var out []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && strings.HasPrefix(ref.Name().String(), constants.QuarantinePrefix) {
			out = append(out, ref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}
	return out, nil
}

func isChangeRef(rest string) bool {
	for _, ns := range constants.ChangeNamespaces {
		if strings.HasPrefix(rest, ns) {
			return true
		}
	}
	return false
}

// ResolveQuarantined returns the commit of the quarantined copy of sourceRef. ok is false when
// the ref is gone, which means the revision was already re-homed.
func (r *Repository) ResolveQuarantined(sourceRef string) (commit string, ok bool, err error) {
	ref, err := r.repo.Reference(plumbing.ReferenceName(QuarantineRef(sourceRef)), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %s: %w", sourceRef, err)
	}
	return ref.Hash().String(), true, nil
}

// RenameRef points to at the commit of from, verifies it, then removes from and verifies the
// removal. A to that already holds the same commit is reused, so an interrupted rename can be
// resumed.
func (r *Repository) RenameRef(from, to string) error {
	src, err := r.repo.Reference(plumbing.ReferenceName(from), false)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRefUpdate, from, err)
	}
	dst := plumbing.ReferenceName(to)

	existing, err := r.repo.Reference(dst, false)
	switch {
	case err == nil && existing.Hash() != src.Hash():
		return fmt.Errorf("%w: %s is at %s, expected %s", ErrRefConflict, to, existing.Hash(), src.Hash())
	case err == nil:
		log.Debug("target ref already in place", "ref", to)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(dst, src.Hash())); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRefUpdate, to, err)
		}
		created, err := r.repo.Reference(dst, false)
		if err != nil || created.Hash() != src.Hash() {
			return fmt.Errorf("%w: %s was not created", ErrRefUpdate, to)
		}
	default:
		return fmt.Errorf("%w: %s: %w", ErrRefUpdate, to, err)
	}

	if err := r.repo.Storer.RemoveReference(src.Name()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRefUpdate, from, err)
	}
	if _, err := r.repo.Reference(src.Name(), false); !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("%w: %s was not removed", ErrRefUpdate, from)
	}
	return nil
}

// Commit is the metadata of a commit.
type Commit struct {
	Hash    string
	Subject string
	Parents []string
}

// Commit reads a commit.
func (r *Repository) Commit(hash string) (*Commit, error) {
	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	subject, _, _ := strings.Cut(c.Message, "\n")
	out := &Commit{Hash: hash, Subject: strings.TrimSpace(subject)}
	for _, p := range c.ParentHashes {
		out.Parents = append(out.Parents, p.String())
	}
	return out, nil
}

// ReadFile returns the content of path in the tree of ref.
func (r *Repository) ReadFile(ref, path string) ([]byte, error) {
	resolved, err := r.repo.Reference(plumbing.ReferenceName(ref), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	c, err := r.repo.CommitObject(resolved.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	f, err := c.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s:%s", ErrFileNotFound, ref, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s:%s: %w", ref, path, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s:%s: %w", ref, path, err)
	}
	return []byte(content), nil
}
