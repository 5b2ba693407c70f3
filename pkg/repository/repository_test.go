package repository

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSourceRepo creates a work tree repository with two commits and returns it with their hashes.
func newSourceRepo(t *testing.T) (string, *git.Repository, []plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)

	var hashes []plumbing.Hash
	for i, content := range []string{"one\n", "two\n"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte(content), 0o600))
		_, err := wt.Add("file.txt")
		require.NoError(t, err)
		h, err := wt.Commit("commit "+content[:3]+"\n\nbody", &git.CommitOptions{
			Author: &object.Signature{Name: "A", Email: "a@example.com", When: time.Unix(int64(1700000000+i), 0)},
		})
		require.NoError(t, err)
		hashes = append(hashes, h)
	}
	return dir, r, hashes
}

func setRef(t *testing.T, r *git.Repository, name string, h plumbing.Hash) {
	t.Helper()
	require.NoError(t, r.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), h)))
}

func refHash(t *testing.T, r *git.Repository, name string) (plumbing.Hash, bool) {
	t.Helper()
	ref, err := r.Reference(plumbing.ReferenceName(name), false)
	if err != nil {
		require.ErrorIs(t, err, plumbing.ErrReferenceNotFound)
		return plumbing.ZeroHash, false
	}
	return ref.Hash(), true
}

func TestManagerOpen(t *testing.T) {
	m := NewManager(t.TempDir())

	repo, existed, err := m.Open("team/demo")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.DirExists(t, repo.Path())
	assert.Equal(t, m.Path("team/demo"), repo.Path())

	_, existed, err = m.Open("team/demo")
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestQuarantineRef(t *testing.T) {
	assert.Equal(t, "refs/imports/changes/01/1/1", QuarantineRef("refs/changes/01/1/1"))
	assert.Equal(t, "refs/imports/merge-requests/7/head", QuarantineRef("refs/merge-requests/7/head"))
}

func TestNormalize(t *testing.T) {
	repo, _, err := NewManager(t.TempDir()).Open("demo")
	require.NoError(t, err)
	h := plumbing.NewHash("1111111111111111111111111111111111111111")
	for _, name := range []string{
		"refs/imports/heads/main",
		"refs/imports/tags/v1",
		"refs/imports/meta/config",
		"refs/imports/changes/01/1/1",
		"refs/imports/merge-requests/7/head",
	} {
		setRef(t, repo.repo, name, h)
	}

	moved, err := repo.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	for _, name := range []string{"refs/heads/main", "refs/tags/v1", "refs/meta/config", "refs/imports/changes/01/1/1", "refs/imports/merge-requests/7/head"} {
		_, ok := refHash(t, repo.repo, name)
		assert.True(t, ok, name)
	}
	for _, name := range []string{"refs/imports/heads/main", "refs/imports/meta/config"} {
		_, ok := refHash(t, repo.repo, name)
		assert.False(t, ok, name)
	}
}

func TestRenameRef(t *testing.T) {
	h1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	h2 := plumbing.NewHash("2222222222222222222222222222222222222222")

	t.Run("moves the ref", func(t *testing.T) {
		repo, _, err := NewManager(t.TempDir()).Open("demo")
		require.NoError(t, err)
		setRef(t, repo.repo, "refs/imports/changes/01/1/1", h1)

		commit, ok, err := repo.ResolveQuarantined("refs/changes/01/1/1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, h1.String(), commit)

		require.NoError(t, repo.RenameRef("refs/imports/changes/01/1/1", "refs/changes/42/1000042/1"))
		got, ok := refHash(t, repo.repo, "refs/changes/42/1000042/1")
		require.True(t, ok)
		assert.Equal(t, h1, got)

		_, ok, err = repo.ResolveQuarantined("refs/changes/01/1/1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("resumes when the target already holds the commit", func(t *testing.T) {
		repo, _, err := NewManager(t.TempDir()).Open("demo")
		require.NoError(t, err)
		setRef(t, repo.repo, "refs/imports/changes/01/1/1", h1)
		setRef(t, repo.repo, "refs/changes/42/1000042/1", h1)

		require.NoError(t, repo.RenameRef("refs/imports/changes/01/1/1", "refs/changes/42/1000042/1"))
		_, ok := refHash(t, repo.repo, "refs/imports/changes/01/1/1")
		assert.False(t, ok)
	})

	t.Run("refuses to overwrite another commit", func(t *testing.T) {
		repo, _, err := NewManager(t.TempDir()).Open("demo")
		require.NoError(t, err)
		setRef(t, repo.repo, "refs/imports/changes/01/1/1", h1)
		setRef(t, repo.repo, "refs/changes/42/1000042/1", h2)

		err = repo.RenameRef("refs/imports/changes/01/1/1", "refs/changes/42/1000042/1")
		require.ErrorIs(t, err, ErrRefConflict)
		_, ok := refHash(t, repo.repo, "refs/imports/changes/01/1/1")
		assert.True(t, ok, "the quarantined ref is kept")
	})

	t.Run("missing source ref", func(t *testing.T) {
		repo, _, err := NewManager(t.TempDir()).Open("demo")
		require.NoError(t, err)
		err = repo.RenameRef("refs/imports/changes/01/1/1", "refs/changes/42/1000042/1")
		require.ErrorIs(t, err, ErrRefUpdate)
	})
}

func TestCommitAndReadFile(t *testing.T) {
	_, src, hashes := newSourceRepo(t)
	repo := &Repository{repo: src}

	c, err := repo.Commit(hashes[1].String())
	require.NoError(t, err)
	assert.Equal(t, "commit two", c.Subject)
	assert.Equal(t, []string{hashes[0].String()}, c.Parents)

	head, err := src.Head()
	require.NoError(t, err)
	content, err := repo.ReadFile(head.Name().String(), "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(content))

	_, err = repo.ReadFile(head.Name().String(), "missing.txt")
	require.ErrorIs(t, err, ErrFileNotFound)
	_, err = repo.ReadFile("refs/meta/config", "groups")
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestFetch(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available for the file transport")
	}
	dir, src, hashes := newSourceRepo(t)
	setRef(t, src, "refs/changes/01/1/1", hashes[0])
	setRef(t, src, "refs/changes/01/1/2", hashes[1])

	repo, _, err := NewManager(t.TempDir()).Open("demo")
	require.NoError(t, err)
	require.NoError(t, repo.Fetch(t.Context(), dir, remote.Credentials{}))

	commit, ok, err := repo.ResolveQuarantined("refs/changes/01/1/2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hashes[1].String(), commit)

	_, err = repo.repo.Remote("origin")
	require.ErrorIs(t, err, git.ErrRemoteNotFound, "the fetch remote is transient")

	_, err = repo.Normalize()
	require.NoError(t, err)
	head, err := src.Head()
	require.NoError(t, err)
	got, ok := refHash(t, repo.repo, head.Name().String())
	require.True(t, ok)
	assert.Equal(t, hashes[1], got)

	// a second fetch with nothing new succeeds
	require.NoError(t, repo.Fetch(t.Context(), dir, remote.Credentials{}))
}
