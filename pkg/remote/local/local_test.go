package local_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/remote/local"
	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/sgaunet/review-importer/pkg/target/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *memstore.Store
	alice  *target.Account
	bob    *target.Account
	change *target.Change
}

func seed(t *testing.T) *fixture {
	t.Helper()
	ctx := t.Context()
	s := memstore.New()
	f := &fixture{store: s}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	f.alice = &target.Account{Username: "alice", FullName: "Alice", Email: "alice@example.com"}
	require.NoError(t, s.CreateAccount(ctx, f.alice))
	f.bob = &target.Account{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, s.CreateAccount(ctx, f.bob))
	require.NoError(t, s.AddSSHKey(ctx, f.alice.ID, "ssh-ed25519 AAAA alice"))

	require.NoError(t, s.CreateProject(ctx, &target.Project{Name: "demo", Parent: "All-Projects", Description: "demo"}))
	f.change = &target.Change{
		Key: "I0001", Project: "demo", Branch: "main", Subject: "first", Owner: f.alice.ID,
		Status: target.StatusNew, Created: now, Updated: now, CurrentPatchSet: 2,
	}
	require.NoError(t, s.CreateChange(ctx, f.change))
	for n, rev := range []string{"aaaa", "bbbb"} {
		require.NoError(t, s.InsertPatchSet(ctx, &target.PatchSet{
			ChangeID: f.change.ID, Number: n + 1, Revision: rev, Uploader: f.alice.ID,
			Created: now, Ref: target.ChangeRef(f.change.ID, n+1),
		}))
	}
	require.NoError(t, s.UpsertApproval(ctx, &target.Approval{ChangeID: f.change.ID, PatchSet: 2, Account: f.bob.ID, Label: "Code-Review", Value: 2, Granted: now}))
	require.NoError(t, s.UpsertApproval(ctx, &target.Approval{ChangeID: f.change.ID, PatchSet: 1, Account: f.bob.ID, Label: "Verified", Value: 1, Granted: now}))
	_, err := s.InsertMessage(ctx, &target.Message{UUID: "m1", ChangeID: f.change.ID, PatchSet: 1, Author: f.alice.ID, Written: now, Message: "Uploaded patch set 1."})
	require.NoError(t, err)
	_, err = s.InsertMessage(ctx, &target.Message{UUID: "m2", ChangeID: f.change.ID, PatchSet: 2, Written: now, Message: "system"})
	require.NoError(t, err)
	require.NoError(t, s.SetHashtags(ctx, f.change.ID, []string{"release"}))
	require.NoError(t, s.UpsertComment(ctx, &target.Comment{
		UUID: "c1", ChangeID: f.change.ID, PatchSet: 2, Author: f.bob.ID, Path: "main.go", Line: 4,
		Message: "why?", Written: now, Side: target.SideOld, Range: &target.Range{StartLine: 4, EndLine: 5},
	}))
	return f
}

func TestGetProject(t *testing.T) {
	f := seed(t)
	r := local.New(f.store, "/srv/git")

	info, err := r.GetProject(t.Context(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "All-Projects", info.Parent)

	_, err = r.GetProject(t.Context(), "missing")
	require.ErrorIs(t, err, remote.ErrNotFound)
	assert.True(t, remote.IsBadRequest(err))
}

func TestQueryChanges(t *testing.T) {
	f := seed(t)
	r := local.New(f.store, "/srv/git")

	page, err := r.QueryChanges(t.Context(), "demo", 0, 10)
	require.NoError(t, err)
	assert.False(t, page.More)
	require.Len(t, page.Changes, 1)

	c := page.Changes[0]
	assert.Equal(t, "I0001", c.Key())
	assert.Equal(t, "alice", c.Owner.Username)
	assert.Equal(t, "bbbb", c.CurrentRevision)
	assert.Equal(t, []string{"release"}, c.Hashtags)

	revs := c.SortedRevisions()
	require.Len(t, revs, 2)
	assert.Equal(t, "aaaa", revs[0].Commit)
	assert.Equal(t, target.ChangeRef(f.change.ID, 2), revs[1].Ref)

	require.Contains(t, c.Labels, "Code-Review")
	assert.NotContains(t, c.Labels, "Verified", "only votes on the current patch set are reported")
	require.Len(t, c.Labels["Code-Review"].All, 1)
	assert.Equal(t, 2, *c.Labels["Code-Review"].All[0].Value)

	require.Len(t, c.Messages, 2)
	assert.Equal(t, "alice", c.Messages[0].Author.Username)
	assert.Nil(t, c.Messages[1].Author)
}

func TestQueryChangesPaging(t *testing.T) {
	f := seed(t)
	ctx := t.Context()
	require.NoError(t, f.store.CreateChange(ctx, &target.Change{Key: "I0002", Project: "demo", Owner: f.bob.ID, Status: target.StatusNew}))
	r := local.New(f.store, "/srv/git")

	page, err := r.QueryChanges(ctx, "demo", 0, 1)
	require.NoError(t, err)
	require.Len(t, page.Changes, 1)
	assert.True(t, page.More)
	assert.True(t, page.Changes[0].MoreChanges)
	assert.Equal(t, 1, page.Next)

	page, err = r.QueryChanges(ctx, "demo", 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Changes, 1)
	assert.Equal(t, "I0002", page.Changes[0].Key())
	assert.False(t, page.More)
	assert.Equal(t, 2, page.Next)
}

func TestGetComments(t *testing.T) {
	f := seed(t)
	r := local.New(f.store, "/srv/git")

	comments, err := r.GetComments(t.Context(), int(f.change.ID), "bbbb")
	require.NoError(t, err)
	require.Len(t, comments["main.go"], 1)
	c := comments["main.go"][0]
	assert.True(t, c.OnParent())
	assert.Equal(t, "bob", c.Author.Username)
	require.NotNil(t, c.Range)
	assert.Equal(t, 5, c.Range.EndLine)

	comments, err = r.GetComments(t.Context(), int(f.change.ID), "aaaa")
	require.NoError(t, err)
	assert.Nil(t, comments)

	_, err = r.GetComments(t.Context(), int(f.change.ID), "cccc")
	require.ErrorIs(t, err, remote.ErrNotFound)
}

func TestGetGroup(t *testing.T) {
	f := seed(t)
	ctx := t.Context()
	require.NoError(t, f.store.CreateGroup(ctx, &target.Group{UUID: "admins-uuid", Name: "Administrators"}))
	require.NoError(t, f.store.CreateGroup(ctx, &target.Group{
		UUID: "dev-uuid", Name: "developers", OwnerUUID: "admins-uuid",
		Members: []target.AccountID{f.alice.ID}, Includes: []string{"admins-uuid"},
	}))
	r := local.New(f.store, "/srv/git")

	for _, key := range []string{"dev-uuid", "developers"} {
		g, err := r.GetGroup(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "dev-uuid", g.ID)
		assert.Equal(t, "Administrators", g.Owner)
		require.Len(t, g.Members, 1)
		assert.Equal(t, "alice", g.Members[0].Username)
		require.Len(t, g.Includes, 1)
		assert.Equal(t, "Administrators", g.Includes[0].Name)
	}

	_, err := r.GetGroup(ctx, "nobody")
	require.ErrorIs(t, err, remote.ErrNotFound)
}

func TestGetSSHKeysAndRepositoryURL(t *testing.T) {
	f := seed(t)
	r := local.New(f.store, "/srv/git")

	keys, err := r.GetSSHKeys(t.Context(), int(f.alice.ID))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, 1, keys[0].Seq)

	assert.Equal(t, filepath.Join("/srv/git", "team/demo.git"), r.RepositoryURL("team/demo"))
}
