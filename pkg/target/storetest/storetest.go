// Package storetest holds the behaviour every target.Store implementation must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a store returned by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) target.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Accounts", func(t *testing.T) {
		s := newStore(t)
		a := &target.Account{Username: "alice", Email: "alice@example.com", FullName: "Alice"}
		require.NoError(t, s.CreateAccount(ctx, a))
		require.NotZero(t, a.ID)

		got, err := s.AccountByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, "alice@example.com", got.Email)

		byID, err := s.AccountByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)

		_, err = s.AccountByUsername(ctx, "bob")
		require.ErrorIs(t, err, target.ErrNotFound)

		err = s.CreateAccount(ctx, &target.Account{Username: "alice"})
		require.ErrorIs(t, err, target.ErrAlreadyExists)

		require.NoError(t, s.AddSSHKey(ctx, a.ID, "ssh-ed25519 AAAA alice"))
		require.NoError(t, s.AddSSHKey(ctx, a.ID, "ssh-ed25519 AAAA alice"))
		require.NoError(t, s.AddSSHKey(ctx, a.ID, "ssh-rsa BBBB alice"))
		keys, err := s.SSHKeys(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"ssh-ed25519 AAAA alice", "ssh-rsa BBBB alice"}, keys)
	})

	t.Run("Projects", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateProject(ctx, &target.Project{Name: "All-Projects"}))
		require.NoError(t, s.CreateProject(ctx, &target.Project{Name: "core", Parent: "All-Projects"}))
		require.ErrorIs(t, s.CreateProject(ctx, &target.Project{Name: "core"}), target.ErrAlreadyExists)

		require.NoError(t, s.UpdateProject(ctx, &target.Project{Name: "core", Parent: "All-Projects", Description: "d"}))
		p, err := s.Project(ctx, "core")
		require.NoError(t, err)
		assert.Equal(t, "d", p.Description)

		require.ErrorIs(t, s.UpdateProject(ctx, &target.Project{Name: "missing"}), target.ErrNotFound)
		_, err = s.Project(ctx, "missing")
		require.ErrorIs(t, err, target.ErrNotFound)
	})

	t.Run("ChangesAndPatchSets", func(t *testing.T) {
		s := newStore(t)
		c := &target.Change{Key: "I1", Project: "core", Branch: "refs/heads/main", Owner: 1, Status: target.StatusNew,
			Created: now, Updated: now}
		require.NoError(t, s.CreateChange(ctx, c))
		require.NotZero(t, c.ID)
		require.ErrorIs(t, s.CreateChange(ctx, &target.Change{Key: "I1", Project: "core", Branch: "refs/heads/main",
			Created: now, Updated: now}), target.ErrAlreadyExists)

		// the same key in another project is a different change
		other := &target.Change{Key: "I1", Project: "other", Branch: "refs/heads/main", Owner: 1,
			Status: target.StatusNew, Created: now, Updated: now}
		require.NoError(t, s.CreateChange(ctx, other))
		assert.NotEqual(t, c.ID, other.ID)

		// a cherry-pick keeps the key on another branch
		picked := &target.Change{Key: "I1", Project: "core", Branch: "refs/heads/stable", Owner: 1,
			Status: target.StatusNew, Created: now, Updated: now}
		require.NoError(t, s.CreateChange(ctx, picked))
		assert.NotEqual(t, c.ID, picked.ID)

		got, err := s.ChangeByKey(ctx, "core", "refs/heads/main", "I1")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		got, err = s.ChangeByKey(ctx, "core", "refs/heads/stable", "I1")
		require.NoError(t, err)
		assert.Equal(t, picked.ID, got.ID)
		_, err = s.ChangeByKey(ctx, "core", "refs/heads/dev", "I1")
		require.ErrorIs(t, err, target.ErrNotFound)

		c.Status = target.StatusMerged
		c.CurrentPatchSet = 2
		require.NoError(t, s.UpdateChange(ctx, c))
		got, err = s.ChangeByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, target.StatusMerged, got.Status)
		assert.Equal(t, 2, got.CurrentPatchSet)

		for _, n := range []int{2, 1} {
			ps := &target.PatchSet{ChangeID: c.ID, Number: n, Revision: "rev" + string(rune('0'+n)), Uploader: 1,
				Created: now, Ref: target.ChangeRef(c.ID, n), Parents: []string{"p1", "p2"}}
			require.NoError(t, s.InsertPatchSet(ctx, ps))
		}
		require.ErrorIs(t, s.InsertPatchSet(ctx, &target.PatchSet{ChangeID: c.ID, Number: 1, Created: now}),
			target.ErrAlreadyExists)
		list, err := s.PatchSets(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 1, list[0].Number)
		assert.Equal(t, 2, list[1].Number)
		assert.Equal(t, []string{"p1", "p2"}, list[0].Parents)

		page, err := s.ListChanges(ctx, "core", 0, 10)
		require.NoError(t, err)
		assert.Len(t, page, 2)
		page, err = s.ListChanges(ctx, "core", 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("Comments", func(t *testing.T) {
		s := newStore(t)
		c := &target.Change{Key: "I2", Project: "core", Branch: "refs/heads/main", Owner: 1,
			Status: target.StatusNew, Created: now, Updated: now}
		require.NoError(t, s.CreateChange(ctx, c))

		cm := &target.Comment{UUID: "u1", ChangeID: c.ID, PatchSet: 1, Author: 7, Path: "a.go", Line: 3,
			Message: "first", Written: now, Side: target.SideNew,
			Range: &target.Range{StartLine: 3, EndLine: 4, EndCharacter: 2}}
		require.NoError(t, s.UpsertComment(ctx, cm))
		cm.Message = "edited"
		require.NoError(t, s.UpsertComment(ctx, cm))
		require.NoError(t, s.UpsertComment(ctx, &target.Comment{UUID: "u2", ChangeID: c.ID, PatchSet: 1, Author: 8,
			Path: "b.go", Message: "other", Written: now.Add(time.Minute), Side: target.SideOld}))

		mine, err := s.Comments(ctx, c.ID, 1, 7)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "edited", mine[0].Message)
		require.NotNil(t, mine[0].Range)
		assert.Equal(t, 4, mine[0].Range.EndLine)

		all, err := s.Comments(ctx, c.ID, 1, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		require.NoError(t, s.DeleteComment(ctx, c.ID, 7, "u1"))
		require.ErrorIs(t, s.DeleteComment(ctx, c.ID, 7, "u1"), target.ErrNotFound)
		mine, err = s.Comments(ctx, c.ID, 1, 7)
		require.NoError(t, err)
		assert.Empty(t, mine)
	})

	t.Run("MessagesApprovalsHashtags", func(t *testing.T) {
		s := newStore(t)
		c := &target.Change{Key: "I3", Project: "core", Branch: "refs/heads/main", Owner: 1,
			Status: target.StatusNew, Created: now, Updated: now}
		require.NoError(t, s.CreateChange(ctx, c))

		m := &target.Message{UUID: "m1", ChangeID: c.ID, PatchSet: 1, Author: 1, Written: now, Message: "hello"}
		inserted, err := s.InsertMessage(ctx, m)
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = s.InsertMessage(ctx, m)
		require.NoError(t, err)
		assert.False(t, inserted)
		msgs, err := s.Messages(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)

		a := &target.Approval{ChangeID: c.ID, PatchSet: 1, Account: 1, Label: "Code-Review", Value: 1, Granted: now}
		require.NoError(t, s.UpsertApproval(ctx, a))
		a.Value = 2
		require.NoError(t, s.UpsertApproval(ctx, a))
		approvals, err := s.Approvals(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, approvals, 1)
		assert.Equal(t, 2, approvals[0].Value)

		require.NoError(t, s.SetHashtags(ctx, c.ID, []string{"b", "a"}))
		require.NoError(t, s.SetHashtags(ctx, c.ID, []string{"c", "a"}))
		tags, err := s.Hashtags(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, tags)
	})

	t.Run("Groups", func(t *testing.T) {
		s := newStore(t)
		g := &target.Group{UUID: "uuid-1", Name: "devs", OwnerUUID: "uuid-1", Members: []target.AccountID{1, 2},
			Includes: []string{"uuid-2"}, Created: now}
		require.NoError(t, s.CreateGroup(ctx, g))
		require.ErrorIs(t, s.CreateGroup(ctx, &target.Group{UUID: "uuid-1", Name: "x", OwnerUUID: "uuid-1"}),
			target.ErrAlreadyExists)
		require.ErrorIs(t, s.CreateGroup(ctx, &target.Group{UUID: "uuid-9", Name: "devs", OwnerUUID: "uuid-9"}),
			target.ErrAlreadyExists)

		byName, err := s.GroupByName(ctx, "devs")
		require.NoError(t, err)
		assert.Equal(t, "uuid-1", byName.UUID)
		assert.ElementsMatch(t, []target.AccountID{1, 2}, byName.Members)

		g.Members = []target.AccountID{3}
		g.Includes = nil
		require.NoError(t, s.UpdateGroup(ctx, g))
		byUUID, err := s.GroupByUUID(ctx, "uuid-1")
		require.NoError(t, err)
		assert.Equal(t, []target.AccountID{3}, byUUID.Members)
		assert.Empty(t, byUUID.Includes)

		_, err = s.GroupByUUID(ctx, "missing")
		require.ErrorIs(t, err, target.ErrNotFound)
	})
}
