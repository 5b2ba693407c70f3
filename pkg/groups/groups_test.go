package groups_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sgaunet/review-importer/pkg/groups"
	"github.com/sgaunet/review-importer/pkg/identity"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/remote/mocks"
	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/sgaunet/review-importer/pkg/target/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, info remote.AccountInfo) (target.AccountID, error)

func (f resolverFunc) Resolve(ctx context.Context, info remote.AccountInfo) (target.AccountID, error) {
	return f(ctx, info)
}

var byAccountID = resolverFunc(func(_ context.Context, info remote.AccountInfo) (target.AccountID, error) {
	if info.Username == "ghost" {
		return 0, fmt.Errorf("%w: ghost", identity.ErrNotFound)
	}
	return target.AccountID(info.AccountID), nil
})

func source(groupsByID map[string]*remote.GroupInfo) *mocks.RemoteMock {
	return &mocks.RemoteMock{
		GetGroupFunc: func(_ context.Context, nameOrUUID string) (*remote.GroupInfo, error) {
			if g, ok := groupsByID[nameOrUUID]; ok {
				return g, nil
			}
			for _, g := range groupsByID {
				if g.Name == nameOrUUID {
					return g, nil
				}
			}
			return nil, fmt.Errorf("%w: %w", remote.ErrBadRequest, remote.ErrNotFound)
		},
	}
}

func newReplicator(t *testing.T, store *memstore.Store) *groups.Replicator {
	t.Helper()
	cache, err := groups.NewGroupCache(store, 16)
	require.NoError(t, err)
	return groups.NewReplicator(store, cache, byAccountID)
}

func TestImport(t *testing.T) {
	remoteGroups := map[string]*remote.GroupInfo{
		"dev": {
			ID: "dev", Name: "developers", OwnerID: "adm",
			Members:  []remote.AccountInfo{{AccountID: 1, Username: "a"}, {AccountID: 2, Username: "ghost"}},
			Includes: []remote.GroupInfo{{ID: "qa"}, {ID: "ldap:cn=ops"}},
		},
		"adm": {ID: "adm", Name: "admins", OwnerID: "adm"},
		"qa":  {ID: "qa", Name: "qa", OwnerID: "dev", Includes: []remote.GroupInfo{{ID: "dev"}}},
	}

	t.Run("imports dependencies first and survives cycles", func(t *testing.T) {
		store := memstore.New()
		r := newReplicator(t, store)

		created, err := r.Import(t.Context(), source(remoteGroups), "developers", groups.Options{ImportOwnerGroup: true, ImportIncludedGroups: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"admins", "qa", "developers"}, created)

		dev, err := store.GroupByUUID(t.Context(), "dev")
		require.NoError(t, err)
		assert.Equal(t, []target.AccountID{1}, dev.Members, "unknown members are left out")
		assert.Equal(t, []string{"qa", "ldap:cn=ops"}, dev.Includes)
		assert.Equal(t, "adm", dev.OwnerUUID)
	})

	t.Run("missing owner without the flag", func(t *testing.T) {
		store := memstore.New()
		r := newReplicator(t, store)

		_, err := r.Import(t.Context(), source(remoteGroups), "developers", groups.Options{ImportIncludedGroups: true})
		require.ErrorIs(t, err, groups.ErrMissingDependency)
		assert.Zero(t, store.Writes)
	})

	t.Run("missing include without the flag", func(t *testing.T) {
		store := memstore.New()
		require.NoError(t, store.CreateGroup(t.Context(), &target.Group{UUID: "adm", Name: "admins"}))
		r := newReplicator(t, store)

		_, err := r.Import(t.Context(), source(remoteGroups), "developers", groups.Options{ImportOwnerGroup: true})
		require.ErrorIs(t, err, groups.ErrMissingDependency)
	})

	t.Run("existing dependencies need no flag", func(t *testing.T) {
		store := memstore.New()
		require.NoError(t, store.CreateGroup(t.Context(), &target.Group{UUID: "adm", Name: "admins"}))
		require.NoError(t, store.CreateGroup(t.Context(), &target.Group{UUID: "qa", Name: "qa"}))
		r := newReplicator(t, store)

		created, err := r.Import(t.Context(), source(remoteGroups), "dev", groups.Options{})
		require.NoError(t, err)
		assert.Equal(t, []string{"developers"}, created)
	})

	t.Run("group already present", func(t *testing.T) {
		store := memstore.New()
		require.NoError(t, store.CreateGroup(t.Context(), &target.Group{UUID: "adm", Name: "whatever"}))
		r := newReplicator(t, store)

		_, err := r.Import(t.Context(), source(remoteGroups), "adm", groups.Options{})
		require.ErrorIs(t, err, groups.ErrExists)
	})
}

func TestNameCollisions(t *testing.T) {
	store := memstore.New()
	for i, name := range []string{"team", "team_imported", "team_imported-1"} {
		require.NoError(t, store.CreateGroup(t.Context(), &target.Group{UUID: fmt.Sprintf("local-%d", i), Name: name}))
	}
	r := newReplicator(t, store)
	src := source(map[string]*remote.GroupInfo{
		"u1": {ID: "u1", Name: "team"},
		"u2": {ID: "u2", Name: "other"},
	})

	created, err := r.Import(t.Context(), src, "u1", groups.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"team_imported-2"}, created)

	g, err := store.GroupByUUID(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", g.OwnerUUID, "a group without owner owns itself")
}

func TestEnsureReferenced(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.CreateGroup(t.Context(), &target.Group{UUID: "adm", Name: "admins"}))
	r := newReplicator(t, store)
	src := source(map[string]*remote.GroupInfo{
		"dev": {ID: "dev", Name: "developers", OwnerID: "adm", Includes: []remote.GroupInfo{{ID: "qa"}}},
		"qa":  {ID: "qa", Name: "qa"},
	})

	created, err := r.EnsureReferenced(t.Context(), src, []string{"global:Registered-Users", "adm", "dev", "dev"})
	require.NoError(t, err)
	assert.Equal(t, []string{"qa", "developers"}, created)
	assert.Len(t, src.GetGroupCalls(), 2)

	created, err = r.EnsureReferenced(t.Context(), src, []string{"dev"})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestParseGroupsFile(t *testing.T) {
	content := []byte("# UUID\tGroup Name\n#\nglobal:Registered-Users\tRegistered Users\nabc123\tdevelopers\n\n")
	assert.Equal(t, []string{"global:Registered-Users", "abc123"}, groups.ParseGroupsFile(content))
}
