package replay_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sgaunet/review-importer/pkg/identity"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/remote/mocks"
	"github.com/sgaunet/review-importer/pkg/replay"
	"github.com/sgaunet/review-importer/pkg/repository"
	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/sgaunet/review-importer/pkg/target/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefs is an in-memory RefStore.
type fakeRefs struct {
	refs    map[string]string
	missing map[string]bool
	renames []string
}

func newFakeRefs(refs map[string]string) *fakeRefs {
	return &fakeRefs{refs: refs, missing: map[string]bool{}}
}

func (f *fakeRefs) ResolveQuarantined(sourceRef string) (string, bool, error) {
	c, ok := f.refs[repository.QuarantineRef(sourceRef)]
	return c, ok, nil
}

func (f *fakeRefs) RenameRef(from, to string) error {
	c, ok := f.refs[from]
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrRefUpdate, from)
	}
	if existing, ok := f.refs[to]; ok && existing != c {
		return fmt.Errorf("%w: %s", repository.ErrRefConflict, to)
	}
	f.refs[to] = c
	delete(f.refs, from)
	f.renames = append(f.renames, from+"->"+to)
	return nil
}

func (f *fakeRefs) Commit(hash string) (*repository.Commit, error) {
	if f.missing[hash] {
		return nil, errors.New("object not found")
	}
	return &repository.Commit{Hash: hash, Parents: []string{"p-" + hash}}, nil
}

type resolverFunc func(ctx context.Context, info remote.AccountInfo) (target.AccountID, error)

func (f resolverFunc) Resolve(ctx context.Context, info remote.AccountInfo) (target.AccountID, error) {
	return f(ctx, info)
}

var byAccountID = resolverFunc(func(_ context.Context, info remote.AccountInfo) (target.AccountID, error) {
	if info.Username == "mallory" {
		return 0, fmt.Errorf("%w: mallory", identity.ErrIdentityMismatch)
	}
	return target.AccountID(info.AccountID), nil
})

var (
	alice = remote.AccountInfo{AccountID: 1, Username: "alice"}
	bob   = remote.AccountInfo{AccountID: 2, Username: "bob"}
)

func ts(sec int) remote.Timestamp {
	return remote.NewTimestamp(time.Date(2024, 3, 1, 10, 0, sec, 0, time.UTC))
}

func intPtr(v int) *int { return &v }

func sampleChange() *remote.ChangeInfo {
	return &remote.ChangeInfo{
		ID:       "demo~main~I1",
		Project:  "demo",
		Branch:   "main",
		ChangeID: "I1",
		Subject:  "Add feature",
		Status:   "NEW",
		Created:  ts(0),
		Updated:  ts(30),
		Number:   42,
		Owner:    alice,
		Hashtags: []string{"b", "a"},
		Revisions: map[string]remote.RevisionInfo{
			"c2": {Number: 2, Ref: "refs/changes/42/42/2", Created: ts(20), Uploader: &bob},
			"c1": {Number: 1, Ref: "refs/changes/42/42/1", Created: ts(10)},
		},
		CurrentRevision: "c2",
		Labels: map[string]remote.LabelInfo{
			"Code-Review": {All: []remote.ApprovalInfo{
				{AccountInfo: bob, Value: intPtr(2), Date: ts(25)},
				{AccountInfo: alice},
			}},
		},
		Messages: []remote.ChangeMessageInfo{
			{ID: "m1", Author: &alice, Date: ts(10), Message: "Uploaded patch set 1.", RevisionNumber: 1},
			{Date: ts(20), Message: "Build started", Tag: "autogenerated:ci", RevisionNumber: 2},
		},
	}
}

func sampleRefs() *fakeRefs {
	return newFakeRefs(map[string]string{
		"refs/imports/changes/42/42/1": "c1",
		"refs/imports/changes/42/42/2": "c2",
	})
}

func sourceWith(comments map[string]map[string][]remote.CommentInfo) *mocks.RemoteMock {
	return &mocks.RemoteMock{
		GetCommentsFunc: func(_ context.Context, _ int, revision string) (map[string][]remote.CommentInfo, error) {
			return comments[revision], nil
		},
	}
}

func newReplayer(store target.Store, refs replay.RefStore, src remote.Remote) *replay.Replayer {
	return replay.New(replay.Config{
		Store:     store,
		Accounts:  byAccountID,
		Refs:      refs,
		Source:    src,
		SourceURL: "https://review.example.com/",
		Actor:     99,
	})
}

func TestReplayChange(t *testing.T) {
	store := memstore.New()
	refs := sampleRefs()
	src := sourceWith(map[string]map[string][]remote.CommentInfo{
		"c1": {"main.go": {{ID: "k1", Line: 3, Message: "nit", Updated: ts(12), Author: &bob, Side: "PARENT"}}},
	})
	r := newReplayer(store, refs, src)

	out, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, 2, out.PatchSetsCreated)
	assert.Equal(t, 2, out.RefsMoved)
	assert.Equal(t, 1, out.CommentsUpserted)
	assert.Equal(t, 3, out.MessagesInserted)
	assert.Equal(t, 1, out.ApprovalsUpserted)
	assert.True(t, out.HashtagsSet)

	change, err := store.ChangeByKey(t.Context(), "demo", "main", "I1")
	require.NoError(t, err)
	assert.Equal(t, target.AccountID(1), change.Owner)
	assert.Equal(t, 2, change.CurrentPatchSet)

	patchSets, err := store.PatchSets(t.Context(), change.ID)
	require.NoError(t, err)
	require.Len(t, patchSets, 2)
	assert.Equal(t, target.AccountID(1), patchSets[0].Uploader, "uploader falls back to the owner")
	assert.Equal(t, target.AccountID(2), patchSets[1].Uploader)
	assert.Equal(t, []string{"p-c1"}, patchSets[0].Parents)
	assert.Equal(t, "c2", refs.refs[target.ChangeRef(change.ID, 2)])
	assert.NotContains(t, refs.refs, "refs/imports/changes/42/42/1")

	comments, err := store.Comments(t.Context(), change.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, target.SideOld, comments[0].Side)
	assert.Equal(t, "main.go", comments[0].Path)

	messages, err := store.Messages(t.Context(), change.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, target.AccountID(0), messages[1].Author)
	assert.Equal(t, replay.MessageUUID("I1", &sampleChange().Messages[1]), messages[1].UUID)
	assert.Equal(t, replay.ProvenanceTag, messages[2].Tag)
	assert.Equal(t, "Imported from https://review.example.com/#/c/42/", messages[2].Message)
	assert.Equal(t, target.AccountID(99), messages[2].Author)

	approvals, err := store.Approvals(t.Context(), change.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, 2, approvals[0].Value)
	assert.Equal(t, 2, approvals[0].PatchSet)

	tags, err := store.Hashtags(t.Context(), change.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestReplayChangeIsIdempotent(t *testing.T) {
	store := memstore.New()
	src := sourceWith(map[string]map[string][]remote.CommentInfo{
		"c2": {"a.go": {{ID: "k1", Line: 1, Message: "x", Updated: ts(21), Author: &alice}}},
	})
	r := newReplayer(store, sampleRefs(), src)

	_, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.NoError(t, err)
	writes := store.Writes

	out, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.NoError(t, err)
	assert.Equal(t, writes, store.Writes)
	assert.Equal(t, &replay.Outcome{}, out)
}

func TestReplayChangeReconcilesComments(t *testing.T) {
	store := memstore.New()
	comments := map[string]map[string][]remote.CommentInfo{
		"c1": {"a.go": {
			{ID: "k1", Line: 1, Message: "first", Updated: ts(11), Author: &alice},
			{ID: "k2", Line: 2, Message: "second", Updated: ts(12), Author: &alice},
			{ID: "k3", Line: 3, Message: "third", Updated: ts(13), Author: &bob},
		}},
	}
	refs := sampleRefs()
	r := newReplayer(store, refs, sourceWith(comments))
	_, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.NoError(t, err)

	comments["c1"] = map[string][]remote.CommentInfo{"a.go": {
		{ID: "k1", Line: 1, Message: "first, edited", Updated: ts(15), Author: &alice},
		{ID: "k4", Line: 4, Message: "new", Updated: ts(16), Author: &alice},
	}}
	out, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.NoError(t, err)
	assert.Equal(t, 2, out.CommentsUpserted)
	assert.Equal(t, 2, out.CommentsDeleted, "k2 dropped and every comment of bob removed")

	change, err := store.ChangeByKey(t.Context(), "demo", "main", "I1")
	require.NoError(t, err)
	local, err := store.Comments(t.Context(), change.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, local, 2)
	assert.Equal(t, "first, edited", local[0].Message)
	assert.Equal(t, "k4", local[1].UUID)
}

func TestReplayChangeIdentityFailureWritesNothing(t *testing.T) {
	store := memstore.New()
	info := sampleChange()
	info.Messages = append(info.Messages, remote.ChangeMessageInfo{
		ID: "m9", Author: &remote.AccountInfo{AccountID: 7, Username: "mallory"}, Date: ts(29), Message: "hi",
	})
	r := newReplayer(store, sampleRefs(), sourceWith(nil))

	_, err := r.ReplayChange(t.Context(), "demo", info)
	require.ErrorIs(t, err, identity.ErrIdentityMismatch)
	assert.Zero(t, store.Writes)
}

func TestReplayChangeSkipsRevisions(t *testing.T) {
	t.Run("missing quarantined ref", func(t *testing.T) {
		store := memstore.New()
		refs := newFakeRefs(map[string]string{"refs/imports/changes/42/42/1": "c1"})
		r := newReplayer(store, refs, sourceWith(nil))

		out, err := r.ReplayChange(t.Context(), "demo", sampleChange())
		require.NoError(t, err)
		assert.Equal(t, 1, out.PatchSetsCreated)
		assert.Equal(t, 1, out.RevisionsSkipped)

		change, err := store.ChangeByKey(t.Context(), "demo", "main", "I1")
		require.NoError(t, err)
		assert.Equal(t, 1, change.CurrentPatchSet, "highest patch set is current when the current revision is absent")
	})

	t.Run("unresolvable commit", func(t *testing.T) {
		store := memstore.New()
		refs := sampleRefs()
		refs.missing["c1"] = true
		r := newReplayer(store, refs, sourceWith(nil))

		out, err := r.ReplayChange(t.Context(), "demo", sampleChange())
		require.NoError(t, err)
		assert.Equal(t, 1, out.PatchSetsCreated)
		assert.Equal(t, 1, out.RevisionsSkipped)
		assert.Contains(t, refs.refs, "refs/imports/changes/42/42/1")
	})
}

func TestReplayChangeRefConflict(t *testing.T) {
	store := memstore.New()
	refs := sampleRefs()
	refs.refs[target.ChangeRef(1, 1)] = "other"
	r := newReplayer(store, refs, sourceWith(nil))

	_, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.ErrorIs(t, err, repository.ErrRefConflict)
}

func TestReplayChangeUpdatesExisting(t *testing.T) {
	store := memstore.New()
	r := newReplayer(store, sampleRefs(), sourceWith(nil))
	_, err := r.ReplayChange(t.Context(), "demo", sampleChange())
	require.NoError(t, err)

	info := sampleChange()
	info.Status = "MERGED"
	info.Labels["Code-Review"].All[0].Value = intPtr(1)
	out, err := r.ReplayChange(t.Context(), "demo", info)
	require.NoError(t, err)
	assert.True(t, out.Updated)
	assert.False(t, out.Created)
	assert.Equal(t, 1, out.ApprovalsUpserted)

	change, err := store.ChangeByKey(t.Context(), "demo", "main", "I1")
	require.NoError(t, err)
	assert.Equal(t, target.StatusMerged, change.Status)
	assert.Equal(t, 2, change.CurrentPatchSet)
}

func TestReplayChangeCommentSourceError(t *testing.T) {
	store := memstore.New()
	src := &mocks.RemoteMock{
		GetCommentsFunc: func(context.Context, int, string) (map[string][]remote.CommentInfo, error) {
			return nil, remote.ErrTransport
		},
	}
	_, err := newReplayer(store, sampleRefs(), src).ReplayChange(t.Context(), "demo", sampleChange())
	require.ErrorIs(t, err, remote.ErrTransport)
	assert.Zero(t, store.Writes)
}

func TestReplayChangeCherryPicksStayApart(t *testing.T) {
	store := memstore.New()
	refs := newFakeRefs(map[string]string{
		"refs/imports/changes/42/42/1": "c1",
		"refs/imports/changes/43/43/1": "d1",
	})
	r := newReplayer(store, refs, sourceWith(nil))

	onMain := &remote.ChangeInfo{
		ID: "demo~main~I1", Project: "demo", Branch: "main", ChangeID: "I1", Subject: "Fix", Status: "NEW",
		Created: ts(0), Updated: ts(5), Number: 42, Owner: alice, CurrentRevision: "c1",
		Revisions: map[string]remote.RevisionInfo{"c1": {Number: 1, Ref: "refs/changes/42/42/1", Created: ts(1)}},
	}
	onStable := &remote.ChangeInfo{
		ID: "demo~stable~I1", Project: "demo", Branch: "stable", ChangeID: "I1", Subject: "Fix", Status: "MERGED",
		Created: ts(10), Updated: ts(15), Number: 43, Owner: bob, CurrentRevision: "d1",
		Revisions: map[string]remote.RevisionInfo{"d1": {Number: 1, Ref: "refs/changes/43/43/1", Created: ts(11)}},
	}

	out, err := r.ReplayChange(t.Context(), "demo", onMain)
	require.NoError(t, err)
	assert.True(t, out.Created)
	out, err = r.ReplayChange(t.Context(), "demo", onStable)
	require.NoError(t, err)
	assert.True(t, out.Created, "same Change-Id on another branch is another change")
	assert.False(t, out.Updated)

	mainChange, err := store.ChangeByKey(t.Context(), "demo", "main", "I1")
	require.NoError(t, err)
	stableChange, err := store.ChangeByKey(t.Context(), "demo", "stable", "I1")
	require.NoError(t, err)
	require.NotEqual(t, mainChange.ID, stableChange.ID)

	assert.Equal(t, target.AccountID(1), mainChange.Owner)
	assert.Equal(t, target.StatusNew, mainChange.Status)
	assert.Equal(t, target.AccountID(2), stableChange.Owner)
	assert.Equal(t, target.StatusMerged, stableChange.Status)
	assert.Equal(t, "c1", refs.refs[target.ChangeRef(mainChange.ID, 1)])
	assert.Equal(t, "d1", refs.refs[target.ChangeRef(stableChange.ID, 1)])

	// a second pass over both leaves them untouched
	writes := store.Writes
	_, err = r.ReplayChange(t.Context(), "demo", onMain)
	require.NoError(t, err)
	_, err = r.ReplayChange(t.Context(), "demo", onStable)
	require.NoError(t, err)
	assert.Equal(t, writes, store.Writes)
}

func TestReplayChangeOrdersRevisions(t *testing.T) {
	store := memstore.New()
	info := sampleChange()
	info.Revisions["c3"] = remote.RevisionInfo{Number: 3, Ref: "refs/changes/42/42/3", Created: ts(28)}
	info.CurrentRevision = "c3"
	refs := newFakeRefs(map[string]string{
		"refs/imports/changes/42/42/2": "c2",
		"refs/imports/changes/42/42/1": "c1",
		"refs/imports/changes/42/42/3": "c3",
	})
	r := newReplayer(store, refs, sourceWith(nil))

	out, err := r.ReplayChange(t.Context(), "demo", info)
	require.NoError(t, err)
	assert.Equal(t, 3, out.PatchSetsCreated)

	change, err := store.ChangeByKey(t.Context(), "demo", "main", "I1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"refs/imports/changes/42/42/1->" + target.ChangeRef(change.ID, 1),
		"refs/imports/changes/42/42/2->" + target.ChangeRef(change.ID, 2),
		"refs/imports/changes/42/42/3->" + target.ChangeRef(change.ID, 3),
	}, refs.renames)
	assert.Equal(t, 3, change.CurrentPatchSet)
}

func TestReplayChangeResumesAfterRevisions(t *testing.T) {
	store := memstore.New()
	info := sampleChange()

	// state left by a run stopped right after moving the refs
	change := &target.Change{
		Key: "I1", Project: "demo", Branch: "main", Subject: info.Subject, Owner: 1, Status: target.StatusNew,
		Created: info.Created.Time, Updated: info.Updated.Time, CurrentPatchSet: 2,
	}
	require.NoError(t, store.CreateChange(t.Context(), change))
	refs := newFakeRefs(map[string]string{})
	for n, commit := range map[int]string{1: "c1", 2: "c2"} {
		require.NoError(t, store.InsertPatchSet(t.Context(), &target.PatchSet{
			ChangeID: change.ID, Number: n, Revision: commit, Uploader: 1, Created: ts(10 * n).Time,
			Ref: target.ChangeRef(change.ID, n),
		}))
		refs.refs[target.ChangeRef(change.ID, n)] = commit
	}

	src := sourceWith(map[string]map[string][]remote.CommentInfo{
		"c1": {"main.go": {{ID: "k1", Line: 3, Message: "nit", Updated: ts(12), Author: &bob}}},
	})
	out, err := newReplayer(store, refs, src).ReplayChange(t.Context(), "demo", info)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.False(t, out.Updated)
	assert.Zero(t, out.PatchSetsCreated)
	assert.Zero(t, out.RefsMoved)
	assert.Zero(t, out.RevisionsSkipped)
	assert.Equal(t, 1, out.CommentsUpserted)
	assert.Equal(t, 3, out.MessagesInserted)
	assert.Equal(t, 1, out.ApprovalsUpserted)
	assert.True(t, out.HashtagsSet)

	comments, err := store.Comments(t.Context(), change.ID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	messages, err := store.Messages(t.Context(), change.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	approvals, err := store.Approvals(t.Context(), change.ID)
	require.NoError(t, err)
	assert.Len(t, approvals, 1)
	tags, err := store.Hashtags(t.Context(), change.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestReplayChangeCopyProvenance(t *testing.T) {
	store := memstore.New()
	r := replay.New(replay.Config{
		Store:     store,
		Accounts:  byAccountID,
		Refs:      sampleRefs(),
		Source:    sourceWith(nil),
		SourceURL: "local:team/app",
		Actor:     99,
	})

	_, err := r.ReplayChange(t.Context(), "team/app-copy", sampleChange())
	require.NoError(t, err)

	change, err := store.ChangeByKey(t.Context(), "team/app-copy", "main", "I1")
	require.NoError(t, err)
	messages, err := store.Messages(t.Context(), change.ID)
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	last := messages[len(messages)-1]
	assert.Equal(t, replay.ProvenanceTag, last.Tag)
	assert.Equal(t, "Copied from team/app change 42", last.Message)
}
