package gitlab_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/remote/gitlab"
	"github.com/sgaunet/review-importer/pkg/remote/gitlab/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlabapi "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

func newRemote(client *mocks.ClientMock) *gitlab.Remote {
	return gitlab.NewWithClient(client, "https://gitlab.example.com/", rate.NewLimiter(rate.Inf, 1))
}

func TestGetProject(t *testing.T) {
	projects := &mocks.ProjectsServiceMock{
		GetProjectFunc: func(pid any, _ *gitlabapi.GetProjectOptions, _ ...gitlabapi.RequestOptionFunc) (*gitlabapi.Project, *gitlabapi.Response, error) {
			if pid == "team/missing" {
				return nil, &gitlabapi.Response{Response: &http.Response{StatusCode: http.StatusNotFound}}, gitlabapi.ErrNotFound
			}
			return &gitlabapi.Project{ID: 42, PathWithNamespace: "team/app", Description: "app"}, &gitlabapi.Response{}, nil
		},
	}
	r := newRemote(&mocks.ClientMock{ProjectsFunc: func() gitlab.ProjectsService { return projects }})

	info, err := r.GetProject(t.Context(), "team/app")
	require.NoError(t, err)
	assert.Equal(t, "team/app", info.Name)
	assert.Equal(t, "app", info.Description)

	_, err = r.GetProject(t.Context(), "team/missing")
	require.ErrorIs(t, err, remote.ErrNotFound)
	assert.True(t, remote.IsBadRequest(err))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		resp *gitlabapi.Response
		err  error
		want error
		bad  bool
	}{
		{
			name: "unauthorized",
			resp: &gitlabapi.Response{Response: &http.Response{StatusCode: http.StatusUnauthorized}},
			err:  errors.New("401 Unauthorized"),
			want: remote.ErrInvalidCredentials,
			bad:  true,
		},
		{
			name: "network failure",
			err:  errors.New("connection refused"),
			want: remote.ErrTransport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects := &mocks.ProjectsServiceMock{
				GetProjectFunc: func(_ any, _ *gitlabapi.GetProjectOptions, _ ...gitlabapi.RequestOptionFunc) (*gitlabapi.Project, *gitlabapi.Response, error) {
					return nil, tt.resp, tt.err
				},
			}
			r := newRemote(&mocks.ClientMock{ProjectsFunc: func() gitlab.ProjectsService { return projects }})
			_, err := r.GetProject(t.Context(), "team/app")
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.bad, remote.IsBadRequest(err))
		})
	}
}

func TestQueryChangesAndComments(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)
	mrs := &mocks.MergeRequestsServiceMock{
		ListProjectMergeRequestsFunc: func(_ any, opt *gitlabapi.ListProjectMergeRequestsOptions, _ ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.BasicMergeRequest, *gitlabapi.Response, error) {
			assert.Equal(t, int64(2), opt.Page)
			assert.Equal(t, int64(10), opt.PerPage)
			assert.Equal(t, "all", *opt.State)
			return []*gitlabapi.BasicMergeRequest{
				{
					ID: 900, IID: 7, Title: "Add feature", State: "merged", TargetBranch: "main",
					SHA: "deadbeef", Labels: gitlabapi.Labels{"backend"}, CreatedAt: &created, UpdatedAt: &later,
					Author: &gitlabapi.BasicUser{ID: 3, Username: "carol", Name: "Carol"},
				},
				{ID: 901, IID: 8, Title: "no commits yet"},
			}, &gitlabapi.Response{NextPage: 3}, nil
		},
	}
	notes := &mocks.NotesServiceMock{
		ListMergeRequestNotesFunc: func(pid any, mr int64, _ *gitlabapi.ListMergeRequestNotesOptions, _ ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.Note, *gitlabapi.Response, error) {
			assert.Equal(t, "team/app", pid)
			assert.Equal(t, int64(7), mr)
			return []*gitlabapi.Note{
				{ID: 2, Body: "merged", System: true, CreatedAt: &later, Author: gitlabapi.NoteAuthor{ID: 3, Username: "carol"}},
				{ID: 1, Body: "looks good", CreatedAt: &created, Author: gitlabapi.NoteAuthor{ID: 4, Username: "dave"}},
				{
					ID: 5, Type: "DiffNote", Body: "typo", UpdatedAt: &created, Author: gitlabapi.NoteAuthor{ID: 4, Username: "dave"},
					Position: &gitlabapi.NotePosition{HeadSHA: "deadbeef", NewPath: "main.go", NewLine: 12},
				},
				{
					ID: 6, Type: "DiffNote", Body: "removed?", UpdatedAt: &created, Author: gitlabapi.NoteAuthor{ID: 4, Username: "dave"},
					Position: &gitlabapi.NotePosition{HeadSHA: "deadbeef", OldPath: "old.go", OldLine: 3},
				},
				{
					ID: 9, Type: "DiffNote", Body: "outdated", Author: gitlabapi.NoteAuthor{ID: 4},
					Position: &gitlabapi.NotePosition{HeadSHA: "cafe", NewPath: "main.go", NewLine: 1},
				},
			}, &gitlabapi.Response{}, nil
		},
	}
	r := newRemote(&mocks.ClientMock{
		MergeRequestsFunc: func() gitlab.MergeRequestsService { return mrs },
		NotesFunc:         func() gitlab.NotesService { return notes },
	})

	page, err := r.QueryChanges(t.Context(), "team/app", 10, 10)
	require.NoError(t, err)
	assert.True(t, page.More)
	require.Len(t, page.Changes, 1, "merge requests without a head commit are skipped")
	assert.Equal(t, 20, page.Next)
	assert.Equal(t, []string{"team/app!8 has no head commit"}, page.Skipped)

	c := page.Changes[0]
	assert.Equal(t, "gitlab-mr-900", c.Key())
	assert.Equal(t, "MERGED", c.Status)
	assert.Equal(t, "main", c.Branch)
	assert.Equal(t, "carol", c.Owner.Username)
	assert.Equal(t, []string{"backend"}, c.Hashtags)
	assert.Equal(t, "deadbeef", c.CurrentRevision)
	require.Contains(t, c.Revisions, "deadbeef")
	assert.Equal(t, "refs/merge-requests/7/head", c.Revisions["deadbeef"].Ref)

	require.Len(t, c.Messages, 2)
	assert.Equal(t, "looks good", c.Messages[0].Message)
	assert.Equal(t, "autogenerated:gitlab", c.Messages[1].Tag)

	comments, err := r.GetComments(t.Context(), c.Number, "deadbeef")
	require.NoError(t, err)
	require.Len(t, comments["main.go"], 1)
	assert.Equal(t, 12, comments["main.go"][0].Line)
	require.Len(t, comments["old.go"], 1)
	assert.True(t, comments["old.go"][0].OnParent())

	_, err = r.GetComments(t.Context(), 12345, "deadbeef")
	require.ErrorIs(t, err, remote.ErrNotFound)
}

func TestGetGroup(t *testing.T) {
	groups := &mocks.GroupsServiceMock{
		GetGroupFunc: func(_ any, _ *gitlabapi.GetGroupOptions, _ ...gitlabapi.RequestOptionFunc) (*gitlabapi.Group, *gitlabapi.Response, error) {
			return &gitlabapi.Group{ID: 11, FullPath: "team/devs", Visibility: gitlabapi.PublicVisibility}, &gitlabapi.Response{}, nil
		},
		ListGroupMembersFunc: func(gid any, opt *gitlabapi.ListGroupMembersOptions, _ ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.GroupMember, *gitlabapi.Response, error) {
			assert.Equal(t, int64(11), gid)
			if opt.Page == 0 {
				return []*gitlabapi.GroupMember{{ID: 1, Username: "a"}}, &gitlabapi.Response{NextPage: 2}, nil
			}
			return []*gitlabapi.GroupMember{{ID: 2, Username: "b", Email: "b@example.com"}}, &gitlabapi.Response{}, nil
		},
	}
	r := newRemote(&mocks.ClientMock{GroupsFunc: func() gitlab.GroupsService { return groups }})

	g, err := r.GetGroup(t.Context(), "team/devs")
	require.NoError(t, err)
	assert.Equal(t, "gitlab-group-11", g.ID)
	assert.Equal(t, "team/devs", g.Name)
	assert.True(t, g.Options.VisibleToAll)
	require.Len(t, g.Members, 2)
	assert.Equal(t, "b@example.com", g.Members[1].Email)
	assert.Len(t, groups.ListGroupMembersCalls(), 2)
}

func TestGetSSHKeysAndRepositoryURL(t *testing.T) {
	users := &mocks.UsersServiceMock{
		ListSSHKeysForUserFunc: func(uid any, _ *gitlabapi.ListSSHKeysForUserOptions, _ ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.SSHKey, *gitlabapi.Response, error) {
			assert.Equal(t, int64(3), uid)
			return []*gitlabapi.SSHKey{{ID: 1, Key: "ssh-rsa AAAA carol"}}, &gitlabapi.Response{}, nil
		},
	}
	r := newRemote(&mocks.ClientMock{UsersFunc: func() gitlab.UsersService { return users }})

	keys, err := r.GetSSHKeys(t.Context(), 3)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ssh-rsa AAAA carol", keys[0].SSHPublicKey)

	assert.Equal(t, "https://gitlab.example.com/team/app.git", r.RepositoryURL("team/app"))
}

func TestQueryChangesPageWithoutUsableMergeRequests(t *testing.T) {
	mrs := &mocks.MergeRequestsServiceMock{
		ListProjectMergeRequestsFunc: func(_ any, opt *gitlabapi.ListProjectMergeRequestsOptions, _ ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.BasicMergeRequest, *gitlabapi.Response, error) {
			assert.Equal(t, int64(1), opt.Page)
			return []*gitlabapi.BasicMergeRequest{{ID: 1, IID: 1}, {ID: 2, IID: 2}}, &gitlabapi.Response{NextPage: 2}, nil
		},
	}
	r := newRemote(&mocks.ClientMock{
		MergeRequestsFunc: func() gitlab.MergeRequestsService { return mrs },
	})

	page, err := r.QueryChanges(t.Context(), "team/app", 0, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Changes)
	assert.True(t, page.More)
	assert.Equal(t, 2, page.Next, "the next page starts after the dropped merge requests")
	assert.Len(t, page.Skipped, 2)
}
