package gitlab

import (
	gitlabapi "gitlab.com/gitlab-org/api/client-go"
)

//go:generate go tool github.com/matryer/moq -out mocks/client.go -pkg mocks . Client
//go:generate go tool github.com/matryer/moq -out mocks/services.go -pkg mocks . ProjectsService MergeRequestsService NotesService GroupsService UsersService

// Client is the subset of the GitLab API the source facade reads from.
type Client interface {
	Projects() ProjectsService
	MergeRequests() MergeRequestsService
	Notes() NotesService
	Groups() GroupsService
	Users() UsersService
}

// ProjectsService defines the GitLab Projects API operations in use.
type ProjectsService interface {
	//nolint:lll // GitLab API method signatures are inherently long
	GetProject(pid any, opt *gitlabapi.GetProjectOptions, options ...gitlabapi.RequestOptionFunc) (*gitlabapi.Project, *gitlabapi.Response, error)
}

// MergeRequestsService defines the GitLab Merge Requests API operations in use.
type MergeRequestsService interface {
	//nolint:lll // GitLab API method signatures are inherently long
	ListProjectMergeRequests(pid any, opt *gitlabapi.ListProjectMergeRequestsOptions, options ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.BasicMergeRequest, *gitlabapi.Response, error)
}

// NotesService defines the GitLab Notes API operations in use.
type NotesService interface {
	//nolint:lll // GitLab API method signatures are inherently long
	ListMergeRequestNotes(pid any, mergeRequest int64, opt *gitlabapi.ListMergeRequestNotesOptions, options ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.Note, *gitlabapi.Response, error)
}

// GroupsService defines the GitLab Groups API operations in use.
type GroupsService interface {
	//nolint:lll // GitLab API method signatures are inherently long
	GetGroup(gid any, opt *gitlabapi.GetGroupOptions, options ...gitlabapi.RequestOptionFunc) (*gitlabapi.Group, *gitlabapi.Response, error)
	//nolint:lll // GitLab API method signatures are inherently long
	ListGroupMembers(gid any, opt *gitlabapi.ListGroupMembersOptions, options ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.GroupMember, *gitlabapi.Response, error)
}

// UsersService defines the GitLab Users API operations in use.
type UsersService interface {
	//nolint:lll // GitLab API method signatures are inherently long
	ListSSHKeysForUser(uid any, opt *gitlabapi.ListSSHKeysForUserOptions, options ...gitlabapi.RequestOptionFunc) ([]*gitlabapi.SSHKey, *gitlabapi.Response, error)
}

type clientWrapper struct {
	client *gitlabapi.Client
}

// NewClientWrapper wraps the official GitLab client.
//
//nolint:ireturn // Interface return is intentional for dependency injection
func NewClientWrapper(client *gitlabapi.Client) Client {
	return &clientWrapper{client: client}
}

//nolint:ireturn // Interface return is intentional for dependency injection
func (w *clientWrapper) Projects() ProjectsService { return w.client.Projects }

//nolint:ireturn // Interface return is intentional for dependency injection
func (w *clientWrapper) MergeRequests() MergeRequestsService { return w.client.MergeRequests }

//nolint:ireturn // Interface return is intentional for dependency injection
func (w *clientWrapper) Notes() NotesService { return w.client.Notes }

//nolint:ireturn // Interface return is intentional for dependency injection
func (w *clientWrapper) Groups() GroupsService { return w.client.Groups }

//nolint:ireturn // Interface return is intentional for dependency injection
func (w *clientWrapper) Users() UsersService { return w.client.Users }
