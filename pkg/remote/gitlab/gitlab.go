// Package gitlab implements remote.Remote over the GitLab API. Merge requests are exposed as
// changes with a single revision, labels as hashtags and notes as messages and comments.
package gitlab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/remote"
	gitlabapi "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

const diffNoteType = "DiffNote"

var log Logger

// Logger interface defines the logging methods used by the GitLab source.
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

type mergeRequestRef struct {
	project string
	iid     int64
}

// Remote reads a GitLab instance.
type Remote struct {
	client  Client
	webURL  string
	limiter *rate.Limiter

	mu            sync.Mutex
	mergeRequests map[int]mergeRequestRef
}

// New returns a source for the GitLab instance at webURL, authenticated with token.
func New(webURL, token string, limiter *rate.Limiter) (*Remote, error) {
	webURL = strings.TrimSuffix(webURL, "/")
	api, err := gitlabapi.NewClient(token,
		gitlabapi.WithBaseURL(webURL+"/api/v4"),
		gitlabapi.WithHTTPClient(&http.Client{Timeout: constants.DefaultRemoteTimeoutSeconds * time.Second}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return NewWithClient(NewClientWrapper(api), webURL, limiter), nil
}

// NewWithClient returns a source reading through client.
func NewWithClient(client Client, webURL string, limiter *rate.Limiter) *Remote {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(constants.DefaultRemoteQPS), constants.DefaultRemoteBurst)
	}
	return &Remote{
		client:        client,
		webURL:        strings.TrimSuffix(webURL, "/"),
		limiter:       limiter,
		mergeRequests: make(map[int]mergeRequestRef),
	}
}

// GetProject returns the project at path.
func (r *Remote) GetProject(ctx context.Context, path string) (*remote.ProjectInfo, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	p, resp, err := r.client.Projects().GetProject(path, nil, gitlabapi.WithContext(ctx))
	if err != nil {
		return nil, mapErr(fmt.Sprintf("project %s", path), resp, err)
	}
	return &remote.ProjectInfo{
		ID:          p.PathWithNamespace,
		Name:        p.PathWithNamespace,
		Description: p.Description,
		State:       "ACTIVE",
	}, nil
}

// QueryChanges returns one page of merge requests, oldest first. GitLab pages by number so start
// is expected to be a multiple of limit.
func (r *Remote) QueryChanges(ctx context.Context, project string, start, limit int) (*remote.ChangePage, error) {
	if limit <= 0 {
		limit = constants.GitLabPageSize
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	opt := &gitlabapi.ListProjectMergeRequestsOptions{
		ListOptions: gitlabapi.ListOptions{
			Page:    int64(start/limit + 1),
			PerPage: int64(limit),
		},
		State:   gitlabapi.Ptr("all"),
		OrderBy: gitlabapi.Ptr("created_at"),
		Sort:    gitlabapi.Ptr("asc"),
	}
	mrs, resp, err := r.client.MergeRequests().ListProjectMergeRequests(project, opt, gitlabapi.WithContext(ctx))
	if err != nil {
		return nil, mapErr(fmt.Sprintf("merge requests of %s", project), resp, err)
	}

	page := &remote.ChangePage{
		More: resp != nil && resp.NextPage != 0,
		Next: (start/limit + 1) * limit,
	}
	for _, mr := range mrs {
		if mr.SHA == "" {
			log.Warn("skipping merge request without head commit", "project", project, "iid", mr.IID)
			page.Skipped = append(page.Skipped, fmt.Sprintf("%s!%d has no head commit", project, mr.IID))
			continue
		}
		notes, err := r.listNotes(ctx, project, mr.IID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.mergeRequests[int(mr.ID)] = mergeRequestRef{project: project, iid: mr.IID}
		r.mu.Unlock()
		page.Changes = append(page.Changes, toChange(project, mr, notes))
	}
	if n := len(page.Changes); n > 0 {
		page.Changes[n-1].MoreChanges = page.More
	}
	return page, nil
}

func (r *Remote) listNotes(ctx context.Context, project string, iid int64) ([]*gitlabapi.Note, error) {
	var all []*gitlabapi.Note
	opt := &gitlabapi.ListMergeRequestNotesOptions{
		ListOptions: gitlabapi.ListOptions{PerPage: constants.GitLabPageSize},
		OrderBy:     gitlabapi.Ptr("created_at"),
		Sort:        gitlabapi.Ptr("asc"),
	}
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		notes, resp, err := r.client.Notes().ListMergeRequestNotes(project, iid, opt, gitlabapi.WithContext(ctx))
		if err != nil {
			return nil, mapErr(fmt.Sprintf("notes of %s!%d", project, iid), resp, err)
		}
		all = append(all, notes...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func toChange(project string, mr *gitlabapi.BasicMergeRequest, notes []*gitlabapi.Note) remote.ChangeInfo {
	owner := userInfo(mr.Author)
	created := timeOf(mr.CreatedAt)
	info := remote.ChangeInfo{
		ID:              fmt.Sprintf("%s~%d", project, mr.IID),
		Project:         project,
		Branch:          mr.TargetBranch,
		ChangeID:        fmt.Sprintf("gitlab-mr-%d", mr.ID),
		Subject:         mr.Title,
		Status:          changeStatus(mr.State),
		Created:         remote.NewTimestamp(created),
		Updated:         remote.NewTimestamp(timeOf(mr.UpdatedAt)),
		Number:          int(mr.ID),
		Owner:           owner,
		CurrentRevision: mr.SHA,
		Revisions: map[string]remote.RevisionInfo{
			mr.SHA: {
				Number:   1,
				Ref:      fmt.Sprintf("refs/merge-requests/%d/head", mr.IID),
				Created:  remote.NewTimestamp(created),
				Uploader: &owner,
				Commit:   &remote.CommitInfo{Subject: mr.Title, Message: mr.Description},
			},
		},
	}
	info.Hashtags = append(info.Hashtags, mr.Labels...)
	for _, n := range notes {
		if string(n.Type) == diffNoteType {
			continue
		}
		msg := remote.ChangeMessageInfo{
			ID:             fmt.Sprintf("gitlab-note-%d", n.ID),
			Author:         noteAuthor(n.Author),
			Date:           remote.NewTimestamp(timeOf(n.CreatedAt)),
			Message:        n.Body,
			RevisionNumber: 1,
		}
		if n.System {
			msg.Tag = "autogenerated:gitlab"
		}
		info.Messages = append(info.Messages, msg)
	}
	sort.SliceStable(info.Messages, func(i, j int) bool { return info.Messages[i].Date.Before(info.Messages[j].Date.Time) })
	return info
}

// GetGroup returns the group with its direct members. GitLab groups have no owner group and no
// includes.
func (r *Remote) GetGroup(ctx context.Context, nameOrID string) (*remote.GroupInfo, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	g, resp, err := r.client.Groups().GetGroup(nameOrID, nil, gitlabapi.WithContext(ctx))
	if err != nil {
		return nil, mapErr(fmt.Sprintf("group %s", nameOrID), resp, err)
	}
	info := &remote.GroupInfo{
		ID:          fmt.Sprintf("gitlab-group-%d", g.ID),
		Name:        g.FullPath,
		Description: g.Description,
		Options:     remote.GroupOptions{VisibleToAll: string(g.Visibility) == "public"},
		CreatedOn:   remote.NewTimestamp(timeOf(g.CreatedAt)),
	}

	opt := &gitlabapi.ListGroupMembersOptions{
		ListOptions: gitlabapi.ListOptions{PerPage: constants.GitLabPageSize},
	}
	for {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		members, resp, err := r.client.Groups().ListGroupMembers(g.ID, opt, gitlabapi.WithContext(ctx))
		if err != nil {
			return nil, mapErr(fmt.Sprintf("members of group %s", nameOrID), resp, err)
		}
		for _, m := range members {
			info.Members = append(info.Members, remote.AccountInfo{
				AccountID: int(m.ID),
				Name:      m.Name,
				Email:     m.Email,
				Username:  m.Username,
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return info, nil
}

// GetComments returns the diff notes of a merge request that were written on revision.
// changeNumber is the merge request number reported by QueryChanges.
func (r *Remote) GetComments(ctx context.Context, changeNumber int, revision string) (map[string][]remote.CommentInfo, error) {
	r.mu.Lock()
	ref, ok := r.mergeRequests[changeNumber]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w: merge request %d was not listed", remote.ErrBadRequest, remote.ErrNotFound, changeNumber)
	}

	notes, err := r.listNotes(ctx, ref.project, ref.iid)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]remote.CommentInfo)
	for _, n := range notes {
		if string(n.Type) != diffNoteType || n.Position == nil || n.Position.HeadSHA != revision {
			continue
		}
		c := remote.CommentInfo{
			ID:      fmt.Sprintf("gitlab-note-%d", n.ID),
			Path:    n.Position.NewPath,
			Line:    int(n.Position.NewLine),
			Message: n.Body,
			Updated: remote.NewTimestamp(timeOf(n.UpdatedAt)),
			Author:  noteAuthor(n.Author),
		}
		if n.Position.NewLine == 0 && n.Position.OldLine != 0 {
			c.Side = "PARENT"
			c.Path = n.Position.OldPath
			c.Line = int(n.Position.OldLine)
		}
		out[c.Path] = append(out[c.Path], c)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// GetSSHKeys returns the public keys of a GitLab user.
func (r *Remote) GetSSHKeys(ctx context.Context, accountID int) ([]remote.SSHKeyInfo, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	keys, resp, err := r.client.Users().ListSSHKeysForUser(int64(accountID), &gitlabapi.ListSSHKeysForUserOptions{}, gitlabapi.WithContext(ctx))
	if err != nil {
		return nil, mapErr(fmt.Sprintf("ssh keys of user %d", accountID), resp, err)
	}
	out := make([]remote.SSHKeyInfo, 0, len(keys))
	for i, k := range keys {
		out = append(out, remote.SSHKeyInfo{Seq: i + 1, SSHPublicKey: k.Key, Valid: true})
	}
	return out, nil
}

// RepositoryURL returns the HTTP clone URL of project.
func (r *Remote) RepositoryURL(project string) string {
	return r.webURL + "/" + project + constants.RepositorySuffix
}

func mapErr(what string, resp *gitlabapi.Response, err error) error {
	switch {
	case errors.Is(err, gitlabapi.ErrNotFound):
		return fmt.Errorf("%w: %w: %s", remote.ErrBadRequest, remote.ErrNotFound, what)
	case resp != nil && resp.Response != nil && resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w: %s", remote.ErrBadRequest, remote.ErrInvalidCredentials, what)
	default:
		return fmt.Errorf("%w: %s: %w", remote.ErrTransport, what, err)
	}
}

func changeStatus(state string) string {
	switch state {
	case "merged":
		return "MERGED"
	case "closed", "locked":
		return "ABANDONED"
	default:
		return "NEW"
	}
}

func userInfo(u *gitlabapi.BasicUser) remote.AccountInfo {
	if u == nil {
		return remote.AccountInfo{}
	}
	return remote.AccountInfo{AccountID: int(u.ID), Name: u.Name, Username: u.Username}
}

func noteAuthor(a gitlabapi.NoteAuthor) *remote.AccountInfo {
	return &remote.AccountInfo{AccountID: int(a.ID), Name: a.Name, Email: a.Email, Username: a.Username}
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

var _ remote.Remote = (*Remote)(nil)
