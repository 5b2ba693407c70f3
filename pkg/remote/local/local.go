// Package local implements remote.Remote over the target store itself, so that a project of
// this server can be the source of an import.
package local

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/target"
)

// Remote reads projects, changes and groups straight from a target store.
type Remote struct {
	store    target.Store
	reposDir string
}

// New returns a local source reading from store. Repositories are looked up under reposDir.
func New(store target.Store, reposDir string) *Remote {
	return &Remote{store: store, reposDir: reposDir}
}

// GetProject returns the project configuration.
func (r *Remote) GetProject(ctx context.Context, name string) (*remote.ProjectInfo, error) {
	p, err := r.store.Project(ctx, name)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("project %s", name), err)
	}
	return &remote.ProjectInfo{
		ID:          name,
		Name:        p.Name,
		Parent:      p.Parent,
		Description: p.Description,
		State:       "ACTIVE",
	}, nil
}

// QueryChanges returns one page of the project's changes.
func (r *Remote) QueryChanges(ctx context.Context, project string, start, limit int) (*remote.ChangePage, error) {
	changes, err := r.store.ListChanges(ctx, project, start, limit+1)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("changes of %s", project), err)
	}
	page := &remote.ChangePage{}
	if len(changes) > limit {
		page.More = true
		changes = changes[:limit]
	}
	page.Next = start + len(changes)
	accounts := accountCache{store: r.store, seen: make(map[target.AccountID]remote.AccountInfo)}
	for i := range changes {
		info, err := r.changeInfo(ctx, &changes[i], &accounts)
		if err != nil {
			return nil, err
		}
		page.Changes = append(page.Changes, *info)
	}
	if n := len(page.Changes); n > 0 {
		page.Changes[n-1].MoreChanges = page.More
	}
	return page, nil
}

func (r *Remote) changeInfo(ctx context.Context, c *target.Change, accounts *accountCache) (*remote.ChangeInfo, error) {
	owner, err := accounts.get(ctx, c.Owner)
	if err != nil {
		return nil, err
	}
	info := &remote.ChangeInfo{
		ID:        fmt.Sprintf("%s~%s~%s", c.Project, c.Branch, c.Key),
		Project:   c.Project,
		Branch:    c.Branch,
		Topic:     c.Topic,
		ChangeID:  c.Key,
		Subject:   c.Subject,
		Status:    string(c.Status),
		Created:   remote.NewTimestamp(c.Created),
		Updated:   remote.NewTimestamp(c.Updated),
		Number:    int(c.ID),
		Owner:     *owner,
		Revisions: make(map[string]remote.RevisionInfo),
	}

	patchSets, err := r.store.PatchSets(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("patch sets of change %d: %w", c.ID, err)
	}
	for _, ps := range patchSets {
		uploader, err := accounts.get(ctx, ps.Uploader)
		if err != nil {
			return nil, err
		}
		info.Revisions[ps.Revision] = remote.RevisionInfo{
			Number:   ps.Number,
			Ref:      ps.Ref,
			Created:  remote.NewTimestamp(ps.Created),
			Uploader: uploader,
			Draft:    ps.Draft,
		}
		if ps.Number == c.CurrentPatchSet {
			info.CurrentRevision = ps.Revision
		}
	}

	if info.Hashtags, err = r.store.Hashtags(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("hashtags of change %d: %w", c.ID, err)
	}
	if info.Labels, err = r.labels(ctx, c, accounts); err != nil {
		return nil, err
	}
	if info.Messages, err = r.messages(ctx, c.ID, accounts); err != nil {
		return nil, err
	}
	return info, nil
}

// labels reports the votes on the current patch set, the way a review server does.
func (r *Remote) labels(ctx context.Context, c *target.Change, accounts *accountCache) (map[string]remote.LabelInfo, error) {
	approvals, err := r.store.Approvals(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("approvals of change %d: %w", c.ID, err)
	}
	labels := make(map[string]remote.LabelInfo)
	for _, a := range approvals {
		if a.PatchSet != c.CurrentPatchSet {
			continue
		}
		voter, err := accounts.get(ctx, a.Account)
		if err != nil {
			return nil, err
		}
		value := a.Value
		label := labels[a.Label]
		label.All = append(label.All, remote.ApprovalInfo{
			AccountInfo: *voter,
			Value:       &value,
			Date:        remote.NewTimestamp(a.Granted),
		})
		labels[a.Label] = label
	}
	if len(labels) == 0 {
		return nil, nil
	}
	return labels, nil
}

func (r *Remote) messages(ctx context.Context, id target.ChangeID, accounts *accountCache) ([]remote.ChangeMessageInfo, error) {
	msgs, err := r.store.Messages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("messages of change %d: %w", id, err)
	}
	out := make([]remote.ChangeMessageInfo, 0, len(msgs))
	for _, m := range msgs {
		info := remote.ChangeMessageInfo{
			ID:             m.UUID,
			Date:           remote.NewTimestamp(m.Written),
			Message:        m.Message,
			Tag:            m.Tag,
			RevisionNumber: m.PatchSet,
		}
		if m.Author != 0 {
			if info.Author, err = accounts.get(ctx, m.Author); err != nil {
				return nil, err
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// GetGroup looks the group up by UUID first, then by name.
func (r *Remote) GetGroup(ctx context.Context, nameOrUUID string) (*remote.GroupInfo, error) {
	g, err := r.store.GroupByUUID(ctx, nameOrUUID)
	if errors.Is(err, target.ErrNotFound) {
		g, err = r.store.GroupByName(ctx, nameOrUUID)
	}
	if err != nil {
		return nil, mapErr(fmt.Sprintf("group %s", nameOrUUID), err)
	}

	info := &remote.GroupInfo{
		ID:          g.UUID,
		Name:        g.Name,
		Description: g.Description,
		Options:     remote.GroupOptions{VisibleToAll: g.VisibleToAll},
		OwnerID:     g.OwnerUUID,
		CreatedOn:   remote.NewTimestamp(g.Created),
	}
	if owner, err := r.store.GroupByUUID(ctx, g.OwnerUUID); err == nil {
		info.Owner = owner.Name
	}
	accounts := accountCache{store: r.store, seen: make(map[target.AccountID]remote.AccountInfo)}
	for _, id := range g.Members {
		member, err := accounts.get(ctx, id)
		if err != nil {
			return nil, err
		}
		info.Members = append(info.Members, *member)
	}
	for _, uuid := range g.Includes {
		include := remote.GroupInfo{ID: uuid}
		if inc, err := r.store.GroupByUUID(ctx, uuid); err == nil {
			include.Name = inc.Name
		}
		info.Includes = append(info.Includes, include)
	}
	return info, nil
}

// GetComments returns the comments of the patch set whose commit is revision.
func (r *Remote) GetComments(ctx context.Context, changeNumber int, revision string) (map[string][]remote.CommentInfo, error) {
	id := target.ChangeID(changeNumber)
	patchSets, err := r.store.PatchSets(ctx, id)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("change %d", changeNumber), err)
	}
	number := 0
	for _, ps := range patchSets {
		if ps.Revision == revision {
			number = ps.Number
			break
		}
	}
	if number == 0 {
		return nil, fmt.Errorf("%w: %w: revision %s of change %d", remote.ErrBadRequest, remote.ErrNotFound, revision, changeNumber)
	}

	comments, err := r.store.Comments(ctx, id, number, 0)
	if err != nil {
		return nil, fmt.Errorf("comments of change %d: %w", changeNumber, err)
	}
	if len(comments) == 0 {
		return nil, nil
	}
	accounts := accountCache{store: r.store, seen: make(map[target.AccountID]remote.AccountInfo)}
	out := make(map[string][]remote.CommentInfo)
	for _, c := range comments {
		author, err := accounts.get(ctx, c.Author)
		if err != nil {
			return nil, err
		}
		info := remote.CommentInfo{
			ID:        c.UUID,
			Path:      c.Path,
			Line:      c.Line,
			InReplyTo: c.ParentUUID,
			Message:   c.Message,
			Updated:   remote.NewTimestamp(c.Written),
			Author:    author,
		}
		if c.Side == target.SideOld {
			info.Side = "PARENT"
		}
		if c.Range != nil {
			info.Range = &remote.CommentRange{
				StartLine:      c.Range.StartLine,
				StartCharacter: c.Range.StartCharacter,
				EndLine:        c.Range.EndLine,
				EndCharacter:   c.Range.EndCharacter,
			}
		}
		out[c.Path] = append(out[c.Path], info)
	}
	for path := range out {
		list := out[path]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Updated.Before(list[j].Updated.Time) })
	}
	return out, nil
}

// GetSSHKeys returns the public keys of a local account.
func (r *Remote) GetSSHKeys(ctx context.Context, accountID int) ([]remote.SSHKeyInfo, error) {
	keys, err := r.store.SSHKeys(ctx, target.AccountID(accountID))
	if err != nil {
		return nil, mapErr(fmt.Sprintf("ssh keys of %d", accountID), err)
	}
	out := make([]remote.SSHKeyInfo, 0, len(keys))
	for i, k := range keys {
		out = append(out, remote.SSHKeyInfo{Seq: i + 1, SSHPublicKey: k, Valid: true})
	}
	return out, nil
}

// RepositoryURL returns the path of the project's bare repository.
func (r *Remote) RepositoryURL(project string) string {
	return filepath.Join(r.reposDir, project+constants.RepositorySuffix)
}

type accountCache struct {
	store target.Accounts
	seen  map[target.AccountID]remote.AccountInfo
}

func (c *accountCache) get(ctx context.Context, id target.AccountID) (*remote.AccountInfo, error) {
	if info, ok := c.seen[id]; ok {
		return &info, nil
	}
	a, err := c.store.AccountByID(ctx, id)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("account %d", id), err)
	}
	info := remote.AccountInfo{
		AccountID: int(a.ID),
		Name:      a.FullName,
		Email:     a.Email,
		Username:  a.Username,
	}
	c.seen[id] = info
	return &info, nil
}

func mapErr(what string, err error) error {
	if errors.Is(err, target.ErrNotFound) {
		return fmt.Errorf("%w: %w: %s", remote.ErrBadRequest, remote.ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

var _ remote.Remote = (*Remote)(nil)
