// Package replay rebuilds a source change on the target: the change itself, its patch sets and
// their refs, inline comments, messages, approvals and hashtags.
//
// Every step is idempotent. Running ReplayChange twice with the same source state leaves the
// target unchanged the second time, which is what makes an interrupted import resumable.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/repository"
	"github.com/sgaunet/review-importer/pkg/target"
)

var log Logger

// Logger interface defines the logging methods used by the replay.
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

// RefStore is the part of the target repository the revision replay needs.
type RefStore interface {
	ResolveQuarantined(sourceRef string) (commit string, ok bool, err error)
	RenameRef(from, to string) error
	Commit(hash string) (*repository.Commit, error)
}

// AccountResolver maps source accounts to local ones.
type AccountResolver interface {
	Resolve(ctx context.Context, info remote.AccountInfo) (target.AccountID, error)
}

// Config wires a Replayer.
type Config struct {
	Store     target.Store
	Accounts  AccountResolver
	Refs      RefStore
	Source    remote.Remote
	SourceURL string
	// Actor is the local account running the import. It authors the provenance message.
	Actor target.AccountID
}

// Replayer replays the changes of one project.
type Replayer struct {
	store     target.Store
	accounts  AccountResolver
	refs      RefStore
	src       remote.Remote
	sourceURL string
	actor     target.AccountID
	now       func() time.Time
}

// New returns a Replayer.
func New(cfg Config) *Replayer {
	return &Replayer{
		store:     cfg.Store,
		accounts:  cfg.Accounts,
		refs:      cfg.Refs,
		src:       cfg.Source,
		sourceURL: cfg.SourceURL,
		actor:     cfg.Actor,
		now:       time.Now,
	}
}

// Outcome counts what one ReplayChange wrote.
type Outcome struct {
	Created           bool
	Updated           bool
	PatchSetsCreated  int
	RefsMoved         int
	RevisionsSkipped  int
	CommentsUpserted  int
	CommentsDeleted   int
	MessagesInserted  int
	ApprovalsUpserted int
	HashtagsSet       bool
}

// ReplayChange creates or updates the change described by info in project.
func (r *Replayer) ReplayChange(ctx context.Context, project string, info *remote.ChangeInfo) (*Outcome, error) {
	revisions := info.SortedRevisions()
	comments, err := r.fetchComments(ctx, info, revisions)
	if err != nil {
		return nil, err
	}
	ids, err := r.resolveAccounts(ctx, info, revisions, comments)
	if err != nil {
		return nil, fmt.Errorf("change %s: %w", info.Key(), err)
	}

	out := &Outcome{}
	change, err := r.upsertChange(ctx, project, info, ids, out)
	if err != nil {
		return out, err
	}
	if err := r.replayRevisions(ctx, change, revisions, ids, out); err != nil {
		return out, fmt.Errorf("change %s: %w", info.Key(), err)
	}
	if err := r.updateCurrentPatchSet(ctx, change, info); err != nil {
		return out, err
	}
	if err := r.replayComments(ctx, change, revisions, comments, ids, out); err != nil {
		return out, fmt.Errorf("change %s: %w", info.Key(), err)
	}
	if err := r.replayMessages(ctx, change, info, ids, out); err != nil {
		return out, fmt.Errorf("change %s: %w", info.Key(), err)
	}
	if err := r.replayApprovals(ctx, change, info, ids, out); err != nil {
		return out, fmt.Errorf("change %s: %w", info.Key(), err)
	}
	if err := r.replayHashtags(ctx, change, info, out); err != nil {
		return out, fmt.Errorf("change %s: %w", info.Key(), err)
	}
	if err := r.addProvenance(ctx, change, info, out); err != nil {
		return out, fmt.Errorf("change %s: %w", info.Key(), err)
	}
	return out, nil
}

// fetchComments reads the comments of every source revision, keyed by revision number.
func (r *Replayer) fetchComments(ctx context.Context, info *remote.ChangeInfo, revisions []remote.Revision) (map[int]map[string][]remote.CommentInfo, error) {
	out := make(map[int]map[string][]remote.CommentInfo, len(revisions))
	for _, rev := range revisions {
		c, err := r.src.GetComments(ctx, info.Number, rev.Commit)
		if err != nil {
			return nil, fmt.Errorf("failed to read comments of %s revision %d: %w", info.Key(), rev.Number, err)
		}
		out[rev.Number] = c
	}
	return out, nil
}

// accountIDs maps source usernames to local accounts.
type accountIDs map[string]target.AccountID

func (a accountIDs) of(info *remote.AccountInfo) target.AccountID {
	if info == nil {
		return 0
	}
	return a[info.Username]
}

// resolveAccounts resolves every account the change references before anything is written,
// so that an identity failure leaves the change untouched.
func (r *Replayer) resolveAccounts(ctx context.Context, info *remote.ChangeInfo, revisions []remote.Revision, comments map[int]map[string][]remote.CommentInfo) (accountIDs, error) {
	ids := accountIDs{}
	resolve := func(a *remote.AccountInfo) error {
		if a == nil {
			return nil
		}
		if _, ok := ids[a.Username]; ok && a.Username != "" {
			return nil
		}
		id, err := r.accounts.Resolve(ctx, *a)
		if err != nil {
			return err
		}
		ids[a.Username] = id
		return nil
	}

	if err := resolve(&info.Owner); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	for _, rev := range revisions {
		if err := resolve(rev.Uploader); err != nil {
			return nil, fmt.Errorf("uploader of revision %d: %w", rev.Number, err)
		}
	}
	for _, byPath := range comments {
		for _, list := range byPath {
			for i := range list {
				if err := resolve(list[i].Author); err != nil {
					return nil, fmt.Errorf("author of comment %s: %w", list[i].ID, err)
				}
			}
		}
	}
	for i := range info.Messages {
		if err := resolve(info.Messages[i].Author); err != nil {
			return nil, fmt.Errorf("author of message %s: %w", info.Messages[i].ID, err)
		}
	}
	for label, l := range info.Labels {
		for i := range l.All {
			if l.All[i].Value == nil {
				continue
			}
			if err := resolve(&l.All[i].AccountInfo); err != nil {
				return nil, fmt.Errorf("voter on %s: %w", label, err)
			}
		}
	}
	return ids, nil
}

func (r *Replayer) upsertChange(ctx context.Context, project string, info *remote.ChangeInfo, ids accountIDs, out *Outcome) (*target.Change, error) {
	want := target.Change{
		Key:     info.Key(),
		Project: project,
		Branch:  info.Branch,
		Topic:   info.Topic,
		Subject: info.Subject,
		Owner:   ids.of(&info.Owner),
		Status:  changeStatus(info.Status),
		Created: info.Created.Time,
		Updated: info.Updated.Time,
	}

	existing, err := r.store.ChangeByKey(ctx, project, want.Branch, want.Key)
	if errors.Is(err, target.ErrNotFound) {
		if err := r.store.CreateChange(ctx, &want); err != nil {
			return nil, fmt.Errorf("failed to create change %s: %w", want.Key, err)
		}
		out.Created = true
		log.Debug("change created", "project", project, "key", want.Key, "id", want.ID)
		return &want, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up change %s: %w", want.Key, err)
	}

	want.ID = existing.ID
	want.CurrentPatchSet = existing.CurrentPatchSet
	if sameChange(existing, &want) {
		return existing, nil
	}
	if err := r.store.UpdateChange(ctx, &want); err != nil {
		return nil, fmt.Errorf("failed to update change %s: %w", want.Key, err)
	}
	out.Updated = true
	return &want, nil
}

func sameChange(a, b *target.Change) bool {
	return a.Branch == b.Branch && a.Topic == b.Topic && a.Subject == b.Subject &&
		a.Owner == b.Owner && a.Status == b.Status &&
		a.Created.Equal(b.Created) && a.Updated.Equal(b.Updated)
}

func changeStatus(s string) target.ChangeStatus {
	switch target.ChangeStatus(s) {
	case target.StatusMerged:
		return target.StatusMerged
	case target.StatusAbandoned:
		return target.StatusAbandoned
	default:
		return target.StatusNew
	}
}
