package replay

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/target"
)

// ProvenanceTag tags the message linking an imported change to its source.
const ProvenanceTag = "autogenerated:importer"

// namespace of the name-based UUIDs given to messages that have none.
var messageNamespace = uuid.MustParse("3c1f7a52-0d6e-4b8e-9a3f-5b2d8c4e6f10")

// MessageUUID returns the UUID of a source message, synthesizing a stable one when the source
// has no ID.
func MessageUUID(changeKey string, m *remote.ChangeMessageInfo) string {
	if m.ID != "" {
		return m.ID
	}
	author := ""
	if m.Author != nil {
		author = m.Author.Username
	}
	name := strings.Join([]string{changeKey, m.Date.UTC().Format(timeKeyLayout), author, m.Message}, "|")
	return uuid.NewSHA1(messageNamespace, []byte(name)).String()
}

// ProvenanceUUID returns the UUID of the provenance message of a change imported from sourceURL.
func ProvenanceUUID(sourceURL, changeKey string) string {
	return uuid.NewSHA1(messageNamespace, []byte(sourceURL+"|"+changeKey)).String()
}

const timeKeyLayout = "2006-01-02T15:04:05.000000000Z"

func (r *Replayer) replayMessages(ctx context.Context, change *target.Change, info *remote.ChangeInfo, ids accountIDs, out *Outcome) error {
	for i := range info.Messages {
		m := &info.Messages[i]
		inserted, err := r.store.InsertMessage(ctx, &target.Message{
			UUID:     MessageUUID(change.Key, m),
			ChangeID: change.ID,
			PatchSet: m.RevisionNumber,
			Author:   ids.of(m.Author),
			Written:  m.Date.Time,
			Message:  m.Message,
			Tag:      m.Tag,
		})
		if err != nil {
			return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
		}
		if inserted {
			out.MessagesInserted++
		}
	}
	return nil
}

// replayApprovals upserts every cast vote onto the current patch set. Votes removed at the
// source are left in place.
func (r *Replayer) replayApprovals(ctx context.Context, change *target.Change, info *remote.ChangeInfo, ids accountIDs, out *Outcome) error {
	if change.CurrentPatchSet == 0 || len(info.Labels) == 0 {
		return nil
	}
	existing, err := r.store.Approvals(ctx, change.ID)
	if err != nil {
		return fmt.Errorf("failed to list approvals: %w", err)
	}
	type key struct {
		account target.AccountID
		label   string
	}
	current := make(map[key]target.Approval)
	for _, a := range existing {
		if a.PatchSet == change.CurrentPatchSet {
			current[key{a.Account, a.Label}] = a
		}
	}

	labels := make([]string, 0, len(info.Labels))
	for label := range info.Labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		for _, vote := range info.Labels[label].All {
			if vote.Value == nil {
				continue
			}
			a := target.Approval{
				ChangeID: change.ID,
				PatchSet: change.CurrentPatchSet,
				Account:  ids.of(&vote.AccountInfo),
				Label:    label,
				Value:    *vote.Value,
				Granted:  vote.Date.Time,
			}
			if old, ok := current[key{a.Account, label}]; ok && old.Value == a.Value && old.Granted.Equal(a.Granted) {
				continue
			}
			if err := r.store.UpsertApproval(ctx, &a); err != nil {
				return fmt.Errorf("failed to store %s vote: %w", label, err)
			}
			out.ApprovalsUpserted++
		}
	}
	return nil
}

func (r *Replayer) replayHashtags(ctx context.Context, change *target.Change, info *remote.ChangeInfo, out *Outcome) error {
	want := slices.Clone(info.Hashtags)
	sort.Strings(want)
	want = slices.Compact(want)
	have, err := r.store.Hashtags(ctx, change.ID)
	if err != nil {
		return fmt.Errorf("failed to read hashtags: %w", err)
	}
	if slices.Equal(want, have) {
		return nil
	}
	if err := r.store.SetHashtags(ctx, change.ID, want); err != nil {
		return fmt.Errorf("failed to set hashtags: %w", err)
	}
	out.HashtagsSet = true
	return nil
}

// addProvenance posts, once, the message linking the change to its source.
func (r *Replayer) addProvenance(ctx context.Context, change *target.Change, info *remote.ChangeInfo, out *Outcome) error {
	inserted, err := r.store.InsertMessage(ctx, &target.Message{
		UUID:     ProvenanceUUID(r.sourceURL, change.Key),
		ChangeID: change.ID,
		PatchSet: change.CurrentPatchSet,
		Author:   r.actor,
		Written:  r.now().UTC(),
		Message:  provenanceText(r.sourceURL, info.Number),
		Tag:      ProvenanceTag,
	})
	if err != nil {
		return fmt.Errorf("failed to add provenance message: %w", err)
	}
	if inserted {
		out.MessagesInserted++
	}
	return nil
}

// provenanceText names the source change. Copies within the same server name the project, since
// a local source has no web URL.
func provenanceText(sourceURL string, number int) string {
	if project, ok := strings.CutPrefix(sourceURL, constants.LocalSourcePrefix); ok {
		return fmt.Sprintf("Copied from %s change %d", project, number)
	}
	return fmt.Sprintf("Imported from %s/#/c/%d/", strings.TrimSuffix(sourceURL, "/"), number)
}
