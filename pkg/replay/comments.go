package replay

import (
	"context"
	"fmt"

	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/target"
)

// replayComments reconciles, per patch set and per author, the local comments with the source:
// comments on both sides are updated, source-only ones inserted and local-only ones deleted.
func (r *Replayer) replayComments(ctx context.Context, change *target.Change, revisions []remote.Revision, comments map[int]map[string][]remote.CommentInfo, ids accountIDs, out *Outcome) error {
	inSource := make(map[int]bool, len(revisions))
	for _, rev := range revisions {
		inSource[rev.Number] = true
	}
	patchSets, err := r.store.PatchSets(ctx, change.ID)
	if err != nil {
		return fmt.Errorf("failed to list patch sets: %w", err)
	}

	for _, ps := range patchSets {
		if !inSource[ps.Number] {
			continue
		}
		wanted := make(map[target.AccountID]map[string]target.Comment)
		for path, list := range comments[ps.Number] {
			for i := range list {
				c := toComment(change.ID, ps.Number, path, &list[i], ids)
				if wanted[c.Author] == nil {
					wanted[c.Author] = make(map[string]target.Comment)
				}
				wanted[c.Author][c.UUID] = c
			}
		}

		local, err := r.store.Comments(ctx, change.ID, ps.Number, 0)
		if err != nil {
			return fmt.Errorf("failed to list comments of patch set %d: %w", ps.Number, err)
		}
		for _, c := range local {
			want, ok := wanted[c.Author][c.UUID]
			if !ok {
				if err := r.store.DeleteComment(ctx, change.ID, c.Author, c.UUID); err != nil {
					return fmt.Errorf("failed to delete comment %s: %w", c.UUID, err)
				}
				out.CommentsDeleted++
				continue
			}
			delete(wanted[c.Author], c.UUID)
			if sameComment(&c, &want) {
				continue
			}
			if err := r.store.UpsertComment(ctx, &want); err != nil {
				return fmt.Errorf("failed to update comment %s: %w", want.UUID, err)
			}
			out.CommentsUpserted++
		}
		for _, byUUID := range wanted {
			for _, c := range byUUID {
				if err := r.store.UpsertComment(ctx, &c); err != nil {
					return fmt.Errorf("failed to insert comment %s: %w", c.UUID, err)
				}
				out.CommentsUpserted++
			}
		}
	}
	return nil
}

func toComment(id target.ChangeID, patchSet int, path string, c *remote.CommentInfo, ids accountIDs) target.Comment {
	out := target.Comment{
		UUID:       c.ID,
		ChangeID:   id,
		PatchSet:   patchSet,
		Author:     ids.of(c.Author),
		Path:       path,
		Line:       c.Line,
		ParentUUID: c.InReplyTo,
		Message:    c.Message,
		Written:    c.Updated.Time,
		Side:       target.SideNew,
	}
	if c.Path != "" {
		out.Path = c.Path
	}
	if c.OnParent() {
		out.Side = target.SideOld
	}
	if c.Range != nil {
		out.Range = &target.Range{
			StartLine:      c.Range.StartLine,
			StartCharacter: c.Range.StartCharacter,
			EndLine:        c.Range.EndLine,
			EndCharacter:   c.Range.EndCharacter,
		}
	}
	return out
}

func sameComment(a, b *target.Comment) bool {
	if (a.Range == nil) != (b.Range == nil) {
		return false
	}
	if a.Range != nil && *a.Range != *b.Range {
		return false
	}
	return a.Path == b.Path && a.Line == b.Line && a.ParentUUID == b.ParentUUID &&
		a.Message == b.Message && a.Written.Equal(b.Written) && a.Side == b.Side
}
