package replay

import (
	"context"
	"fmt"

	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/repository"
	"github.com/sgaunet/review-importer/pkg/target"
)

// replayRevisions turns the source revisions, oldest first, into patch sets and moves their refs
// out of quarantine. A revision whose quarantined ref is gone was handled by an earlier run.
func (r *Replayer) replayRevisions(ctx context.Context, change *target.Change, revisions []remote.Revision, ids accountIDs, out *Outcome) error {
	existing, err := r.store.PatchSets(ctx, change.ID)
	if err != nil {
		return fmt.Errorf("failed to list patch sets: %w", err)
	}
	have := make(map[int]bool, len(existing))
	for _, ps := range existing {
		have[ps.Number] = true
	}

	for _, rev := range revisions {
		commit, ok, err := r.refs.ResolveQuarantined(rev.Ref)
		if err != nil {
			return err
		}
		if !ok {
			if !have[rev.Number] {
				log.Warn("skipping revision without fetched ref", "change", change.Key, "revision", rev.Number, "ref", rev.Ref)
				out.RevisionsSkipped++
			}
			continue
		}

		if !have[rev.Number] {
			meta, err := r.refs.Commit(commit)
			if err != nil {
				log.Warn("skipping unresolvable commit", "change", change.Key, "revision", rev.Number, "commit", commit, "error", err)
				out.RevisionsSkipped++
				continue
			}
			uploader := ids.of(rev.Uploader)
			if uploader == 0 {
				uploader = change.Owner
			}
			ps := &target.PatchSet{
				ChangeID: change.ID,
				Number:   rev.Number,
				Revision: commit,
				Uploader: uploader,
				Created:  rev.Created.Time,
				Draft:    rev.Draft,
				Ref:      target.ChangeRef(change.ID, rev.Number),
				Parents:  meta.Parents,
			}
			if err := r.store.InsertPatchSet(ctx, ps); err != nil {
				return fmt.Errorf("failed to insert patch set %d: %w", rev.Number, err)
			}
			have[rev.Number] = true
			out.PatchSetsCreated++
		}

		to := target.ChangeRef(change.ID, rev.Number)
		if err := r.refs.RenameRef(repository.QuarantineRef(rev.Ref), to); err != nil {
			return fmt.Errorf("revision %d: %w", rev.Number, err)
		}
		out.RefsMoved++
	}
	return nil
}

// updateCurrentPatchSet points the change at the patch set holding the source's current revision,
// whichever run created it. Without a match the highest patch set is current.
func (r *Replayer) updateCurrentPatchSet(ctx context.Context, change *target.Change, info *remote.ChangeInfo) error {
	patchSets, err := r.store.PatchSets(ctx, change.ID)
	if err != nil {
		return fmt.Errorf("failed to list patch sets: %w", err)
	}
	current := 0
	for _, ps := range patchSets {
		if ps.Revision == info.CurrentRevision {
			current = ps.Number
			break
		}
		current = max(current, ps.Number)
	}
	if current == change.CurrentPatchSet {
		return nil
	}
	change.CurrentPatchSet = current
	if err := r.store.UpdateChange(ctx, change); err != nil {
		return fmt.Errorf("failed to set current patch set of %s: %w", change.Key, err)
	}
	return nil
}
