package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/groups"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/replay"
	"github.com/sgaunet/review-importer/pkg/repository"
	"github.com/sgaunet/review-importer/pkg/target"
)

// repositoryStage fetches the source refs into quarantine and normalizes them.
func (o *Orchestrator) repositoryStage(ctx context.Context, r *run, src remote.Remote, result *Result) (Repository, error) {
	o.progress.StartPhase(r.project, PhaseRepository)
	repo, existed, err := o.repos.Open(r.project)
	if err != nil {
		o.progress.FailPhase(r.project, PhaseRepository, err)
		result.addError(PhaseRepository, "Open", err.Error(), true)
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	log.Debug("repository opened", "project", r.project, "existed", existed)

	if err := repo.Fetch(ctx, src.RepositoryURL(r.source), gitCredentials(r.from, r.creds)); err != nil {
		o.progress.FailPhase(r.project, PhaseRepository, err)
		result.addError(PhaseRepository, "Fetch", err.Error(), true)
		return nil, err
	}
	n, err := repo.Normalize()
	if err != nil {
		o.progress.FailPhase(r.project, PhaseRepository, err)
		result.addError(PhaseRepository, "Normalize", err.Error(), true)
		return nil, err
	}
	result.RefsNormalized = n
	o.progress.CompletePhase(r.project, PhaseRepository)
	return repo, nil
}

// metadataStage configures the target project and replicates the groups its access
// configuration references.
func (o *Orchestrator) metadataStage(ctx context.Context, r *run, src remote.Remote, repo Repository, result *Result) error {
	o.progress.StartPhase(r.project, PhaseMetadata)
	if err := o.configureProject(ctx, r, src); err != nil {
		o.progress.FailPhase(r.project, PhaseMetadata, err)
		result.addError(PhaseMetadata, "Project", err.Error(), true)
		return err
	}

	content, err := repo.ReadFile(constants.MetaConfigRef, constants.GroupsFileName)
	switch {
	case errors.Is(err, repository.ErrFileNotFound):
		log.Debug("no groups file", "project", r.project)
	case err != nil:
		o.progress.FailPhase(r.project, PhaseMetadata, err)
		result.addError(PhaseMetadata, "Groups", err.Error(), true)
		return err
	default:
		replicator := groups.NewReplicator(o.store, o.groups, o.resolver.WithKeySource(src))
		created, err := replicator.EnsureReferenced(ctx, src, groups.ParseGroupsFile(content))
		result.GroupsCreated = append(result.GroupsCreated, created...)
		if err != nil {
			o.progress.FailPhase(r.project, PhaseMetadata, err)
			result.addError(PhaseMetadata, "Groups", err.Error(), true)
			return err
		}
	}
	o.progress.CompletePhase(r.project, PhaseMetadata)
	return nil
}

func (o *Orchestrator) configureProject(ctx context.Context, r *run, src remote.Remote) error {
	info, err := src.GetProject(ctx, r.source)
	if err != nil {
		return fmt.Errorf("failed to read source project %s: %w", r.source, err)
	}
	want := target.Project{Name: r.project, Parent: info.Parent, Description: info.Description}
	if r.parent != nil && *r.parent != "" {
		want.Parent = *r.parent
	}

	existing, err := o.store.Project(ctx, r.project)
	switch {
	case errors.Is(err, target.ErrNotFound):
		if err := o.store.CreateProject(ctx, &want); err != nil {
			return fmt.Errorf("failed to create project %s: %w", r.project, err)
		}
		log.Info("project created", "project", r.project, "parent", want.Parent)
	case err != nil:
		return fmt.Errorf("failed to read project %s: %w", r.project, err)
	case *existing != want:
		if err := o.store.UpdateProject(ctx, &want); err != nil {
			return fmt.Errorf("failed to update project %s: %w", r.project, err)
		}
		log.Info("project updated", "project", r.project, "parent", want.Parent)
	}
	return nil
}

// replayStage pages through the source changes and replays them one by one.
func (o *Orchestrator) replayStage(ctx context.Context, r *run, src remote.Remote, repo Repository, result *Result) error {
	o.progress.StartPhase(r.project, PhaseReplay)
	replayer := replay.New(replay.Config{
		Store:     o.store,
		Accounts:  o.resolver.WithKeySource(src),
		Refs:      repo,
		Source:    src,
		SourceURL: provenanceURL(r.from),
		Actor:     r.actor.ID,
	})

	processed := 0
	for start := 0; ; {
		page, err := src.QueryChanges(ctx, r.source, start, o.pageSize)
		if err != nil {
			o.progress.FailPhase(r.project, PhaseReplay, err)
			result.addError(PhaseReplay, "QueryChanges", err.Error(), true)
			return fmt.Errorf("failed to query changes of %s: %w", r.source, err)
		}
		for _, skipped := range page.Skipped {
			result.addWarning("change skipped: " + skipped)
		}
		for i := range page.Changes {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := replayer.ReplayChange(ctx, r.project, &page.Changes[i])
			if err != nil {
				o.progress.FailPhase(r.project, PhaseReplay, err)
				result.addError(PhaseReplay, "Change "+page.Changes[i].Key(), err.Error(), true)
				return err
			}
			result.addChange(out)
			processed++
			if processed%constants.ProgressEvery == 0 {
				o.progress.UpdatePhase(r.project, PhaseReplay, processed, 0)
			}
		}
		if !page.More {
			break
		}
		if page.Next <= start {
			err := fmt.Errorf("%w: source paging stalled at %d", remote.ErrTransport, start)
			o.progress.FailPhase(r.project, PhaseReplay, err)
			result.addError(PhaseReplay, "QueryChanges", err.Error(), true)
			return err
		}
		start = page.Next
	}
	log.Info("changes replayed", "project", r.project, "changes", processed,
		"created", result.ChangesCreated, "updated", result.ChangesUpdated)
	o.progress.CompletePhase(r.project, PhaseReplay)
	return nil
}
