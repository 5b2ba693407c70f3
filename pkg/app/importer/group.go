package importer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sgaunet/review-importer/pkg/audit"
	"github.com/sgaunet/review-importer/pkg/groups"
	"github.com/sgaunet/review-importer/pkg/remote"
)

// ImportGroup replicates one group of the source and, as the request allows, the owner and
// included groups it needs.
func (o *Orchestrator) ImportGroup(ctx context.Context, req GroupRequest) (*Result, error) {
	startTime := time.Now()
	result := &Result{Project: req.Name}

	err := o.importGroup(ctx, req, result)
	result.Duration = time.Since(startTime)
	result.Success = err == nil
	err = classify(err)

	entry := audit.Entry{
		Operation:  OpGroup,
		Group:      req.Name,
		Source:     req.From,
		Actor:      req.Actor,
		RemoteUser: req.User,
		Outcome:    audit.OutcomeSuccess,
		Counts:     result.Counts(),
	}
	if err != nil {
		entry.Outcome = audit.OutcomeFailure
		entry.Error = err.Error()
	}
	if _, aerr := o.audit.Append(entry); aerr != nil {
		log.Error("failed to append audit entry", "group", req.Name, "error", aerr)
	}
	return result, err
}

func (o *Orchestrator) importGroup(ctx context.Context, req GroupRequest, result *Result) error {
	if req.Name == "" || req.From == "" {
		result.addError(PhaseGroups, "Request", "group name and source are required", true)
		return fmt.Errorf("%w: group name and source are required", ErrValidation)
	}

	held, err := o.groupLocks.TryLock(url.PathEscape(req.Name))
	if err != nil {
		result.addError(PhaseLock, "Lock", err.Error(), true)
		return fmt.Errorf("group %s: %w", req.Name, err)
	}
	defer func() {
		if err := held.Release(); err != nil {
			log.Warn("failed to release group lock", "group", req.Name, "error", err)
		}
	}()

	src, err := o.remotes(req.From, remote.Credentials{Username: req.User, Password: req.Password})
	if err != nil {
		result.addError(PhaseGroups, "Remote", err.Error(), true)
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	o.progress.StartPhase(req.Name, PhaseGroups)
	replicator := groups.NewReplicator(o.store, o.groups, o.resolver.WithKeySource(src))
	created, err := replicator.Import(ctx, src, req.Name, groups.Options{
		ImportOwnerGroup:     req.ImportOwnerGroup,
		ImportIncludedGroups: req.ImportIncludedGroups,
	})
	result.GroupsCreated = created
	if err != nil {
		o.progress.FailPhase(req.Name, PhaseGroups, err)
		result.addError(PhaseGroups, "Replicator", err.Error(), true)
		return err
	}
	log.Info("group imported", "group", req.Name, "created", created)
	o.progress.CompletePhase(req.Name, PhaseGroups)
	return nil
}
