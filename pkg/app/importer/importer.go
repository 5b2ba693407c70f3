package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sgaunet/review-importer/pkg/audit"
	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/groups"
	"github.com/sgaunet/review-importer/pkg/hooks"
	"github.com/sgaunet/review-importer/pkg/identity"
	"github.com/sgaunet/review-importer/pkg/lock"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/replay"
	"github.com/sgaunet/review-importer/pkg/repository"
	"github.com/sgaunet/review-importer/pkg/status"
	"github.com/sgaunet/review-importer/pkg/storage"
	"github.com/sgaunet/review-importer/pkg/target"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

var log Logger

func init() {
	log = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger sets the logger.
func SetLogger(l Logger) {
	if l != nil {
		log = l
	}
}

var projectNameRE = regexp.MustCompile(constants.ProjectNamePattern)

// Repository is the bare repository of a target project.
type Repository interface {
	replay.RefStore
	Fetch(ctx context.Context, url string, creds remote.Credentials) error
	Normalize() (int, error)
	ReadFile(ref, path string) ([]byte, error)
}

// Repositories opens the repositories of target projects, creating missing ones.
type Repositories interface {
	Open(project string) (Repository, bool, error)
}

// RemoteFactory returns the source system designated by from.
type RemoteFactory func(from string, creds remote.Credentials) (remote.Remote, error)

// GitRepositories adapts a repository.Manager to Repositories.
type GitRepositories struct {
	manager *repository.Manager
}

// NewGitRepositories returns the repositories managed by m.
func NewGitRepositories(m *repository.Manager) *GitRepositories {
	return &GitRepositories{manager: m}
}

// Open opens or creates the bare repository of project.
func (g *GitRepositories) Open(project string) (Repository, bool, error) {
	repo, existed, err := g.manager.Open(project)
	if err != nil {
		return nil, false, err
	}
	return repo, existed, nil
}

// Config wires an Orchestrator. Archive, Hooks and Progress are optional.
type Config struct {
	Store        target.Store
	Repositories Repositories
	Remotes      RemoteFactory
	Resolver     *identity.Resolver
	Groups       groups.GroupCache
	ProjectLocks lock.Locker
	GroupLocks   lock.Locker
	Records      *status.Store
	Audit        *audit.Log
	Archive      storage.Storage
	Hooks        *hooks.Hooks
	Progress     ProgressReporter
	PageSize     int
}

// Orchestrator runs imports, resumes, copies and group imports against one target.
type Orchestrator struct {
	store        target.Store
	repos        Repositories
	remotes      RemoteFactory
	resolver     *identity.Resolver
	groups       groups.GroupCache
	projectLocks lock.Locker
	groupLocks   lock.Locker
	records      *status.Store
	audit        *audit.Log
	archive      storage.Storage
	hooks        *hooks.Hooks
	progress     ProgressReporter
	pageSize     int
	now          func() time.Time
}

// NewOrchestrator creates a new import orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	progress := cfg.Progress
	if progress == nil {
		progress = NewNoOpProgressReporter()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = constants.DefaultChangesPageSize
	}
	pageSize = min(pageSize, constants.MaxChangesPageSize)
	return &Orchestrator{
		store:        cfg.Store,
		repos:        cfg.Repositories,
		remotes:      cfg.Remotes,
		resolver:     cfg.Resolver,
		groups:       cfg.Groups,
		projectLocks: cfg.ProjectLocks,
		groupLocks:   cfg.GroupLocks,
		records:      cfg.Records,
		audit:        cfg.Audit,
		archive:      cfg.Archive,
		hooks:        cfg.Hooks,
		progress:     progress,
		pageSize:     pageSize,
		now:          time.Now,
	}
}

// SetProgressReporter replaces the progress reporter.
func (o *Orchestrator) SetProgressReporter(p ProgressReporter) {
	if p != nil {
		o.progress = p
	}
}

// run carries the parameters of one project run.
type run struct {
	op      string
	project string
	// source is the project name at the source: the copied project for a copy.
	source     string
	from       string
	creds      remote.Credentials
	parent     *string
	actor      *target.Account
	remoteUser string
	// create is set on the first import, when the record does not exist yet.
	create bool
}

// Import imports a project that has never been imported.
func (o *Orchestrator) Import(ctx context.Context, req ImportRequest) (*Result, error) {
	r := &run{
		op:         OpImport,
		project:    req.Project,
		source:     req.Project,
		from:       req.From,
		creds:      remote.Credentials{Username: req.User, Password: req.Password},
		remoteUser: req.User,
		create:     true,
	}
	if req.Parent != "" {
		r.parent = &req.Parent
	}
	if req.From == "" {
		return o.reject(r, req.Actor, fmt.Errorf("%w: missing source for project %s", ErrValidation, req.Project))
	}
	return o.execute(ctx, r, req.Actor)
}

// Resume re-runs the import of a project from the source recorded for it. Without force, only the
// remote user of the original import may resume it.
func (o *Orchestrator) Resume(ctx context.Context, req ResumeRequest) (*Result, error) {
	r := &run{
		op:         OpResume,
		project:    req.Project,
		creds:      remote.Credentials{Username: req.User, Password: req.Password},
		remoteUser: req.User,
	}
	rec, err := o.records.Load(req.Project)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return o.reject(r, req.Actor, fmt.Errorf("%w: project %s has no import in progress", ErrValidation, req.Project))
		}
		return o.reject(r, req.Actor, err)
	}
	r.from = rec.From
	r.parent = rec.Parent
	r.source = sourceProject(rec.From, req.Project)
	first, ok := rec.FirstImport()
	if !req.Force && ok && first.RemoteUser != req.User {
		return o.reject(r, req.Actor, fmt.Errorf("%w: project %s was imported by remote user %q; use force to resume as %q",
			ErrValidation, req.Project, first.RemoteUser, req.User))
	}
	return o.execute(ctx, r, req.Actor)
}

// Copy imports a project of this server under a new name.
func (o *Orchestrator) Copy(ctx context.Context, req CopyRequest) (*Result, error) {
	r := &run{
		op:      OpCopy,
		project: req.Target,
		source:  req.Source,
		from:    constants.LocalSourcePrefix + req.Source,
		create:  true,
	}
	if req.Source == req.Target {
		return o.reject(r, req.Actor, fmt.Errorf("%w: cannot copy project %s onto itself", ErrValidation, req.Source))
	}
	if _, err := o.store.Project(ctx, req.Source); err != nil {
		if errors.Is(err, target.ErrNotFound) {
			return o.reject(r, req.Actor, fmt.Errorf("%w: project %s does not exist", ErrValidation, req.Source))
		}
		return o.reject(r, req.Actor, err)
	}
	return o.execute(ctx, r, req.Actor)
}

// execute runs one project under its lock.
func (o *Orchestrator) execute(ctx context.Context, r *run, actorName string) (*Result, error) {
	startTime := time.Now()
	result := &Result{Project: r.project}

	if err := validateProjectName(r.project); err != nil {
		return o.reject(r, actorName, err)
	}

	o.progress.StartPhase(r.project, PhaseLock)
	held, err := o.projectLocks.TryLock(r.project)
	if err != nil {
		o.progress.FailPhase(r.project, PhaseLock, err)
		return o.reject(r, actorName, classify(fmt.Errorf("project %s: %w", r.project, err)))
	}
	o.progress.CompletePhase(r.project, PhaseLock)
	defer func() {
		if err := held.Release(); err != nil {
			log.Warn("failed to release project lock", "project", r.project, "error", err)
		}
	}()

	err = o.runLocked(ctx, r, actorName, result)
	result.Duration = time.Since(startTime)
	result.Success = err == nil && !result.hasFatalErrors()
	o.recordAudit(r, actorName, result, err)
	if err != nil {
		return result, classify(err)
	}
	o.progress.CompletePhase(r.project, PhaseComplete)
	log.Info("import finished", "project", r.project, "operation", r.op, "duration", result.Duration)
	return result, nil
}

func (o *Orchestrator) runLocked(ctx context.Context, r *run, actorName string, result *Result) error {
	if r.create && o.records.Exists(r.project) {
		return fmt.Errorf("%w: project %s was already imported; resume it instead", ErrValidation, r.project)
	}
	actor, err := o.store.AccountByUsername(ctx, actorName)
	if err != nil {
		if errors.Is(err, target.ErrNotFound) {
			return fmt.Errorf("%w: unknown acting user %q", ErrValidation, actorName)
		}
		return fmt.Errorf("failed to look up acting user: %w", err)
	}
	r.actor = actor

	if err := o.runPreImportHook(ctx, r.project); err != nil {
		result.addError(PhaseHooks, "PreImport", err.Error(), true)
		return err
	}

	src, err := o.remotes(r.from, r.creds)
	if err != nil {
		result.addError(PhaseRepository, "Remote", err.Error(), true)
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	repo, err := o.repositoryStage(ctx, r, src, result)
	if err != nil {
		return err
	}
	if err := o.saveRecord(r); err != nil {
		result.addError(PhaseRepository, "Record", err.Error(), true)
		return err
	}
	if err := o.metadataStage(ctx, r, src, repo, result); err != nil {
		return err
	}
	if err := o.replayStage(ctx, r, src, repo, result); err != nil {
		return err
	}

	o.runPostImportHook(ctx, r.project, result)
	return nil
}

// saveRecord creates the import record on the first import and appends to it afterwards.
func (o *Orchestrator) saveRecord(r *run) error {
	ev := status.Event{
		Timestamp: o.now().UTC(),
		User: status.User{
			AccountID: int64(r.actor.ID),
			Name:      r.actor.FullName,
			Email:     r.actor.Email,
			Username:  r.actor.Username,
		},
		RemoteUser: r.remoteUser,
	}
	if r.create {
		err := o.records.Create(r.project, &status.Record{From: r.from, Parent: r.parent, Imports: []status.Event{ev}})
		if errors.Is(err, status.ErrExists) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return err
	}
	_, err := o.records.Append(r.project, ev)
	return err
}

// reject records a run refused before it could start.
func (o *Orchestrator) reject(r *run, actorName string, err error) (*Result, error) {
	result := &Result{Project: r.project}
	result.addError(PhaseLock, "Request", err.Error(), true)
	o.recordAudit(r, actorName, result, err)
	return result, err
}

func (o *Orchestrator) recordAudit(r *run, actorName string, result *Result, runErr error) {
	entry := audit.Entry{
		Operation:  r.op,
		Project:    r.project,
		Source:     r.from,
		Actor:      actorName,
		RemoteUser: r.remoteUser,
		Outcome:    audit.OutcomeSuccess,
		Counts:     result.Counts(),
	}
	if runErr != nil {
		entry.Outcome = audit.OutcomeFailure
		entry.Error = runErr.Error()
	}
	if _, err := o.audit.Append(entry); err != nil {
		log.Error("failed to append audit entry", "project", r.project, "error", err)
	}
}

func (o *Orchestrator) runPreImportHook(ctx context.Context, project string) error {
	if o.hooks == nil || !o.hooks.HasPreImport() {
		return nil
	}
	o.progress.StartPhase(project, PhaseHooks)
	if err := o.hooks.ExecutePreImport(ctx, project); err != nil {
		o.progress.FailPhase(project, PhaseHooks, err)
		return fmt.Errorf("pre-import hook failed: %w", err)
	}
	o.progress.CompletePhase(project, PhaseHooks)
	return nil
}

func (o *Orchestrator) runPostImportHook(ctx context.Context, project string, result *Result) {
	if o.hooks == nil || !o.hooks.HasPostImport() {
		return
	}
	if err := o.hooks.ExecutePostImport(ctx, project); err != nil {
		log.Warn("post-import hook failed", "project", project, "error", err)
		result.addWarning(fmt.Sprintf("post-import hook failed: %v", err))
	}
}

func validateProjectName(name string) error {
	if name == "" || len(name) > constants.MaxProjectNameLength || !projectNameRE.MatchString(name) {
		return fmt.Errorf("%w: invalid project name %q", ErrValidation, name)
	}
	for segment := range strings.SplitSeq(name, "/") {
		if segment == "." || segment == ".." {
			return fmt.Errorf("%w: invalid project name %q", ErrValidation, name)
		}
	}
	return nil
}

// sourceProject returns the project name at the source of a record.
func sourceProject(from, project string) string {
	if name, ok := strings.CutPrefix(from, constants.LocalSourcePrefix); ok {
		return name
	}
	return project
}

// gitCredentials returns the credentials the repository stage fetches with.
func gitCredentials(from string, creds remote.Credentials) remote.Credentials {
	if strings.HasPrefix(from, constants.GitLabSourcePrefix) {
		return remote.Credentials{Username: constants.GitLabOAuthUser, Password: creds.Password}
	}
	return creds
}

// provenanceURL returns the web URL of the source named in provenance messages.
func provenanceURL(from string) string {
	return strings.TrimPrefix(from, constants.GitLabSourcePrefix)
}
