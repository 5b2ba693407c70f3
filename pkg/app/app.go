// Package app wires the configuration into a ready-to-use import orchestrator.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sgaunet/review-importer/pkg/app/importer"
	"github.com/sgaunet/review-importer/pkg/audit"
	"github.com/sgaunet/review-importer/pkg/config"
	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/groups"
	"github.com/sgaunet/review-importer/pkg/identity"
	"github.com/sgaunet/review-importer/pkg/lock"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/remote/gitlab"
	"github.com/sgaunet/review-importer/pkg/remote/local"
	"github.com/sgaunet/review-importer/pkg/remote/rest"
	"github.com/sgaunet/review-importer/pkg/replay"
	"github.com/sgaunet/review-importer/pkg/repository"
	"github.com/sgaunet/review-importer/pkg/status"
	"github.com/sgaunet/review-importer/pkg/storage"
	"github.com/sgaunet/review-importer/pkg/storage/localstorage"
	"github.com/sgaunet/review-importer/pkg/storage/s3storage"
	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/sgaunet/review-importer/pkg/target/memstore"
	"github.com/sgaunet/review-importer/pkg/target/sqlitestore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrUnknownDriver is returned for a store driver other than sqlite and memory.
var ErrUnknownDriver = errors.New("unknown store driver")

// Logger interface for logging.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

// App holds the target store and the orchestrator built from a configuration.
type App struct {
	cfg     *config.Config
	store   target.Store
	closer  io.Closer
	archive storage.Storage
	orch    *importer.Orchestrator
	log     Logger
}

// NewApp opens the target store and builds the orchestrator described by cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg: cfg,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := app.openStore(); err != nil {
		return nil, err
	}

	resolver, err := app.newResolver()
	if err != nil {
		app.Close()
		return nil, err
	}
	groupCache, err := groups.NewGroupCache(app.store, constants.DefaultGroupCacheSize)
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := app.openArchive(ctx); err != nil {
		app.Close()
		return nil, err
	}

	hks := cfg.Hooks
	app.orch = importer.NewOrchestrator(importer.Config{
		Store:        app.store,
		Repositories: importer.NewGitRepositories(repository.NewManager(cfg.RepositoriesDir())),
		Remotes:      app.newRemote,
		Resolver:     resolver,
		Groups:       groupCache,
		ProjectLocks: lock.NewFileLocker(cfg.ProjectLocksDir()),
		GroupLocks:   lock.NewFileLocker(cfg.GroupLocksDir()),
		Records:      status.NewStore(cfg.StatusDir()),
		Audit:        audit.New(cfg.AuditPath()),
		Archive:      app.archive,
		Hooks:        &hks,
		PageSize:     cfg.Remote.PageSize,
	})
	return app, nil
}

func (a *App) openStore() error {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		a.store = memstore.New()
		return nil
	case config.DriverSQLite, "":
		if err := os.MkdirAll(a.cfg.DataDir, constants.DefaultDirPermission); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		s, err := sqlitestore.New(a.cfg.StoreDSN())
		if err != nil {
			return err
		}
		if err := s.Initialize(); err != nil {
			_ = s.Close()
			return err
		}
		a.store = s
		a.closer = s
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, a.cfg.Store.Driver)
	}
}

func (a *App) newResolver() (*identity.Resolver, error) {
	auth, err := identity.ParseAuthType(a.cfg.Auth.Type)
	if err != nil {
		return nil, err
	}
	accounts, err := identity.NewAccountCache(a.store, constants.DefaultAccountCacheSize)
	if err != nil {
		return nil, err
	}
	var provisioner identity.Provisioner
	if a.cfg.Auth.DirectoryFile != "" {
		dir, err := identity.LoadFileDirectory(a.cfg.Auth.DirectoryFile)
		if err != nil {
			return nil, err
		}
		provisioner = identity.NewDirectoryProvisioner(dir, a.store)
	}
	return identity.NewResolver(accounts, a.store, auth, provisioner), nil
}

// openArchive selects where completed imports are archived. No archive is configured when
// neither a local path nor an S3 bucket is set.
func (a *App) openArchive(ctx context.Context) error {
	switch {
	case a.cfg.IsLocalConfigValid():
		path := a.cfg.Archive.LocalPath
		if err := os.MkdirAll(path, constants.DefaultDirPermission); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
		a.archive = localstorage.NewLocalStorage(path)
	case a.cfg.IsS3ConfigValid():
		s3cfg := a.cfg.Archive.S3
		var opts []s3storage.Option
		if s3cfg.AccessKey != "" && s3cfg.SecretKey != "" {
			opts = append(opts, s3storage.WithStaticCredentials(s3cfg.AccessKey, s3cfg.SecretKey))
		}
		s, err := s3storage.NewS3Storage(ctx, s3cfg.Region, s3cfg.Endpoint, s3cfg.BucketName, s3cfg.BucketPath, opts...)
		if err != nil {
			return err
		}
		a.archive = s
	}
	return nil
}

// newRemote returns the source designated by from: "local:<project>" reads this server,
// "gitlab+<url>" a GitLab instance and any other URL a review server REST API.
func (a *App) newRemote(from string, creds remote.Credentials) (remote.Remote, error) {
	rc := a.cfg.Remote
	switch {
	case strings.HasPrefix(from, constants.LocalSourcePrefix):
		return local.New(a.store, a.cfg.RepositoriesDir()), nil
	case strings.HasPrefix(from, constants.GitLabSourcePrefix):
		limiter := rate.NewLimiter(rate.Limit(rc.QPS), rc.Burst)
		return gitlab.New(strings.TrimPrefix(from, constants.GitLabSourcePrefix), creds.Password, limiter)
	default:
		return rest.New(from, creds,
			rest.WithHTTPClient(&http.Client{Timeout: time.Duration(rc.TimeoutSecs) * time.Second}),
			rest.WithRateLimit(rc.QPS, rc.Burst),
			rest.WithMaxRetries(rc.MaxRetries),
		)
	}
}

// SetLogger sets the logger of the app and of every package it drives.
func (a *App) SetLogger(l *slog.Logger) {
	a.log = l
	importer.SetLogger(l)
	replay.SetLogger(l)
	identity.SetLogger(l)
	groups.SetLogger(l)
	repository.SetLogger(l)
	lock.SetLogger(l)
	rest.SetLogger(l)
	gitlab.SetLogger(l)
	a.orch.SetProgressReporter(importer.NewConsoleProgressReporter(l))
}

// Orchestrator returns the orchestrator.
func (a *App) Orchestrator() *importer.Orchestrator {
	return a.orch
}

// Store returns the target store.
func (a *App) Store() target.Store {
	return a.store
}

// Close releases the target store.
func (a *App) Close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		a.log.Warn("failed to close store", "error", err)
	}
}

// ImportAll imports the projects of reqs, at most Parallelism at a time. Every project is
// attempted; the errors of the failed ones are joined.
func (a *App) ImportAll(ctx context.Context, reqs []importer.ImportRequest) ([]*importer.Result, error) {
	results := make([]*importer.Result, len(reqs))
	errs := make([]error, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism())
	for i := range reqs {
		g.Go(func() error {
			results[i], errs[i] = a.orch.Import(gctx, reqs[i])
			if errs[i] != nil {
				a.log.Error("import failed", "project", reqs[i].Project, "error", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// ResumeAll resumes the projects of reqs, at most Parallelism at a time.
func (a *App) ResumeAll(ctx context.Context, reqs []importer.ResumeRequest) ([]*importer.Result, error) {
	results := make([]*importer.Result, len(reqs))
	errs := make([]error, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism())
	for i := range reqs {
		g.Go(func() error {
			results[i], errs[i] = a.orch.Resume(gctx, reqs[i])
			if errs[i] != nil {
				a.log.Error("resume failed", "project", reqs[i].Project, "error", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

func (a *App) parallelism() int {
	return min(max(a.cfg.Parallelism, 1), constants.MaxParallelism)
}
