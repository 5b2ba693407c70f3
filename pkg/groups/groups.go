// Package groups replicates source groups, with their owners, members and included groups,
// onto the target.
package groups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sgaunet/review-importer/pkg/cache"
	"github.com/sgaunet/review-importer/pkg/identity"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/target"
)

var (
	// ErrExists is returned when the group being imported already exists on the target.
	ErrExists = errors.New("group already exists")
	// ErrMissingDependency is returned when an owner or included group is missing on the target
	// and importing it was not requested.
	ErrMissingDependency = errors.New("group dependency missing")
)

const importedSuffix = "_imported"

var log Logger

// Logger interface defines the logging methods used by group replication.
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

// Source reads groups from the source system.
type Source interface {
	GetGroup(ctx context.Context, nameOrUUID string) (*remote.GroupInfo, error)
}

// AccountResolver maps source accounts to local ones.
type AccountResolver interface {
	Resolve(ctx context.Context, info remote.AccountInfo) (target.AccountID, error)
}

// Options tells which dependencies of a group may be imported along with it.
type Options struct {
	ImportOwnerGroup     bool
	ImportIncludedGroups bool
}

// GroupCache caches target groups by UUID.
type GroupCache = cache.Cache[string, *target.Group]

// NewGroupCache returns a read-through cache over store.
func NewGroupCache(store target.Groups, size int) (*cache.LRU[string, *target.Group], error) {
	return cache.NewLRU(size, func(ctx context.Context, uuid string) (*target.Group, error) {
		return store.GroupByUUID(ctx, uuid)
	})
}

// Replicator creates source groups on the target.
type Replicator struct {
	store    target.Groups
	groups   GroupCache
	accounts AccountResolver
}

// NewReplicator returns a replicator writing to store.
func NewReplicator(store target.Groups, groups GroupCache, accounts AccountResolver) *Replicator {
	return &Replicator{store: store, groups: groups, accounts: accounts}
}

// Import replicates the group nameOrUUID and, as allowed by opts, its missing owner and
// included groups. It returns the names of the groups created.
func (r *Replicator) Import(ctx context.Context, src Source, nameOrUUID string, opts Options) ([]string, error) {
	info, err := src.GetGroup(ctx, nameOrUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to read group %s: %w", nameOrUUID, err)
	}
	exists, err := r.exists(ctx, info.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s (%s)", ErrExists, info.Name, info.ID)
	}

	var pending []*remote.GroupInfo
	if err := r.collect(ctx, src, info, opts, map[string]bool{}, &pending); err != nil {
		return nil, err
	}
	return r.createAll(ctx, pending)
}

// EnsureReferenced replicates every group of uuids that does not exist on the target yet,
// with all of their dependencies. External groups, whose UUID holds a colon, are skipped.
func (r *Replicator) EnsureReferenced(ctx context.Context, src Source, uuids []string) ([]string, error) {
	visited := map[string]bool{}
	var pending []*remote.GroupInfo
	all := Options{ImportOwnerGroup: true, ImportIncludedGroups: true}
	for _, uuid := range uuids {
		if isExternal(uuid) || visited[uuid] {
			continue
		}
		exists, err := r.exists(ctx, uuid)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		info, err := src.GetGroup(ctx, uuid)
		if err != nil {
			return nil, fmt.Errorf("failed to read group %s: %w", uuid, err)
		}
		if err := r.collect(ctx, src, info, all, visited, &pending); err != nil {
			return nil, err
		}
	}
	return r.createAll(ctx, pending)
}

// collect walks the owner and includes of info depth first and appends every group that must be
// created, dependencies before dependents. visited breaks ownership and inclusion cycles.
func (r *Replicator) collect(ctx context.Context, src Source, info *remote.GroupInfo, opts Options, visited map[string]bool, pending *[]*remote.GroupInfo) error {
	if visited[info.ID] {
		return nil
	}
	visited[info.ID] = true

	exists, err := r.exists(ctx, info.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if info.OwnerID != "" && info.OwnerID != info.ID {
		if err := r.collectDependency(ctx, src, info, info.OwnerID, "owner", opts.ImportOwnerGroup, opts, visited, pending); err != nil {
			return err
		}
	}
	for _, inc := range info.Includes {
		if isExternal(inc.ID) {
			continue
		}
		if err := r.collectDependency(ctx, src, info, inc.ID, "included", opts.ImportIncludedGroups, opts, visited, pending); err != nil {
			return err
		}
	}
	*pending = append(*pending, info)
	return nil
}

func (r *Replicator) collectDependency(ctx context.Context, src Source, parent *remote.GroupInfo, uuid, role string, allowed bool, opts Options, visited map[string]bool, pending *[]*remote.GroupInfo) error {
	if visited[uuid] {
		return nil
	}
	exists, err := r.exists(ctx, uuid)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: %s group %s of %s does not exist", ErrMissingDependency, role, uuid, parent.Name)
	}
	dep, err := src.GetGroup(ctx, uuid)
	if err != nil {
		return fmt.Errorf("failed to read %s group %s of %s: %w", role, uuid, parent.Name, err)
	}
	return r.collect(ctx, src, dep, opts, visited, pending)
}

func (r *Replicator) createAll(ctx context.Context, pending []*remote.GroupInfo) ([]string, error) {
	created := make([]string, 0, len(pending))
	for _, info := range pending {
		name, err := r.create(ctx, info)
		if err != nil {
			return created, err
		}
		created = append(created, name)
	}
	return created, nil
}

func (r *Replicator) create(ctx context.Context, info *remote.GroupInfo) (string, error) {
	members, err := r.members(ctx, info)
	if err != nil {
		return "", err
	}
	name, err := r.uniqueName(ctx, info.Name)
	if err != nil {
		return "", err
	}
	g := &target.Group{
		UUID:         info.ID,
		Name:         name,
		Description:  info.Description,
		OwnerUUID:    info.OwnerID,
		VisibleToAll: info.Options.VisibleToAll,
		Created:      info.CreatedOn.Time,
		Members:      members,
	}
	if g.OwnerUUID == "" {
		g.OwnerUUID = g.UUID
	}
	for _, inc := range info.Includes {
		g.Includes = append(g.Includes, inc.ID)
	}
	if err := r.store.CreateGroup(ctx, g); err != nil {
		return "", fmt.Errorf("failed to create group %s: %w", name, err)
	}
	r.groups.Evict(g.UUID)
	if name != info.Name {
		log.Warn("group renamed on import", "source", info.Name, "target", name, "uuid", info.ID)
	}
	log.Info("group created", "name", name, "uuid", info.ID, "members", len(members))
	return name, nil
}

// members resolves the members of info. Accounts that cannot be found are left out; an
// identity mismatch is fatal.
func (r *Replicator) members(ctx context.Context, info *remote.GroupInfo) ([]target.AccountID, error) {
	out := make([]target.AccountID, 0, len(info.Members))
	for _, m := range info.Members {
		id, err := r.accounts.Resolve(ctx, m)
		if errors.Is(err, identity.ErrNotFound) {
			log.Warn("skipping unknown group member", "group", info.Name, "member", m.String())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("member %s of group %s: %w", m, info.Name, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// uniqueName returns name, or the first of name_imported, name_imported-1, ... that is free.
func (r *Replicator) uniqueName(ctx context.Context, name string) (string, error) {
	candidate := name
	for i := 0; ; i++ {
		_, err := r.store.GroupByName(ctx, candidate)
		if errors.Is(err, target.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to look up group %s: %w", candidate, err)
		}
		if i == 0 {
			candidate = name + importedSuffix
		} else {
			candidate = fmt.Sprintf("%s%s-%d", name, importedSuffix, i)
		}
	}
}

func (r *Replicator) exists(ctx context.Context, uuid string) (bool, error) {
	_, err := r.groups.Get(ctx, uuid)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, target.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up group %s: %w", uuid, err)
}

func isExternal(uuid string) bool {
	return strings.Contains(uuid, ":")
}

// ParseGroupsFile returns the UUIDs listed in a project's groups file. Lines are
// "<uuid>\t<name>"; blank lines and comments are ignored.
func ParseGroupsFile(content []byte) []string {
	var uuids []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		uuid, _, _ := strings.Cut(line, "\t")
		uuid = strings.TrimSpace(uuid)
		if uuid != "" {
			uuids = append(uuids, uuid)
		}
	}
	return uuids
}
