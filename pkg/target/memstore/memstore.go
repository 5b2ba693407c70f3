// Package memstore is an in-memory target.Store used for dry runs and tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sgaunet/review-importer/pkg/target"
)

type commentKey struct {
	author target.AccountID
	uuid   string
}

type changeKey struct {
	project string
	branch  string
	key     string
}

func keyOf(c *target.Change) changeKey {
	return changeKey{project: c.Project, branch: c.Branch, key: c.Key}
}

type approvalKey struct {
	patchSet int
	account  target.AccountID
	label    string
}

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	nextAccount target.AccountID
	nextChange  target.ChangeID

	accounts  map[target.AccountID]target.Account
	sshKeys   map[target.AccountID][]string
	projects  map[string]target.Project
	changes   map[target.ChangeID]target.Change
	byKey     map[changeKey]target.ChangeID
	patchSets map[target.ChangeID][]target.PatchSet
	comments  map[target.ChangeID]map[commentKey]target.Comment
	messages  map[target.ChangeID][]target.Message
	approvals map[target.ChangeID]map[approvalKey]target.Approval
	hashtags  map[target.ChangeID][]string
	groups    map[string]target.Group

	// Writes counts every mutating call, which lets tests assert that nothing was written.
	Writes int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:  map[target.AccountID]target.Account{},
		sshKeys:   map[target.AccountID][]string{},
		projects:  map[string]target.Project{},
		changes:   map[target.ChangeID]target.Change{},
		byKey:     map[changeKey]target.ChangeID{},
		patchSets: map[target.ChangeID][]target.PatchSet{},
		comments:  map[target.ChangeID]map[commentKey]target.Comment{},
		messages:  map[target.ChangeID][]target.Message{},
		approvals: map[target.ChangeID]map[approvalKey]target.Approval{},
		hashtags:  map[target.ChangeID][]string{},
		groups:    map[string]target.Group{},
	}
}

// Close does nothing.
func (s *Store) Close() error { return nil }

func (s *Store) AccountByUsername(_ context.Context, username string) (*target.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account %s: %w", username, target.ErrNotFound)
}

func (s *Store) AccountByID(_ context.Context, id target.AccountID) (*target.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, target.ErrNotFound)
	}
	return &a, nil
}

func (s *Store) CreateAccount(_ context.Context, account *target.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == account.Username {
			return fmt.Errorf("account %s: %w", account.Username, target.ErrAlreadyExists)
		}
	}
	s.Writes++
	if account.ID == 0 {
		s.nextAccount++
		account.ID = 1000000 + s.nextAccount
	}
	if account.Created.IsZero() {
		account.Created = time.Now().UTC()
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *Store) AddSSHKey(_ context.Context, id target.AccountID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("account %d: %w", id, target.ErrNotFound)
	}
	if slices.Contains(s.sshKeys[id], key) {
		return nil
	}
	s.Writes++
	s.sshKeys[id] = append(s.sshKeys[id], key)
	return nil
}

func (s *Store) SSHKeys(_ context.Context, id target.AccountID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sshKeys[id]), nil
}

func (s *Store) Project(_ context.Context, name string) (*target.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[name]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", name, target.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) CreateProject(_ context.Context, project *target.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.Name]; ok {
		return fmt.Errorf("project %s: %w", project.Name, target.ErrAlreadyExists)
	}
	s.Writes++
	s.projects[project.Name] = *project
	return nil
}

func (s *Store) UpdateProject(_ context.Context, project *target.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.Name]; !ok {
		return fmt.Errorf("project %s: %w", project.Name, target.ErrNotFound)
	}
	s.Writes++
	s.projects[project.Name] = *project
	return nil
}

func (s *Store) ChangeByKey(_ context.Context, project, branch, key string) (*target.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[changeKey{project: project, branch: branch, key: key}]
	if !ok {
		return nil, fmt.Errorf("change %s on %s in %s: %w", key, branch, project, target.ErrNotFound)
	}
	c := s.changes[id]
	return &c, nil
}

func (s *Store) ChangeByID(_ context.Context, id target.ChangeID) (*target.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.changes[id]
	if !ok {
		return nil, fmt.Errorf("change %d: %w", id, target.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) ListChanges(_ context.Context, project string, start, limit int) ([]target.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []target.Change
	for _, c := range s.changes {
		if c.Project == project {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if start >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return all[start:end], nil
}

func (s *Store) CreateChange(_ context.Context, change *target.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[keyOf(change)]; ok {
		return fmt.Errorf("change %s on %s in %s: %w", change.Key, change.Branch, change.Project, target.ErrAlreadyExists)
	}
	s.Writes++
	s.nextChange++
	change.ID = s.nextChange
	s.changes[change.ID] = *change
	s.byKey[keyOf(change)] = change.ID
	return nil
}

func (s *Store) UpdateChange(_ context.Context, change *target.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.changes[change.ID]
	if !ok {
		return fmt.Errorf("change %d: %w", change.ID, target.ErrNotFound)
	}
	if keyOf(&prev) != keyOf(change) {
		if _, taken := s.byKey[keyOf(change)]; taken {
			return fmt.Errorf("change %s on %s in %s: %w", change.Key, change.Branch, change.Project, target.ErrAlreadyExists)
		}
		delete(s.byKey, keyOf(&prev))
		s.byKey[keyOf(change)] = change.ID
	}
	s.Writes++
	s.changes[change.ID] = *change
	return nil
}

func (s *Store) PatchSets(_ context.Context, id target.ChangeID) ([]target.PatchSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.patchSets[id])
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) InsertPatchSet(_ context.Context, ps *target.PatchSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.changes[ps.ChangeID]; !ok {
		return fmt.Errorf("change %d: %w", ps.ChangeID, target.ErrNotFound)
	}
	for _, existing := range s.patchSets[ps.ChangeID] {
		if existing.Number == ps.Number {
			return fmt.Errorf("patch set %d,%d: %w", ps.ChangeID, ps.Number, target.ErrAlreadyExists)
		}
	}
	s.Writes++
	cp := *ps
	cp.Parents = slices.Clone(ps.Parents)
	s.patchSets[ps.ChangeID] = append(s.patchSets[ps.ChangeID], cp)
	return nil
}

func (s *Store) Comments(_ context.Context, id target.ChangeID, patchSet int, author target.AccountID) ([]target.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []target.Comment
	for _, c := range s.comments[id] {
		if c.PatchSet != patchSet {
			continue
		}
		if author != 0 && c.Author != author {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Written.Equal(out[j].Written) {
			return out[i].UUID < out[j].UUID
		}
		return out[i].Written.Before(out[j].Written)
	})
	return out, nil
}

func (s *Store) UpsertComment(_ context.Context, c *target.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.changes[c.ChangeID]; !ok {
		return fmt.Errorf("change %d: %w", c.ChangeID, target.ErrNotFound)
	}
	if s.comments[c.ChangeID] == nil {
		s.comments[c.ChangeID] = map[commentKey]target.Comment{}
	}
	s.Writes++
	cp := *c
	if c.Range != nil {
		r := *c.Range
		cp.Range = &r
	}
	s.comments[c.ChangeID][commentKey{author: c.Author, uuid: c.UUID}] = cp
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id target.ChangeID, author target.AccountID, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := commentKey{author: author, uuid: uuid}
	if _, ok := s.comments[id][key]; !ok {
		return fmt.Errorf("comment %s: %w", uuid, target.ErrNotFound)
	}
	s.Writes++
	delete(s.comments[id], key)
	return nil
}

func (s *Store) Messages(_ context.Context, id target.ChangeID) ([]target.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages[id]), nil
}

func (s *Store) InsertMessage(_ context.Context, m *target.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.changes[m.ChangeID]; !ok {
		return false, fmt.Errorf("change %d: %w", m.ChangeID, target.ErrNotFound)
	}
	for _, existing := range s.messages[m.ChangeID] {
		if existing.UUID == m.UUID {
			return false, nil
		}
	}
	s.Writes++
	s.messages[m.ChangeID] = append(s.messages[m.ChangeID], *m)
	return true, nil
}

func (s *Store) Approvals(_ context.Context, id target.ChangeID) ([]target.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]target.Approval, 0, len(s.approvals[id]))
	for _, a := range s.approvals[id] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].PatchSet < out[j].PatchSet
	})
	return out, nil
}

func (s *Store) UpsertApproval(_ context.Context, a *target.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.changes[a.ChangeID]; !ok {
		return fmt.Errorf("change %d: %w", a.ChangeID, target.ErrNotFound)
	}
	if s.approvals[a.ChangeID] == nil {
		s.approvals[a.ChangeID] = map[approvalKey]target.Approval{}
	}
	s.Writes++
	s.approvals[a.ChangeID][approvalKey{patchSet: a.PatchSet, account: a.Account, label: a.Label}] = *a
	return nil
}

func (s *Store) Hashtags(_ context.Context, id target.ChangeID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.hashtags[id]), nil
}

func (s *Store) SetHashtags(_ context.Context, id target.ChangeID, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.changes[id]; !ok {
		return fmt.Errorf("change %d: %w", id, target.ErrNotFound)
	}
	s.Writes++
	sorted := slices.Clone(tags)
	slices.Sort(sorted)
	s.hashtags[id] = slices.Compact(sorted)
	return nil
}

func (s *Store) GroupByUUID(_ context.Context, uuid string) (*target.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[uuid]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", uuid, target.ErrNotFound)
	}
	return cloneGroup(g), nil
}

func (s *Store) GroupByName(_ context.Context, name string) (*target.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.Name == name {
			return cloneGroup(g), nil
		}
	}
	return nil, fmt.Errorf("group %s: %w", name, target.ErrNotFound)
}

func (s *Store) CreateGroup(_ context.Context, g *target.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.UUID]; ok {
		return fmt.Errorf("group %s: %w", g.UUID, target.ErrAlreadyExists)
	}
	for _, existing := range s.groups {
		if existing.Name == g.Name {
			return fmt.Errorf("group name %s: %w", g.Name, target.ErrAlreadyExists)
		}
	}
	s.Writes++
	s.groups[g.UUID] = *cloneGroup(*g)
	return nil
}

func (s *Store) UpdateGroup(_ context.Context, g *target.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.UUID]; !ok {
		return fmt.Errorf("group %s: %w", g.UUID, target.ErrNotFound)
	}
	s.Writes++
	s.groups[g.UUID] = *cloneGroup(*g)
	return nil
}

func cloneGroup(g target.Group) *target.Group {
	g.Members = slices.Clone(g.Members)
	g.Includes = slices.Clone(g.Includes)
	return &g
}

var _ target.Store = (*Store)(nil)
