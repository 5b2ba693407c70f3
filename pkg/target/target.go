// Package target describes the review system that receives an import: its entities and the
// storage interfaces the replay pipeline writes through.
package target

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an entity does not exist in the target store.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating an entity whose key is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// AccountID identifies a local account.
type AccountID int64

// ChangeID identifies a change on the target. It is allocated by the store.
type ChangeID int64

// ChangeStatus is the lifecycle state of a change.
type ChangeStatus string

// Change states.
const (
	StatusNew       ChangeStatus = "NEW"
	StatusMerged    ChangeStatus = "MERGED"
	StatusAbandoned ChangeStatus = "ABANDONED"
)

// Side tells which side of a diff an inline comment is attached to.
type Side string

// Comment sides.
const (
	SideOld Side = "OLD"
	SideNew Side = "NEW"
)

// Account is a local user account.
type Account struct {
	ID       AccountID
	Username string
	FullName string
	Email    string
	Created  time.Time
}

// Project is a target project.
type Project struct {
	Name        string
	Parent      string
	Description string
}

// Change is a unit of proposed modification, keyed by the source change-key per project.
type Change struct {
	ID              ChangeID
	Key             string
	Project         string
	Branch          string
	Topic           string
	Subject         string
	Owner           AccountID
	Status          ChangeStatus
	Created         time.Time
	Updated         time.Time
	CurrentPatchSet int
}

// PatchSet is one version of a change.
type PatchSet struct {
	ChangeID ChangeID
	Number   int
	Revision string
	Uploader AccountID
	Created  time.Time
	Draft    bool
	Ref      string
	Parents  []string
}

// Range locates an inline comment precisely within a file.
type Range struct {
	StartLine      int
	StartCharacter int
	EndLine        int
	EndCharacter   int
}

// Comment is an inline comment. It is identified by (Author, UUID).
type Comment struct {
	UUID       string
	ChangeID   ChangeID
	PatchSet   int
	Author     AccountID
	Path       string
	Line       int
	Range      *Range
	ParentUUID string
	Message    string
	Written    time.Time
	Side       Side
}

// Message is a change message. Author zero means the message was written by the system.
type Message struct {
	UUID     string
	ChangeID ChangeID
	PatchSet int
	Author   AccountID
	Written  time.Time
	Message  string
	Tag      string
}

// Approval is a vote on a label, keyed by (ChangeID, PatchSet, Account, Label).
type Approval struct {
	ChangeID ChangeID
	PatchSet int
	Account  AccountID
	Label    string
	Value    int
	Granted  time.Time
}

// Group is an account group. Its UUID is authoritative across systems, its name is only
// locally unique.
type Group struct {
	UUID         string
	Name         string
	Description  string
	OwnerUUID    string
	VisibleToAll bool
	Created      time.Time
	Members      []AccountID
	Includes     []string
}

// ChangeRef returns the canonical ref of a patch set on the target.
func ChangeRef(id ChangeID, patchSet int) string {
	return fmt.Sprintf("refs/changes/%02d/%d/%d", int64(id)%100, id, patchSet)
}
