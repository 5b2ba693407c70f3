package target

import "context"

// Accounts stores local accounts and their SSH keys.
type Accounts interface {
	AccountByUsername(ctx context.Context, username string) (*Account, error)
	AccountByID(ctx context.Context, id AccountID) (*Account, error)
	CreateAccount(ctx context.Context, account *Account) error
	AddSSHKey(ctx context.Context, id AccountID, key string) error
	SSHKeys(ctx context.Context, id AccountID) ([]string, error)
}

// Projects stores project level configuration.
type Projects interface {
	Project(ctx context.Context, name string) (*Project, error)
	CreateProject(ctx context.Context, project *Project) error
	UpdateProject(ctx context.Context, project *Project) error
}

// Changes stores changes. CreateChange allocates the ID and sets it on the argument.
// A change key is unique per project branch only: cherry-picks share it across branches.
type Changes interface {
	ChangeByKey(ctx context.Context, project, branch, key string) (*Change, error)
	ChangeByID(ctx context.Context, id ChangeID) (*Change, error)
	ListChanges(ctx context.Context, project string, start, limit int) ([]Change, error)
	CreateChange(ctx context.Context, change *Change) error
	UpdateChange(ctx context.Context, change *Change) error
}

// PatchSets stores patch sets. PatchSets returns them in ascending order.
type PatchSets interface {
	PatchSets(ctx context.Context, id ChangeID) ([]PatchSet, error)
	InsertPatchSet(ctx context.Context, ps *PatchSet) error
}

// Comments stores inline comments.
type Comments interface {
	// Comments returns the comments of one patch set; author zero returns every author.
	Comments(ctx context.Context, id ChangeID, patchSet int, author AccountID) ([]Comment, error)
	UpsertComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id ChangeID, author AccountID, uuid string) error
}

// Messages stores change messages.
type Messages interface {
	Messages(ctx context.Context, id ChangeID) ([]Message, error)
	// InsertMessage reports false when a message with the same UUID already exists.
	InsertMessage(ctx context.Context, m *Message) (bool, error)
}

// Approvals stores votes.
type Approvals interface {
	Approvals(ctx context.Context, id ChangeID) ([]Approval, error)
	UpsertApproval(ctx context.Context, a *Approval) error
}

// Hashtags stores the hashtag set of each change.
type Hashtags interface {
	Hashtags(ctx context.Context, id ChangeID) ([]string, error)
	SetHashtags(ctx context.Context, id ChangeID, tags []string) error
}

// Groups stores groups with their members and included groups.
type Groups interface {
	GroupByUUID(ctx context.Context, uuid string) (*Group, error)
	GroupByName(ctx context.Context, name string) (*Group, error)
	CreateGroup(ctx context.Context, g *Group) error
	UpdateGroup(ctx context.Context, g *Group) error
}

// Store is the complete persistence surface of the target review system.
type Store interface {
	Accounts
	Projects
	Changes
	PatchSets
	Comments
	Messages
	Approvals
	Hashtags
	Groups
	Close() error
}
