package remote

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sgaunet/review-importer/pkg/constants"
)

// Timestamp is a point in time encoded the way review servers do: "2006-01-02 15:04:05.000000000" in UTC.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// UnmarshalJSON accepts the review server layout and RFC 3339.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(constants.GerritTimestampLayout, raw, time.UTC)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", raw, err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON writes the review server layout.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(constants.GerritTimestampLayout))
}

// ProjectInfo describes a source project.
type ProjectInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Parent      string `json:"parent,omitempty"`
	Description string `json:"description,omitempty"`
	State       string `json:"state,omitempty"`
}

// AccountInfo references a source account.
type AccountInfo struct {
	AccountID int    `json:"_account_id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
}

// String identifies the account in logs and errors.
func (a AccountInfo) String() string {
	if a.Username != "" {
		return a.Username
	}
	return fmt.Sprintf("account %d", a.AccountID)
}

// FetchInfo tells where a revision can be fetched from.
type FetchInfo struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

// CommitInfo is the commit metadata attached to a revision.
type CommitInfo struct {
	Subject string `json:"subject"`
	Message string `json:"message,omitempty"`
}

// RevisionInfo is one patch set of a source change.
type RevisionInfo struct {
	Number   int                  `json:"_number"`
	Ref      string               `json:"ref"`
	Created  Timestamp            `json:"created"`
	Uploader *AccountInfo         `json:"uploader,omitempty"`
	Draft    bool                 `json:"draft,omitempty"`
	Fetch    map[string]FetchInfo `json:"fetch,omitempty"`
	Commit   *CommitInfo          `json:"commit,omitempty"`
}

// ApprovalInfo is one account's vote on a label. A nil Value means the account may vote but has not.
type ApprovalInfo struct {
	AccountInfo
	Value *int      `json:"value,omitempty"`
	Date  Timestamp `json:"date"`
}

// LabelInfo is the state of one label on a change.
type LabelInfo struct {
	All []ApprovalInfo `json:"all,omitempty"`
}

// ChangeMessageInfo is a message posted on a change.
type ChangeMessageInfo struct {
	ID             string       `json:"id"`
	Author         *AccountInfo `json:"author,omitempty"`
	Date           Timestamp    `json:"date"`
	Message        string       `json:"message"`
	Tag            string       `json:"tag,omitempty"`
	RevisionNumber int          `json:"_revision_number,omitempty"`
}

// ChangeInfo is a source change with its revisions, labels and messages.
type ChangeInfo struct {
	ID              string                  `json:"id"`
	Project         string                  `json:"project"`
	Branch          string                  `json:"branch"`
	Topic           string                  `json:"topic,omitempty"`
	Hashtags        []string                `json:"hashtags,omitempty"`
	ChangeID        string                  `json:"change_id"`
	Subject         string                  `json:"subject"`
	Status          string                  `json:"status"`
	Created         Timestamp               `json:"created"`
	Updated         Timestamp               `json:"updated"`
	Number          int                     `json:"_number"`
	Owner           AccountInfo             `json:"owner"`
	Labels          map[string]LabelInfo    `json:"labels,omitempty"`
	Messages        []ChangeMessageInfo     `json:"messages,omitempty"`
	CurrentRevision string                  `json:"current_revision,omitempty"`
	Revisions       map[string]RevisionInfo `json:"revisions,omitempty"`
	MoreChanges     bool                    `json:"_more_changes,omitempty"`
}

// Key is the stable change-key. Together with Branch it matches the change on the target, since
// cherry-picks reuse the key on other branches.
func (c *ChangeInfo) Key() string {
	if c.ChangeID != "" {
		return c.ChangeID
	}
	return c.ID
}

// Revision pairs a revision with its commit ID.
type Revision struct {
	Commit string
	RevisionInfo
}

// SortedRevisions returns the revisions ascending by number. The source map is unordered.
func (c *ChangeInfo) SortedRevisions() []Revision {
	out := make([]Revision, 0, len(c.Revisions))
	for commit, info := range c.Revisions {
		out = append(out, Revision{Commit: commit, RevisionInfo: info})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ChangePage is one page of QueryChanges. Next is the start of the following page; it may run
// ahead of len(Changes) when the source dropped entries it cannot serve, listed in Skipped.
type ChangePage struct {
	Changes []ChangeInfo
	More    bool
	Next    int
	Skipped []string
}

// CommentRange locates a comment within a file.
type CommentRange struct {
	StartLine      int `json:"start_line"`
	StartCharacter int `json:"start_character"`
	EndLine        int `json:"end_line"`
	EndCharacter   int `json:"end_character"`
}

// CommentInfo is a published inline comment.
type CommentInfo struct {
	ID        string        `json:"id"`
	Path      string        `json:"path,omitempty"`
	Side      string        `json:"side,omitempty"`
	Line      int           `json:"line,omitempty"`
	Range     *CommentRange `json:"range,omitempty"`
	InReplyTo string        `json:"in_reply_to,omitempty"`
	Message   string        `json:"message"`
	Updated   Timestamp     `json:"updated"`
	Author    *AccountInfo  `json:"author,omitempty"`
}

// OnParent reports whether the comment is attached to the base side of the diff.
func (c *CommentInfo) OnParent() bool {
	return strings.EqualFold(c.Side, "PARENT")
}

// GroupOptions are group flags.
type GroupOptions struct {
	VisibleToAll bool `json:"visible_to_all,omitempty"`
}

// GroupInfo describes a group with its members and included groups.
type GroupInfo struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Options     GroupOptions  `json:"options"`
	OwnerID     string        `json:"owner_id,omitempty"`
	Owner       string        `json:"owner,omitempty"`
	CreatedOn   Timestamp     `json:"created_on"`
	Members     []AccountInfo `json:"members,omitempty"`
	Includes    []GroupInfo   `json:"includes,omitempty"`
}

// SSHKeyInfo is one public key of an account.
type SSHKeyInfo struct {
	Seq          int    `json:"seq"`
	SSHPublicKey string `json:"ssh_public_key"`
	Valid        bool   `json:"valid"`
}
