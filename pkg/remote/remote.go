// Package remote provides the uniform query interface over a source review system.
package remote

import (
	"context"
	"errors"
)

//go:generate go tool github.com/matryer/moq -out mocks/remote.go -pkg mocks . Remote

var (
	// ErrBadRequest is the domain-level failure of a source request (401, 404).
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidCredentials is returned when the source rejects the credentials (401).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned when the requested entity does not exist at the source (404).
	ErrNotFound = errors.New("not found at source")
	// ErrTransport is returned for network failures and any other non-2xx status.
	ErrTransport = errors.New("transport error")
)

// Remote is the query surface of a source system, local or remote.
type Remote interface {
	// GetProject returns the project configuration.
	GetProject(ctx context.Context, name string) (*ProjectInfo, error)
	// QueryChanges returns one page of the project's changes with revisions, labels and messages.
	QueryChanges(ctx context.Context, project string, start, limit int) (*ChangePage, error)
	// GetGroup returns a group with members and includes, by name or UUID.
	GetGroup(ctx context.Context, nameOrUUID string) (*GroupInfo, error)
	// GetComments returns the published comments of a revision by file path; nil when there are none.
	GetComments(ctx context.Context, changeNumber int, revision string) (map[string][]CommentInfo, error)
	// GetSSHKeys returns the public keys of a source account.
	GetSSHKeys(ctx context.Context, accountID int) ([]SSHKeyInfo, error)
	// RepositoryURL returns the URL the repository stage fetches the project from.
	RepositoryURL(project string) string
}

// Credentials authenticate against a source, both for its API and for git.
type Credentials struct {
	Username string
	Password string
}

// IsBadRequest reports whether err is a domain failure (401/404) rather than a transport one.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
