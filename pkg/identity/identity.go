// Package identity maps source accounts onto local accounts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sgaunet/review-importer/pkg/cache"
	"github.com/sgaunet/review-importer/pkg/remote"
	"github.com/sgaunet/review-importer/pkg/target"
)

var (
	// ErrIdentityMismatch is returned when the local account with the source username has another email.
	ErrIdentityMismatch = errors.New("identity mismatch")
	// ErrNotFound is returned when no local account can be found or provisioned.
	ErrNotFound = errors.New("account not found")
	// ErrUnknownAuthType is returned for an auth type the server does not know.
	ErrUnknownAuthType = errors.New("unknown auth type")
)

var log Logger

// Logger interface defines the logging methods used by the resolver.
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

// AuthType is the authentication backend of the target server.
type AuthType string

// Supported auth types.
const (
	AuthLDAP              AuthType = "LDAP"
	AuthHTTPLDAP          AuthType = "HTTP_LDAP"
	AuthClientSSLCertLDAP AuthType = "CLIENT_SSL_CERT_LDAP"
	AuthLDAPBind          AuthType = "LDAP_BIND"
	AuthHTTP              AuthType = "HTTP"
	AuthOpenID            AuthType = "OPENID"
	AuthOAuth             AuthType = "OAUTH"
	AuthDevelopment       AuthType = "DEVELOPMENT_BECOME_ANY_ACCOUNT"
)

// ParseAuthType validates s.
func ParseAuthType(s string) (AuthType, error) {
	a := AuthType(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case AuthLDAP, AuthHTTPLDAP, AuthClientSSLCertLDAP, AuthLDAPBind,
		AuthHTTP, AuthOpenID, AuthOAuth, AuthDevelopment:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAuthType, s)
}

// IsDirectory reports whether accounts come from a directory and may be provisioned on demand.
func (a AuthType) IsDirectory() bool {
	switch a {
	case AuthLDAP, AuthHTTPLDAP, AuthClientSSLCertLDAP, AuthLDAPBind:
		return true
	}
	return false
}

// Provisioner creates a local account for username as if the user had just logged in.
type Provisioner interface {
	Provision(ctx context.Context, username string) error
}

// KeySource lists the SSH keys of a source account.
type KeySource interface {
	GetSSHKeys(ctx context.Context, accountID int) ([]remote.SSHKeyInfo, error)
}

// AccountCache caches local accounts by username.
type AccountCache = cache.Cache[string, *target.Account]

// NewAccountCache returns a read-through cache over store.
func NewAccountCache(store target.Accounts, size int) (*cache.LRU[string, *target.Account], error) {
	return cache.NewLRU(size, func(ctx context.Context, username string) (*target.Account, error) {
		return store.AccountByUsername(ctx, username)
	})
}

// Resolver maps source accounts to local account IDs.
type Resolver struct {
	accounts    AccountCache
	store       target.Accounts
	auth        AuthType
	provisioner Provisioner
	keys        KeySource
}

// NewResolver returns a resolver. provisioner may be nil, in which case missing accounts are never created.
func NewResolver(accounts AccountCache, store target.Accounts, auth AuthType, provisioner Provisioner) *Resolver {
	return &Resolver{
		accounts:    accounts,
		store:       store,
		auth:        auth,
		provisioner: provisioner,
	}
}

// WithKeySource returns a copy of the resolver that copies the SSH keys of provisioned
// accounts from src.
func (r *Resolver) WithKeySource(src KeySource) *Resolver {
	cp := *r
	cp.keys = src
	return &cp
}

// Resolve returns the local account of a source account.
func (r *Resolver) Resolve(ctx context.Context, info remote.AccountInfo) (target.AccountID, error) {
	if info.Username == "" {
		return 0, fmt.Errorf("%w: %s has no username", ErrNotFound, info)
	}

	account, err := r.accounts.Get(ctx, info.Username)
	if err == nil {
		if err := checkEmail(account, info); err != nil {
			return 0, err
		}
		return account.ID, nil
	}
	if !errors.Is(err, target.ErrNotFound) {
		return 0, fmt.Errorf("failed to look up account %s: %w", info.Username, err)
	}
	if !r.auth.IsDirectory() || r.provisioner == nil {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, info.Username)
	}

	log.Info("provisioning account", "username", info.Username)
	if err := r.provisioner.Provision(ctx, info.Username); err != nil {
		return 0, fmt.Errorf("failed to provision %s: %w", info.Username, err)
	}
	r.accounts.Evict(info.Username)
	account, err = r.accounts.Get(ctx, info.Username)
	if err != nil {
		return 0, fmt.Errorf("%w: %s after provisioning: %w", ErrNotFound, info.Username, err)
	}
	if err := checkEmail(account, info); err != nil {
		return 0, err
	}
	r.copySSHKeys(ctx, account, info)
	return account.ID, nil
}

func (r *Resolver) copySSHKeys(ctx context.Context, account *target.Account, info remote.AccountInfo) {
	if r.keys == nil || info.AccountID == 0 {
		return
	}
	keys, err := r.keys.GetSSHKeys(ctx, info.AccountID)
	if err != nil {
		log.Warn("failed to read source ssh keys", "username", info.Username, "error", err)
		return
	}
	for _, k := range keys {
		if !k.Valid || k.SSHPublicKey == "" {
			continue
		}
		if err := r.store.AddSSHKey(ctx, account.ID, k.SSHPublicKey); err != nil {
			log.Warn("failed to add ssh key", "username", info.Username, "seq", k.Seq, "error", err)
		}
	}
}

func checkEmail(account *target.Account, info remote.AccountInfo) error {
	if info.Email == "" || strings.EqualFold(account.Email, info.Email) {
		return nil
	}
	return fmt.Errorf("%w: local account %s has email %q, source has %q",
		ErrIdentityMismatch, account.Username, account.Email, info.Email)
}
