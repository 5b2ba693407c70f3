// Package rest implements remote.Remote over the REST API of a review server.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/remote"
	"golang.org/x/time/rate"
)

var (
	// ErrUnmarshalJSON is returned when a response body is not the expected JSON.
	ErrUnmarshalJSON = errors.New("error unmarshalling json")
	// ErrInvalidURL is returned when the source URL cannot be used.
	ErrInvalidURL = errors.New("invalid source url")
)

// Query options requested from /changes/, as bit positions of the server's ListChangesOption.
const (
	optionLabels           = 0
	optionAllRevisions     = 2
	optionAllCommits       = 4
	optionDetailedAccounts = 7
	optionDetailedLabels   = 8
	optionMessages         = 9
)

// changeQueryOptions is the bitmask sent as the O parameter.
const changeQueryOptions = 1<<optionLabels | 1<<optionAllRevisions | 1<<optionAllCommits |
	1<<optionDetailedAccounts | 1<<optionDetailedLabels | 1<<optionMessages

var log Logger

// Logger interface defines the logging methods used by the REST client.
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

// Client queries a review server over authenticated HTTP.
type Client struct {
	baseURL    string
	apiPrefix  string
	creds      remote.Credentials
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRateLimit throttles requests to qps with the given burst.
func WithRateLimit(qps float64, burst int) Option {
	return func(c *Client) {
		if qps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), burst)
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = uint64(n)
		}
	}
}

// WithAPIPrefix sets the path prefix of the authenticated API (default "/a").
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) {
		c.apiPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, creds remote.Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiPrefix:  constants.GerritAuthPrefix,
		creds:      creds,
		httpClient: &http.Client{Timeout: constants.DefaultRemoteTimeoutSeconds * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(constants.DefaultRemoteQPS), constants.DefaultRemoteBurst),
		maxRetries: constants.DefaultRemoteMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetProject returns the project configuration.
func (c *Client) GetProject(ctx context.Context, name string) (*remote.ProjectInfo, error) {
	var info remote.ProjectInfo
	if err := c.get(ctx, "/projects/"+url.PathEscape(name), nil, &info); err != nil {
		return nil, fmt.Errorf("get project %s: %w", name, err)
	}
	return &info, nil
}

// QueryChanges returns one page of changes. The last change of a page flags whether more follow.
func (c *Client) QueryChanges(ctx context.Context, project string, start, limit int) (*remote.ChangePage, error) {
	query := url.Values{}
	query.Set("q", "project:"+project)
	query.Set("S", strconv.Itoa(start))
	query.Set("n", strconv.Itoa(limit))
	query.Set("O", strconv.FormatInt(changeQueryOptions, 16))

	var changes []remote.ChangeInfo
	if err := c.get(ctx, "/changes/", query, &changes); err != nil {
		return nil, fmt.Errorf("query changes of %s at %d: %w", project, start, err)
	}
	page := &remote.ChangePage{Changes: changes, Next: start + len(changes)}
	if n := len(changes); n > 0 {
		page.More = changes[n-1].MoreChanges
	}
	return page, nil
}

// GetGroup returns a group with members and includes.
func (c *Client) GetGroup(ctx context.Context, nameOrUUID string) (*remote.GroupInfo, error) {
	var info remote.GroupInfo
	if err := c.get(ctx, "/groups/"+url.PathEscape(nameOrUUID)+"/detail", nil, &info); err != nil {
		return nil, fmt.Errorf("get group %s: %w", nameOrUUID, err)
	}
	// the server url-encodes group UUIDs in the id field
	if id, err := url.QueryUnescape(info.ID); err == nil {
		info.ID = id
	}
	if id, err := url.QueryUnescape(info.OwnerID); err == nil {
		info.OwnerID = id
	}
	for i := range info.Includes {
		if id, err := url.QueryUnescape(info.Includes[i].ID); err == nil {
			info.Includes[i].ID = id
		}
	}
	return &info, nil
}

// GetComments returns the published comments of a revision keyed by file path.
func (c *Client) GetComments(ctx context.Context, changeNumber int, revision string) (map[string][]remote.CommentInfo, error) {
	var comments map[string][]remote.CommentInfo
	path := fmt.Sprintf("/changes/%d/revisions/%s/comments", changeNumber, url.PathEscape(revision))
	if err := c.get(ctx, path, nil, &comments); err != nil {
		return nil, fmt.Errorf("get comments of %d/%s: %w", changeNumber, revision, err)
	}
	if len(comments) == 0 {
		return nil, nil
	}
	for file, list := range comments {
		for i := range list {
			list[i].Path = file
		}
	}
	return comments, nil
}

// GetSSHKeys returns the public keys of an account.
func (c *Client) GetSSHKeys(ctx context.Context, accountID int) ([]remote.SSHKeyInfo, error) {
	var keys []remote.SSHKeyInfo
	if err := c.get(ctx, fmt.Sprintf("/accounts/%d/sshkeys/", accountID), nil, &keys); err != nil {
		return nil, fmt.Errorf("get ssh keys of %d: %w", accountID, err)
	}
	return keys, nil
}

// RepositoryURL returns the git URL of project on the server.
func (c *Client) RepositoryURL(project string) string {
	return c.baseURL + "/" + project
}

// get issues one GET request, retrying transient failures, and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + c.apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		body, err := c.do(ctx, endpoint)
		if err != nil {
			if !remote.IsBadRequest(err) && errors.Is(err, remote.ErrTransport) && !isPermanent(err) {
				log.Debug("retrying source request", "url", endpoint, "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrUnmarshalJSON, err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = constants.RetryInitialIntervalMillis * time.Millisecond
	b.MaxInterval = constants.RetryMaxIntervalSeconds * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}

// statusError carries a non-2xx status so retry decisions can inspect it.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.msg)
}

// isPermanent reports whether a transport failure must not be retried.
func isPermanent(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code != http.StatusTooManyRequests && se.code < http.StatusInternalServerError
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", remote.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds.Username != "" {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", remote.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", remote.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %w", remote.ErrBadRequest, remote.ErrInvalidCredentials)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w: %s", remote.ErrBadRequest, remote.ErrNotFound, req.URL.Path)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%w: %w", remote.ErrTransport,
			&statusError{code: resp.StatusCode, msg: strings.TrimSpace(string(body))})
	}
	return stripXSSI(body), nil
}

// stripXSSI removes the anti-XSSI line the server prepends to JSON bodies.
func stripXSSI(body []byte) []byte {
	trimmed := bytes.TrimPrefix(body, []byte(constants.GerritXSSIPrefix))
	return bytes.TrimLeft(trimmed, "\r\n")
}

var _ remote.Remote = (*Client)(nil)
