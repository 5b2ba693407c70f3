package constants

// Source REST API Rate Limits
//
// Review servers usually throttle per account. These defaults keep a single import
// well below common server-side limits; they can be overridden in configuration.
const (
	// DefaultRemoteQPS is the default number of REST requests per second sent to a source.
	DefaultRemoteQPS = 10
	// DefaultRemoteBurst is the default burst of REST requests allowed by the limiter.
	DefaultRemoteBurst = 5
)

// Paging
//
// queryChanges is paginated so that arbitrarily large histories never need to be held
// in memory at once.
const (
	// DefaultChangesPageSize is the number of changes requested per page.
	DefaultChangesPageSize = 100
	// MaxChangesPageSize is the upper bound accepted in configuration.
	MaxChangesPageSize = 500
	// GitLabPageSize is the per_page value used against the GitLab API.
	GitLabPageSize = 100
)

// Retry Policy
//
// Only transport failures, 5xx and 429 responses are retried. 401 and 404 are
// domain errors and are returned immediately.
const (
	// DefaultRemoteMaxRetries is the default number of retries for a single REST call.
	DefaultRemoteMaxRetries = 3
	// RetryInitialIntervalMillis is the first backoff interval.
	RetryInitialIntervalMillis = 250
	// RetryMaxIntervalSeconds caps the backoff interval.
	RetryMaxIntervalSeconds = 10
	// DefaultRemoteTimeoutSeconds is the HTTP client timeout for one REST call.
	DefaultRemoteTimeoutSeconds = 60
)

// Gerrit REST specifics.
const (
	// GerritAuthPrefix is the path prefix of authenticated Gerrit REST endpoints.
	GerritAuthPrefix = "/a"
	// GerritXSSIPrefix is prepended by Gerrit to every JSON response body.
	GerritXSSIPrefix = ")]}'"
	// GerritTimestampLayout is the timestamp format used by the Gerrit REST API (always UTC).
	GerritTimestampLayout = "2006-01-02 15:04:05.000000000"
)

// Source URL schemes.
const (
	// LocalSourcePrefix marks a source served by the in-process facade (copy).
	LocalSourcePrefix = "local:"
	// GitLabSourcePrefix marks a GitLab source; the remainder is the GitLab base URL.
	GitLabSourcePrefix = "gitlab+"
	// GitLabOAuthUser is the basic-auth username GitLab expects with a token password.
	GitLabOAuthUser = "oauth2"
)
