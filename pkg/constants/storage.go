package constants

// Size Constants
//
// Standard binary size units (powers of 1024, not 1000).
const (
	// KB is one kilobyte (1,024 bytes).
	KB = 1024
	// MB is one megabyte (1,024 kilobytes).
	MB = 1024 * KB
)

// Buffer Sizes.
const (
	// CopyBufferSize is the buffer size for local file copy operations.
	CopyBufferSize = 32 * KB
)

// File Permissions
//
// Status records and audit logs may contain account emails, so they are private to the
// service account.
const (
	// PrivateFilePermission is used for status records, locks and audit logs (rw-------).
	PrivateFilePermission = 0o600
	// DefaultFilePermission is the default permission mode for archives (rw-r--r--).
	DefaultFilePermission = 0o644
	// DefaultDirPermission is the default permission mode for created directories (rwxr-xr-x).
	DefaultDirPermission = 0o755
)

// Data directory layout.
const (
	// ProjectsDirName holds one status record per imported project.
	ProjectsDirName = "projects"
	// LocksDirName holds the lock files.
	LocksDirName = "locks"
	// GroupLocksDirName holds the lock files of group imports, below LocksDirName.
	GroupLocksDirName = "groups"
	// AuditFileName is the append-only audit trail.
	AuditFileName = "audit.jsonl"
	// StatusFileSuffix is appended to the project name to form its status record file.
	StatusFileSuffix = ".json"
	// LockFileSuffix is appended to the lock key to form its lock file.
	LockFileSuffix = ".lock"
	// RepositorySuffix is appended to the project name to form its bare repository directory.
	RepositorySuffix = ".git"
)

// Cache sizes.
const (
	// DefaultAccountCacheSize bounds the account cache.
	DefaultAccountCacheSize = 4096
	// DefaultGroupCacheSize bounds the group cache.
	DefaultGroupCacheSize = 1024
)
