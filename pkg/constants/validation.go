package constants

// Configuration Limits.
const (
	// MaxParallelism bounds the number of projects imported concurrently by one batch.
	MaxParallelism = 32
	// DefaultParallelism is the default number of projects imported concurrently.
	DefaultParallelism = 2
)

// Project names.
const (
	// ProjectNamePattern matches a project name: slash-separated segments of letters,
	// numbers, underscores, dots and hyphens.
	ProjectNamePattern = `^[a-zA-Z0-9_.-]+(/[a-zA-Z0-9_.-]+)*$`
	// MaxProjectNameLength bounds project names accepted by the importer.
	MaxProjectNameLength = 255
)

// AWS S3 Validation Constants
//
// Reference: https://docs.aws.amazon.com/AmazonS3/latest/userguide/bucketnamingrules.html
const (
	// S3BucketNameMinLength is the minimum allowed S3 bucket name length.
	S3BucketNameMinLength = 3
	// S3BucketNameMaxLength is the maximum allowed S3 bucket name length.
	S3BucketNameMaxLength = 63
)

// Configuration Redaction.
const (
	// RedactedValue is the placeholder for redacted credentials in logs/output.
	RedactedValue = "***REDACTED***"
)
