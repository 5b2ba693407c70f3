// Package config provides configuration management for the review importer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sgaunet/review-importer/pkg/constants"
	"github.com/sgaunet/review-importer/pkg/hooks"
	"github.com/sgaunet/review-importer/pkg/identity"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// S3Config holds the configuration for S3 storage backend.
type S3Config struct {
	Endpoint   string `env:"S3ENDPOINT"            env-default:"" yaml:"endpoint"`
	BucketName string `env:"S3BUCKETNAME"          env-default:"" yaml:"bucketName"`
	BucketPath string `env:"S3BUCKETPATH"          env-default:"" yaml:"bucketPath"`
	Region     string `env:"S3REGION"              env-default:"" yaml:"region"`
	AccessKey  string `env:"AWS_ACCESS_KEY_ID"     yaml:"accessKey"`
	SecretKey  string `env:"AWS_SECRET_ACCESS_KEY" yaml:"secretKey"`
}

// ArchiveConfig tells where completed imports are archived. Local wins when both are set.
type ArchiveConfig struct {
	LocalPath string   `env:"ARCHIVE_LOCALPATH" env-default:"" yaml:"localPath"`
	S3        S3Config `yaml:"s3"`
}

// StoreConfig selects the target store.
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" env-default:"sqlite" yaml:"driver"`
	DSN    string `env:"STORE_DSN"    env-default:""       yaml:"dsn"`
}

// AuthConfig describes how accounts are authenticated on the target.
type AuthConfig struct {
	Type          string `env:"AUTH_TYPE"           env-default:"HTTP"     yaml:"type"`
	DirectoryFile string `env:"AUTH_DIRECTORY_FILE" env-default:""         yaml:"directoryFile"`
}

// RemoteConfig tunes the requests sent to sources.
type RemoteConfig struct {
	QPS         float64 `env:"REMOTE_QPS"          env-default:"10"  yaml:"qps"`
	Burst       int     `env:"REMOTE_BURST"        env-default:"5"   yaml:"burst"`
	PageSize    int     `env:"REMOTE_PAGE_SIZE"    env-default:"100" yaml:"pageSize"`
	MaxRetries  int     `env:"REMOTE_MAX_RETRIES"  env-default:"3"   yaml:"maxRetries"`
	TimeoutSecs int     `env:"REMOTE_TIMEOUT_SECS" env-default:"60"  yaml:"timeoutSecs"`
}

// Config holds the application configuration.
type Config struct {
	DataDir     string        `env:"DATA_DIR"    env-default:"./data" yaml:"dataDir"`
	ReposDir    string        `env:"REPOS_DIR"   env-default:""       yaml:"reposDir"`
	ActingUser  string        `env:"ACTING_USER" env-default:"admin"  yaml:"actingUser"`
	Parallelism int           `env:"PARALLELISM" env-default:"2"      yaml:"parallelism"`
	Store       StoreConfig   `yaml:"store"`
	Auth        AuthConfig    `yaml:"auth"`
	Remote      RemoteConfig  `yaml:"remote"`
	Hooks       hooks.Hooks   `yaml:"hooks"`
	Archive     ArchiveConfig `yaml:"archive"`
	LogLevel    string        `env:"LOG_LEVEL"   env-default:"info"   yaml:"logLevel"`
	NoLogTime   bool          `env:"NOLOGTIME"   env-default:"false"  yaml:"noLogTime"`
}

// NewConfigFromFile returns a new Config struct from the given file.
func NewConfigFromFile(filePath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(filePath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from file %s: %w", filePath, err)
	}
	return &cfg, nil
}

// NewConfigFromEnv returns a new Config struct from the environment variables.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}

// RepositoriesDir returns the directory holding the bare repositories.
func (c *Config) RepositoriesDir() string {
	if c.ReposDir != "" {
		return c.ReposDir
	}
	return filepath.Join(c.DataDir, "git")
}

// StatusDir returns the directory holding the import records.
func (c *Config) StatusDir() string {
	return filepath.Join(c.DataDir, constants.ProjectsDirName)
}

// ProjectLocksDir returns the directory holding the project locks.
func (c *Config) ProjectLocksDir() string {
	return filepath.Join(c.DataDir, constants.LocksDirName, constants.ProjectsDirName)
}

// GroupLocksDir returns the directory holding the group import locks.
func (c *Config) GroupLocksDir() string {
	return filepath.Join(c.DataDir, constants.LocksDirName, constants.GroupLocksDirName)
}

// AuditPath returns the audit trail file.
func (c *Config) AuditPath() string {
	return filepath.Join(c.DataDir, constants.AuditFileName)
}

// StoreDSN returns the DSN of the sqlite store.
func (c *Config) StoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return filepath.Join(c.DataDir, "review.db")
}

// IsS3ConfigValid returns true if the S3 config is valid.
func (c *Config) IsS3ConfigValid() bool {
	return len(c.Archive.S3.BucketName) > 0 && len(c.Archive.S3.Region) > 0
}

// IsLocalConfigValid returns true if the local config is valid.
func (c *Config) IsLocalConfigValid() bool {
	return len(c.Archive.LocalPath) > 0
}

// Validate checks the configuration. Archive storage is optional: without it, completed
// imports are not archived.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("dataDir is required"))
	}
	if c.ActingUser == "" {
		errs = append(errs, errors.New("actingUser is required"))
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverMemory, c.Store.Driver))
	}
	authType, err := identity.ParseAuthType(c.Auth.Type)
	if err != nil {
		errs = append(errs, err)
	} else if authType.IsDirectory() && c.Auth.DirectoryFile == "" {
		errs = append(errs, fmt.Errorf("auth.directoryFile is required with auth type %s", authType))
	}
	if c.Parallelism < 1 || c.Parallelism > constants.MaxParallelism {
		errs = append(errs, fmt.Errorf("parallelism must be between 1 and %d, got %d", constants.MaxParallelism, c.Parallelism))
	}
	errs = append(errs, c.Remote.validate()...)
	if b := c.Archive.S3.BucketName; b != "" &&
		(len(b) < constants.S3BucketNameMinLength || len(b) > constants.S3BucketNameMaxLength) {
		errs = append(errs, fmt.Errorf("archive.s3.bucketName must be %d to %d characters", constants.S3BucketNameMinLength, constants.S3BucketNameMaxLength))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (r *RemoteConfig) validate() []error {
	var errs []error
	if r.QPS <= 0 {
		errs = append(errs, fmt.Errorf("remote.qps must be positive, got %v", r.QPS))
	}
	if r.Burst < 1 {
		errs = append(errs, fmt.Errorf("remote.burst must be at least 1, got %d", r.Burst))
	}
	if r.PageSize < 1 || r.PageSize > constants.MaxChangesPageSize {
		errs = append(errs, fmt.Errorf("remote.pageSize must be between 1 and %d, got %d", constants.MaxChangesPageSize, r.PageSize))
	}
	if r.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("remote.maxRetries must not be negative, got %d", r.MaxRetries))
	}
	if r.TimeoutSecs < 1 {
		errs = append(errs, fmt.Errorf("remote.timeoutSecs must be at least 1, got %d", r.TimeoutSecs))
	}
	return errs
}

func (c *Config) String() string {
	cyaml, err := yaml.Marshal(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return string(cyaml)
}

// Redacted returns a YAML representation of the config with sensitive fields redacted.
func (c *Config) Redacted() string {
	redacted := *c
	if redacted.Archive.S3.AccessKey != "" {
		redacted.Archive.S3.AccessKey = constants.RedactedValue
	}
	if redacted.Archive.S3.SecretKey != "" {
		redacted.Archive.S3.SecretKey = constants.RedactedValue
	}
	if strings.Contains(redacted.Store.DSN, "@") {
		redacted.Store.DSN = constants.RedactedValue
	}
	cyaml, err := yaml.Marshal(redacted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return string(cyaml)
}

// Usage prints the usage of the config.
func (c *Config) Usage() {
	f := cleanenv.Usage(c, nil)
	f()
}
