package config_test

import (
	"testing"

	"github.com/sgaunet/review-importer/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("normal case", func(t *testing.T) {
		cfg, err := config.NewConfigFromFile("testdata/good-cfg.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		require.Equal(t, "/var/lib/review-importer", cfg.DataDir)
		require.Equal(t, "/srv/git", cfg.RepositoriesDir())
		require.Equal(t, "importer", cfg.ActingUser)
		require.Equal(t, 4, cfg.Parallelism)
		require.Equal(t, config.DriverSQLite, cfg.Store.Driver)
		require.Equal(t, "LDAP", cfg.Auth.Type)
		require.InDelta(t, 5.0, cfg.Remote.QPS, 0.001)
		require.Equal(t, 50, cfg.Remote.PageSize)
		require.Equal(t, "echo preimport %PROJECT%", cfg.Hooks.PreImport)
		require.Equal(t, "/backup/imports", cfg.Archive.LocalPath)
		require.Equal(t, "mybucket", cfg.Archive.S3.BucketName)
		require.Equal(t, "myregion", cfg.Archive.S3.Region)
		require.True(t, cfg.NoLogTime)
		require.NoError(t, cfg.Validate())
	})
	t.Run("file not found", func(t *testing.T) {
		_, err := config.NewConfigFromFile("testdata/unknown.yaml")
		require.Error(t, err)
	})
	t.Run("invalid yaml", func(t *testing.T) {
		_, err := config.NewConfigFromFile("testdata/invalid-cfg.yaml")
		require.Error(t, err)
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "./data", cfg.DataDir)
		assert.Equal(t, "data/git", cfg.RepositoriesDir())
		assert.Equal(t, "data/review.db", cfg.StoreDSN())
		assert.Equal(t, "data/locks/projects", cfg.ProjectLocksDir())
		assert.Equal(t, "data/locks/groups", cfg.GroupLocksDir())
		assert.Equal(t, "data/audit.jsonl", cfg.AuditPath())
		assert.Equal(t, "data/projects", cfg.StatusDir())
		assert.Equal(t, 100, cfg.Remote.PageSize)
		assert.Equal(t, 2, cfg.Parallelism)
		require.NoError(t, cfg.Validate())
	})

	t.Run("valid environment variables", func(t *testing.T) {
		t.Setenv("DATA_DIR", "/data")
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("AUTH_TYPE", "HTTP")
		t.Setenv("PARALLELISM", "8")
		t.Setenv("REMOTE_QPS", "2.5")
		t.Setenv("PREIMPORT", "echo pre")
		t.Setenv("S3BUCKETNAME", "mybucket")
		t.Setenv("S3REGION", "myregion")
		t.Setenv("AWS_ACCESS_KEY_ID", "myaccesskey")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "mysecretkey")
		t.Setenv("NOLOGTIME", "true")

		cfg, err := config.NewConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "/data", cfg.DataDir)
		assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
		assert.Equal(t, 8, cfg.Parallelism)
		assert.InDelta(t, 2.5, cfg.Remote.QPS, 0.001)
		assert.Equal(t, "echo pre", cfg.Hooks.PreImport)
		assert.Equal(t, "myaccesskey", cfg.Archive.S3.AccessKey)
		assert.True(t, cfg.IsS3ConfigValid())
		assert.False(t, cfg.IsLocalConfigValid())
		assert.True(t, cfg.NoLogTime)
		require.NoError(t, cfg.Validate())
	})
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg, err := config.NewConfigFromEnv()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantMsg string
	}{
		{name: "unknown driver", mutate: func(c *config.Config) { c.Store.Driver = "mysql" }, wantMsg: "store.driver"},
		{name: "unknown auth type", mutate: func(c *config.Config) { c.Auth.Type = "KERBEROS" }, wantMsg: "unknown auth type"},
		{name: "directory without file", mutate: func(c *config.Config) { c.Auth.Type = "LDAP" }, wantMsg: "auth.directoryFile"},
		{name: "parallelism", mutate: func(c *config.Config) { c.Parallelism = 0 }, wantMsg: "parallelism"},
		{name: "page size", mutate: func(c *config.Config) { c.Remote.PageSize = 10000 }, wantMsg: "remote.pageSize"},
		{name: "qps", mutate: func(c *config.Config) { c.Remote.QPS = 0 }, wantMsg: "remote.qps"},
		{name: "bucket name", mutate: func(c *config.Config) { c.Archive.S3.BucketName = "ab" }, wantMsg: "bucketName"},
		{name: "acting user", mutate: func(c *config.Config) { c.ActingUser = "" }, wantMsg: "actingUser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg, err := config.NewConfigFromFile("testdata/good-cfg.yaml")
	require.NoError(t, err)
	cfg.Archive.S3.AccessKey = "AKIA-secret"
	cfg.Archive.S3.SecretKey = "very-secret"

	out := cfg.Redacted()
	assert.NotContains(t, out, "AKIA-secret")
	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, "***REDACTED***")
	assert.Contains(t, cfg.String(), "very-secret", "String is not redacted")
	assert.Equal(t, "AKIA-secret", cfg.Archive.S3.AccessKey, "Redacted does not modify the config")
}
