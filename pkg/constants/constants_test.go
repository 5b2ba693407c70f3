package constants_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/sgaunet/review-importer/pkg/constants"
)

func TestRemoteConstantValues(t *testing.T) {
	tests := []struct {
		name     string
		constant int
		expected int
	}{
		{"DefaultRemoteQPS", constants.DefaultRemoteQPS, 10},
		{"DefaultRemoteBurst", constants.DefaultRemoteBurst, 5},
		{"DefaultChangesPageSize", constants.DefaultChangesPageSize, 100},
		{"DefaultRemoteMaxRetries", constants.DefaultRemoteMaxRetries, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("%s = %d, want %d", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

func TestPageSizeBounds(t *testing.T) {
	if constants.DefaultChangesPageSize > constants.MaxChangesPageSize {
		t.Error("DefaultChangesPageSize should not exceed MaxChangesPageSize")
	}
	if constants.DefaultParallelism > constants.MaxParallelism {
		t.Error("DefaultParallelism should not exceed MaxParallelism")
	}
}

func TestRefNamespaces(t *testing.T) {
	if !strings.HasPrefix(constants.QuarantinePrefix, constants.RefsPrefix) {
		t.Errorf("QuarantinePrefix %s must live below %s", constants.QuarantinePrefix, constants.RefsPrefix)
	}
	if constants.FetchRefSpec != "+refs/*:refs/imports/*" {
		t.Errorf("FetchRefSpec = %s", constants.FetchRefSpec)
	}
	for _, ns := range constants.ChangeNamespaces {
		if !strings.HasSuffix(ns, "/") {
			t.Errorf("change namespace %q must end with a slash", ns)
		}
	}
}

func TestFilePermissionConstants(t *testing.T) {
	if constants.PrivateFilePermission != 0o600 {
		t.Errorf("PrivateFilePermission = %o, want 0600", constants.PrivateFilePermission)
	}
	if constants.DefaultDirPermission != 0o755 {
		t.Errorf("DefaultDirPermission = %o, want 0755", constants.DefaultDirPermission)
	}
}

func TestProjectNamePattern(t *testing.T) {
	re := regexp.MustCompile(constants.ProjectNamePattern)
	for _, ok := range []string{"core", "platform/core", "a.b-c_d/e"} {
		if !re.MatchString(ok) {
			t.Errorf("%q should be a valid project name", ok)
		}
	}
	for _, bad := range []string{"", "/core", "core/", "a//b", "a b"} {
		if re.MatchString(bad) {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestRedactionConstants(t *testing.T) {
	if constants.RedactedValue != "***REDACTED***" {
		t.Errorf("RedactedValue = %s, want ***REDACTED***", constants.RedactedValue)
	}
}
