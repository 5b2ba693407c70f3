package importer

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func TestConsoleProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewConsoleProgressReporter(newBufferLogger(&buf))

	reporter.StartPhase("demo", PhaseRepository)
	reporter.CompletePhase("demo", PhaseRepository)
	reporter.UpdatePhase("demo", PhaseReplay, 25, 0)
	reporter.UpdatePhase("demo", PhaseReplay, 5, 10)
	reporter.FailPhase("demo", PhaseReplay, errors.New("boom"))
	reporter.SkipPhase("demo", PhaseArchive, "no archive storage configured")

	out := buf.String()
	assert.Contains(t, out, "[IMPORT] Fetching repository...")
	assert.Contains(t, out, "[IMPORT] Fetching repository ✓")
	assert.Contains(t, out, "Replaying changes... (25)")
	assert.Contains(t, out, "Replaying changes... (5/10)")
	assert.Contains(t, out, "✗ boom")
	assert.Contains(t, out, "skipped: no archive storage configured")
	assert.Contains(t, out, "project=demo")
}

func TestNoOpProgressReporter(t *testing.T) {
	reporter := NewNoOpProgressReporter()
	assert.NotPanics(t, func() {
		reporter.StartPhase("demo", PhaseLock)
		reporter.UpdatePhase("demo", PhaseReplay, 1, 2)
		reporter.CompletePhase("demo", PhaseLock)
		reporter.FailPhase("demo", PhaseLock, errors.New("x"))
		reporter.SkipPhase("demo", PhaseHooks, "none")
	})
}

func TestGetPhaseStartMessage(t *testing.T) {
	phases := []Phase{PhaseLock, PhaseRepository, PhaseMetadata, PhaseReplay, PhaseHooks, PhaseGroups, PhaseArchive, PhaseComplete}
	for _, p := range phases {
		assert.NotEqual(t, string(p), getPhaseStartMessage(p), "phase %s has a message", p)
	}
	assert.Equal(t, "custom", getPhaseStartMessage(Phase("custom")))
}

func TestResult(t *testing.T) {
	t.Run("errors", func(t *testing.T) {
		result := &Result{}
		result.addError(PhaseRepository, "Fetch", "network down", false)
		assert.False(t, result.hasFatalErrors())
		result.addError(PhaseReplay, "Change I1", "identity mismatch", true)
		assert.True(t, result.hasFatalErrors())
		assert.Len(t, result.Errors, 2)
		assert.False(t, result.Errors[1].Timestamp.IsZero())
	})

	t.Run("warnings", func(t *testing.T) {
		result := &Result{}
		result.addWarning("post-import hook failed")
		assert.Equal(t, []string{"post-import hook failed"}, result.Warnings)
	})
}

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"demo", true},
		{"team/app", true},
		{"team/sub.group/app-1", true},
		{"", false},
		{"../etc", false},
		{"team/../app", false},
		{"/abs", false},
		{"with space", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProjectName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestSourceHelpers(t *testing.T) {
	assert.Equal(t, "demo", sourceProject("local:demo", "copy"))
	assert.Equal(t, "copy", sourceProject("https://review.example.com", "copy"))
	assert.Equal(t, "https://gitlab.example.com", provenanceURL("gitlab+https://gitlab.example.com"))
	assert.Equal(t, "team-app-20240301-100000.tar.gz", archiveName("team/app", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}
