package hooks_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sgaunet/review-importer/pkg/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name     string
		h        hooks.Hooks
		project  string
		wantPre  []string
		wantPost []string
	}{
		{
			name:     "no placeholder",
			h:        hooks.Hooks{PreImport: "echo 'pre'", PostImport: "echo post"},
			project:  "app",
			wantPre:  []string{"echo", "pre"},
			wantPost: []string{"echo", "post"},
		},
		{
			name:     "placeholder",
			h:        hooks.Hooks{PreImport: "backup %PROJECT%", PostImport: "notify '%PROJECT% done' %PROJECT%"},
			project:  "team/app",
			wantPre:  []string{"backup", "team/app"},
			wantPost: []string{"notify", "team/app done", "team/app"},
		},
		{
			name:     "project with spaces stays one argument",
			h:        hooks.Hooks{PreImport: "backup %PROJECT%"},
			project:  "odd name",
			wantPre:  []string{"backup", "odd name"},
			wantPost: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre, err := tt.h.Args(hooks.StagePreImport, tt.project)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPre, pre)
			post, err := tt.h.Args(hooks.StagePostImport, tt.project)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPost, post)
		})
	}
}

func TestHasHooks(t *testing.T) {
	h := hooks.Hooks{PreImport: "true", PostImport: "   "}
	assert.True(t, h.HasPreImport())
	assert.False(t, h.HasPostImport())
}

func TestExecuteHooks(t *testing.T) {
	dir := t.TempDir()
	h := hooks.Hooks{
		PreImport:  "touch " + filepath.Join(dir, "%PROJECT%.pre"),
		PostImport: "sh -c 'echo $" + hooks.EnvProject + " $" + hooks.EnvStage + " > " + filepath.Join(dir, "env") + "'",
	}

	require.NoError(t, h.ExecutePreImport(t.Context(), "app"))
	assert.FileExists(t, filepath.Join(dir, "app.pre"))

	require.NoError(t, h.ExecutePostImport(t.Context(), "app"))
	data, err := os.ReadFile(filepath.Join(dir, "env"))
	require.NoError(t, err)
	assert.Equal(t, "app postimport\n", string(data))
}

func TestExecuteFailure(t *testing.T) {
	h := hooks.Hooks{PreImport: "sh -c 'echo nope; exit 3'"}
	err := h.ExecutePreImport(t.Context(), "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")

	empty := hooks.Hooks{}
	require.NoError(t, empty.ExecutePostImport(t.Context(), "app"))
}
