// Package hooks runs the commands configured around each project import.
//
// A hook is a command line. It is split on spaces, honoring single and double quotes, and
// %PROJECT% is then replaced in every argument, so a project name never changes how the
// command is split. The hook also receives the project and stage in its environment.
package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/go-andiamo/splitter"
)

// ProjectPlaceholder is replaced by the target project name in hook arguments.
const ProjectPlaceholder = "%PROJECT%"

// Environment variables set for hook commands.
const (
	EnvProject = "REVIEW_IMPORTER_PROJECT"
	EnvStage   = "REVIEW_IMPORTER_STAGE"
)

// Stage tells when a hook runs.
type Stage string

// Hook stages.
const (
	StagePreImport  Stage = "preimport"
	StagePostImport Stage = "postimport"
)

// Hooks holds the configuration for pre and post import hooks.
type Hooks struct {
	PreImport  string `env:"PREIMPORT"  env-default:"" yaml:"preimport"`
	PostImport string `env:"POSTIMPORT" env-default:"" yaml:"postimport"`
}

func (h *Hooks) command(stage Stage) string {
	if stage == StagePreImport {
		return h.PreImport
	}
	return h.PostImport
}

// Args returns the arguments the hook of stage runs with for project, or nil when the
// stage has no hook.
func (h *Hooks) Args(stage Stage, project string) ([]string, error) {
	command := strings.TrimSpace(h.command(stage))
	if command == "" {
		return nil, nil
	}
	commandSplitter, err := splitter.NewSplitter(' ', splitter.SingleQuotes, splitter.DoubleQuotes)
	if err != nil {
		return nil, fmt.Errorf("failed to create command splitter: %w", err)
	}
	parts, err := commandSplitter.Split(command, splitter.Trim("'\""))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s hook %q: %w", stage, command, err)
	}
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		args = append(args, strings.ReplaceAll(p, ProjectPlaceholder, project))
	}
	return args, nil
}

// HasPreImport returns true if a pre import command is defined.
func (h *Hooks) HasPreImport() bool {
	return strings.TrimSpace(h.PreImport) != ""
}

// HasPostImport returns true if a post import command is defined.
func (h *Hooks) HasPostImport() bool {
	return strings.TrimSpace(h.PostImport) != ""
}

// ExecutePreImport runs the pre import hook. A failure aborts the import.
func (h *Hooks) ExecutePreImport(ctx context.Context, project string) error {
	return h.run(ctx, StagePreImport, project)
}

// ExecutePostImport runs the post import hook.
func (h *Hooks) ExecutePostImport(ctx context.Context, project string) error {
	return h.run(ctx, StagePostImport, project)
}

func (h *Hooks) run(ctx context.Context, stage Stage, project string) error {
	args, err := h.Args(stage, project)
	if err != nil || len(args) == 0 {
		return err
	}
	//nolint:gosec // G204: hooks are operator-configured commands
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), EnvProject+"="+project, EnvStage+"="+string(stage))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s hook %s failed: %w: %s", stage, args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
