// Package importer sequences the import of a project: lock, repository, project metadata and
// groups, change replay, then the import record and audit trail.
package importer

import (
	"time"

	"github.com/sgaunet/review-importer/pkg/replay"
)

// Phase is a stage of an import run.
type Phase string

const (
	// PhaseLock acquires the project or group lock.
	PhaseLock Phase = "lock"
	// PhaseRepository fetches the source repository and normalizes its refs.
	PhaseRepository Phase = "repository"
	// PhaseMetadata configures the target project and replicates referenced groups.
	PhaseMetadata Phase = "metadata"
	// PhaseReplay replays the changes.
	PhaseReplay Phase = "replay"
	// PhaseHooks runs the configured hooks.
	PhaseHooks Phase = "hooks"
	// PhaseGroups imports a group on request.
	PhaseGroups Phase = "groups"
	// PhaseArchive archives a completed import.
	PhaseArchive Phase = "archive"
	// PhaseComplete indicates successful completion.
	PhaseComplete Phase = "complete"
)

// Operations recorded in the audit trail.
const (
	OpImport   = "import"
	OpResume   = "resume"
	OpCopy     = "copy"
	OpComplete = "complete"
	OpGroup    = "import-group"
)

// ImportRequest starts the import of Project from the source at From.
type ImportRequest struct {
	Project  string
	From     string
	User     string
	Password string
	// Parent overrides the parent project of the source when set.
	Parent string
	// Actor is the username of the local account running the import.
	Actor string
}

// ResumeRequest re-runs the import of Project from the source recorded for it.
type ResumeRequest struct {
	Project  string
	User     string
	Password string
	// Force allows a remote user other than the one of the original import.
	Force bool
	Actor string
}

// CopyRequest copies a project of this server under a new name.
type CopyRequest struct {
	Source string
	Target string
	Actor  string
}

// GroupRequest imports one group and, as allowed, the groups it depends on.
type GroupRequest struct {
	Name                 string
	From                 string
	User                 string
	Password             string
	ImportOwnerGroup     bool
	ImportIncludedGroups bool
	Actor                string
}

// Result represents the outcome of one run.
type Result struct {
	// Project is the target project, or the group name of a group import.
	Project string
	Success bool

	ChangesCreated    int
	ChangesUpdated    int
	ChangesUnchanged  int
	PatchSetsCreated  int
	RefsMoved         int
	RevisionsSkipped  int
	CommentsUpserted  int
	CommentsDeleted   int
	MessagesInserted  int
	ApprovalsUpserted int
	HashtagsSet       int
	RefsNormalized    int
	GroupsCreated     []string

	Duration time.Duration
	Errors   []ImportError
	Warnings []string
}

// ImportError represents an error that occurred during a run.
type ImportError struct {
	// Phase indicates which phase the error occurred in.
	Phase Phase
	// Component identifies the component that failed.
	Component string
	// Message is the error message.
	Message string
	// Fatal indicates whether the error stopped the run.
	Fatal bool
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// addChange accumulates the outcome of one replayed change.
func (r *Result) addChange(out *replay.Outcome) {
	switch {
	case out.Created:
		r.ChangesCreated++
	case out.Updated:
		r.ChangesUpdated++
	default:
		r.ChangesUnchanged++
	}
	r.PatchSetsCreated += out.PatchSetsCreated
	r.RefsMoved += out.RefsMoved
	r.RevisionsSkipped += out.RevisionsSkipped
	r.CommentsUpserted += out.CommentsUpserted
	r.CommentsDeleted += out.CommentsDeleted
	r.MessagesInserted += out.MessagesInserted
	r.ApprovalsUpserted += out.ApprovalsUpserted
	if out.HashtagsSet {
		r.HashtagsSet++
	}
}

// Counts returns the non-zero counters, keyed for the audit trail.
func (r *Result) Counts() map[string]int {
	all := map[string]int{
		"changesCreated":    r.ChangesCreated,
		"changesUpdated":    r.ChangesUpdated,
		"changesUnchanged":  r.ChangesUnchanged,
		"patchSetsCreated":  r.PatchSetsCreated,
		"refsMoved":         r.RefsMoved,
		"revisionsSkipped":  r.RevisionsSkipped,
		"commentsUpserted":  r.CommentsUpserted,
		"commentsDeleted":   r.CommentsDeleted,
		"messagesInserted":  r.MessagesInserted,
		"approvalsUpserted": r.ApprovalsUpserted,
		"hashtagsSet":       r.HashtagsSet,
		"refsNormalized":    r.RefsNormalized,
		"groupsCreated":     len(r.GroupsCreated),
	}
	out := make(map[string]int, len(all))
	for k, v := range all {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// addError adds an error to the result.
func (r *Result) addError(phase Phase, component string, message string, fatal bool) {
	r.Errors = append(r.Errors, ImportError{
		Phase:     phase,
		Component: component,
		Message:   message,
		Fatal:     fatal,
		Timestamp: time.Now(),
	})
}

// addWarning adds a warning to the result.
func (r *Result) addWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// hasFatalErrors returns true if any errors are fatal.
func (r *Result) hasFatalErrors() bool {
	for _, err := range r.Errors {
		if err.Fatal {
			return true
		}
	}
	return false
}
