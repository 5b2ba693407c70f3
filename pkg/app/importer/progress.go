package importer

import (
	"fmt"
	"log/slog"
)

// ProgressReporter provides user-visible progress reporting for import runs.
type ProgressReporter interface {
	// StartPhase signals the beginning of a phase.
	StartPhase(project string, phase Phase)

	// UpdatePhase provides mid-phase progress. total is 0 when unknown.
	UpdatePhase(project string, phase Phase, current, total int)

	// CompletePhase signals successful phase completion.
	CompletePhase(project string, phase Phase)

	// FailPhase signals phase failure.
	FailPhase(project string, phase Phase, err error)

	// SkipPhase signals that a phase was skipped.
	SkipPhase(project string, phase Phase, reason string)
}

// ConsoleProgressReporter implements ProgressReporter with console output.
type ConsoleProgressReporter struct {
	logger *slog.Logger
}

// NewConsoleProgressReporter creates a new console progress reporter.
func NewConsoleProgressReporter(logger *slog.Logger) *ConsoleProgressReporter {
	return &ConsoleProgressReporter{
		logger: logger,
	}
}

// StartPhase logs the start of a phase.
func (r *ConsoleProgressReporter) StartPhase(project string, phase Phase) {
	r.logger.Info(fmt.Sprintf("[IMPORT] %s...", getPhaseStartMessage(phase)), "project", project)
}

// UpdatePhase logs mid-phase progress.
func (r *ConsoleProgressReporter) UpdatePhase(project string, phase Phase, current, total int) {
	message := getPhaseStartMessage(phase)
	if total > 0 {
		r.logger.Info(fmt.Sprintf("[IMPORT] %s... (%d/%d)", message, current, total), "project", project)
		return
	}
	r.logger.Info(fmt.Sprintf("[IMPORT] %s... (%d)", message, current), "project", project)
}

// CompletePhase logs successful phase completion.
func (r *ConsoleProgressReporter) CompletePhase(project string, phase Phase) {
	r.logger.Info(fmt.Sprintf("[IMPORT] %s ✓", getPhaseStartMessage(phase)), "project", project)
}

// FailPhase logs phase failure.
func (r *ConsoleProgressReporter) FailPhase(project string, phase Phase, err error) {
	r.logger.Error(fmt.Sprintf("[IMPORT] %s ✗ %v", getPhaseStartMessage(phase), err), "project", project)
}

// SkipPhase logs that a phase was skipped.
func (r *ConsoleProgressReporter) SkipPhase(project string, phase Phase, reason string) {
	r.logger.Info(fmt.Sprintf("[IMPORT] %s (skipped: %s)", getPhaseStartMessage(phase), reason), "project", project)
}

// getPhaseStartMessage returns a human-readable message for each phase.
func getPhaseStartMessage(phase Phase) string {
	switch phase {
	case PhaseLock:
		return "Acquiring lock"
	case PhaseRepository:
		return "Fetching repository"
	case PhaseMetadata:
		return "Configuring project"
	case PhaseReplay:
		return "Replaying changes"
	case PhaseHooks:
		return "Running hooks"
	case PhaseGroups:
		return "Importing groups"
	case PhaseArchive:
		return "Archiving import record"
	case PhaseComplete:
		return "Import complete"
	default:
		return string(phase)
	}
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

// NewNoOpProgressReporter creates a new no-op progress reporter.
func NewNoOpProgressReporter() *NoOpProgressReporter {
	return &NoOpProgressReporter{}
}

// StartPhase does nothing.
func (r *NoOpProgressReporter) StartPhase(_ string, _ Phase) {}

// UpdatePhase does nothing.
func (r *NoOpProgressReporter) UpdatePhase(_ string, _ Phase, _, _ int) {}

// CompletePhase does nothing.
func (r *NoOpProgressReporter) CompletePhase(_ string, _ Phase) {}

// FailPhase does nothing.
func (r *NoOpProgressReporter) FailPhase(_ string, _ Phase, _ error) {}

// SkipPhase does nothing.
func (r *NoOpProgressReporter) SkipPhase(_ string, _ Phase, _ string) {}
