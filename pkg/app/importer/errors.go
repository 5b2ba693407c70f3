package importer

import (
	"errors"
	"fmt"

	"github.com/sgaunet/review-importer/pkg/groups"
	"github.com/sgaunet/review-importer/pkg/lock"
)

var (
	// ErrConflict is returned when the project or group is being imported by another run, or
	// when the group to import already exists.
	ErrConflict = errors.New("conflict")
	// ErrValidation is returned for requests that cannot be run as given.
	ErrValidation = errors.New("validation failed")
	// ErrPreconditionFailed is returned when a group depends on a group that may not be imported.
	ErrPreconditionFailed = errors.New("precondition failed")
)

// classify maps the errors of lower layers to the errors of the orchestrator.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, ErrValidation), errors.Is(err, ErrPreconditionFailed):
		return err
	case errors.Is(err, lock.ErrLocked), errors.Is(err, groups.ErrExists):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, groups.ErrMissingDependency):
		return fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
	case errors.Is(err, lock.ErrInvalidKey):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return err
	}
}
