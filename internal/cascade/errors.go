package cascade

import (
	"errors"
	"fmt"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

var (
	// ErrNotFound is returned when the root entity of a deletion doesn't exist.
	ErrNotFound = errors.New("cascade: entity not found")

	// ErrRowVanished is returned by a step whose target row was already gone
	// when the step ran, meaning the plan went stale under a concurrent writer.
	ErrRowVanished = errors.New("cascade: row vanished during deletion")

	// ErrInvalidRoot is returned for an unknown entity type or a non-positive id.
	ErrInvalidRoot = errors.New("cascade: invalid root entity")
)

// NotFoundError reports a missing root entity. No side effects were attempted.
type NotFoundError struct {
	Root models.Ref
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cascade: %s not found", e.Root)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StepError reports a mandatory step failure. The whole transaction was
// rolled back; files pruned before the transaction are not restored.
type StepError struct {
	Root models.Ref
	Step string
	// Index is the 1-based position of the step in the mandatory list, 0 when
	// the failure happened opening or committing the transaction.
	Index int
	Err   error
}

func (e *StepError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("cascade: delete %s aborted (%s): %v", e.Root, e.Step, e.Err)
	}
	return fmt.Sprintf("cascade: delete %s aborted at step %d (%s): %v", e.Root, e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// OptionalFailure records a best-effort step that failed and was skipped.
type OptionalFailure struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}
