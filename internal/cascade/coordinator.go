package cascade

import (
	"context"
	"errors"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// Outcome summarizes a committed plan.
type Outcome struct {
	MandatorySteps   int
	OptionalFailures []OptionalFailure
}

// Coordinator executes a plan inside one transaction.
type Coordinator struct {
	store Store
}

// NewCoordinator creates a coordinator over store
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// Execute runs every mandatory step in order, then every optional step, and
// commits. A mandatory failure rolls the whole transaction back and is
// returned as a *StepError; optional failures are absorbed.
func (c *Coordinator) Execute(ctx context.Context, opID string, plan *Plan) (*Outcome, error) {
	var outcome *Outcome

	err := c.store.WithTx(ctx, func(tx Tx) error {
		// Reset on every invocation so a failed attempt leaves nothing behind.
		out := &Outcome{}
		for i, step := range plan.Mandatory {
			if err := step.Run(ctx, tx); err != nil {
				return &StepError{Root: plan.Root, Step: step.Name, Index: i + 1, Err: err}
			}
			out.MandatorySteps++
		}
		for _, step := range plan.Optional {
			if f := runOptional(ctx, tx, opID, step); f != nil {
				out.OptionalFailures = append(out.OptionalFailures, *f)
			}
		}
		outcome = out
		return nil
	})
	if err != nil {
		var stepErr *StepError
		if !errors.As(err, &stepErr) {
			stepErr = &StepError{Root: plan.Root, Step: "transaction", Err: err}
		}
		logging.LogKV(logging.LevelError, "cascade rolled back", logging.Fields{
			"op_id": opID,
			"root":  plan.Root.String(),
			"step":  stepErr.Step,
			"index": stepErr.Index,
			"error": stepErr.Err,
		})
		return nil, stepErr
	}
	return outcome, nil
}

// runOptional runs a best-effort step inside a savepoint so its failure
// leaves the surrounding transaction usable.
func runOptional(ctx context.Context, tx Tx, opID string, step Step) *OptionalFailure {
	err := tx.Nested(ctx, func(sub Tx) error {
		return step.Run(ctx, sub)
	})
	if err == nil {
		return nil
	}
	logging.LogKV(logging.LevelWarn, "optional step failed", logging.Fields{
		"op_id": opID,
		"step":  step.Name,
		"error": err,
	})
	return &OptionalFailure{Step: step.Name, Reason: err.Error()}
}
