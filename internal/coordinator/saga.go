package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/storefront-orders/internal/coordinator/sagalog"
)

// Step represents a single unit of work in the Saga.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator runs a collection of Steps for one saga id and appends every
// transition to the saga log.
type Orchestrator struct {
	sagaID string
	steps  []Step
	log    sagalog.Repository // nil-safe
}

func NewOrchestrator(sagaID string, steps []Step, log sagalog.Repository) *Orchestrator {
	return &Orchestrator{sagaID: sagaID, steps: steps, log: log}
}

// Start runs the steps in order. When a step fails, the steps that already
// succeeded are compensated in reverse order and the step error is returned.
func (o *Orchestrator) Start(ctx context.Context, payload string) error {
	o.record(ctx, sagalog.StatusStarted, "", payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "saga step failed, compensating",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)

			errs := []string{fmt.Sprintf("%s failed: %v", step.Name(), err)}
			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", errs)
			errs = append(errs, o.rollback(ctx, done)...)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", errs)
			return err
		}
		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate saga step",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "saga log write failed", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
