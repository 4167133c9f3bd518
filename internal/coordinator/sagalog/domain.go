// Package sagalog records every state transition of a checkout saga so a
// pending order can be traced from creation to its session, or to the
// compensation that removed it.
package sagalog

import "time"

// Status represents the lifecycle state of a saga execution.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// SagaLog is a single row in the saga_logs table.
type SagaLog struct {
	// SagaID is the order id the checkout saga was started for.
	SagaID      string
	Status      Status
	CurrentStep string

	// Payload is the JSON checkout request, written only on STARTED.
	Payload string

	// ErrorMessages is a JSON array of step and compensation failures.
	ErrorMessages string

	TraceID   string
	SpanID    string
	UpdatedAt time.Time
}
