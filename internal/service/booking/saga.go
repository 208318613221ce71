package booking

import (
	"context"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCommitted StepStatus = "committed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

const (
	StepValidate          = "validate"
	StepDuplicateCheck    = "duplicate_check"
	StepAvailabilityCheck = "availability_check"
	StepPersist           = "persist"
	StepReserveSeats      = "reserve_seats"
	StepNotify            = "notify"
)

// StepRecord is the outcome of one saga step for a single CreateBooking call.
type StepRecord struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// sagaState carries values produced by earlier steps to later ones.
type sagaState struct {
	input   CreateBookingInput
	flight  *domain.Flight
	booking *domain.Booking
}

// sagaStep is one entry of the ordered booking sequence. A failing step
// aborts the saga unless it is degradable, in which case the failure becomes
// a warning. Steps marked onlyOnFullSuccess are skipped once any earlier
// step has degraded; disabled steps are always skipped.
type sagaStep struct {
	name              string
	run               func(ctx context.Context, st *sagaState) error
	degradable        bool
	onlyOnFullSuccess bool
	disabled          bool
}

type sagaRun struct {
	records  []StepRecord
	warnings []error
}

// execute runs steps in order. It returns the first non-degradable failure.
func execute(ctx context.Context, steps []sagaStep, st *sagaState, observe func(StepRecord)) (*sagaRun, error) {
	run := &sagaRun{records: make([]StepRecord, len(steps))}
	for i, step := range steps {
		run.records[i] = StepRecord{Name: step.name, Status: StepPending}
	}

	for i, step := range steps {
		rec := &run.records[i]
		if step.disabled || (step.onlyOnFullSuccess && len(run.warnings) > 0) {
			rec.Status = StepSkipped
			observe(*rec)
			continue
		}

		if err := step.run(ctx, st); err != nil {
			rec.Status = StepFailed
			rec.Error = err.Error()
			observe(*rec)
			if !step.degradable {
				return run, err
			}
			run.warnings = append(run.warnings, err)
			continue
		}

		rec.Status = StepCommitted
		observe(*rec)
	}
	return run, nil
}
