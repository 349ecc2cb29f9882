package domain

import "time"

// DispatchMode selects how a batch of topics is spread over the producers.
type DispatchMode string

const (
	// DispatchRoundRobin sends topic i to producer i mod producerCount.
	DispatchRoundRobin DispatchMode = "round_robin"
	// DispatchLiteral reproduces the reference rule: every topic of a batch
	// goes to producers[batchSize mod (batchSize mod producerCount + 1)].
	DispatchLiteral DispatchMode = "literal"
)

func (m DispatchMode) IsValid() bool {
	switch m {
	case DispatchRoundRobin, DispatchLiteral:
		return true
	}
	return false
}

// Sizing holds the pool sizes and queue capacity of one run.
type Sizing struct {
	Producers int `json:"producers"`
	Consumers int `json:"consumers"`
	Capacity  int `json:"capacity"`
}

func (s Sizing) Validate() error {
	if s.Producers < 1 || s.Consumers < 1 {
		return ErrInvalidSizing
	}
	if s.Capacity < 1 {
		return ErrInvalidCapacity
	}
	return nil
}

// Plan is everything a run needs to execute.
type Plan struct {
	Sizing
	BatchSize int          `json:"batch_size"`
	Mode      DispatchMode `json:"dispatch_mode"`
}

func (p Plan) Validate() error {
	if err := p.Sizing.Validate(); err != nil {
		return err
	}
	if p.BatchSize < 0 {
		return ErrInvalidBatch
	}
	if !p.Mode.IsValid() {
		return ErrInvalidDispatch
	}
	return nil
}

// Phase is the orchestrator's lifecycle state.
type Phase string

const (
	PhaseSizing     Phase = "sizing"
	PhaseQueueOpen  Phase = "queue_open"
	PhaseClosing    Phase = "closing"
	PhaseDraining   Phase = "draining"
	PhaseCancelling Phase = "cancelling"
	PhaseTerminated Phase = "terminated"
)

// Outcome is the terminal result of a run.
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Run is the recorded history of one orchestrator execution.
type Run struct {
	ID           string       `json:"id"`
	Producers    int          `json:"producers"`
	Consumers    int          `json:"consumers"`
	Capacity     int          `json:"capacity"`
	BatchSize    int          `json:"batch_size"`
	DispatchMode DispatchMode `json:"dispatch_mode"`
	Produced     int          `json:"produced"`
	Consumed     int          `json:"consumed"`
	Outcome      Outcome      `json:"outcome"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}

// RunResult is the final tally written back to a Run.
type RunResult struct {
	Produced   int
	Consumed   int
	Outcome    Outcome
	Err        error
	FinishedAt time.Time
}
