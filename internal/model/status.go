package model

import "fmt"

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// done is terminal: a done step or target is skipped on every later run.
// failed is retryable: the next invocation re-attempts it.
var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusPending:    true,
		StatusInProgress: true,
	},
	StatusPending: {
		StatusPending:    true,
		StatusInProgress: true,
		StatusFailed:     true,
	},
	StatusInProgress: {
		StatusInProgress: true,
		StatusDone:       true,
		StatusFailed:     true,
	},
	StatusFailed: {
		StatusFailed:     true,
		StatusInProgress: true,
		StatusPending:    true,
	},
	StatusDone: {
		StatusDone: true,
	},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TransitionStep moves a step record to toStatus, rejecting illegal moves.
func TransitionStep(rec *StepRecord, toStatus string) error {
	if !CanTransition(rec.Status, toStatus) {
		return fmt.Errorf("invalid step status transition: %q -> %q", rec.Status, toStatus)
	}
	rec.Status = toStatus
	return nil
}

// TransitionTarget moves a publish-target record to toStatus, rejecting
// illegal moves.
func TransitionTarget(rec *TargetRecord, toStatus string) error {
	if !CanTransition(rec.Status, toStatus) {
		return fmt.Errorf("invalid target status transition: %q -> %q", rec.Status, toStatus)
	}
	rec.Status = toStatus
	return nil
}
