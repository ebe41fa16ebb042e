package platform

import (
	"fmt"
	"time"
)

// PublishError wraps any failure from one platform client. Failures are
// isolated per target; no PublishError ever cancels a sibling target.
type PublishError struct {
	Target string
	Op     string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Target, e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// RateLimitError marks a failure the remote service asked us to retry. The
// publish worker retries it with linear backoff up to a cap, after which it
// becomes a terminal failure for this run.
type RateLimitError struct {
	Target string
	Detail string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Target, e.Detail)
}

// TimeoutError marks a polling loop that exhausted its wall-clock budget.
// Terminal for this run, retried on the next.
type TimeoutError struct {
	Target  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s waiting for publish to complete", e.Target, e.Elapsed.Round(time.Second))
}

// ReachabilityError marks a target whose precheck failed; the network call
// was never attempted.
type ReachabilityError struct {
	Service string
	Err     error
}

func (e *ReachabilityError) Error() string {
	return fmt.Sprintf("%s is not reachable: %v", e.Service, e.Err)
}

func (e *ReachabilityError) Unwrap() error {
	return e.Err
}
