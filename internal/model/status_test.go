package model

import "testing"

func TestCanTransition_AllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusPending},
		{"", StatusInProgress},
		{StatusPending, StatusInProgress},
		{StatusInProgress, StatusDone},
		{StatusInProgress, StatusFailed},
		{StatusFailed, StatusInProgress},
		{StatusFailed, StatusPending},
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{StatusDone, StatusInProgress},
		{StatusDone, StatusFailed},
		{StatusDone, StatusPending},
		{StatusPending, StatusDone},
		{"not_a_state", StatusPending},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestTransitionStep_BlocksIllegalTransition(t *testing.T) {
	rec := StepRecord{Status: StatusDone}
	if err := TransitionStep(&rec, StatusInProgress); err == nil {
		t.Fatalf("expected illegal transition error")
	}
	if rec.Status != StatusDone {
		t.Fatalf("record mutated on rejected transition: %q", rec.Status)
	}
}

func TestTransitionTarget_FailedIsRetryable(t *testing.T) {
	rec := TargetRecord{Status: StatusFailed}
	if err := TransitionTarget(&rec, StatusInProgress); err != nil {
		t.Fatalf("failed -> in_progress should be allowed: %v", err)
	}
}
