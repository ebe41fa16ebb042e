package model

// Sidecar is the canonical per-item status document, persisted beside the
// source video and overwritten atomically on every state transition. The
// filesystem remains authoritative for step completion; the sidecar exists
// for observability and publish-target bookkeeping.
type Sidecar struct {
	SchemaVersion int                     `json:"schema_version"`
	Source        string                  `json:"source"`
	Status        string                  `json:"status"`
	StartedAt     string                  `json:"started_at,omitempty"`
	CompletedAt   string                  `json:"completed_at,omitempty"`
	Steps         map[string]StepRecord   `json:"steps"`
	Targets       map[string]TargetRecord `json:"targets"`
}

// StepRecord captures one pipeline step's outcome for an item.
type StepRecord struct {
	Status          string  `json:"status"`
	StartedAt       string  `json:"started_at,omitempty"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Output          string  `json:"output,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// TargetRecord captures one publish target's outcome for an item.
type TargetRecord struct {
	Status      string `json:"status"`
	Attempts    int    `json:"attempts,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewSidecar returns an initialized document for a freshly touched item.
func NewSidecar(source string) Sidecar {
	return Sidecar{
		SchemaVersion: 1,
		Source:        source,
		Status:        StatusInProgress,
		Steps:         map[string]StepRecord{},
		Targets:       map[string]TargetRecord{},
	}
}
