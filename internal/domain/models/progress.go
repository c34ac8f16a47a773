package models

import "time"

// TuningStatus is the lifecycle state of one instrument's tuning run.
type TuningStatus string

const (
	StatusRunning TuningStatus = "running"
	StatusDone    TuningStatus = "done"
	StatusFailed  TuningStatus = "failed"
	StatusError   TuningStatus = "error"
)

// TuningProgress is a read-only snapshot of one instrument's run, served to
// monitoring collaborators while workers keep updating the live counters.
type TuningProgress struct {
	Symbol       string       `json:"symbol"`
	TotalConfigs int          `json:"total_configs"`
	TestedConfigs int         `json:"tested_configs"`
	Status       TuningStatus `json:"status"`
	BestScore    float64      `json:"best_score"`
	StartedAt    time.Time    `json:"started_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	EndedAt      time.Time    `json:"ended_at,omitempty"`
}

// ExceptionEntry is one captured task failure. Entries are append-only and
// never mutated after creation.
type ExceptionEntry struct {
	Symbol  string       `json:"symbol"`
	Config  *ModelConfig `json:"config,omitempty"`
	Message string       `json:"message"`
	Stack   string       `json:"stack"`
	At      time.Time    `json:"at"`
}
