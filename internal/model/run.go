package model

import "time"

// RunStatus tracks the lifecycle of a persisted extraction run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded extraction call: the source label and context it was
// invoked with, and the serialized results once complete. The raw input text
// is deliberately not stored.
type Run struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Context    string         `json:"context,omitempty"`
	Status     RunStatus      `json:"status"`
	Result     map[string]any `json:"result,omitempty"`
	Confidence float64        `json:"confidence"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
