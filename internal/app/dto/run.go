package dto

import (
	"time"
)

// RunRequest asks the graph service to execute a stored graph
type RunRequest struct {
	GraphID int         `json:"graph_id"`
	Input   interface{} `json:"input"`
}

// Validate ensures the request can be sent
func (r *RunRequest) Validate() error {
	if r.GraphID <= 0 {
		return ErrMissingGraphID
	}
	if r.Input == nil {
		return ErrInvalidInput
	}
	return nil
}

// RunResponse is the service answer plus the journal entry it produced
type RunResponse struct {
	RunID       string        `json:"run_id"`
	GraphID     int           `json:"graph_id"`
	Output      interface{}   `json:"output"`
	FinalOutput interface{}   `json:"final_output,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	// Journaled is false when the run succeeded but could not be recorded.
	Journaled bool `json:"journaled"`
}
