// Package run provides the run journal domain entities and interfaces
// following Clean Architecture principles with zero external dependencies.
package run

import (
	"time"
)

// Status is the outcome of a run exchange.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record is one journaled runGraph exchange
// PRINCIPLES:
// - KISS: Simple struct with clear fields
// - SRP: Only responsible for run record data structure
type Record struct {
	ID             string      `json:"id"`
	GraphID        int         `json:"graph_id"`
	DefinitionHash string      `json:"definition_hash,omitempty"`
	Input          interface{} `json:"input"`
	Output         interface{} `json:"output,omitempty"`
	FinalOutput    interface{} `json:"final_output,omitempty"`
	Status         Status      `json:"status"`
	ErrorKind      string      `json:"error_kind,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    time.Time   `json:"completed_at"`
}

// Payload is the serialized part of a record; the remaining fields are
// stored as indexed columns.
type Payload struct {
	Input       interface{} `json:"input"`
	Output      interface{} `json:"output,omitempty"`
	FinalOutput interface{} `json:"final_output,omitempty"`
}

// Payload extracts the serialized part of r.
func (r *Record) Payload() Payload {
	return Payload{Input: r.Input, Output: r.Output, FinalOutput: r.FinalOutput}
}

// SetPayload restores the serialized part of r.
func (r *Record) SetPayload(p Payload) {
	r.Input = p.Input
	r.Output = p.Output
	r.FinalOutput = p.FinalOutput
}

// Duration is the wall time of the exchange.
func (r *Record) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Validate ensures record integrity
// PRINCIPLES:
// - SRP: Single responsibility - validation only
// - KISS: Simple validation rules, easy to understand
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrInvalidRecordID
	}
	if r.GraphID <= 0 {
		return ErrInvalidGraphID
	}
	switch r.Status {
	case StatusSuccess:
	case StatusError:
		if r.ErrorMessage == "" {
			return ErrMissingErrorMessage
		}
	default:
		return ErrInvalidStatus
	}
	if r.StartedAt.IsZero() || r.CompletedAt.Before(r.StartedAt) {
		return ErrInvalidTimeRange
	}
	return nil
}
