package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyder110/GraphFlow/pkg/validation"
)

// Kind classifies a failed exchange with the graph service.
type Kind string

const (
	// KindNetwork is a transport failure: no response was received.
	KindNetwork Kind = "network"
	// KindService is a non-2xx response without a more specific meaning.
	KindService Kind = "service"
	// KindValidation is a 422 response carrying field-level messages.
	KindValidation Kind = "validation"
	// KindNotFound is a 404 response.
	KindNotFound Kind = "not_found"
	// KindExecution is an engine-side failure of a run.
	KindExecution Kind = "execution"
)

// Error implements error so a Kind can be the target of errors.Is.
func (k Kind) Error() string { return string(k) + " error" }

// Sentinels for errors.Is.
var (
	ErrNetwork    error = KindNetwork
	ErrService    error = KindService
	ErrValidation error = KindValidation
	ErrNotFound   error = KindNotFound
	ErrExecution  error = KindExecution
)

// Error is the single failure type returned by Client operations.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Op names the client operation, e.g. "create_graph".
	Op string
	// StatusCode is the HTTP status, zero for network failures.
	StatusCode int
	// Message is the service-provided description, verbatim when present.
	Message string
	// Fields holds the field-level problems of a 422 response.
	Fields validation.ValidationErrors
	// Err is the underlying transport or decoding error, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graphflow: %s", e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "; %s: %s", f.Field, f.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a client error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the text to display for err. Execution failures are
// surfaced verbatim; other kinds get a fixed, readable explanation.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindNetwork:
		return "Unable to reach the graph service. Check your connection and try again."
	case KindNotFound:
		return "Graph not found."
	case KindValidation:
		if msgs := e.Fields.Messages(); len(msgs) > 0 {
			return "The graph was rejected: " + strings.Join(msgs, "; ")
		}
		if e.Message != "" {
			return "The graph was rejected: " + e.Message
		}
		return "The graph was rejected by the service."
	case KindExecution:
		if e.Message != "" {
			return e.Message
		}
		return "The graph failed to run."
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("The graph service returned an error (HTTP %d). Please try again.", e.StatusCode)
		}
		return "The graph service returned an unexpected response. Please try again."
	}
}
