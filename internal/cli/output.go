package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (remote rejected, sync error, ...)
	ExitCommandError = 2 // Command error (invalid flags, snapshot not openable, ...)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return ExitFailure
	}
	return ExitSuccess
}

// printEvents renders the events a transition emitted, honoring --format.
func printEvents(w io.Writer, format string, events []engine.Event) error {
	if format == "json" {
		type jsonEvent struct {
			Kind    string `json:"kind"`
			OrderID string `json:"orderId,omitempty"`
			ItemID  string `json:"itemId,omitempty"`
			Reason  string `json:"reason,omitempty"`
		}
		out := make([]jsonEvent, len(events))
		for i, ev := range events {
			out[i] = jsonEvent{Kind: string(ev.Kind), OrderID: ev.OrderID, ItemID: ev.ItemID, Reason: ev.Reason}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, ev := range events {
		switch {
		case ev.Reason != "":
			fmt.Fprintf(w, "%s: %s\n", ev.Kind, ev.Reason)
		case ev.ItemID != "":
			fmt.Fprintf(w, "%s: order=%s item=%s\n", ev.Kind, ev.OrderID, ev.ItemID)
		case ev.OrderID != "":
			fmt.Fprintf(w, "%s: order=%s\n", ev.Kind, ev.OrderID)
		default:
			fmt.Fprintf(w, "%s\n", ev.Kind)
		}
	}
	return nil
}
