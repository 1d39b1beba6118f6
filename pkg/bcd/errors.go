package bcd

import (
	"errors"
	"fmt"
)

var (
	// Gateway errors 🚪
	ErrToolUnavailable = errors.New("❌ boot tool could not be started")
	ErrToolRejected    = errors.New("❌ boot tool rejected the command")

	// Validation errors 🛑
	ErrNegativeTimeout  = errors.New("❌ timeout must be a non-negative number of seconds")
	ErrEmptyDescription = errors.New("❌ entry description must not be empty")
	ErrEntryNotInOrder  = errors.New("❌ entry is not part of the display order")
	ErrNoIdentifier     = errors.New("❌ tool output contained no new entry identifier")
)

// RejectionError reports a run of the external tool that completed with a
// non-zero exit code. The process was spawned fine; the tool said no.
type RejectionError struct {
	Op       string
	ExitCode int
	Stderr   string
}

func (e *RejectionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed (exit %d): %s", e.Op, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed (exit %d)", e.Op, e.ExitCode)
}

func (e *RejectionError) Unwrap() error {
	return ErrToolRejected
}
