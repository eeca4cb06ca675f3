package transcribe

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a missing or invalid executable path.
	ErrConfiguration = errors.New("configuration error")
	// ErrInput marks a missing input file or an unknown form selection.
	ErrInput = errors.New("input error")
)

// RequestError is a validation failure raised before any process is spawned.
type RequestError struct {
	Kind    error  `json:"-"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats validation failures for logs and UI alerts.
func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes both the error kind and the underlying cause.
func (e *RequestError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Process stages reported by ProcessError.
const (
	StageLaunching = "launching"
	StageRunning   = "running"
)

// ProcessError is a stage-aware child process failure.
type ProcessError struct {
	Stage    string   `json:"stage"`
	Message  string   `json:"message"`
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Err      error    `json:"-"`
}

// Error formats process failures for logs and UI.
func (e *ProcessError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stage == StageLaunching {
		return fmt.Sprintf("%s: %s (cmd=%s)", e.Stage, e.Message, e.Command)
	}
	return fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Stage, e.Message, e.Command, e.ExitCode)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ProcessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
