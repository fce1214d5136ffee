package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tinytest/internal/config"
	"github.com/roach88/tinytest/internal/runner"
)

// Process exit codes.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // One or more tests failed
	ExitCommandError = 2 // Command error (bad flags, invalid config, database unavailable, etc.)
)

// Error codes carried in JSON error responses.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Invalid configuration or flags
	ErrCodeFilter     = "E003" // Invalid --filter pattern
	ErrCodeStore      = "E004" // Run history database error
	ErrCodeNotFound   = "E005" // Run not found
	ErrCodeStream     = "E006" // Result stream error
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// ExitError is an error that decides the process exit code.
// Commands return it from RunE; Execute turns it into the code.
type ExitError struct {
	Code    int // ExitFailure or ExitCommandError
	Message string
	Err     error // optional cause
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

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError come from cobra's flag and argument parsing, so they count as
// command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter carries the output settings of one command invocation.
// Text output is written by each command directly; JSON output always goes
// through a CLIResponse envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; stdout stays clean for JSON consumers
	Verbose   bool
}

// CLIResponse is the envelope of every JSON document the CLI prints.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command or run inside a CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // one of the ErrCode constants
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == config.FormatJSON
}

// Success writes data in an "ok" envelope.
func (f *OutputFormatter) Success(data any) error {
	return f.encode(CLIResponse{Status: "ok", Data: data})
}

// Error writes an "error" envelope.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.encode(CLIResponse{
		Status: "error",
		Error:  &CLIError{Code: code, Message: message, Details: details},
	})
}

// Fail reports a command error and returns it as an ExitCommandError.
// In JSON mode the error envelope is written to Writer; text mode leaves
// printing to Execute, which writes the error to stderr. An empty code is
// reported as ErrCodeGeneric.
func (f *OutputFormatter) Fail(code, message string, err error) error {
	if code == "" {
		code = ErrCodeGeneric
	}
	if f.JSON() {
		var details any
		if err != nil {
			details = err.Error()
		}
		_ = f.Error(code, message, details)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// VerboseLog writes a diagnostic line under --verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeOutcome prints one result line, followed by the failure message and,
// when verbose, the indented stack.
func writeOutcome(w io.Writer, o runner.Outcome, verbose bool) {
	if o.Passed() {
		fmt.Fprintf(w, "✓ %s\n", o.Name)
		return
	}

	fmt.Fprintf(w, "✗ %s\n", o.Name)
	if o.Failure == nil {
		return
	}
	fmt.Fprintf(w, "  %s\n", o.Failure.Message)
	if verbose && o.Failure.Stack != "" {
		for _, line := range strings.Split(strings.TrimRight(o.Failure.Stack, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// writeRecap lists passing and failing tests in two groups.
// Empty groups are omitted.
func writeRecap(w io.Writer, r *runner.Report, failuresFirst bool) {
	if r.Total() == 0 {
		return
	}

	passing := func() {
		if r.Passed == 0 {
			return
		}
		fmt.Fprintf(w, "Passing Tests (%d):\n", r.Passed)
		for _, o := range r.Outcomes {
			if o.Passed() {
				fmt.Fprintf(w, "  ✓ %s\n", o.Name)
			}
		}
	}
	failing := func() {
		if r.Failed == 0 {
			return
		}
		fmt.Fprintf(w, "Failing Tests (%d):\n", r.Failed)
		for _, o := range r.Failures() {
			fmt.Fprintf(w, "  ✗ %s: %s\n", o.Name, failureMessage(o))
		}
	}

	fmt.Fprintln(w)
	if failuresFirst {
		failing()
		passing()
	} else {
		passing()
		failing()
	}
}

func writeSummary(w io.Writer, r *runner.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total())
	if r.OK() {
		fmt.Fprintln(w, "✓ All tests passed")
	}
}

func failureMessage(o runner.Outcome) string {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Message
}
