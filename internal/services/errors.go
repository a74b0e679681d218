package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Process exit codes reported by the CLI. Values other than ExitFailure are
// stable so scripts can branch on them.
const (
	ExitOK                  = 0
	ExitFailure             = 1
	ExitInvalidFileFormat   = 100
	ExitNoFFmpeg            = 101
	ExitMissingHFToken      = 102
	ExitNoCLIConfigFile     = 108
	ExitNoApertiumServer    = 109
	ExitNoTTSAPIServer      = 110
	ExitUnsupportedLanguage = 111
)

// Wrap tags err with marker (ErrTransient when nil) and prefixes it with
// "stage: operation: message", skipping blank parts. err may be nil.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinNonBlank(": ", stage, operation, message)
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

// WithExitCode attaches a process exit code to err. A nil err stays nil.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// ExitCode returns the exit code a command should terminate with for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return ExitFailure
}

// FailureHint suggests the next step for an operator after err ends a
// stage. Input and configuration problems are fixed by the user; tool and
// network failures are usually worth a retry.
func FailureHint(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return "check the input file and flags, then rerun"
	case errors.Is(err, ErrConfiguration):
		return "fix the configuration (redub config validate) and rerun"
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrTransient):
		return "rerun with --update to resume from the saved manifest"
	default:
		return "inspect the tool output above; rerun with --log-level debug for details"
	}
}

func joinNonBlank(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
