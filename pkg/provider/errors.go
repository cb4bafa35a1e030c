package provider

import (
	"fmt"
	"strings"
)

// UnavailableError reports that a provider cannot be used right now, with
// a human-readable reason and a setup hint when one applies.
type UnavailableError struct {
	Provider string
	Reason   string
	Hint     string
}

func (e *UnavailableError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("provider %s unavailable: %s (%s)", e.Provider, e.Reason, e.Hint)
	}
	return fmt.Sprintf("provider %s unavailable: %s", e.Provider, e.Reason)
}

// TimeoutError reports that an invocation exceeded its deadline. Timeouts
// are kept distinct from ExecutionError so callers can suggest raising the
// limit instead of blaming the provider.
type TimeoutError struct {
	Provider string
	Limit    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %s timed out after %s", e.Provider, e.Limit)
}

// ExecutionError reports that a provider ran but failed. Detail carries
// redacted, size-bounded diagnostics (stderr tail or API error message),
// never raw secrets.
type ExecutionError struct {
	Provider string
	ExitCode int
	Detail   string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("provider %s failed", e.Provider)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// NoAvailableError reports that automatic selection exhausted every
// candidate. Attempts records each candidate's availability failure so the
// user sees exactly what to fix.
type NoAvailableError struct {
	Attempts map[string]error
}

func (e *NoAvailableError) Error() string {
	var sb strings.Builder
	sb.WriteString("no analysis provider is available")
	for _, meta := range Catalog() {
		if attemptErr, ok := e.Attempts[meta.ID]; ok {
			sb.WriteString("\n  " + meta.ID + ": " + attemptErr.Error())
		}
	}
	return sb.String()
}
