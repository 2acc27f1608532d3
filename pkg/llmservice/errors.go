package llmservice

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by Ask when no API key is set. The message
	// tells the player how to fix it.
	ErrNotConfigured = errors.New("no API key set, use /setapikey <key> to set one")

	// ErrInvalidArgument is matched by every setter validation failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstream matches any *UpstreamError via errors.Is.
	ErrUpstream = errors.New("upstream failure")
)

// UpstreamError wraps a failed call to the completion API: transport,
// authentication, or malformed response.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("failed to get response from OpenAI: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// invalid marks a validation error as ErrInvalidArgument while printing only
// the underlying reason.
type invalid struct {
	err error
}

func (e invalid) Error() string { return e.err.Error() }

func (e invalid) Unwrap() []error { return []error{ErrInvalidArgument, e.err} }

func invalidArgument(err error) error {
	if err == nil {
		return nil
	}
	return invalid{err: err}
}
