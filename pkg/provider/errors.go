package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors for provider operations.
var (
	// ErrNotFound indicates the managed record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized indicates authentication failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProviderUnavailable indicates the provider API is unreachable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrMalformedResponse indicates the provider answered with a payload that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIMessage is a single error entry reported by a provider API.
type APIMessage struct {
	Code    int
	Message string
}

func (m APIMessage) String() string {
	if m.Code == 0 {
		return m.Message
	}
	return fmt.Sprintf("%s (code: %d)", m.Message, m.Code)
}

// RemoteError describes a failed call to the provider API.
//
// It never carries request headers, so credentials cannot leak through it.
type RemoteError struct {
	Operation  string
	StatusCode int
	Messages   []APIMessage
	Err        error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	b.WriteString(": ")
	switch {
	case len(e.Messages) > 0:
		parts := make([]string, len(e.Messages))
		for i, m := range e.Messages {
			parts[i] = m.String()
		}
		b.WriteString("API error: ")
		b.WriteString(strings.Join(parts, "; "))
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("request failed")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is maps HTTP status codes onto the package sentinels.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRemote returns true if err is or wraps a *RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsNotFound returns true if the error indicates the record was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsProviderUnavailable returns true if the error indicates the provider is unreachable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
