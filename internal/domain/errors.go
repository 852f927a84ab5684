package domain

import (
	"fmt"
)

// ValidationError reports an unusable caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "missing required request field: " + e.Field
}

// NotFoundError reports that an upstream does not know the requested resource.
type NotFoundError struct {
	Detail any
}

func (e *NotFoundError) Error() string {
	if s, ok := e.Detail.(string); ok && s != "" {
		return s
	}
	if e.Detail == nil {
		return "not found"
	}
	return fmt.Sprint(e.Detail)
}

// UpstreamErrorKind distinguishes contract violations from unavailability.
type UpstreamErrorKind int

const (
	// UpstreamContract means the upstream answered successfully with an unusable payload.
	UpstreamContract UpstreamErrorKind = iota
	// UpstreamUnavailable means the upstream answered with a non-success status.
	UpstreamUnavailable
)

// UpstreamError reports a failed required upstream dependency.
type UpstreamError struct {
	Kind     UpstreamErrorKind
	Upstream string
	Status   int
	Payload  map[string]any
}

func (e *UpstreamError) Error() string {
	if e.Kind == UpstreamContract {
		return fmt.Sprintf("%s payload missing snapshot section", e.Upstream)
	}
	return fmt.Sprintf("%s upstream failure: %v", e.Upstream, e.Payload)
}
