package agent

import (
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
)

// TransportError means the external agent could not be reached at all:
// DNS, connection, or timeout failures before any payload came back.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("agent transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError means the agent was reachable but answered with an
// error payload of its own.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("agent upstream failure: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// classify maps provider SDK errors onto the two failure kinds the
// session controller distinguishes. Provider API errors carry a payload
// from the service, so they are upstream; anything else never crossed
// the wire cleanly.
func classify(err error) error {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return &UpstreamError{Err: err}
	}

	var openaiAPIErr *openai.APIError
	if errors.As(err, &openaiAPIErr) {
		return &UpstreamError{Err: err}
	}

	var openaiReqErr *openai.RequestError
	if errors.As(err, &openaiReqErr) {
		return &UpstreamError{Err: err}
	}

	return &TransportError{Err: err}
}
