package services

import (
	"errors"
	"fmt"
)

// MaxUpstreamBody caps the provider response body kept on an UpstreamError.
const MaxUpstreamBody = 500

// ErrEmptyFieldBatch is returned when a classification request has no fields.
var ErrEmptyFieldBatch = &RequestError{Message: "fields must contain at least one field"}

// ErrMissingCredentials means the LLM provider has no API key configured.
var ErrMissingCredentials = errors.New("llm credentials not configured")

// RequestError is a caller mistake detected before any remote call.
type RequestError struct {
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// UpstreamError is a failed or non-2xx call to the LLM provider or to a
// remote classifier.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
	Cause    error
}

func NewUpstreamError(provider string, status int, body string, cause error) *UpstreamError {
	return &UpstreamError{Provider: provider, Status: status, Body: truncateBody(body), Cause: cause}
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s call failed (status %d): %v", e.Provider, e.Status, e.Cause)
	}
	return fmt.Sprintf("%s call failed (status %d): %s", e.Provider, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

func truncateBody(body string) string {
	r := []rune(body)
	if len(r) <= MaxUpstreamBody {
		return body
	}
	return string(r[:MaxUpstreamBody])
}
