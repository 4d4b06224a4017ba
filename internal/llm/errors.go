package llm

import (
	"fmt"
	"strings"
)

// ErrorKind is the closed taxonomy of LLM-provider failures from spec
// §4.3, classified by string-pattern matching the way
// internal/agent/providers/errors.go classifies vendor errors.
type ErrorKind string

const (
	KindAPI                  ErrorKind = "api"
	KindRateLimited          ErrorKind = "rate_limited"
	KindContextLengthExceeded ErrorKind = "context_length_exceeded"
	KindInvalidRequest       ErrorKind = "invalid_request"
	KindInvalidResponse      ErrorKind = "invalid_response"
	KindModelNotFound        ErrorKind = "model_not_found"
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	KindNetwork              ErrorKind = "network"
	KindTimeout              ErrorKind = "timeout"
	KindStream               ErrorKind = "stream"
	KindProviderNotAvailable ErrorKind = "provider_not_available"
	KindTool                 ErrorKind = "tool"
	KindConfig               ErrorKind = "config"
)

// IsRetryable reports whether policy may retry an error of this kind.
// RateLimited, Timeout, and Network are retryable per spec §4.3; the
// retry itself is out of this package's scope.
func (k ErrorKind) IsRetryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}

// Error is the structured error type every Provider method returns on
// failure.
type Error struct {
	Kind       ErrorKind
	Provider   string
	Message    string
	RetryAfter *int // milliseconds, populated for KindRateLimited when known
	MaxTokens  int  // populated for KindContextLengthExceeded when known
	Cause      error
}

func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("[%s]", e.Kind)}
	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *Error) Unwrap() error { return e.Cause }

// Classify inspects a raw vendor error and returns the appropriate Kind,
// by string-pattern matching in the absence of a typed vendor error.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindAPI
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "rate limit") || strings.Contains(s, "429") || strings.Contains(s, "too many requests"):
		return KindRateLimited
	case strings.Contains(s, "context length") || strings.Contains(s, "context_length") || strings.Contains(s, "maximum context"):
		return KindContextLengthExceeded
	case strings.Contains(s, "unauthorized") || strings.Contains(s, "invalid api key") || strings.Contains(s, "401") || strings.Contains(s, "authentication"):
		return KindAuthenticationFailed
	case strings.Contains(s, "model not found") || strings.Contains(s, "does not exist") || strings.Contains(s, "404"):
		return KindModelNotFound
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(s, "connection") || strings.Contains(s, "network") || strings.Contains(s, "dns") || strings.Contains(s, "refused"):
		return KindNetwork
	case strings.Contains(s, "invalid request") || strings.Contains(s, "400"):
		return KindInvalidRequest
	default:
		return KindAPI
	}
}

// NewError wraps cause into a provider Error, classifying it if Kind is
// left unset.
func NewError(provider string, cause error) *Error {
	return &Error{Provider: provider, Cause: cause, Message: causeMessage(cause), Kind: Classify(cause)}
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
