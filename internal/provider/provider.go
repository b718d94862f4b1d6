// Package provider contains one adapter per LLM backend. Every adapter
// shapes a backend-specific payload from the same normalized prompt and
// extracts plain text plus usage from the backend-specific envelope, so the
// orchestrator never needs to know which backend served a request.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/draftforge/api/internal/model"
)

// Prompt is the normalized input every adapter accepts.
type Prompt struct {
	System string
	User   string
}

// Options carries the sampling parameters from the generation request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// normalize fills unset sampling options with defaults.
func (o Options) normalize() Options {
	if o.Temperature == 0 {
		o.Temperature = defaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}
	return o
}

// Completion is a successful adapter invocation.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
	Latency          time.Duration
}

// Error is a failed adapter invocation with a kind assigned at the source.
type Error struct {
	Kind    model.ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind model.ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind from an adapter error, defaulting to
// unknown for anything that is not a *provider.Error.
func KindOf(err error) model.ErrorKind {
	if pe, ok := err.(*Error); ok {
		return pe.Kind
	}
	return model.ErrorKindUnknown
}

// Adapter is the uniform interface to a single LLM backend.
type Adapter interface {
	// Name returns the provider identifier, e.g. "openai".
	Name() string
	// Configured reports whether credentials are present.
	Configured() bool
	// Invoke performs one completion call. Errors are always *Error.
	Invoke(ctx context.Context, prompt Prompt, opts Options) (*Completion, error)
}

// usageCost converts token usage into an estimated USD cost given
// per-million-token prices.
func usageCost(promptTokens, completionTokens int, inPerM, outPerM float64) float64 {
	return float64(promptTokens)*inPerM/1_000_000.0 +
		float64(completionTokens)*outPerM/1_000_000.0
}
