// Package classify turns a compliance query into a single structured model
// call and a validated result.
//
// Every failure is a *Error carrying one of four kinds. Callers that only
// need a user-facing message can treat them alike; tests and logs use
// errors.Is against the sentinel values to tell them apart:
//
//	res, err := c.Evaluate(ctx, q)
//	switch {
//	case errors.Is(err, classify.ErrInvalidInput):
//	case errors.Is(err, classify.ErrTransportFailure):
//	}
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/dronecheck/internal/llm"
	"github.com/dshills/dronecheck/internal/logging"
	"github.com/dshills/dronecheck/internal/redact"
	"github.com/dshills/dronecheck/internal/schema"
	"github.com/dshills/dronecheck/internal/schema/validate"
)

// Kind distinguishes classifier failures.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindTransportFailure  Kind = "transport_failure"
	KindMalformedResponse Kind = "malformed_response"
	KindSchemaViolation   Kind = "schema_violation"
)

// Sentinels for errors.Is; every *Error matches the sentinel of its kind.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrTransportFailure  = &Error{Kind: KindTransportFailure}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrSchemaViolation   = &Error{Kind: KindSchemaViolation}
)

// Error is a classifier failure of a given kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of a classifier error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ClassSource resolves drone class keys. *catalog.Catalog satisfies it.
type ClassSource interface {
	Class(id string) (schema.DroneClass, bool)
}

// Outcome is a successful evaluation with its call metadata.
type Outcome struct {
	Result   schema.Result
	Class    schema.DroneClass
	Model    string
	Duration time.Duration
}

// Classifier evaluates compliance queries against a model provider.
// It holds no per-query state; identical queries always call the model again.
type Classifier struct {
	classes     ClassSource
	provider    llm.Provider
	temperature float64
	maxTokens   int
	logger      *slog.Logger
	// onPrompt, when set, receives every prompt before it is sent.
	onPrompt func(string)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTemperature sets the sampling temperature sent to the provider.
func WithTemperature(t float64) Option {
	return func(c *Classifier) { c.temperature = t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) { c.maxTokens = n }
}

// WithPromptHook registers a callback that sees each prompt, redacted.
func WithPromptHook(fn func(prompt string)) Option {
	return func(c *Classifier) { c.onPrompt = fn }
}

// New returns a Classifier. classes and provider are required.
func New(classes ClassSource, provider llm.Provider, opts ...Option) (*Classifier, error) {
	if classes == nil {
		return nil, errors.New("classify: class source is required")
	}
	if provider == nil {
		return nil, errors.New("classify: provider is required")
	}
	c := &Classifier{
		classes:  classes,
		provider: provider,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Evaluate runs one compliance check. Preconditions are checked before any
// network call; exactly one provider call is made otherwise.
func (c *Classifier) Evaluate(ctx context.Context, q schema.Query) (*schema.Result, error) {
	out, err := c.EvaluateDetailed(ctx, q)
	if err != nil {
		return nil, err
	}
	return &out.Result, nil
}

// EvaluateDetailed is Evaluate plus the resolved class and call metadata.
func (c *Classifier) EvaluateDetailed(ctx context.Context, q schema.Query) (*Outcome, error) {
	log := c.logger.With("class", q.ClassID)

	class, ok := c.classes.Class(q.ClassID)
	if !ok {
		err := newError(KindInvalidInput, fmt.Errorf("unknown drone class %q", q.ClassID))
		log.Warn("compliance check rejected", "kind", err.Kind, "error", err.Err)
		return nil, err
	}
	if err := q.Location.Validate(); err != nil {
		e := newError(KindInvalidInput, err)
		log.Warn("compliance check rejected", "kind", e.Kind, "error", err)
		return nil, e
	}

	prompt := llm.BuildCompliancePrompt(class, q.Location)
	if c.onPrompt != nil {
		c.onPrompt(redact.Redact(prompt))
	}

	req := &llm.Request{
		UserPrompt:     prompt,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseSchema: llm.ComplianceSchema,
	}

	start := time.Now()
	resp, err := c.provider.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		e := newError(KindTransportFailure, errors.New(redact.Redact(err.Error())))
		if ctx.Err() != nil {
			e.Err = fmt.Errorf("%s: %w", e.Err.Error(), ctx.Err())
		}
		log.Error("model call failed", "kind", e.Kind, "duration", elapsed, "error", e.Err)
		return nil, e
	}

	result, err := validate.Parse(resp.Content)
	if err != nil {
		kind := KindSchemaViolation
		if errors.Is(err, validate.ErrMalformed) {
			kind = KindMalformedResponse
		}
		e := newError(kind, err)
		log.Error("model response rejected", "kind", kind, "model", resp.Model, "duration", elapsed, "error", err)
		return nil, e
	}

	log.Info("compliance check complete",
		"status", result.Status,
		"model", resp.Model,
		"duration", elapsed)

	return &Outcome{
		Result:   *result,
		Class:    class,
		Model:    resp.Model,
		Duration: elapsed,
	}, nil
}
