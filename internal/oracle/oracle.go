// Package oracle talks to the generative text model. Callers see a single
// prompt-in, text-out call; streaming and reassembly happen inside.
package oracle

import (
	"context"
	"errors"
)

// ErrUnavailable means no model call was attempted: the oracle is not
// configured or its circuit breaker is open.
var ErrUnavailable = errors.New("AI service unavailable")

// ErrEmptyResponse means the model answered with no text at all
var ErrEmptyResponse = errors.New("AI service returned an empty response")

// Oracle turns a prompt into a text completion
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Oracle
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Unconfigured is used when no model credentials are set
var Unconfigured Oracle = Func(func(context.Context, string) (string, error) {
	return "", ErrUnavailable
})
