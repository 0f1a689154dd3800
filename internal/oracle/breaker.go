package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
)

// Breaker guards an Oracle with a circuit breaker so a failing model stops
// receiving traffic for a while.
type Breaker struct {
	next Oracle
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with cb
func NewBreaker(next Oracle, cb *gobreaker.CircuitBreaker) *Breaker {
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}
