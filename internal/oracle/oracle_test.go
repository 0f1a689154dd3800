package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysteps/internal/config"
)

func TestFunc(t *testing.T) {
	var got string
	o := Func(func(_ context.Context, prompt string) (string, error) {
		got = prompt
		return "reply", nil
	})

	out, err := o.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "reply", out)
	assert.Equal(t, "hello", got)
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenAIConfigConfigured(t *testing.T) {
	assert.False(t, GenAIConfig{}.Configured())
	assert.True(t, GenAIConfig{APIKey: "k"}.Configured())
	assert.True(t, GenAIConfig{Project: "p"}.Configured())
}

func TestGenerationConfig(t *testing.T) {
	cfg := generationConfig()
	assert.EqualValues(t, 8192, cfg.MaxOutputTokens)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(1), *cfg.Temperature)
	assert.Len(t, cfg.SafetySettings, 4)
}

func TestBreakerPassesThrough(t *testing.T) {
	b := NewBreaker(Func(func(context.Context, string) (string, error) {
		return "ok", nil
	}), config.NewCircuitBreaker("test-pass", time.Minute, nil))

	out, err := b.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	boom := errors.New("upstream 503")
	b := NewBreaker(Func(func(context.Context, string) (string, error) {
		calls++
		return "", boom
	}), config.NewCircuitBreaker("test-open", time.Minute, nil))

	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), "p")
		require.ErrorIs(t, err, boom)
	}

	_, err := b.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, calls, "open breaker must not call the model")
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	calls := 0
	b := NewBreaker(Func(func(ctx context.Context, _ string) (string, error) {
		calls++
		return "", ctx.Err()
	}), config.NewCircuitBreaker("test-cancel", time.Minute, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := b.Complete(ctx, "p")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 5, calls)
}
