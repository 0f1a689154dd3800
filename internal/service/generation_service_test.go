package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysteps/internal/metrics"
	"tinysteps/internal/oracle"
	"tinysteps/internal/suggestion"
)

func replyWith(reply string, prompts *[]string) oracle.Func {
	return func(_ context.Context, prompt string) (string, error) {
		*prompts = append(*prompts, prompt)
		return reply, nil
	}
}

func TestCandidatesKinds(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantKind  suggestion.ResultKind
		wantCount int
		wantErr   error
	}{
		{name: "object with list", reply: twoActivities, wantKind: suggestion.HasCandidates, wantCount: 2},
		{name: "bare list", reply: oneMoreActivity, wantKind: suggestion.HasCandidates, wantCount: 1},
		{name: "empty list", reply: `{"activities": []}`, wantKind: suggestion.NoCandidates},
		{name: "not json", reply: "I would suggest painting.", wantErr: suggestion.ErrParseFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompts []string
			svc := NewGenerationService(replyWith(tt.reply, &prompts), time.Second, metrics.New(), nil)

			result, err := svc.Candidates(context.Background(), "prompt")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, result.Kind)
			assert.Len(t, result.Candidates, tt.wantCount)
			assert.Equal(t, []string{"prompt"}, prompts)
		})
	}
}

func TestCompleteAppliesTimeout(t *testing.T) {
	slow := oracle.Func(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc := NewGenerationService(slow, 10*time.Millisecond, nil, nil)

	_, err := svc.Candidates(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrOracleFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompletePassesDeadlineToOracle(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"bounded", time.Minute, true},
		{"unbounded", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deadline time.Time
			var hasDeadline bool
			o := oracle.Func(func(ctx context.Context, _ string) (string, error) {
				deadline, hasDeadline = ctx.Deadline()
				return `[{"title":"Hopscotch"}]`, nil
			})
			svc := NewGenerationService(o, tt.timeout, nil, nil)

			_, err := svc.Candidates(context.Background(), "prompt")
			require.NoError(t, err)
			require.Equal(t, tt.wantDeadline, hasDeadline)
			if tt.wantDeadline {
				assert.WithinDuration(t, time.Now().Add(tt.timeout), deadline, 5*time.Second)
			}
		})
	}
}

func TestAdhoc(t *testing.T) {
	var prompts []string
	svc := NewGenerationService(replyWith("Sure!\n"+`{"activities": [{"title": "Hopscotch"}]}`, &prompts), 0, nil, nil)

	doc, err := svc.Adhoc(context.Background(), "Suggest a game for two year olds.", []string{"Tag", " "})
	require.NoError(t, err)
	assert.JSONEq(t, `{"activities": [{"title": "Hopscotch"}]}`, string(doc))
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Other than: Tag.")

	svc = NewGenerationService(replyWith("no json here", &prompts), 0, nil, nil)
	_, err = svc.Adhoc(context.Background(), "Suggest a game.", nil)
	assert.ErrorIs(t, err, suggestion.ErrParseFailure)
}

func TestStory(t *testing.T) {
	req := suggestion.StoryRequest{StudentName: "Mia", AgeMonths: 30, Context: "First day at daycare"}

	t.Run("parsed", func(t *testing.T) {
		var prompts []string
		svc := NewGenerationService(replyWith(`{"title": "Mia's Big Day", "content": "Once upon a time..."}`, &prompts), 0, nil, nil)

		story, err := svc.Story(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Mia's Big Day", story.Title)
		assert.Equal(t, "Once upon a time...", story.Content)
		assert.Equal(t, "First day at daycare", story.Context)
		assert.False(t, story.GeneratedAt.IsZero())
		assert.Contains(t, prompts[0], "First day at daycare")
	})

	t.Run("fallback", func(t *testing.T) {
		var prompts []string
		svc := NewGenerationService(replyWith("Mia walked into the room and smiled.", &prompts), 0, metrics.New(), nil)

		story, err := svc.Story(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, suggestion.FallbackStoryTitle("Mia"), story.Title)
		assert.Equal(t, "Mia walked into the room and smiled.", story.Content)
	})

	t.Run("oracle error", func(t *testing.T) {
		failing := oracle.Func(func(context.Context, string) (string, error) {
			return "", errors.New("boom")
		})
		svc := NewGenerationService(failing, 0, nil, nil)

		_, err := svc.Story(context.Background(), req)
		assert.ErrorIs(t, err, ErrOracleFailure)
	})
}
