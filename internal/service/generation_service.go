package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tinysteps/internal/metrics"
	"tinysteps/internal/models"
	"tinysteps/internal/oracle"
	"tinysteps/internal/suggestion"
)

// Generation kinds, used as metric labels
const (
	KindActivities = "activities"
	KindAdhoc      = "adhoc"
	KindStory      = "story"
)

// GenerationService sends prompts to the AI model and parses the replies.
// Each call is one attempt: failures are returned, never retried.
type GenerationService struct {
	oracle  oracle.Oracle
	timeout time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewGenerationService creates a generation service. timeout bounds each
// model call on top of the caller's context; zero means no extra bound.
func NewGenerationService(o oracle.Oracle, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *GenerationService {
	if o == nil {
		o = oracle.Unconfigured
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerationService{oracle: o, timeout: timeout, metrics: m, log: log}
}

func (s *GenerationService) complete(ctx context.Context, kind, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.oracle.Complete(ctx, prompt)
	s.metrics.OracleCall(kind, time.Since(start))
	if err != nil {
		s.metrics.Generation(kind, metrics.OutcomeOracleFailure)
		s.log.Warn("model call failed", zap.String("kind", kind), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	return raw, nil
}

// Candidates runs an activity prompt and extracts the suggestions
func (s *GenerationService) Candidates(ctx context.Context, prompt string) (suggestion.CandidateResult, error) {
	raw, err := s.complete(ctx, KindActivities, prompt)
	if err != nil {
		return suggestion.CandidateResult{}, err
	}

	result, err := suggestion.ExtractCandidates(raw)
	if err != nil {
		s.metrics.Generation(KindActivities, metrics.OutcomeParseFailure)
		s.log.Warn("unparseable activity reply", zap.Int("reply_bytes", len(raw)))
		return suggestion.CandidateResult{}, err
	}

	outcome := metrics.OutcomeOK
	if result.Kind == suggestion.NoCandidates {
		outcome = metrics.OutcomeNoCandidates
	}
	s.metrics.Generation(KindActivities, outcome)
	return result, nil
}

// Adhoc runs a caller-written prompt and returns the JSON document in the reply
func (s *GenerationService) Adhoc(ctx context.Context, prompt string, discarded []string) (json.RawMessage, error) {
	raw, err := s.complete(ctx, KindAdhoc, suggestion.BuildAdhocPrompt(prompt, discarded))
	if err != nil {
		return nil, err
	}

	doc, err := suggestion.ExtractJSON(raw)
	if err != nil {
		s.metrics.Generation(KindAdhoc, metrics.OutcomeParseFailure)
		return nil, err
	}
	s.metrics.Generation(KindAdhoc, metrics.OutcomeOK)
	return doc, nil
}

// Story writes a story. An unparseable reply still yields a story built
// from the raw text.
func (s *GenerationService) Story(ctx context.Context, req suggestion.StoryRequest) (models.Story, error) {
	raw, err := s.complete(ctx, KindStory, suggestion.BuildStoryPrompt(req))
	if err != nil {
		return models.Story{}, err
	}

	story, parsed := suggestion.ExtractStory(raw, req.StudentName)
	outcome := metrics.OutcomeOK
	if !parsed {
		outcome = metrics.OutcomeFallback
	}
	s.metrics.Generation(KindStory, outcome)

	story.Context = req.Context
	story.GeneratedAt = time.Now().UTC()
	return story, nil
}
