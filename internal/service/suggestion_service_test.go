package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysteps/internal/models"
	"tinysteps/internal/oracle"
	"tinysteps/internal/suggestion"
)

const twoActivities = "Here you go:\n```json\n" + `{"activities": [
	{"title": "Bubble chase", "why_it_works": "Running after bubbles", "skills_supported": [{"name": "Gross motor", "category": "Physical Skills"}]},
	{"title": "Sock sorting", "why_it_works": "Pairs by colour", "skills_supported": ["Cognitive Skills: Matching"]}
]}` + "\n```"

const oneMoreActivity = `[{"title": "Leaf rubbing", "why_it_works": "Texture", "skills_supported": [{"name": "Observation", "category": "Sensory Processing"}]}]`

// scriptedOracle replies with its script in order and records every prompt
type scriptedOracle struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

func (o *scriptedOracle) Complete(_ context.Context, prompt string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := len(o.prompts)
	o.prompts = append(o.prompts, prompt)
	var err error
	if i < len(o.errs) {
		err = o.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(o.replies) {
		return o.replies[i], nil
	}
	return "[]", nil
}

func (o *scriptedOracle) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.prompts)
}

type suggestionFixture struct {
	svc      *SuggestionService
	oracle   *scriptedOracle
	store    *fakeActivityStore
	sessions *MemorySessionStore
}

func newSuggestionFixture(o *scriptedOracle) suggestionFixture {
	store := newFakeActivityStore()
	sessions := NewMemorySessionStore(time.Hour)
	activities := NewActivityService(store, nil, nil)
	generator := NewGenerationService(o, time.Second, nil, nil)
	return suggestionFixture{
		svc:      NewSuggestionService(sessions, generator, activities, nil),
		oracle:   o,
		store:    store,
		sessions: sessions,
	}
}

func TestGenerateRequiresRecentActivity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RecentActivity)
	}{
		{"missing name", func(r *models.RecentActivity) { r.Name = "" }},
		{"missing result", func(r *models.RecentActivity) { r.Result = "" }},
		{"missing difficulty", func(r *models.RecentActivity) { r.DifficultyLevel = "" }},
		{"missing observations", func(r *models.RecentActivity) { r.Observations = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities}})
			student := ownedStudent(1)
			tt.mutate(&student.RecentActivity)

			_, err := f.svc.Generate(context.Background(), 1, student)
			assert.ErrorIs(t, err, ErrRecentActivityIncomplete)
			assert.Zero(t, f.oracle.calls(), "model must not be called")
		})
	}
}

func TestGenerateProfileThenMore(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities, oneMoreActivity}})
	ctx := context.Background()
	student := ownedStudent(1)

	require.NoError(t, f.store.AppendActivity(ctx, &models.StoredActivity{
		StudentID: 1, Collection: models.CollectionHistory, Name: "Finger painting",
		Result: models.ResultSucceeded, DifficultyLevel: models.DifficultyEasy,
	}))

	session, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, suggestion.StateLoaded, session.State())
	require.Len(t, session.Candidates, 2)
	assert.Equal(t, []models.SkillTag{{Name: "Matching", Category: "Cognitive Skills"}}, session.Candidates[1].Skills)

	first := f.oracle.prompts[0]
	assert.Contains(t, first, `"name": "Mia"`)
	assert.Contains(t, first, "Finger painting")
	assert.Contains(t, first, "Stacking cups")

	session, err = f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)
	require.Len(t, session.Candidates, 1)
	assert.Equal(t, "Leaf rubbing", session.Candidates[0].Title)
	assert.Equal(t, []string{"Bubble chase", "Sock sorting", "Leaf rubbing"}, session.Shown)
	assert.Equal(t, 2, session.Generations)

	more := f.oracle.prompts[1]
	assert.Contains(t, more, "Do not repeat any of these: Bubble chase, Sock sorting.")
	assert.NotContains(t, more, `"name": "Mia"`)
}

func TestGenerateFailureKeepsSession(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{
		replies: []string{twoActivities, "Sorry, I can't help with that.", ""},
		errs:    []error{nil, nil, errors.New("quota exceeded")},
	})
	ctx := context.Background()
	student := ownedStudent(1)

	before, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)

	_, err = f.svc.Generate(ctx, 1, student)
	assert.ErrorIs(t, err, suggestion.ErrParseFailure)

	_, err = f.svc.Generate(ctx, 1, student)
	assert.ErrorIs(t, err, ErrOracleFailure)

	after, err := f.svc.Current(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGenerateUnconfiguredOracle(t *testing.T) {
	activities := NewActivityService(newFakeActivityStore(), nil, nil)
	svc := NewSuggestionService(NewMemorySessionStore(time.Hour), NewGenerationService(nil, 0, nil, nil), activities, nil)

	_, err := svc.Generate(context.Background(), 1, ownedStudent(1))
	assert.ErrorIs(t, err, ErrOracleFailure)
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestEmptyBatchResendsProfile(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{`{"activities": []}`, twoActivities}})
	ctx := context.Background()
	student := ownedStudent(1)

	session, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, suggestion.StateEmpty, session.State())

	_, err = f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)
	assert.Contains(t, f.oracle.prompts[1], `"name": "Mia"`)
}

func TestCursorNavigation(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities}})
	ctx := context.Background()
	student := ownedStudent(1)

	_, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)

	session, err := f.svc.Next(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Cursor)

	session, err = f.svc.Next(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Cursor, "cursor stops at the last candidate")

	session, err = f.svc.Previous(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Cursor)
}

func TestSaveAndDiscardCurrent(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities}})
	ctx := context.Background()
	student := ownedStudent(1)

	_, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)

	stored, session, err := f.svc.Save(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, "Bubble chase", stored.Title)
	assert.Equal(t, models.CollectionSaved, stored.Collection)
	require.Len(t, session.Candidates, 1)
	assert.Equal(t, "Sock sorting", session.Candidates[0].Title)

	stored, session, err = f.svc.Discard(ctx, 1, student)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionDiscarded, stored.Collection)
	assert.Equal(t, suggestion.StateEmpty, session.State())
	assert.Len(t, session.Shown, 2, "titles stay excluded after removal")

	_, _, err = f.svc.Save(ctx, 1, student)
	assert.ErrorIs(t, err, ErrNoSuggestion)
}

func TestSaveRejectedKeepsCandidate(t *testing.T) {
	reply := `[{"title": "Mystery box", "why_it_works": "Curiosity", "skills_supported": [{"name": "Guessing", "category": "Wizardry"}]}]`
	f := newSuggestionFixture(&scriptedOracle{replies: []string{reply}})
	ctx := context.Background()
	student := ownedStudent(1)

	_, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)

	_, session, err := f.svc.Save(ctx, 1, student)
	assert.ErrorIs(t, err, suggestion.ErrUnknownCategory)
	assert.Len(t, session.Candidates, 1)
	assert.Zero(t, f.store.count())

	current, err := f.svc.Current(ctx, 1, student)
	require.NoError(t, err)
	assert.Len(t, current.Candidates, 1)
}

func TestSampleStudentCanGenerateButNotSave(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities}})
	ctx := context.Background()
	sample := sampleStudent(9)

	session, err := f.svc.Generate(ctx, 1, sample)
	require.NoError(t, err)
	assert.Len(t, session.Candidates, 2)

	_, _, err = f.svc.Save(ctx, 1, sample)
	assert.ErrorIs(t, err, ErrSampleReadOnly)
	_, _, err = f.svc.Discard(ctx, 1, sample)
	assert.ErrorIs(t, err, ErrSampleReadOnly)
}

func TestSwitchingStudentStartsFresh(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities, twoActivities}})
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, 1, ownedStudent(1))
	require.NoError(t, err)

	other := ownedStudent(2)
	other.Name = "Theo"
	current, err := f.svc.Current(ctx, 1, other)
	require.NoError(t, err)
	assert.Equal(t, suggestion.StateEmpty, current.State())
	assert.Empty(t, current.Shown)

	_, err = f.svc.Generate(ctx, 1, other)
	require.NoError(t, err)
	assert.Contains(t, f.oracle.prompts[1], `"name": "Theo"`)
}

func TestSessionsArePerUser(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities}})
	ctx := context.Background()
	student := sampleStudent(9)

	_, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)

	other, err := f.svc.Current(ctx, 2, student)
	require.NoError(t, err)
	assert.Equal(t, suggestion.StateEmpty, other.State())
}

func TestReset(t *testing.T) {
	f := newSuggestionFixture(&scriptedOracle{replies: []string{twoActivities, twoActivities}})
	ctx := context.Background()
	student := ownedStudent(1)

	_, err := f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)
	require.NoError(t, f.svc.Reset(ctx, 1))

	_, err = f.svc.Generate(ctx, 1, student)
	require.NoError(t, err)
	assert.Contains(t, f.oracle.prompts[1], `"name": "Mia"`, "reset forgets shown titles")
}
