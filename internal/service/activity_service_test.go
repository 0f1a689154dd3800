package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysteps/internal/metrics"
	"tinysteps/internal/models"
	"tinysteps/internal/suggestion"
	"tinysteps/internal/validation"
)

func candidate(title string, skills ...models.SkillTag) models.ActivityCandidate {
	return models.ActivityCandidate{Title: title, WhyItWorks: "because", Skills: skills}
}

func TestDispatcherSaveAndDiscard(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, metrics.New(), nil)
	ctx := context.Background()
	student := ownedStudent(7)

	saved, err := svc.Save(ctx, student, candidate("Bubble chase",
		models.SkillTag{Name: " Gross motor ", Category: "physical"}))
	require.NoError(t, err)
	assert.Equal(t, models.CollectionSaved, saved.Collection)
	assert.Equal(t, int64(7), saved.StudentID)
	assert.Equal(t, []models.SkillTag{{Name: "Gross motor", Category: "Physical Skills"}}, saved.Skills)
	assert.False(t, saved.Date.IsZero())

	discarded, err := svc.Discard(ctx, student, candidate("Sock sorting",
		models.SkillTag{Name: "Matching", Category: "Cognitive Skills"}))
	require.NoError(t, err)
	assert.Equal(t, models.CollectionDiscarded, discarded.Collection)
	assert.Equal(t, 2, store.count())
}

func TestDispatcherRejectsWithoutStoreCall(t *testing.T) {
	tests := []struct {
		name    string
		student *models.Student
		skills  []models.SkillTag
		wantErr error
	}{
		{
			name:    "sample student",
			student: sampleStudent(1),
			skills:  []models.SkillTag{{Name: "Counting", Category: "Cognitive Skills"}},
			wantErr: ErrSampleReadOnly,
		},
		{
			name:    "no skills",
			student: ownedStudent(1),
			wantErr: suggestion.ErrNoValidSkills,
		},
		{
			name:    "only blank skills",
			student: ownedStudent(1),
			skills:  []models.SkillTag{{Name: " ", Category: "Cognitive Skills"}},
			wantErr: suggestion.ErrNoValidSkills,
		},
		{
			name:    "unknown category",
			student: ownedStudent(1),
			skills:  []models.SkillTag{{Name: "Juggling", Category: "Circus Skills"}},
			wantErr: suggestion.ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeActivityStore()
			svc := NewActivityService(store, nil, nil)

			_, saveErr := svc.Save(context.Background(), tt.student, candidate("X", tt.skills...))
			_, discardErr := svc.Discard(context.Background(), tt.student, candidate("X", tt.skills...))

			assert.ErrorIs(t, saveErr, tt.wantErr)
			assert.ErrorIs(t, discardErr, tt.wantErr)
			assert.Zero(t, store.count(), "no store call on rejection")
		})
	}
}

func TestDispatcherStoreFailure(t *testing.T) {
	store := newFakeActivityStore()
	store.appendErr = errors.New("disk full")
	svc := NewActivityService(store, nil, nil)

	_, err := svc.Save(context.Background(), ownedStudent(1),
		candidate("X", models.SkillTag{Name: "Counting", Category: "Cognitive Skills"}))
	assert.ErrorContains(t, err, "disk full")
}

func TestAddRoutesByCollection(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	skill := models.SkillTag{Name: "Rhyming", Category: "Literacy"}

	for _, c := range []models.Collection{models.CollectionSaved, models.CollectionDiscarded, models.CollectionHistory} {
		a, err := svc.Add(context.Background(), ownedStudent(1), c, candidate("Rhymes", skill))
		require.NoError(t, err)
		assert.Equal(t, c, a.Collection)
	}

	_, err := svc.Add(context.Background(), ownedStudent(1), "wishlist", candidate("Rhymes", skill))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddPastActivity(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	ctx := context.Background()

	past := &models.StoredActivity{
		Name:            "Puddle jumping",
		Result:          models.ResultSucceeded,
		DifficultyLevel: models.DifficultyEasy,
		Date:            time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.AddPastActivity(ctx, ownedStudent(3), past))
	assert.Equal(t, models.CollectionHistory, past.Collection)
	assert.Equal(t, int64(3), past.StudentID)

	var ve validation.ValidationError
	err := svc.AddPastActivity(ctx, ownedStudent(3), &models.StoredActivity{Name: "No result"})
	assert.ErrorAs(t, err, &ve)

	assert.ErrorIs(t, svc.AddPastActivity(ctx, sampleStudent(4), past), ErrSampleReadOnly)
	assert.Equal(t, 1, store.count())
}

func TestRestore(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	ctx := context.Background()
	student := ownedStudent(1)
	skill := models.SkillTag{Name: "Colours", Category: "Cognitive Skills"}

	d, err := svc.Discard(ctx, student, candidate("Colour hunt", skill))
	require.NoError(t, err)

	restored, err := svc.Restore(ctx, student, d.ID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, models.CollectionSaved, restored.Collection)

	_, err = svc.Restore(ctx, student, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	dup, err := svc.Discard(ctx, student, candidate("colour HUNT", skill))
	require.NoError(t, err)
	restored, err = svc.Restore(ctx, student, dup.ID)
	require.NoError(t, err)
	assert.Nil(t, restored, "duplicate title is only removed from discarded")

	discarded, err := svc.List(ctx, student, models.CollectionDiscarded)
	require.NoError(t, err)
	assert.Empty(t, discarded)
}

func TestRestoreChecksSkills(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	ctx := context.Background()

	legacy := &models.StoredActivity{StudentID: 1, Collection: models.CollectionDiscarded, Title: "Old"}
	require.NoError(t, store.AppendActivity(ctx, legacy))

	_, err := svc.Restore(ctx, ownedStudent(1), legacy.ID)
	assert.ErrorIs(t, err, suggestion.ErrNoValidSkills)

	_, err = svc.Restore(ctx, sampleStudent(1), legacy.ID)
	assert.ErrorIs(t, err, ErrSampleReadOnly)
}

func TestRestoreStoresCanonicalSkills(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	ctx := context.Background()

	imported := &models.StoredActivity{
		StudentID: 1, Collection: models.CollectionDiscarded, Title: "Balance beam",
		Skills: []models.SkillTag{{Name: " Balance ", Category: "physical"}},
	}
	require.NoError(t, store.AppendActivity(ctx, imported))

	restored, err := svc.Restore(ctx, ownedStudent(1), imported.ID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, []models.SkillTag{{Name: "Balance", Category: "Physical Skills"}}, restored.Skills)
}

func TestDelete(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	ctx := context.Background()

	a, err := svc.Save(ctx, ownedStudent(1), candidate("Hop", models.SkillTag{Name: "Balance", Category: "Physical"}))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, ownedStudent(1), models.CollectionDiscarded, a.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, sampleStudent(1), models.CollectionSaved, a.ID), ErrSampleReadOnly)
	assert.NoError(t, svc.Delete(ctx, ownedStudent(1), models.CollectionSaved, a.ID))
}

func TestCompare(t *testing.T) {
	store := newFakeActivityStore()
	svc := NewActivityService(store, nil, nil)
	ctx := context.Background()
	student := ownedStudent(1)

	a, err := svc.Save(ctx, student, candidate("Painting",
		models.SkillTag{Name: "Fine motor", Category: "Physical"},
		models.SkillTag{Name: "Colours", Category: "Cognitive"}))
	require.NoError(t, err)
	b, err := svc.Save(ctx, student, candidate("Clay",
		models.SkillTag{Name: "fine motor", Category: "Physical"},
		models.SkillTag{Name: "Shapes", Category: "Cognitive"}))
	require.NoError(t, err)

	cmp, err := svc.Compare(ctx, student, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fine motor"}, cmp.Skills.Both)
	assert.Equal(t, []string{"Colours"}, cmp.Skills.OnlyA)
	assert.Equal(t, []string{"Shapes"}, cmp.Skills.OnlyB)

	_, err = svc.Compare(ctx, student, a.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
