package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tinysteps/internal/models"
	"tinysteps/internal/repository"
)

// fakeActivityStore is an in-memory ActivityStore that counts writes
type fakeActivityStore struct {
	mu         sync.Mutex
	nextID     int64
	activities []models.StoredActivity
	appends    int
	appendErr  error
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{nextID: 1}
}

func (f *fakeActivityStore) AppendActivity(_ context.Context, a *models.StoredActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if f.appendErr != nil {
		return f.appendErr
	}
	a.ID = f.nextID
	f.nextID++
	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}
	f.activities = append(f.activities, *a)
	return nil
}

func (f *fakeActivityStore) GetActivities(_ context.Context, studentID int64, collection models.Collection) ([]models.StoredActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.StoredActivity{}
	for _, a := range f.activities {
		if a.StudentID == studentID && a.Collection == collection {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityStore) GetActivity(_ context.Context, studentID int64, collection models.Collection, id int64) (*models.StoredActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.activities {
		if a.ID == id && a.StudentID == studentID && a.Collection == collection {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeActivityStore) GetRecentTitles(_ context.Context, studentID int64, collection models.Collection, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var titles []string
	for i := len(f.activities) - 1; i >= 0 && len(titles) < limit; i-- {
		a := f.activities[i]
		if a.StudentID == studentID && a.Collection == collection {
			titles = append(titles, a.DisplayTitle())
		}
	}
	return titles, nil
}

func (f *fakeActivityStore) DeleteActivity(_ context.Context, studentID int64, collection models.Collection, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(studentID, collection, id), nil
}

func (f *fakeActivityStore) remove(studentID int64, collection models.Collection, id int64) bool {
	for i, a := range f.activities {
		if a.ID == id && a.StudentID == studentID && a.Collection == collection {
			f.activities = append(f.activities[:i], f.activities[i+1:]...)
			return true
		}
	}
	return false
}

func (f *fakeActivityStore) RestoreDiscarded(_ context.Context, studentID, id int64, skills []models.SkillTag) (*models.StoredActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var discarded *models.StoredActivity
	for _, a := range f.activities {
		if a.ID == id && a.StudentID == studentID && a.Collection == models.CollectionDiscarded {
			found := a
			discarded = &found
		}
	}
	if discarded == nil {
		return nil, repository.ErrActivityNotFound
	}
	f.remove(studentID, models.CollectionDiscarded, id)

	for _, a := range f.activities {
		if a.StudentID == studentID && a.Collection == models.CollectionSaved && strings.EqualFold(a.Title, discarded.Title) {
			return nil, nil
		}
	}
	restored := *discarded
	restored.ID = f.nextID
	f.nextID++
	restored.Collection = models.CollectionSaved
	if skills != nil {
		restored.Skills = skills
	}
	f.activities = append(f.activities, restored)
	return &restored, nil
}

func (f *fakeActivityStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

// fakeRedis mirrors the go-redis commands the session store uses
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration

	GetError error
	SetError error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if m.GetError != nil {
		cmd.SetErr(m.GetError)
		return cmd
	}
	val, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (m *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewStatusCmd(ctx)
	if m.SetError != nil {
		cmd.SetErr(m.SetError)
		return cmd
	}
	m.data[key] = value.(string)
	m.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (m *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	var deleted int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			deleted++
		}
	}
	cmd.SetVal(deleted)
	return cmd
}

func ownedStudent(id int64) *models.Student {
	owner := int64(1)
	return &models.Student{
		ID:        id,
		UserID:    &owner,
		Name:      "Mia",
		AgeMonths: 30,
		Interests: []string{"blocks"},
		RecentActivity: models.RecentActivity{
			Name:            "Stacking cups",
			Result:          models.ResultSucceeded,
			DifficultyLevel: models.DifficultyEasy,
			Observations:    "Stacked five cups",
		},
	}
}

func sampleStudent(id int64) *models.Student {
	s := ownedStudent(id)
	s.UserID = nil
	s.IsSample = true
	return s
}
