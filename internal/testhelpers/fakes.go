package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
)

// Clock is a settable domain.Clock.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ExerciseSource returns canned exercises or an error, counting calls.
type ExerciseSource struct {
	mu        sync.Mutex
	Exercises []domain.RawExercise
	Err       error
	Calls     int
}

func (s *ExerciseSource) FetchExercises(_ context.Context, _, _ string) ([]domain.RawExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Exercises, nil
}

// FileStore keeps uploads in memory.
type FileStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewFileStore() *FileStore { return &FileStore{Objects: map[string][]byte{}} }

func (f *FileStore) Upload(_ context.Context, file []byte, filename string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Objects[filename] = file
	return fmt.Sprintf("http://files.test/stride/%s", filename), nil
}

// FailingScheduleRepo fails the status writes the session tracker performs.
type FailingScheduleRepo struct {
	domain.ScheduleRepository
	Err error
}

func (r *FailingScheduleRepo) UpdateStatus(context.Context, string, domain.ScheduleStatus) error {
	return r.Err
}

func (r *FailingScheduleRepo) MarkCompleted(context.Context, string, string, int) error {
	return r.Err
}

// FailingDailyRepo fails the session write-backs on daily workouts.
type FailingDailyRepo struct {
	domain.DailyResolutionRepository
	Err error
}

func (r *FailingDailyRepo) SetActiveSession(context.Context, string, time.Time, string) error {
	return r.Err
}

func (r *FailingDailyRepo) MarkCompleted(context.Context, string, time.Time, string) error {
	return r.Err
}
