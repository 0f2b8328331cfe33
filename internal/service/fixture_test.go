package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// monday is the first day of the anchor week used across these tests.
var monday = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

type fixture struct {
	clock       *testhelpers.Clock
	catalog     *testhelpers.CatalogRepo
	profiles    *testhelpers.ProfileRepo
	plans       *testhelpers.PlanRepo
	schedule    *testhelpers.ScheduleRepo
	daily       *testhelpers.DailyRepo
	sessions    *testhelpers.SessionRepo
	challenges  *testhelpers.ChallengeRepo
	enrollments *testhelpers.EnrollmentRepo
	source      *testhelpers.ExerciseSource
	files       *testhelpers.FileStore

	catalogSvc   *CatalogService
	scheduler    *Scheduler
	planSvc      *PlanService
	resolver     *DailyResolver
	tracker      *SessionTracker
	challengeSvc *ChallengeService
	profileSvc   *ProfileService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		clock:       testhelpers.NewClock(now),
		catalog:     testhelpers.NewCatalogRepo(),
		profiles:    testhelpers.NewProfileRepo(),
		plans:       testhelpers.NewPlanRepo(),
		schedule:    testhelpers.NewScheduleRepo(),
		daily:       testhelpers.NewDailyRepo(),
		sessions:    testhelpers.NewSessionRepo(),
		challenges:  testhelpers.NewChallengeRepo(),
		enrollments: testhelpers.NewEnrollmentRepo(),
		source:      &testhelpers.ExerciseSource{},
		files:       testhelpers.NewFileStore(),
	}
	f.catalogSvc = NewCatalogService(f.catalog, f.source, f.clock, nil)
	f.scheduler = NewScheduler(f.schedule, f.daily, f.sessions, f.clock)
	f.planSvc = NewPlanService(f.profiles, f.plans, f.catalog, f.catalogSvc, f.scheduler, f.clock, nil)
	f.resolver = NewDailyResolver(f.daily, f.schedule, f.catalog, f.sessions, f.clock, nil)
	f.tracker = NewSessionTracker(f.sessions, f.catalog, f.schedule, f.daily, f.files, f.clock, nil)
	f.challengeSvc = NewChallengeService(f.challenges, f.enrollments, f.profiles, f.clock)
	f.profileSvc = NewProfileService(f.profiles, f.planSvc, f.clock)
	return f
}

// seedWalks adds n light beginner walks and returns them in insertion order.
func (f *fixture) seedWalks(t *testing.T, n int) []*domain.WorkoutCatalogItem {
	t.Helper()
	items := make([]*domain.WorkoutCatalogItem, n)
	for i := range items {
		items[i] = &domain.WorkoutCatalogItem{
			Name:      fmt.Sprintf("Walk %d", i+1),
			Type:      domain.WorkoutTypeWalk,
			Category:  domain.CategoryBeginner,
			Intensity: domain.IntensityLight,
			Duration:  20 + i,
		}
		require.NoError(t, f.catalog.Create(context.Background(), items[i]))
	}
	return items
}

func (f *fixture) seedProfile(t *testing.T, userID string, p domain.UserProfile) {
	t.Helper()
	p.UserID = userID
	_, err := f.profiles.Upsert(context.Background(), &p)
	require.NoError(t, err)
}

// scheduleToday puts a single scheduled entry for item on the clock's day.
func (f *fixture) scheduleToday(t *testing.T, userID string, item *domain.WorkoutCatalogItem, status domain.ScheduleStatus) *domain.ScheduleEntry {
	t.Helper()
	stored, err := f.schedule.UpsertForDay(context.Background(), &domain.ScheduleEntry{
		UserID:        userID,
		CatalogItemID: item.ID,
		Date:          domain.Today(f.clock),
		TargetSteps:   6000,
	})
	require.NoError(t, err)
	if status != domain.ScheduleScheduled {
		require.NoError(t, f.schedule.UpdateStatus(context.Background(), stored.ID, status))
		stored.Status = status
	}
	return stored
}
