package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/testhelpers"
)

func TestMongoRepositories(t *testing.T) {
	db, cleanup := testhelpers.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	t.Run("catalog names are unique and matched case-insensitively", func(t *testing.T) {
		repo := NewMongoCatalogRepository(db)
		item := &domain.WorkoutCatalogItem{
			Name: "Morning Energizer (walk)", Type: domain.WorkoutTypeWalk,
			Category: domain.CategoryBeginner, Intensity: domain.IntensityLight, Duration: 25,
		}
		require.NoError(t, repo.Create(ctx, item))
		require.NotEmpty(t, item.ID)

		err := repo.Create(ctx, &domain.WorkoutCatalogItem{Name: "Morning Energizer (walk)"})
		assert.ErrorIs(t, err, domain.ErrDuplicateCatalogItem)

		found, err := repo.FindByName(ctx, "morning energizer (WALK)")
		require.NoError(t, err)
		assert.Equal(t, item.ID, found.ID)

		_, err = repo.FindByName(ctx, "Morning")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.GetByID(ctx, "not-an-object-id")
		assert.ErrorIs(t, err, domain.ErrInvalidID)

		light, err := repo.Find(ctx, domain.CatalogFilter{Type: domain.WorkoutTypeWalk, Intensity: domain.IntensityLight})
		require.NoError(t, err)
		assert.Len(t, light, 1)
		none, err := repo.Find(ctx, domain.CatalogFilter{Categories: []domain.Category{domain.CategoryAdvanced}})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("schedule keeps one live entry per day", func(t *testing.T) {
		repo := NewMongoScheduleRepository(db, nil)
		first, err := repo.UpsertForDay(ctx, &domain.ScheduleEntry{UserID: "sched-user", CatalogItemID: "a", Date: monday, TargetSteps: 5000})
		require.NoError(t, err)
		assert.Equal(t, domain.ScheduleScheduled, first.Status)

		again, err := repo.UpsertForDay(ctx, &domain.ScheduleEntry{UserID: "sched-user", CatalogItemID: "b", Date: monday})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "a", again.CatalogItemID)

		tuesday, err := repo.UpsertForDay(ctx, &domain.ScheduleEntry{UserID: "sched-user", CatalogItemID: "c", Date: monday.AddDate(0, 0, 1)})
		require.NoError(t, err)
		require.NoError(t, repo.MarkCompleted(ctx, first.ID, "session-1", 5200))

		n, err := repo.CancelScheduledFrom(ctx, "sched-user", monday, domain.ReasonUserRegenerated)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "only the scheduled Tuesday is cancelled")

		cancelled, err := repo.List(ctx, "sched-user", domain.ScheduleFilter{Status: domain.ScheduleCancelled})
		require.NoError(t, err)
		require.Len(t, cancelled, 1)
		assert.Equal(t, tuesday.ID, cancelled[0].ID)
		assert.Equal(t, domain.ReasonUserRegenerated, cancelled[0].CancellationReason)

		// the cancelled slot is free again
		replacement, err := repo.UpsertForDay(ctx, &domain.ScheduleEntry{UserID: "sched-user", CatalogItemID: "d", Date: monday.AddDate(0, 0, 1)})
		require.NoError(t, err)
		assert.NotEqual(t, tuesday.ID, replacement.ID)
		assert.Equal(t, "d", replacement.CatalogItemID)
	})

	t.Run("daily resolution insert is race safe", func(t *testing.T) {
		repo := NewMongoDailyResolutionRepository(db, nil)
		const callers = 12
		ids := make([]string, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := repo.InsertIfAbsent(ctx, &domain.DailyResolution{
					UserID:        "race-user",
					Date:          monday,
					CatalogItemID: fmt.Sprintf("item-%d", i),
				})
				errs[i] = err
				if err == nil {
					ids[i] = res.ID
				}
			}(i)
		}
		wg.Wait()

		for i := range ids {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		all, err := repo.List(ctx, "race-user", monday, monday)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		require.NoError(t, repo.SetActiveSession(ctx, "race-user", monday, "s-1"))
		require.NoError(t, repo.MarkCompleted(ctx, "race-user", monday, "s-1"))
		done, err := repo.GetByUserAndDate(ctx, "race-user", monday)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Empty(t, done.ActiveSessionID)

		// Upsert refreshes schedule fields but keeps session state
		updated, err := repo.Upsert(ctx, &domain.DailyResolution{UserID: "race-user", Date: monday, CatalogItemID: "fresh", TargetSteps: 7000})
		require.NoError(t, err)
		assert.Equal(t, "fresh", updated.CatalogItemID)
		assert.True(t, updated.Completed)

		err = repo.MarkCompleted(ctx, "nobody", monday, "s")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("session completion happens once", func(t *testing.T) {
		repo := NewMongoWorkoutSessionRepository(db, nil)
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.Create(ctx, &domain.WorkoutSession{
				UserID:        "session-user",
				CatalogItemID: "item",
				Status:        domain.SessionInProgress,
				StartTime:     monday.Add(time.Duration(i) * time.Hour),
			}))
		}

		active, err := repo.FindActive(ctx, "session-user", "item")
		require.NoError(t, err)
		assert.True(t, active.StartTime.Equal(monday.Add(2*time.Hour)), "latest start wins")

		end := active.StartTime.Add(30 * time.Minute)
		active.Status = domain.SessionCompleted
		active.EndTime = &end
		active.DurationSeconds = 1800
		require.NoError(t, repo.SaveCompletion(ctx, active))
		assert.ErrorIs(t, repo.SaveCompletion(ctx, active), domain.ErrSessionAlreadyCompleted)

		page, total, err := repo.List(ctx, "session-user", domain.SessionFilter{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, page, 2)
		assert.True(t, page[0].StartTime.After(page[1].StartTime))

		completed, total, err := repo.List(ctx, "session-user", domain.SessionFilter{Status: domain.SessionCompleted})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, active.ID, completed[0].ID)

		require.NoError(t, repo.SetRouteArchive(ctx, active.ID, "http://files/route.json"))
		stored, err := repo.GetByID(ctx, active.ID)
		require.NoError(t, err)
		assert.Equal(t, "http://files/route.json", stored.RouteArchiveURL)
	})

	t.Run("session progress and caller timestamps are persisted", func(t *testing.T) {
		clock := testhelpers.NewClock(monday.Add(20 * time.Hour))
		repo := NewMongoWorkoutSessionRepository(db, clock)

		started := monday.Add(7 * time.Hour)
		session := &domain.WorkoutSession{
			UserID: "progress-user", CatalogItemID: "item", Status: domain.SessionInProgress,
			StartTime: started, CreatedAt: started, UpdatedAt: started,
		}
		require.NoError(t, repo.Create(ctx, session))

		stored, err := repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, stored.CreatedAt.Equal(started), "created_at comes from the caller, got %s", stored.CreatedAt)

		session.Metrics.Steps = 900
		session.UpdatedAt = started.Add(5 * time.Minute)
		require.NoError(t, repo.SaveProgress(ctx, session))
		stored, err = repo.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 900, stored.Metrics.Steps)
		assert.True(t, stored.UpdatedAt.Equal(started.Add(5*time.Minute)))

		// A write without a timestamp falls back to the injected clock.
		bare := &domain.WorkoutSession{UserID: "progress-user", CatalogItemID: "other", Status: domain.SessionInProgress, StartTime: started}
		require.NoError(t, repo.Create(ctx, bare))
		assert.True(t, bare.CreatedAt.Equal(clock.Now()))

		session.Status = domain.SessionCompleted
		require.NoError(t, repo.SaveCompletion(ctx, session))
		assert.ErrorIs(t, repo.SaveProgress(ctx, session), domain.ErrSessionAlreadyCompleted)
	})

	t.Run("plans are unique per start date", func(t *testing.T) {
		repo := NewMongoPlanRepository(db, nil)
		plan := &domain.PersonalizedPlan{UserID: "plan-user", Weeks: 4, StartDate: monday, EndDate: monday.AddDate(0, 0, 28)}
		require.NoError(t, repo.Create(ctx, plan))
		dup := &domain.PersonalizedPlan{UserID: "plan-user", Weeks: 1, StartDate: monday, EndDate: monday.AddDate(0, 0, 7)}
		assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicatePlan)

		active, err := repo.GetActiveByUser(ctx, "plan-user", monday.AddDate(0, 0, 10))
		require.NoError(t, err)
		assert.Equal(t, plan.ID, active.ID)

		_, err = repo.GetActiveByUser(ctx, "plan-user", monday.AddDate(0, 0, 40))
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, repo.Delete(ctx, plan.ID))
		assert.ErrorIs(t, repo.Delete(ctx, plan.ID), domain.ErrNotFound)
	})

	t.Run("one active enrollment per challenge", func(t *testing.T) {
		challenges := NewMongoChallengeRepository(db)
		enrollments := NewMongoEnrollmentRepository(db)

		def := &domain.ChallengeDefinition{Key: "daily_steps-28", Name: "Daily Steps", DurationDays: 28, TargetValue: 10000, IsActive: true}
		require.NoError(t, challenges.Create(ctx, def))
		assert.ErrorIs(t, challenges.Create(ctx, &domain.ChallengeDefinition{Key: "daily_steps-28"}), domain.ErrConflict)

		first := domain.NewEnrollment("enroll-user", def, monday)
		require.NoError(t, enrollments.Create(ctx, first))
		assert.ErrorIs(t, enrollments.Create(ctx, domain.NewEnrollment("enroll-user", def, monday)), domain.ErrAlreadyEnrolled)

		require.NoError(t, first.SetStatus(domain.EnrollmentAbandoned, monday))
		require.NoError(t, enrollments.Save(ctx, first))

		second := domain.NewEnrollment("enroll-user", def, monday.AddDate(0, 0, 1))
		require.NoError(t, enrollments.Create(ctx, second))

		active, err := enrollments.GetActive(ctx, "enroll-user", def.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, active.ID)

		abandoned, err := enrollments.ListByUser(ctx, "enroll-user", domain.EnrollmentAbandoned)
		require.NoError(t, err)
		assert.Len(t, abandoned, 1)
	})
}
