package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkingChallengeTemplates(t *testing.T) {
	templates := WalkingChallengeTemplates()
	require.Len(t, templates, 5)

	byKey := map[string]domain.ChallengeDefinition{}
	for _, tmpl := range templates {
		byKey[tmpl.Key] = tmpl
	}
	assert.Equal(t, 28, byKey["daily_steps-28"].DurationDays)
	assert.Equal(t, 10000.0, byKey["daily_steps-28"].TargetValue)
	assert.Equal(t, domain.ChallengeDailyDuration, byKey["beginner-3"].Type)
	assert.Equal(t, "Distance Master Badge", byKey["distance-14"].Reward.Name)
}

func TestEnroll(t *testing.T) {
	f := newFixture(t, monday.Add(10*time.Hour))
	ctx := context.Background()
	_, err := f.challengeSvc.EnsureWalkingChallenges(ctx)
	require.NoError(t, err)

	e, err := f.challengeSvc.Enroll(ctx, "u1", "beginner-3")
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentActive, e.Status)
	assert.Equal(t, monday, e.StartDate)
	assert.Equal(t, monday.AddDate(0, 0, 2), e.EndDate)
	require.Len(t, e.DailyProgress, 3)
	assert.Equal(t, monday.AddDate(0, 0, 1), e.DailyProgress[1].Date)
	assert.Equal(t, 15.0, e.DailyProgress[2].TargetValue)
	require.NotNil(t, e.Challenge)

	_, err = f.challengeSvc.Enroll(ctx, "u1", "beginner-3")
	assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.challengeSvc.Enroll(ctx, "u1", "marathon-365")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestRecordProgress_CompletesChallenge(t *testing.T) {
	f := newFixture(t, monday.Add(10*time.Hour))
	ctx := context.Background()
	_, err := f.challengeSvc.EnsureWalkingChallenges(ctx)
	require.NoError(t, err)

	_, err = f.challengeSvc.RecordProgress(ctx, "u1", "beginner-3", 1, 20)
	assert.ErrorIs(t, err, domain.ErrEnrollmentNotFound)

	_, err = f.challengeSvc.Enroll(ctx, "u1", "beginner-3")
	require.NoError(t, err)

	_, err = f.challengeSvc.RecordProgress(ctx, "u1", "beginner-3", 4, 20)
	assert.ErrorIs(t, err, domain.ErrDayOutOfRange)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, day := range []int{3, 1} {
		e, err := f.challengeSvc.RecordProgress(ctx, "u1", "beginner-3", day, 20)
		require.NoError(t, err)
		assert.Equal(t, domain.EnrollmentActive, e.Status)
	}
	e, err := f.challengeSvc.RecordProgress(ctx, "u1", "beginner-3", 2, 15)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentCompleted, e.Status)
	assert.Equal(t, 100, e.CompletionPercentage)
	assert.Equal(t, 55.0, e.TotalProgress)
	require.NotNil(t, e.CompletedAt)

	// no longer active, so further progress has nowhere to go
	_, err = f.challengeSvc.RecordProgress(ctx, "u1", "beginner-3", 1, 5)
	assert.ErrorIs(t, err, domain.ErrEnrollmentNotFound)

	// and a fresh enrollment is allowed
	_, err = f.challengeSvc.Enroll(ctx, "u1", "beginner-3")
	assert.NoError(t, err)
}

func TestRecordProgress_CompletionIsSticky(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	_, err := f.challengeSvc.EnsureWalkingChallenges(ctx)
	require.NoError(t, err)
	_, err = f.challengeSvc.Enroll(ctx, "u1", "daily_steps-28")
	require.NoError(t, err)

	_, err = f.challengeSvc.RecordProgress(ctx, "u1", "daily_steps-28", 1, 12000)
	require.NoError(t, err)
	e, err := f.challengeSvc.RecordProgress(ctx, "u1", "daily_steps-28", 1, 500)
	require.NoError(t, err)

	assert.True(t, e.DailyProgress[0].IsCompleted)
	assert.Equal(t, 500.0, e.DailyProgress[0].AchievedValue)
	assert.Equal(t, 500.0, e.TotalProgress)
	assert.Equal(t, 4, e.CompletionPercentage) // round(100/28)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t, monday)
	ctx := context.Background()
	_, err := f.challengeSvc.EnsureWalkingChallenges(ctx)
	require.NoError(t, err)

	_, err = f.challengeSvc.SetStatus(ctx, "u1", "distance-14", domain.EnrollmentAbandoned)
	assert.ErrorIs(t, err, domain.ErrEnrollmentNotFound)

	_, err = f.challengeSvc.Enroll(ctx, "u1", "distance-14")
	require.NoError(t, err)

	_, err = f.challengeSvc.SetStatus(ctx, "u1", "distance-14", domain.EnrollmentActive)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	e, err := f.challengeSvc.SetStatus(ctx, "u1", "distance-14", domain.EnrollmentAbandoned)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentAbandoned, e.Status)
	require.NotNil(t, e.CompletedAt)

	active, err := f.challengeSvc.ListUserChallenges(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, active)

	abandoned, err := f.challengeSvc.ListUserChallenges(ctx, "u1", domain.EnrollmentAbandoned)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)
	require.NotNil(t, abandoned[0].Challenge)
	assert.Equal(t, "Distance Challenger", abandoned[0].Challenge.Name)
}

func TestAutoAssignWalkingChallenges(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour))
	ctx := context.Background()

	_, err := f.challengeSvc.AutoAssignWalkingChallenges(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	f.seedProfile(t, "u1", domain.UserProfile{FitnessLevel: "beginner"})
	first, err := f.challengeSvc.AutoAssignWalkingChallenges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, first, 5)
	assert.Equal(t, 5, f.challenges.Len())

	defs, err := f.challengeSvc.ListChallenges(ctx)
	require.NoError(t, err)
	for _, d := range defs {
		assert.Equal(t, 1, d.TemplateVersion)
		assert.True(t, d.IsActive)
	}

	second, err := f.challengeSvc.AutoAssignWalkingChallenges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, second, 5)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.Equal(t, 5, f.challenges.Len())

	all, err := f.enrollments.ListByUser(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
