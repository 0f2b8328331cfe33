package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
)

// walkingChallengeVersion is bumped whenever WalkingChallengeTemplates changes.
const walkingChallengeVersion = 1

// WalkingChallengeTemplates is the fixed set auto-assigned to walkers.
func WalkingChallengeTemplates() []domain.ChallengeDefinition {
	return []domain.ChallengeDefinition{
		{
			Key:             "workout_streak-7",
			Name:            "7-Day Walking Workout Streak",
			Description:     "Do a walking workout every day for 7 days.",
			Type:            domain.ChallengeWorkoutStreak,
			DurationDays:    7,
			TargetValue:     1,
			TargetLabel:     "1 walking workout daily",
			Difficulty:      "medium",
			Reward:          domain.ChallengeReward{Name: "Silver Medal", Badge: "medal"},
			IconType:        "medal",
			BackgroundColor: "#4CAF50",
		},
		{
			Key:             "daily_steps-28",
			Name:            "28-Day Step Challenge",
			Description:     "Walk at least 10,000 steps daily for 28 days.",
			Type:            domain.ChallengeDailySteps,
			DurationDays:    28,
			TargetValue:     10000,
			TargetLabel:     "10,000 steps daily",
			Difficulty:      "hard",
			Reward:          domain.ChallengeReward{Name: "Gold Medal", Badge: "trophy"},
			IconType:        "trophy",
			BackgroundColor: "#FFD700",
		},
		{
			Key:             "unique_workouts-7",
			Name:            "Variety Walker",
			Description:     "Complete 5 different walking exercises this week.",
			Type:            domain.ChallengeUniqueWorkouts,
			DurationDays:    7,
			TargetValue:     5,
			TargetLabel:     "5 unique walking workouts",
			Difficulty:      "medium",
			Reward:          domain.ChallengeReward{Name: "Bronze Medal", Badge: "star"},
			IconType:        "star",
			BackgroundColor: "#FF6B47",
		},
		{
			Key:             "beginner-3",
			Name:            "Beginner Walker",
			Description:     "Walk for at least 15 minutes each day for 3 days.",
			Type:            domain.ChallengeDailyDuration,
			DurationDays:    3,
			TargetValue:     15,
			TargetLabel:     "15 minutes daily",
			Difficulty:      "easy",
			Reward:          domain.ChallengeReward{Name: "Starter Badge", Badge: "badge"},
			IconType:        "badge",
			BackgroundColor: "#2196F3",
		},
		{
			Key:             "distance-14",
			Name:            "Distance Challenger",
			Description:     "Walk a total of 30km over 14 days.",
			Type:            domain.ChallengeTotalDistance,
			DurationDays:    14,
			TargetValue:     30,
			TargetLabel:     "30km total distance",
			Difficulty:      "medium",
			Reward:          domain.ChallengeReward{Name: "Distance Master Badge", Badge: "badge"},
			IconType:        "badge",
			BackgroundColor: "#9C27B0",
		},
	}
}

type ChallengeService struct {
	challenges  domain.ChallengeRepository
	enrollments domain.EnrollmentRepository
	profiles    domain.ProfileRepository
	clock       domain.Clock
}

func NewChallengeService(
	challenges domain.ChallengeRepository,
	enrollments domain.EnrollmentRepository,
	profiles domain.ProfileRepository,
	clock domain.Clock,
) *ChallengeService {
	return &ChallengeService{
		challenges:  challenges,
		enrollments: enrollments,
		profiles:    profiles,
		clock:       clock,
	}
}

func (s *ChallengeService) ListChallenges(ctx context.Context) ([]*domain.ChallengeDefinition, error) {
	return s.challenges.ListActive(ctx)
}

// ListUserChallenges returns the user's enrollments in status (default
// active) with their definitions attached.
func (s *ChallengeService) ListUserChallenges(ctx context.Context, userID string, status domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error) {
	if status == "" {
		status = domain.EnrollmentActive
	}
	switch status {
	case domain.EnrollmentActive, domain.EnrollmentCompleted, domain.EnrollmentFailed, domain.EnrollmentAbandoned:
	default:
		return nil, domain.NewKindError(domain.ErrInvalidInput, "unknown enrollment status")
	}

	enrollments, err := s.enrollments.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ChallengeID)
	}
	defs, err := s.challenges.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenges: %w", err)
	}
	byID := make(map[string]*domain.ChallengeDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	for _, e := range enrollments {
		e.Challenge = byID[e.ChallengeID]
	}
	return enrollments, nil
}

// Enroll starts a challenge for the user today. A second active enrollment
// for the same challenge is a conflict.
func (s *ChallengeService) Enroll(ctx context.Context, userID, challengeKey string) (*domain.ChallengeEnrollment, error) {
	def, err := s.challenges.GetByKey(ctx, challengeKey)
	if err != nil {
		return nil, err
	}
	return s.enroll(ctx, userID, def)
}

func (s *ChallengeService) enroll(ctx context.Context, userID string, def *domain.ChallengeDefinition) (*domain.ChallengeEnrollment, error) {
	if _, err := s.enrollments.GetActive(ctx, userID, def.ID); err == nil {
		return nil, domain.ErrAlreadyEnrolled
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	enrollment := domain.NewEnrollment(userID, def, domain.Today(s.clock))
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, err
	}
	enrollment.Challenge = def
	return enrollment, nil
}

// RecordProgress sets the achieved value for one day of the active
// enrollment.
func (s *ChallengeService) RecordProgress(ctx context.Context, userID, challengeKey string, day int, achieved float64) (*domain.ChallengeEnrollment, error) {
	if achieved < 0 {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "value must not be negative")
	}
	def, err := s.challenges.GetByKey(ctx, challengeKey)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.GetActive(ctx, userID, def.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := enrollment.RecordProgress(day, achieved, now); err != nil {
		return nil, err
	}
	enrollment.UpdatedAt = now
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return nil, err
	}
	if enrollment.Status == domain.EnrollmentCompleted {
		logger.Info("challenge completed", "user_id", userID, "challenge", def.Key)
	}
	enrollment.Challenge = def
	return enrollment, nil
}

// SetStatus overrides the status of the user's most recent enrollment.
func (s *ChallengeService) SetStatus(ctx context.Context, userID, challengeKey string, status domain.EnrollmentStatus) (*domain.ChallengeEnrollment, error) {
	def, err := s.challenges.GetByKey(ctx, challengeKey)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.GetLatest(ctx, userID, def.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := enrollment.SetStatus(status, now); err != nil {
		return nil, err
	}
	enrollment.UpdatedAt = now
	if err := s.enrollments.Save(ctx, enrollment); err != nil {
		return nil, err
	}
	enrollment.Challenge = def
	return enrollment, nil
}

// EnsureWalkingChallenges creates any missing template definitions and
// returns all of them in template order.
func (s *ChallengeService) EnsureWalkingChallenges(ctx context.Context) ([]*domain.ChallengeDefinition, error) {
	templates := WalkingChallengeTemplates()
	defs := make([]*domain.ChallengeDefinition, 0, len(templates))
	for i := range templates {
		def, err := s.ensureDefinition(ctx, &templates[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (s *ChallengeService) ensureDefinition(ctx context.Context, tmpl *domain.ChallengeDefinition) (*domain.ChallengeDefinition, error) {
	def, err := s.challenges.GetByKey(ctx, tmpl.Key)
	if err == nil {
		return def, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	tmpl.TemplateVersion = walkingChallengeVersion
	tmpl.IsActive = true
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	err = s.challenges.Create(ctx, tmpl)
	if errors.Is(err, domain.ErrDuplicateChallenge) {
		return s.challenges.GetByKey(ctx, tmpl.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge %s: %w", tmpl.Key, err)
	}
	return tmpl, nil
}

// AutoAssignWalkingChallenges enrolls the user in every walking template,
// keeping any enrollment that is already active. The user must have a
// profile.
func (s *ChallengeService) AutoAssignWalkingChallenges(ctx context.Context, userID string) ([]*domain.ChallengeEnrollment, error) {
	if _, err := s.profiles.GetByUserID(ctx, userID); err != nil {
		return nil, err
	}

	defs, err := s.EnsureWalkingChallenges(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ChallengeEnrollment, 0, len(defs))
	for _, def := range defs {
		existing, err := s.enrollments.GetActive(ctx, userID, def.ID)
		if err == nil {
			existing.Challenge = def
			out = append(out, existing)
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		enrollment, err := s.enroll(ctx, userID, def)
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			// a concurrent request got there first
			if existing, err = s.enrollments.GetActive(ctx, userID, def.ID); err == nil {
				existing.Challenge = def
				out = append(out, existing)
				continue
			}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, enrollment)
	}
	return out, nil
}
