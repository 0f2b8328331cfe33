package service

import (
	"context"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
)

// PlanRegenerator replaces a user's active plan after their profile changes
// and retires it when the profile goes away.
type PlanRegenerator interface {
	RegenerateAfterProfileUpdate(ctx context.Context, userID string) (*GeneratePlanResult, error)
	RetireActivePlan(ctx context.Context, userID, reason string) (bool, error)
}

type ProfileService struct {
	profiles domain.ProfileRepository
	plans    PlanRegenerator
	clock    domain.Clock
}

func NewProfileService(profiles domain.ProfileRepository, plans PlanRegenerator, clock domain.Clock) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		plans:    plans,
		clock:    clock,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

type ProfileUpdateResult struct {
	Profile       *domain.UserProfile `json:"profile"`
	Created       bool                `json:"created"`
	PlanRefreshed bool                `json:"plan_refreshed"`
}

// Upsert stores the profile with derived BMI. Updating an existing profile
// regenerates the active plan, if any; that step is best-effort.
func (s *ProfileService) Upsert(ctx context.Context, userID string, profile *domain.UserProfile) (*ProfileUpdateResult, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	profile.UserID = userID
	if profile.StepGoal == 0 {
		profile.StepGoal = domain.DefaultStepGoal
	}
	profile.ComputeBMI()
	now := s.clock.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	created, err := s.profiles.Upsert(ctx, profile)
	if err != nil {
		return nil, err
	}
	result := &ProfileUpdateResult{Profile: profile, Created: created}
	if created || s.plans == nil {
		return result, nil
	}

	regenerated, err := s.plans.RegenerateAfterProfileUpdate(ctx, userID)
	if err != nil {
		logger.Warn("plan regeneration after profile update failed", "user_id", userID, "err", err)
		return result, nil
	}
	result.PlanRefreshed = regenerated != nil
	return result, nil
}

type ProfileDeleteResult struct {
	PlanRetired bool `json:"plan_retired"`
}

// Delete removes the profile and retires the active plan built from it.
// Retiring the plan is best-effort, like regeneration on update.
func (s *ProfileService) Delete(ctx context.Context, userID string) (*ProfileDeleteResult, error) {
	if err := s.profiles.Delete(ctx, userID); err != nil {
		return nil, err
	}
	result := &ProfileDeleteResult{}
	if s.plans == nil {
		return result, nil
	}

	retired, err := s.plans.RetireActivePlan(ctx, userID, domain.ReasonProfileDeleted)
	if err != nil {
		logger.Warn("plan retirement after profile delete failed", "user_id", userID, "err", err)
		return result, nil
	}
	result.PlanRetired = retired
	return result, nil
}

func validateProfile(p *domain.UserProfile) error {
	switch {
	case p.StepGoal < 0:
		return domain.NewKindError(domain.ErrInvalidInput, "step_goal must not be negative")
	case p.CurrentWeight < 0 || p.TargetWeight < 0 || p.Height < 0:
		return domain.NewKindError(domain.ErrInvalidInput, "body measurements must not be negative")
	}
	switch domain.FitnessLevel(p.FitnessLevel) {
	case "", domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced, "expert":
	default:
		return domain.NewKindError(domain.ErrInvalidInput, "unknown fitness_level")
	}
	switch p.DailyWalkingTime {
	case "", domain.WalkingUnder20, domain.Walking20To60, domain.Walking1To2Hours, domain.WalkingOver2Hours:
	default:
		return domain.NewKindError(domain.ErrInvalidInput, "unknown daily_walking_time")
	}
	return nil
}
