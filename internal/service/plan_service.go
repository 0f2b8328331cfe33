package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
	"github.com/mansoorceksport/stride/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPlanWeeks = 4
	MaxPlanWeeks     = 52
)

type PlanService struct {
	profiles  domain.ProfileRepository
	plans     domain.PlanRepository
	catalog   domain.CatalogRepository
	pool      *CatalogService
	scheduler *Scheduler
	clock     domain.Clock
	metrics   *telemetry.Metrics
}

func NewPlanService(
	profiles domain.ProfileRepository,
	plans domain.PlanRepository,
	catalog domain.CatalogRepository,
	pool *CatalogService,
	scheduler *Scheduler,
	clock domain.Clock,
	metrics *telemetry.Metrics,
) *PlanService {
	return &PlanService{
		profiles:  profiles,
		plans:     plans,
		catalog:   catalog,
		pool:      pool,
		scheduler: scheduler,
		clock:     clock,
		metrics:   metrics,
	}
}

type GeneratePlanRequest struct {
	UserID string
	Weeks  int
	Force  bool
	// Reason is recorded on entries cancelled by a forced regeneration.
	Reason string
}

type GeneratePlanResult struct {
	Plan     *domain.PersonalizedPlan `json:"plan"`
	Schedule []*domain.ScheduleEntry  `json:"schedule,omitempty"`
	Created  bool                     `json:"created"`
}

// GeneratePlan returns the user's active plan, or builds a new one when there
// is none or Force is set. A new plan is persisted and materialized before
// returning.
func (s *PlanService) GeneratePlan(ctx context.Context, req GeneratePlanRequest) (*GeneratePlanResult, error) {
	if req.Weeks == 0 {
		req.Weeks = DefaultPlanWeeks
	}
	if req.Weeks < 1 || req.Weeks > MaxPlanWeeks {
		return nil, domain.NewKindError(domain.ErrInvalidInput, fmt.Sprintf("weeks must be between 1 and %d", MaxPlanWeeks))
	}
	if req.Reason == "" {
		req.Reason = domain.ReasonUserRegenerated
	}

	profile, err := s.profiles.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	today := domain.Today(s.clock)
	existing, err := s.plans.GetActiveByUser(ctx, req.UserID, today)
	switch {
	case err == nil && !req.Force:
		return &GeneratePlanResult{Plan: existing}, nil
	case err == nil:
		if err := s.scheduler.Supersede(ctx, req.UserID, req.Reason); err != nil {
			return nil, err
		}
		if err := s.plans.Delete(ctx, existing.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete superseded plan: %w", err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to load active plan: %w", err)
	}

	pool, err := s.pool.CandidatePool(ctx, profile)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, domain.NewKindError(domain.ErrNotFound, "no walking workouts available")
	}

	now := s.clock.Now()
	plan := &domain.PersonalizedPlan{
		UserID:          req.UserID,
		Name:            planName(req.Weeks, profile.FitnessGoals),
		Description:     planDescription(profile),
		Weeks:           req.Weeks,
		StartDate:       today,
		EndDate:         today.AddDate(0, 0, req.Weeks*7),
		Assignments:     DistributeWorkouts(pool, req.Weeks),
		StepProgression: StepProgressionFor(profile),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	entries, err := s.scheduler.Materialize(ctx, plan)
	if err != nil {
		return nil, err
	}

	s.metrics.PlanGenerated(ctx, req.Force)
	logger.Info("plan generated", "user_id", req.UserID, "plan_id", plan.ID, "weeks", req.Weeks, "pool", len(pool))

	return &GeneratePlanResult{Plan: plan, Schedule: entries, Created: true}, nil
}

// RegenerateAfterProfileUpdate replaces an active plan with a fresh default
// length plan. Users without an active plan are left alone.
func (s *PlanService) RegenerateAfterProfileUpdate(ctx context.Context, userID string) (*GeneratePlanResult, error) {
	if _, err := s.plans.GetActiveByUser(ctx, userID, domain.Today(s.clock)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.GeneratePlan(ctx, GeneratePlanRequest{
		UserID: userID,
		Weeks:  DefaultPlanWeeks,
		Force:  true,
		Reason: domain.ReasonProfileUpdated,
	})
}

// RetireActivePlan cancels what is left of the active plan's schedule and
// removes the plan. It reports false when there was no active plan.
func (s *PlanService) RetireActivePlan(ctx context.Context, userID, reason string) (bool, error) {
	plan, err := s.plans.GetActiveByUser(ctx, userID, domain.Today(s.clock))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load active plan: %w", err)
	}

	if err := s.scheduler.Supersede(ctx, userID, reason); err != nil {
		return false, err
	}
	if err := s.plans.Delete(ctx, plan.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("failed to delete retired plan: %w", err)
	}
	logger.Info("plan retired", "user_id", userID, "plan_id", plan.ID, "reason", reason)
	return true, nil
}

type PlanOverview struct {
	Plan     *domain.PersonalizedPlan     `json:"plan"`
	Upcoming []*domain.ScheduleEntry      `json:"upcoming"`
	Workouts []*domain.WorkoutCatalogItem `json:"workouts"`
}

// CurrentPlan loads the active plan with the coming week's schedule and the
// workouts it uses.
func (s *PlanService) CurrentPlan(ctx context.Context, userID string) (*PlanOverview, error) {
	plan, err := s.plans.GetActiveByUser(ctx, userID, domain.Today(s.clock))
	if err != nil {
		return nil, err
	}

	overview := &PlanOverview{Plan: plan}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		upcoming, err := s.scheduler.List(gctx, userID, domain.ScheduleFilter{})
		if err != nil {
			return fmt.Errorf("failed to load upcoming schedule: %w", err)
		}
		overview.Upcoming = upcoming
		return nil
	})
	g.Go(func() error {
		workouts, err := s.catalog.GetByIDs(gctx, plan.CatalogItemIDs())
		if err != nil {
			return fmt.Errorf("failed to load plan workouts: %w", err)
		}
		overview.Workouts = workouts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// AvailableWorkouts lists the distinct catalog items of the active plan.
func (s *PlanService) AvailableWorkouts(ctx context.Context, userID string) ([]*domain.WorkoutCatalogItem, error) {
	plan, err := s.plans.GetActiveByUser(ctx, userID, domain.Today(s.clock))
	if err != nil {
		return nil, err
	}
	return s.catalog.GetByIDs(ctx, plan.CatalogItemIDs())
}
