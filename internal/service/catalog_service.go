package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
	"github.com/mansoorceksport/stride/internal/telemetry"
)

const (
	// minimumPoolSize is the number of distinct workouts below which the
	// planner broadens its search and then synthesizes new items.
	minimumPoolSize = 5
	candidateLimit  = 15
	supplementLimit = 8
)

type CatalogService struct {
	repo    domain.CatalogRepository
	source  domain.ExerciseSource
	clock   domain.Clock
	metrics *telemetry.Metrics
}

// NewCatalogService builds the catalog service. source may be nil, in which
// case the built-in templates are always used.
func NewCatalogService(
	repo domain.CatalogRepository,
	source domain.ExerciseSource,
	clock domain.Clock,
	metrics *telemetry.Metrics,
) *CatalogService {
	return &CatalogService{
		repo:    repo,
		source:  source,
		clock:   clock,
		metrics: metrics,
	}
}

func (s *CatalogService) List(ctx context.Context, filter domain.CatalogFilter) ([]*domain.WorkoutCatalogItem, error) {
	if filter.Intensity != "" && !filter.Intensity.Valid() {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "unknown intensity")
	}
	for _, c := range filter.Categories {
		if !c.Valid() {
			return nil, domain.NewKindError(domain.ErrInvalidInput, "unknown category")
		}
	}
	return s.repo.Find(ctx, filter)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.WorkoutCatalogItem, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds an administrator-authored item.
func (s *CatalogService) Create(ctx context.Context, item *domain.WorkoutCatalogItem) error {
	if err := validateCatalogItem(item); err != nil {
		return err
	}
	if item.Type == "" {
		item.Type = domain.WorkoutTypeWalk
	}
	if item.Source == "" {
		item.Source = "admin"
	}
	now := s.clock.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	return s.repo.Create(ctx, item)
}

// Update applies an administrative correction. Items are never deleted.
func (s *CatalogService) Update(ctx context.Context, id string, patch *domain.WorkoutCatalogItem) (*domain.WorkoutCatalogItem, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateCatalogItem(patch); err != nil {
		return nil, err
	}

	existing.Name = patch.Name
	existing.Description = patch.Description
	existing.Category = patch.Category
	existing.Intensity = patch.Intensity
	existing.Duration = patch.Duration
	existing.CaloriesBurned = patch.CaloriesBurned
	existing.TargetDistanceKm = patch.TargetDistanceKm
	if patch.Instructions != nil {
		existing.Instructions = patch.Instructions
	}
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func validateCatalogItem(item *domain.WorkoutCatalogItem) error {
	switch {
	case strings.TrimSpace(item.Name) == "":
		return domain.NewKindError(domain.ErrInvalidInput, "name is required")
	case !item.Category.Valid():
		return domain.NewKindError(domain.ErrInvalidInput, "unknown category")
	case !item.Intensity.Valid():
		return domain.NewKindError(domain.ErrInvalidInput, "unknown intensity")
	case item.Duration <= 0:
		return domain.NewKindError(domain.ErrInvalidInput, "duration must be positive")
	}
	return nil
}

// CandidatePool assembles the workouts a plan is distributed over, in a
// stable order. Matching items come first, then any walk, then synthesized
// items until at least minimumPoolSize exist.
func (s *CatalogService) CandidatePool(ctx context.Context, profile *domain.UserProfile) ([]*domain.WorkoutCatalogItem, error) {
	level := profile.Level()
	pool, err := s.repo.Find(ctx, domain.CatalogFilter{
		Type:       domain.WorkoutTypeWalk,
		Intensity:  domain.IntensityForLevel(level),
		Categories: domain.CandidateCategories(profile.FitnessGoals, level),
		Limit:      candidateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate workouts: %w", err)
	}

	if len(pool) < minimumPoolSize {
		pool, err = s.repo.Find(ctx, domain.CatalogFilter{
			Type:  domain.WorkoutTypeWalk,
			Limit: candidateLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query walking workouts: %w", err)
		}
	}

	if len(pool) < minimumPoolSize {
		extra, err := s.supplement(ctx, profile)
		if err != nil {
			return nil, err
		}
		pool = appendUnique(pool, extra)
	}
	return pool, nil
}

// candidateWalk is the common shape of provider exercises, built-in
// templates and profile variants before they become catalog items.
type candidateWalk struct {
	name         string
	description  string
	instructions string
	difficulty   string
	duration     int
	calories     int
	source       string
}

func (s *CatalogService) supplement(ctx context.Context, profile *domain.UserProfile) ([]*domain.WorkoutCatalogItem, error) {
	level := profile.Level()
	candidates := s.walkingExercises(ctx, string(level))

	for _, v := range variantsFor(profile) {
		candidates = append(candidates, candidateWalk{
			name:         v.Name,
			description:  v.Description,
			instructions: variantInstructions(v, profile),
			difficulty:   string(level),
			duration:     v.Duration,
			calories:     caloriesFor(v.Duration, profile.BodyWeight()),
			source:       "generated",
		})
	}
	if len(candidates) > supplementLimit {
		candidates = candidates[:supplementLimit]
	}

	category := domain.CategoryForGoals(profile.FitnessGoals, level)
	var items []*domain.WorkoutCatalogItem
	for _, c := range candidates {
		item, err := s.findOrCreate(ctx, c, category)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *CatalogService) findOrCreate(ctx context.Context, c candidateWalk, category domain.Category) (*domain.WorkoutCatalogItem, error) {
	existing, err := s.repo.FindByName(ctx, c.name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up workout %q: %w", c.name, err)
	}

	now := s.clock.Now()
	item := &domain.WorkoutCatalogItem{
		Name:             c.name,
		Description:      c.description,
		Type:             domain.WorkoutTypeWalk,
		Category:         category,
		Intensity:        intensityForDifficulty(c.difficulty),
		Duration:         c.duration,
		CaloriesBurned:   c.calories,
		TargetDistanceKm: distanceForDuration(c.duration),
		Instructions:     []string{c.instructions},
		Source:           c.source,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err = s.repo.Create(ctx, item)
	if errors.Is(err, domain.ErrDuplicateCatalogItem) {
		// lost a race with a concurrent planner
		return s.repo.FindByName(ctx, c.name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create workout %q: %w", c.name, err)
	}
	return item, nil
}

// walkingExercises asks the provider for walking exercises and falls back to
// the built-in templates when it fails or has nothing walking-related.
func (s *CatalogService) walkingExercises(ctx context.Context, difficulty string) []candidateWalk {
	var raw []domain.RawExercise
	if s.source != nil {
		fetched, err := s.source.FetchExercises(ctx, "cardio", difficulty)
		if err != nil {
			logger.Warn("exercise provider unavailable, using built-in walks", "difficulty", difficulty, "err", err)
		}
		for _, ex := range fetched {
			if isWalkingRelated(ex) {
				raw = append(raw, ex)
			}
		}
	}

	if len(raw) == 0 {
		s.metrics.CatalogFallback(ctx)
		var out []candidateWalk
		for _, t := range templatesForDifficulty(difficulty) {
			out = append(out, candidateWalk{
				name:         t.Name,
				description:  t.Instructions,
				instructions: t.Instructions,
				difficulty:   t.Difficulty,
				duration:     t.Duration,
				calories:     t.Calories,
				source:       "seed",
			})
		}
		return out
	}

	out := make([]candidateWalk, 0, len(raw))
	for _, ex := range raw {
		desc := ex.Instructions
		if desc == "" {
			desc = ex.Name + " workout"
		}
		diff := ex.Difficulty
		if diff == "" {
			diff = difficulty
		}
		out = append(out, candidateWalk{
			name:         ex.Name,
			description:  desc,
			instructions: desc,
			difficulty:   diff,
			duration:     30,
			calories:     caloriesFor(30, domain.DefaultBodyWeightKg),
			source:       "provider",
		})
	}
	return out
}

func appendUnique(pool, extra []*domain.WorkoutCatalogItem) []*domain.WorkoutCatalogItem {
	seen := make(map[string]bool, len(pool)+len(extra))
	for _, it := range pool {
		seen[it.ID] = true
	}
	for _, it := range extra {
		if !seen[it.ID] {
			seen[it.ID] = true
			pool = append(pool, it)
		}
	}
	return pool
}
