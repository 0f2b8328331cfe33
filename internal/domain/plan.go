package domain

import (
	"context"
	"time"
)

var (
	ErrPlanNotFound  = NewKindError(ErrNotFound, "no active plan")
	ErrDuplicatePlan = NewKindError(ErrConflict, "an active plan already exists")
)

// DaysPerWeek is the fixed plan cadence: Monday to Friday.
const DaysPerWeek = 5

// PlanAssignment places one catalog item on a (week, day) slot.
type PlanAssignment struct {
	CatalogItemID string `json:"catalog_item_id" bson:"catalog_item_id"`
	Week          int    `json:"week" bson:"week"` // 1..weeks
	Day           int    `json:"day" bson:"day"`   // 1..5, Monday = 1
}

type StepProgression struct {
	StartingSteps  int `json:"starting_steps" bson:"starting_steps"`
	WeeklyIncrease int `json:"weekly_increase" bson:"weekly_increase"`
}

// TargetForWeek is the step target for a 1-based week.
func (s StepProgression) TargetForWeek(week int) int {
	return s.StartingSteps + (week-1)*s.WeeklyIncrease
}

type PersonalizedPlan struct {
	ID              string           `json:"id" bson:"_id,omitempty"`
	UserID          string           `json:"user_id" bson:"user_id"`
	Name            string           `json:"name" bson:"name"`
	Description     string           `json:"description" bson:"description"`
	Weeks           int              `json:"weeks" bson:"weeks"`
	StartDate       time.Time        `json:"start_date" bson:"start_date"`
	EndDate         time.Time        `json:"end_date" bson:"end_date"`
	Assignments     []PlanAssignment `json:"assignments" bson:"assignments"`
	StepProgression StepProgression  `json:"step_progression" bson:"step_progression"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the plan still covers today.
func (p *PersonalizedPlan) IsActive(today time.Time) bool {
	return !p.EndDate.Before(today)
}

// CatalogItemIDs lists referenced catalog items once each, in first-seen order.
func (p *PersonalizedPlan) CatalogItemIDs() []string {
	seen := make(map[string]bool, len(p.Assignments))
	var ids []string
	for _, a := range p.Assignments {
		if !seen[a.CatalogItemID] {
			seen[a.CatalogItemID] = true
			ids = append(ids, a.CatalogItemID)
		}
	}
	return ids
}

type PlanRepository interface {
	Create(ctx context.Context, plan *PersonalizedPlan) error
	// GetActiveByUser returns the newest plan whose end date is on or after today.
	GetActiveByUser(ctx context.Context, userID string, today time.Time) (*PersonalizedPlan, error)
	Delete(ctx context.Context, id string) error
}
