package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
)

// DistributeWorkouts fills weeks*DaysPerWeek slots round-robin from pool, in
// week-major order. Slot i gets pool[i mod len(pool)].
func DistributeWorkouts(pool []*domain.WorkoutCatalogItem, weeks int) []domain.PlanAssignment {
	if len(pool) == 0 || weeks <= 0 {
		return nil
	}
	out := make([]domain.PlanAssignment, 0, weeks*domain.DaysPerWeek)
	for week := 1; week <= weeks; week++ {
		for day := 1; day <= domain.DaysPerWeek; day++ {
			slot := (week-1)*domain.DaysPerWeek + (day - 1)
			out = append(out, domain.PlanAssignment{
				CatalogItemID: pool[slot%len(pool)].ID,
				Week:          week,
				Day:           day,
			})
		}
	}
	return out
}

// StepProgressionFor starts at the profile's step goal, raised to the level
// minimum, and adds 5% of that every week.
func StepProgressionFor(profile *domain.UserProfile) domain.StepProgression {
	base := profile.StepGoal
	if base <= 0 {
		base = domain.MinimumStepsForLevel(domain.LevelBeginner)
	}
	base = max(base, domain.MinimumStepsForLevel(profile.Level()))
	return domain.StepProgression{
		StartingSteps:  base,
		WeeklyIncrease: base * 5 / 100,
	}
}

func planName(weeks int, goals []string) string {
	focus := "Fitness"
	if len(goals) > 0 && goals[0] != "" {
		focus = strings.Replace(goals[0], "_", " ", 1)
	}
	return fmt.Sprintf("%d-Week Walking Plan for %s", weeks, focus)
}

func planDescription(profile *domain.UserProfile) string {
	level := profile.FitnessLevel
	if level == "" {
		level = "current"
	}
	return fmt.Sprintf("Custom walking workout plan based on your %s fitness level", level)
}

// ScheduledDate places an assignment on the calendar relative to the Monday
// of the plan's first week.
func ScheduledDate(anchor time.Time, a domain.PlanAssignment) time.Time {
	return anchor.AddDate(0, 0, (a.Week-1)*7+(a.Day-1))
}
