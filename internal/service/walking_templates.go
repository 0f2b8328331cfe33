package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/mansoorceksport/stride/internal/domain"
)

// walkingTemplate is a built-in walk used to seed the catalog and to stand in
// for the exercise provider when it is down.
type walkingTemplate struct {
	Name         string
	Instructions string
	Difficulty   string
	Duration     int
	Calories     int
}

var walkingTemplates = []walkingTemplate{
	{
		Name:         "Morning Energy Walk",
		Instructions: "Start your day with a brisk 20-30 minute walk. Focus on maintaining steady pace and deep breathing.",
		Difficulty:   "beginner",
		Duration:     25,
		Calories:     150,
	},
	{
		Name:         "Post-Lunch Digestive Walk",
		Instructions: "Take a gentle 15-20 minute walk after lunch to aid digestion and boost afternoon energy.",
		Difficulty:   "beginner",
		Duration:     15,
		Calories:     100,
	},
	{
		Name:         "Evening Stress Relief Walk",
		Instructions: "Wind down with a peaceful 30-40 minute walk. Focus on relaxation and mindfulness.",
		Difficulty:   "beginner",
		Duration:     35,
		Calories:     200,
	},
	{
		Name:         "Interval Power Walk",
		Instructions: "Alternate between 2 minutes fast walking and 1 minute normal pace for 30 minutes.",
		Difficulty:   "intermediate",
		Duration:     30,
		Calories:     250,
	},
	{
		Name:         "Hill Walking Challenge",
		Instructions: "Find inclined paths or use treadmill incline. Walk uphill for cardio boost and leg strengthening.",
		Difficulty:   "intermediate",
		Duration:     40,
		Calories:     300,
	},
	{
		Name:         "Long Distance Walk",
		Instructions: "Extended 45-60 minute walk at comfortable pace. Great for endurance building.",
		Difficulty:   "advanced",
		Duration:     60,
		Calories:     400,
	},
}

// templatesForDifficulty returns the built-in walks, filtered when difficulty is set.
func templatesForDifficulty(difficulty string) []walkingTemplate {
	if difficulty == "" {
		return walkingTemplates
	}
	var out []walkingTemplate
	for _, t := range walkingTemplates {
		if t.Difficulty == difficulty {
			out = append(out, t)
		}
	}
	return out
}

// SeedCatalogItems converts the built-in walks into catalog items for cmd/seed.
func SeedCatalogItems() []*domain.WorkoutCatalogItem {
	items := make([]*domain.WorkoutCatalogItem, 0, len(walkingTemplates))
	for _, t := range walkingTemplates {
		level := domain.FitnessLevel(t.Difficulty)
		items = append(items, &domain.WorkoutCatalogItem{
			Name:             t.Name,
			Description:      t.Instructions,
			Type:             domain.WorkoutTypeWalk,
			Category:         domain.CategoryForGoals(nil, level),
			Intensity:        domain.IntensityForLevel(level),
			Duration:         t.Duration,
			CaloriesBurned:   t.Calories,
			TargetDistanceKm: distanceForDuration(t.Duration),
			Instructions:     []string{t.Instructions},
			Source:           "seed",
		})
	}
	return items
}

// walkingVariant is a profile-derived walk. Durations hang off the base
// duration of the user's daily walking bucket.
type walkingVariant struct {
	Name        string
	Description string
	Duration    int
}

func variantsFor(profile *domain.UserProfile) []walkingVariant {
	base := baseDuration(profile.DailyWalkingTime)
	return []walkingVariant{
		{Name: "Morning Energizer Walk", Description: "Start your day with energy-boosting walk", Duration: base},
		{Name: "Lunch Break Walk", Description: "Quick refreshing walk during lunch break", Duration: max(15, base-10)},
		{Name: "Evening Wind-Down Walk", Description: "Relaxing walk to end your day peacefully", Duration: base + 5},
		{Name: "Weekend Adventure Walk", Description: "Longer exploratory walk for weekends", Duration: base + 15},
	}
}

func baseDuration(bucket string) int {
	switch bucket {
	case domain.WalkingUnder20:
		return 15
	case domain.Walking20To60:
		return 30
	case domain.Walking1To2Hours, domain.WalkingOver2Hours:
		return 45
	default:
		return 25
	}
}

func caloriesFor(durationMinutes int, weightKg float64) int {
	if weightKg <= 0 {
		weightKg = domain.DefaultBodyWeightKg
	}
	return int(math.Round(float64(durationMinutes) * weightKg * 0.05))
}

// distanceForDuration assumes a 4 km/h pace.
func distanceForDuration(durationMinutes int) float64 {
	return float64(durationMinutes) / 15
}

func variantInstructions(v walkingVariant, profile *domain.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. ", v.Description)

	switch {
	case v.Duration <= 20:
		b.WriteString("Keep a steady, comfortable pace throughout. ")
	case v.Duration <= 40:
		b.WriteString("Start with 5 minutes warm-up, maintain brisk pace in middle, cool down in last 5 minutes. ")
	default:
		b.WriteString("Begin with 5-minute warm-up, maintain moderate pace for majority, include 2-3 brief fast intervals, end with 5-minute cool-down. ")
	}

	if profile.HasGoal(domain.GoalLoseWeight) {
		b.WriteString("Focus on maintaining consistent pace to maximize calorie burn. ")
	}
	if profile.HasGoal(domain.GoalImproveEndurance) {
		b.WriteString("Monitor your heart rate and aim for moderate intensity. ")
	}
	if profile.HasGoal(domain.GoalReduceStress) {
		b.WriteString("Practice deep breathing and mindfulness while walking. ")
	}

	switch profile.Level() {
	case domain.LevelBeginner:
		b.WriteString("Listen to your body and take breaks if needed. Gradually increase pace as you get comfortable.")
	case domain.LevelIntermediate:
		b.WriteString("Challenge yourself with slight inclines or speed intervals.")
	default:
		b.WriteString("Incorporate hills, stairs, or interval training for maximum benefit.")
	}
	return b.String()
}

// intensityForDifficulty maps provider difficulty strings; unknown values
// land on moderate.
func intensityForDifficulty(difficulty string) domain.Intensity {
	switch difficulty {
	case "beginner":
		return domain.IntensityLight
	case "intermediate":
		return domain.IntensityModerate
	case "advanced", "expert":
		return domain.IntensityIntense
	default:
		return domain.IntensityModerate
	}
}

var walkingKeywords = []string{"walk", "treadmill", "pace", "step", "stride"}

func isWalkingRelated(ex domain.RawExercise) bool {
	text := strings.ToLower(ex.Name + " " + ex.Instructions)
	for _, kw := range walkingKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
