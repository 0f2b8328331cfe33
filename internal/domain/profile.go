package domain

import (
	"context"
	"math"
	"time"
)

var ErrProfileNotFound = NewKindError(ErrNotFound, "user profile not found")

type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// FitnessGoal values accepted on a profile.
const (
	GoalLoseWeight         = "lose_weight"
	GoalBuildMuscle        = "build_muscle"
	GoalImproveEndurance   = "improve_endurance"
	GoalStayActive         = "stay_active"
	GoalReduceStress       = "reduce_stress"
	GoalImproveFlexibility = "improve_flexibility"
)

// DailyWalkingTime buckets.
const (
	WalkingUnder20    = "less_than_20_mins"
	Walking20To60     = "20_60_mins"
	Walking1To2Hours  = "1_2_hours"
	WalkingOver2Hours = "more_than_2_hours"
)

const (
	DefaultStepGoal     = 10000
	DefaultBodyWeightKg = 70.0
)

type UserProfile struct {
	ID                string    `json:"id" bson:"_id,omitempty"`
	UserID            string    `json:"user_id" bson:"user_id"` // Unique Index
	FitnessGoals      []string  `json:"fitness_goals" bson:"fitness_goals"`
	FitnessLevel      string    `json:"fitness_level" bson:"fitness_level"`
	DailyWalkingTime  string    `json:"daily_walking_time" bson:"daily_walking_time"`
	StepGoal          int       `json:"step_goal" bson:"step_goal"`
	CurrentWeight     float64   `json:"current_weight" bson:"current_weight"` // kg
	TargetWeight      float64   `json:"target_weight" bson:"target_weight"`
	Height            float64   `json:"height" bson:"height"` // cm
	BodyPartsToToneUp []string  `json:"body_parts_to_tone_up" bson:"body_parts_to_tone_up"`
	FocusAreas        []string  `json:"focus_areas" bson:"focus_areas"`
	BMI               float64   `json:"bmi" bson:"bmi"`
	BMICategory       string    `json:"bmi_category" bson:"bmi_category"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// Level resolves the profile's fitness level, defaulting to beginner.
func (p *UserProfile) Level() FitnessLevel {
	switch FitnessLevel(p.FitnessLevel) {
	case LevelIntermediate:
		return LevelIntermediate
	case LevelAdvanced, "expert":
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

func (p *UserProfile) HasGoal(goal string) bool {
	for _, g := range p.FitnessGoals {
		if g == goal {
			return true
		}
	}
	return false
}

// BodyWeight returns the current weight or the default estimate.
func (p *UserProfile) BodyWeight() float64 {
	if p.CurrentWeight > 0 {
		return p.CurrentWeight
	}
	return DefaultBodyWeightKg
}

// ComputeBMI fills BMI and BMICategory from weight and height when both are known.
func (p *UserProfile) ComputeBMI() {
	if p.CurrentWeight <= 0 || p.Height <= 0 {
		p.BMI = 0
		p.BMICategory = ""
		return
	}
	m := p.Height / 100
	p.BMI = math.Round(p.CurrentWeight/(m*m)*10) / 10
	switch {
	case p.BMI < 18.5:
		p.BMICategory = "underweight"
	case p.BMI < 25:
		p.BMICategory = "normal"
	case p.BMI < 30:
		p.BMICategory = "overweight"
	default:
		p.BMICategory = "obese"
	}
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*UserProfile, error)
	// Upsert writes the profile keyed by user id and reports whether it was newly created.
	Upsert(ctx context.Context, profile *UserProfile) (bool, error)
	Delete(ctx context.Context, userID string) error
}
