package domain

import (
	"context"
	"time"
)

var (
	ErrCatalogItemNotFound  = NewKindError(ErrNotFound, "workout not found")
	ErrDuplicateCatalogItem = NewKindError(ErrConflict, "workout name already exists")
)

// Category groups catalog items for plan selection.
type Category string

const (
	CategoryWeightLoss   Category = "weight_loss"
	CategoryProgression  Category = "progression"
	CategoryBeginner     Category = "beginner"
	CategoryIntermediate Category = "intermediate"
	CategoryAdvanced     Category = "advanced"
	CategoryFree         Category = "free"
	CategoryChallenge    Category = "challenge"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWeightLoss, CategoryProgression, CategoryBeginner, CategoryIntermediate,
		CategoryAdvanced, CategoryFree, CategoryChallenge:
		return true
	}
	return false
}

type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
)

func (i Intensity) Valid() bool {
	return i == IntensityLight || i == IntensityModerate || i == IntensityIntense
}

// WorkoutTypeWalk is the only workout type the planner schedules.
const WorkoutTypeWalk = "walk"

// WorkoutCatalogItem is a reusable workout definition.
type WorkoutCatalogItem struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	Name             string    `json:"name" bson:"name"` // Unique Index
	Description      string    `json:"description" bson:"description"`
	Type             string    `json:"type" bson:"type"`
	Category         Category  `json:"category" bson:"category"`
	Intensity        Intensity `json:"intensity" bson:"intensity"`
	Duration         int       `json:"duration" bson:"duration"` // minutes
	CaloriesBurned   int       `json:"calories_burned" bson:"calories_burned"`
	TargetDistanceKm float64   `json:"target_distance_km" bson:"target_distance_km"`
	Instructions     []string  `json:"instructions" bson:"instructions"`
	Source           string    `json:"source" bson:"source"` // seed, provider, generated, admin
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// CatalogFilter narrows catalog queries. Zero values are ignored.
type CatalogFilter struct {
	Type       string
	Intensity  Intensity
	Categories []Category
	Limit      int64
}

type CatalogRepository interface {
	Create(ctx context.Context, item *WorkoutCatalogItem) error
	GetByID(ctx context.Context, id string) (*WorkoutCatalogItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]*WorkoutCatalogItem, error)
	// FindByName matches case-insensitively on the full name.
	FindByName(ctx context.Context, name string) (*WorkoutCatalogItem, error)
	Find(ctx context.Context, filter CatalogFilter) ([]*WorkoutCatalogItem, error)
	Update(ctx context.Context, item *WorkoutCatalogItem) error
}

// RawExercise is an exercise description from an external provider.
type RawExercise struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Difficulty   string `json:"difficulty"`
	Instructions string `json:"instructions"`
}

// ExerciseSource is an optional external catalog supplier. Implementations
// report failures wrapped in ErrUpstreamUnavailable.
type ExerciseSource interface {
	FetchExercises(ctx context.Context, exerciseType, difficulty string) ([]RawExercise, error)
}
