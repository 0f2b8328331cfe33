package domain

import (
	"context"
	"math"
	"time"
)

var (
	ErrChallengeNotFound   = NewKindError(ErrNotFound, "challenge not found")
	ErrDuplicateChallenge  = NewKindError(ErrConflict, "challenge key already exists")
	ErrEnrollmentNotFound  = NewKindError(ErrNotFound, "no active enrollment for challenge")
	ErrAlreadyEnrolled     = NewKindError(ErrConflict, "already enrolled in this challenge")
	ErrDayOutOfRange       = NewKindError(ErrNotFound, "challenge day out of range")
	ErrInvalidStatusChange = NewKindError(ErrInvalidInput, "status must be completed, failed or abandoned")
)

type ChallengeType string

const (
	ChallengeWorkoutStreak  ChallengeType = "workout_streak"
	ChallengeDailySteps     ChallengeType = "daily_steps"
	ChallengeUniqueWorkouts ChallengeType = "unique_workouts"
	ChallengeDailyDuration  ChallengeType = "daily_duration"
	ChallengeTotalDistance  ChallengeType = "total_distance"
)

type ChallengeReward struct {
	Name  string `json:"name" bson:"name"`
	Badge string `json:"badge" bson:"badge"`
}

type ChallengeDefinition struct {
	ID              string          `json:"id" bson:"_id,omitempty"`
	Key             string          `json:"key" bson:"key"` // Unique Index, e.g. "daily_steps-28"
	Name            string          `json:"name" bson:"name"`
	Description     string          `json:"description" bson:"description"`
	Type            ChallengeType   `json:"type" bson:"type"`
	DurationDays    int             `json:"duration_days" bson:"duration_days"`
	TargetValue     float64         `json:"target_value" bson:"target_value"`
	TargetLabel     string          `json:"target_label" bson:"target_label"`
	Difficulty      string          `json:"difficulty" bson:"difficulty"`
	Reward          ChallengeReward `json:"reward" bson:"reward"`
	IconType        string          `json:"icon_type" bson:"icon_type"`
	BackgroundColor string          `json:"background_color" bson:"background_color"`
	TemplateVersion int             `json:"template_version" bson:"template_version"`
	IsActive        bool            `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentFailed    EnrollmentStatus = "failed"
	EnrollmentAbandoned EnrollmentStatus = "abandoned"
)

type DayProgress struct {
	Day           int        `json:"day" bson:"day"` // 1..duration
	Date          time.Time  `json:"date" bson:"date"`
	TargetValue   float64    `json:"target_value" bson:"target_value"`
	AchievedValue float64    `json:"achieved_value" bson:"achieved_value"`
	IsCompleted   bool       `json:"is_completed" bson:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

type ChallengeEnrollment struct {
	ID                   string           `json:"id" bson:"_id,omitempty"`
	UserID               string           `json:"user_id" bson:"user_id"`
	ChallengeID          string           `json:"challenge_id" bson:"challenge_id"`
	ChallengeKey         string           `json:"challenge_key" bson:"challenge_key"`
	StartDate            time.Time        `json:"start_date" bson:"start_date"`
	EndDate              time.Time        `json:"end_date" bson:"end_date"`
	DailyProgress        []DayProgress    `json:"daily_progress" bson:"daily_progress"`
	TotalProgress        float64          `json:"total_progress" bson:"total_progress"`
	CompletionPercentage int              `json:"completion_percentage" bson:"completion_percentage"`
	Status               EnrollmentStatus `json:"status" bson:"status"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" bson:"updated_at"`

	Challenge *ChallengeDefinition `json:"challenge,omitempty" bson:"-"`
}

// NewEnrollment builds an active enrollment starting on start's day with
// one progress entry per challenge day.
func NewEnrollment(userID string, def *ChallengeDefinition, start time.Time) *ChallengeEnrollment {
	first := StartOfDay(start)
	days := make([]DayProgress, def.DurationDays)
	for i := range days {
		days[i] = DayProgress{
			Day:         i + 1,
			Date:        first.AddDate(0, 0, i),
			TargetValue: def.TargetValue,
		}
	}
	return &ChallengeEnrollment{
		UserID:        userID,
		ChallengeID:   def.ID,
		ChallengeKey:  def.Key,
		StartDate:     first,
		EndDate:       first.AddDate(0, 0, def.DurationDays-1),
		DailyProgress: days,
		Status:        EnrollmentActive,
	}
}

// RecordProgress sets the achieved value for a 1-based day. A day once
// completed stays completed even if a lower value is recorded later.
func (e *ChallengeEnrollment) RecordProgress(day int, achieved float64, now time.Time) error {
	if day < 1 || day > len(e.DailyProgress) {
		return ErrDayOutOfRange
	}

	p := &e.DailyProgress[day-1]
	p.AchievedValue = achieved
	if !p.IsCompleted && achieved >= p.TargetValue {
		p.IsCompleted = true
		at := now
		p.CompletedAt = &at
	}

	e.recompute()
	if e.Status == EnrollmentActive && e.allCompleted() {
		e.Status = EnrollmentCompleted
		at := now
		e.CompletedAt = &at
	}
	return nil
}

// SetStatus applies an explicit status override.
func (e *ChallengeEnrollment) SetStatus(status EnrollmentStatus, now time.Time) error {
	switch status {
	case EnrollmentFailed, EnrollmentAbandoned:
		at := now
		e.CompletedAt = &at
	case EnrollmentCompleted:
		if e.CompletedAt == nil {
			at := now
			e.CompletedAt = &at
		}
	default:
		return ErrInvalidStatusChange
	}
	e.Status = status
	return nil
}

func (e *ChallengeEnrollment) recompute() {
	total := 0.0
	done := 0
	for _, p := range e.DailyProgress {
		total += p.AchievedValue
		if p.IsCompleted {
			done++
		}
	}
	e.TotalProgress = total
	if n := len(e.DailyProgress); n > 0 {
		e.CompletionPercentage = int(math.Round(100 * float64(done) / float64(n)))
	}
}

func (e *ChallengeEnrollment) allCompleted() bool {
	for _, p := range e.DailyProgress {
		if !p.IsCompleted {
			return false
		}
	}
	return len(e.DailyProgress) > 0
}

type ChallengeRepository interface {
	Create(ctx context.Context, def *ChallengeDefinition) error
	GetByKey(ctx context.Context, key string) (*ChallengeDefinition, error)
	GetByIDs(ctx context.Context, ids []string) ([]*ChallengeDefinition, error)
	ListActive(ctx context.Context) ([]*ChallengeDefinition, error)
}

type EnrollmentRepository interface {
	// Create fails with ErrAlreadyEnrolled when an active enrollment exists.
	Create(ctx context.Context, enrollment *ChallengeEnrollment) error
	GetActive(ctx context.Context, userID, challengeID string) (*ChallengeEnrollment, error)
	// GetLatest returns the most recent enrollment regardless of status.
	GetLatest(ctx context.Context, userID, challengeID string) (*ChallengeEnrollment, error)
	ListByUser(ctx context.Context, userID string, status EnrollmentStatus) ([]*ChallengeEnrollment, error)
	Save(ctx context.Context, enrollment *ChallengeEnrollment) error
}
