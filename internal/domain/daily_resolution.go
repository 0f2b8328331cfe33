package domain

import (
	"context"
	"time"
)

var (
	ErrDailyResolutionNotFound = NewKindError(ErrNotFound, "daily workout not found")
	ErrNothingScheduled        = NewKindError(ErrNotFound, "nothing scheduled for today")
)

// DailyResolution is the per-(user, date) workout record clients read.
type DailyResolution struct {
	ID                 string    `json:"id" bson:"_id,omitempty"`
	UserID             string    `json:"user_id" bson:"user_id"`
	Date               time.Time `json:"date" bson:"date"` // midnight; unique with user_id
	CatalogItemID      string    `json:"catalog_item_id" bson:"catalog_item_id"`
	ScheduleEntryID    string    `json:"schedule_entry_id" bson:"schedule_entry_id"`
	TargetSteps        int       `json:"target_steps" bson:"target_steps"`
	ActiveSessionID    string    `json:"active_session_id,omitempty" bson:"active_session_id,omitempty"`
	CompletedSessionID string    `json:"completed_session_id,omitempty" bson:"completed_session_id,omitempty"`
	Completed          bool      `json:"completed" bson:"completed"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`

	Workout *WorkoutCatalogItem `json:"workout,omitempty" bson:"-"`
}

// FromScheduleEntry builds the resolution for entry's day.
func FromScheduleEntry(entry *ScheduleEntry) *DailyResolution {
	return &DailyResolution{
		UserID:             entry.UserID,
		Date:               entry.Date,
		CatalogItemID:      entry.CatalogItemID,
		ScheduleEntryID:    entry.ID,
		TargetSteps:        entry.TargetSteps,
		CompletedSessionID: entry.CompletedSessionID,
		Completed:          entry.Status == ScheduleCompleted,
	}
}

type DailyResolutionRepository interface {
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*DailyResolution, error)
	// Upsert writes the schedule-derived fields of res for its (user, date),
	// leaving session state untouched, and returns the stored record.
	Upsert(ctx context.Context, res *DailyResolution) (*DailyResolution, error)
	// InsertIfAbsent stores res only when no record exists for its
	// (user, date) and returns whichever record is stored.
	InsertIfAbsent(ctx context.Context, res *DailyResolution) (*DailyResolution, error)
	RepairReference(ctx context.Context, id, catalogItemID, scheduleEntryID string) (*DailyResolution, error)
	SetActiveSession(ctx context.Context, userID string, date time.Time, sessionID string) error
	MarkCompleted(ctx context.Context, userID string, date time.Time, sessionID string) error
	List(ctx context.Context, userID string, from, to time.Time) ([]*DailyResolution, error)
	ListByDate(ctx context.Context, date time.Time) ([]*DailyResolution, error)
	DeleteFrom(ctx context.Context, userID string, from time.Time) (int64, error)
}
