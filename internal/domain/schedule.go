package domain

import (
	"context"
	"time"
)

var ErrScheduleEntryNotFound = NewKindError(ErrNotFound, "schedule entry not found")

type ScheduleStatus string

const (
	ScheduleScheduled  ScheduleStatus = "scheduled"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleCompleted  ScheduleStatus = "completed"
	ScheduleCancelled  ScheduleStatus = "cancelled"
)

// LiveScheduleStatuses are the statuses that occupy a (user, date) slot.
var LiveScheduleStatuses = []ScheduleStatus{ScheduleScheduled, ScheduleInProgress, ScheduleCompleted}

// Cancellation reasons written when a plan is superseded.
const (
	ReasonUserRegenerated = "New plan requested by user"
	ReasonProfileUpdated  = "Profile updated, new plan generated"
	ReasonProfileDeleted  = "Profile deleted"
)

type ScheduleEntry struct {
	ID                 string         `json:"id" bson:"_id,omitempty"`
	UserID             string         `json:"user_id" bson:"user_id"`
	PlanID             string         `json:"plan_id" bson:"plan_id"`
	CatalogItemID      string         `json:"catalog_item_id" bson:"catalog_item_id"`
	Date               time.Time      `json:"date" bson:"date"` // midnight
	Week               int            `json:"week" bson:"week"`
	Day                int            `json:"day" bson:"day"`
	Status             ScheduleStatus `json:"status" bson:"status"`
	TargetSteps        int            `json:"target_steps" bson:"target_steps"`
	ActualSteps        int            `json:"actual_steps" bson:"actual_steps"`
	CompletedSessionID string         `json:"completed_session_id,omitempty" bson:"completed_session_id,omitempty"`
	CancellationReason string         `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" bson:"updated_at"`
}

type ScheduleFilter struct {
	From   time.Time
	To     time.Time // inclusive
	Status ScheduleStatus
}

type ScheduleRepository interface {
	// UpsertForDay inserts entry unless a live entry already holds its
	// (user, date) slot, and returns whichever entry is stored.
	UpsertForDay(ctx context.Context, entry *ScheduleEntry) (*ScheduleEntry, error)
	FindForDay(ctx context.Context, userID string, day time.Time) (*ScheduleEntry, error)
	FindForDayAndItem(ctx context.Context, userID, catalogItemID string, day time.Time) (*ScheduleEntry, error)
	List(ctx context.Context, userID string, filter ScheduleFilter) ([]*ScheduleEntry, error)
	UpdateStatus(ctx context.Context, id string, status ScheduleStatus) error
	MarkCompleted(ctx context.Context, id, sessionID string, actualSteps int) error
	// CancelScheduledFrom cancels entries still in ScheduleScheduled dated on or after from.
	CancelScheduledFrom(ctx context.Context, userID string, from time.Time, reason string) (int64, error)
}
