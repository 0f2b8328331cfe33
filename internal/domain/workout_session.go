package domain

import (
	"context"
	"time"
)

var (
	ErrSessionNotFound         = NewKindError(ErrNotFound, "workout session not found")
	ErrSessionAlreadyCompleted = NewKindError(ErrInvalidState, "workout session already completed")
	ErrSessionNotOwned         = NewKindError(ErrInvalidState, "workout session belongs to another user")
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

type RoutePoint struct {
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type HeartRateSample struct {
	BPM       int       `json:"bpm" bson:"bpm"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// SessionMetrics are the aggregates reported when a session completes.
type SessionMetrics struct {
	Steps          int               `json:"steps" bson:"steps"`
	DistanceMeters float64           `json:"distance_meters" bson:"distance_meters"`
	Calories       int               `json:"calories" bson:"calories"`
	AveragePace    float64           `json:"average_pace" bson:"average_pace"` // seconds per km
	Route          []RoutePoint      `json:"route,omitempty" bson:"route,omitempty"`
	HeartRate      []HeartRateSample `json:"heart_rate,omitempty" bson:"heart_rate,omitempty"`
}

type WorkoutSession struct {
	ID              string         `json:"id" bson:"_id,omitempty"`
	SessionKey      string         `json:"session_key" bson:"session_key"` // ULID
	UserID          string         `json:"user_id" bson:"user_id"`
	CatalogItemID   string         `json:"catalog_item_id" bson:"catalog_item_id"`
	Name            string         `json:"name" bson:"name"`
	Status          SessionStatus  `json:"status" bson:"status"`
	StartTime       time.Time      `json:"start_time" bson:"start_time"`
	EndTime         *time.Time     `json:"end_time,omitempty" bson:"end_time,omitempty"`
	DurationSeconds int            `json:"duration_seconds" bson:"duration_seconds"`
	Metrics         SessionMetrics `json:"metrics" bson:"metrics"`
	RouteArchiveURL string         `json:"route_archive_url,omitempty" bson:"route_archive_url,omitempty"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" bson:"updated_at"`
}

// CompletionInput is what a client reports when finishing a session.
// Zero EndTime and DurationSeconds are derived; other zero values leave the
// running metrics untouched.
type CompletionInput struct {
	EndTime         *time.Time
	DurationSeconds int
	Steps           int
	DistanceMeters  float64
	Calories        int
	Route           []RoutePoint
	HeartRate       []HeartRateSample
}

// Finish applies in to an in-progress session at now.
func (s *WorkoutSession) Finish(in CompletionInput, now time.Time) {
	end := now
	if in.EndTime != nil && !in.EndTime.IsZero() {
		end = *in.EndTime
	}
	s.EndTime = &end
	s.Status = SessionCompleted

	s.DurationSeconds = in.DurationSeconds
	if s.DurationSeconds <= 0 {
		s.DurationSeconds = int(end.Sub(s.StartTime) / time.Second)
	}
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}

	// Values left out of the completion keep what running updates recorded.
	if in.Steps > 0 {
		s.Metrics.Steps = in.Steps
	}
	if in.DistanceMeters > 0 {
		s.Metrics.DistanceMeters = in.DistanceMeters
	}
	if in.Calories > 0 {
		s.Metrics.Calories = in.Calories
	}
	if len(in.Route) > 0 {
		s.Metrics.Route = in.Route
	}
	if len(in.HeartRate) > 0 {
		s.Metrics.HeartRate = in.HeartRate
	}
	s.Metrics.AveragePace = 0
	if s.Metrics.DistanceMeters > 0 && s.DurationSeconds > 0 {
		s.Metrics.AveragePace = float64(s.DurationSeconds) / (s.Metrics.DistanceMeters / 1000)
	}
}

// SessionProgress is a running update to an in-progress session. Nil
// counters are left as they are; route points and heart-rate samples are
// appended. Status completed finishes the session.
type SessionProgress struct {
	Steps          *int
	DistanceMeters *float64
	Calories       *int
	Route          []RoutePoint
	HeartRate      []HeartRateSample
	Status         SessionStatus
}

// ApplyProgress merges p into the running metrics.
func (s *WorkoutSession) ApplyProgress(p SessionProgress) {
	if p.Steps != nil {
		s.Metrics.Steps = *p.Steps
	}
	if p.DistanceMeters != nil {
		s.Metrics.DistanceMeters = *p.DistanceMeters
	}
	if p.Calories != nil {
		s.Metrics.Calories = *p.Calories
	}
	s.Metrics.Route = append(s.Metrics.Route, p.Route...)
	s.Metrics.HeartRate = append(s.Metrics.HeartRate, p.HeartRate...)
}

type SessionFilter struct {
	Status SessionStatus
	From   time.Time
	To     time.Time
	Page   int64 // 1-based
	Limit  int64
}

type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *WorkoutSession) error
	GetByID(ctx context.Context, id string) (*WorkoutSession, error)
	// SaveCompletion persists the completion fields of a finished session.
	SaveCompletion(ctx context.Context, session *WorkoutSession) error
	// SaveProgress persists the running metrics of a session still in
	// progress.
	SaveProgress(ctx context.Context, session *WorkoutSession) error
	FindActive(ctx context.Context, userID, catalogItemID string) (*WorkoutSession, error)
	List(ctx context.Context, userID string, filter SessionFilter) ([]*WorkoutSession, int64, error)
	SetRouteArchive(ctx context.Context, id, url string) error
}

// WriteBackStatus is the outcome of one secondary write.
type WriteBackStatus string

const (
	WriteBackOK      WriteBackStatus = "ok"
	WriteBackSkipped WriteBackStatus = "skipped"
	WriteBackFailed  WriteBackStatus = "failed"
)

// WriteBackReport records how session state was propagated to the
// schedule and the daily resolution.
type WriteBackReport struct {
	ScheduleEntry   WriteBackStatus `json:"schedule_entry"`
	DailyResolution WriteBackStatus `json:"daily_resolution"`
	Errors          []string        `json:"errors,omitempty"`
}

// OK reports whether no secondary write failed.
func (r WriteBackReport) OK() bool {
	return r.ScheduleEntry != WriteBackFailed && r.DailyResolution != WriteBackFailed
}

// SessionResult pairs the primary session write with its write-back outcome.
type SessionResult struct {
	Session   *WorkoutSession `json:"session"`
	WriteBack WriteBackReport `json:"write_back"`
}
