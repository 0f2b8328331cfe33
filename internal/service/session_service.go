package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
	"github.com/mansoorceksport/stride/internal/telemetry"
	"github.com/oklog/ulid/v2"
)

const (
	writeBackSchedule = "schedule_entry"
	writeBackDaily    = "daily_resolution"
)

// SessionTracker records workout attempts. The session is the source of
// truth; updates to the schedule and the daily workout are secondary writes
// whose outcome is reported, never returned as an error.
type SessionTracker struct {
	sessions domain.WorkoutSessionRepository
	catalog  domain.CatalogRepository
	schedule domain.ScheduleRepository
	daily    domain.DailyResolutionRepository
	files    domain.FileRepository
	clock    domain.Clock
	metrics  *telemetry.Metrics
}

// NewSessionTracker builds the tracker. files may be nil, which disables
// route archiving.
func NewSessionTracker(
	sessions domain.WorkoutSessionRepository,
	catalog domain.CatalogRepository,
	schedule domain.ScheduleRepository,
	daily domain.DailyResolutionRepository,
	files domain.FileRepository,
	clock domain.Clock,
	metrics *telemetry.Metrics,
) *SessionTracker {
	return &SessionTracker{
		sessions: sessions,
		catalog:  catalog,
		schedule: schedule,
		daily:    daily,
		files:    files,
		clock:    clock,
		metrics:  metrics,
	}
}

// generateULID creates a new ULID string
func generateULID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Start opens an in-progress session and, when today's schedule has this
// workout, flips that entry to in_progress.
func (s *SessionTracker) Start(ctx context.Context, userID, catalogItemID string) (*domain.SessionResult, error) {
	item, err := s.catalog.GetByID(ctx, catalogItemID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.WorkoutSession{
		SessionKey:    generateULID(now),
		UserID:        userID,
		CatalogItemID: item.ID,
		Name:          item.Name,
		Status:        domain.SessionInProgress,
		StartTime:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	report := s.writeBackStart(ctx, session)
	return &domain.SessionResult{Session: session, WriteBack: report}, nil
}

// Complete finalizes a session owned by userID and propagates completion to
// the schedule entry and daily workout of the day the session started.
func (s *SessionTracker) Complete(ctx context.Context, userID, sessionID string, in domain.CompletionInput) (*domain.SessionResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotOwned
	}
	if session.Status == domain.SessionCompleted {
		return nil, domain.ErrSessionAlreadyCompleted
	}
	if in.Steps < 0 || in.DistanceMeters < 0 || in.Calories < 0 || in.DurationSeconds < 0 {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "metrics must not be negative")
	}
	if in.EndTime != nil && !in.EndTime.IsZero() && in.EndTime.Before(session.StartTime) {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "end time is before the session start")
	}

	now := s.clock.Now()
	session.Finish(in, now)
	session.UpdatedAt = now
	if err := s.sessions.SaveCompletion(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.SessionCompleted(ctx)

	report := s.writeBackComplete(ctx, session)
	s.archiveRoute(ctx, session)

	return &domain.SessionResult{Session: session, WriteBack: report}, nil
}

// Update records running metrics on an in-progress session. An update with
// status completed finishes the session through Complete, write-back
// included.
func (s *SessionTracker) Update(ctx context.Context, userID, sessionID string, p domain.SessionProgress) (*domain.SessionResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotOwned
	}
	if session.Status != domain.SessionInProgress {
		return nil, domain.ErrSessionAlreadyCompleted
	}
	if (p.Steps != nil && *p.Steps < 0) || (p.DistanceMeters != nil && *p.DistanceMeters < 0) || (p.Calories != nil && *p.Calories < 0) {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "metrics must not be negative")
	}

	session.ApplyProgress(p)

	switch p.Status {
	case "", domain.SessionInProgress:
	case domain.SessionCompleted:
		m := session.Metrics
		return s.Complete(ctx, userID, sessionID, domain.CompletionInput{
			Steps:          m.Steps,
			DistanceMeters: m.DistanceMeters,
			Calories:       m.Calories,
			Route:          m.Route,
			HeartRate:      m.HeartRate,
		})
	default:
		return nil, domain.NewKindError(domain.ErrInvalidInput, "unknown session status")
	}

	session.UpdatedAt = s.clock.Now()
	if err := s.sessions.SaveProgress(ctx, session); err != nil {
		return nil, err
	}
	return &domain.SessionResult{
		Session:   session,
		WriteBack: domain.WriteBackReport{ScheduleEntry: domain.WriteBackSkipped, DailyResolution: domain.WriteBackSkipped},
	}, nil
}

// Get returns a session of userID. Other users' sessions read as not found.
func (s *SessionTracker) Get(ctx context.Context, userID, sessionID string) (*domain.WorkoutSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionTracker) List(ctx context.Context, userID string, filter domain.SessionFilter) ([]*domain.WorkoutSession, int64, error) {
	switch filter.Status {
	case "", domain.SessionInProgress, domain.SessionCompleted:
	default:
		return nil, 0, domain.NewKindError(domain.ErrInvalidInput, "unknown session status")
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.sessions.List(ctx, userID, filter)
}

func (s *SessionTracker) writeBackStart(ctx context.Context, session *domain.WorkoutSession) domain.WriteBackReport {
	report := domain.WriteBackReport{ScheduleEntry: domain.WriteBackSkipped, DailyResolution: domain.WriteBackSkipped}
	day := domain.DayOf(s.clock, session.StartTime)

	entry, err := s.schedule.FindForDayAndItem(ctx, session.UserID, session.CatalogItemID, day)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.writeBackFailed(ctx, &report, writeBackSchedule, session, day, err)
		}
		return report
	}

	if entry.Status == domain.ScheduleScheduled {
		if err := s.schedule.UpdateStatus(ctx, entry.ID, domain.ScheduleInProgress); err != nil {
			s.writeBackFailed(ctx, &report, writeBackSchedule, session, day, err)
		} else {
			report.ScheduleEntry = domain.WriteBackOK
		}
	}

	err = s.daily.SetActiveSession(ctx, session.UserID, day, session.ID)
	switch {
	case err == nil:
		report.DailyResolution = domain.WriteBackOK
	case errors.Is(err, domain.ErrNotFound):
		// not resolved yet; the resolver picks up the active session itself
	default:
		s.writeBackFailed(ctx, &report, writeBackDaily, session, day, err)
	}
	return report
}

func (s *SessionTracker) writeBackComplete(ctx context.Context, session *domain.WorkoutSession) domain.WriteBackReport {
	report := domain.WriteBackReport{ScheduleEntry: domain.WriteBackSkipped, DailyResolution: domain.WriteBackSkipped}
	day := domain.DayOf(s.clock, session.StartTime)

	entry, err := s.schedule.FindForDayAndItem(ctx, session.UserID, session.CatalogItemID, day)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.writeBackFailed(ctx, &report, writeBackSchedule, session, day, err)
		}
		return report
	}

	if err := s.schedule.MarkCompleted(ctx, entry.ID, session.ID, session.Metrics.Steps); err != nil {
		s.writeBackFailed(ctx, &report, writeBackSchedule, session, day, err)
	} else {
		report.ScheduleEntry = domain.WriteBackOK
	}

	err = s.daily.MarkCompleted(ctx, session.UserID, day, session.ID)
	switch {
	case err == nil:
		report.DailyResolution = domain.WriteBackOK
	case errors.Is(err, domain.ErrNotFound):
	default:
		s.writeBackFailed(ctx, &report, writeBackDaily, session, day, err)
	}
	return report
}

func (s *SessionTracker) writeBackFailed(ctx context.Context, report *domain.WriteBackReport, target string, session *domain.WorkoutSession, day time.Time, err error) {
	switch target {
	case writeBackSchedule:
		report.ScheduleEntry = domain.WriteBackFailed
	case writeBackDaily:
		report.DailyResolution = domain.WriteBackFailed
	}
	report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", target, err))
	s.metrics.WriteBackFailed(ctx, target)
	logger.Warn("session write-back failed",
		"target", target, "user_id", session.UserID, "session_id", session.ID,
		"date", day.Format("2006-01-02"), "err", err)
}

// archiveRoute stores the GPS route as a JSON object and records its URL on
// the session. Failures are logged only.
func (s *SessionTracker) archiveRoute(ctx context.Context, session *domain.WorkoutSession) {
	if s.files == nil || len(session.Metrics.Route) == 0 {
		return
	}

	body, err := json.Marshal(session.Metrics.Route)
	if err != nil {
		logger.Warn("route encode failed", "session_id", session.ID, "err", err)
		return
	}
	key := fmt.Sprintf("routes/%s/%s.json", session.UserID, session.SessionKey)
	url, err := s.files.Upload(ctx, body, key, "application/json")
	if err != nil {
		logger.Warn("route archive failed", "user_id", session.UserID, "session_id", session.ID, "err", err)
		return
	}
	if err := s.sessions.SetRouteArchive(ctx, session.ID, url); err != nil {
		logger.Warn("route archive url not saved", "session_id", session.ID, "err", err)
		return
	}
	session.RouteArchiveURL = url
}
