package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
)

// Scheduler turns plan assignments into dated schedule entries and keeps the
// per-day daily workout records in step with them.
type Scheduler struct {
	schedule domain.ScheduleRepository
	daily    domain.DailyResolutionRepository
	sessions domain.WorkoutSessionRepository
	clock    domain.Clock
}

func NewScheduler(
	schedule domain.ScheduleRepository,
	daily domain.DailyResolutionRepository,
	sessions domain.WorkoutSessionRepository,
	clock domain.Clock,
) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		daily:    daily,
		sessions: sessions,
		clock:    clock,
	}
}

// Materialize writes one schedule entry per assignment, dated from the Monday
// on or before the plan start. A day that already holds a live entry keeps
// it; the stored entry is returned in its place. Entries dated today or later
// also get their daily workout record.
func (s *Scheduler) Materialize(ctx context.Context, plan *domain.PersonalizedPlan) ([]*domain.ScheduleEntry, error) {
	anchor := domain.WeekAnchor(plan.StartDate)
	today := domain.Today(s.clock)
	now := s.clock.Now()

	entries := make([]*domain.ScheduleEntry, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		entry := &domain.ScheduleEntry{
			UserID:        plan.UserID,
			PlanID:        plan.ID,
			CatalogItemID: a.CatalogItemID,
			Date:          ScheduledDate(anchor, a),
			Week:          a.Week,
			Day:           a.Day,
			Status:        domain.ScheduleScheduled,
			TargetSteps:   plan.StepProgression.TargetForWeek(a.Week),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		stored, err := s.schedule.UpsertForDay(ctx, entry)
		if err != nil {
			return entries, fmt.Errorf("failed to schedule week %d day %d: %w", a.Week, a.Day, err)
		}
		entries = append(entries, stored)

		if stored.Date.Before(today) {
			continue
		}
		if err := s.project(ctx, stored); err != nil {
			return entries, err
		}
	}
	return entries, nil
}

// project upserts the daily workout for a schedule entry.
func (s *Scheduler) project(ctx context.Context, entry *domain.ScheduleEntry) error {
	res := domain.FromScheduleEntry(entry)
	res.CreatedAt = s.clock.Now()
	res.UpdatedAt = res.CreatedAt

	if entry.Status == domain.ScheduleInProgress {
		res.ActiveSessionID = s.activeSessionID(ctx, entry)
	}

	if _, err := s.daily.Upsert(ctx, res); err != nil {
		return fmt.Errorf("failed to project daily workout for %s: %w", entry.Date.Format("2006-01-02"), err)
	}
	return nil
}

func (s *Scheduler) activeSessionID(ctx context.Context, entry *domain.ScheduleEntry) string {
	session, err := s.sessions.FindActive(ctx, entry.UserID, entry.CatalogItemID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("active session lookup failed", "user_id", entry.UserID, "err", err)
		}
		return ""
	}
	return session.ID
}

// Supersede clears the way for a new plan: scheduled entries from today on
// are cancelled with reason and the daily records from today on are dropped.
// Past, in-progress and completed entries are left alone.
func (s *Scheduler) Supersede(ctx context.Context, userID, reason string) error {
	today := domain.Today(s.clock)

	cancelled, err := s.schedule.CancelScheduledFrom(ctx, userID, today, reason)
	if err != nil {
		return fmt.Errorf("failed to cancel scheduled workouts: %w", err)
	}
	removed, err := s.daily.DeleteFrom(ctx, userID, today)
	if err != nil {
		return fmt.Errorf("failed to clear daily workouts: %w", err)
	}

	logger.Info("superseded schedule", "user_id", userID, "cancelled", cancelled, "daily_removed", removed)
	return nil
}

// List returns schedule entries; the window defaults to today through a
// week from today.
func (s *Scheduler) List(ctx context.Context, userID string, filter domain.ScheduleFilter) ([]*domain.ScheduleEntry, error) {
	today := domain.Today(s.clock)
	if filter.From.IsZero() {
		filter.From = today
	}
	if filter.To.IsZero() {
		filter.To = filter.From.AddDate(0, 0, 7)
	}
	if filter.To.Before(filter.From) {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "to must not be before from")
	}
	switch filter.Status {
	case "", domain.ScheduleScheduled, domain.ScheduleInProgress, domain.ScheduleCompleted, domain.ScheduleCancelled:
	default:
		return nil, domain.NewKindError(domain.ErrInvalidInput, "unknown schedule status")
	}
	return s.schedule.List(ctx, userID, filter)
}
