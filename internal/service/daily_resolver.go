package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
	"github.com/mansoorceksport/stride/internal/telemetry"
	"golang.org/x/sync/singleflight"
)

const sharedResolveTimeout = 10 * time.Second

// DailyResolver answers "what is my workout today" from the per-day daily
// workout record, creating it from the schedule on first read.
type DailyResolver struct {
	daily    domain.DailyResolutionRepository
	schedule domain.ScheduleRepository
	catalog  domain.CatalogRepository
	sessions domain.WorkoutSessionRepository
	clock    domain.Clock
	metrics  *telemetry.Metrics

	group singleflight.Group
}

func NewDailyResolver(
	daily domain.DailyResolutionRepository,
	schedule domain.ScheduleRepository,
	catalog domain.CatalogRepository,
	sessions domain.WorkoutSessionRepository,
	clock domain.Clock,
	metrics *telemetry.Metrics,
) *DailyResolver {
	return &DailyResolver{
		daily:    daily,
		schedule: schedule,
		catalog:  catalog,
		sessions: sessions,
		clock:    clock,
		metrics:  metrics,
	}
}

// ResolveToday returns today's daily workout with its catalog item attached.
// Concurrent calls for the same user and day inside this process share one
// lookup; across processes the store's unique (user, date) key keeps a
// single record.
func (r *DailyResolver) ResolveToday(ctx context.Context, userID string) (*domain.DailyResolution, error) {
	today := domain.Today(r.clock)
	key := userID + "|" + today.Format("2006-01-02")

	ch := r.group.DoChan(key, func() (interface{}, error) {
		// The lookup is shared, so it must outlive any single caller.
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedResolveTimeout)
		defer cancel()
		return r.resolve(shared, userID, today)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return nil, out.Err
		}
		return out.Val.(*domain.DailyResolution), nil
	}
}

func (r *DailyResolver) resolve(ctx context.Context, userID string, day time.Time) (*domain.DailyResolution, error) {
	res, err := r.daily.GetByUserAndDate(ctx, userID, day)
	switch {
	case err == nil:
		item, ok, err := r.lookupItem(ctx, res.CatalogItemID)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Workout = item
			return res, nil
		}
		repaired, err := r.reconcile(ctx, res)
		if err != nil {
			return nil, err
		}
		if repaired == nil {
			return nil, domain.ErrNothingScheduled
		}
		return repaired, nil
	case errors.Is(err, domain.ErrNotFound):
		return r.createFromSchedule(ctx, userID, day)
	default:
		return nil, fmt.Errorf("failed to load daily workout: %w", err)
	}
}

// lookupItem reports ok=false for an empty or dangling reference.
func (r *DailyResolver) lookupItem(ctx context.Context, id string) (*domain.WorkoutCatalogItem, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	item, err := r.catalog.GetByID(ctx, id)
	if err == nil {
		return item, true, nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("failed to load workout: %w", err)
}

// reconcile repairs a daily workout whose catalog reference is dangling,
// pointing it at the schedule entry for the same day. Precondition: res
// exists and its reference does not resolve. It returns nil when the
// schedule has nothing usable for that day.
func (r *DailyResolver) reconcile(ctx context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	entry, item, err := r.scheduledItem(ctx, res.UserID, res.Date)
	if err != nil || entry == nil {
		return nil, err
	}

	repaired, err := r.daily.RepairReference(ctx, res.ID, entry.CatalogItemID, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to repair daily workout: %w", err)
	}
	logger.Warn("repaired dangling daily workout reference",
		"user_id", res.UserID, "date", res.Date.Format("2006-01-02"),
		"stale_item", res.CatalogItemID, "item", entry.CatalogItemID)

	repaired.Workout = item
	return repaired, nil
}

// scheduledItem returns the day's live schedule entry and its catalog item,
// or nils when there is no entry or its item is gone too.
func (r *DailyResolver) scheduledItem(ctx context.Context, userID string, day time.Time) (*domain.ScheduleEntry, *domain.WorkoutCatalogItem, error) {
	entry, err := r.schedule.FindForDay(ctx, userID, day)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schedule entry: %w", err)
	}
	item, ok, err := r.lookupItem(ctx, entry.CatalogItemID)
	if err != nil || !ok {
		return nil, nil, err
	}
	return entry, item, nil
}

func (r *DailyResolver) createFromSchedule(ctx context.Context, userID string, day time.Time) (*domain.DailyResolution, error) {
	entry, err := r.schedule.FindForDay(ctx, userID, day)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNothingScheduled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule entry: %w", err)
	}

	res := domain.FromScheduleEntry(entry)
	if entry.Status == domain.ScheduleInProgress {
		active, err := r.sessions.FindActive(ctx, userID, entry.CatalogItemID)
		if err == nil {
			res.ActiveSessionID = active.ID
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load active session: %w", err)
		}
	}
	now := r.clock.Now()
	res.CreatedAt = now
	res.UpdatedAt = now

	stored, err := r.daily.InsertIfAbsent(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to create daily workout: %w", err)
	}
	r.metrics.ResolutionCreated(ctx)

	item, ok, err := r.lookupItem(ctx, stored.CatalogItemID)
	if err != nil {
		return nil, err
	}
	if ok {
		stored.Workout = item
	}
	return stored, nil
}

// ListDaily returns the daily workouts in [from, to] with their catalog items.
// Zero bounds default to the current Monday to Sunday week.
func (r *DailyResolver) ListDaily(ctx context.Context, userID string, from, to time.Time) ([]*domain.DailyResolution, error) {
	if from.IsZero() {
		from = domain.WeekAnchor(domain.Today(r.clock))
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 6)
	}
	if to.Before(from) {
		return nil, domain.NewKindError(domain.ErrInvalidInput, "to must not be before from")
	}

	records, err := r.daily.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.CatalogItemID != "" {
			ids = append(ids, rec.CatalogItemID)
		}
	}
	items, err := r.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load workouts: %w", err)
	}
	byID := make(map[string]*domain.WorkoutCatalogItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, rec := range records {
		rec.Workout = byID[rec.CatalogItemID]
	}
	return records, nil
}

type ReconcileOutcome string

const (
	ReconcileHealthy      ReconcileOutcome = "healthy"
	ReconcileRepaired     ReconcileOutcome = "repaired"
	ReconcileWouldRepair  ReconcileOutcome = "would_repair"
	ReconcileUnrepairable ReconcileOutcome = "unrepairable"
)

// ReconcileRecord runs the dangling-reference check on one stored record.
// With dryRun set nothing is written.
func (r *DailyResolver) ReconcileRecord(ctx context.Context, res *domain.DailyResolution, dryRun bool) (ReconcileOutcome, error) {
	_, ok, err := r.lookupItem(ctx, res.CatalogItemID)
	if err != nil {
		return "", err
	}
	if ok {
		return ReconcileHealthy, nil
	}

	if dryRun {
		entry, _, err := r.scheduledItem(ctx, res.UserID, res.Date)
		if err != nil {
			return "", err
		}
		if entry == nil {
			return ReconcileUnrepairable, nil
		}
		return ReconcileWouldRepair, nil
	}

	repaired, err := r.reconcile(ctx, res)
	if err != nil {
		return "", err
	}
	if repaired == nil {
		return ReconcileUnrepairable, nil
	}
	return ReconcileRepaired, nil
}

// ReconcileDay checks every daily workout dated on day.
func (r *DailyResolver) ReconcileDay(ctx context.Context, day time.Time, dryRun bool) (map[ReconcileOutcome]int, error) {
	records, err := r.daily.ListByDate(ctx, domain.DayOf(r.clock, day))
	if err != nil {
		return nil, err
	}
	counts := map[ReconcileOutcome]int{}
	for _, rec := range records {
		outcome, err := r.ReconcileRecord(ctx, rec, dryRun)
		if err != nil {
			return counts, fmt.Errorf("reconcile %s: %w", rec.ID, err)
		}
		counts[outcome]++
	}
	return counts, nil
}
