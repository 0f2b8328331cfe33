package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
)

const (
	dailyKeyPrefix     = "daily:user:"
	dailyVersionPrefix = "daily:version:"
)

// CachedDailyResolutionRepository adds a Redis read-through cache for the
// per-day lookup. Every write bumps the user's version and evicts the
// affected day. A fill only lands if the version it read before loading is
// still current, so a read racing a write cannot cache the old record.
// Cache errors never fail a call.
type CachedDailyResolutionRepository struct {
	store domain.DailyResolutionRepository
	cache *RedisCacheRepository
	ttl   time.Duration
}

func NewCachedDailyResolutionRepository(store domain.DailyResolutionRepository, cache *RedisCacheRepository, ttl time.Duration) *CachedDailyResolutionRepository {
	return &CachedDailyResolutionRepository{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

func dailyKey(userID string, date time.Time) string {
	return fmt.Sprintf("%s%s:%d", dailyKeyPrefix, userID, date.Unix())
}

func dailyVersionKey(userID string) string {
	return dailyVersionPrefix + userID
}

func (r *CachedDailyResolutionRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*domain.DailyResolution, error) {
	key := dailyKey(userID, date)

	var cached domain.DailyResolution
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		cached.Workout = nil
		return &cached, nil
	}

	version, versionErr := r.cache.Version(ctx, dailyVersionKey(userID))
	res, err := r.store.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	if versionErr == nil {
		_ = r.cache.SetIfVersion(ctx, key, dailyVersionKey(userID), version, res, r.ttl)
	}
	return res, nil
}

func (r *CachedDailyResolutionRepository) Upsert(ctx context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	defer r.evict(ctx, res.UserID, res.Date)
	return r.store.Upsert(ctx, res)
}

func (r *CachedDailyResolutionRepository) InsertIfAbsent(ctx context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	defer r.evict(ctx, res.UserID, res.Date)
	return r.store.InsertIfAbsent(ctx, res)
}

func (r *CachedDailyResolutionRepository) RepairReference(ctx context.Context, id, catalogItemID, scheduleEntryID string) (*domain.DailyResolution, error) {
	res, err := r.store.RepairReference(ctx, id, catalogItemID, scheduleEntryID)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, res.UserID, res.Date)
	return res, nil
}

func (r *CachedDailyResolutionRepository) SetActiveSession(ctx context.Context, userID string, date time.Time, sessionID string) error {
	defer r.evict(ctx, userID, date)
	return r.store.SetActiveSession(ctx, userID, date, sessionID)
}

func (r *CachedDailyResolutionRepository) MarkCompleted(ctx context.Context, userID string, date time.Time, sessionID string) error {
	defer r.evict(ctx, userID, date)
	return r.store.MarkCompleted(ctx, userID, date, sessionID)
}

func (r *CachedDailyResolutionRepository) List(ctx context.Context, userID string, from, to time.Time) ([]*domain.DailyResolution, error) {
	return r.store.List(ctx, userID, from, to)
}

func (r *CachedDailyResolutionRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.DailyResolution, error) {
	return r.store.ListByDate(ctx, date)
}

func (r *CachedDailyResolutionRepository) DeleteFrom(ctx context.Context, userID string, from time.Time) (int64, error) {
	defer func() {
		_ = r.cache.Bump(ctx, dailyVersionKey(userID))
		_ = r.cache.DeleteByPattern(ctx, dailyKeyPrefix+userID+":*")
	}()
	return r.store.DeleteFrom(ctx, userID, from)
}

func (r *CachedDailyResolutionRepository) evict(ctx context.Context, userID string, date time.Time) {
	_ = r.cache.Bump(ctx, dailyVersionKey(userID))
	_ = r.cache.Delete(ctx, dailyKey(userID, date))
}
