package repository

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/testhelpers"
)

// countingDailyRepo counts reads that reach the backing store.
type countingDailyRepo struct {
	*testhelpers.DailyRepo
	reads int32
}

func (r *countingDailyRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*domain.DailyResolution, error) {
	atomic.AddInt32(&r.reads, 1)
	return r.DailyRepo.GetByUserAndDate(ctx, userID, date)
}

func newCachedDaily(t *testing.T) (*CachedDailyResolutionRepository, *countingDailyRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &countingDailyRepo{DailyRepo: testhelpers.NewDailyRepo()}
	return NewCachedDailyResolutionRepository(store, NewRedisCacheRepository(client), time.Minute), store, mr
}

func TestCachedDaily_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo, store, _ := newCachedDaily(t)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	_, err := repo.GetByUserAndDate(ctx, "u1", day)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created, err := repo.InsertIfAbsent(ctx, &domain.DailyResolution{UserID: "u1", Date: day, CatalogItemID: "item-1", TargetSteps: 6000})
	require.NoError(t, err)

	first, err := repo.GetByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	second, err := repo.GetByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "item-1", second.CatalogItemID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&store.reads), "miss, miss, then hit")

	require.NoError(t, repo.MarkCompleted(ctx, "u1", day, "session-1"))
	after, err := repo.GetByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Equal(t, "session-1", after.CompletedSessionID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&store.reads))
}

// cachedDays lists cached day records, leaving out version counters.
func cachedDays(mr *miniredis.Miniredis) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, dailyKeyPrefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// interleavedDailyRepo runs afterRead once, between loading a record and
// handing it back, to stage a write that lands mid-fill.
type interleavedDailyRepo struct {
	*testhelpers.DailyRepo
	afterRead func()
}

func (r *interleavedDailyRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*domain.DailyResolution, error) {
	res, err := r.DailyRepo.GetByUserAndDate(ctx, userID, date)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return res, err
}

func TestCachedDaily_WriteDuringFillIsNotMasked(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	store := &interleavedDailyRepo{DailyRepo: testhelpers.NewDailyRepo()}
	repo := NewCachedDailyResolutionRepository(store, NewRedisCacheRepository(client), time.Minute)
	_, err := repo.InsertIfAbsent(ctx, &domain.DailyResolution{UserID: "u1", Date: day, CatalogItemID: "item"})
	require.NoError(t, err)

	store.afterRead = func() {
		require.NoError(t, repo.MarkCompleted(ctx, "u1", day, "session-1"))
	}
	stale, err := repo.GetByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.False(t, stale.Completed, "this read loaded the record before the write")
	assert.Empty(t, cachedDays(mr), "the superseded fill is not cached")

	fresh, err := repo.GetByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.True(t, fresh.Completed)
	assert.Equal(t, "session-1", fresh.CompletedSessionID)
}

func TestCachedDaily_DeleteFromEvictsUserDays(t *testing.T) {
	ctx := context.Background()
	repo, store, mr := newCachedDaily(t)
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		day := monday.AddDate(0, 0, i)
		_, err := repo.InsertIfAbsent(ctx, &domain.DailyResolution{UserID: "u1", Date: day, CatalogItemID: "item"})
		require.NoError(t, err)
		_, err = repo.GetByUserAndDate(ctx, "u1", day)
		require.NoError(t, err)
	}
	_, err := repo.InsertIfAbsent(ctx, &domain.DailyResolution{UserID: "u2", Date: monday, CatalogItemID: "item"})
	require.NoError(t, err)
	_, err = repo.GetByUserAndDate(ctx, "u2", monday)
	require.NoError(t, err)
	assert.Len(t, cachedDays(mr), 4)

	n, err := repo.DeleteFrom(ctx, "u1", monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{dailyKey("u2", monday)}, cachedDays(mr), "only the other user's day stays cached")

	_, err = repo.GetByUserAndDate(ctx, "u1", monday.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, store.Len())
}

func TestCachedDaily_RedisDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedDaily(t)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	_, err := repo.InsertIfAbsent(ctx, &domain.DailyResolution{UserID: "u1", Date: day, CatalogItemID: "item"})
	require.NoError(t, err)
	mr.Close()

	res, err := repo.GetByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.Equal(t, "item", res.CatalogItemID)
	require.NoError(t, repo.SetActiveSession(ctx, "u1", day, "session-1"))
}
