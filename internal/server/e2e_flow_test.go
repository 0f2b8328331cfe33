package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/stride/internal/config"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/repository"
	"github.com/mansoorceksport/stride/internal/service"
	"github.com/mansoorceksport/stride/internal/testhelpers"
)

// TestGoldenPath drives the HTTP surface against a real MongoDB and a
// miniredis-backed cache.
func TestGoldenPath(t *testing.T) {
	db, cleanupDB := testhelpers.SetupTestDB(t)
	defer cleanupDB()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	ctx := context.Background()
	catalogRepo := repository.NewMongoCatalogRepository(db)
	for _, item := range service.SeedCatalogItems() {
		require.NoError(t, catalogRepo.Create(ctx, item))
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Timezone: "UTC"},
		Redis:  config.RedisConfig{CacheTTL: time.Minute},
		JWT:    config.JWTConfig{Secret: "test-secret-key-123", TTL: time.Hour},
	}
	mockAuth := testhelpers.NewMockAuthClient()
	clock := testhelpers.NewClock(time.Date(2026, 3, 11, 7, 30, 0, 0, time.UTC))

	api := &testAPI{
		auth:  mockAuth,
		clock: clock,
		app: NewApp(AppDependencies{
			Config:           cfg,
			MongoDB:          db,
			RedisClient:      redisClient,
			AuthClient:       mockAuth,
			Clock:            clock,
			DisableAccessLog: true,
		}),
	}

	// STEP 1: login registers a member
	token := api.login(t, "golden-token", "fb-golden", "golden@example.com")

	// STEP 2: profile and plan
	status, env, _ := api.do(t, "PUT", "/v1/me/profile", token, map[string]interface{}{
		"fitness_goals":      []string{"improve_endurance"},
		"fitness_level":      "intermediate",
		"daily_walking_time": "1_2_hours",
		"step_goal":          8000,
		"current_weight":     72,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, env, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{"weeks": 4})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	plan := decode[service.GeneratePlanResult](t, env.Data)
	assert.Len(t, plan.Plan.Assignments, 20)
	assert.Equal(t, 8000, plan.Plan.StepProgression.StartingSteps)

	// STEP 3: concurrent resolution converges on one record
	const callers = 8
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, env, _ := api.do(t, "GET", "/v1/me/today", token, nil)
			if status == fiber.StatusOK {
				ids[i] = decode[domain.DailyResolution](t, env.Data).ID
			}
		}(i)
	}
	wg.Wait()
	require.NotEmpty(t, ids[0])
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	status, env, _ = api.do(t, "GET", "/v1/me/today", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	today := decode[domain.DailyResolution](t, env.Data)
	require.NotNil(t, today.Workout)

	// STEP 4: start and complete the day's workout
	status, env, _ = api.do(t, "POST", "/v1/me/sessions", token, map[string]string{"catalog_item_id": today.CatalogItemID})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	started := decode[domain.SessionResult](t, env.Data)
	assert.Equal(t, domain.WriteBackOK, started.WriteBack.ScheduleEntry)

	clock.Advance(40 * time.Minute)
	status, env, _ = api.do(t, "POST", "/v1/me/sessions/"+started.Session.ID+"/complete", token, map[string]interface{}{
		"steps":           5400,
		"distance_meters": 3200,
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	completed := decode[domain.SessionResult](t, env.Data)
	assert.Equal(t, domain.WriteBackOK, completed.WriteBack.ScheduleEntry)
	assert.Equal(t, domain.WriteBackOK, completed.WriteBack.DailyResolution)

	status, env, _ = api.do(t, "GET", "/v1/me/schedule?from=2026-03-11&to=2026-03-11", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	entries := decode[[]domain.ScheduleEntry](t, env.Data)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ScheduleCompleted, entries[0].Status)
	assert.Equal(t, 5400, entries[0].ActualSteps)

	status, env, _ = api.do(t, "GET", "/v1/me/today", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, decode[domain.DailyResolution](t, env.Data).Completed)

	// STEP 5: forced regeneration keeps the completed day
	status, env, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{"weeks": 1, "force_regenerate": true})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, env, _ = api.do(t, "GET", "/v1/me/schedule?from=2026-03-11&to=2026-03-11", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	entries = decode[[]domain.ScheduleEntry](t, env.Data)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ScheduleCompleted, entries[0].Status)

	status, env, _ = api.do(t, "GET", "/v1/me/today", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, decode[domain.DailyResolution](t, env.Data).Completed)
}
