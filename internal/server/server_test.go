package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/stride/internal/config"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/service"
	"github.com/mansoorceksport/stride/internal/testhelpers"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
	Meta    struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type testAPI struct {
	app     *fiber.App
	auth    *testhelpers.MockAuthClient
	catalog *testhelpers.CatalogRepo
	repos   *Repositories
	clock   *testhelpers.Clock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	api := &testAPI{
		auth:    testhelpers.NewMockAuthClient(),
		catalog: testhelpers.NewCatalogRepo(),
		clock:   testhelpers.NewClock(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)),
	}
	api.repos = &Repositories{
		Users:       testhelpers.NewUserRepo(),
		Profiles:    testhelpers.NewProfileRepo(),
		Catalog:     api.catalog,
		Plans:       testhelpers.NewPlanRepo(),
		Schedule:    testhelpers.NewScheduleRepo(),
		Daily:       testhelpers.NewDailyRepo(),
		Sessions:    testhelpers.NewSessionRepo(),
		Challenges:  testhelpers.NewChallengeRepo(),
		Enrollments: testhelpers.NewEnrollmentRepo(),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Timezone: "UTC"},
		JWT:    config.JWTConfig{Secret: "server-test-secret", TTL: time.Hour},
	}
	api.app = NewApp(AppDependencies{
		Config:           cfg,
		RedisClient:      rdb,
		AuthClient:       api.auth,
		FileStore:        testhelpers.NewFileStore(),
		ExerciseSource:   &testhelpers.ExerciseSource{},
		Clock:            api.clock,
		Repositories:     api.repos,
		DisableAccessLog: true,
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (int, envelope, *fiberResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, 5000)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env, &fiberResponse{raw: raw, replay: resp.Header.Get("X-Idempotent-Replay")}
}

type fiberResponse struct {
	raw    []byte
	replay string
}

func (a *testAPI) login(t *testing.T, idToken, uid, email string) string {
	t.Helper()
	a.auth.AddMockUser(idToken, uid, email)
	status, env, _ := a.do(t, "POST", "/v1/auth/login", idToken, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	require.NotEmpty(t, env.Token)
	return env.Token
}

func (a *testAPI) seedWalks(t *testing.T, n int) {
	t.Helper()
	for _, item := range service.SeedCatalogItems()[:n] {
		require.NoError(t, a.catalog.Create(context.Background(), item))
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp, err := api.app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAuthBoundaries(t *testing.T) {
	api := newTestAPI(t)

	status, _, _ := api.do(t, "GET", "/v1/me/today", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env, _ := api.do(t, "POST", "/v1/auth/login", "forged", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)

	token := api.login(t, "member-token", "fb-member", "member@example.com")

	status, _, _ = api.do(t, "GET", "/v1/catalog", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _, _ = api.do(t, "POST", "/v1/catalog", token, map[string]interface{}{"name": "Sneaky Walk", "duration": 10})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestAdminCatalogWrites(t *testing.T) {
	api := newTestAPI(t)
	admin := &domain.User{Email: "admin@example.com", Name: "Admin", Roles: []string{domain.RoleAdmin}}
	require.NoError(t, api.repos.Users.Create(context.Background(), admin))
	token := api.login(t, "admin-token", "fb-admin", "admin@example.com")

	status, env, _ := api.do(t, "POST", "/v1/catalog", token, map[string]interface{}{
		"name":      "Lakeside Loop",
		"category":  "beginner",
		"intensity": "light",
		"duration":  25,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	created := decode[domain.WorkoutCatalogItem](t, env.Data)
	assert.Equal(t, domain.WorkoutTypeWalk, created.Type)

	status, _, _ = api.do(t, "POST", "/v1/catalog", token, map[string]interface{}{
		"name": "Lakeside Loop", "category": "beginner", "intensity": "light", "duration": 25,
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, env, _ = api.do(t, "PUT", "/v1/catalog/"+created.ID, token, map[string]interface{}{
		"name": "Lakeside Loop", "category": "beginner", "intensity": "light", "duration": 30,
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.Equal(t, 30, decode[domain.WorkoutCatalogItem](t, env.Data).Duration)

	status, _, _ = api.do(t, "GET", "/v1/catalog?intensity=extreme", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestWalkingDayFlow(t *testing.T) {
	api := newTestAPI(t)
	api.seedWalks(t, 6)
	token := api.login(t, "walker-token", "fb-walker", "walker@example.com")

	status, _, _ := api.do(t, "GET", "/v1/me/profile", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusNotFound, status, "plan needs a profile")

	status, env, _ := api.do(t, "PUT", "/v1/me/profile", token, map[string]interface{}{
		"fitness_goals":      []string{"lose_weight"},
		"fitness_level":      "beginner",
		"daily_walking_time": "20_60_mins",
		"current_weight":     80,
		"height":             180,
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, env, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{"weeks": 2})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	generated := decode[service.GeneratePlanResult](t, env.Data)
	assert.Equal(t, "2-Week Walking Plan for lose weight", generated.Plan.Name)
	assert.Len(t, generated.Plan.Assignments, 10)

	status, env, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{"weeks": 2})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, generated.Plan.ID, decode[service.GeneratePlanResult](t, env.Data).Plan.ID)

	status, _, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{"weeks": 60, "force_regenerate": true})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env, _ = api.do(t, "GET", "/v1/me/today", token, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	today := decode[domain.DailyResolution](t, env.Data)
	require.NotNil(t, today.Workout)
	assert.Equal(t, today.CatalogItemID, today.Workout.ID)

	status, env, _ = api.do(t, "GET", "/v1/me/schedule", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]domain.ScheduleEntry](t, env.Data), 6, "Monday through next Monday")

	status, _, _ = api.do(t, "GET", "/v1/me/schedule?from=09-03-2026", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env, first := api.do(t, "POST", "/v1/me/sessions", token,
		map[string]string{"catalog_item_id": today.CatalogItemID}, "X-Correlation-ID", "start-1")
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	started := decode[domain.SessionResult](t, env.Data)
	assert.Equal(t, domain.WriteBackOK, started.WriteBack.ScheduleEntry)
	assert.Equal(t, domain.WriteBackOK, started.WriteBack.DailyResolution)

	status, _, replayed := api.do(t, "POST", "/v1/me/sessions", token,
		map[string]string{"catalog_item_id": today.CatalogItemID}, "X-Correlation-ID", "start-1")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "true", replayed.replay)
	assert.JSONEq(t, string(first.raw), string(replayed.raw))

	api.clock.Advance(10 * time.Minute)
	status, env, _ = api.do(t, "PUT", "/v1/me/sessions/"+started.Session.ID, token, map[string]interface{}{
		"steps": 1300,
		"route": []map[string]interface{}{{"latitude": 51.5, "longitude": -0.12, "timestamp": api.clock.Now()}},
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	progress := decode[domain.SessionResult](t, env.Data)
	assert.Equal(t, domain.SessionInProgress, progress.Session.Status)
	assert.Equal(t, 1300, progress.Session.Metrics.Steps)
	assert.Len(t, progress.Session.Metrics.Route, 1)

	status, _, _ = api.do(t, "PUT", "/v1/me/sessions/"+started.Session.ID, token, map[string]interface{}{"steps": -5})
	assert.Equal(t, fiber.StatusBadRequest, status)

	api.clock.Advance(15 * time.Minute)
	status, env, _ = api.do(t, "POST", "/v1/me/sessions/"+started.Session.ID+"/complete", token, map[string]interface{}{
		"steps":           3200,
		"distance_meters": 2000,
		"calories":        120,
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	completed := decode[domain.SessionResult](t, env.Data)
	assert.Equal(t, domain.SessionCompleted, completed.Session.Status)
	assert.Equal(t, 1500, completed.Session.DurationSeconds)
	assert.InDelta(t, 750, completed.Session.Metrics.AveragePace, 0.001)
	assert.True(t, completed.WriteBack.OK())

	status, _, _ = api.do(t, "POST", "/v1/me/sessions/"+started.Session.ID+"/complete", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env, _ = api.do(t, "GET", "/v1/me/today", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, decode[domain.DailyResolution](t, env.Data).Completed)

	status, env, _ = api.do(t, "GET", "/v1/me/sessions?status=completed", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(1), env.Meta.Total)

	other := api.login(t, "other-token", "fb-other", "other@example.com")
	status, _, _ = api.do(t, "GET", "/v1/me/sessions/"+started.Session.ID, other, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestProfileDelete(t *testing.T) {
	api := newTestAPI(t)
	api.seedWalks(t, 6)
	token := api.login(t, "walker-token", "fb-walker", "walker@example.com")

	status, env, _ := api.do(t, "PUT", "/v1/me/profile", token, map[string]interface{}{"fitness_level": "beginner"})
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	status, env, _ = api.do(t, "POST", "/v1/me/plan", token, map[string]interface{}{"weeks": 1})
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, env, _ = api.do(t, "DELETE", "/v1/me/profile", token, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.True(t, decode[service.ProfileDeleteResult](t, env.Data).PlanRetired)

	status, _, _ = api.do(t, "GET", "/v1/me/profile", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _, _ = api.do(t, "GET", "/v1/me/plan", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _, _ = api.do(t, "DELETE", "/v1/me/profile", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestChallengeRoutes(t *testing.T) {
	api := newTestAPI(t)
	for _, tmpl := range service.WalkingChallengeTemplates() {
		def := tmpl
		require.NoError(t, api.repos.Challenges.Create(context.Background(), &def))
	}
	token := api.login(t, "walker-token", "fb-walker", "walker@example.com")

	status, env, _ := api.do(t, "GET", "/v1/challenges", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]domain.ChallengeDefinition](t, env.Data), 5)

	status, env, _ = api.do(t, "POST", "/v1/me/challenges/daily_steps-28/enroll", token, nil)
	require.Equal(t, fiber.StatusCreated, status, env.Error)

	status, _, _ = api.do(t, "POST", "/v1/me/challenges/daily_steps-28/enroll", token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env, _ = api.do(t, "POST", "/v1/me/challenges/daily_steps-28/progress", token, map[string]interface{}{"day": 1, "value": 12000})
	require.Equal(t, fiber.StatusOK, status, env.Error)
	enrollment := decode[domain.ChallengeEnrollment](t, env.Data)
	assert.True(t, enrollment.DailyProgress[0].IsCompleted)

	status, _, _ = api.do(t, "POST", "/v1/me/challenges/daily_steps-28/progress", token, map[string]interface{}{"day": 29, "value": 1})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _, _ = api.do(t, "POST", "/v1/me/challenges/unknown/enroll", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env, _ = api.do(t, "PUT", "/v1/me/challenges/daily_steps-28/status", token, map[string]string{"status": "abandoned"})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	status, env, _ = api.do(t, "GET", "/v1/me/challenges?status=abandoned", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]domain.ChallengeEnrollment](t, env.Data), 1)
}
