package middleware

import (
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/testhelpers"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims domain.StrideClaims, method jwt.SigningMethod, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func claimsAt(now time.Time, roles ...string) domain.StrideClaims {
	return domain.StrideClaims{
		UserID: "user-1",
		Email:  "walker@example.com",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func newAuthApp(clock domain.Clock, roles ...string) *fiber.App {
	app := fiber.New()
	guarded := app.Group("/v1", VerifyToken(testSecret, clock))
	guarded.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c))
	})
	guarded.Post("/admin", AuthorizeRole(roles...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestVerifyToken(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	clock := testhelpers.NewClock(now)
	app := newAuthApp(clock, domain.RoleAdmin)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", fiber.StatusUnauthorized, ""},
		{"valid", "Bearer " + signToken(t, claimsAt(now, domain.RoleMember), jwt.SigningMethodHS256, testSecret), fiber.StatusOK, "user-1"},
		{"wrong secret", "Bearer " + signToken(t, claimsAt(now), jwt.SigningMethodHS256, "other"), fiber.StatusUnauthorized, ""},
		{"wrong algorithm", "Bearer " + signToken(t, claimsAt(now), jwt.SigningMethodHS512, testSecret), fiber.StatusUnauthorized, ""},
		{"expired by clock", "Bearer " + signToken(t, claimsAt(now.Add(-2*time.Hour)), jwt.SigningMethodHS256, testSecret), fiber.StatusUnauthorized, ""},
		{"garbage", "Bearer not-a-token", fiber.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.body, string(body))
			}
		})
	}
}

func TestAuthorizeRole(t *testing.T) {
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	clock := testhelpers.NewClock(now)
	app := newAuthApp(clock, domain.RoleAdmin)

	member := signToken(t, claimsAt(now, domain.RoleMember), jwt.SigningMethodHS256, testSecret)
	admin := signToken(t, claimsAt(now, domain.RoleMember, domain.RoleAdmin), jwt.SigningMethodHS256, testSecret)

	req := httptest.NewRequest("POST", "/v1/admin", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("POST", "/v1/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestIdempotencyReplaysSuccessfulResponses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var calls int32
	app := fiber.New()
	app.Use(Idempotency(rdb, time.Minute))
	app.Post("/sessions", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n})
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nope"})
	})

	send := func(path, correlationID string) (int, string, string) {
		req := httptest.NewRequest("POST", path, nil)
		if correlationID != "" {
			req.Header.Set("X-Correlation-ID", correlationID)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body), resp.Header.Get("X-Idempotent-Replay")
	}

	status, body, replay := send("/sessions", "abc")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, `{"call":1}`, body)
	assert.Empty(t, replay)

	status, body, replay = send("/sessions", "abc")
	assert.Equal(t, fiber.StatusCreated, status, "replay keeps the original status")
	assert.JSONEq(t, `{"call":1}`, body)
	assert.Equal(t, "true", replay)
	assert.Equal(t, "201", mr.HGet("idempotency::/sessions:abc", "status"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, body, _ = send("/sessions", "")
	assert.JSONEq(t, `{"call":2}`, body)

	send("/fail", "xyz")
	send("/fail", "xyz")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))

	mr.FastForward(2 * time.Minute)
	_, body, _ = send("/sessions", "abc")
	assert.JSONEq(t, `{"call":5}`, body)
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(RequestIDKey).(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	generated := resp.Header.Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, generated, string(body))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "caller-id", resp.Header.Get(RequestIDHeader))
}
