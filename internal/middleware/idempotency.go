package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/stride/internal/logger"
	"github.com/redis/go-redis/v9"
)

const idempotencyHeader = "X-Correlation-ID"

// Cached responses are hashes holding the original status and body.
const (
	fieldStatus = "status"
	fieldBody   = "body"
)

// Idempotency replays the cached response for a repeated X-Correlation-ID.
// Keys are scoped by the authenticated user so callers cannot replay each
// other's responses. Only 2xx responses are cached.
func Idempotency(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(idempotencyHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s:%s", GetUserID(c), c.Path(), correlationID)
		ctx := c.UserContext()

		cached, err := redisClient.HGetAll(ctx, key).Result()
		if err != nil {
			logger.Warn("idempotency lookup failed", "key", key, "err", err)
		} else if body := cached[fieldBody]; body != "" {
			status, convErr := strconv.Atoi(cached[fieldStatus])
			if convErr != nil {
				status = fiber.StatusOK
			}
			c.Set("X-Idempotent-Replay", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(status).SendString(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := append([]byte(nil), c.Response().Body()...)
			if len(body) > 0 {
				setCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, err := redisClient.TxPipelined(setCtx, func(pipe redis.Pipeliner) error {
					pipe.HSet(setCtx, key, fieldStatus, statusCode, fieldBody, body)
					pipe.Expire(setCtx, key, ttl)
					return nil
				})
				if err != nil {
					logger.Warn("idempotency store failed", "key", key, "err", err)
				}
			}
		}

		return nil
	}
}
