package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleFill means a write landed while the value was being loaded,
	// so the fill was dropped.
	ErrStaleFill = errors.New("cache fill superseded by a write")
)

const (
	scanBatch  = 100
	versionTTL = 7 * 24 * time.Hour
)

// RedisCacheRepository is a JSON cache over Redis with OTel spans per call.
type RedisCacheRepository struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
		tracer: otel.Tracer("stride/redis-cache"),
	}
}

func (r *RedisCacheRepository) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "cache."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("db.system", "redis"))...),
	)
}

// Get decodes the value at key into dest, or returns ErrCacheMiss.
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	ctx, span := r.span(ctx, "get", attribute.String("cache.key", key))
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return ErrCacheMiss
	case err != nil:
		span.RecordError(err)
		return fmt.Errorf("cache get %s: %w", key, err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	if err := json.Unmarshal(data, dest); err != nil {
		// A payload that no longer decodes is dropped and treated as a miss.
		span.RecordError(err)
		_ = r.client.Del(ctx, key).Err()
		return ErrCacheMiss
	}
	return nil
}

// Set stores value as JSON under key for ttl.
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := r.span(ctx, "set",
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl_seconds", int64(ttl/time.Second)),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, span := r.span(ctx, "delete", attribute.Int("cache.key_count", len(keys)))
	defer span.End()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// DeleteByPattern walks matching keys with SCAN and unlinks them page by
// page, so a large match never builds one huge key list.
func (r *RedisCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	ctx, span := r.span(ctx, "delete_pattern", attribute.String("cache.pattern", pattern))
	defer span.End()

	var cursor uint64
	removed := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				span.RecordError(err)
				return fmt.Errorf("cache unlink: %w", err)
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	span.SetAttributes(attribute.Int("cache.removed", removed))
	return nil
}

// Version reads the write counter at versionKey. A missing counter reads 0.
func (r *RedisCacheRepository) Version(ctx context.Context, versionKey string) (int64, error) {
	v, err := r.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version %s: %w", versionKey, err)
	}
	return v, nil
}

// Bump advances the write counter at versionKey, failing any fill that read
// the previous value.
func (r *RedisCacheRepository) Bump(ctx context.Context, versionKey string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache bump %s: %w", versionKey, err)
	}
	return nil
}

// SetIfVersion stores value under key only while versionKey still holds
// version, i.e. no write happened since the caller read it. Otherwise it
// returns ErrStaleFill.
func (r *RedisCacheRepository) SetIfVersion(ctx context.Context, key, versionKey string, version int64, value interface{}, ttl time.Duration) error {
	ctx, span := r.span(ctx, "set_if_version",
		attribute.String("cache.key", key),
		attribute.Int64("cache.version", version),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return ErrStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleFill), errors.Is(err, redis.TxFailedErr):
		span.SetAttributes(attribute.Bool("cache.stale_fill", true))
		return ErrStaleFill
	default:
		span.RecordError(err)
		return fmt.Errorf("cache set %s: %w", key, err)
	}
}
