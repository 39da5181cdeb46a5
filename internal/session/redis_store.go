package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore persists sessions in Redis with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore wraps a Redis client. A non-positive TTL defaults to 24h.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("leadassistant.internal.session")
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: tracer,
	}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal %s: %w", sess.ID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist %s: %w", sess.ID, err)
	}
	return nil
}

func sessionKey(id string) string {
	return "session:" + id
}
