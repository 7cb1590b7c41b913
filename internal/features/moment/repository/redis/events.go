package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/platform/redis"
)

// EventStream appends lifecycle events to a capped redis stream for
// downstream notification consumers.
type EventStream struct {
	rdb    redis.RedisClient
	stream string
	maxLen int64
}

func NewEventStream(rdb redis.RedisClient, stream string, maxLen int64) *EventStream {
	return &EventStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (s *EventStream) Publish(ctx context.Context, e models.LifecycleEvent) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	values := map[string]interface{}{
		"type":        string(e.Type),
		"moment_id":   e.MomentID,
		"status":      string(e.Status),
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
	if e.ParticipantID != "" {
		values["participant_id"] = e.ParticipantID
	}
	if e.Wallet != "" {
		values["wallet"] = e.Wallet
	}

	args := &goredis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}
	return nil
}
