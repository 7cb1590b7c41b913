package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/features/moment/models"
)

func TestEventStream_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stream := NewEventStream(client, "moments:events", 100)
	ctx := context.Background()

	err := stream.Publish(ctx, models.LifecycleEvent{
		Type:          models.EventSigned,
		MomentID:      "m1",
		ParticipantID: "p1",
		Wallet:        "0xaaa",
		Status:        models.StatusPending,
		OccurredAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	msgs, err := client.XRange(ctx, "moments:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	v := msgs[0].Values
	assert.Equal(t, "moment.signed", v["type"])
	assert.Equal(t, "m1", v["moment_id"])
	assert.Equal(t, "p1", v["participant_id"])
	assert.Equal(t, "pending", v["status"])
	assert.Equal(t, "2026-01-02T03:04:05Z", v["occurred_at"])
}

func TestEventStream_PublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err := NewEventStream(client, "moments:events", 0).Publish(context.Background(), models.LifecycleEvent{Type: models.EventCreated, MomentID: "m1"})
	assert.Error(t, err)
}
