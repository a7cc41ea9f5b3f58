package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/observability"
)

func TestAlertEventPublisherPublishesToRedisChannel(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "scholarwatch:alerts")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewAlertEventPublisher(client, "scholarwatch", nil)
	require.NoError(t, publisher.Publish(observability.WithCorrelationID(ctx, "req-77"), AlertEventCreated, dto.PerformanceAlertResponse{ID: 12, AlertType: "attendance_low"}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event AlertEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, AlertEventCreated, event.Event)
	require.Equal(t, uint(12), event.Alert.ID)
	require.Equal(t, "req-77", event.CorrelationID)
	require.NotEmpty(t, event.Source)
	require.False(t, event.SentAt.IsZero())
}

func TestAlertEventPublisherWithoutTransportsIsNoop(t *testing.T) {
	publisher := NewAlertEventPublisher(nil, "", nil)
	require.NoError(t, publisher.Publish(context.Background(), "alert.resolved", dto.PerformanceAlertResponse{ID: 1}))
}
