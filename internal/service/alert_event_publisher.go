package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/observability"
)

// AlertEventCreated is published when the engine opens a new alert. Transitions publish
// "alert.<status>".
const AlertEventCreated = "alert.created"

// AlertEvent is the payload consumed by the notification layer.
type AlertEvent struct {
	Source        string                       `json:"source"`
	Event         string                       `json:"event"`
	CorrelationID string                       `json:"correlation_id,omitempty"`
	Alert         dto.PerformanceAlertResponse `json:"alert"`
	SentAt        time.Time                    `json:"sent_at"`
}

// AlertEventPublisher fans alert events out to downstream consumers.
type AlertEventPublisher interface {
	Publish(ctx context.Context, event string, alert dto.PerformanceAlertResponse) error
}

type alertEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	now          func() time.Time
}

// NewAlertEventPublisher publishes to a Redis channel and/or NATS subject derived from channelBase.
// Either client may be nil.
func NewAlertEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn) AlertEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":alerts"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".alerts"
	}

	return &alertEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (p *alertEventPublisher) Publish(ctx context.Context, event string, alert dto.PerformanceAlertResponse) error {
	payload, err := json.Marshal(AlertEvent{
		Source:        p.nodeID,
		Event:         event,
		CorrelationID: observability.CorrelationID(ctx),
		Alert:         alert,
		SentAt:        p.now().UTC(),
	})
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func transitionEvent(status models.AlertStatus) string {
	return "alert." + string(status)
}

// publishAlertEvent is best effort: delivery failures are logged and never fail the operation.
func publishAlertEvent(ctx context.Context, publisher AlertEventPublisher, logger zerolog.Logger, event string, alert dto.PerformanceAlertResponse) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event, alert); err != nil {
		logger.Warn().Err(err).Str("event", event).Uint("alert_id", alert.ID).Msg("failed to publish alert event")
	}
}
