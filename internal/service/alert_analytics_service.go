package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/monitoring"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
)

// AlertAnalyticsService rolls up a foundation's alerts for dashboards.
type AlertAnalyticsService interface {
	GetAnalytics(ctx context.Context, foundationID uint) (dto.AlertAnalyticsResponse, error)
}

type alertAnalyticsService struct {
	alerts          repository.PerformanceAlertRepository
	foundations     repository.FoundationRepository
	defaultLocation *time.Location
	logger          zerolog.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

// NewAlertAnalyticsService constructs the analytics service. defaultTimeZone applies to
// foundations that have not configured their own; an unknown zone falls back to UTC.
func NewAlertAnalyticsService(alerts repository.PerformanceAlertRepository, foundations repository.FoundationRepository, defaultTimeZone string, logger zerolog.Logger) AlertAnalyticsService {
	svcLogger := logger.With().Str("component", "alert_analytics_service").Logger()

	location := time.UTC
	if defaultTimeZone != "" {
		loaded, err := time.LoadLocation(defaultTimeZone)
		if err != nil {
			svcLogger.Warn().Err(err).Str("time_zone", defaultTimeZone).Msg("unknown default time zone, using UTC")
		} else {
			location = loaded
		}
	}

	return &alertAnalyticsService{
		alerts:          alerts,
		foundations:     foundations,
		defaultLocation: location,
		logger:          svcLogger,
		tracer:          otel.Tracer("github.com/noah-isme/scholarwatch-api/internal/service/alert_analytics"),
		now:             time.Now,
	}
}

// GetAnalytics is computed from storage on every call so counts are never stale.
func (s *alertAnalyticsService) GetAnalytics(ctx context.Context, foundationID uint) (dto.AlertAnalyticsResponse, error) {
	if foundationID == 0 {
		return dto.AlertAnalyticsResponse{}, ErrFoundationRequired
	}

	ctx, span := s.tracer.Start(ctx, "alerts.analytics")
	span.SetAttributes(attribute.Int64("alerts.foundation_id", int64(foundationID)))
	defer span.End()

	location, err := s.locationFor(ctx, foundationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "foundation_lookup_failed")
		return dto.AlertAnalyticsResponse{}, err
	}

	now := s.now().UTC()
	dayStart, _ := monitoring.DayBounds(now, location)

	alerts, err := s.alerts.ListForAnalytics(ctx, foundationID, dayStart.UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert_query_failed")
		return dto.AlertAnalyticsResponse{}, err
	}
	span.SetAttributes(attribute.String("alerts.time_zone", location.String()))

	snapshot := monitoring.Summarize(alerts, now, location)
	return dto.AlertAnalyticsResponse{
		TotalActive:         snapshot.TotalActive,
		AcknowledgedCount:   snapshot.AcknowledgedCount,
		InProgressCount:     snapshot.InProgressCount,
		CriticalCount:       snapshot.CriticalCount,
		HighCount:           snapshot.HighCount,
		MediumCount:         snapshot.MediumCount,
		LowCount:            snapshot.LowCount,
		ResolvedToday:       snapshot.ResolvedToday,
		PerformanceAlerts:   snapshot.PerformanceAlerts,
		AttendanceAlerts:    snapshot.AttendanceAlerts,
		SessionMissedAlerts: snapshot.SessionMissedAlerts,
		TimeZone:            location.String(),
		GeneratedAt:         now,
	}, nil
}

func (s *alertAnalyticsService) locationFor(ctx context.Context, foundationID uint) (*time.Location, error) {
	if s.foundations == nil {
		return s.defaultLocation, nil
	}

	foundation, err := s.foundations.FindByID(ctx, foundationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.defaultLocation, nil
		}
		return nil, err
	}

	if foundation.TimeZone == "" {
		return s.defaultLocation, nil
	}

	location, err := time.LoadLocation(foundation.TimeZone)
	if err != nil {
		s.logger.Warn().Err(err).Uint("foundation_id", foundationID).Str("time_zone", foundation.TimeZone).Msg("invalid foundation time zone, using default")
		return s.defaultLocation, nil
	}
	return location, nil
}
