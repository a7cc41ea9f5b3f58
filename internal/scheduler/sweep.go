package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/observability"
)

// FoundationLister returns the foundations that have rules to evaluate.
type FoundationLister interface {
	ListFoundationIDs(ctx context.Context) ([]uint, error)
}

// AlertGenerator runs an evaluation for one foundation.
type AlertGenerator interface {
	GenerateAlerts(ctx context.Context, foundationID uint) (dto.GenerateAlertsResponse, error)
}

// SweepSummary aggregates one scheduled run across foundations.
type SweepSummary struct {
	Foundations int
	Failed      int
	Created     int
	Suppressed  int
}

// SweepScheduler periodically generates alerts for every foundation. Runs never overlap; a tick
// that fires while the previous run is still going is skipped.
type SweepScheduler struct {
	cron        *cron.Cron
	foundations FoundationLister
	alerts      AlertGenerator
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewSweepScheduler parses schedule, which is either a cron expression ("0 * * * *",
// "@hourly") or a Go duration ("30m").
func NewSweepScheduler(schedule string, foundations FoundationLister, alerts AlertGenerator, timeout time.Duration, logger zerolog.Logger) (*SweepScheduler, error) {
	spec, err := normalizeSchedule(schedule)
	if err != nil {
		return nil, err
	}

	log := logger.With().Str("component", "alert_sweep_scheduler").Logger()
	cronLogger := zerologCronLogger{logger: log}
	s := &SweepScheduler{
		cron:        cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		foundations: foundations,
		alerts:      alerts,
		timeout:     timeout,
		logger:      log,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func normalizeSchedule(schedule string) (string, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return "", fmt.Errorf("schedule is required")
	}

	if interval, err := time.ParseDuration(schedule); err == nil {
		if interval <= 0 {
			return "", fmt.Errorf("interval must be > 0")
		}
		return "@every " + interval.String(), nil
	}

	if strings.HasPrefix(schedule, "@") {
		return schedule, nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return "", fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return schedule, nil
}

// Start begins scheduling in the background.
func (s *SweepScheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("alert sweep scheduler started")
}

// Stop prevents new runs and waits for an in-flight run or ctx, whichever ends first.
func (s *SweepScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("alert sweep still running at shutdown")
	}
}

func (s *SweepScheduler) tick() {
	ctx := observability.WithCorrelationID(context.Background(), "sweep-"+uuid.NewString())
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled alert sweep failed")
	}
}

// RunOnce sweeps every foundation sequentially. A failing foundation is logged and counted; it
// does not stop the others.
func (s *SweepScheduler) RunOnce(ctx context.Context) (SweepSummary, error) {
	ids, err := s.foundations.ListFoundationIDs(ctx)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("list foundations: %w", err)
	}

	var summary SweepSummary
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Foundations++
		result, err := s.alerts.GenerateAlerts(ctx, id)
		if err != nil {
			summary.Failed++
			s.logger.Error().Err(err).
				Uint("foundation_id", id).
				Str("correlation_id", observability.CorrelationID(ctx)).
				Msg("foundation sweep failed")
			continue
		}
		summary.Created += result.AlertsCreated
		summary.Suppressed += result.AlertsSuppressed
	}

	s.logger.Info().
		Int("foundations", summary.Foundations).
		Int("failed", summary.Failed).
		Int("created", summary.Created).
		Int("suppressed", summary.Suppressed).
		Msg("alert sweep completed")

	return summary, nil
}

// zerologCronLogger adapts zerolog to cron.Logger.
type zerologCronLogger struct {
	logger zerolog.Logger
}

func (l zerologCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l zerologCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
