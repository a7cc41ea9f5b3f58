package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/monitoring"
	"github.com/noah-isme/scholarwatch-api/internal/observability"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
)

const defaultSweepConcurrency = 4

// PerformanceAlertService evaluates performance records into alerts and drives their lifecycle.
type PerformanceAlertService interface {
	GenerateAlerts(ctx context.Context, foundationID uint) (dto.GenerateAlertsResponse, error)
	EvaluateBeneficiary(ctx context.Context, foundationID, beneficiaryID uint) (dto.GenerateAlertsResponse, error)
	Acknowledge(ctx context.Context, alertID, foundationID uint) (dto.PerformanceAlertResponse, error)
	MarkInProgress(ctx context.Context, alertID, foundationID uint, payload dto.AlertProgressRequest) (dto.PerformanceAlertResponse, error)
	Resolve(ctx context.Context, alertID, foundationID uint, payload dto.AlertResolveRequest) (dto.PerformanceAlertResponse, error)
	List(ctx context.Context, foundationID uint, req dto.AlertListRequest) (dto.AlertListResponse, error)
}

// PerformanceAlertServiceConfig tunes the evaluation engine.
type PerformanceAlertServiceConfig struct {
	SweepConcurrency int
	PassingGrade     float64
}

type performanceAlertService struct {
	alerts      repository.PerformanceAlertRepository
	rules       repository.PerformanceRuleRepository
	records     repository.PerformanceRecordRepository
	evaluator   *monitoring.Evaluator
	events      AlertEventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	concurrency int
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewPerformanceAlertService constructs the alert engine. events may be nil.
func NewPerformanceAlertService(
	alerts repository.PerformanceAlertRepository,
	rules repository.PerformanceRuleRepository,
	records repository.PerformanceRecordRepository,
	events AlertEventPublisher,
	validator *validator.Validate,
	cfg PerformanceAlertServiceConfig,
	logger zerolog.Logger,
) PerformanceAlertService {
	concurrency := cfg.SweepConcurrency
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}

	return &performanceAlertService{
		alerts:      alerts,
		rules:       rules,
		records:     records,
		evaluator:   monitoring.NewEvaluator(monitoring.Options{PassingGrade: cfg.PassingGrade}),
		events:      events,
		validator:   validator,
		sanitizer:   bluemonday.StrictPolicy(),
		concurrency: concurrency,
		logger:      logger.With().Str("component", "performance_alert_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/scholarwatch-api/internal/service/performance_alert"),
		now:         time.Now,
	}
}

// sweepResult accumulates the outcome of concurrent beneficiary evaluations.
type sweepResult struct {
	mu         sync.Mutex
	created    []dto.PerformanceAlertResponse
	suppressed int
	evaluated  int
	issues     []monitoring.RuleIssue
}

func (r *sweepResult) recordEvaluated() {
	r.mu.Lock()
	r.evaluated++
	r.mu.Unlock()
}

func (r *sweepResult) recordCreated(alert dto.PerformanceAlertResponse) {
	r.mu.Lock()
	r.created = append(r.created, alert)
	r.mu.Unlock()
}

func (r *sweepResult) recordSuppressed() {
	r.mu.Lock()
	r.suppressed++
	r.mu.Unlock()
}

func (r *sweepResult) response() dto.GenerateAlertsResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	warnings := make([]dto.RuleIssueResponse, 0, len(r.issues))
	for _, issue := range r.issues {
		warnings = append(warnings, dto.RuleIssueResponse{RuleID: issue.RuleID, RuleName: issue.RuleName, Reason: issue.Reason})
	}

	return dto.GenerateAlertsResponse{
		AlertsCreated:          len(r.created),
		AlertsSuppressed:       r.suppressed,
		BeneficiariesEvaluated: r.evaluated,
		SkippedRules:           len(r.issues),
		Warnings:               warnings,
		Alerts:                 r.created,
	}
}

// GenerateAlerts evaluates the latest record of every beneficiary in the foundation. Rules are
// loaded once per run; a rerun without new data creates nothing.
func (s *performanceAlertService) GenerateAlerts(ctx context.Context, foundationID uint) (dto.GenerateAlertsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "alerts.generate")
	span.SetAttributes(attribute.Int64("alerts.foundation_id", int64(foundationID)))
	defer span.End()

	if foundationID == 0 {
		span.SetStatus(codes.Error, "foundation_missing")
		return dto.GenerateAlertsResponse{}, ErrFoundationRequired
	}

	started := s.now()
	rules, issues, err := s.loadRules(ctx, foundationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rules_lookup_failed")
		return dto.GenerateAlertsResponse{}, err
	}

	result := &sweepResult{issues: issues}
	if len(rules) == 0 {
		return result.response(), nil
	}

	beneficiaries, err := s.records.ListBeneficiaryIDs(ctx, foundationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "beneficiary_lookup_failed")
		return dto.GenerateAlertsResponse{}, err
	}

	depth := monitoring.HistoryDepth(rules)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for _, beneficiaryID := range beneficiaries {
		group.Go(func() error {
			return s.evaluateBeneficiary(groupCtx, foundationID, beneficiaryID, rules, depth, result)
		})
	}

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_failed")
		return dto.GenerateAlertsResponse{}, err
	}

	observability.AlertSweepDuration().Observe(s.now().Sub(started).Seconds())
	response := result.response()
	span.SetAttributes(
		attribute.Int("alerts.created", response.AlertsCreated),
		attribute.Int("alerts.suppressed", response.AlertsSuppressed),
		attribute.Int("alerts.beneficiaries", response.BeneficiariesEvaluated),
	)

	s.logger.Info().
		Uint("foundation_id", foundationID).
		Int("beneficiaries", response.BeneficiariesEvaluated).
		Int("created", response.AlertsCreated).
		Int("suppressed", response.AlertsSuppressed).
		Int("skipped_rules", response.SkippedRules).
		Msg("alert generation completed")

	return response, nil
}

// EvaluateBeneficiary runs the rules against a single beneficiary's latest record.
func (s *performanceAlertService) EvaluateBeneficiary(ctx context.Context, foundationID, beneficiaryID uint) (dto.GenerateAlertsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "alerts.evaluate_beneficiary")
	span.SetAttributes(
		attribute.Int64("alerts.foundation_id", int64(foundationID)),
		attribute.Int64("alerts.beneficiary_id", int64(beneficiaryID)),
	)
	defer span.End()

	if foundationID == 0 {
		span.SetStatus(codes.Error, "foundation_missing")
		return dto.GenerateAlertsResponse{}, ErrFoundationRequired
	}

	rules, issues, err := s.loadRules(ctx, foundationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rules_lookup_failed")
		return dto.GenerateAlertsResponse{}, err
	}

	result := &sweepResult{issues: issues}
	if len(rules) == 0 {
		return result.response(), nil
	}

	if err := s.evaluateBeneficiary(ctx, foundationID, beneficiaryID, rules, monitoring.HistoryDepth(rules), result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_failed")
		return dto.GenerateAlertsResponse{}, err
	}

	return result.response(), nil
}

func (s *performanceAlertService) loadRules(ctx context.Context, foundationID uint) ([]models.PerformanceRule, []monitoring.RuleIssue, error) {
	active, err := s.rules.ListActive(ctx, foundationID)
	if err != nil {
		return nil, nil, err
	}

	rules, issues := s.evaluator.Prepare(active)
	for _, issue := range issues {
		observability.AlertRulesSkipped().Inc()
		s.logger.Warn().
			Uint("foundation_id", foundationID).
			Uint("rule_id", issue.RuleID).
			Str("rule_name", issue.RuleName).
			Str("reason", issue.Reason).
			Msg("skipping malformed rule")
	}

	return rules, issues, nil
}

func (s *performanceAlertService) evaluateBeneficiary(ctx context.Context, foundationID, beneficiaryID uint, rules []models.PerformanceRule, depth int, result *sweepResult) error {
	history, err := s.records.History(ctx, foundationID, beneficiaryID, depth)
	if err != nil {
		return fmt.Errorf("load history for beneficiary %d: %w", beneficiaryID, err)
	}
	if len(history) == 0 {
		return nil
	}
	result.recordEvaluated()

	latest := history[0]
	for _, candidate := range s.evaluator.Evaluate(latest, history[1:], rules) {
		alert, err := s.buildAlert(latest, candidate)
		if err != nil {
			return fmt.Errorf("build %s alert for beneficiary %d: %w", candidate.AlertType, beneficiaryID, err)
		}
		created, err := s.alerts.CreateIfAbsent(ctx, &alert)
		if err != nil {
			return fmt.Errorf("create %s alert for beneficiary %d: %w", candidate.AlertType, beneficiaryID, err)
		}

		if !created {
			observability.AlertsSuppressed().WithLabelValues(string(candidate.AlertType)).Inc()
			result.recordSuppressed()
			continue
		}

		observability.AlertsCreated().WithLabelValues(string(alert.AlertType), string(alert.Severity)).Inc()
		response := dto.NewPerformanceAlertResponse(alert)
		result.recordCreated(response)

		s.logger.Info().
			Uint("foundation_id", foundationID).
			Uint("beneficiary_id", beneficiaryID).
			Uint("alert_id", alert.ID).
			Str("alert_type", string(alert.AlertType)).
			Str("severity", string(alert.Severity)).
			Msg("performance alert created")

		publishAlertEvent(ctx, s.events, s.logger, AlertEventCreated, response)
	}

	return nil
}

func (s *performanceAlertService) buildAlert(record models.PerformanceRecord, candidate monitoring.Candidate) (models.PerformanceAlert, error) {
	now := s.now().UTC()
	ruleID := candidate.Rule.ID

	alert := models.PerformanceAlert{
		FoundationID:  record.FoundationID,
		BeneficiaryID: record.BeneficiaryID,
		AlertType:     candidate.AlertType,
		Severity:      candidate.Severity,
		Status:        models.AlertStatusActive,
		Title:         candidate.Title(),
		Description:   candidate.Description(),
		RuleID:        &ruleID,
		RuleName:      candidate.Rule.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if candidate.SessionScoped {
		sessionID := record.SessionID
		alert.SessionID = &sessionID
	}
	if err := alert.SetMatchedConditions(candidate.Matches); err != nil {
		return models.PerformanceAlert{}, err
	}
	alert.SetActions(candidate.Rule.ActionList())

	return alert, nil
}

func (s *performanceAlertService) Acknowledge(ctx context.Context, alertID, foundationID uint) (dto.PerformanceAlertResponse, error) {
	return s.transition(ctx, "alerts.acknowledge", alertID, foundationID, models.AlertStatusAcknowledged, nil)
}

func (s *performanceAlertService) MarkInProgress(ctx context.Context, alertID, foundationID uint, payload dto.AlertProgressRequest) (dto.PerformanceAlertResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PerformanceAlertResponse{}, err
	}

	note := strings.TrimSpace(s.sanitizer.Sanitize(payload.Note))
	return s.transition(ctx, "alerts.mark_in_progress", alertID, foundationID, models.AlertStatusInProgress, func(change *repository.AlertTransition) {
		if note != "" {
			change.ProgressNote = &note
		}
	})
}

// Resolve closes the alert. Once resolved, a later evaluation may open a fresh alert for the
// same tuple.
func (s *performanceAlertService) Resolve(ctx context.Context, alertID, foundationID uint, payload dto.AlertResolveRequest) (dto.PerformanceAlertResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PerformanceAlertResponse{}, err
	}

	notes := strings.TrimSpace(s.sanitizer.Sanitize(payload.ResolutionNotes))
	if notes == "" {
		return dto.PerformanceAlertResponse{}, ErrResolutionNotesRequired
	}

	return s.transition(ctx, "alerts.resolve", alertID, foundationID, models.AlertStatusResolved, func(change *repository.AlertTransition) {
		change.ResolutionNotes = notes
	})
}

func (s *performanceAlertService) transition(ctx context.Context, spanName string, alertID, foundationID uint, to models.AlertStatus, apply func(*repository.AlertTransition)) (dto.PerformanceAlertResponse, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	span.SetAttributes(
		attribute.Int64("alerts.id", int64(alertID)),
		attribute.Int64("alerts.foundation_id", int64(foundationID)),
		attribute.String("alerts.to", string(to)),
	)
	defer span.End()

	alert, err := s.findAlert(ctx, alertID, foundationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert_lookup_failed")
		return dto.PerformanceAlertResponse{}, err
	}

	if !monitoring.CanTransition(alert.Status, to) {
		err := fmt.Errorf("%w: %s to %s", ErrInvalidTransition, alert.Status, to)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_transition")
		return dto.PerformanceAlertResponse{}, err
	}

	change := repository.AlertTransition{From: alert.Status, To: to, At: s.now().UTC()}
	if apply != nil {
		apply(&change)
	}

	applied, err := s.alerts.Transition(ctx, foundationID, alertID, change)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert_update_failed")
		return dto.PerformanceAlertResponse{}, err
	}
	if !applied {
		span.SetStatus(codes.Error, "alert_conflict")
		return dto.PerformanceAlertResponse{}, ErrAlertConflict
	}

	updated, err := s.findAlert(ctx, alertID, foundationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert_reload_failed")
		return dto.PerformanceAlertResponse{}, err
	}

	observability.AlertTransitions().WithLabelValues(string(to)).Inc()
	s.logger.Info().
		Uint("foundation_id", foundationID).
		Uint("alert_id", alertID).
		Str("from", string(change.From)).
		Str("to", string(to)).
		Msg("alert status changed")

	response := dto.NewPerformanceAlertResponse(updated)
	publishAlertEvent(ctx, s.events, s.logger, transitionEvent(to), response)

	return response, nil
}

func (s *performanceAlertService) findAlert(ctx context.Context, alertID, foundationID uint) (models.PerformanceAlert, error) {
	alert, err := s.alerts.FindByID(ctx, foundationID, alertID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PerformanceAlert{}, ErrAlertNotFound
		}
		return models.PerformanceAlert{}, err
	}
	return alert, nil
}

func (s *performanceAlertService) List(ctx context.Context, foundationID uint, req dto.AlertListRequest) (dto.AlertListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AlertListResponse{}, err
	}

	filter := repository.PerformanceAlertFilter{
		FoundationID:  foundationID,
		Severity:      strings.TrimSpace(req.Severity),
		Status:        strings.TrimSpace(req.Status),
		AlertType:     strings.TrimSpace(req.AlertType),
		BeneficiaryID: req.BeneficiaryID,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}

	alerts, total, err := s.alerts.List(ctx, filter)
	if err != nil {
		return dto.AlertListResponse{}, err
	}

	items := make([]dto.PerformanceAlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, dto.NewPerformanceAlertResponse(alert))
	}

	return dto.AlertListResponse{Items: items, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

func paginationMeta(page, pageSize int, total int64) dto.PaginationMeta {
	if page < 1 {
		page = 1
	}
	meta := dto.PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: 1}
	if pageSize > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return meta
}
