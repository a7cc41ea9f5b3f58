package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
)

// PerformanceRecordService accepts new performance records and evaluates them immediately.
type PerformanceRecordService interface {
	Record(ctx context.Context, foundationID uint, payload dto.PerformanceRecordCreateRequest) (dto.PerformanceRecordIntakeResponse, error)
}

type performanceRecordService struct {
	repo      repository.PerformanceRecordRepository
	alerts    PerformanceAlertService
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPerformanceRecordService constructs the intake service.
func NewPerformanceRecordService(repo repository.PerformanceRecordRepository, alerts PerformanceAlertService, validator *validator.Validate, logger zerolog.Logger) PerformanceRecordService {
	return &performanceRecordService{
		repo:      repo,
		alerts:    alerts,
		validator: validator,
		logger:    logger.With().Str("component", "performance_record_service").Logger(),
		now:       time.Now,
	}
}

func (s *performanceRecordService) Record(ctx context.Context, foundationID uint, payload dto.PerformanceRecordCreateRequest) (dto.PerformanceRecordIntakeResponse, error) {
	if foundationID == 0 {
		return dto.PerformanceRecordIntakeResponse{}, ErrFoundationRequired
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.PerformanceRecordIntakeResponse{}, err
	}

	recordedAt := s.now().UTC()
	if payload.RecordedAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.RecordedAt)
		if err != nil {
			return dto.PerformanceRecordIntakeResponse{}, err
		}
		recordedAt = parsed.UTC()
	}

	record := models.PerformanceRecord{
		FoundationID:    foundationID,
		BeneficiaryID:   payload.BeneficiaryID,
		SessionID:       payload.SessionID,
		SessionSequence: payload.SessionSequence,
		OverallGrade:    payload.OverallGrade,
		Attendance:      payload.Attendance,
		MissedUploads:   payload.MissedUploads,
		HasImproved:     payload.HasImproved,
		RecordedAt:      recordedAt,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return dto.PerformanceRecordIntakeResponse{}, err
	}

	evaluation, err := s.alerts.EvaluateBeneficiary(ctx, foundationID, payload.BeneficiaryID)
	if err != nil {
		s.logger.Warn().Err(err).
			Uint("foundation_id", foundationID).
			Uint("beneficiary_id", record.BeneficiaryID).
			Uint("record_id", record.ID).
			Msg("record stored, alert evaluation deferred")
		return dto.PerformanceRecordIntakeResponse{
			Record:             dto.NewPerformanceRecordResponse(record),
			EvaluationDeferred: true,
		}, fmt.Errorf("%w: %w", ErrEvaluationDeferred, err)
	}

	s.logger.Debug().
		Uint("foundation_id", foundationID).
		Uint("beneficiary_id", record.BeneficiaryID).
		Int("alerts_created", evaluation.AlertsCreated).
		Msg("performance record evaluated")

	return dto.PerformanceRecordIntakeResponse{
		Record:     dto.NewPerformanceRecordResponse(record),
		Evaluation: evaluation,
	}, nil
}
