package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/dto"
	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/monitoring"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
)

// PerformanceRuleService manages the rules a foundation evaluates records against.
type PerformanceRuleService interface {
	List(ctx context.Context, foundationID uint) ([]dto.PerformanceRuleResponse, error)
	Get(ctx context.Context, foundationID, id uint) (dto.PerformanceRuleResponse, error)
	Create(ctx context.Context, foundationID uint, payload dto.PerformanceRuleCreateRequest) (dto.PerformanceRuleResponse, error)
	Update(ctx context.Context, foundationID, id uint, payload dto.PerformanceRuleUpdateRequest) (dto.PerformanceRuleResponse, error)
	Delete(ctx context.Context, foundationID, id uint) error
}

type performanceRuleService struct {
	repo      repository.PerformanceRuleRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPerformanceRuleService constructs the rule service.
func NewPerformanceRuleService(repo repository.PerformanceRuleRepository, validator *validator.Validate, logger zerolog.Logger) PerformanceRuleService {
	return &performanceRuleService{
		repo:      repo,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "performance_rule_service").Logger(),
		now:       time.Now,
	}
}

func (s *performanceRuleService) List(ctx context.Context, foundationID uint) ([]dto.PerformanceRuleResponse, error) {
	rules, err := s.repo.List(ctx, foundationID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.PerformanceRuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, dto.NewPerformanceRuleResponse(rule))
	}
	return responses, nil
}

func (s *performanceRuleService) Get(ctx context.Context, foundationID, id uint) (dto.PerformanceRuleResponse, error) {
	rule, err := s.findRule(ctx, foundationID, id)
	if err != nil {
		return dto.PerformanceRuleResponse{}, err
	}
	return dto.NewPerformanceRuleResponse(rule), nil
}

func (s *performanceRuleService) Create(ctx context.Context, foundationID uint, payload dto.PerformanceRuleCreateRequest) (dto.PerformanceRuleResponse, error) {
	if foundationID == 0 {
		return dto.PerformanceRuleResponse{}, ErrFoundationRequired
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.PerformanceRuleResponse{}, err
	}

	conditions := payload.Conditions.ToModel()
	if err := validateRuleConditions(conditions); err != nil {
		return dto.PerformanceRuleResponse{}, err
	}

	now := s.now().UTC()
	rule := models.PerformanceRule{
		FoundationID: foundationID,
		Name:         s.clean(payload.Name),
		Description:  s.clean(payload.Description),
		Conditions:   conditions,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if payload.IsActive != nil {
		rule.IsActive = *payload.IsActive
	}
	rule.SetActions(dto.RuleActionsFromStrings(payload.Actions))

	if err := s.repo.Create(ctx, &rule); err != nil {
		return dto.PerformanceRuleResponse{}, err
	}

	s.logger.Info().Uint("foundation_id", foundationID).Uint("rule_id", rule.ID).Msg("performance rule created")
	return dto.NewPerformanceRuleResponse(rule), nil
}

func (s *performanceRuleService) Update(ctx context.Context, foundationID, id uint, payload dto.PerformanceRuleUpdateRequest) (dto.PerformanceRuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PerformanceRuleResponse{}, err
	}

	rule, err := s.findRule(ctx, foundationID, id)
	if err != nil {
		return dto.PerformanceRuleResponse{}, err
	}

	if payload.Name != nil {
		rule.Name = s.clean(*payload.Name)
	}
	if payload.Description != nil {
		rule.Description = s.clean(*payload.Description)
	}
	if payload.Conditions != nil {
		conditions := payload.Conditions.ToModel()
		if err := validateRuleConditions(conditions); err != nil {
			return dto.PerformanceRuleResponse{}, err
		}
		rule.Conditions = conditions
	}
	if payload.Actions != nil {
		rule.SetActions(dto.RuleActionsFromStrings(payload.Actions))
	}
	if payload.IsActive != nil {
		rule.IsActive = *payload.IsActive
	}
	rule.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &rule); err != nil {
		return dto.PerformanceRuleResponse{}, err
	}

	s.logger.Info().Uint("foundation_id", foundationID).Uint("rule_id", rule.ID).Msg("performance rule updated")
	return dto.NewPerformanceRuleResponse(rule), nil
}

// Delete removes a rule. Alerts it already produced keep their rule snapshot.
func (s *performanceRuleService) Delete(ctx context.Context, foundationID, id uint) error {
	if err := s.repo.Delete(ctx, foundationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRuleNotFound
		}
		return err
	}

	s.logger.Info().Uint("foundation_id", foundationID).Uint("rule_id", id).Msg("performance rule deleted")
	return nil
}

func (s *performanceRuleService) findRule(ctx context.Context, foundationID, id uint) (models.PerformanceRule, error) {
	rule, err := s.repo.FindByID(ctx, foundationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PerformanceRule{}, ErrRuleNotFound
		}
		return models.PerformanceRule{}, err
	}
	return rule, nil
}

func (s *performanceRuleService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// validateRuleConditions rejects rules that the evaluator would skip. A rule without any
// condition is accepted and simply never matches.
func validateRuleConditions(conditions models.RuleConditions) error {
	if err := monitoring.ValidateConditions(conditions); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRuleConditions, err.Error())
	}
	return nil
}
