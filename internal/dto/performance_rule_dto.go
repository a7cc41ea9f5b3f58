package dto

import (
	"time"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// RuleConditionsRequest carries the optional thresholds of a rule. Ranges are checked by the
// rule service so the caller gets the condition-specific message.
type RuleConditionsRequest struct {
	ConsecutiveTermsBelow *int     `json:"consecutive_terms_below"`
	GradeThreshold        *float64 `json:"grade_threshold"`
	AttendanceThreshold   *float64 `json:"attendance_threshold"`
	MissedUploads         *int     `json:"missed_uploads"`
}

// ToModel converts the request into model conditions.
func (r RuleConditionsRequest) ToModel() models.RuleConditions {
	return models.RuleConditions{
		ConsecutiveTermsBelow: r.ConsecutiveTermsBelow,
		GradeThreshold:        r.GradeThreshold,
		AttendanceThreshold:   r.AttendanceThreshold,
		MissedUploads:         r.MissedUploads,
	}
}

// PerformanceRuleCreateRequest captures a new rule definition.
type PerformanceRuleCreateRequest struct {
	Name        string                `json:"name" validate:"required,min=3,max=255"`
	Description string                `json:"description" validate:"omitempty,max=2000"`
	Conditions  RuleConditionsRequest `json:"conditions"`
	Actions     []string              `json:"actions" validate:"omitempty,dive,oneof=notify_admin flag_for_review schedule_intervention"`
	IsActive    *bool                 `json:"is_active"`
}

// PerformanceRuleUpdateRequest patches an existing rule. Conditions, when present, replace
// the whole condition set.
type PerformanceRuleUpdateRequest struct {
	Name        *string                `json:"name" validate:"omitempty,min=3,max=255"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Conditions  *RuleConditionsRequest `json:"conditions"`
	Actions     []string               `json:"actions" validate:"omitempty,dive,oneof=notify_admin flag_for_review schedule_intervention"`
	IsActive    *bool                  `json:"is_active"`
}

// PerformanceRuleResponse serializes a rule.
type PerformanceRuleResponse struct {
	ID           uint                  `json:"id"`
	FoundationID uint                  `json:"foundation_id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Conditions   models.RuleConditions `json:"conditions"`
	Actions      []string              `json:"actions"`
	IsActive     bool                  `json:"is_active"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewPerformanceRuleResponse converts a rule model into a DTO.
func NewPerformanceRuleResponse(rule models.PerformanceRule) PerformanceRuleResponse {
	return PerformanceRuleResponse{
		ID:           rule.ID,
		FoundationID: rule.FoundationID,
		Name:         rule.Name,
		Description:  rule.Description,
		Conditions:   rule.Conditions,
		Actions:      actionStrings(rule.ActionList()),
		IsActive:     rule.IsActive,
		CreatedAt:    rule.CreatedAt,
		UpdatedAt:    rule.UpdatedAt,
	}
}

// RuleActionsFromStrings converts validated action names into typed actions, dropping duplicates.
func RuleActionsFromStrings(values []string) []models.RuleAction {
	seen := make(map[models.RuleAction]struct{}, len(values))
	actions := make([]models.RuleAction, 0, len(values))
	for _, value := range values {
		action := models.RuleAction(value)
		if _, ok := seen[action]; ok {
			continue
		}
		seen[action] = struct{}{}
		actions = append(actions, action)
	}
	return actions
}
