package dto

import (
	"time"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// AlertListRequest defines filters for listing a foundation's alerts.
type AlertListRequest struct {
	Severity      string `validate:"omitempty,oneof=low medium high critical"`
	Status        string `validate:"omitempty,oneof=active acknowledged in_progress resolved"`
	AlertType     string `validate:"omitempty,oneof=performance_low attendance_low grade_drop session_missed"`
	BeneficiaryID uint
	Page          int `validate:"gte=0"`
	PageSize      int `validate:"gte=0,lte=200"`
}

// AlertProgressRequest carries the optional note when work on an alert starts.
type AlertProgressRequest struct {
	Note string `json:"note" validate:"omitempty,max=2000"`
}

// AlertResolveRequest carries the mandatory resolution notes.
type AlertResolveRequest struct {
	ResolutionNotes string `json:"resolution_notes" validate:"max=5000"`
}

// MatchedConditionResponse serializes a rule condition that fired.
type MatchedConditionResponse struct {
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Severity  string  `json:"severity"`
}

// PerformanceAlertResponse serializes a performance alert.
type PerformanceAlertResponse struct {
	ID                uint                       `json:"id"`
	FoundationID      uint                       `json:"foundation_id"`
	BeneficiaryID     uint                       `json:"beneficiary_id"`
	SessionID         *uint                      `json:"session_id,omitempty"`
	AlertType         string                     `json:"alert_type"`
	Severity          string                     `json:"severity"`
	Status            string                     `json:"status"`
	Title             string                     `json:"title"`
	Description       string                     `json:"description"`
	RuleID            *uint                      `json:"rule_id,omitempty"`
	RuleName          string                     `json:"rule_name"`
	MatchedConditions []MatchedConditionResponse `json:"matched_conditions"`
	Actions           []string                   `json:"actions"`
	ProgressNote      string                     `json:"progress_note,omitempty"`
	ResolutionNotes   string                     `json:"resolution_notes,omitempty"`
	AcknowledgedAt    *time.Time                 `json:"acknowledged_at,omitempty"`
	ResolvedAt        *time.Time                 `json:"resolved_at,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// NewPerformanceAlertResponse converts an alert model into a DTO.
func NewPerformanceAlertResponse(alert models.PerformanceAlert) PerformanceAlertResponse {
	matches := alert.MatchedConditionList()
	matchResponses := make([]MatchedConditionResponse, 0, len(matches))
	for _, m := range matches {
		matchResponses = append(matchResponses, MatchedConditionResponse{
			Condition: string(m.Condition),
			Threshold: m.Threshold,
			Actual:    m.Actual,
			Severity:  string(m.Severity),
		})
	}

	return PerformanceAlertResponse{
		ID:                alert.ID,
		FoundationID:      alert.FoundationID,
		BeneficiaryID:     alert.BeneficiaryID,
		SessionID:         alert.SessionID,
		AlertType:         string(alert.AlertType),
		Severity:          string(alert.Severity),
		Status:            string(alert.Status),
		Title:             alert.Title,
		Description:       alert.Description,
		RuleID:            alert.RuleID,
		RuleName:          alert.RuleName,
		MatchedConditions: matchResponses,
		Actions:           actionStrings(alert.ActionList()),
		ProgressNote:      alert.ProgressNote,
		ResolutionNotes:   alert.ResolutionNotes,
		AcknowledgedAt:    alert.AcknowledgedAt,
		ResolvedAt:        alert.ResolvedAt,
		CreatedAt:         alert.CreatedAt,
		UpdatedAt:         alert.UpdatedAt,
	}
}

// AlertListResponse wraps a paginated alert listing.
type AlertListResponse struct {
	Items      []PerformanceAlertResponse `json:"items"`
	Pagination PaginationMeta             `json:"pagination"`
}

// RuleIssueResponse reports a rule skipped during evaluation.
type RuleIssueResponse struct {
	RuleID   uint   `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Reason   string `json:"reason"`
}

// GenerateAlertsResponse summarises an evaluation run.
type GenerateAlertsResponse struct {
	AlertsCreated          int                        `json:"alerts_created"`
	AlertsSuppressed       int                        `json:"alerts_suppressed"`
	BeneficiariesEvaluated int                        `json:"beneficiaries_evaluated"`
	SkippedRules           int                        `json:"skipped_rules"`
	Warnings               []RuleIssueResponse        `json:"warnings,omitempty"`
	Alerts                 []PerformanceAlertResponse `json:"alerts,omitempty"`
}

// AlertAnalyticsResponse is the rollup of a foundation's alerts, computed per request.
type AlertAnalyticsResponse struct {
	TotalActive         int64     `json:"total_active"`
	AcknowledgedCount   int64     `json:"acknowledged_count"`
	InProgressCount     int64     `json:"in_progress_count"`
	CriticalCount       int64     `json:"critical_count"`
	HighCount           int64     `json:"high_count"`
	MediumCount         int64     `json:"medium_count"`
	LowCount            int64     `json:"low_count"`
	ResolvedToday       int64     `json:"resolved_today"`
	PerformanceAlerts   int64     `json:"performance_alerts"`
	AttendanceAlerts    int64     `json:"attendance_alerts"`
	SessionMissedAlerts int64     `json:"session_missed_alerts"`
	TimeZone            string    `json:"time_zone"`
	GeneratedAt         time.Time `json:"generated_at"`
}

func actionStrings(actions []models.RuleAction) []string {
	result := make([]string, 0, len(actions))
	for _, action := range actions {
		result = append(result, string(action))
	}
	return result
}
