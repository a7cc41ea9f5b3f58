package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// AlertType classifies the condition a performance alert represents.
type AlertType string

const (
	AlertTypePerformanceLow AlertType = "performance_low"
	AlertTypeAttendanceLow  AlertType = "attendance_low"
	AlertTypeGradeDrop      AlertType = "grade_drop"
	AlertTypeSessionMissed  AlertType = "session_missed"
)

// Valid reports whether the alert type is supported.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypePerformanceLow, AlertTypeAttendanceLow, AlertTypeGradeDrop, AlertTypeSessionMissed:
		return true
	default:
		return false
	}
}

// AlertSeverity is the tier assigned to an alert when it is created.
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Rank orders severities from low (1) to critical (4). Unknown values rank 0.
func (s AlertSeverity) Rank() int {
	switch s {
	case AlertSeverityLow:
		return 1
	case AlertSeverityMedium:
		return 2
	case AlertSeverityHigh:
		return 3
	case AlertSeverityCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the severity is supported.
func (s AlertSeverity) Valid() bool {
	return s.Rank() > 0
}

// AlertStatus tracks where an alert sits in its resolution lifecycle.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusInProgress   AlertStatus = "in_progress"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Valid reports whether the status is supported.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusInProgress, AlertStatusResolved:
		return true
	default:
		return false
	}
}

// MatchedCondition records one rule condition that fired, with the observed value.
type MatchedCondition struct {
	Condition RuleCondition `json:"condition"`
	Threshold float64       `json:"threshold"`
	Actual    float64       `json:"actual"`
	Severity  AlertSeverity `json:"severity"`
}

// PerformanceAlert is a detected rule breach for a beneficiary.
//
// OpenKey is populated while the alert is not resolved and cleared on resolution; its unique
// index guarantees a single open alert per (foundation, beneficiary, session, type).
type PerformanceAlert struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	FoundationID      uint           `gorm:"not null;index:idx_performance_alerts_scope,priority:1" json:"foundation_id"`
	BeneficiaryID     uint           `gorm:"not null;index:idx_performance_alerts_scope,priority:2" json:"beneficiary_id"`
	SessionID         *uint          `gorm:"index" json:"session_id,omitempty"`
	AlertType         AlertType      `gorm:"size:32;not null;index" json:"alert_type"`
	Severity          AlertSeverity  `gorm:"size:16;not null;index" json:"severity"`
	Status            AlertStatus    `gorm:"size:16;not null;default:active;index" json:"status"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	RuleID            *uint          `gorm:"index" json:"rule_id,omitempty"`
	RuleName          string         `gorm:"size:255" json:"rule_name"`
	MatchedConditions datatypes.JSON `gorm:"type:json" json:"-"`
	Actions           datatypes.JSON `gorm:"type:json" json:"-"`
	OpenKey           *string        `gorm:"size:191;uniqueIndex" json:"-"`
	ProgressNote      string         `gorm:"type:text" json:"progress_note"`
	ResolutionNotes   string         `gorm:"type:text" json:"resolution_notes"`
	AcknowledgedAt    *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt        *time.Time     `gorm:"index" json:"resolved_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// AlertOpenKey builds the dedup key for an open alert tuple.
func AlertOpenKey(foundationID, beneficiaryID uint, sessionID *uint, alertType AlertType) string {
	session := "-"
	if sessionID != nil {
		session = strconv.FormatUint(uint64(*sessionID), 10)
	}
	return fmt.Sprintf("%d:%d:%s:%s", foundationID, beneficiaryID, session, alertType)
}

// SetMatchedConditions serializes matched conditions into the JSON column. The column is left
// untouched when encoding fails.
func (a *PerformanceAlert) SetMatchedConditions(matches []MatchedCondition) error {
	if matches == nil {
		matches = []MatchedCondition{}
	}
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("encode matched conditions: %w", err)
	}
	a.MatchedConditions = datatypes.JSON(data)
	return nil
}

// MatchedConditionList deserializes the stored matched conditions.
func (a PerformanceAlert) MatchedConditionList() []MatchedCondition {
	if len(a.MatchedConditions) == 0 {
		return nil
	}

	var matches []MatchedCondition
	if err := json.Unmarshal(a.MatchedConditions, &matches); err != nil {
		return nil
	}
	return matches
}

// SetActions serializes the snapshot of rule actions onto the alert.
func (a *PerformanceAlert) SetActions(actions []RuleAction) {
	a.Actions = encodeActions(actions)
}

// ActionList returns the rule actions recorded on the alert.
func (a PerformanceAlert) ActionList() []RuleAction {
	return decodeActions(a.Actions)
}
