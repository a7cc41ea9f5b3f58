package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RuleAction describes what should happen when a rule fires. The engine records actions on
// alerts but never executes them.
type RuleAction string

const (
	RuleActionNotifyAdmin          RuleAction = "notify_admin"
	RuleActionFlagForReview        RuleAction = "flag_for_review"
	RuleActionScheduleIntervention RuleAction = "schedule_intervention"
)

// Valid reports whether the action is supported.
func (a RuleAction) Valid() bool {
	switch a {
	case RuleActionNotifyAdmin, RuleActionFlagForReview, RuleActionScheduleIntervention:
		return true
	default:
		return false
	}
}

// RuleCondition names a single threshold condition on a rule.
type RuleCondition string

const (
	ConditionConsecutiveTermsBelow RuleCondition = "consecutive_terms_below"
	ConditionGradeThreshold        RuleCondition = "grade_threshold"
	ConditionAttendanceThreshold   RuleCondition = "attendance_threshold"
	ConditionMissedUploads         RuleCondition = "missed_uploads"
)

// RuleConditions holds the independently optional thresholds of a rule.
type RuleConditions struct {
	ConsecutiveTermsBelow *int     `json:"consecutive_terms_below,omitempty"`
	GradeThreshold        *float64 `json:"grade_threshold,omitempty"`
	AttendanceThreshold   *float64 `json:"attendance_threshold,omitempty"`
	MissedUploads         *int     `json:"missed_uploads,omitempty"`
}

// Empty reports whether no condition is configured.
func (c RuleConditions) Empty() bool {
	return c.ConsecutiveTermsBelow == nil && c.GradeThreshold == nil && c.AttendanceThreshold == nil && c.MissedUploads == nil
}

// PerformanceRule is a foundation-configured set of thresholds used to detect at-risk beneficiaries.
type PerformanceRule struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	FoundationID uint           `gorm:"not null;index" json:"foundation_id"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	Conditions   RuleConditions `gorm:"embedded;embeddedPrefix:cond_" json:"conditions"`
	Actions      datatypes.JSON `gorm:"type:json" json:"-"`
	IsActive     bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// SetActions serializes the provided action list into the JSON storage column.
func (r *PerformanceRule) SetActions(actions []RuleAction) {
	r.Actions = encodeActions(actions)
}

// ActionList deserializes the stored actions.
func (r PerformanceRule) ActionList() []RuleAction {
	return decodeActions(r.Actions)
}

func encodeActions(actions []RuleAction) datatypes.JSON {
	if actions == nil {
		actions = []RuleAction{}
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

func decodeActions(raw datatypes.JSON) []RuleAction {
	if len(raw) == 0 {
		return nil
	}

	var actions []RuleAction
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil
	}
	return actions
}
