package dto

import (
	"time"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// PerformanceRecordCreateRequest captures a new academic/attendance record.
type PerformanceRecordCreateRequest struct {
	BeneficiaryID   uint     `json:"beneficiary_id" validate:"required"`
	SessionID       uint     `json:"session_id" validate:"required"`
	SessionSequence int      `json:"session_sequence" validate:"gte=0"`
	OverallGrade    *float64 `json:"overall_grade" validate:"omitempty,gte=0,lte=100"`
	Attendance      *float64 `json:"attendance" validate:"omitempty,gte=0,lte=100"`
	MissedUploads   *int     `json:"missed_uploads" validate:"omitempty,gte=0"`
	HasImproved     *bool    `json:"has_improved"`
	RecordedAt      string   `json:"recorded_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// PerformanceRecordResponse serializes a stored record.
type PerformanceRecordResponse struct {
	ID              uint      `json:"id"`
	FoundationID    uint      `json:"foundation_id"`
	BeneficiaryID   uint      `json:"beneficiary_id"`
	SessionID       uint      `json:"session_id"`
	SessionSequence int       `json:"session_sequence"`
	OverallGrade    *float64  `json:"overall_grade,omitempty"`
	Attendance      *float64  `json:"attendance,omitempty"`
	MissedUploads   *int      `json:"missed_uploads,omitempty"`
	HasImproved     *bool     `json:"has_improved,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// NewPerformanceRecordResponse converts a record model into a DTO.
func NewPerformanceRecordResponse(record models.PerformanceRecord) PerformanceRecordResponse {
	return PerformanceRecordResponse{
		ID:              record.ID,
		FoundationID:    record.FoundationID,
		BeneficiaryID:   record.BeneficiaryID,
		SessionID:       record.SessionID,
		SessionSequence: record.SessionSequence,
		OverallGrade:    record.OverallGrade,
		Attendance:      record.Attendance,
		MissedUploads:   record.MissedUploads,
		HasImproved:     record.HasImproved,
		RecordedAt:      record.RecordedAt,
	}
}

// PerformanceRecordIntakeResponse returns the stored record with the evaluation it triggered.
// EvaluationDeferred is set when the record was stored but could not be evaluated yet.
type PerformanceRecordIntakeResponse struct {
	Record             PerformanceRecordResponse `json:"record"`
	Evaluation         GenerateAlertsResponse    `json:"evaluation"`
	EvaluationDeferred bool                      `json:"evaluation_deferred,omitempty"`
}
