package models

import "time"

// PerformanceRecord captures a beneficiary's academic and attendance measurements for one session.
// Measurements are optional; a nil value means the data was not reported.
type PerformanceRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FoundationID    uint      `gorm:"not null;index:idx_performance_records_history,priority:1" json:"foundation_id"`
	BeneficiaryID   uint      `gorm:"not null;index:idx_performance_records_history,priority:2" json:"beneficiary_id"`
	SessionID       uint      `gorm:"not null;index" json:"session_id"`
	SessionSequence int       `gorm:"not null;default:0;index:idx_performance_records_history,priority:3" json:"session_sequence"`
	OverallGrade    *float64  `json:"overall_grade,omitempty"`
	Attendance      *float64  `json:"attendance,omitempty"`
	MissedUploads   *int      `json:"missed_uploads,omitempty"`
	HasImproved     *bool     `json:"has_improved,omitempty"`
	RecordedAt      time.Time `gorm:"not null" json:"recorded_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasMeasurements reports whether the record carries a grade or attendance value.
func (r PerformanceRecord) HasMeasurements() bool {
	return r.OverallGrade != nil || r.Attendance != nil
}
