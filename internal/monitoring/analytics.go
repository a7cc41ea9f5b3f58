package monitoring

import (
	"time"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// AnalyticsSnapshot summarises a foundation's alerts at a point in time.
type AnalyticsSnapshot struct {
	TotalActive         int64
	AcknowledgedCount   int64
	InProgressCount     int64
	CriticalCount       int64
	HighCount           int64
	MediumCount         int64
	LowCount            int64
	ResolvedToday       int64
	PerformanceAlerts   int64
	AttendanceAlerts    int64
	SessionMissedAlerts int64
}

// DayBounds returns the start and end of the calendar day containing now in loc.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Summarize computes counts over alerts. Severity and type counts cover open alerts only;
// ResolvedToday counts resolutions within the local day of now.
func Summarize(alerts []models.PerformanceAlert, now time.Time, loc *time.Location) AnalyticsSnapshot {
	start, end := DayBounds(now, loc)
	var snapshot AnalyticsSnapshot

	for _, alert := range alerts {
		if alert.Status == models.AlertStatusResolved {
			if alert.ResolvedAt != nil && !alert.ResolvedAt.Before(start) && alert.ResolvedAt.Before(end) {
				snapshot.ResolvedToday++
			}
			continue
		}

		switch alert.Status {
		case models.AlertStatusActive:
			snapshot.TotalActive++
		case models.AlertStatusAcknowledged:
			snapshot.AcknowledgedCount++
		case models.AlertStatusInProgress:
			snapshot.InProgressCount++
		}

		switch alert.Severity {
		case models.AlertSeverityCritical:
			snapshot.CriticalCount++
		case models.AlertSeverityHigh:
			snapshot.HighCount++
		case models.AlertSeverityMedium:
			snapshot.MediumCount++
		case models.AlertSeverityLow:
			snapshot.LowCount++
		}

		switch alert.AlertType {
		case models.AlertTypePerformanceLow, models.AlertTypeGradeDrop:
			snapshot.PerformanceAlerts++
		case models.AlertTypeAttendanceLow:
			snapshot.AttendanceAlerts++
		case models.AlertTypeSessionMissed:
			snapshot.SessionMissedAlerts++
		}
	}

	return snapshot
}
