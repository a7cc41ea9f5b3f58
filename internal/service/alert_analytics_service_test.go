package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
)

func seedAnalyticsAlert(t *testing.T, repo repository.PerformanceAlertRepository, beneficiaryID uint, alertType models.AlertType, severity models.AlertSeverity) models.PerformanceAlert {
	t.Helper()
	alert := models.PerformanceAlert{
		FoundationID:  1,
		BeneficiaryID: beneficiaryID,
		AlertType:     alertType,
		Severity:      severity,
		Title:         "seed",
	}
	created, err := repo.CreateIfAbsent(context.Background(), &alert)
	require.NoError(t, err)
	require.True(t, created)
	return alert
}

func TestAlertAnalyticsCountsOpenAlertsAndResolutionsToday(t *testing.T) {
	db := setupAlertServiceTestDB(t)
	ctx := context.Background()
	alerts := repository.NewPerformanceAlertRepository(db)
	foundations := repository.NewFoundationRepository(db)
	require.NoError(t, foundations.Create(ctx, &models.Foundation{ID: 1, Name: "Harapan", TimeZone: "Asia/Jakarta"}))

	// 2026-03-10 01:00 in Jakarta.
	now := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)

	seedAnalyticsAlert(t, alerts, 1, models.AlertTypeAttendanceLow, models.AlertSeverityCritical)
	acknowledged := seedAnalyticsAlert(t, alerts, 2, models.AlertTypePerformanceLow, models.AlertSeverityHigh)
	seedAnalyticsAlert(t, alerts, 3, models.AlertTypeGradeDrop, models.AlertSeverityMedium)
	resolvedToday := seedAnalyticsAlert(t, alerts, 4, models.AlertTypeSessionMissed, models.AlertSeverityLow)
	resolvedYesterday := seedAnalyticsAlert(t, alerts, 5, models.AlertTypeAttendanceLow, models.AlertSeverityLow)

	applied, err := alerts.Transition(ctx, 1, acknowledged.ID, repository.AlertTransition{From: models.AlertStatusActive, To: models.AlertStatusAcknowledged, At: now})
	require.NoError(t, err)
	require.True(t, applied)

	// 00:30 Jakarta time on the same local day.
	applied, err = alerts.Transition(ctx, 1, resolvedToday.ID, repository.AlertTransition{From: models.AlertStatusActive, To: models.AlertStatusResolved, At: now.Add(-30 * time.Minute), ResolutionNotes: "done"})
	require.NoError(t, err)
	require.True(t, applied)

	// 23:00 Jakarta time on the previous local day.
	applied, err = alerts.Transition(ctx, 1, resolvedYesterday.ID, repository.AlertTransition{From: models.AlertStatusActive, To: models.AlertStatusResolved, At: now.Add(-2 * time.Hour), ResolutionNotes: "done"})
	require.NoError(t, err)
	require.True(t, applied)

	svc := NewAlertAnalyticsService(alerts, foundations, "UTC", testLogger())
	svc.(*alertAnalyticsService).now = func() time.Time { return now }

	result, err := svc.GetAnalytics(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), result.TotalActive)
	require.Equal(t, int64(1), result.AcknowledgedCount)
	require.Equal(t, int64(0), result.InProgressCount)
	require.Equal(t, int64(1), result.CriticalCount)
	require.Equal(t, int64(1), result.HighCount)
	require.Equal(t, int64(1), result.MediumCount)
	require.Equal(t, int64(0), result.LowCount)
	require.Equal(t, int64(1), result.ResolvedToday)
	require.Equal(t, int64(2), result.PerformanceAlerts)
	require.Equal(t, int64(1), result.AttendanceAlerts)
	require.Equal(t, int64(0), result.SessionMissedAlerts)
	require.Equal(t, "Asia/Jakarta", result.TimeZone)
}

func TestAlertAnalyticsFallsBackToDefaultTimeZone(t *testing.T) {
	db := setupAlertServiceTestDB(t)
	svc := NewAlertAnalyticsService(repository.NewPerformanceAlertRepository(db), repository.NewFoundationRepository(db), "Asia/Makassar", testLogger())

	result, err := svc.GetAnalytics(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Asia/Makassar", result.TimeZone)
	require.Zero(t, result.TotalActive)

	_, err = svc.GetAnalytics(context.Background(), 0)
	require.ErrorIs(t, err, ErrFoundationRequired)
}
