package monitoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

func TestClassifyThresholdBreachBands(t *testing.T) {
	cases := []struct {
		name      string
		threshold float64
		actual    float64
		expected  models.AlertSeverity
	}{
		{name: "far below", threshold: 75, actual: 50, expected: models.AlertSeverityCritical},
		{name: "exactly twenty", threshold: 75, actual: 55, expected: models.AlertSeverityCritical},
		{name: "exactly ten", threshold: 75, actual: 65, expected: models.AlertSeverityHigh},
		{name: "just below", threshold: 75, actual: 68, expected: models.AlertSeverityMedium},
		{name: "fractional", threshold: 60.5, actual: 50.6, expected: models.AlertSeverityMedium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ClassifyThresholdBreach(tc.threshold, tc.actual))
		})
	}
}

func TestClassifyThresholdBreachIsMonotonic(t *testing.T) {
	threshold := 80.0
	previous := models.AlertSeverity("")
	for actual := threshold - 0.5; actual >= 0; actual -= 0.5 {
		severity := ClassifyThresholdBreach(threshold, actual)
		require.GreaterOrEqual(t, severity.Rank(), previous.Rank(), "actual %.1f", actual)
		previous = severity
	}
	require.Equal(t, models.AlertSeverityCritical, previous)
}

func TestClassifyConsecutiveBreach(t *testing.T) {
	require.Equal(t, models.AlertSeverityMedium, ClassifyConsecutiveBreach(3, 3))
	require.Equal(t, models.AlertSeverityMedium, ClassifyConsecutiveBreach(3, 4))
	require.Equal(t, models.AlertSeverityHigh, ClassifyConsecutiveBreach(3, 5))
	require.Equal(t, models.AlertSeverityHigh, ClassifyConsecutiveBreach(3, 9))
}

func TestMaxSeverity(t *testing.T) {
	require.Equal(t, models.AlertSeverityMedium, MaxSeverity(models.AlertSeverityLow, models.AlertSeverityMedium))
	require.Equal(t, models.AlertSeverityCritical, MaxSeverity(models.AlertSeverityHigh, models.AlertSeverityCritical, models.AlertSeverityLow))
	require.Equal(t, models.AlertSeverityLow, MaxSeverity(ClassifyMissedUploads()))
	require.Equal(t, models.AlertSeverity(""), MaxSeverity())
}
