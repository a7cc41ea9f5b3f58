package monitoring

import "github.com/noah-isme/scholarwatch-api/internal/models"

const (
	criticalGap = 20.0
	highGap     = 10.0

	// consecutiveHighMargin is how many terms past the configured count escalate to high.
	consecutiveHighMargin = 2

	epsilon = 1e-9
)

// ClassifyThresholdBreach maps a percentage breach (grade or attendance) to a severity.
// The caller guarantees actual is below threshold.
func ClassifyThresholdBreach(threshold, actual float64) models.AlertSeverity {
	gap := threshold - actual
	switch {
	case gap+epsilon >= criticalGap:
		return models.AlertSeverityCritical
	case gap+epsilon >= highGap:
		return models.AlertSeverityHigh
	default:
		return models.AlertSeverityMedium
	}
}

// ClassifyConsecutiveBreach maps a consecutive-terms breach to a severity.
func ClassifyConsecutiveBreach(configured, observed int) models.AlertSeverity {
	if observed-configured >= consecutiveHighMargin {
		return models.AlertSeverityHigh
	}
	return models.AlertSeverityMedium
}

// ClassifyMissedUploads returns the severity of a missed-uploads breach on its own.
func ClassifyMissedUploads() models.AlertSeverity {
	return models.AlertSeverityLow
}

// MaxSeverity returns the most severe tier among the provided values.
func MaxSeverity(severities ...models.AlertSeverity) models.AlertSeverity {
	var result models.AlertSeverity
	for _, severity := range severities {
		if severity.Rank() > result.Rank() {
			result = severity
		}
	}
	return result
}
