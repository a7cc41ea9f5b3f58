package monitoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.AlertStatus{
		{models.AlertStatusActive, models.AlertStatusAcknowledged},
		{models.AlertStatusActive, models.AlertStatusInProgress},
		{models.AlertStatusActive, models.AlertStatusResolved},
		{models.AlertStatusAcknowledged, models.AlertStatusInProgress},
		{models.AlertStatusAcknowledged, models.AlertStatusResolved},
		{models.AlertStatusInProgress, models.AlertStatusResolved},
	}
	for _, pair := range allowed {
		require.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	rejected := [][2]models.AlertStatus{
		{models.AlertStatusAcknowledged, models.AlertStatusAcknowledged},
		{models.AlertStatusInProgress, models.AlertStatusAcknowledged},
		{models.AlertStatusInProgress, models.AlertStatusInProgress},
		{models.AlertStatusResolved, models.AlertStatusActive},
		{models.AlertStatusInProgress, models.AlertStatusActive},
	}
	for _, pair := range rejected {
		require.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestResolvedIsTerminal(t *testing.T) {
	require.True(t, IsTerminal(models.AlertStatusResolved))
	for _, target := range []models.AlertStatus{
		models.AlertStatusActive,
		models.AlertStatusAcknowledged,
		models.AlertStatusInProgress,
		models.AlertStatusResolved,
	} {
		require.False(t, CanTransition(models.AlertStatusResolved, target))
	}
}
