package monitoring

import "github.com/noah-isme/scholarwatch-api/internal/models"

// allowedSources lists, for each target status, the statuses an alert may move from.
// acknowledged is optional before in_progress, and resolution is reachable from any open status.
var allowedSources = map[models.AlertStatus][]models.AlertStatus{
	models.AlertStatusAcknowledged: {models.AlertStatusActive},
	models.AlertStatusInProgress:   {models.AlertStatusActive, models.AlertStatusAcknowledged},
	models.AlertStatusResolved:     {models.AlertStatusActive, models.AlertStatusAcknowledged, models.AlertStatusInProgress},
}

// CanTransition reports whether an alert may move from one status to another.
func CanTransition(from, to models.AlertStatus) bool {
	for _, source := range allowedSources[to] {
		if source == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from the status.
func IsTerminal(status models.AlertStatus) bool {
	return status == models.AlertStatusResolved
}
