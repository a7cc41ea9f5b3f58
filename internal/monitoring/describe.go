package monitoring

import (
	"fmt"
	"strings"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// Title returns a short human readable headline for the candidate.
func (c Candidate) Title() string {
	switch c.AlertType {
	case models.AlertTypeAttendanceLow:
		return "Attendance below threshold"
	case models.AlertTypeGradeDrop:
		return "Grade drop detected"
	case models.AlertTypeSessionMissed:
		return "Missed session uploads"
	default:
		return "Academic performance below threshold"
	}
}

// Description explains which conditions of the rule fired and with which values.
func (c Candidate) Description() string {
	parts := make([]string, 0, len(c.Matches))
	for _, m := range c.Matches {
		parts = append(parts, describeMatch(m))
	}

	name := strings.TrimSpace(c.Rule.Name)
	if name == "" {
		name = fmt.Sprintf("rule #%d", c.Rule.ID)
	}

	description := fmt.Sprintf("%s matched: %s.", name, strings.Join(parts, "; "))
	if c.AlertType == models.AlertTypeGradeDrop {
		description += " The grade fell compared with the previous session and has not improved."
	}
	return description
}

func describeMatch(m models.MatchedCondition) string {
	switch m.Condition {
	case models.ConditionGradeThreshold:
		return fmt.Sprintf("overall grade %.1f below %.1f", m.Actual, m.Threshold)
	case models.ConditionAttendanceThreshold:
		return fmt.Sprintf("attendance %.1f%% below %.1f%%", m.Actual, m.Threshold)
	case models.ConditionConsecutiveTermsBelow:
		return fmt.Sprintf("%d consecutive terms below passing (limit %d)", int(m.Actual), int(m.Threshold))
	case models.ConditionMissedUploads:
		return fmt.Sprintf("%d missed uploads (limit %d)", int(m.Actual), int(m.Threshold))
	default:
		return string(m.Condition)
	}
}
