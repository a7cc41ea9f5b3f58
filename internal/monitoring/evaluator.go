package monitoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/scholarwatch-api/internal/models"
)

// DefaultPassingGrade is the grade below which a term counts towards consecutiveTermsBelow
// when a rule does not configure its own grade threshold.
const DefaultPassingGrade = 60.0

// ErrMalformedRule marks a rule whose conditions cannot be evaluated.
var ErrMalformedRule = errors.New("malformed rule conditions")

// Candidate is an alert the evaluator decided should exist for a record.
type Candidate struct {
	AlertType models.AlertType
	Severity  models.AlertSeverity
	Matches   []models.MatchedCondition
	// SessionScoped is false for breaches spanning several sessions.
	SessionScoped bool
	Rule          models.PerformanceRule
}

// RuleIssue describes an active rule that was skipped during evaluation.
type RuleIssue struct {
	RuleID   uint
	RuleName string
	Reason   string
}

// Options configures the evaluator.
type Options struct {
	PassingGrade float64
}

// Evaluator checks performance records against a foundation's rules.
type Evaluator struct {
	passingGrade float64
}

// NewEvaluator constructs an evaluator.
func NewEvaluator(opts Options) *Evaluator {
	passing := opts.PassingGrade
	if passing <= 0 || passing > 100 || math.IsNaN(passing) {
		passing = DefaultPassingGrade
	}
	return &Evaluator{passingGrade: passing}
}

// ValidateConditions checks that configured thresholds are within range.
func ValidateConditions(conditions models.RuleConditions) error {
	if v := conditions.GradeThreshold; v != nil && !validPercentage(*v) {
		return fmt.Errorf("%w: grade threshold %v must be within 0-100", ErrMalformedRule, *v)
	}
	if v := conditions.AttendanceThreshold; v != nil && !validPercentage(*v) {
		return fmt.Errorf("%w: attendance threshold %v must be within 0-100", ErrMalformedRule, *v)
	}
	if v := conditions.ConsecutiveTermsBelow; v != nil && *v < 1 {
		return fmt.Errorf("%w: consecutive terms below must be at least 1, got %d", ErrMalformedRule, *v)
	}
	if v := conditions.MissedUploads; v != nil && *v < 1 {
		return fmt.Errorf("%w: missed uploads must be at least 1, got %d", ErrMalformedRule, *v)
	}
	return nil
}

func validPercentage(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

// Prepare keeps active, well-formed rules in evaluation order (oldest first) and reports the
// malformed ones. Inactive rules are dropped silently.
func (e *Evaluator) Prepare(rules []models.PerformanceRule) ([]models.PerformanceRule, []RuleIssue) {
	prepared := make([]models.PerformanceRule, 0, len(rules))
	var issues []RuleIssue

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if err := ValidateConditions(rule.Conditions); err != nil {
			issues = append(issues, RuleIssue{RuleID: rule.ID, RuleName: rule.Name, Reason: err.Error()})
			continue
		}
		prepared = append(prepared, rule)
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		if !prepared[i].CreatedAt.Equal(prepared[j].CreatedAt) {
			return prepared[i].CreatedAt.Before(prepared[j].CreatedAt)
		}
		return prepared[i].ID < prepared[j].ID
	})

	return prepared, issues
}

// HistoryDepth returns how many records (including the latest) are needed to evaluate the rules
// and grade their severity.
func HistoryDepth(rules []models.PerformanceRule) int {
	depth := 2
	for _, rule := range rules {
		if v := rule.Conditions.ConsecutiveTermsBelow; v != nil && *v+consecutiveHighMargin > depth {
			depth = *v + consecutiveHighMargin
		}
	}
	return depth
}

// Evaluate returns the alert candidates for a record. prior holds earlier records of the same
// beneficiary, most recent first; rules must come from Prepare.
func (e *Evaluator) Evaluate(record models.PerformanceRecord, prior []models.PerformanceRecord, rules []models.PerformanceRule) []Candidate {
	if !record.HasMeasurements() {
		return nil
	}

	seen := make(map[models.AlertType]struct{})
	var candidates []Candidate

	for _, rule := range rules {
		matches := e.match(rule.Conditions, record, prior)
		if len(matches) == 0 {
			continue
		}

		candidate, ok := buildCandidate(rule, matches, record, prior, seen)
		if !ok {
			continue
		}
		seen[candidate.AlertType] = struct{}{}
		candidates = append(candidates, candidate)
	}

	return candidates
}

// match checks every configured condition; the order of the result (grade, consecutive,
// attendance, uploads) is relied upon when picking the dominant breach.
func (e *Evaluator) match(conditions models.RuleConditions, record models.PerformanceRecord, prior []models.PerformanceRecord) []models.MatchedCondition {
	var matches []models.MatchedCondition

	if threshold := conditions.GradeThreshold; threshold != nil && record.OverallGrade != nil && *record.OverallGrade < *threshold {
		matches = append(matches, models.MatchedCondition{
			Condition: models.ConditionGradeThreshold,
			Threshold: *threshold,
			Actual:    *record.OverallGrade,
			Severity:  ClassifyThresholdBreach(*threshold, *record.OverallGrade),
		})
	}

	if configured := conditions.ConsecutiveTermsBelow; configured != nil {
		limit := e.passingGrade
		if conditions.GradeThreshold != nil {
			limit = *conditions.GradeThreshold
		}
		observed := consecutiveBelow(record, prior, limit)
		if observed >= *configured {
			matches = append(matches, models.MatchedCondition{
				Condition: models.ConditionConsecutiveTermsBelow,
				Threshold: float64(*configured),
				Actual:    float64(observed),
				Severity:  ClassifyConsecutiveBreach(*configured, observed),
			})
		}
	}

	if threshold := conditions.AttendanceThreshold; threshold != nil && record.Attendance != nil && *record.Attendance < *threshold {
		matches = append(matches, models.MatchedCondition{
			Condition: models.ConditionAttendanceThreshold,
			Threshold: *threshold,
			Actual:    *record.Attendance,
			Severity:  ClassifyThresholdBreach(*threshold, *record.Attendance),
		})
	}

	if threshold := conditions.MissedUploads; threshold != nil && record.MissedUploads != nil && *record.MissedUploads >= *threshold {
		matches = append(matches, models.MatchedCondition{
			Condition: models.ConditionMissedUploads,
			Threshold: float64(*threshold),
			Actual:    float64(*record.MissedUploads),
			Severity:  ClassifyMissedUploads(),
		})
	}

	return matches
}

// consecutiveBelow counts the run of terms, starting at the latest record, graded below limit.
// A missing grade ends the run.
func consecutiveBelow(record models.PerformanceRecord, prior []models.PerformanceRecord, limit float64) int {
	if record.OverallGrade == nil || *record.OverallGrade >= limit {
		return 0
	}

	count := 1
	for _, previous := range prior {
		if previous.OverallGrade == nil || *previous.OverallGrade >= limit {
			break
		}
		count++
	}
	return count
}

// buildCandidate types the rule's alert after its strongest grade or attendance breach. When an
// earlier rule already produced that type, the next strongest breach whose type is still free is
// used; missed uploads come last. Severity and matches always cover the whole rule.
func buildCandidate(rule models.PerformanceRule, matches []models.MatchedCondition, record models.PerformanceRecord, prior []models.PerformanceRecord, taken map[models.AlertType]struct{}) (Candidate, bool) {
	severities := make([]models.AlertSeverity, 0, len(matches))
	for _, m := range matches {
		severities = append(severities, m.Severity)
	}

	for _, m := range rankMatches(matches) {
		alertType, sessionScoped := matchAlertType(m, record, prior)
		if _, exists := taken[alertType]; exists {
			continue
		}
		return Candidate{
			AlertType:     alertType,
			Severity:      MaxSeverity(severities...),
			Matches:       matches,
			SessionScoped: sessionScoped,
			Rule:          rule,
		}, true
	}

	return Candidate{}, false
}

// rankMatches orders grade and attendance breaches by severity, earlier matches first on ties,
// followed by missed uploads.
func rankMatches(matches []models.MatchedCondition) []models.MatchedCondition {
	ranked := make([]models.MatchedCondition, 0, len(matches))
	var uploads []models.MatchedCondition
	for _, m := range matches {
		if m.Condition == models.ConditionMissedUploads {
			uploads = append(uploads, m)
			continue
		}
		ranked = append(ranked, m)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
	})
	return append(ranked, uploads...)
}

func matchAlertType(m models.MatchedCondition, record models.PerformanceRecord, prior []models.PerformanceRecord) (models.AlertType, bool) {
	switch m.Condition {
	case models.ConditionAttendanceThreshold:
		return models.AlertTypeAttendanceLow, true
	case models.ConditionMissedUploads:
		return models.AlertTypeSessionMissed, true
	}

	alertType := models.AlertTypePerformanceLow
	if isGradeDrop(record, prior) {
		alertType = models.AlertTypeGradeDrop
	}
	// Consecutive low terms span sessions.
	return alertType, m.Condition != models.ConditionConsecutiveTermsBelow
}

func isGradeDrop(record models.PerformanceRecord, prior []models.PerformanceRecord) bool {
	if record.HasImproved == nil || *record.HasImproved {
		return false
	}
	if record.OverallGrade == nil || len(prior) == 0 || prior[0].OverallGrade == nil {
		return false
	}
	return *prior[0].OverallGrade > *record.OverallGrade
}
