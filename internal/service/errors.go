package service

import "errors"

// Validation errors. Surfaced to the caller and never retried.
var (
	// ErrInvalidTransition indicates the requested lifecycle transition is not allowed from the alert's status.
	ErrInvalidTransition = errors.New("invalid alert status transition")
	// ErrResolutionNotesRequired indicates a resolve call without notes.
	ErrResolutionNotesRequired = errors.New("resolution notes are required")
	// ErrInvalidRuleConditions indicates a rule with out-of-range thresholds.
	ErrInvalidRuleConditions = errors.New("invalid rule conditions")
	// ErrFoundationRequired indicates a call without a foundation scope.
	ErrFoundationRequired = errors.New("foundation id is required")
)

// Not-found errors. Lookups outside the caller's foundation report the same errors.
var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrRuleNotFound  = errors.New("rule not found")
)

// ErrAlertConflict indicates another caller changed the alert first. Re-fetch before retrying.
var ErrAlertConflict = errors.New("alert was modified concurrently")

// ErrEvaluationDeferred indicates a record was stored but evaluating it failed. The record is not
// rolled back; the next sweep or record for the beneficiary evaluates it, so callers must not
// resubmit.
var ErrEvaluationDeferred = errors.New("performance recorded, alert evaluation deferred")

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrResolutionNotesRequired) ||
		errors.Is(err, ErrInvalidRuleConditions) ||
		errors.Is(err, ErrFoundationRequired)
}
