package validate

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	// Schema errors (E200)
	ErrSchema = "E200" // exported view does not match the CUE schema

	// Ownership errors (E201-E209)
	ErrMissingOwnership     = "E201" // interaction back-link does not name its owner
	ErrDuplicateScenario    = "E202" // two scenarios share a name
	ErrDuplicateFingerprint = "E203" // two interactions share a fingerprint
	ErrDuplicateInteraction = "E204" // two interactions share a name

	// Statistics errors (E210-E219)
	ErrSampleCount      = "E210" // span sample count differs from applied ids
	ErrNegativeExecTime = "E211" // negative net execution time sum
	ErrTraceCount       = "E212" // scenario trace count differs from applied ids
	ErrAppliedIDs       = "E213" // applied id set not sorted or not unique

	// Structure errors (E220-E229)
	ErrUnclosedSpan         = "E220" // span closes before it opens
	ErrUnknownParticipant   = "E221" // span or message names a missing participant
	ErrMissingEntrySpan     = "E222" // interaction has no entry span
	ErrUnknownComponent     = "E223" // participant references a missing component
	ErrDanglingStaticEdge   = "E224" // static edge references a missing element
	ErrDuplicateStaticEntry = "E225" // static element listed twice
)

// ValidationError is one consistency violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Error is returned by Validator.Validate when a model is inconsistent.
type Error struct {
	Errors []ValidationError
}

func (e *Error) Error() string {
	if len(e.Errors) == 1 {
		return "invalid model: " + e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid model: %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}
