package engine

import (
	"errors"
	"fmt"
)

// MergeError is a fatal condition detected while merging one trace.
//
// Merge errors abort the trace merge in progress. The model is rolled back
// to its pre-merge state before the error reaches the caller.
type MergeError struct {
	// Code identifies the error category.
	Code MergeErrorCode

	// Message is a human-readable description.
	Message string

	// TraceID identifies the trace being merged.
	TraceID int64

	// Fingerprint is the structural signature of the trace, if computed.
	Fingerprint string

	// Node names the offending model element (span key, interaction, ...).
	Node string

	// Details contains additional context.
	Details map[string]string
}

// MergeErrorCode categorizes merge errors.
type MergeErrorCode string

const (
	// ErrCodeStructuralMismatch indicates an expected span, message or
	// interaction was missing, or more than one was found where exactly one
	// was required.
	ErrCodeStructuralMismatch MergeErrorCode = "STRUCTURAL_MISMATCH"

	// ErrCodeNegativeDuration indicates a computed net execution time < 0.
	ErrCodeNegativeDuration MergeErrorCode = "NEGATIVE_DURATION"

	// ErrCodeMissingOwnership indicates an element not owned where an owner
	// is required.
	ErrCodeMissingOwnership MergeErrorCode = "MISSING_OWNERSHIP"
)

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (trace=%d, node=%s)", e.Code, e.Message, e.TraceID, e.Node)
	}
	return fmt.Sprintf("%s: %s (trace=%d)", e.Code, e.Message, e.TraceID)
}

// IsStructuralMismatch returns true if err is a structural mismatch.
// Uses errors.As to handle wrapped errors.
func IsStructuralMismatch(err error) bool {
	return hasCode(err, ErrCodeStructuralMismatch)
}

// IsNegativeDuration returns true if err is a negative duration error.
func IsNegativeDuration(err error) bool {
	return hasCode(err, ErrCodeNegativeDuration)
}

// IsMissingOwnership returns true if err is a missing ownership error.
func IsMissingOwnership(err error) bool {
	return hasCode(err, ErrCodeMissingOwnership)
}

func hasCode(err error, code MergeErrorCode) bool {
	var me *MergeError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

func structuralMismatch(traceID int64, node, format string, args ...any) *MergeError {
	return &MergeError{
		Code:    ErrCodeStructuralMismatch,
		Message: fmt.Sprintf(format, args...),
		TraceID: traceID,
		Node:    node,
	}
}

func negativeDuration(traceID int64, node string, total, children, net int64) *MergeError {
	return &MergeError{
		Code:    ErrCodeNegativeDuration,
		Message: fmt.Sprintf("net execution time %d < 0", net),
		TraceID: traceID,
		Node:    node,
		Details: map[string]string{
			"total":       fmt.Sprintf("%d", total),
			"child_total": fmt.Sprintf("%d", children),
			"net":         fmt.Sprintf("%d", net),
		},
	}
}

func missingOwnership(traceID int64, node, format string, args ...any) *MergeError {
	return &MergeError{
		Code:    ErrCodeMissingOwnership,
		Message: fmt.Sprintf(format, args...),
		TraceID: traceID,
		Node:    node,
	}
}
