package store

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidRecord indicates a record missing a required field. The record is
// rejected; batch processing continues.
var ErrInvalidRecord = errors.New("invalid record")

// Error type constants for classification
const (
	ErrTypeLocked     = "locked"
	ErrTypeDatabase   = "database"
	ErrTypeValidation = "validation"
	ErrTypeTimeout    = "timeout"
	ErrTypeUnknown    = "unknown"
)

// ClassifyError inspects an error and returns its type classification.
// This enables grouping errors by category in metrics.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrInvalidRecord) {
		return ErrTypeValidation
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}

	errStrLower := strings.ToLower(err.Error())

	// Write-lock contention surfaces as SQLITE_BUSY / SQLITE_LOCKED
	if strings.Contains(errStrLower, "database is locked") ||
		strings.Contains(errStrLower, "database table is locked") ||
		strings.Contains(errStrLower, "busy") {
		return ErrTypeLocked
	}

	if strings.Contains(errStrLower, "sql") ||
		strings.Contains(errStrLower, "database") ||
		strings.Contains(errStrLower, "constraint") {
		return ErrTypeDatabase
	}

	if strings.Contains(errStrLower, "invalid") ||
		strings.Contains(errStrLower, "required") ||
		strings.Contains(errStrLower, "cannot be empty") ||
		strings.Contains(errStrLower, "must be") {
		return ErrTypeValidation
	}

	return ErrTypeUnknown
}
