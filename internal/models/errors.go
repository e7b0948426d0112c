package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the query and ingestion pipeline.
// Callers match them with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownMetric    = errors.New("unknown metric")
	ErrUnknownStatistic = errors.New("unknown statistic")
	ErrInvalidRange     = errors.New("invalid range")
	ErrStorage          = errors.New("storage error")
)

// InvalidInputf returns an ErrInvalidInput carrying a formatted message.
func InvalidInputf(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ErrInvalidInput }

// UnknownValueError reports a value outside a closed vocabulary.
type UnknownValueError struct {
	Kind    error // ErrUnknownMetric or ErrUnknownStatistic
	Value   string
	Allowed []string
}

func (e *UnknownValueError) Error() string {
	allowed := strings.Join(e.Allowed, ", ")
	if errors.Is(e.Kind, ErrUnknownStatistic) {
		return fmt.Sprintf("invalid statistic: %s. Must be one of: %s", e.Value, allowed)
	}
	return fmt.Sprintf("invalid metric: %s. Allowed: %s", e.Value, allowed)
}

func (e *UnknownValueError) Unwrap() error { return e.Kind }

// RangeError reports a query window whose whole-day span is outside [MinWindowDays, MaxWindowDays].
type RangeError struct {
	Days int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("time range must be between %d and %d days, got %d", MinWindowDays, MaxWindowDays, e.Days)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// StorageError wraps any failure of the storage collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
