package models

import (
	"errors"
	"fmt"
)

// ErrAllConfigurationsFailed is returned by the orchestrator when every
// configuration in a grid failed or produced an ineligible score.
var ErrAllConfigurationsFailed = errors.New("all configurations failed or ineligible")

// ErrTuningLocked is returned when another process holds the advisory tuning
// lock for the instrument; the run is skipped, not failed.
var ErrTuningLocked = errors.New("tuning lock held by another process")

// ConfigurationError reports a malformed grid axis or a configuration that
// violates a structural invariant. It is raised before any training.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(format string, a ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, a...)}
}

// InsufficientDataError reports a series/configuration pair that cannot
// produce a single valid walk-forward split.
type InsufficientDataError struct {
	Symbol string
	Need   int
	Have   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient data for %s: %s", e.Symbol, e.Reason)
	}
	return fmt.Sprintf("insufficient data for %s: need %d bars, have %d", e.Symbol, e.Need, e.Have)
}

// TrainingFailure wraps a predictor error raised while fitting a model.
// The failed configuration is excluded from selection.
type TrainingFailure struct {
	Err error
}

func (e *TrainingFailure) Error() string { return "training failure: " + e.Err.Error() }
func (e *TrainingFailure) Unwrap() error { return e.Err }

// PredictionFailure wraps a predictor error raised while scoring test bars
// of an already trained model.
type PredictionFailure struct {
	Err error
}

func (e *PredictionFailure) Error() string { return "prediction failure: " + e.Err.Error() }
func (e *PredictionFailure) Unwrap() error { return e.Err }

// PersistenceFailure wraps a store error after a winner was selected.
// Hyperparameter and model saves are attempted independently, so one
// failing never prevents the other.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure (%s): %v", e.Op, e.Err)
}
func (e *PersistenceFailure) Unwrap() error { return e.Err }
