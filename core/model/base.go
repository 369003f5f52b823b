// Package model provides the shared building blocks for estimators.
//
// This package defines:
//
//   - BaseEstimator: fitted state tracking and a lazily created logger
//   - Transformer, FrameTransformer and Classifier: the contracts the
//     pipeline relies on
//   - Model persistence: save and load fitted estimators with encoding/gob
//     through an afero filesystem
//
// Estimators embed BaseEstimator:
//
//	type MyModel struct {
//		model.BaseEstimator
//		Coef []float64
//	}
//
//	func (m *MyModel) Fit(X mat.Matrix, y mat.Vector) error {
//		// training logic
//		m.SetFitted()
//		return nil
//	}
//
// Exported fields are what gets persisted, so fitted parameters must be
// exported on every estimator.
package model

import (
	"github.com/ezoic/phishing-classifier/pkg/log"
)

// EstimatorState represents the learning state of a model
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained
	Fitted
)

// BaseEstimator is the base structure for all models
type BaseEstimator struct {
	// State holds the model's learning state. Public for gob encoding.
	State EstimatorState

	// ModelType identifies the type of model, also used as the logger name.
	ModelType string

	// logger is not encoded by gob and is recreated on first use after a load.
	logger log.Logger
}

// IsFitted returns whether the model has been fitted with training data.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted. Called by Fit implementations.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its initial untrained state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}

// SetLogger overrides the logger for this estimator.
func (e *BaseEstimator) SetLogger(logger log.Logger) {
	e.logger = logger
}

// Logger returns the estimator's logger, creating a named one from the
// global provider when none was set.
func (e *BaseEstimator) Logger() log.Logger {
	if e.logger == nil {
		name := e.ModelType
		if name == "" {
			name = "Estimator"
		}
		e.logger = log.GetLoggerWithName(name).With(log.ModelNameKey, name)
	}
	return e.logger
}

// LogInfo logs an info-level message.
func (e *BaseEstimator) LogInfo(msg string, fields ...interface{}) {
	e.Logger().Info(msg, fields...)
}

// LogDebug logs a debug-level message.
func (e *BaseEstimator) LogDebug(msg string, fields ...interface{}) {
	e.Logger().Debug(msg, fields...)
}

// LogError logs an error-level message. If the first field is an error it
// is attached as the event error.
func (e *BaseEstimator) LogError(msg string, fields ...interface{}) {
	e.Logger().Error(msg, fields...)
}
