package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/frame"
)

// Fittable is implemented by every estimator that tracks fitted state.
type Fittable interface {
	IsFitted() bool
}

// Transformer learns a mapping on a numeric matrix and applies it.
type Transformer interface {
	Fittable
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// FrameTransformer turns a table of raw string cells into a numeric matrix.
// It is the first step of a pipeline.
type FrameTransformer interface {
	Fittable
	Fit(df *frame.Frame) error
	Transform(df *frame.Frame) (mat.Matrix, error)
	// GetFeatureNamesOut returns the names of the output columns.
	GetFeatureNamesOut() []string
}

// Classifier is a supervised estimator that predicts class indices.
// Labels are expected as float64 values of non-negative integers.
type Classifier interface {
	Fittable
	Fit(X mat.Matrix, y mat.Vector) error
	// Predict returns an n x 1 matrix of class labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
	// PredictProba returns an n x n_classes matrix of class probabilities.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// ParamGetter exposes hyperparameters in scikit-learn style.
type ParamGetter interface {
	GetParams() map[string]interface{}
}
