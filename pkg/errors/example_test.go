package errors_test

import (
	"errors"
	"fmt"

	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
)

// Example_columnError shows how a missing input column surfaces to callers.
func Example_columnError() {
	err := clfErrors.NewColumnError("ColumnTransformer.Fit", "ext")

	wrapped := fmt.Errorf("training failed: %w", err)

	var colErr *clfErrors.ColumnError
	if errors.As(wrapped, &colErr) {
		fmt.Printf("missing: %v\n", colErr.Missing)
	}
	fmt.Println(wrapped)

	// Output: missing: [ext]
	// training failed: classifier: ColumnTransformer.Fit: missing column(s): ext
}

// Example_customErrorTypes demonstrates custom error type handling
func Example_customErrorTypes() {
	dimErr := clfErrors.NewDimensionError("StandardScaler.Transform", 5, 3, 1)

	wrappedErr := fmt.Errorf("preprocessing failed: %w", dimErr)

	var dimensionErr *clfErrors.DimensionError
	if errors.As(wrappedErr, &dimensionErr) {
		fmt.Printf("Dimension error: expected %d, got %d\n",
			dimensionErr.Expected, dimensionErr.Got)
	}

	// Output: Dimension error: expected 5, got 3
}

// Example_errorComparison demonstrates error comparison patterns
func Example_errorComparison() {
	notFittedErr := clfErrors.NewNotFittedError("LogisticRegression", "Predict")
	valueErr := clfErrors.NewValueError("ColumnTransformer", "could not convert \"abc\" to float")

	var notFitted *clfErrors.NotFittedError
	if errors.As(notFittedErr, &notFitted) {
		fmt.Printf("Model %s is not fitted for %s\n",
			notFitted.ModelName, notFitted.Method)
	}

	var valErr *clfErrors.ValueError
	if errors.As(valueErr, &valErr) {
		fmt.Printf("Value error in %s: %s\n", valErr.Op, valErr.Message)
	}

	// Output: Model LogisticRegression is not fitted for Predict
	// Value error in ColumnTransformer: could not convert "abc" to float
}

// Example_warnings routes warnings to a custom handler.
func Example_warnings() {
	clfErrors.SetWarningHandler(func(w error) {
		fmt.Println("warning:", w)
	})
	defer clfErrors.SetWarningHandler(nil)

	clfErrors.Warn(clfErrors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))

	// Output: warning: 'precision' is ill-defined and being set to 0.0 due to no predicted samples.
}
