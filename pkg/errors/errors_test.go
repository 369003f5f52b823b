package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	want := "classifier: LogisticRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewColumnError(t *testing.T) {
	err := NewColumnError("ReadCSV", "target", "ext")

	want := "classifier: ReadCSV: missing column(s): target, ext"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var colErr *ColumnError
	if !As(err, &colErr) {
		t.Fatal("Error should be castable to *ColumnError")
	}
	if len(colErr.Missing) != 2 {
		t.Errorf("Missing = %v, want 2 entries", colErr.Missing)
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		message string
		wantMsg string
	}{
		{
			name:    "conversion",
			op:      "ColumnTransformer.Transform",
			message: `row 3, column "length": could not convert "abc" to float`,
			wantMsg: `classifier: ColumnTransformer.Transform: row 3, column "length": could not convert "abc" to float`,
		},
		{
			name:    "parameter",
			op:      "TrainTestSplit",
			message: "test_size=1.5 should be in (0, 1)",
			wantMsg: "classifier: TrainTestSplit: test_size=1.5 should be in (0, 1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValueError(tt.op, tt.message)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestWarningMessages(t *testing.T) {
	conv := NewConvergenceWarning("lbfgs", 100, "")
	if !strings.Contains(conv.Error(), "failed to converge after 100 iterations") {
		t.Errorf("unexpected convergence message: %s", conv.Error())
	}

	single := NewSingleClassWarning("LogisticRegression", "1")
	if !strings.Contains(single.Error(), "single class (1)") {
		t.Errorf("unexpected single class message: %s", single.Error())
	}
}

func TestWarnUsesZerologFunc(t *testing.T) {
	var handled, bridged []error
	SetWarningHandler(func(w error) { handled = append(handled, w) })
	defer SetWarningHandler(nil)

	Warn(NewConvergenceWarning("lbfgs", 10, "x"))
	if len(handled) != 1 {
		t.Fatalf("handler called %d times, want 1", len(handled))
	}

	SetZerologWarnFunc(func(w error) { bridged = append(bridged, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("recall", "no true samples", 0))
	if len(bridged) != 1 || len(handled) != 1 {
		t.Errorf("bridged=%d handled=%d, want 1 and 1", len(bridged), len(handled))
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in TrainTestSplit")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in TrainTestSplit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}

	wrappedf := Wrapf(ErrEmptyData, "in %s: got %d rows", "Fit", 0)
	if !strings.Contains(wrappedf.Error(), "in Fit: got 0 rows") {
		t.Errorf("unexpected message: %s", wrappedf.Error())
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("SaveModel", "encode", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := CheckMatrix("input", ok, 2, 2, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4})
	err := CheckMatrix("input", bad, 2, 2, 0)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}

	if err := CheckScalar("loss", math.Inf(1), 3); err == nil {
		t.Error("expected error for +Inf")
	}
}
