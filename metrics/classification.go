// Package metrics provides classification metrics and the classification
// report written next to a trained model.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
)

// checkPair は2つのラベルベクトルが比較可能かを検証する
func checkPair(op string, yTrue, yPred mat.Vector) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, clfErrors.NewValueError(op, "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, clfErrors.NewValueError(op, "input vectors cannot be empty")
	}
	if n != yPred.Len() {
		return 0, clfErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// ClassificationError calculates the fraction of incorrect predictions.
//
// Example:
//
//	yTrue := mat.NewVecDense(5, []float64{0, 1, 2, 1, 0})
//	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 0})
//	rate, _ := ClassificationError(yTrue, yPred) // 0.2
func ClassificationError(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	wrong := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) != yPred.AtVec(i) {
			wrong++
		}
	}
	return float64(wrong) / float64(n), nil
}

// Accuracy calculates the fraction of correct predictions.
func Accuracy(yTrue, yPred mat.Vector) (float64, error) {
	errorRate, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1.0 - errorRate, nil
}

// ConfusionMatrix は混同行列を計算する
//
// yTrue と yPred は 0..nClasses-1 のクラスインデックスを持つ。
// 要素 (i, j) は真のクラスが i で j と予測されたサンプル数。
func ConfusionMatrix(yTrue, yPred mat.Vector, nClasses int) (*mat.Dense, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if nClasses <= 0 {
		return nil, clfErrors.NewValidationError("nClasses", "must be positive", nClasses)
	}

	cm := mat.NewDense(nClasses, nClasses, nil)
	for i := 0; i < n; i++ {
		t, p := int(yTrue.AtVec(i)), int(yPred.AtVec(i))
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			return nil, clfErrors.NewValidationError("labels",
				"class index out of range", [2]float64{yTrue.AtVec(i), yPred.AtVec(i)})
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}
	return cm, nil
}
