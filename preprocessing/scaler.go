package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/phishing-classifier/core/model"
	"github.com/ezoic/phishing-classifier/core/parallel"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
)

// zeroScaleTolerance はこれ未満の標準偏差を0とみなす閾値（10 * machine epsilon）
const zeroScaleTolerance = 10 * 2.220446049250313e-16

// StandardScaler は平均0、分散1に標準化するスケーラー
//
// 分散は母分散（自由度0）で計算する。分散が0の特徴量はスケール1.0になり、
// 変換後は0になる。
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// NFeatures は学習時の特徴量数
	NFeatures int

	// NSamplesSeen は学習に使ったサンプル数
	NSamplesSeen int

	WithMean bool
	WithStd  bool
}

// NewStandardScaler は新しいStandardScalerを作成する
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	s := &StandardScaler{WithMean: withMean, WithStd: withStd}
	s.ModelType = "StandardScaler"
	return s
}

// NewStandardScalerDefault は scikit-learn のデフォルト設定（平均と分散の両方を使う）で作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は各特徴量の平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer clfErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return clfErrors.NewModelError("StandardScaler.Fit", "empty data", clfErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.NSamplesSeen = r
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)

		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		if s.WithStd && !math.IsNaN(std) && std >= zeroScaleTolerance {
			s.Scale[j] = std
		}
	}

	s.SetFitted()
	s.LogDebug("fit completed", "n_samples", r, "n_features", c)
	return nil
}

// Transform は (X - Mean) / Scale を計算する
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer clfErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, clfErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, clfErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}
	if r == 0 {
		return &mat.Dense{}, nil
	}

	result := mat.NewDense(r, c, nil)
	err = parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) error {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FitTransform は学習と変換を同時に行う
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer clfErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化を元に戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer clfErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return nil, clfErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, clfErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}
	if r == 0 {
		return &mat.Dense{}, nil
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
