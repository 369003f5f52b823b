package preprocessing

import (
	"encoding/gob"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/model"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
)

func init() {
	gob.Register(&OneHotEncoder{})
	gob.Register(&StandardScaler{})
	gob.Register(&LabelEncoder{})
}

// HandleUnknown の値
const (
	// HandleUnknownError は未知カテゴリでエラーを返す（scikit-learnのデフォルト）
	HandleUnknownError = "error"
	// HandleUnknownIgnore は未知カテゴリを全て0のベクトルにする
	HandleUnknownIgnore = "ignore"
)

// OneHotEncoder はscikit-learn互換のOne-Hotエンコーダー
// カテゴリカルな文字列データを0/1のバイナリベクトルに変換する
type OneHotEncoder struct {
	model.BaseEstimator

	// HandleUnknown は Transform 時に未知カテゴリを見つけた場合の動作
	HandleUnknown string

	// Categories は各特徴量のカテゴリ一覧（ソート済み）
	Categories [][]string

	// CategoryToIdx は各特徴量のカテゴリ→インデックスマップ
	CategoryToIdx []map[string]int

	// NFeatures は入力特徴量数
	NFeatures int

	// NOutputs は出力特徴量数（全カテゴリの合計数）
	NOutputs int
}

// OneHotEncoderOption configures a OneHotEncoder.
type OneHotEncoderOption func(*OneHotEncoder)

// WithHandleUnknown sets the unknown category policy ("error" or "ignore").
func WithHandleUnknown(policy string) OneHotEncoderOption {
	return func(e *OneHotEncoder) { e.HandleUnknown = policy }
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
//
// 使用例:
//
//	encoder := preprocessing.NewOneHotEncoder()
//	err := encoder.Fit(data)
//	encoded, err := encoder.Transform(data)
func NewOneHotEncoder(opts ...OneHotEncoderOption) *OneHotEncoder {
	e := &OneHotEncoder{HandleUnknown: HandleUnknownError}
	e.ModelType = "OneHotEncoder"
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit は訓練データからカテゴリ情報を学習する
//
// data は n_samples × n_features の文字列スライス。
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer clfErrors.Recover(&err, "OneHotEncoder.Fit")
	if e.HandleUnknown != HandleUnknownError && e.HandleUnknown != HandleUnknownIgnore {
		return clfErrors.NewValidationError("handle_unknown", "must be 'error' or 'ignore'", e.HandleUnknown)
	}
	if len(data) == 0 {
		return clfErrors.NewModelError("OneHotEncoder.Fit", "empty data", clfErrors.ErrEmptyData)
	}
	if len(data[0]) == 0 {
		return clfErrors.NewModelError("OneHotEncoder.Fit", "empty features", clfErrors.ErrEmptyData)
	}

	nFeatures := len(data[0])
	for _, row := range data {
		if len(row) != nFeatures {
			return clfErrors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), 1)
		}
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.CategoryToIdx = make([]map[string]int, nFeatures)
	e.NOutputs = 0

	for j := 0; j < nFeatures; j++ {
		seen := make(map[string]struct{})
		for _, row := range data {
			seen[row[j]] = struct{}{}
		}

		categories := make([]string, 0, len(seen))
		for c := range seen {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		idx := make(map[string]int, len(categories))
		for k, c := range categories {
			idx[c] = k
		}
		e.Categories[j] = categories
		e.CategoryToIdx[j] = idx
		e.NOutputs += len(categories)
	}

	e.SetFitted()
	e.LogDebug("fit completed", "n_features", e.NFeatures, "n_outputs", e.NOutputs)
	return nil
}

// Transform は学習済みのカテゴリ情報を使ってデータをone-hot encodingする
//
// HandleUnknown が "error" の場合、未知カテゴリは ValueError になる。
func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer clfErrors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, clfErrors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(data) == 0 {
		return &mat.Dense{}, nil
	}

	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i, row := range data {
		if len(row) != e.NFeatures {
			return nil, clfErrors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, len(row), 1)
		}

		offset := 0
		for j, category := range row {
			idx, ok := e.CategoryToIdx[j][category]
			switch {
			case ok:
				result.Set(i, offset+idx, 1.0)
			case e.HandleUnknown == HandleUnknownError:
				return nil, clfErrors.NewValueError("OneHotEncoder.Transform",
					fmt.Sprintf("found unknown category %q in feature %d during transform", category, j))
			}
			offset += len(e.Categories[j])
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (e *OneHotEncoder) FitTransform(data [][]string) (_ mat.Matrix, err error) {
	defer clfErrors.Recover(&err, "OneHotEncoder.FitTransform")
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// GetFeatureNamesOut は変換後の特徴量の名前を返す
//
// 入力特徴量名が["ext"]でカテゴリが["com", "net"]の場合、
// ["ext_com", "ext_net"] を返す。inputFeatures が足りない場合は "x0", "x1", ... を使う。
func (e *OneHotEncoder) GetFeatureNamesOut(inputFeatures []string) []string {
	if !e.IsFitted() {
		return nil
	}

	out := make([]string, 0, e.NOutputs)
	for i, categories := range e.Categories {
		name := fmt.Sprintf("x%d", i)
		if i < len(inputFeatures) {
			name = inputFeatures[i]
		}
		for _, c := range categories {
			out = append(out, fmt.Sprintf("%s_%s", name, c))
		}
	}
	return out
}

// GetParams returns the encoder's hyperparameters.
func (e *OneHotEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"handle_unknown": e.HandleUnknown,
	}
}
