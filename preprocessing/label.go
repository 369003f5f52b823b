package preprocessing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/model"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
)

// LabelEncoder はクラスラベル（文字列）を 0..n_classes-1 の整数に変換する
//
// 全てのラベルが数値として解釈できる場合は数値順、そうでなければ辞書順に並べる。
// "0" と "1" のようなラベルは 0.0 と 1.0 として並ぶが、Classes には元の文字列が残る。
type LabelEncoder struct {
	model.BaseEstimator

	// Classes は並べ替え済みのクラスラベル
	Classes []string

	// Numeric は全ラベルが数値として並べられたかどうか
	Numeric bool

	index map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	l := &LabelEncoder{}
	l.ModelType = "LabelEncoder"
	return l
}

// Fit はユニークなラベルを学習する
func (l *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return clfErrors.NewModelError("LabelEncoder.Fit", "empty data", clfErrors.ErrEmptyData)
	}

	seen := make(map[string]struct{})
	classes := make([]string, 0)
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		classes = append(classes, label)
	}

	l.Numeric = true
	values := make(map[string]float64, len(classes))
	for _, c := range classes {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			l.Numeric = false
			break
		}
		values[c] = v
	}

	if l.Numeric {
		sort.SliceStable(classes, func(i, j int) bool {
			if values[classes[i]] != values[classes[j]] {
				return values[classes[i]] < values[classes[j]]
			}
			return classes[i] < classes[j]
		})
	} else {
		sort.Strings(classes)
	}

	l.Classes = classes
	l.index = nil
	l.SetFitted()
	return nil
}

// Transform は各ラベルをクラス番号に変換する。未知のラベルはエラー。
func (l *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !l.IsFitted() {
		return nil, clfErrors.NewNotFittedError("LabelEncoder", "Transform")
	}

	index := l.lookup()
	out := make([]int, len(labels))
	for i, raw := range labels {
		k, ok := index[strings.TrimSpace(raw)]
		if !ok {
			return nil, clfErrors.NewValueError("LabelEncoder.Transform",
				fmt.Sprintf("y contains previously unseen label %q", raw))
		}
		out[i] = k
	}
	return out, nil
}

// TransformVec は Transform の結果を分類器に渡せるベクトルとして返す
func (l *LabelEncoder) TransformVec(labels []string) (*mat.VecDense, error) {
	codes, err := l.Transform(labels)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return &mat.VecDense{}, nil
	}
	data := make([]float64, len(codes))
	for i, c := range codes {
		data[i] = float64(c)
	}
	return mat.NewVecDense(len(data), data), nil
}

// FitTransform は学習と変換を同時に行う
func (l *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := l.Fit(labels); err != nil {
		return nil, err
	}
	return l.Transform(labels)
}

// InverseTransform はクラス番号を元のラベルに戻す
func (l *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if !l.IsFitted() {
		return nil, clfErrors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}

	out := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(l.Classes) {
			return nil, clfErrors.NewValueError("LabelEncoder.InverseTransform",
				fmt.Sprintf("class index %d out of range [0, %d)", c, len(l.Classes)))
		}
		out[i] = l.Classes[c]
	}
	return out, nil
}

// NClasses returns the number of distinct labels seen during Fit.
func (l *LabelEncoder) NClasses() int { return len(l.Classes) }

// lookup は gob で復元した後にも使えるよう index を遅延生成する
func (l *LabelEncoder) lookup() map[string]int {
	if l.index == nil {
		l.index = make(map[string]int, len(l.Classes))
		for i, c := range l.Classes {
			l.index[c] = i
		}
	}
	return l.index
}
