package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/phishing-classifier/preprocessing"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
)

// Report keys that follow the per-class entries, in scikit-learn's order.
const (
	AccuracyKey    = "accuracy"
	MacroAvgKey    = "macro avg"
	WeightedAvgKey = "weighted avg"
)

// LabelScores holds per-label precision, recall, F1 and support, aligned
// with Labels.
type LabelScores struct {
	Labels    []string
	Precision []float64
	Recall    []float64
	FScore    []float64
	Support   []int
}

// encodedLabels は文字列ラベルをクラスインデックスのベクトルに変換した結果
type encodedLabels struct {
	labels []string
	yTrue  *mat.VecDense
	yPred  *mat.VecDense
}

// encode maps yTrue and yPred onto positions in labels. With no labels the
// union of both slices is used, ordered like LabelEncoder orders classes.
func encode(op string, yTrue, yPred, labels []string) (*encodedLabels, error) {
	if len(yTrue) == 0 {
		return nil, clfErrors.Wrap(clfErrors.ErrEmptyData, op)
	}
	if len(yTrue) != len(yPred) {
		return nil, clfErrors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}

	if len(labels) == 0 {
		enc := preprocessing.NewLabelEncoder()
		all := make([]string, 0, len(yTrue)+len(yPred))
		all = append(append(all, yTrue...), yPred...)
		if err := enc.Fit(all); err != nil {
			return nil, err
		}
		labels = enc.Classes
	}

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	toVec := func(name string, ys []string) (*mat.VecDense, error) {
		v := mat.NewVecDense(len(ys), nil)
		for i, y := range ys {
			idx, ok := index[strings.TrimSpace(y)]
			if !ok {
				return nil, clfErrors.NewValueError(op,
					fmt.Sprintf("%s contains label %q which is not in labels %v", name, y, labels))
			}
			v.SetVec(i, float64(idx))
		}
		return v, nil
	}

	t, err := toVec("y_true", yTrue)
	if err != nil {
		return nil, err
	}
	p, err := toVec("y_pred", yPred)
	if err != nil {
		return nil, err
	}
	return &encodedLabels{labels: labels, yTrue: t, yPred: p}, nil
}

// PrecisionRecallFScoreSupport computes per-label precision, recall, F1
// score and support.
//
// A metric whose denominator is zero is set to 0 and an
// UndefinedMetricWarning is raised through errors.Warn, once per metric.
// The F1 score is 2·tp / (2·tp + fp + fn), which equals the harmonic mean of
// precision and recall whenever both are defined.
func PrecisionRecallFScoreSupport(yTrue, yPred, labels []string) (*LabelScores, error) {
	enc, err := encode("PrecisionRecallFScoreSupport", yTrue, yPred, labels)
	if err != nil {
		return nil, err
	}
	return scoresFrom(enc)
}

func scoresFrom(enc *encodedLabels) (*LabelScores, error) {
	k := len(enc.labels)
	cm, err := ConfusionMatrix(enc.yTrue, enc.yPred, k)
	if err != nil {
		return nil, err
	}

	s := &LabelScores{
		Labels:    enc.labels,
		Precision: make([]float64, k),
		Recall:    make([]float64, k),
		FScore:    make([]float64, k),
		Support:   make([]int, k),
	}

	var noPred, noTrue, noAny []string
	for i := 0; i < k; i++ {
		tp := cm.At(i, i)
		actual := floats.Sum(mat.Row(nil, i, cm))
		predicted := floats.Sum(mat.Col(nil, i, cm))
		fp, fn := predicted-tp, actual-tp

		s.Support[i] = int(actual)

		if predicted > 0 {
			s.Precision[i] = tp / predicted
		} else {
			noPred = append(noPred, enc.labels[i])
		}
		if actual > 0 {
			s.Recall[i] = tp / actual
		} else {
			noTrue = append(noTrue, enc.labels[i])
		}
		if denom := 2*tp + fp + fn; denom > 0 {
			s.FScore[i] = 2 * tp / denom
		} else {
			noAny = append(noAny, enc.labels[i])
		}
	}

	if len(noPred) > 0 {
		clfErrors.Warn(clfErrors.NewUndefinedMetricWarning("Precision",
			fmt.Sprintf("no predicted samples in labels %v", noPred), 0))
	}
	if len(noTrue) > 0 {
		clfErrors.Warn(clfErrors.NewUndefinedMetricWarning("Recall",
			fmt.Sprintf("no true samples in labels %v", noTrue), 0))
	}
	if len(noAny) > 0 {
		clfErrors.Warn(clfErrors.NewUndefinedMetricWarning("F-score",
			fmt.Sprintf("no true nor predicted samples in labels %v", noAny), 0))
	}
	return s, nil
}

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Report is a classification report in the layout of scikit-learn's
// classification_report(output_dict=True).
//
// JSON encoding keeps the layout's key order: one entry per class in Labels
// order, then "accuracy", "macro avg" and "weighted avg".
type Report struct {
	Labels      []string
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

// ClassificationReport builds a Report from true and predicted labels.
// Classes are the union of both label sets.
//
// Example:
//
//	report, _ := ClassificationReport([]string{"0", "1", "1"}, []string{"0", "1", "0"})
//	fmt.Println(report.Accuracy) // 0.6666666666666666
func ClassificationReport(yTrue, yPred []string) (*Report, error) {
	enc, err := encode("ClassificationReport", yTrue, yPred, nil)
	if err != nil {
		return nil, err
	}
	scores, err := scoresFrom(enc)
	if err != nil {
		return nil, err
	}
	acc, err := Accuracy(enc.yTrue, enc.yPred)
	if err != nil {
		return nil, err
	}

	k := len(scores.Labels)
	r := &Report{
		Labels:   scores.Labels,
		Classes:  make([]ClassMetrics, k),
		Accuracy: acc,
	}
	weights := make([]float64, k)
	for i := range r.Classes {
		r.Classes[i] = ClassMetrics{
			Precision: scores.Precision[i],
			Recall:    scores.Recall[i],
			F1Score:   scores.FScore[i],
			Support:   scores.Support[i],
		}
		weights[i] = float64(scores.Support[i])
	}

	total := int(floats.Sum(weights))
	r.MacroAvg = ClassMetrics{
		Precision: stat.Mean(scores.Precision, nil),
		Recall:    stat.Mean(scores.Recall, nil),
		F1Score:   stat.Mean(scores.FScore, nil),
		Support:   total,
	}
	r.WeightedAvg = ClassMetrics{
		Precision: stat.Mean(scores.Precision, weights),
		Recall:    stat.Mean(scores.Recall, weights),
		F1Score:   stat.Mean(scores.FScore, weights),
		Support:   total,
	}
	return r, nil
}

// Class returns the metrics of one class.
func (r *Report) Class(label string) (ClassMetrics, bool) {
	for i, l := range r.Labels {
		if l == label {
			return r.Classes[i], true
		}
	}
	return ClassMetrics{}, false
}

// MarshalJSON implements json.Marshaler.
func (r *Report) MarshalJSON() ([]byte, error) {
	if len(r.Labels) != len(r.Classes) {
		return nil, clfErrors.NewDimensionError("Report.MarshalJSON", len(r.Labels), len(r.Classes), 0)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeEntry := func(key string, value interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for i, label := range r.Labels {
		if err := writeEntry(label, r.Classes[i]); err != nil {
			return nil, err
		}
	}
	if err := writeEntry(AccuracyKey, r.Accuracy); err != nil {
		return nil, err
	}
	if err := writeEntry(MacroAvgKey, r.MacroAvg); err != nil {
		return nil, err
	}
	if err := writeEntry(WeightedAvgKey, r.WeightedAvg); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Class entries keep the order
// in which they appear in the document.
func (r *Report) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return clfErrors.Wrap(err, "failed to decode report")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return clfErrors.NewValueError("Report.UnmarshalJSON", "report must be a JSON object")
	}

	out := Report{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return clfErrors.Wrap(err, "failed to decode report")
		}
		key, _ := tok.(string)

		switch key {
		case AccuracyKey:
			err = dec.Decode(&out.Accuracy)
		case MacroAvgKey:
			err = dec.Decode(&out.MacroAvg)
		case WeightedAvgKey:
			err = dec.Decode(&out.WeightedAvg)
		default:
			var cm ClassMetrics
			if err = dec.Decode(&cm); err == nil {
				out.Labels = append(out.Labels, key)
				out.Classes = append(out.Classes, cm)
			}
		}
		if err != nil {
			return clfErrors.Wrapf(err, "failed to decode report entry %q", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return clfErrors.Wrap(err, "failed to decode report")
	}

	*r = out
	return nil
}

// String renders the report as scikit-learn's text table.
func (r *Report) String() string {
	width := len(WeightedAvgKey)
	for _, l := range r.Labels {
		if len(l) > width {
			width = len(l)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	row := func(name string, m ClassMetrics) {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, name, m.Precision, m.Recall, m.F1Score, m.Support)
	}
	for i, l := range r.Labels {
		row(l, r.Classes[i])
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, AccuracyKey, "", "", r.Accuracy, r.MacroAvg.Support)
	row(MacroAvgKey, r.MacroAvg)
	row(WeightedAvgKey, r.WeightedAvg)
	return b.String()
}
