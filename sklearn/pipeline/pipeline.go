// Package pipeline implements scikit-learn compatible Pipeline for chaining transformers and estimators.
//
// A Pipeline here starts from a table of raw cells: the first step turns a
// frame.Frame into a numeric matrix, intermediate steps transform matrices
// and the final step is a classifier.
package pipeline

import (
	"encoding/gob"
	"fmt"
	"reflect"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/core/model"
	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
)

func init() {
	gob.Register(&Pipeline{})
}

// Step represents a single step in the pipeline.
// Each step is a tuple of (name, transformer/estimator).
type Step struct {
	Name      string      // Name of this step (for identification)
	Estimator interface{} // FrameTransformer, Transformer or Classifier
}

// Pipeline chains a frame transformer, matrix transformers and a final
// classifier.
//
// Steps and fitted state are exported so a fitted Pipeline can be saved
// with model.SaveModel. Concrete step types must be registered with gob,
// which every estimator package does in its init.
type Pipeline struct {
	model.BaseEstimator

	Steps   []Step
	Verbose bool // If true, log time elapsed while fitting each step
}

// New creates a new Pipeline with the given steps.
// This is equivalent to sklearn.pipeline.Pipeline(steps)
func New(steps ...Step) *Pipeline {
	p := &Pipeline{Steps: steps}
	p.ModelType = "Pipeline"
	return p
}

// Make is similar to sklearn.pipeline.make_pipeline: step names are the
// lower-cased type names of the estimators.
func Make(estimators ...interface{}) *Pipeline {
	steps := make([]Step, len(estimators))
	seen := make(map[string]int)
	for i, estimator := range estimators {
		name := stepName(estimator)
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s-%d", name, seen[name])
		}
		steps[i] = Step{Name: name, Estimator: estimator}
	}
	return New(steps...)
}

func stepName(estimator interface{}) string {
	t := reflect.TypeOf(estimator)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}

// validate checks the shape of the pipeline: at least two steps, a frame
// transformer first, matrix transformers in between and a classifier last.
func (p *Pipeline) validate() error {
	if len(p.Steps) < 2 {
		return errors.NewValidationError("steps", "pipeline needs a frame transformer and a final estimator", len(p.Steps))
	}

	names := make(map[string]bool, len(p.Steps))
	for _, s := range p.Steps {
		if names[s.Name] {
			return errors.NewValidationError("steps", "step names must be unique", s.Name)
		}
		names[s.Name] = true
	}

	if _, ok := p.Steps[0].Estimator.(model.FrameTransformer); !ok {
		return errors.NewValidationError("pipeline step", "first step must consume a frame", p.Steps[0].Name)
	}
	for _, s := range p.Steps[1 : len(p.Steps)-1] {
		if _, ok := s.Estimator.(model.Transformer); !ok {
			return errors.NewValidationError("pipeline step", "all intermediate steps must be transformers", s.Name)
		}
	}
	last := p.Steps[len(p.Steps)-1]
	if _, ok := last.Estimator.(model.Classifier); !ok {
		return errors.NewValidationError("pipeline final step", "final step must be a classifier", last.Name)
	}
	return nil
}

func (p *Pipeline) head() model.FrameTransformer {
	return p.Steps[0].Estimator.(model.FrameTransformer)
}

func (p *Pipeline) final() model.Classifier {
	return p.Steps[len(p.Steps)-1].Estimator.(model.Classifier)
}

// Fit trains the pipeline.
// Fit all the transformers one after the other and transform the
// data, then fit the final estimator.
func (p *Pipeline) Fit(df *frame.Frame, y mat.Vector) error {
	if err := p.validate(); err != nil {
		return err
	}
	if df.NRows() != y.Len() {
		return errors.NewDimensionError("Pipeline.Fit", df.NRows(), y.Len(), 0)
	}

	start := time.Now()
	head := p.head()
	if err := head.Fit(df); err != nil {
		return errors.Wrapf(err, "failed to fit step '%s'", p.Steps[0].Name)
	}
	Xt, err := head.Transform(df)
	if err != nil {
		return errors.Wrapf(err, "failed to transform at step '%s'", p.Steps[0].Name)
	}
	p.logStep(p.Steps[0].Name, start, Xt)

	for _, step := range p.Steps[1 : len(p.Steps)-1] {
		start = time.Now()
		transformer := step.Estimator.(model.Transformer)
		if err := transformer.Fit(Xt); err != nil {
			return errors.Wrapf(err, "failed to fit step '%s'", step.Name)
		}
		if Xt, err = transformer.Transform(Xt); err != nil {
			return errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
		}
		p.logStep(step.Name, start, Xt)
	}

	start = time.Now()
	last := p.Steps[len(p.Steps)-1]
	if err := p.final().Fit(Xt, y); err != nil {
		return errors.Wrapf(err, "failed to fit final step '%s'", last.Name)
	}
	p.logStep(last.Name, start, Xt)

	p.SetFitted()
	return nil
}

func (p *Pipeline) logStep(name string, start time.Time, Xt mat.Matrix) {
	if !p.Verbose {
		return
	}
	r, c := Xt.Dims()
	p.LogInfo("step fitted",
		"step", name,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
}

// Transform applies every step except the final estimator.
func (p *Pipeline) Transform(df *frame.Frame) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	Xt, err := p.head().Transform(df)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to transform at step '%s'", p.Steps[0].Name)
	}
	for _, step := range p.Steps[1 : len(p.Steps)-1] {
		Xt, err = step.Estimator.(model.Transformer).Transform(Xt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to transform at step '%s'", step.Name)
		}
	}
	return Xt, nil
}

// Predict applies transforms to the data, and predict with the final estimator.
func (p *Pipeline) Predict(df *frame.Frame) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	Xt, err := p.Transform(df)
	if err != nil {
		return nil, err
	}
	return p.final().Predict(Xt)
}

// PredictProba applies transforms to the data, and predict_proba with the final estimator.
func (p *Pipeline) PredictProba(df *frame.Frame) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}
	Xt, err := p.Transform(df)
	if err != nil {
		return nil, err
	}
	return p.final().PredictProba(Xt)
}

// FitPredict is a convenience method that fits the pipeline and predicts.
func (p *Pipeline) FitPredict(df *frame.Frame, y mat.Vector) (mat.Matrix, error) {
	if err := p.Fit(df, y); err != nil {
		return nil, err
	}
	return p.Predict(df)
}

// Score returns the mean accuracy of the predictions on df.
func (p *Pipeline) Score(df *frame.Frame, y mat.Vector) (float64, error) {
	pred, err := p.Predict(df)
	if err != nil {
		return 0, err
	}
	n := y.Len()
	if n == 0 {
		return 0, errors.NewModelError("Pipeline.Score", "empty data", errors.ErrEmptyData)
	}
	if r, _ := pred.Dims(); r != n {
		return 0, errors.NewDimensionError("Pipeline.Score", r, n, 0)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if pred.At(i, 0) == y.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// FeatureNamesOut returns the column names produced by the first step.
func (p *Pipeline) FeatureNamesOut() []string {
	if len(p.Steps) == 0 {
		return nil
	}
	if ft, ok := p.Steps[0].Estimator.(model.FrameTransformer); ok {
		return ft.GetFeatureNamesOut()
	}
	return nil
}

// GetParams returns the parameters of the pipeline.
// Step parameters are prefixed with "<step>__".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Name
	}
	params["steps"] = names
	params["verbose"] = p.Verbose

	for _, step := range p.Steps {
		if getter, ok := step.Estimator.(model.ParamGetter); ok {
			for key, value := range getter.GetParams() {
				params[fmt.Sprintf("%s__%s", step.Name, key)] = value
			}
		}
	}
	return params
}

// NamedSteps returns the steps as a map for easy access by name.
func (p *Pipeline) NamedSteps() map[string]interface{} {
	named := make(map[string]interface{}, len(p.Steps))
	for _, s := range p.Steps {
		named[s.Name] = s.Estimator
	}
	return named
}
