package workflow

import (
	"math"

	"github.com/spf13/afero"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/core/model"
	"github.com/ezoic/phishing-classifier/internal/config"
	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/preprocessing"
	"github.com/ezoic/phishing-classifier/sklearn/compose"
	"github.com/ezoic/phishing-classifier/sklearn/linear_model"
	"github.com/ezoic/phishing-classifier/sklearn/pipeline"
)

// Model is the artifact written by Train: the fitted pipeline together with
// what is needed to turn raw rows into string labels again.
type Model struct {
	Pipeline *pipeline.Pipeline
	Labels   *preprocessing.LabelEncoder
	// FeatureColumns are the input columns in training order.
	FeatureColumns []string
	TargetColumn   string
}

// NewPhishingPipeline builds the untrained pipeline
// transformer (one-hot on categorical, passthrough rest) -> scaler -> classifier.
func NewPhishingPipeline(categorical string, mc config.ModelConfig) *pipeline.Pipeline {
	transformer := compose.NewColumnTransformer(
		[]compose.ColumnSpec{{
			Name:    "encoder",
			Encoder: preprocessing.NewOneHotEncoder(preprocessing.WithHandleUnknown(mc.HandleUnknown)),
			Columns: []string{categorical},
		}},
		compose.WithRemainder(compose.RemainderPassthrough),
	)

	classifier := linear_model.NewLogisticRegression(
		linear_model.WithLRPenalty(mc.Penalty),
		linear_model.WithLRC(mc.C),
		linear_model.WithLogisticFitIntercept(mc.FitIntercept),
		linear_model.WithLRSolver(mc.Solver),
		linear_model.WithLRMaxIter(mc.MaxIter),
		linear_model.WithLRTol(mc.Tol),
		linear_model.WithLRMultiClass(mc.MultiClass),
	)

	return pipeline.New(
		pipeline.Step{Name: "transformer", Estimator: transformer},
		pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
		pipeline.Step{Name: "classifier", Estimator: classifier},
	)
}

// LoadModel reads a Model saved by Train.
func LoadModel(fs afero.Fs, path string) (*Model, error) {
	var m Model
	if err := model.LoadModel(fs, &m, path); err != nil {
		return nil, errors.Wrapf(err, "failed to load model %s", path)
	}
	if m.Pipeline == nil || m.Labels == nil {
		return nil, errors.NewModelError("LoadModel", "incomplete model artifact", nil)
	}
	return &m, nil
}

// Save writes the model to path, creating parent directories.
func (m *Model) Save(fs afero.Fs, path string) error {
	return model.SaveModel(fs, m, path)
}

func (m *Model) features(df *frame.Frame) (*frame.Frame, error) {
	if m.Pipeline == nil || !m.Pipeline.IsFitted() {
		return nil, errors.NewNotFittedError("Model", "Predict")
	}
	if missing := df.Missing(m.FeatureColumns...); len(missing) > 0 {
		return nil, errors.NewColumnError("Model.Predict", missing...)
	}
	// extra columns such as the target are ignored
	return df.Select(m.FeatureColumns...)
}

// Predict returns the predicted label of every row of df.
func (m *Model) Predict(df *frame.Frame) ([]string, error) {
	X, err := m.features(df)
	if err != nil {
		return nil, err
	}
	pred, err := m.Pipeline.Predict(X)
	if err != nil {
		return nil, err
	}

	n, _ := pred.Dims()
	codes := make([]int, n)
	for i := range codes {
		codes[i] = int(math.Round(pred.At(i, 0)))
	}
	return m.Labels.InverseTransform(codes)
}

// PredictProba returns class probabilities; columns follow Labels.Classes.
func (m *Model) PredictProba(df *frame.Frame) (mat.Matrix, error) {
	X, err := m.features(df)
	if err != nil {
		return nil, err
	}
	return m.Pipeline.PredictProba(X)
}
