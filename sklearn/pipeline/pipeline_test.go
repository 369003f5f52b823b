package pipeline_test

import (
	"bytes"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/core/model"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/preprocessing"
	"github.com/ezoic/phishing-classifier/sklearn/compose"
	"github.com/ezoic/phishing-classifier/sklearn/linear_model"
	"github.com/ezoic/phishing-classifier/sklearn/pipeline"
)

func trainingFrame(t *testing.T) (*frame.Frame, *mat.VecDense) {
	t.Helper()
	f, err := frame.New([]string{"length", "ext", "dots"}, [][]string{
		{"12", "com", "1"},
		{"80", "xyz", "5"},
		{"15", "com", "1"},
		{"95", "xyz", "6"},
		{"10", "org", "2"},
		{"70", "xyz", "4"},
		{"18", "org", "1"},
		{"88", "com", "5"},
	})
	if err != nil {
		t.Fatal(err)
	}
	y := mat.NewVecDense(8, []float64{0, 1, 0, 1, 0, 1, 0, 1})
	return f, y
}

func newPipeline() *pipeline.Pipeline {
	return pipeline.Make(
		compose.NewOneHotColumnTransformer([]string{"ext"}),
		preprocessing.NewStandardScalerDefault(),
		linear_model.NewLogisticRegression(),
	)
}

func TestMakeNamesSteps(t *testing.T) {
	p := newPipeline()
	want := []string{"columntransformer", "standardscaler", "logisticregression"}
	for i, s := range p.Steps {
		if s.Name != want[i] {
			t.Errorf("step %d name = %q, want %q", i, s.Name, want[i])
		}
	}

	dup := pipeline.Make(
		compose.NewOneHotColumnTransformer([]string{"ext"}),
		preprocessing.NewStandardScalerDefault(),
		preprocessing.NewStandardScalerDefault(),
		linear_model.NewLogisticRegression(),
	)
	if dup.Steps[2].Name != "standardscaler-2" {
		t.Errorf("duplicate step name = %q", dup.Steps[2].Name)
	}
}

func TestPipelineFitPredict(t *testing.T) {
	f, y := trainingFrame(t)
	p := newPipeline()

	pred, err := p.FitPredict(f, y)
	if err != nil {
		t.Fatalf("FitPredict failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if pred.At(i, 0) != y.AtVec(i) {
			t.Errorf("row %d predicted %v, want %v", i, pred.At(i, 0), y.AtVec(i))
		}
	}

	score, err := p.Score(f, y)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1.0 {
		t.Errorf("Score = %v, want 1.0", score)
	}

	names := p.FeatureNamesOut()
	want := []string{"ext_com", "ext_org", "ext_xyz", "length", "dots"}
	if len(names) != len(want) {
		t.Fatalf("FeatureNamesOut = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("FeatureNamesOut[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	Xt, err := p.Transform(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, c := Xt.Dims(); c != 5 {
		t.Errorf("Transform produced %d columns, want 5", c)
	}
}

func TestPipelineGobRoundTrip(t *testing.T) {
	f, y := trainingFrame(t)
	p := newPipeline()
	if err := p.Fit(f, y); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := model.SaveModelToWriter(p, &buf); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	var loaded pipeline.Pipeline
	if err := model.LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	a, err := p.PredictProba(f)
	if err != nil {
		t.Fatal(err)
	}
	b, err := loaded.PredictProba(f)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a, b) {
		t.Error("loaded pipeline predicts differently")
	}
}

func TestPipelineValidation(t *testing.T) {
	f, y := trainingFrame(t)

	cases := map[string]*pipeline.Pipeline{
		"too short": pipeline.Make(linear_model.NewLogisticRegression()),
		"matrix head": pipeline.Make(
			preprocessing.NewStandardScalerDefault(),
			linear_model.NewLogisticRegression(),
		),
		"transformer last": pipeline.Make(
			compose.NewOneHotColumnTransformer([]string{"ext"}),
			preprocessing.NewStandardScalerDefault(),
		),
		"duplicate names": pipeline.New(
			pipeline.Step{Name: "a", Estimator: compose.NewOneHotColumnTransformer([]string{"ext"})},
			pipeline.Step{Name: "a", Estimator: linear_model.NewLogisticRegression()},
		),
	}
	for name, p := range cases {
		err := p.Fit(f, y)
		var valErr *clfErrors.ValidationError
		if !clfErrors.As(err, &valErr) {
			t.Errorf("%s: expected ValidationError, got %v", name, err)
		}
	}

	if err := newPipeline().Fit(f, mat.NewVecDense(2, []float64{0, 1})); err == nil {
		t.Error("expected DimensionError for mismatched labels")
	}
}

func TestPipelineNotFitted(t *testing.T) {
	f, _ := trainingFrame(t)
	p := newPipeline()
	if _, err := p.Predict(f); err == nil {
		t.Error("expected NotFittedError")
	}
	if _, err := p.PredictProba(f); err == nil {
		t.Error("expected NotFittedError")
	}
}

func TestPipelineGetParams(t *testing.T) {
	params := newPipeline().GetParams()
	if params["logisticregression__C"] != 1.0 {
		t.Errorf("logisticregression__C = %v", params["logisticregression__C"])
	}
	if params["columntransformer__remainder"] != "passthrough" {
		t.Errorf("columntransformer__remainder = %v", params["columntransformer__remainder"])
	}
	if _, ok := newPipeline().NamedSteps()["standardscaler"]; !ok {
		t.Error("NamedSteps should contain standardscaler")
	}
}
