package workflow

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/internal/config"
	"github.com/ezoic/phishing-classifier/metrics"
	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
)

// rawDataset returns n rows with the target column in the middle and the
// scrape date last.
func rawDataset(n int) string {
	var b strings.Builder
	b.WriteString("id,length,target,ext,dots,scrape_date\n")
	for i := 0; i < n; i++ {
		target := i % 2
		ext := "com"
		if i%3 == 0 {
			ext = "org"
		}
		fmt.Fprintf(&b, "%d,%d,%d,%s,%d,2021-03-%02d\n", i, 10+i, target, ext, 1+i%4, 1+i%28)
	}
	return b.String()
}

// trainDataset returns separable rows: phishing urls are long with many dots.
func trainDataset() string {
	var b strings.Builder
	b.WriteString("length,ext,dots,has_https,target\n")
	exts := []string{"com", "org", "xyz", "com"}
	for i := 0; i < 24; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d,%s,%d,true,0\n", 10+i%7, exts[i%3], 1+i%2)
		} else {
			fmt.Fprintf(&b, "%d,%s,%d,false,1\n", 70+i%11, exts[1+i%3], 4+i%3)
		}
	}
	return b.String()
}

func newTestWorkflow(t *testing.T, files map[string]string) (*Workflow, afero.Fs, *log.TestLogger) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	logger, _ := log.NewTestLogger(log.LevelDebug)
	return New(fs, logger), fs, logger
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &got
}

func TestPrepareSplitsTenRows(t *testing.T) {
	wf, fs, logger := newTestWorkflow(t, map[string]string{"data/raw.csv": rawDataset(10)})

	res, err := wf.Prepare(context.Background(), NewPrepareOptions(config.Default(), "data/raw.csv"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "split", "phishing_train.csv"), res.TrainPath)
	assert.Equal(t, filepath.Join("data", "split", "phishing_test.csv"), res.TestPath)
	assert.Equal(t, 8, res.TrainRows)
	assert.Equal(t, 2, res.TestRows)
	assert.Equal(t, []string{"id", "length", "ext", "dots", "target"}, res.Columns)

	train, err := frame.ReadCSV(fs, res.TrainPath)
	require.NoError(t, err)
	test, err := frame.ReadCSV(fs, res.TestPath)
	require.NoError(t, err)
	assert.Equal(t, res.Columns, train.Columns())
	assert.Equal(t, res.Columns, test.Columns())
	assert.Equal(t, 8, train.NRows())
	assert.Equal(t, 2, test.NRows())

	seen := map[string]bool{}
	for _, f := range []*frame.Frame{train, test} {
		ids, err := f.Column("id")
		require.NoError(t, err)
		for _, id := range ids {
			assert.False(t, seen[id], "row %s written twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 10)

	assert.True(t, logger.ContainsMessage("done splitting data"))
}

func TestPrepareRowsKeepCellValues(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, map[string]string{"raw.csv": rawDataset(10)})
	res, err := wf.Prepare(context.Background(), NewPrepareOptions(config.Default(), "raw.csv"))
	require.NoError(t, err)

	raw, err := frame.ReadCSV(fs, "raw.csv")
	require.NoError(t, err)
	byID := map[string][]string{}
	for i := 0; i < raw.NRows(); i++ {
		row := raw.Row(i)
		// id,length,target,ext,dots -> id,length,ext,dots,target
		byID[row[0]] = []string{row[0], row[1], row[3], row[4], row[2]}
	}

	test, err := frame.ReadCSV(fs, res.TestPath)
	require.NoError(t, err)
	for i := 0; i < test.NRows(); i++ {
		row := test.Row(i)
		assert.Equal(t, byID[row[0]], row)
	}
}

func TestPrepareDeterministic(t *testing.T) {
	read := func() ([]byte, []byte) {
		wf, fs, _ := newTestWorkflow(t, map[string]string{"raw.csv": rawDataset(37)})
		res, err := wf.Prepare(context.Background(), NewPrepareOptions(config.Default(), "raw.csv"))
		require.NoError(t, err)
		train, err := afero.ReadFile(fs, res.TrainPath)
		require.NoError(t, err)
		test, err := afero.ReadFile(fs, res.TestPath)
		require.NoError(t, err)
		return train, test
	}

	train1, test1 := read()
	train2, test2 := read()
	assert.True(t, bytes.Equal(train1, train2))
	assert.True(t, bytes.Equal(test1, test2))
}

func TestPrepareMissingInput(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, nil)

	_, err := wf.Prepare(context.Background(), NewPrepareOptions(config.Default(), "data/nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))

	exists, err := afero.DirExists(fs, "data/split")
	require.NoError(t, err)
	assert.False(t, exists, "no output may be created for a missing input")
}

func TestPrepareMissingColumns(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, map[string]string{
		"no_date.csv": "a,target\n1,0\n2,1\n",
	})

	_, err := wf.Prepare(context.Background(), NewPrepareOptions(config.Default(), "no_date.csv"))
	var colErr *errors.ColumnError
	require.True(t, errors.As(err, &colErr), "got %v", err)
	assert.Equal(t, []string{"scrape_date"}, colErr.Missing)

	exists, _ := afero.Exists(fs, "data/split/phishing_train.csv")
	assert.False(t, exists)
}

func TestPrepareTooFewRows(t *testing.T) {
	wf, _, _ := newTestWorkflow(t, map[string]string{"one.csv": rawDataset(1)})
	_, err := wf.Prepare(context.Background(), NewPrepareOptions(config.Default(), "one.csv"))
	assert.Error(t, err)
}

func TestPrepareCancelled(t *testing.T) {
	wf, _, _ := newTestWorkflow(t, map[string]string{"raw.csv": rawDataset(10)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wf.Prepare(ctx, NewPrepareOptions(config.Default(), "raw.csv"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func trainOptions(data string) TrainOptions {
	return NewTrainOptions(config.Default(), data, "models/model.gob", "reports/metrics.json")
}

func TestTrain(t *testing.T) {
	wf, fs, logger := newTestWorkflow(t, map[string]string{"data/split/phishing_train.csv": trainDataset()})

	res, err := wf.Train(context.Background(), trainOptions("data/split/phishing_train.csv"))
	require.NoError(t, err)
	assert.Equal(t, 24, res.Samples)
	assert.Equal(t, []string{"0", "1"}, res.Report.Labels)
	assert.Equal(t, 1.0, res.Report.Accuracy)

	exists, err := afero.Exists(fs, "models/model.gob")
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := ReadReport(fs, "reports/metrics.json")
	require.NoError(t, err)
	assert.Equal(t, res.Report.Labels, stored.Labels)
	assert.Equal(t, res.Report.Classes, stored.Classes)
	assert.Equal(t, res.Report.Accuracy, stored.Accuracy)

	raw, err := afero.ReadFile(fs, "reports/metrics.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), `{"0":{"precision":`))
	assert.Less(t, strings.Index(string(raw), `"accuracy"`), strings.Index(string(raw), `"macro avg"`))
	assert.Less(t, strings.Index(string(raw), `"macro avg"`), strings.Index(string(raw), `"weighted avg"`))

	assert.True(t, logger.ContainsMessage("done training"))
}

func TestTrainReloadReproducesMetrics(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, map[string]string{"train.csv": trainDataset()})
	res, err := wf.Train(context.Background(), trainOptions("train.csv"))
	require.NoError(t, err)

	m, err := LoadModel(fs, "models/model.gob")
	require.NoError(t, err)
	assert.Equal(t, []string{"length", "ext", "dots", "has_https"}, m.FeatureColumns)
	assert.Equal(t, "target", m.TargetColumn)

	df, err := frame.ReadCSV(fs, "train.csv")
	require.NoError(t, err)
	reloaded, err := m.Predict(df)
	require.NoError(t, err)
	original, err := res.Model.Predict(df)
	require.NoError(t, err)
	assert.Equal(t, original, reloaded)

	target, err := df.Column("target")
	require.NoError(t, err)
	report, err := metrics.ClassificationReport(target, reloaded)
	require.NoError(t, err)
	stored, err := ReadReport(fs, "reports/metrics.json")
	require.NoError(t, err)
	assert.Equal(t, stored.Classes, report.Classes)
	assert.Equal(t, stored.Accuracy, report.Accuracy)

	proba, err := m.PredictProba(df)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, df.NRows(), r)
	assert.Equal(t, 2, c)
}

func TestTrainSingleClass(t *testing.T) {
	warnings := captureWarnings(t)
	data := "length,ext,dots,target\n10,com,1,1\n12,org,2,1\n80,xyz,5,1\n"
	wf, _, _ := newTestWorkflow(t, map[string]string{"single.csv": data})

	res, err := wf.Train(context.Background(), trainOptions("single.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Report.Accuracy)
	assert.Equal(t, []string{"1"}, res.Report.Labels)

	var found bool
	for _, w := range *warnings {
		var sc *errors.SingleClassWarning
		if errors.As(w, &sc) {
			found = true
		}
	}
	assert.True(t, found, "expected a SingleClassWarning")
}

func TestTrainMissingInput(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, nil)

	_, err := wf.Train(context.Background(), trainOptions("data/split/none.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))

	for _, dir := range []string{"models", "reports", "data/split"} {
		exists, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.False(t, exists, "%s must not be created", dir)
	}
}

func TestTrainMissingColumns(t *testing.T) {
	t.Run("target", func(t *testing.T) {
		wf, _, _ := newTestWorkflow(t, map[string]string{"d.csv": "length,ext\n1,com\n"})
		_, err := wf.Train(context.Background(), trainOptions("d.csv"))
		var colErr *errors.ColumnError
		require.True(t, errors.As(err, &colErr), "got %v", err)
		assert.Equal(t, []string{"target"}, colErr.Missing)
	})

	t.Run("categorical", func(t *testing.T) {
		wf, _, _ := newTestWorkflow(t, map[string]string{"d.csv": "length,target\n1,0\n2,1\n"})
		_, err := wf.Train(context.Background(), trainOptions("d.csv"))
		var colErr *errors.ColumnError
		require.True(t, errors.As(err, &colErr), "got %v", err)
		assert.Equal(t, []string{"ext"}, colErr.Missing)
	})
}

func TestTrainNonNumericPassthrough(t *testing.T) {
	data := "length,ext,note,target\n10,com,hello,0\n80,xyz,world,1\n"
	wf, _, _ := newTestWorkflow(t, map[string]string{"d.csv": data})

	_, err := wf.Train(context.Background(), trainOptions("d.csv"))
	var valErr *errors.ValueError
	require.True(t, errors.As(err, &valErr), "got %v", err)
	assert.Contains(t, err.Error(), "note")
}

func TestTrainRequiresPaths(t *testing.T) {
	wf, _, _ := newTestWorkflow(t, map[string]string{"d.csv": trainDataset()})
	opts := trainOptions("d.csv")
	opts.MetricsPath = ""
	_, err := wf.Train(context.Background(), opts)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestTrainWritesPlot(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, map[string]string{"d.csv": trainDataset()})
	opts := trainOptions("d.csv")
	opts.PlotPath = "reports/plots/report.png"

	_, err := wf.Train(context.Background(), opts)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, opts.PlotPath)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestLoadModelErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadModel(fs, "missing.gob")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "garbage.gob", []byte("not a model"), 0o644))
	_, err = LoadModel(fs, "garbage.gob")
	assert.Error(t, err)
}

func TestModelPredictMissingFeature(t *testing.T) {
	wf, fs, _ := newTestWorkflow(t, map[string]string{"d.csv": trainDataset()})
	_, err := wf.Train(context.Background(), trainOptions("d.csv"))
	require.NoError(t, err)

	m, err := LoadModel(fs, "models/model.gob")
	require.NoError(t, err)

	df, err := frame.New([]string{"length", "ext"}, [][]string{{"10", "com"}})
	require.NoError(t, err)
	_, err = m.Predict(df)
	var colErr *errors.ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.ElementsMatch(t, []string{"dots", "has_https"}, colErr.Missing)
}
