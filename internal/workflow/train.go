package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/afero"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/internal/config"
	"github.com/ezoic/phishing-classifier/metrics"
	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
	"github.com/ezoic/phishing-classifier/preprocessing"
)

// TrainOptions configures Train.
type TrainOptions struct {
	DataPath    string
	ModelPath   string
	MetricsPath string
	// PlotPath is optional. When set, a PNG bar chart of the report is
	// written there.
	PlotPath string

	TargetColumn      string
	CategoricalColumn string
	Model             config.ModelConfig
}

// NewTrainOptions fills the column names and hyper-parameters from cfg.
func NewTrainOptions(cfg *config.Config, dataPath, modelPath, metricsPath string) TrainOptions {
	return TrainOptions{
		DataPath:          dataPath,
		ModelPath:         modelPath,
		MetricsPath:       metricsPath,
		TargetColumn:      cfg.Dataset.TargetColumn,
		CategoricalColumn: cfg.Dataset.CategoricalColumn,
		Model:             cfg.Model,
	}
}

// TrainResult describes a finished training run.
type TrainResult struct {
	Model    *Model
	Report   *metrics.Report
	Samples  int
	Duration time.Duration
}

// Train fits the pipeline on the whole training file, saves the model and
// writes the in-sample classification report as JSON.
func (w *Workflow) Train(ctx context.Context, opts TrainOptions) (*TrainResult, error) {
	start := time.Now()
	w.logger.Info("start training model", log.OperationKey, log.OperationFit)

	if opts.ModelPath == "" {
		return nil, errors.NewValidationError("model", "path must not be empty", opts.ModelPath)
	}
	if opts.MetricsPath == "" {
		return nil, errors.NewValidationError("metrics", "path must not be empty", opts.MetricsPath)
	}
	if err := w.requireFile(opts.DataPath); err != nil {
		return nil, err
	}
	for _, p := range []string{opts.DataPath, opts.ModelPath, opts.MetricsPath, opts.PlotPath} {
		if err := w.ensureParent(p); err != nil {
			return nil, err
		}
	}

	df, err := frame.ReadCSV(w.fs, opts.DataPath)
	if err != nil {
		return nil, err
	}
	w.logger.Info("loaded training data",
		log.PathKey, opts.DataPath,
		log.SamplesKey, df.NRows(),
		log.FeaturesKey, df.NCols(),
	)

	if !df.Has(opts.TargetColumn) {
		return nil, errors.NewColumnError("Train", opts.TargetColumn)
	}
	features, err := df.Drop(opts.TargetColumn)
	if err != nil {
		return nil, err
	}
	target, err := df.Column(opts.TargetColumn)
	if err != nil {
		return nil, err
	}

	labels := preprocessing.NewLabelEncoder()
	if err := labels.Fit(target); err != nil {
		return nil, err
	}
	y, err := labels.TransformVec(target)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("encoded target", log.ClassesKey, labels.Classes)

	if err := checkContext(ctx, "fitting"); err != nil {
		return nil, err
	}

	pipe := NewPhishingPipeline(opts.CategoricalColumn, opts.Model)
	pipe.Verbose = w.logger.Enabled(ctx, log.LevelDebug)
	if err := pipe.Fit(features, y); err != nil {
		return nil, errors.Wrap(err, "failed to fit pipeline")
	}

	m := &Model{
		Pipeline:       pipe,
		Labels:         labels,
		FeatureColumns: features.Columns(),
		TargetColumn:   opts.TargetColumn,
	}
	if err := m.Save(w.fs, opts.ModelPath); err != nil {
		return nil, err
	}
	w.logger.Info("saved model", log.PathKey, opts.ModelPath, log.OperationKey, log.OperationSave)

	predictions, err := m.Predict(df)
	if err != nil {
		return nil, err
	}
	report, err := metrics.ClassificationReport(target, predictions)
	if err != nil {
		return nil, err
	}
	if err := writeReport(w.fs, opts.MetricsPath, report); err != nil {
		return nil, err
	}
	w.logger.Info("saved metrics",
		log.PathKey, opts.MetricsPath,
		log.AccuracyKey, report.Accuracy,
	)

	if opts.PlotPath != "" {
		if err := SaveReportPlot(w.fs, opts.PlotPath, report); err != nil {
			return nil, err
		}
		w.logger.Info("saved report plot", log.PathKey, opts.PlotPath)
	}

	res := &TrainResult{
		Model:    m,
		Report:   report,
		Samples:  df.NRows(),
		Duration: time.Since(start),
	}
	w.logger.Info("done training",
		log.DurationMsKey, res.Duration.Milliseconds(),
		"elapsed", res.Duration.String(),
	)
	return res, nil
}

func writeReport(fs afero.Fs, path string, report *metrics.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to encode metrics")
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadReport loads a report written by Train.
func ReadReport(fs afero.Fs, path string) (*metrics.Report, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var r metrics.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return &r, nil
}
