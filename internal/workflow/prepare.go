package workflow

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/internal/config"
	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
	"github.com/ezoic/phishing-classifier/sklearn/model_selection"
)

// PrepareOptions configures Prepare.
type PrepareOptions struct {
	DataPath string

	OutDir    string
	TrainFile string
	TestFile  string

	TargetColumn string
	DateColumn   string

	TestSize float64
	Seed     uint64
}

// NewPrepareOptions fills the options from cfg.
func NewPrepareOptions(cfg *config.Config, dataPath string) PrepareOptions {
	return PrepareOptions{
		DataPath:     dataPath,
		OutDir:       cfg.Split.Dir,
		TrainFile:    cfg.Split.TrainFile,
		TestFile:     cfg.Split.TestFile,
		TargetColumn: cfg.Dataset.TargetColumn,
		DateColumn:   cfg.Dataset.DateColumn,
		TestSize:     cfg.Split.TestSize,
		Seed:         cfg.Split.Seed,
	}
}

// PrepareResult describes the files written by Prepare.
type PrepareResult struct {
	TrainPath string
	TestPath  string
	TrainRows int
	TestRows  int
	// Columns of both output files: the features followed by the target.
	Columns  []string
	Duration time.Duration
}

// Prepare splits the raw dataset into train and test files.
//
// The target and date columns must exist. The date column is dropped, the
// remaining features keep their order and the target becomes the last
// column. Rows are written in the order of the seeded permutation.
func (w *Workflow) Prepare(ctx context.Context, opts PrepareOptions) (*PrepareResult, error) {
	start := time.Now()
	w.logger.Info("start preparing data", log.OperationKey, log.OperationSplit)

	if err := w.requireFile(opts.DataPath); err != nil {
		return nil, err
	}

	df, err := frame.ReadCSV(w.fs, opts.DataPath)
	if err != nil {
		return nil, err
	}
	w.logger.Info("loaded data",
		log.PathKey, opts.DataPath,
		log.SamplesKey, df.NRows(),
		log.FeaturesKey, df.NCols(),
	)

	if missing := df.Missing(opts.TargetColumn, opts.DateColumn); len(missing) > 0 {
		return nil, errors.NewColumnError("Prepare", missing...)
	}
	if err := checkContext(ctx, "splitting"); err != nil {
		return nil, err
	}

	features, err := df.Drop(opts.TargetColumn, opts.DateColumn)
	if err != nil {
		return nil, err
	}
	target, err := df.Select(opts.TargetColumn)
	if err != nil {
		return nil, err
	}
	data, err := features.Concat(target)
	if err != nil {
		return nil, err
	}

	train, test, err := model_selection.TrainTestSplitFrame(data,
		model_selection.WithTestSize(opts.TestSize),
		model_selection.WithRandomState(opts.Seed),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split data")
	}
	w.logger.Info("split data",
		"train_rows", train.NRows(),
		"test_rows", test.NRows(),
		log.TestSizeKey, opts.TestSize,
		log.RandomSeedKey, opts.Seed,
	)

	if err := checkContext(ctx, "writing"); err != nil {
		return nil, err
	}
	if err := w.ensureDir(opts.OutDir); err != nil {
		return nil, err
	}

	res := &PrepareResult{
		TrainPath: filepath.Join(opts.OutDir, opts.TrainFile),
		TestPath:  filepath.Join(opts.OutDir, opts.TestFile),
		TrainRows: train.NRows(),
		TestRows:  test.NRows(),
		Columns:   data.Columns(),
	}
	if err := frame.SaveCSV(w.fs, res.TrainPath, train); err != nil {
		return nil, err
	}
	if err := frame.SaveCSV(w.fs, res.TestPath, test); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	w.logger.Info("done splitting data",
		"train_path", res.TrainPath,
		"test_path", res.TestPath,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}
