// Package workflow implements the two batch jobs of the classifier: Prepare
// splits a raw dataset into train and test files, Train fits the pipeline
// on the train file and writes the model and its classification report.
package workflow

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
)

// ErrInputNotFound is returned when a job's input file does not exist.
// Jobs check their input before creating any output.
var ErrInputNotFound = errors.New("input file not found")

// Workflow runs jobs against a filesystem.
type Workflow struct {
	fs     afero.Fs
	logger log.Logger
}

// New creates a Workflow. A nil logger uses the global provider.
func New(fs afero.Fs, logger log.Logger) *Workflow {
	if logger == nil {
		logger = log.GetLoggerWithName("workflow")
	}
	return &Workflow{fs: fs, logger: logger}
}

// Fs returns the filesystem the jobs read and write.
func (w *Workflow) Fs() afero.Fs { return w.fs }

func (w *Workflow) requireFile(path string) error {
	if path == "" {
		return errors.NewValidationError("data", "path must not be empty", path)
	}
	info, err := w.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrInputNotFound, "%s", path)
		}
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return errors.NewValidationError("data", "path is a directory", path)
	}
	return nil
}

// ensureDir creates the directory if needed and logs when it had to.
func (w *Workflow) ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	exists, err := afero.DirExists(w.fs, dir)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", dir)
	}
	if exists {
		return nil
	}
	w.logger.Info("creating directory", log.PathKey, dir)
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}
	return nil
}

func (w *Workflow) ensureParent(path string) error {
	if path == "" {
		return nil
	}
	return w.ensureDir(filepath.Dir(path))
}

func checkContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "interrupted before %s", stage)
	}
	return nil
}
