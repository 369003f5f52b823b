// Package compose provides ColumnTransformer, which applies encoders to
// selected columns of a Frame and passes the remaining columns through
// as numbers.
package compose

import (
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/core/frame"
	"github.com/ezoic/phishing-classifier/core/model"
	"github.com/ezoic/phishing-classifier/core/parallel"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
	"github.com/ezoic/phishing-classifier/preprocessing"
)

func init() {
	gob.Register(&ColumnTransformer{})
}

// Remainder policies for columns not named by any transformer.
const (
	RemainderPassthrough = "passthrough"
	RemainderDrop        = "drop"
)

// CategoricalEncoder is implemented by encoders that consume raw string
// cells, such as preprocessing.OneHotEncoder.
type CategoricalEncoder interface {
	model.Fittable
	Fit(data [][]string) error
	Transform(data [][]string) (mat.Matrix, error)
	GetFeatureNamesOut(inputFeatures []string) []string
}

// ColumnSpec binds an encoder to the columns it consumes.
type ColumnSpec struct {
	Name    string
	Encoder CategoricalEncoder
	Columns []string
}

// ColumnTransformer applies each ColumnSpec to its columns and
// concatenates the results. Encoder outputs come first, in declaration order,
// followed by the remainder columns in their original order.
type ColumnTransformer struct {
	model.BaseEstimator

	Transformers []ColumnSpec
	Remainder    string

	// InputColumns are the frame columns seen during Fit.
	InputColumns []string
	// RemainderColumns are the passthrough columns, in input order.
	RemainderColumns []string
	// FeatureNamesOut names every output column.
	FeatureNamesOut []string
}

// Option configures a ColumnTransformer.
type Option func(*ColumnTransformer)

// WithRemainder sets the policy for unlisted columns.
func WithRemainder(policy string) Option {
	return func(c *ColumnTransformer) { c.Remainder = policy }
}

// NewColumnTransformer creates a transformer with remainder "passthrough".
//
//	ct := compose.NewColumnTransformer([]compose.ColumnSpec{
//	    {Name: "ohe", Encoder: preprocessing.NewOneHotEncoder(), Columns: []string{"ext"}},
//	})
func NewColumnTransformer(specs []ColumnSpec, opts ...Option) *ColumnTransformer {
	c := &ColumnTransformer{Transformers: specs, Remainder: RemainderPassthrough}
	c.ModelType = "ColumnTransformer"
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOneHotColumnTransformer is the common case of one-hot encoding some
// columns and passing the rest through.
func NewOneHotColumnTransformer(columns []string, opts ...preprocessing.OneHotEncoderOption) *ColumnTransformer {
	return NewColumnTransformer([]ColumnSpec{
		{Name: "one_hot", Encoder: preprocessing.NewOneHotEncoder(opts...), Columns: columns},
	})
}

// Fit learns every encoder on its columns and records the remainder.
func (c *ColumnTransformer) Fit(df *frame.Frame) (err error) {
	defer clfErrors.Recover(&err, "ColumnTransformer.Fit")
	if c.Remainder != RemainderPassthrough && c.Remainder != RemainderDrop {
		return clfErrors.NewValidationError("remainder", "must be 'passthrough' or 'drop'", c.Remainder)
	}
	if df.NRows() == 0 {
		return clfErrors.NewModelError("ColumnTransformer.Fit", "empty data", clfErrors.ErrEmptyData)
	}

	used := make(map[string]bool)
	var missing []string
	for _, spec := range c.Transformers {
		if spec.Encoder == nil {
			return clfErrors.NewValidationError("transformers", "encoder must not be nil", spec.Name)
		}
		for _, col := range spec.Columns {
			if !df.Has(col) {
				missing = append(missing, col)
			}
			used[col] = true
		}
	}
	if len(missing) > 0 {
		return clfErrors.NewColumnError("ColumnTransformer.Fit", missing...)
	}

	names := make([]string, 0)
	for _, spec := range c.Transformers {
		cells, err := selectCells(df, spec.Columns)
		if err != nil {
			return err
		}
		if err := spec.Encoder.Fit(cells); err != nil {
			return clfErrors.Wrapf(err, "fitting %s", spec.Name)
		}
		names = append(names, spec.Encoder.GetFeatureNamesOut(spec.Columns)...)
	}

	c.InputColumns = df.Columns()
	c.RemainderColumns = nil
	if c.Remainder == RemainderPassthrough {
		for _, col := range c.InputColumns {
			if !used[col] {
				c.RemainderColumns = append(c.RemainderColumns, col)
			}
		}
	}
	names = append(names, c.RemainderColumns...)
	c.FeatureNamesOut = names

	c.SetFitted()
	c.LogDebug("fit completed",
		log.SamplesKey, df.NRows(),
		log.FeaturesKey, len(c.FeatureNamesOut),
		"remainder", c.RemainderColumns,
	)
	return nil
}

// Transform encodes df into a dense matrix with len(FeatureNamesOut)
// columns. Remainder cells must parse as numbers; booleans become 1 and 0.
func (c *ColumnTransformer) Transform(df *frame.Frame) (_ mat.Matrix, err error) {
	defer clfErrors.Recover(&err, "ColumnTransformer.Transform")
	if !c.IsFitted() {
		return nil, clfErrors.NewNotFittedError("ColumnTransformer", "Transform")
	}

	needed := make([]string, 0, len(c.RemainderColumns))
	for _, spec := range c.Transformers {
		needed = append(needed, spec.Columns...)
	}
	needed = append(needed, c.RemainderColumns...)
	if missing := df.Missing(needed...); len(missing) > 0 {
		return nil, clfErrors.NewColumnError("ColumnTransformer.Transform", missing...)
	}

	n := df.NRows()
	if n == 0 {
		return &mat.Dense{}, nil
	}
	if len(c.FeatureNamesOut) == 0 {
		return nil, clfErrors.NewValueError("ColumnTransformer.Transform", "no output columns")
	}

	out := mat.NewDense(n, len(c.FeatureNamesOut), nil)
	offset := 0
	for _, spec := range c.Transformers {
		cells, err := selectCells(df, spec.Columns)
		if err != nil {
			return nil, err
		}
		encoded, err := spec.Encoder.Transform(cells)
		if err != nil {
			return nil, clfErrors.Wrapf(err, "transforming %s", spec.Name)
		}
		_, w := encoded.Dims()
		if w == 0 {
			continue
		}
		out.Slice(0, n, offset, offset+w).(*mat.Dense).Copy(encoded)
		offset += w
	}

	idx := make([]int, len(c.RemainderColumns))
	for k, col := range c.RemainderColumns {
		idx[k], _ = df.ColumnIndex(col)
	}
	err = parallel.ParallelizeWithThreshold(n, parallel.DefaultThreshold, func(start, end int) error {
		for i := start; i < end; i++ {
			for k, j := range idx {
				v, perr := frame.ParseFloat(df.Cell(i, j))
				if perr != nil {
					return clfErrors.NewValueError("ColumnTransformer.Transform",
						fmt.Sprintf("row %d, column %q: %v", i, c.RemainderColumns[k], perr))
				}
				out.Set(i, offset+k, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FitTransform fits on df and transforms it.
func (c *ColumnTransformer) FitTransform(df *frame.Frame) (mat.Matrix, error) {
	if err := c.Fit(df); err != nil {
		return nil, err
	}
	return c.Transform(df)
}

// GetFeatureNamesOut returns the output column names.
func (c *ColumnTransformer) GetFeatureNamesOut() []string {
	out := make([]string, len(c.FeatureNamesOut))
	copy(out, c.FeatureNamesOut)
	return out
}

// GetParams returns the transformer's hyperparameters.
func (c *ColumnTransformer) GetParams() map[string]interface{} {
	names := make([]string, len(c.Transformers))
	for i, s := range c.Transformers {
		names[i] = s.Name
	}
	return map[string]interface{}{
		"remainder":    c.Remainder,
		"transformers": names,
	}
}

func selectCells(df *frame.Frame, columns []string) ([][]string, error) {
	sub, err := df.Select(columns...)
	if err != nil {
		return nil, err
	}
	cells := make([][]string, sub.NRows())
	for i := range cells {
		cells[i] = sub.Row(i)
	}
	return cells, nil
}
