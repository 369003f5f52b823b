package workflow

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/phishing-classifier/metrics"
	"github.com/ezoic/phishing-classifier/pkg/errors"
)

// ReportPlot renders precision, recall and F1 per class as grouped bars.
func ReportPlot(report *metrics.Report) (*plot.Plot, error) {
	if len(report.Labels) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "report has no classes")
	}

	p := plot.New()
	p.Title.Text = "Classification report"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 1.05

	series := []struct {
		name  string
		value func(metrics.ClassMetrics) float64
	}{
		{"precision", func(m metrics.ClassMetrics) float64 { return m.Precision }},
		{"recall", func(m metrics.ClassMetrics) float64 { return m.Recall }},
		{"f1-score", func(m metrics.ClassMetrics) float64 { return m.F1Score }},
	}

	width := vg.Points(14)
	for i, s := range series {
		values := make(plotter.Values, len(report.Classes))
		for j, c := range report.Classes {
			values[j] = s.value(c)
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build %s bars", s.name)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(i-1)
		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}

	p.Legend.Top = true
	p.NominalX(report.Labels...)
	return p, nil
}

// SaveReportPlot writes ReportPlot to path. The image format follows the
// file extension (png, svg, pdf, ...).
func SaveReportPlot(fs afero.Fs, path string, report *metrics.Report) error {
	p, err := ReportPlot(report)
	if err != nil {
		return err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return errors.Wrapf(err, "unsupported plot format %q", format)
	}

	file, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err := wt.WriteTo(file); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(file.Close(), "failed to close %s", path)
}
