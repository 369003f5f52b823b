package frame

import (
	"bufio"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ezoic/phishing-classifier/pkg/errors"
)

const utf8BOM = "\ufeff"

// ReadCSV loads a CSV file with a header row from fs.
func ReadCSV(fs afero.Fs, path string) (*Frame, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = file.Close() }()

	f, err := ReadCSVFrom(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return f, nil
}

// ReadCSVFrom parses CSV with a header row from r.
func ReadCSVFrom(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read csv record")
		}
		rows = append(rows, rec)
	}

	return New(header, rows)
}

// WriteCSV writes the header and rows of f to w.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.columns); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	if err := writer.WriteAll(f.rows); err != nil {
		return errors.Wrap(err, "failed to write csv records")
	}
	return nil
}

// SaveCSV writes f to path on fs, creating parent directories as needed.
func SaveCSV(fs afero.Fs, path string, f *Frame) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	file, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := f.WriteCSV(file); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(file.Close(), "failed to close %s", path)
}
