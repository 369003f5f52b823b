package model

import (
	"encoding/gob"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ezoic/phishing-classifier/pkg/errors"
)

// SaveModel はモデルをファイルに保存する
//
// 親ディレクトリが存在しない場合は作成する。
//
// 使用例:
//
//	err := model.SaveModel(afero.NewOsFs(), pipe, "model/model.gob")
func SaveModel(fs afero.Fs, m interface{}, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	file, err := fs.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}

	if err := SaveModelToWriter(m, file); err != nil {
		_ = file.Close()
		return err
	}
	return errors.Wrap(file.Close(), "failed to close file")
}

// LoadModel はファイルからモデルを読み込む
//
// m は読み込み先のポインタ。
func LoadModel(fs afero.Fs, m interface{}, filename string) error {
	file, err := fs.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	return LoadModelFromReader(m, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(m interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
//
// 壊れた入力でgobがpanicした場合もエラーとして返す。
func LoadModelFromReader(m interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	err := errors.SafeExecute("gob decode", func() error {
		return decoder.Decode(m)
	})
	if err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
