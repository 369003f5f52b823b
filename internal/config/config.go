// Package config loads the settings shared by the prepare and train
// commands. Defaults reproduce the reference workflow; an optional config
// file and command line flags override them. Environment variables are
// not read.
package config

import (
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Split   SplitConfig   `mapstructure:"split"`
	Model   ModelConfig   `mapstructure:"model"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatasetConfig struct {
	TargetColumn      string `mapstructure:"target_column"`
	DateColumn        string `mapstructure:"date_column"`
	CategoricalColumn string `mapstructure:"categorical_column"`
}

type SplitConfig struct {
	Dir       string  `mapstructure:"dir"`
	TrainFile string  `mapstructure:"train_file"`
	TestFile  string  `mapstructure:"test_file"`
	TestSize  float64 `mapstructure:"test_size"`
	Seed      uint64  `mapstructure:"seed"`
}

// ModelConfig holds the encoder and LogisticRegression hyper-parameters.
type ModelConfig struct {
	HandleUnknown string  `mapstructure:"handle_unknown"`
	Penalty       string  `mapstructure:"penalty"`
	C             float64 `mapstructure:"c"`
	FitIntercept  bool    `mapstructure:"fit_intercept"`
	Solver        string  `mapstructure:"solver"`
	MaxIter       int     `mapstructure:"max_iter"`
	Tol           float64 `mapstructure:"tol"`
	MultiClass    string  `mapstructure:"multi_class"`
}

// FlagBindings maps config keys to the command line flags that override
// them. Flags missing from a command's flag set are skipped.
var FlagBindings = map[string]string{
	"log.level": "log-level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("dataset.target_column", "target")
	v.SetDefault("dataset.date_column", "scrape_date")
	v.SetDefault("dataset.categorical_column", "ext")

	v.SetDefault("split.dir", "data/split")
	v.SetDefault("split.train_file", "phishing_train.csv")
	v.SetDefault("split.test_file", "phishing_test.csv")
	v.SetDefault("split.test_size", 0.2)
	v.SetDefault("split.seed", 111)

	v.SetDefault("model.handle_unknown", "error")
	v.SetDefault("model.penalty", "l2")
	v.SetDefault("model.c", 1.0)
	v.SetDefault("model.fit_intercept", true)
	v.SetDefault("model.solver", "lbfgs")
	v.SetDefault("model.max_iter", 100)
	v.SetDefault("model.tol", 1e-4)
	v.SetDefault("model.multi_class", "auto")
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load(afero.NewMemMapFs(), "", nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration. path may be empty, in which case only the
// defaults and flags apply. The file format follows its extension (yaml,
// json, toml). flags may be nil.
func Load(fs afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	if flags != nil {
		for key, name := range FlagBindings {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "failed to bind flag --%s", name)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a job.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Dataset.TargetColumn == "" {
		return errors.NewValidationError("dataset.target_column", "must not be empty", c.Dataset.TargetColumn)
	}
	if !(c.Split.TestSize > 0 && c.Split.TestSize < 1) {
		return errors.NewValidationError("split.test_size", "should be in the (0, 1) range", c.Split.TestSize)
	}
	if c.Split.Dir == "" || c.Split.TrainFile == "" || c.Split.TestFile == "" {
		return errors.NewValidationError("split", "dir, train_file and test_file must be set", c.Split)
	}
	if c.Model.C <= 0 {
		return errors.NewValidationError("model.c", "must be positive", c.Model.C)
	}
	if c.Model.MaxIter <= 0 {
		return errors.NewValidationError("model.max_iter", "must be positive", c.Model.MaxIter)
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return level
}
