// Package config holds the settings of a training run. Values come from the
// defaults, then an optional YAML file, then command line flags.
package config

import (
	"os"

	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/learning"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for settings that can't be trained with.
var ErrInvalid = errors.New("invalid config")

// SearchPaths are tried in order when Load is given no path.
var SearchPaths = []string{"configs/samurai.yaml", "samurai.yaml"}

// Config is a complete training run configuration.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig selects the input table and its preprocessing.
type DataConfig struct {
	Input        string  `yaml:"input"`         // strike table (CSV)
	Standardize  bool    `yaml:"standardize"`   // zero mean, unit variance feature columns
	TestFraction float64 `yaml:"test_fraction"` // share of samples held out for validation
}

// ModelConfig describes the network layout.
type ModelConfig struct {
	Hidden      []int    `yaml:"hidden"`       // ReLU layer widths, input side first
	OutputUnits int      `yaml:"output_units"` // 0 means one per class
	Classes     []string `yaml:"classes"`      // label vocabulary, in output order
}

// TrainingConfig holds the optimizer and loop settings.
type TrainingConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`    // 0 draws a random seed
	Threads      int     `yaml:"threads"` // 0 means one per logical core
}

// ExportConfig says where and how the trained model is written.
type ExportConfig struct {
	Dir        string `yaml:"dir"`
	ShardBytes int    `yaml:"shard_bytes"`
	History    string `yaml:"history"` // file name inside Dir, empty disables
	Chart      string `yaml:"chart"`   // HTML loss and accuracy curves inside Dir, empty disables
}

// LogConfig sets the console log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the settings of the reference training recipe.
func Default() *Config {
	h := learning.Default()
	return &Config{
		Data: DataConfig{
			Standardize:  true,
			TestFraction: 0.2,
		},
		Model: ModelConfig{
			Hidden:  []int{2048, 2048, 2048, 1024},
			Classes: append([]string(nil), strikes.Categories...),
		},
		Training: TrainingConfig{
			Epochs:       h.Epochs,
			BatchSize:    h.BatchSize,
			LearningRate: h.LearningRate,
		},
		Export: ExportConfig{
			Dir:        "./tfjs_model",
			ShardBytes: 4 << 20,
			History:    "history.csv",
			Chart:      "history.html",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overridden by the YAML file at path. With an empty
// path the SearchPaths are tried and a missing file is not an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if path == "" {
		for _, p := range SearchPaths {
			data, err := afero.ReadFile(fs, p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, errors.Wrapf(err, "parsing %s", p)
				}
				return cfg, nil
			}
			if !os.IsNotExist(err) {
				return cfg, errors.Wrapf(err, "reading %s", p)
			}
		}
		return cfg, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, nil
}

// Validate reports the first setting that can't be used.
func (c *Config) Validate() error {
	if c.Data.Input == "" {
		return errors.Wrap(ErrInvalid, "no input table")
	}
	if c.Data.TestFraction <= 0 || c.Data.TestFraction >= 1 {
		return errors.Wrapf(ErrInvalid, "test_fraction %v is outside (0, 1)", c.Data.TestFraction)
	}
	for i, w := range c.Model.Hidden {
		if w <= 0 {
			return errors.Wrapf(ErrInvalid, "hidden layer %d has width %d", i, w)
		}
	}
	if len(c.Model.Classes) < 2 {
		return errors.Wrapf(ErrInvalid, "%d classes, need at least 2", len(c.Model.Classes))
	}
	seen := make(map[string]bool, len(c.Model.Classes))
	for _, name := range c.Model.Classes {
		if seen[name] {
			return errors.Wrapf(ErrInvalid, "class %q listed twice", name)
		}
		seen[name] = true
	}
	if c.Model.OutputUnits != 0 && c.Model.OutputUnits != len(c.Model.Classes) {
		return errors.Wrapf(ErrInvalid, "output_units %d doesn't match %d classes", c.Model.OutputUnits, len(c.Model.Classes))
	}
	if c.Training.Epochs <= 0 {
		return errors.Wrapf(ErrInvalid, "epochs %d", c.Training.Epochs)
	}
	if c.Training.BatchSize <= 0 {
		return errors.Wrapf(ErrInvalid, "batch_size %d", c.Training.BatchSize)
	}
	if c.Training.LearningRate <= 0 {
		return errors.Wrapf(ErrInvalid, "learning_rate %v", c.Training.LearningRate)
	}
	if c.Training.Threads < 0 {
		return errors.Wrapf(ErrInvalid, "threads %d", c.Training.Threads)
	}
	if c.Export.Dir == "" {
		return errors.Wrap(ErrInvalid, "no export dir")
	}
	if c.Export.ShardBytes < 0 {
		return errors.Wrapf(ErrInvalid, "shard_bytes %d", c.Export.ShardBytes)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(ErrInvalid, "log level %q", c.Log.Level)
	}
	return nil
}

// Vocabulary returns the configured classes.
func (c *Config) Vocabulary() strikes.Vocabulary {
	return strikes.Vocabulary(c.Model.Classes)
}

// HyperParameters returns the optimizer and loop settings with seed and
// threads resolved by the caller.
func (c *Config) HyperParameters(seed int64, threads int) learning.HyperParameters {
	h := learning.Default()
	h.Epochs = c.Training.Epochs
	h.BatchSize = c.Training.BatchSize
	h.LearningRate = c.Training.LearningRate
	h.Seed = seed
	h.Threads = threads
	return h
}
