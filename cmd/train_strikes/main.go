package main

import (
	"log"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/belltscience/samurai/config"
	"github.com/belltscience/samurai/logging"
	"github.com/belltscience/samurai/parallel"
	"github.com/spf13/afero"
)

type args struct {
	Config        string  `arg:"--config" help:"YAML run configuration"`
	Input         string  `arg:"--input" help:"strike table (CSV)"`
	Output        string  `arg:"--output" help:"export directory"`
	Seed          *int64  `arg:"--seed" help:"random seed, 0 draws one"`
	Epochs        int     `arg:"--epochs" help:"training epochs"`
	LearningRate  float64 `arg:"--lr" help:"Adam step size"`
	NoStandardize bool    `arg:"--no-standardize" help:"train on raw distances"`
	Resume        bool    `arg:"--resume" help:"start from the weights in the export directory"`
	LogLevel      string  `arg:"--log-level" help:"debug, info, warn or error"`
}

func (args) Description() string {
	return "trains the strike classifier and exports a TensorFlow.js layers-model"
}

// apply overrides the config with the flags that were set.
func (a args) apply(cfg *config.Config) {
	if a.Input != "" {
		cfg.Data.Input = a.Input
	}
	if a.Output != "" {
		cfg.Export.Dir = a.Output
	}
	if a.Seed != nil {
		cfg.Training.Seed = *a.Seed
	}
	if a.Epochs != 0 {
		cfg.Training.Epochs = a.Epochs
	}
	if a.LearningRate != 0 {
		cfg.Training.LearningRate = a.LearningRate
	}
	if a.NoStandardize {
		cfg.Data.Standardize = false
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
}

func fail(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	var a args
	arg.MustParse(&a)

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, a.Config)
	fail(err)
	a.apply(cfg)
	fail(cfg.Validate())

	logger, err := logging.New(cfg.Log.Level)
	fail(err)
	defer logger.Sync()
	logger.Infow("host", "cpu", parallel.Describe())

	p := &pipeline{fs: fs, cfg: cfg, resume: a.Resume, log: logger, progress: os.Stderr}
	if _, err := p.run(); err != nil {
		logger.Errorw("training failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
