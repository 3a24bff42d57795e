package main

import (
	"log"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/inference"
	"github.com/belltscience/samurai/logging"
	"github.com/belltscience/samurai/parallel"
	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type args struct {
	Model       string `arg:"--model" default:"./tfjs_model" help:"exported model directory"`
	Input       string `arg:"--input,required" help:"strike table (CSV)"`
	Predictions string `arg:"--predictions" help:"write per-sample predictions to this CSV file"`
	LogLevel    string `arg:"--log-level" default:"info"`
}

func (args) Description() string {
	return "evaluates an exported strike classifier on a pose table"
}

func fail(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// infer evaluates the model in a.Model on the table a.Input.
func infer(fs afero.Fs, a args, log *zap.SugaredLogger) (inference.Report, error) {
	m, err := inference.Load(fs, a.Model)
	if err != nil {
		return inference.Report{}, err
	}
	log.Infow("loaded model", "dir", a.Model, "run", m.Metadata.RunID, "classes", len(m.Metadata.Classes))

	ds, err := strikes.Loader{Fs: fs, Logger: log}.Load(a.Input)
	if err != nil {
		return inference.Report{}, err
	}
	r := m.Evaluate(ds, parallel.Threads())
	log.Infow("evaluated",
		"correct", humanize.Comma(int64(r.Correct)),
		"samples", humanize.Comma(int64(r.Total)),
		"accuracy", r.Accuracy())

	if a.Predictions != "" {
		f, err := fs.Create(a.Predictions)
		if err != nil {
			return r, errors.Wrapf(err, "creating %s", a.Predictions)
		}
		defer f.Close()
		if err := gocsv.Marshal(&r.Predictions, f); err != nil {
			return r, errors.Wrapf(err, "writing %s", a.Predictions)
		}
		if err := f.Close(); err != nil {
			return r, errors.Wrapf(err, "closing %s", a.Predictions)
		}
	}
	return r, nil
}

func main() {
	var a args
	arg.MustParse(&a)

	logger, err := logging.New(a.LogLevel)
	fail(err)
	defer logger.Sync()

	if _, err := infer(afero.NewOsFs(), a, logger); err != nil {
		logger.Errorw("inference failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
