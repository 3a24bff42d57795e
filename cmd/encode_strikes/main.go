package main

import (
	"io"
	"log"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/feature"
	"github.com/belltscience/samurai/logging"
	"github.com/belltscience/samurai/parallel"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type args struct {
	Input         string `arg:"--input,required" help:"strike table (CSV)"`
	Output        string `arg:"--output,required" help:"feature table to write (CSV)"`
	NoStandardize bool   `arg:"--no-standardize" help:"write raw distances"`
	LogLevel      string `arg:"--log-level" default:"info"`
}

func (args) Description() string {
	return "encodes a pose table into distance features"
}

// row is one line of the feature table.
type row struct {
	Sample            int     `csv:"sample"`
	Label             string  `csv:"label"`
	LeftHandShoulder  float64 `csv:"left_hand_shoulder"`
	RightHandShoulder float64 `csv:"right_hand_shoulder"`
	LeftHandTorso     float64 `csv:"left_hand_torso"`
	RightHandTorso    float64 `csv:"right_hand_torso"`
	LeftFootShoulder  float64 `csv:"left_foot_shoulder"`
	RightFootShoulder float64 `csv:"right_foot_shoulder"`
	LeftFootTorso     float64 `csv:"left_foot_torso"`
	RightFootTorso    float64 `csv:"right_foot_torso"`
}

func newRow(i int, label string, v []float64) row {
	return row{
		Sample:            i,
		Label:             label,
		LeftHandShoulder:  v[0],
		RightHandShoulder: v[1],
		LeftHandTorso:     v[2],
		RightHandTorso:    v[3],
		LeftFootShoulder:  v[4],
		RightFootShoulder: v[5],
		LeftFootTorso:     v[6],
		RightFootTorso:    v[7],
	}
}

func fail(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// encode writes the feature table of a.Input to a.Output and the column
// summaries to report.
func encode(fs afero.Fs, a args, report io.Writer, log *zap.SugaredLogger) error {
	ds, err := strikes.Loader{Fs: fs, Logger: log}.Load(a.Input)
	if err != nil {
		return err
	}
	x := ds.Encode(parallel.Threads())
	if !a.NoStandardize {
		feature.FitScaler(x).Transform(x)
	}

	rows := make([]row, ds.Len())
	for i := range rows {
		rows[i] = newRow(i, ds.Samples[i].Label, x.RawRowView(i))
	}
	f, err := fs.Create(a.Output)
	if err != nil {
		return errors.Wrapf(err, "creating %s", a.Output)
	}
	defer f.Close()
	if err := gocsv.Marshal(&rows, f); err != nil {
		return errors.Wrapf(err, "writing %s", a.Output)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", a.Output)
	}
	log.Infow("wrote features", "file", a.Output, "standardized", !a.NoStandardize)

	summary, err := feature.Describe(x)
	if err != nil {
		return err
	}
	return gocsv.Marshal(&summary, report)
}

func main() {
	var a args
	arg.MustParse(&a)

	logger, err := logging.New(a.LogLevel)
	fail(err)
	defer logger.Sync()

	if err := encode(afero.NewOsFs(), a, os.Stdout, logger); err != nil {
		logger.Errorw("encoding failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}
