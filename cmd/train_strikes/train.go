package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"path/filepath"

	"github.com/belltscience/samurai/config"
	"github.com/belltscience/samurai/datasets"
	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/feature"
	"github.com/belltscience/samurai/inference"
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/belltscience/samurai/parallel"
	"github.com/belltscience/samurai/trainer"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// result describes a finished training run.
type result struct {
	RunID       string
	Seed        int64
	Samples     int
	Train, Test int
	History     trainer.History
	WeightBytes int64
}

// pipeline runs one training from a validated config.
type pipeline struct {
	fs       afero.Fs
	cfg      *config.Config
	resume   bool
	log      *zap.SugaredLogger
	progress io.Writer
}

// randomSeed draws a non-zero seed from the system entropy source.
func randomSeed() (int64, error) {
	var b [8]byte
	for {
		if _, err := crand.Read(b[:]); err != nil {
			return 0, errors.Wrap(err, "drawing a seed")
		}
		if s := int64(binary.LittleEndian.Uint64(b[:]) >> 1); s != 0 {
			return s, nil
		}
	}
}

// network builds the untrained classifier for the configured layer widths.
func network(cfg *config.Config) *feedforward.FeedforwardNetwork {
	var net feedforward.FeedforwardNetwork
	for _, w := range cfg.Model.Hidden {
		net.NewLayer(w, feedforward.ReLU)
	}
	net.NewLayer(len(cfg.Model.Classes), feedforward.Softmax)
	return &net
}

func (p *pipeline) run() (*result, error) {
	cfg := p.cfg
	res := &result{RunID: uuid.New().String(), Seed: cfg.Training.Seed}
	if res.Seed == 0 {
		s, err := randomSeed()
		if err != nil {
			return nil, err
		}
		res.Seed = s
	}
	threads := cfg.Training.Threads
	if threads == 0 {
		threads = parallel.Threads()
	}
	log := p.log.With("run", res.RunID)
	log.Infow("starting training", "seed", res.Seed, "threads", threads, "input", cfg.Data.Input)

	ds, err := strikes.Loader{Fs: p.fs, Logger: log}.Load(cfg.Data.Input)
	if err != nil {
		return nil, err
	}
	res.Samples = ds.Len()

	x := ds.Encode(threads)
	y, _, err := ds.Targets(cfg.Vocabulary())
	if err != nil {
		return nil, err
	}
	var scaler *feature.Scaler
	if cfg.Data.Standardize {
		scaler = feature.FitScaler(x)
		scaler.Transform(x)
	}

	rng := rand.New(rand.NewSource(res.Seed))
	split, err := datasets.SplitDataset(ds.Len(), cfg.Data.TestFraction, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "splitting %s samples", humanize.Comma(int64(ds.Len())))
	}
	data := trainer.Data{X: x, Y: y}
	train, test := data.Rows(split.Train), data.Rows(split.Test)
	res.Train, res.Test = train.Len(), test.Len()
	log.Infow("split dataset", "train", res.Train, "test", res.Test)

	net := network(cfg)
	if err := net.Init(feature.Dim, rng); err != nil {
		return nil, err
	}
	if p.resume {
		if err := trainer.Resume(p.fs, net, cfg.Export.Dir, nil); err != nil {
			return nil, err
		}
		log.Infow("resumed weights", "dir", cfg.Export.Dir)
	}

	h := cfg.HyperParameters(res.Seed, threads)
	res.History, err = trainer.NewLoopFunc(net, h, train, test, trainer.LoopOptions{
		Logger:   log,
		Progress: p.progress,
	})()
	if err != nil {
		return res, err
	}

	meta := inference.NewMetadata(cfg.Vocabulary(), scaler, res.RunID, res.Seed)
	res.WeightBytes, err = net.WriteLayersModelToDir(p.fs, cfg.Export.Dir, feedforward.ExportOptions{
		ShardBytes:  cfg.Export.ShardBytes,
		GeneratedBy: "samurai " + feature.Version,
		Metadata:    meta,
	})
	if err != nil {
		return res, errors.Wrapf(err, "exporting to %s", cfg.Export.Dir)
	}
	log.Infow("exported model", "dir", cfg.Export.Dir, "weights", humanize.Bytes(uint64(res.WeightBytes)))

	if cfg.Export.History != "" {
		path := filepath.Join(cfg.Export.Dir, cfg.Export.History)
		if err := res.History.WriteCSV(p.fs, path); err != nil {
			return res, err
		}
	}
	if cfg.Export.Chart != "" {
		path := filepath.Join(cfg.Export.Dir, cfg.Export.Chart)
		if err := res.History.WriteHTML(p.fs, path); err != nil {
			return res, err
		}
	}

	last := res.History.Last()
	log.Infow("training finished", "acc", last.Acc, "val_acc", last.ValAcc, "val_loss", last.ValLoss)
	return res, nil
}
