// Package inference loads an exported strike classifier and runs it on poses.
package inference

import (
	"sync/atomic"

	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/feature"
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/belltscience/samurai/parallel"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Metadata is stored as userDefinedMetadata of an exported model. It carries
// everything needed to turn a raw pose into a class name.
type Metadata struct {
	Classes        []string        `json:"classes"`
	Features       []string        `json:"features"`
	FeatureVersion string          `json:"feature_version"`
	Scaler         *feature.Scaler `json:"scaler,omitempty"`
	RunID          string          `json:"run_id"`
	Seed           int64           `json:"seed"`
}

// NewMetadata describes a model trained on classes, standardized by scaler
// (nil when the features were used as is).
func NewMetadata(classes strikes.Vocabulary, scaler *feature.Scaler, runID string, seed int64) Metadata {
	return Metadata{
		Classes:        append([]string(nil), classes...),
		Features:       append([]string(nil), feature.Names[:]...),
		FeatureVersion: feature.Version,
		Scaler:         scaler,
		RunID:          runID,
		Seed:           seed,
	}
}

// Model is a reloaded classifier with its metadata.
type Model struct {
	Net      *feedforward.FeedforwardNetwork
	Metadata Metadata
}

// Load reads the model exported to dir and checks that its metadata matches
// the network.
func Load(fs afero.Fs, dir string) (*Model, error) {
	var meta Metadata
	net, err := feedforward.ReadLayersModelFromDir(fs, dir, &meta)
	if err != nil {
		return nil, err
	}
	m := &Model{Net: net, Metadata: meta}
	if err := m.check(); err != nil {
		return nil, errors.Wrapf(err, "loading %s", dir)
	}
	return m, nil
}

func (m *Model) check() error {
	meta := m.Metadata
	if meta.FeatureVersion != feature.Version {
		return errors.Wrapf(feedforward.ErrBadModel, "feature version %q, want %q", meta.FeatureVersion, feature.Version)
	}
	if m.Net.Inputs() != feature.Dim {
		return errors.Wrapf(feedforward.ErrBadModel, "%d inputs, want %d", m.Net.Inputs(), feature.Dim)
	}
	if len(meta.Classes) != m.Net.GetClasses() {
		return errors.Wrapf(feedforward.ErrBadModel, "%d class names for %d outputs", len(meta.Classes), m.Net.GetClasses())
	}
	if s := meta.Scaler; s != nil && (len(s.Mean) != feature.Dim || len(s.Std) != feature.Dim) {
		return errors.Wrapf(feedforward.ErrBadModel, "scaler has %d/%d columns", len(s.Mean), len(s.Std))
	}
	return nil
}

// Classes returns the class vocabulary of the model.
func (m *Model) Classes() strikes.Vocabulary {
	return strikes.Vocabulary(m.Metadata.Classes)
}

// Features returns the network input of a pose.
func (m *Model) Features(p *feature.Pose) []float64 {
	v := feature.Encode(p)
	in := v[:]
	if m.Metadata.Scaler != nil {
		m.Metadata.Scaler.TransformVector(in)
	}
	return in
}

// Infer returns the class probabilities of a pose.
func (m *Model) Infer(p *feature.Pose) []float64 {
	return m.Net.Infer(m.Features(p))
}

// Predict returns the most probable class of a pose and its probability.
func (m *Model) Predict(p *feature.Pose) (string, float64) {
	probs := m.Infer(p)
	best := 0
	for i, v := range probs {
		if v > probs[best] {
			best = i
		}
	}
	return m.Classes().Name(best), probs[best]
}

// Prediction is the outcome for one sample of a dataset.
type Prediction struct {
	Sample      int     `csv:"sample"`
	Label       string  `csv:"label"`
	Predicted   string  `csv:"predicted"`
	Probability float64 `csv:"probability"`
}

// Report summarises a model run over a dataset.
type Report struct {
	Predictions []Prediction
	Correct     int
	Total       int
}

// Accuracy is the share of samples predicted correctly.
func (r Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Evaluate predicts every sample of d using up to threads goroutines.
func (m *Model) Evaluate(d *strikes.Dataset, threads int) Report {
	r := Report{
		Predictions: make([]Prediction, d.Len()),
		Total:       d.Len(),
	}
	var correct atomic.Int64
	parallel.ForEach(d.Len(), threads, func(i int) {
		s := &d.Samples[i]
		name, p := m.Predict(&s.Keypoints)
		r.Predictions[i] = Prediction{Sample: i, Label: s.Label, Predicted: name, Probability: p}
		if name == s.Label {
			correct.Add(1)
		}
	})
	r.Correct = int(correct.Load())
	return r
}
