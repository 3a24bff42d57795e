package inference

import (
	"math/rand"
	"testing"

	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/feature"
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pose(handX int) (p feature.Pose) {
	p[feature.LeftShoulder] = feature.Keypoint{X: 90, Y: 100}
	p[feature.RightShoulder] = feature.Keypoint{X: 110, Y: 100}
	p[feature.LeftHip] = feature.Keypoint{X: 92, Y: 160}
	p[feature.RightHip] = feature.Keypoint{X: 108, Y: 160}
	p[feature.RightHand] = feature.Keypoint{X: handX, Y: 100}
	return
}

func export(t *testing.T, fs afero.Fs, classes strikes.Vocabulary, scaler *feature.Scaler) *feedforward.FeedforwardNetwork {
	var net feedforward.FeedforwardNetwork
	net.NewLayer(4, feedforward.ReLU)
	net.NewLayer(2, feedforward.Softmax)
	require.NoError(t, net.Init(feature.Dim, rand.New(rand.NewSource(1))))
	_, err := net.WriteLayersModelToDir(fs, "model", feedforward.ExportOptions{
		Metadata: NewMetadata(classes, scaler, "run-1", 9),
	})
	require.NoError(t, err)
	return &net
}

func TestLoadAndPredict(t *testing.T) {
	fs := afero.NewMemMapFs()
	classes := strikes.Vocabulary{"突き", "なし"}
	scaler := &feature.Scaler{
		Mean: []float64{1, 2, 3, 4, 5, 6, 7, 8},
		Std:  []float64{2, 2, 2, 2, 2, 2, 2, 2},
	}
	net := export(t, fs, classes, scaler)

	m, err := Load(fs, "model")
	require.NoError(t, err)
	assert.Equal(t, classes, m.Classes())
	assert.Equal(t, "run-1", m.Metadata.RunID)
	assert.Equal(t, int64(9), m.Metadata.Seed)
	assert.Equal(t, feature.Names[:], m.Metadata.Features)
	assert.Equal(t, scaler, m.Metadata.Scaler)

	p := pose(190)
	v := feature.Encode(&p)
	in := v[:]
	scaler.TransformVector(in)
	assert.InDeltaSlice(t, in, m.Features(&p), 1e-12)

	want := net.Infer(in)
	got := m.Infer(&p)
	assert.InDeltaSlice(t, want, got, 1e-5)

	name, prob := m.Predict(&p)
	assert.Equal(t, classes.Name(net.Predict(in)), name)
	assert.InDelta(t, want[net.Predict(in)], prob, 1e-5)
}

func TestLoadWithoutScaler(t *testing.T) {
	fs := afero.NewMemMapFs()
	export(t, fs, strikes.Vocabulary{"突き", "なし"}, nil)
	m, err := Load(fs, "model")
	require.NoError(t, err)
	assert.Nil(t, m.Metadata.Scaler)

	p := pose(150)
	v := feature.Encode(&p)
	assert.Equal(t, v[:], m.Features(&p))
}

func TestLoadRejectsMismatchedMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	export(t, fs, strikes.Vocabulary{"突き", "なし", "正蹴り"}, nil)
	_, err := Load(fs, "model")
	assert.ErrorIs(t, err, feedforward.ErrBadModel)

	fs = afero.NewMemMapFs()
	export(t, fs, strikes.Vocabulary{"突き", "なし"}, &feature.Scaler{Mean: []float64{0}, Std: []float64{1}})
	_, err = Load(fs, "model")
	assert.ErrorIs(t, err, feedforward.ErrBadModel)

	fs = afero.NewMemMapFs()
	var net feedforward.FeedforwardNetwork
	net.NewLayer(2, feedforward.Softmax)
	require.NoError(t, net.Init(feature.Dim, rand.New(rand.NewSource(1))))
	_, err = net.WriteLayersModelToDir(fs, "model", feedforward.ExportOptions{})
	require.NoError(t, err)
	_, err = Load(fs, "model")
	assert.ErrorIs(t, err, feedforward.ErrBadModel)
}

func TestEvaluate(t *testing.T) {
	fs := afero.NewMemMapFs()
	export(t, fs, strikes.Vocabulary{"突き", "なし"}, nil)
	m, err := Load(fs, "model")
	require.NoError(t, err)

	d := &strikes.Dataset{}
	for i := 0; i < 10; i++ {
		d.Samples = append(d.Samples, strikes.Sample{Keypoints: pose(100 + 10*i), Label: "突き"})
	}
	r := m.Evaluate(d, 3)
	require.Len(t, r.Predictions, 10)
	correct := 0
	for i, p := range r.Predictions {
		assert.Equal(t, i, p.Sample)
		assert.Equal(t, "突き", p.Label)
		name, prob := m.Predict(&d.Samples[i].Keypoints)
		assert.Equal(t, name, p.Predicted)
		assert.Equal(t, prob, p.Probability)
		if name == "突き" {
			correct++
		}
	}
	assert.Equal(t, correct, r.Correct)
	assert.Equal(t, 10, r.Total)
	assert.InDelta(t, float64(correct)/10, r.Accuracy(), 1e-12)
	assert.Zero(t, Report{}.Accuracy())
}
