package main

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/belltscience/samurai/feature"
	"github.com/belltscience/samurai/inference"
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	var net feedforward.FeedforwardNetwork
	net.NewLayer(4, feedforward.ReLU)
	net.NewLayer(2, feedforward.Softmax)
	require.NoError(t, net.Init(feature.Dim, rand.New(rand.NewSource(1))))
	_, err := net.WriteLayersModelToDir(fs, "/model", feedforward.ExportOptions{
		Metadata: inference.NewMetadata(strikes.Vocabulary{"突き", "なし"}, nil, "run", 1),
	})
	require.NoError(t, err)

	d := &strikes.Dataset{}
	for i := 0; i < 5; i++ {
		var p feature.Pose
		p[feature.RightHand] = feature.Keypoint{X: 10 * i, Y: 3}
		d.Samples = append(d.Samples, strikes.Sample{Keypoints: p, Label: "なし"})
	}
	f, err := fs.Create("/data.csv")
	require.NoError(t, err)
	require.NoError(t, d.WriteCSV(f))
	require.NoError(t, f.Close())
	return fs
}

func TestInfer(t *testing.T) {
	fs := setup(t)
	r, err := infer(fs, args{Model: "/model", Input: "/data.csv", Predictions: "/pred.csv"}, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 5, r.Total)

	data, err := afero.ReadFile(fs, "/pred.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "sample,label,predicted,probability", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,なし,"))
}

func TestInferErrors(t *testing.T) {
	fs := setup(t)
	_, err := infer(fs, args{Model: "/missing", Input: "/data.csv"}, zap.NewNop().Sugar())
	assert.Error(t, err)

	_, err = infer(fs, args{Model: "/model", Input: "/missing.csv"}, zap.NewNop().Sugar())
	assert.Error(t, err)
}

// unsyncedFs creates files whose Close fails, as on a full disk.
type unsyncedFs struct{ afero.Fs }

type unsyncedFile struct{ afero.File }

func (u unsyncedFs) Create(name string) (afero.File, error) {
	f, err := u.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	return unsyncedFile{f}, nil
}

func (f unsyncedFile) Close() error {
	f.File.Close()
	return errors.New("no space left on device")
}

func TestInferReportsCloseError(t *testing.T) {
	fs := unsyncedFs{setup(t)}
	_, err := infer(fs, args{Model: "/model", Input: "/data.csv", Predictions: "/pred.csv"}, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closing /pred.csv")
}
