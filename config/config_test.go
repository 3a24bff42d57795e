package config

import (
	"testing"

	"github.com/belltscience/samurai/datasets/strikes"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Load(fs, "/nonexistent/path/samurai.yaml")
	assert.Error(t, err)

	cfg, err := Load(fs, "")
	require.NoError(t, err)
	assert.True(t, cfg.Data.Standardize)
	assert.Equal(t, 0.2, cfg.Data.TestFraction)
	assert.Equal(t, []int{2048, 2048, 2048, 1024}, cfg.Model.Hidden)
	assert.Equal(t, []string(strikes.Categories), cfg.Model.Classes)
	assert.Equal(t, 150, cfg.Training.Epochs)
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.Equal(t, 0.001, cfg.Training.LearningRate)
	assert.Equal(t, "./tfjs_model", cfg.Export.Dir)
	assert.Equal(t, 4<<20, cfg.Export.ShardBytes)
}

func TestLoadFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
data:
  input: strikes.csv
  standardize: false
model:
  hidden: [64, 32]
  classes: [突き, なし]
training:
  epochs: 10
  seed: 42
export:
  dir: out
`
	require.NoError(t, afero.WriteFile(fs, "run.yaml", []byte(content), 0644))
	cfg, err := Load(fs, "run.yaml")
	require.NoError(t, err)
	assert.Equal(t, "strikes.csv", cfg.Data.Input)
	assert.False(t, cfg.Data.Standardize)
	assert.Equal(t, 0.2, cfg.Data.TestFraction)
	assert.Equal(t, []int{64, 32}, cfg.Model.Hidden)
	assert.Equal(t, strikes.Vocabulary{"突き", "なし"}, cfg.Vocabulary())
	assert.Equal(t, 10, cfg.Training.Epochs)
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.Equal(t, "out", cfg.Export.Dir)
	require.NoError(t, cfg.Validate())

	h := cfg.HyperParameters(42, 3)
	assert.Equal(t, int64(42), h.Seed)
	assert.Equal(t, 3, h.Threads)
	assert.Equal(t, 10, h.Epochs)
	assert.Equal(t, 0.9, h.Beta1)
}

func TestLoadSearchPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "samurai.yaml", []byte("training:\n  epochs: 3\n"), 0644))
	cfg, err := Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Training.Epochs)

	require.NoError(t, afero.WriteFile(fs, "configs/samurai.yaml", []byte("training: [\n"), 0644))
	_, err = Load(fs, "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Data.Input = "strikes.csv"
		return c
	}
	require.NoError(t, valid().Validate())

	for name, edit := range map[string]func(*Config){
		"no input":           func(c *Config) { c.Data.Input = "" },
		"zero test fraction": func(c *Config) { c.Data.TestFraction = 0 },
		"all test":           func(c *Config) { c.Data.TestFraction = 1 },
		"zero width":         func(c *Config) { c.Model.Hidden = []int{8, 0} },
		"one class":          func(c *Config) { c.Model.Classes = []string{"なし"} },
		"duplicate class":    func(c *Config) { c.Model.Classes = []string{"なし", "なし"} },
		"output units":       func(c *Config) { c.Model.OutputUnits = 3 },
		"no epochs":          func(c *Config) { c.Training.Epochs = 0 },
		"no batch":           func(c *Config) { c.Training.BatchSize = 0 },
		"learning rate":      func(c *Config) { c.Training.LearningRate = 0 },
		"threads":            func(c *Config) { c.Training.Threads = -1 },
		"no dir":             func(c *Config) { c.Export.Dir = "" },
		"shard bytes":        func(c *Config) { c.Export.ShardBytes = -1 },
		"log level":          func(c *Config) { c.Log.Level = "loud" },
	} {
		c := valid()
		edit(c)
		assert.ErrorIs(t, c.Validate(), ErrInvalid, name)
	}

	c := valid()
	c.Model.OutputUnits = len(strikes.Categories)
	assert.NoError(t, c.Validate())

	c = valid()
	c.Model.Hidden = nil
	assert.NoError(t, c.Validate())
}
