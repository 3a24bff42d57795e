package trainer

import (
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Resume overwrites the weights of an initialised net with those of the model
// exported to dir. The exported topology must match net exactly. When
// metadata is not nil the model's userDefinedMetadata is decoded into it.
func Resume(fs afero.Fs, net *feedforward.FeedforwardNetwork, dir string, metadata interface{}) error {
	prev, err := feedforward.ReadLayersModelFromDir(fs, dir, metadata)
	if err != nil {
		return errors.Wrapf(err, "resuming from %s", dir)
	}
	if err := net.CopyWeights(prev); err != nil {
		return errors.Wrapf(err, "resuming from %s", dir)
	}
	return nil
}
