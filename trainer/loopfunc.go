package trainer

import (
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/belltscience/samurai/learning"
	"github.com/belltscience/samurai/logging"
	"github.com/belltscience/samurai/net/feedforward"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrDiverged is returned when the training loss stops being a finite number.
var ErrDiverged = errors.New("training diverged")

// LoopOptions are the optional collaborators of a training loop.
type LoopOptions struct {
	Logger   *zap.SugaredLogger // per-epoch metrics, zap.NewNop when nil
	Progress io.Writer          // per-epoch progress bar, none when nil
	OnEpoch  func(EpochMetrics) // called after every finished epoch
}

// NewLoopFunc returns a function that fits net to train with mini-batch Adam
// for h.Epochs epochs. The training rows are reshuffled every epoch using a
// generator seeded with h.Seed. When test is not empty it is evaluated after
// every epoch. The returned history holds every finished epoch, also when the
// loop stops with ErrDiverged.
func NewLoopFunc(net *feedforward.FeedforwardNetwork, h learning.HyperParameters, train, test Data, opts LoopOptions) func() (History, error) {
	log := logging.OrNop(opts.Logger)

	return func() (History, error) {
		n := train.Len()
		if n == 0 {
			return nil, errors.New("no training samples")
		}
		rng := rand.New(rand.NewSource(h.Seed))
		opt := h.NewAdam()
		grads := net.NewGradients()
		params, slices := net.Params(), grads.Slices()
		evaluate := NewEvaluateFunc(net, test, h.Threads)

		history := make(History, 0, h.Epochs)
		for epoch := 1; epoch <= h.Epochs; epoch++ {
			start := time.Now()
			batches := Batches(n, h.BatchSize, rng)
			bar := newProgress(opts.Progress, len(batches), epoch, h.Epochs)

			var loss float64
			var correct int
			for _, idx := range batches {
				b := train.Rows(idx)
				l, c := net.Backward(b.X, b.Y, grads)
				if !finite(l) {
					bar.Finish()
					return history, errors.Wrapf(ErrDiverged, "epoch %d: batch loss %v", epoch, l)
				}
				loss += l
				correct += c
				opt.Step(params, slices)
				bar.Increment()
			}
			bar.Finish()

			m := EpochMetrics{
				Epoch: epoch,
				Loss:  loss / float64(n),
				Acc:   float64(correct) / float64(n),
			}
			if test.Len() > 0 {
				e := evaluate()
				if !finite(e.Loss) {
					return history, errors.Wrapf(ErrDiverged, "epoch %d: validation loss %v", epoch, e.Loss)
				}
				m.ValLoss, m.ValAcc = e.Loss, e.Accuracy
			}
			m.Seconds = time.Since(start).Seconds()

			log.Infow("epoch finished",
				"epoch", epoch,
				"epochs", h.Epochs,
				"loss", m.Loss,
				"acc", m.Acc,
				"val_loss", m.ValLoss,
				"val_acc", m.ValAcc,
				"seconds", m.Seconds,
			)
			history = append(history, m)
			if opts.OnEpoch != nil {
				opts.OnEpoch(m)
			}
		}
		return history, nil
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
