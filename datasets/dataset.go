// Package datasets implements dataset partitioning shared by the training
// programs.
package datasets

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrEmptySplit is returned when a split would leave the train or the test
// partition without samples.
var ErrEmptySplit = errors.New("split leaves an empty partition")

// Split holds sample indices of the train and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// SplitDataset randomly assigns n samples to a train and a test partition.
// The test partition gets ceil(n*testFraction) samples and the train partition
// the rest.
func SplitDataset(n int, testFraction float64, rng *rand.Rand) (Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, errors.Errorf("test fraction %v outside (0, 1)", testFraction)
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	nTrain := n - nTest
	if nTest <= 0 || nTrain <= 0 {
		return Split{}, errors.Wrapf(ErrEmptySplit, "%d samples with test fraction %v", n, testFraction)
	}
	perm := rng.Perm(n)
	return Split{
		Train: perm[nTest:],
		Test:  perm[:nTest],
	}, nil
}
